package http

import (
	"context"
	nethttp "net/http"
	"strconv"
	"time"

	"Polis/internal/economy/app/model"
	"Polis/internal/economy/interfaces/handler"
	"Polis/internal/shared/gameconfig/building"
	"Polis/internal/shared/transport"
	"Polis/internal/shared/transport/http/middleware"

	"github.com/gin-gonic/gin"
)

type HttpHandler struct {
	eco       *handler.Economy
	tickToken string
}

func NewHttpHandler(e *handler.Economy, tickToken string) *HttpHandler {
	return &HttpHandler{eco: e, tickToken: tickToken}
}

type buildReq struct {
	BuildingType string `json:"building_type" binding:"required"`
}

type upgradeReq struct {
	BuildingID string `json:"building_id" binding:"required"`
}

func (h *HttpHandler) RegisterRoutes(group *gin.RouterGroup) {
	player := group.Group("", middleware.Auth())
	player.GET("/cities/:cityId", h.GetCity)
	player.GET("/cities/:cityId/queue", h.GetQueue)
	player.POST("/cities/:cityId/queue/build", h.EnqueueBuild)
	player.POST("/cities/:cityId/queue/upgrade", h.EnqueueUpgrade)
	player.GET("/cities/:cityId/completed", h.RecentCompletions)
	player.GET("/queue", h.ListActiveQueue)
	player.POST("/queue/check", h.CheckDue)

	ops := group.Group("/game", middleware.TickToken(h.tickToken))
	ops.POST("/tick", h.RunTick)
	ops.GET("/scheduler", h.SchedulerStatus)
	ops.GET("/ticks", h.RecentTicks)
}

func (h *HttpHandler) GetCity(c *gin.Context) {
	ctx := c.Request.Context()
	view, err := h.eco.Econ.GetCityView(ctx, middleware.CallerID(c), c.Param("cityId"))
	if err != nil {
		h.error(ctx, c, "economy.GetCity", err)
		return
	}
	h.ok(c, view)
}

func (h *HttpHandler) GetQueue(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.eco.Econ.GetQueueStatus(ctx, middleware.CallerID(c), c.Param("cityId"))
	if err != nil {
		h.error(ctx, c, "economy.GetQueue", err)
		return
	}
	h.ok(c, st)
}

func (h *HttpHandler) EnqueueBuild(c *gin.Context) {
	ctx := c.Request.Context()
	var req buildReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, transport.InvalidParam, "参数有误")
		return
	}
	res, err := h.eco.Econ.EnqueueBuild(ctx, middleware.CallerID(c), c.Param("cityId"), building.Type(req.BuildingType))
	if err != nil {
		h.error(ctx, c, "economy.EnqueueBuild", err)
		return
	}
	h.ok(c, res)
}

func (h *HttpHandler) EnqueueUpgrade(c *gin.Context) {
	ctx := c.Request.Context()
	var req upgradeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, transport.InvalidParam, "参数有误")
		return
	}
	res, err := h.eco.Econ.EnqueueUpgrade(ctx, middleware.CallerID(c), c.Param("cityId"), req.BuildingID)
	if err != nil {
		h.error(ctx, c, "economy.EnqueueUpgrade", err)
		return
	}
	h.ok(c, res)
}

func (h *HttpHandler) RecentCompletions(c *gin.Context) {
	ctx := c.Request.Context()
	var window time.Duration
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			h.fail(c, transport.InvalidParam, "window 格式有误")
			return
		}
		window = d
	}
	items, err := h.eco.Econ.RecentCompletions(ctx, middleware.CallerID(c), c.Param("cityId"), window)
	if err != nil {
		h.error(ctx, c, "economy.RecentCompletions", err)
		return
	}
	h.ok(c, items)
}

func (h *HttpHandler) ListActiveQueue(c *gin.Context) {
	ctx := c.Request.Context()
	items, err := h.eco.Econ.ListActiveQueue(ctx, middleware.CallerID(c))
	if err != nil {
		h.error(ctx, c, "economy.ListActiveQueue", err)
		return
	}
	h.ok(c, items)
}

func (h *HttpHandler) CheckDue(c *gin.Context) {
	ctx := c.Request.Context()
	res, err := h.eco.Econ.CheckDue(ctx, middleware.CallerID(c))
	if err != nil {
		h.error(ctx, c, "economy.CheckDue", err)
		return
	}
	h.ok(c, res)
}

// RunTick 只返回汇总计数，内部错误不透出。
func (h *HttpHandler) RunTick(c *gin.Context) {
	ctx := c.Request.Context()
	rep, err := h.eco.Ticks.RunTick(ctx, time.Now(), model.TriggerManual)
	if err != nil {
		h.error(ctx, c, "economy.RunTick", err)
		return
	}
	h.ok(c, gin.H{
		"buildings_finalized": rep.BuildingsFinalized,
		"cities_updated":      rep.CitiesUpdated,
		"cities_scanned":      rep.CitiesScanned,
		"failures":            rep.Failures,
		"run_id":              strconv.FormatInt(rep.RunID, 10),
	})
}

func (h *HttpHandler) SchedulerStatus(c *gin.Context) {
	ctx := c.Request.Context()
	if h.eco.Scheduler == nil {
		h.fail(c, transport.NotFound, "本进程未启用调度器")
		return
	}
	st, err := h.eco.Scheduler.Status(ctx)
	if err != nil {
		h.error(ctx, c, "economy.SchedulerStatus", err)
		return
	}
	h.ok(c, st)
}

func (h *HttpHandler) RecentTicks(c *gin.Context) {
	ctx := c.Request.Context()
	if h.eco.Journal == nil {
		h.fail(c, transport.NotFound, "未配置 tick 日志")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 200 {
		h.fail(c, transport.InvalidParam, "limit 取值 1~200")
		return
	}
	reports, err := h.eco.Journal.Recent(ctx, limit)
	if err != nil {
		h.error(ctx, c, "economy.RecentTicks", err)
		return
	}
	h.ok(c, reports)
}

func (h *HttpHandler) ok(c *gin.Context, data any) {
	c.JSON(nethttp.StatusOK, transport.Success(data))
}

func (h *HttpHandler) fail(c *gin.Context, code int, msg string) {
	c.JSON(nethttp.StatusOK, transport.Error(code, msg))
}

func (h *HttpHandler) error(ctx context.Context, c *gin.Context, action string, err error) {
	code, msg, data := handler.HandleError(ctx, h.eco.Log, action, err)
	c.JSON(nethttp.StatusOK, transport.Response{Code: code, Msg: msg, Data: data})
}
