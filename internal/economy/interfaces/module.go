package interfaces

import (
	nethttp "net/http"

	"Polis/internal/economy/interfaces/handler"
	httphandler "Polis/internal/economy/interfaces/handler/http"
	wshandler "Polis/internal/economy/interfaces/handler/ws"
	transporthttp "Polis/internal/shared/transport/http"
	"Polis/internal/shared/transport/http/middleware"
	"Polis/internal/shared/transport/ws"
	"Polis/modules/kit/logx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Module struct {
	eco         *handler.Economy
	wsHandler   *wshandler.WsHandler
	httpHandler *httphandler.HttpHandler
	wsServer    *ws.Server
}

// New 组装接口层，needSecret 控制 /ws 是否走加密握手。
func New(e *handler.Economy, tickToken string, hub *ws.Hub, needSecret bool) *Module {
	if e.Log == nil {
		e.Log = logx.Nop()
	}
	m := &Module{
		eco:         e,
		wsHandler:   wshandler.NewWsHandler(e, hub),
		httpHandler: httphandler.NewHttpHandler(e, tickToken),
	}
	router := ws.NewRouter(e.Log)
	m.WsRegister(router)
	m.wsServer = ws.NewServer(router, e.Log, needSecret)
	return m
}

// Notifier 交给 TickService，tick 提交后的事件经它推送。
func (m *Module) Notifier() *wshandler.WsHandler {
	return m.wsHandler
}

func (m *Module) WsRegister(r *ws.Router) {
	m.wsHandler.RegisterRoutes(r)
}

func (m *Module) HttpRegister(g *gin.RouterGroup) {
	m.httpHandler.RegisterRoutes(g)
	g.GET("/ws", middleware.Auth(), m.serveWs)
}

// serveWs 升级连接；带 city_id 时握手后直接订阅。
func (m *Module) serveWs(c *gin.Context) {
	uid := middleware.CallerID(c)
	conn, err := m.wsServer.Serve(c.Writer, c.Request, uid)
	if err != nil {
		if !c.Writer.Written() {
			c.Status(nethttp.StatusBadRequest)
		}
		return
	}
	if cityID := c.Query("city_id"); cityID != "" {
		if err := m.wsHandler.SubscribeConn(c.Request.Context(), conn, uid, cityID); err != nil {
			m.eco.Log.Warn("ws initial subscribe rejected", zap.String("city_id", cityID), zap.Error(err))
			conn.Close()
		}
	}
}

var _ ws.Registrar = (*Module)(nil)
var _ transporthttp.Registrar = (*Module)(nil)
