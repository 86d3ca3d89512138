package ws

import (
	"context"

	"Polis/internal/economy/app"
	"Polis/internal/economy/app/model"
	"Polis/internal/economy/interfaces/handler"
	"Polis/internal/shared/transport"
	"Polis/internal/shared/transport/ws"
)

// EventPrefix 是推送消息名前缀，完整名如 city.building_completed。
const EventPrefix = "city."

type cityReq struct {
	CityID string `json:"city_id"`
}

// WsHandler 处理城市订阅，同时作为 TickService 的 Notifier 把事件推给订阅者。
type WsHandler struct {
	eco *handler.Economy
	hub *ws.Hub
}

var _ app.Notifier = (*WsHandler)(nil)

func NewWsHandler(e *handler.Economy, hub *ws.Hub) *WsHandler {
	if hub == nil {
		hub = ws.NewHub()
	}
	return &WsHandler{eco: e, hub: hub}
}

func (h *WsHandler) RegisterRoutes(r *ws.Router) {
	g := r.Group("city")
	g.Handle("subscribe", h.Subscribe)
	g.Handle("unsubscribe", h.Unsubscribe)
}

func (h *WsHandler) Publish(ctx context.Context, ev model.Event) {
	h.hub.Publish(ev.CityID, EventPrefix+string(ev.Type), ev)
}

func (h *WsHandler) Subscribe(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	var req cityReq
	if err := ws.BindMsg(wsReq, &req); err != nil || req.CityID == "" {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}
	if err := h.SubscribeConn(ctx, wsReq.Conn, ws.CallerFrom(ctx), req.CityID); err != nil {
		h.error(ctx, wsResp, err)
		return
	}
	h.ok(wsResp, req)
}

func (h *WsHandler) Unsubscribe(ctx context.Context, wsReq *ws.WsMsgReq, wsResp *ws.WsMsgResp) {
	var req cityReq
	if err := ws.BindMsg(wsReq, &req); err != nil || req.CityID == "" {
		h.fail(wsResp, transport.InvalidParam, "参数有误")
		return
	}
	h.hub.Unsubscribe(req.CityID, wsReq.Conn)
	h.ok(wsResp, req)
}

// SubscribeConn 校验城市归属后订阅，连接建立时带 city_id 也走这里。
func (h *WsHandler) SubscribeConn(ctx context.Context, conn ws.WSConn, callerID, cityID string) error {
	if err := h.eco.Econ.Authorize(ctx, callerID, cityID); err != nil {
		return err
	}
	h.hub.Subscribe(cityID, conn)
	return nil
}

func (h *WsHandler) ok(resp *ws.WsMsgResp, data any) {
	resp.Body.Code = transport.OK
	resp.Body.Msg = data
}

func (h *WsHandler) fail(resp *ws.WsMsgResp, code int, msg string) {
	resp.Body.Code = code
	resp.Body.Msg = msg
}

func (h *WsHandler) error(ctx context.Context, resp *ws.WsMsgResp, err error) {
	code, msg, _ := handler.HandleError(ctx, h.eco.Log, "economy.ws", err)
	h.fail(resp, code, msg)
}
