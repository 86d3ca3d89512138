package ws

import (
	"net/http"

	"Polis/modules/kit/logx"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Server struct {
	router     *Router
	log        logx.Logger
	needSecret bool
	upgrader   websocket.Upgrader
}

func NewServer(r *Router, l logx.Logger, needSecret bool) *Server {
	if l == nil {
		l = logx.Nop()
	}
	return &Server{
		router:     r,
		log:        l,
		needSecret: needSecret,
		upgrader: websocket.Upgrader{
			// 允许所有CORS跨域请求
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve 升级连接并启动读写循环，callerID 写入连接属性供 handler 鉴权。
func (s *Server) Serve(resp http.ResponseWriter, req *http.Request, callerID string) (WSConn, error) {
	wsConn, err := s.upgrader.Upgrade(resp, req, nil)
	if err != nil {
		s.log.Warn("websocket upgrade error", zap.Error(err))
		return nil, err
	}

	conn := NewWsServer(wsConn, s.log.With(zap.String("uid", callerID)))
	conn.SetProperty(ConnKeyUID, callerID)
	conn.Router(s.router)
	if s.needSecret {
		if err := conn.handshake(); err != nil {
			conn.Close()
			return nil, err
		}
	}
	conn.Run()
	s.log.Debug("websocket connected", zap.String("addr", conn.Addr()))
	return conn, nil
}
