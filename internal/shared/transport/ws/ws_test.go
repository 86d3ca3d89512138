package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"Polis/internal/shared/security"
	"Polis/internal/shared/transport"
	"Polis/modules/kit/logx"

	"github.com/gorilla/websocket"
)

type fakeConn struct {
	mu     sync.Mutex
	pushed []string
	props  map[string]any
	done   chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{props: map[string]any{}, done: make(chan struct{})}
}

func (c *fakeConn) SetProperty(k string, v any) { c.mu.Lock(); c.props[k] = v; c.mu.Unlock() }
func (c *fakeConn) GetProperty(k string) any    { c.mu.Lock(); defer c.mu.Unlock(); return c.props[k] }
func (c *fakeConn) RemoveProperty(k string)     { c.mu.Lock(); delete(c.props, k); c.mu.Unlock() }
func (c *fakeConn) Addr() string                { return "fake" }
func (c *fakeConn) Close()                      { c.once.Do(func() { close(c.done) }) }
func (c *fakeConn) Done() <-chan struct{}       { return c.done }
func (c *fakeConn) Push(name string, data any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pushed = append(c.pushed, name)
	return true
}

func TestCodec_加密帧可还原(t *testing.T) {
	key := "0123456789abcdef"
	typ, frame, err := encode(&RespBody{Seq: 3, Name: "city.event", Msg: "hi"}, key)
	if err != nil {
		t.Fatalf("encode err=%v", err)
	}
	if typ != websocket.BinaryMessage || strings.Contains(string(frame), "city.event") {
		t.Fatalf("期望加密后的二进制帧")
	}
	var got RespBody
	if err := decode(frame, key, &got); err != nil {
		t.Fatalf("decode err=%v", err)
	}
	if got.Seq != 3 || got.Name != "city.event" || got.Msg != "hi" {
		t.Fatalf("期望还原原消息, got=%+v", got)
	}
	if err := decode(frame, "fedcba9876543210", &got); err == nil {
		t.Fatalf("期望错误密钥解码失败")
	}
}

func TestHub_连接关闭后自动退订(t *testing.T) {
	h := NewHub()
	a, b := newFakeConn(), newFakeConn()
	h.Subscribe("c1", a)
	h.Subscribe("c1", b)
	h.Subscribe("c2", a)

	if n := h.Publish("c1", "city.event", nil); n != 2 {
		t.Fatalf("期望推给 2 个连接, got=%d", n)
	}
	h.Unsubscribe("c1", b)
	if n := h.Publish("c1", "city.event", nil); n != 1 {
		t.Fatalf("期望退订后只剩 1 个, got=%d", n)
	}

	a.Close()
	deadline := time.Now().Add(time.Second)
	for h.Subscribers("c1")+h.Subscribers("c2") != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("期望关闭的连接被清理")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err=%v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	return c
}

func TestServer_路由分发并回写同一seq(t *testing.T) {
	router := NewRouter(logx.Nop())
	router.Group("echo").Handle("who", func(ctx context.Context, req *WsMsgReq, resp *WsMsgResp) {
		resp.Body.Code = transport.OK
		resp.Body.Msg = CallerFrom(ctx)
	})
	s := NewServer(router, logx.Nop(), false)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = s.Serve(w, r, "u1")
	}))
	defer srv.Close()

	c := dial(t, srv)
	if err := c.WriteJSON(ReqBody{Seq: 9, Name: "echo.who"}); err != nil {
		t.Fatalf("write err=%v", err)
	}
	var got RespBody
	if err := c.ReadJSON(&got); err != nil {
		t.Fatalf("read err=%v", err)
	}
	if got.Seq != 9 || got.Code != transport.OK || got.Msg != "u1" {
		t.Fatalf("期望回写调用方 u1, got=%+v", got)
	}

	if err := c.WriteJSON(ReqBody{Seq: 10, Name: "nope"}); err != nil {
		t.Fatalf("write err=%v", err)
	}
	if err := c.ReadJSON(&got); err != nil {
		t.Fatalf("read err=%v", err)
	}
	if got.Seq != 10 || got.Code != transport.InvalidParam {
		t.Fatalf("期望非法路由返回参数错误, got=%+v", got)
	}
}

func TestServer_加密会话先握手(t *testing.T) {
	s := NewServer(NewRouter(logx.Nop()), logx.Nop(), true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = s.Serve(w, r, "u1")
	}))
	defer srv.Close()

	c := dial(t, srv)
	_, raw, err := c.ReadMessage()
	if err != nil {
		t.Fatalf("read handshake err=%v", err)
	}
	plain, err := security.UnZip(raw)
	if err != nil {
		t.Fatalf("unzip err=%v", err)
	}
	var hs struct {
		Name string    `json:"name"`
		Msg  Handshake `json:"msg"`
	}
	if err := decode(plain, "", &hs); err != nil || hs.Name != HandshakeMsg || len(hs.Msg.Key) != 16 {
		t.Fatalf("期望 16 位会话密钥, got=%+v err=%v", hs, err)
	}

	typ, frame, err := encode(ReqBody{Seq: 1, Name: HeartbeatMsg, Msg: map[string]any{"ctime": 5}}, hs.Msg.Key)
	if err != nil {
		t.Fatalf("encode err=%v", err)
	}
	if err := c.WriteMessage(typ, frame); err != nil {
		t.Fatalf("write err=%v", err)
	}
	_, frame, err = c.ReadMessage()
	if err != nil {
		t.Fatalf("read err=%v", err)
	}
	var resp struct {
		Seq int64     `json:"seq"`
		Msg Heartbeat `json:"msg"`
	}
	if err := decode(frame, hs.Msg.Key, &resp); err != nil {
		t.Fatalf("decode err=%v", err)
	}
	if resp.Seq != 1 || resp.Msg.CTime != 5 || resp.Msg.STime == 0 {
		t.Fatalf("期望心跳回带服务端时间, got=%+v", resp)
	}
}
