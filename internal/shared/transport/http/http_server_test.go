package http

import (
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Polis/internal/shared/security"
	"Polis/internal/shared/transport/http/middleware"

	"github.com/gin-gonic/gin"
)

func TestNewHttpServer_Healthz(t *testing.T) {
	gin.SetMode(gin.TestMode)

	s := NewHttpServer(":0", gin.New(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodGet, "/healthz", nil)
	s.Handler().ServeHTTP(w, req)

	if w.Code != nethttp.StatusOK {
		t.Fatalf("unexpected status code: got=%d want=%d", w.Code, nethttp.StatusOK)
	}
}

func TestCors_预检请求直接返回(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewHttpServer(":0", gin.New(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodOptions, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	s.Handler().ServeHTTP(w, req)

	if w.Code != nethttp.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("期望 204 且回显 Origin, got=%d %v", w.Code, w.Header())
	}
}

func TestAuth_缺少或无效token返回未登录(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	s := NewHttpServer(":0", gin.New(), nil)
	s.Group().GET("/me", middleware.Auth(), func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{"code": 0, "data": middleware.CallerID(c)})
	})

	cases := map[string]string{"缺少": "", "无效": "Bearer not-a-jwt"}
	for name, header := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(nethttp.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		s.Handler().ServeHTTP(w, req)
		if !strings.Contains(w.Body.String(), `"code":2`) {
			t.Fatalf("%s token 期望 code=2, got=%s", name, w.Body.String())
		}
	}

	token, err := security.Award("u1", time.Hour)
	if err != nil {
		t.Fatalf("Award err=%v", err)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	s.Handler().ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), `"data":"u1"`) {
		t.Fatalf("期望拿到调用方 u1, got=%s", w.Body.String())
	}
}

func TestTickToken_只放行匹配的token(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ops", middleware.TickToken("s3cret"), func(c *gin.Context) { c.String(nethttp.StatusOK, "ok") })
	closed := gin.New()
	closed.GET("/ops", middleware.TickToken(""), func(c *gin.Context) { c.String(nethttp.StatusOK, "ok") })

	do := func(h nethttp.Handler, token string) string {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(nethttp.MethodGet, "/ops", nil)
		req.Header.Set(middleware.TickTokenHeader, token)
		h.ServeHTTP(w, req)
		return w.Body.String()
	}
	if got := do(r, "s3cret"); got != "ok" {
		t.Fatalf("期望放行, got=%s", got)
	}
	if got := do(r, "wrong"); !strings.Contains(got, `"code":3`) {
		t.Fatalf("期望 code=3, got=%s", got)
	}
	if got := do(closed, ""); !strings.Contains(got, `"code":3`) {
		t.Fatalf("未配置 token 时期望关闭接口, got=%s", got)
	}
}
