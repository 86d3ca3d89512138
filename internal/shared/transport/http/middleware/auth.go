package middleware

import (
	"crypto/subtle"
	"net/http"

	"Polis/internal/shared/security"
	"Polis/internal/shared/transport"

	"github.com/gin-gonic/gin"
)

const (
	callerKey       = "polis.caller_id"
	TickTokenHeader = "X-Tick-Token"
)

// Auth 校验 Authorization: Bearer <jwt>，把调用方 id 写进 gin.Context。
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := security.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			// ws 握手带不了 header，允许走 query
			raw = c.Query("token")
		}
		if raw == "" {
			abort(c, transport.Unauthorized, "未登录")
			return
		}
		claims, err := security.ParseToken(raw)
		if err != nil {
			transport.SetErrorReason(c.Request.Context(), "TOKEN_INVALID")
			abort(c, transport.Unauthorized, "登录已失效")
			return
		}
		c.Set(callerKey, claims.UserID)
		c.Next()
	}
}

// CallerID 返回 Auth 写入的调用方 id。
func CallerID(c *gin.Context) string {
	return c.GetString(callerKey)
}

// TickToken 保护运维接口。token 为空时接口整体关闭。
func TickToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(TickTokenHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			abort(c, transport.Forbidden, "无权访问")
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(http.StatusOK, transport.Error(code, msg))
}
