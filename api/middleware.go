package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/chengshang-tools/update-server/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTOTPCode  = "X-TOTP-Code"
	ctxRequestID    = "request_id"
)

// RequestID 透传或生成请求 ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestIDFrom 读取当前请求 ID
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}

// AccessLog 通过 slog 输出访问日志
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(c.Request.Context(), level, "http request",
			"request_id", RequestIDFrom(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"ip", c.ClientIP(),
			"duration", time.Since(start),
		)
	}
}

// CORS 更新检查会被 WebView 直接调用，放行所有来源
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+HeaderTOTPCode+", "+HeaderRequestID)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// AdminAuth 管理接口鉴权
func AdminAuth(guard *security.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		err := guard.Check(ip, c.GetHeader("Authorization"), c.GetHeader(HeaderTOTPCode))
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, security.ErrLockedOut):
			slog.Warn("admin request from locked out ip", "ip", ip, "request_id", RequestIDFrom(c))
			AbortPlainError(c, http.StatusTooManyRequests, MsgTooManyTries)
		default:
			slog.Warn("admin authentication failed", "ip", ip, "error", err, "request_id", RequestIDFrom(c))
			AbortPlainError(c, http.StatusUnauthorized, MsgUnauthorized)
		}
	}
}
