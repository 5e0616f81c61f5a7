package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/chengshang-tools/update-server/catalog"
	"github.com/chengshang-tools/update-server/resolver"
	"github.com/chengshang-tools/update-server/utils"
	"github.com/gin-gonic/gin"
)

const ServiceName = "呈尚策划工具箱更新服务"

// UpdateHandler 面向更新器客户端的公开接口
type UpdateHandler struct {
	resolver *resolver.Resolver
	started  time.Time
}

func NewUpdateHandler(r *resolver.Resolver) *UpdateHandler {
	return &UpdateHandler{resolver: r, started: time.Now()}
}

func timestamp() string {
	return catalog.FormatPubDate(time.Now())
}

// CheckUpdate GET /api/releases/:target/:current_version
func (h *UpdateHandler) CheckUpdate(c *gin.Context) {
	target := c.Param("target")
	currentVersion := c.Param("current_version")
	slog.Debug("update check", "target", target, "current_version", currentVersion, "request_id", RequestIDFrom(c))

	result, err := h.resolver.CheckForUpdate(c.Request.Context(), target, currentVersion)
	if err != nil {
		// 客户端版本错误与目录数据错误对外一律返回 500，仅在日志中区分
		kind := "catalog read"
		switch {
		case errors.Is(err, resolver.ErrInvalidVersion):
			kind = "invalid client version"
		case errors.Is(err, resolver.ErrCorruptCatalog):
			kind = "corrupt catalog"
		}
		slog.Error("update check failed", "kind", kind, "target", target, "current_version", currentVersion, "error", err, "request_id", RequestIDFrom(c))
		RespondPlainError(c, http.StatusInternalServerError, MsgInternalError)
		return
	}
	if result.Available() {
		slog.Info("update available", "target", target, "current_version", currentVersion, "version", result.Version)
	}
	c.JSON(http.StatusOK, result)
}

// Root GET /
func (h *UpdateHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":   ServiceName,
		"status":    "running",
		"timestamp": timestamp(),
	})
}

// Health GET /health
func (h *UpdateHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   ServiceName,
		"timestamp": timestamp(),
		"version":   utils.CurrentVersion,
		"uptime":    time.Since(h.started).Seconds(),
	})
}
