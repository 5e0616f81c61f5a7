package admin

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/blang/semver"
	"github.com/chengshang-tools/update-server/api"
	"github.com/chengshang-tools/update-server/catalog"
	"github.com/chengshang-tools/update-server/resolver"
	"github.com/gin-gonic/gin"
)

const (
	msgReleaseAdded   = "版本添加成功"
	msgMissingParams  = "缺少必要参数"
	msgBadRequestBody = "请求格式错误"
	msgBadVersion     = "版本号格式错误"
	msgBadRange       = "版本范围格式错误"
)

// ReleasePublisher 接收新版本登记事件
type ReleasePublisher interface {
	PublishRelease(target string, r catalog.Release)
}

// ReleaseHandler 版本管理接口
type ReleaseHandler struct {
	catalog   catalog.Catalog
	publisher ReleasePublisher
}

func NewReleaseHandler(c catalog.Catalog, publisher ReleasePublisher) *ReleaseHandler {
	return &ReleaseHandler{catalog: c, publisher: publisher}
}

type addReleaseRequest struct {
	Target    string `json:"target"`
	Version   string `json:"version"`
	Notes     string `json:"notes"`
	PubDate   string `json:"pub_date"`
	Signature string `json:"signature"`
	URL       string `json:"url"`
}

// AddRelease POST /api/admin/releases?target=
// pub_date 由服务器写入，请求中的值会被忽略
func (h *ReleaseHandler) AddRelease(c *gin.Context) {
	var req addReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondPlainError(c, http.StatusBadRequest, msgBadRequestBody)
		return
	}
	target := strings.TrimSpace(c.Query("target"))
	if target == "" {
		target = strings.TrimSpace(req.Target)
	}
	req.Version = strings.TrimSpace(req.Version)
	if target == "" || req.Version == "" || req.Signature == "" || req.URL == "" {
		api.RespondPlainError(c, http.StatusBadRequest, msgMissingParams)
		return
	}
	if _, err := resolver.ParseVersion(req.Version); err != nil {
		api.RespondPlainError(c, http.StatusBadRequest, msgBadVersion)
		return
	}

	stored, err := h.catalog.AddRelease(c.Request.Context(), target, catalog.Release{
		Version:   req.Version,
		Notes:     req.Notes,
		Signature: req.Signature,
		URL:       req.URL,
	})
	if err != nil {
		slog.Error("failed to add release", "target", target, "version", req.Version, "error", err, "request_id", api.RequestIDFrom(c))
		api.RespondPlainError(c, http.StatusInternalServerError, api.MsgInternalError)
		return
	}
	slog.Info("release added", "target", target, "version", stored.Version, "pub_date", stored.PubDate)
	if h.publisher != nil {
		h.publisher.PublishRelease(target, stored)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msgReleaseAdded})
}

// ListReleases GET /api/admin/releases?target=&range=
func (h *ReleaseHandler) ListReleases(c *gin.Context) {
	ctx := c.Request.Context()

	var inRange semver.Range
	if expr := strings.TrimSpace(c.Query("range")); expr != "" {
		r, err := semver.ParseRange(expr)
		if err != nil {
			api.RespondError(c, http.StatusBadRequest, msgBadRange+": "+err.Error())
			return
		}
		inRange = r
	}

	var platforms []string
	if target := strings.TrimSpace(c.Query("target")); target != "" {
		platforms = []string{target}
	} else {
		all, err := h.catalog.Platforms(ctx)
		if err != nil {
			api.RespondError(c, http.StatusInternalServerError, "获取平台列表失败: "+err.Error())
			return
		}
		platforms = all
	}

	out := make(map[string][]catalog.Release, len(platforms))
	for _, p := range platforms {
		list, err := h.catalog.ReleasesFor(ctx, p)
		if err != nil {
			api.RespondError(c, http.StatusInternalServerError, "获取版本列表失败: "+err.Error())
			return
		}
		out[p] = filterRange(list, inRange)
	}
	api.RespondSuccess(c, out)
}

// filterRange 不可解析的版本在带范围过滤时被排除
func filterRange(list []catalog.Release, inRange semver.Range) []catalog.Release {
	out := make([]catalog.Release, 0, len(list))
	for _, r := range list {
		if inRange != nil {
			v, err := resolver.ParseVersion(r.Version)
			if err != nil || !inRange(v) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}
