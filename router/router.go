// Package router assembles the gin engine for the update server.
package router

import (
	"net/http"

	"github.com/chengshang-tools/update-server/api"
	"github.com/chengshang-tools/update-server/api/admin"
	"github.com/chengshang-tools/update-server/catalog"
	"github.com/chengshang-tools/update-server/resolver"
	"github.com/chengshang-tools/update-server/security"
	"github.com/chengshang-tools/update-server/ws"
	"github.com/gin-gonic/gin"
)

type Deps struct {
	Catalog catalog.Catalog
	Guard   *security.Guard
	Hub     *ws.Hub
	// TrustedProxies 为空时直接使用连接地址作为客户端 IP
	TrustedProxies []string
}

func New(d Deps) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		return nil, err
	}
	r.Use(gin.Recovery(), api.RequestID(), api.AccessLog(), api.CORS())
	r.NoRoute(func(c *gin.Context) {
		api.RespondPlainError(c, http.StatusNotFound, api.MsgNotFound)
	})

	updates := api.NewUpdateHandler(resolver.New(d.Catalog))
	r.GET("/", updates.Root)
	r.GET("/health", updates.Health)
	r.GET("/api/releases/:target/:current_version", updates.CheckUpdate)

	var publisher admin.ReleasePublisher
	if d.Hub != nil {
		r.GET("/api/events/releases", d.Hub.ServeReleases)
		publisher = d.Hub
	}

	releases := admin.NewReleaseHandler(d.Catalog, publisher)
	adminGroup := r.Group("/api/admin", api.AdminAuth(d.Guard))
	{
		adminGroup.POST("/releases", releases.AddRelease)
		adminGroup.GET("/releases", releases.ListReleases)
	}
	return r, nil
}
