package ws

import (
	"net/http"
	"net/url"
	"os"
	"strings"
)

// CheckOrigin 默认放行；UPDATE_SERVER_WS_CHECK_ORIGIN=true 时要求 Origin 与 Host 一致
func CheckOrigin(r *http.Request) bool {
	if !strings.EqualFold(os.Getenv("UPDATE_SERVER_WS_CHECK_ORIGIN"), "true") {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return originURL.Host == r.Host
}
