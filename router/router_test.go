package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chengshang-tools/update-server/catalog"
	"github.com/chengshang-tools/update-server/database/dbcore"
	"github.com/chengshang-tools/update-server/database/models"
	"github.com/chengshang-tools/update-server/database/releases"
	"github.com/chengshang-tools/update-server/security"
	"github.com/chengshang-tools/update-server/ws"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminToken = "test-admin-token"

func newEngine(t *testing.T, c catalog.Catalog) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	guard, _ := security.NewGuard(security.Options{
		Token:         adminToken,
		MaxFailures:   3,
		FailureWindow: time.Minute,
		Lockout:       time.Minute,
	})
	engine, err := New(Deps{Catalog: c, Guard: guard, Hub: ws.NewHub()})
	require.NoError(t, err)
	return engine
}

func do(engine *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func catalogs(t *testing.T) map[string]catalog.Catalog {
	db, err := dbcore.OpenMemory(uuid.NewString(), &models.Release{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbcore.Close(db) })
	return map[string]catalog.Catalog{
		"memory": catalog.NewMemoryCatalog(),
		"sqlite": releases.NewStore(db),
	}
}

func TestRegisterThenCheck(t *testing.T) {
	for name, c := range catalogs(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, catalog.Seed(context.Background(), c, catalog.BuiltinSeed()))
			engine := newEngine(t, c)

			w := do(engine, http.MethodGet, "/api/releases/windows-x86_64/1.0.0", "", nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"version":"1.0.0","notes":"","pub_date":null,"platforms":{}}`, w.Body.String())

			w = do(engine, http.MethodPost, "/api/admin/releases?target=windows-x86_64", adminToken, map[string]string{
				"version":   "1.1.0",
				"notes":     "• 优化了界面响应速度",
				"signature": "sig-110",
				"url":       "https://example.com/1.1.0.exe",
			})
			require.Equal(t, http.StatusOK, w.Code)

			w = do(engine, http.MethodGet, "/api/releases/windows-x86_64/1.0.0", "", nil)
			require.Equal(t, http.StatusOK, w.Code)
			var body struct {
				Version   string                       `json:"version"`
				PubDate   *string                      `json:"pub_date"`
				Platforms map[string]map[string]string `json:"platforms"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "1.1.0", body.Version)
			require.NotNil(t, body.PubDate)
			_, err := time.Parse(time.RFC3339, *body.PubDate)
			assert.NoError(t, err)
			assert.Equal(t, map[string]map[string]string{
				"windows-x86_64": {"signature": "sig-110", "url": "https://example.com/1.1.0.exe"},
			}, body.Platforms)
		})
	}
}

func TestAdminRequiresToken(t *testing.T) {
	engine := newEngine(t, catalog.NewMemoryCatalog())
	body := map[string]string{"version": "1.0.0", "signature": "s", "url": "u"}

	w := do(engine, http.MethodPost, "/api/admin/releases?target=windows-x86_64", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"未授权访问"}`, w.Body.String())

	w = do(engine, http.MethodGet, "/api/admin/releases", "wrong", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(engine, http.MethodGet, "/api/admin/releases", "wrong", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 第三次失败后封禁，正确 token 也被拒绝
	w = do(engine, http.MethodGet, "/api/admin/releases", adminToken, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestAdminDisabledAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	guard, _ := security.NewGuard(security.Options{Disabled: true})
	engine, err := New(Deps{Catalog: catalog.NewMemoryCatalog(), Guard: guard})
	require.NoError(t, err)

	w := do(engine, http.MethodPost, "/api/admin/releases?target=windows-x86_64", "", map[string]string{
		"version": "1.0.0", "signature": "s", "url": "u",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSAndNotFound(t *testing.T) {
	engine := newEngine(t, catalog.NewMemoryCatalog())

	w := do(engine, http.MethodOptions, "/api/admin/releases", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(engine, http.MethodGet, "/api/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"接口不存在"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
