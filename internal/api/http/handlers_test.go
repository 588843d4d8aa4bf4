package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/respcache"
)

func init() { gin.SetMode(gin.TestMode) }

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	serve := func(h *HealthHandler, path string) *httptest.ResponseRecorder {
		r := gin.New()
		h.RegisterRoutes(r)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := serve(NewHealthHandler("timetrack", "1.2.3", fakePinger{}, rdb), "/health")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "up", body["db"])
	assert.Equal(t, "up", body["redis"])
	assert.Equal(t, "1.2.3", body["version"])

	w = serve(NewHealthHandler("timetrack", "1.2.3", fakePinger{err: errors.New("refused")}, rdb), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "down", decode(t, w)["db"])

	mr.Close()
	w = serve(NewHealthHandler("timetrack", "1.2.3", fakePinger{}, rdb), "/health")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "down", body["redis"])
}

func TestCacheHandler(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cache, err := respcache.New(rdb, respcache.DefaultConfig())
	require.NoError(t, err)

	put := func(key, path string) {
		require.NoError(t, cache.Put(ctx, &respcache.Entry{
			Key: "api:" + key, Status: http.StatusOK, Content: []byte("{}"), Path: path,
		}, time.Minute))
	}
	put("a", "/api/v1/projects")
	put("b", "/api/v1/projects/3")
	put("c", "/api/v1/timesheets")

	r := gin.New()
	NewCacheHandler(cache, zap.NewNop(), false).Register(r.Group("/api/v1/cache"))

	do := func(method, target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
		return w
	}

	w := do(http.MethodDelete, "/api/v1/cache?route=api/v1/projects")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["cleared"])

	w = do(http.MethodGet, "/api/v1/cache/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["tracked"])

	w = do(http.MethodDelete, "/api/v1/cache")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["cleared"])
	assert.False(t, mr.Exists("api:c"))
}
