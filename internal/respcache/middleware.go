package respcache

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/logging"
)

const (
	HeaderCache = "X-Cache"
	hit         = "HIT"
	miss        = "MISS"
)

// headers that belong to a single exchange and are never replayed. CORS
// headers depend on the request Origin and are set again by the CORS
// middleware on every hit.
var skipHeaders = map[string]struct{}{
	"X-Request-Id":   {},
	"X-Cache":        {},
	"Set-Cookie":     {},
	"Content-Length": {},
	"Date":           {},
	"Vary":           {},
}

const corsPrefix = "Access-Control-"

// IdentityFunc returns the authenticated user id, or "" for guests.
type IdentityFunc func(c *gin.Context) string

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware serves stored responses for cacheable GETs and stores fresh
// 200 responses. Store failures are logged and the request proceeds.
func (c *Cache) Middleware(identity IdentityFunc) gin.HandlerFunc {
	return func(gc *gin.Context) {
		r := gc.Request
		if !c.cfg.Enabled || !c.cfg.Cacheable(r.Method) || c.cfg.Excludes(r.URL.Path) {
			gc.Next()
			return
		}

		ctx := r.Context()
		route := gc.FullPath()

		user := ""
		if identity != nil {
			user = identity(gc)
		}
		key, err := Fingerprint(c.cfg.Prefix, r, user)
		if err != nil {
			c.fail(ctx, "fingerprint", err)
			gc.Next()
			return
		}

		entry, err := c.Get(ctx, key)
		switch {
		case err == nil:
			c.metrics.hit(ctx, route)
			c.serve(gc, entry)
			return
		case errors.Is(err, ErrMiss):
			c.metrics.miss(ctx, route)
		default:
			c.fail(ctx, "read", err)
		}

		rec := &bodyRecorder{ResponseWriter: gc.Writer}
		gc.Writer = rec
		gc.Header(HeaderCache, miss)
		gc.Next()

		if rec.Status() != http.StatusOK || gc.IsAborted() {
			return
		}

		content := rec.body.Bytes()
		e := &Entry{
			Key:       key,
			Status:    http.StatusOK,
			Headers:   replayable(rec.Header()),
			Content:   append([]byte(nil), content...),
			ETag:      etag(content),
			CreatedAt: c.now(),
			Path:      r.URL.Path,
		}
		if err := c.Put(ctx, e, c.cfg.TTLFor(r.URL.Path)); err != nil {
			c.fail(ctx, "write", err)
			return
		}
		c.metrics.store(ctx, route)
	}
}

func (c *Cache) serve(gc *gin.Context, e *Entry) {
	h := gc.Writer.Header()
	for k, vs := range e.Headers {
		h.Del(k)
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	h.Set(HeaderCache, hit)
	if e.ETag != "" {
		h.Set("ETag", e.ETag)
		if gc.GetHeader("If-None-Match") == e.ETag {
			gc.AbortWithStatus(http.StatusNotModified)
			return
		}
	}
	gc.Writer.WriteHeader(e.Status)
	_, _ = gc.Writer.Write(e.Content)
	gc.Abort()
}

func (c *Cache) fail(ctx context.Context, op string, err error) {
	c.metrics.failure(ctx, op)
	logging.For(ctx, c.logger).Warn("response cache unavailable", zap.String("op", op), zap.Error(err))
}

func replayable(h http.Header) map[string][]string {
	out := make(map[string][]string, len(h))
	for k, vs := range h {
		ck := http.CanonicalHeaderKey(k)
		if _, skip := skipHeaders[ck]; skip || strings.HasPrefix(ck, corsPrefix) {
			continue
		}
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func etag(b []byte) string {
	return `"` + strconv.FormatUint(xxhash.Sum64(b), 16) + `"`
}
