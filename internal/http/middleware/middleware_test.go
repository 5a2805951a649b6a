package middleware

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

func get(r http.Handler, path string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/rid", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	w := get(r, "/rid", nil)
	if gen := w.Header().Get(requestIDHeader); gen == "" || gen != w.Body.String() {
		t.Fatalf("generated id mismatch: header %q body %q", gen, w.Body.String())
	}
	w = get(r, "/rid", map[string]string{"x-request-id": "abc-123"})
	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected propagated id, got %q", got)
	}
}

func TestLogger_LevelsAndContextLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/restaurants/:id", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("inside handler")
		c.String(http.StatusOK, "ok")
	})
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	get(r, "/restaurants/7", map[string]string{requestIDHeader: "rid-1"})
	get(r, "/bad", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 log lines, got %d: %s", len(lines), buf.String())
	}
	var inner, access, warn map[string]any
	_ = json.Unmarshal([]byte(lines[0]), &inner)
	_ = json.Unmarshal([]byte(lines[1]), &access)
	_ = json.Unmarshal([]byte(lines[2]), &warn)

	if inner["request_id"] != "rid-1" || inner["message"] != "inside handler" {
		t.Fatalf("handler log missing request id: %v", inner)
	}
	if access["path"] != "/restaurants/:id" || access["level"] != "info" || access["status"] != float64(200) {
		t.Fatalf("unexpected access log: %v", access)
	}
	if warn["level"] != "warn" || warn["status"] != float64(400) {
		t.Fatalf("4xx should log at warn: %v", warn)
	}
}

func TestRecovery_JSON500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), Logger(), Recovery())
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := get(r, "/panic", map[string]string{requestIDHeader: "rid-p"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["request_id"] != "rid-p" || body["code"] != "internal_error" {
		t.Fatalf("unexpected body: %v", body)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("panic not logged: %s", buf.String())
	}
}

func TestMetrics_RouteLabels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/restaurants/:id/menu", func(c *gin.Context) { c.String(http.StatusOK, "menu") })

	base := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/restaurants/:id/menu", "200"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "unmatched", "404"))

	get(r, "/restaurants/1/menu", nil)
	get(r, "/restaurants/2/menu", nil)
	get(r, "/wp-admin", nil)

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/restaurants/:id/menu", "200")); got != base+2 {
		t.Fatalf("route counter = %v, want %v", got, base+2)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "unmatched", "404")); got != base404+1 {
		t.Fatalf("unmatched counter = %v", got)
	}
	if testutil.ToFloat64(httpInflight) != 0 {
		t.Fatalf("inflight gauge should return to 0")
	}
}

func TestRateLimiter_DenyAndHealthExempt(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.001, 1)
	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/api", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	if w := get(r, "/api", nil); w.Code != http.StatusOK {
		t.Fatalf("first request = %d", w.Code)
	}
	w := get(r, "/api", nil)
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "1" {
		t.Fatalf("second request = %d, Retry-After %q", w.Code, w.Header().Get("Retry-After"))
	}
	for i := 0; i < 3; i++ {
		if w := get(r, "/health", nil); w.Code != http.StatusOK {
			t.Fatalf("/health must not be limited, got %d", w.Code)
		}
	}
}

func TestRateLimiter_DisabledAndSweep(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRateLimiter(0, 0).Handler())
	r.GET("/api", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	for i := 0; i < 5; i++ {
		if w := get(r, "/api", nil); w.Code != http.StatusOK {
			t.Fatalf("disabled limiter denied request %d", i)
		}
	}

	rl := NewRateLimiter(10, 1)
	rl.limiterFor("old")
	rl.buckets["old"].lastSeen = time.Now().Add(-time.Hour)
	rl.lookups = 4999
	rl.limiterFor("new")
	if _, ok := rl.buckets["old"]; ok || len(rl.buckets) != 1 {
		t.Fatalf("idle bucket should be swept, have %d", len(rl.buckets))
	}
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour, NoStore: true}))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := get(r, "/ok", nil)
	h := w.Header()
	if h.Get("X-Content-Type-Options") != "nosniff" || h.Get("X-Frame-Options") != "DENY" ||
		h.Get("Referrer-Policy") != "no-referrer" || h.Get("Cache-Control") != "no-store" {
		t.Fatalf("baseline headers missing: %#v", h)
	}
	if h.Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS must not be sent over plain HTTP")
	}

	w = get(r, "/ok", map[string]string{"X-Forwarded-Proto": "https"})
	if got := w.Header().Get("Strict-Transport-Security"); got != "max-age=86400; includeSubDomains" {
		t.Fatalf("HSTS = %q", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.TLS = &tls.ConnectionState{}
	if !isHTTPS(req) {
		t.Fatalf("TLS request should count as HTTPS")
	}
}
