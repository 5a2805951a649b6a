package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/tapeat-bot/internal/config"
	"github.com/tbourn/tapeat-bot/internal/http/handlers"
	"github.com/tbourn/tapeat-bot/internal/repo"
	"github.com/tbourn/tapeat-bot/internal/services"
)

// newTestHandlers builds handlers over a seeded in-memory store.
func newTestHandlers(t *testing.T) *handlers.Handlers {
	t.Helper()
	dsn := fmt.Sprintf("file:routerdb_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if _, err := repo.SeedIfEmpty(context.Background(), db, repo.DefaultCatalog()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	st := repo.NewStore(db)
	return handlers.New(services.NewCatalogService(st, 0), st)
}

func serve(r http.Handler, method, path string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func baseConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		RateRPS:     100,
		RateBurst:   10,
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
	}
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newTestHandlers(t), baseConfig())

	w := serve(r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	w = serve(r, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "tapeat_http_requests_total") {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	if w := serve(r, http.MethodGet, "/nope", nil); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}
	if w := serve(r, http.MethodPost, "/health", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_APIUnderBasePath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newTestHandlers(t), baseConfig())

	w := serve(r, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Body.String(), "🤖 TAP&EAT Bot is running!") {
		t.Fatalf("GET / -> %d %q", w.Code, w.Body.String())
	}
	for _, p := range []string{"/api/v1/stats", "/api/v1/restaurants", "/api/v1/restaurants/1/menu"} {
		if w := serve(r, http.MethodGet, p, nil); w.Code != http.StatusOK {
			t.Fatalf("GET %s = %d", p, w.Code)
		}
	}
	if w := serve(r, http.MethodGet, "/stats", nil); w.Code != http.StatusNotFound {
		t.Fatalf("stats must only be mounted under the base path, got %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/swagger/index.html", nil); w.Code != http.StatusNotFound {
		t.Fatalf("swagger should be off by default, got %d", w.Code)
	}
}

func TestRegisterRoutes_SwaggerAndGzip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := baseConfig()
	cfg.SwaggerEnabled = true
	RegisterRoutes(r, newTestHandlers(t), cfg)

	w := serve(r, http.MethodGet, "/swagger/doc.json", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/restaurants/{id}/menu") {
		t.Fatalf("GET /swagger/doc.json -> %d", w.Code)
	}

	w = serve(r, http.MethodGet, "/api/v1/restaurants", map[string]string{"Accept-Encoding": "gzip"})
	if w.Code != http.StatusOK || w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip body, got %d %q", w.Code, w.Header().Get("Content-Encoding"))
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := baseConfig()
	cfg.APIBasePath = "/api/v2"
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	RegisterRoutes(r, newTestHandlers(t), cfg)

	w := serve(r, http.MethodGet, "/health", map[string]string{"Origin": "http://example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
	if w := serve(r, http.MethodGet, "/api/v2/stats", nil); w.Code != http.StatusOK {
		t.Fatalf("GET /api/v2/stats = %d", w.Code)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB"))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		w := serve(r, http.MethodGet, path, nil)
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, w.Code, w.Body.String())
		}
	}
}

// Smoke test that a request traverses ratelimit + otel + security headers.
func TestPipeline_Smoke(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := baseConfig()
	cfg.Security = config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: time.Hour}
	RegisterRoutes(r, newTestHandlers(t), cfg)

	w := serve(r, http.MethodGet, "/health", map[string]string{"X-Forwarded-Proto": "https"})
	if w.Code != http.StatusOK {
		t.Fatalf("pipeline GET /health = %d", w.Code)
	}
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
	if got := w.Header().Get("Strict-Transport-Security"); got != "max-age=3600; includeSubDomains" {
		t.Fatalf("HSTS = %q", got)
	}
}
