// Package config provides application configuration loaded from environment
// variables (optionally seeded from a .env file) with defaults and validation.
// It centralizes the bot settings, the ops server, logging, storage, rate
// limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// BotConfig defines the Telegram side of the application.
type BotConfig struct {
	Token       string        // BOT_TOKEN
	AdminID     int64         // ADMIN_ID; 0 means no administrator
	Disabled    bool          // BOT_DISABLED; run the ops server only
	Workers     int           // BOT_WORKERS
	PollTimeout time.Duration // BOT_POLL_TIMEOUT
	RateRPS     float64       // BOT_RATE_RPS per user; 0 disables
	RateBurst   int           // BOT_RATE_BURST
	Debug       bool          // BOT_DEBUG; verbose Bot API logging
}

// OrderConfig defines the order-intake settings.
type OrderConfig struct {
	SessionTTL  time.Duration // SESSION_TTL; 0 keeps sessions until finished
	CodeRetries int           // ORDER_CODE_RETRIES
	MaxQuantity int           // MAX_QUANTITY
	Currency    string        // CURRENCY
	Estimate    string        // DELIVERY_ESTIMATE
}

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "tapeat-bot")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath   string // SQLite path
	MenuPath string // optional Markdown menu for first-start seeding

	// Bot / orders
	Bot    BotConfig
	Orders OrderConfig

	// Rate limiting (ops server)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result. A .env file in the working
// directory is loaded first when present; real env vars win over it.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:   getenv("DB_PATH", "tap_eat.db"),
		MenuPath: getenv("MENU_PATH", ""),

		// Bot
		Bot: BotConfig{
			Token:       strings.TrimSpace(getenv("BOT_TOKEN", "")),
			AdminID:     getint64("ADMIN_ID", 0),
			Disabled:    getbool("BOT_DISABLED", false),
			Workers:     getint("BOT_WORKERS", 8),
			PollTimeout: getdur("BOT_POLL_TIMEOUT", 60*time.Second),
			RateRPS:     getfloat("BOT_RATE_RPS", 2.0),
			RateBurst:   getint("BOT_RATE_BURST", 5),
			Debug:       getbool("BOT_DEBUG", false),
		},
		Orders: OrderConfig{
			SessionTTL:  getdur("SESSION_TTL", 0),
			CodeRetries: getint("ORDER_CODE_RETRIES", 5),
			MaxQuantity: getint("MAX_QUANTITY", 20),
			Currency:    getenv("CURRENCY", "$"),
			Estimate:    getenv("DELIVERY_ESTIMATE", "30-45 minutes"),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "tapeat-bot"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.Bot.Token == "" && !cfg.Bot.Disabled {
		return cfg, errors.New("BOT_TOKEN must be set (or BOT_DISABLED=true)")
	}
	if cfg.Bot.AdminID < 0 {
		return cfg, errors.New("ADMIN_ID must be >= 0")
	}
	if cfg.Bot.Workers < 1 {
		return cfg, errors.New("BOT_WORKERS must be >= 1")
	}
	if cfg.Bot.PollTimeout < time.Second {
		return cfg, errors.New("BOT_POLL_TIMEOUT must be at least 1s")
	}
	if cfg.Bot.RateRPS < 0 {
		return cfg, errors.New("BOT_RATE_RPS must be >= 0")
	}
	if cfg.Bot.RateBurst < 1 {
		return cfg, errors.New("BOT_RATE_BURST must be >= 1")
	}
	if cfg.Orders.SessionTTL < 0 {
		return cfg, errors.New("SESSION_TTL must be >= 0")
	}
	if cfg.Orders.CodeRetries < 1 {
		return cfg, errors.New("ORDER_CODE_RETRIES must be >= 1")
	}
	if cfg.Orders.MaxQuantity < 1 {
		return cfg, errors.New("MAX_QUANTITY must be >= 1")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
