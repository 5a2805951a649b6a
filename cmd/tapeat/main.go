// Command tapeat runs the TAP&EAT Telegram ordering bot together with its
// ops HTTP server (health, stats, metrics, read-only catalog).
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/tapeat-bot/internal/bot"
	"github.com/tbourn/tapeat-bot/internal/config"
	httpapi "github.com/tbourn/tapeat-bot/internal/http"
	"github.com/tbourn/tapeat-bot/internal/http/handlers"
	"github.com/tbourn/tapeat-bot/internal/observability"
	"github.com/tbourn/tapeat-bot/internal/repo"
	"github.com/tbourn/tapeat-bot/internal/services"
	"github.com/tbourn/tapeat-bot/internal/session"
	"github.com/tbourn/tapeat-bot/internal/sysutil"
)

// version is set with -ldflags "-X main.version=...".
var version = ""

func main() {
	cfg := config.MustLoad()
	lg := sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = lg.WithContext(ctx)

	if err := run(ctx, cfg); err != nil {
		lg.Error().Err(err).Msg("fatal")
		os.Exit(1)
	}
	lg.Info().Msg("bye")
}

func run(ctx context.Context, cfg config.Config) error {
	lg := zerolog.Ctx(ctx)
	ver := sysutil.FirstNonEmpty(version, os.Getenv("APP_VERSION"), "dev")

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver,
		attribute.Bool("tapeat.bot.polling", !cfg.Bot.Disabled),
	)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			lg.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath, repo.WithTracing())
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}

	catalog := repo.DefaultCatalog()
	if cfg.MenuPath != "" {
		if catalog, err = repo.LoadMenuMarkdown(cfg.MenuPath); err != nil {
			return err
		}
	}
	seeded, err := repo.SeedIfEmpty(ctx, db, catalog)
	if err != nil {
		return err
	}
	if seeded {
		lg.Info().Int("restaurants", len(catalog)).Str("source", sysutil.FirstNonEmpty(cfg.MenuPath, "built-in")).Msg("catalog seeded")
	}

	store := repo.NewStore(db)
	catalogSvc := services.NewCatalogService(store, cfg.Bot.AdminID)

	if cfg.Bot.AdminID == 0 {
		lg.Warn().Msg("ADMIN_ID is not set: admin commands are disabled and new orders will not be forwarded")
	}

	srv := newHTTPServer(cfg, handlers.New(catalogSvc, store))
	errCh := make(chan error, 2)
	go func() {
		lg.Info().Str("addr", srv.Addr).Str("version", ver).Msg("ops server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if cfg.Bot.Disabled {
		lg.Warn().Msg("bot polling disabled; serving ops endpoints only")
	} else {
		api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
		if err != nil {
			_ = srv.Close()
			return err
		}
		api.Debug = cfg.Bot.Debug
		lg.Info().Str("bot", api.Self.UserName).Msg("authorized")

		b := newBot(api, store, catalogSvc, cfg)
		d := bot.NewDispatcher(b,
			bot.WithWorkers(cfg.Bot.Workers),
			bot.WithLimiter(bot.NewLimiter(cfg.Bot.RateRPS, cfg.Bot.RateBurst)),
			bot.WithLogger(*lg),
		)

		u := tgbotapi.NewUpdate(0)
		u.Timeout = int(cfg.Bot.PollTimeout / time.Second)
		updates := api.GetUpdatesChan(u)

		go func() {
			errCh <- d.Run(ctx, updates)
		}()
		defer api.StopReceivingUpdates()
	}

	select {
	case <-ctx.Done():
		lg.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			lg.Error().Err(err).Msg("component stopped")
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

// newBot wires the use-cases behind the Telegram router.
func newBot(api bot.API, store *repo.Store, catalog *services.CatalogService, cfg config.Config) *bot.Bot {
	f := bot.NewFormatter(cfg.Orders.Currency, cfg.Orders.Estimate)
	sessions := session.NewStore(cfg.Orders.SessionTTL)
	notify := &services.Dispatcher{Notifier: bot.NewNotifier(api, f), AdminID: cfg.Bot.AdminID}

	return bot.New(api, bot.Services{
		Intake: &services.IntakeService{
			Users:       store,
			Orders:      store,
			Catalog:     catalog,
			Sessions:    sessions,
			Notify:      notify,
			CodeRetries: cfg.Orders.CodeRetries,
			MaxQuantity: cfg.Orders.MaxQuantity,
		},
		Admin:   &services.AdminService{Orders: store, Sessions: sessions, Notify: notify, AdminID: cfg.Bot.AdminID},
		Catalog: catalog,
		Account: &services.AccountService{Users: store, Orders: store},
	}, f)
}

func newHTTPServer(cfg config.Config, h *handlers.Handlers) *http.Server {
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, h, cfg)

	return &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}
