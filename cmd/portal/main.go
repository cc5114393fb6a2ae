package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/roadassist/portal/internal/api"
	"github.com/roadassist/portal/internal/app"
	"github.com/roadassist/portal/internal/auth"
	"github.com/roadassist/portal/internal/backend"
	"github.com/roadassist/portal/internal/directory"
	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/navigation"
	"github.com/roadassist/portal/internal/observability"
	"github.com/roadassist/portal/internal/pages"
	"github.com/roadassist/portal/internal/platform/cache"
	"github.com/roadassist/portal/internal/platform/db"
	"github.com/roadassist/portal/internal/shared"
	"github.com/roadassist/portal/internal/shell"
	"github.com/roadassist/portal/internal/theme"
	"github.com/roadassist/portal/internal/view"
	"github.com/roadassist/portal/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	for _, menu := range [][]navigation.Entry{navigation.AdminMenu(), navigation.SupportMenu()} {
		if err := navigation.Validate(menu); err != nil {
			logger.Error("invalid navigation menu", slog.Any("error", err))
			os.Exit(1)
		}
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisWait)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	backendClient := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, metrics)

	var authenticator identity.Authenticator = backendClient
	if cfg.DirectoryMode() {
		if err := directory.Migrate(cfg.PGDSN); err != nil {
			logger.Error("migrate directory", slog.Any("error", err))
			os.Exit(1)
		}
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		tokens := identity.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
		authenticator = directory.NewService(directory.NewRepository(pool), tokens, logger)
		logger.Info("directory auth mode enabled")
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "portal_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	idempotencyStore := shared.NewIdempotencyStore(redisClient, cfg.IdempotencyTTL)

	hub := identity.NewHub()
	hub.Subscribe(func(ev identity.Event) {
		logger.Info("identity event",
			slog.String("kind", string(ev.Kind)),
			slog.String("principal_id", ev.PrincipalID),
			slog.String("origin", ev.Origin))
	})
	broadcaster := identity.NewRedisBroadcaster(redisClient, hub, identity.DefaultEventChannel, logger)
	if err := broadcaster.Start(ctx); err != nil {
		logger.Error("start identity broadcaster", slog.Any("error", err))
		os.Exit(1)
	}

	store := identity.NewStore(authenticator, hub, logger,
		identity.WithSessionManager(sessionManager),
		identity.WithNotifier(jobClient),
		identity.WithRevalidateInterval(cfg.RevalidateInterval),
	)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}
	composer := shell.NewComposer(templates, csrfManager, cfg.NavPrimaryItems, logger)
	themes := theme.NewResolver(theme.DefaultClassifier(), theme.NewRedisStore(redisClient), metrics, logger, cfg.IsProduction())

	terms, err := auth.LoadTerms(cfg.ContractTermsPath)
	if err != nil {
		logger.Error("load contract terms", slog.Any("error", err))
		os.Exit(1)
	}

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Identity:       store,
		Themes:         themes,
		Composer:       composer,
		AuthHandler:    auth.NewHandler(logger, store, composer, csrfManager, metrics, terms),
		PagesHandler:   pages.NewHandler(logger, backendClient, store, composer, idempotencyStore),
		APIHandler:     api.NewHandler(composer, themes),
		JobHandler:     jobs.NewHandler(inspector, logger),
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("auth_mode", cfg.AuthMode))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
