package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adeyod/degenuisFx-backend/internal/api"
	"github.com/Adeyod/degenuisFx-backend/internal/app/service"
	"github.com/Adeyod/degenuisFx-backend/internal/common/security"
	"github.com/Adeyod/degenuisFx-backend/internal/domain/model"
	"github.com/Adeyod/degenuisFx-backend/internal/domain/repository"
	"github.com/Adeyod/degenuisFx-backend/internal/platform/cache"
	"github.com/Adeyod/degenuisFx-backend/internal/platform/config"
	"github.com/Adeyod/degenuisFx-backend/internal/platform/database"
	"github.com/Adeyod/degenuisFx-backend/internal/platform/logging"
	"github.com/Adeyod/degenuisFx-backend/internal/platform/mailer"
)

func main() {
	ctx := context.Background()

	// 1. Configuration and logging
	cfg := config.Load()
	httpLogger := logging.NewHTTPLogger("degeniusfx", cfg.LogJSON, cfg.LogLevel)
	logger := logging.NewSlogLogger(httpLogger.Logger)

	fatal := func(msg string, err error) {
		logger.Error(ctx, msg, "error", err)
		os.Exit(1)
	}

	// 2. Postgres
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		fatal("database connection failed", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		fatal("database migration failed", err)
	}
	logger.Info(ctx, "database ready")

	// 3. Redis
	rdb, err := cache.ConnectRedis(ctx, cfg)
	if err != nil {
		fatal("redis connection failed", err)
	}
	defer rdb.Close()
	logger.Info(ctx, "redis ready")

	// 4. Mail
	var notifier service.Notifier
	if cfg.SMTPHost == "" {
		logger.Warn(ctx, "SMTP_HOST not set, account emails will only be logged")
		notifier = mailer.NewLogMailer(logger)
	} else {
		smtp, err := mailer.NewSMTPMailer(cfg, logger)
		if err != nil {
			fatal("mailer setup failed", err)
		}
		notifier = smtp
	}

	// 5. Repositories and services
	users := repository.NewPgUserRepository(db)
	contacts := repository.NewPgContactRepository(db)
	actionTokens := repository.NewRedisActionTokenRepository(rdb, cfg.ActionTokenTTL)

	sessions := security.NewSessionManager(cfg.JWTKey, cfg.JWTExp, security.CookieOptions{
		SameSite: cfg.CookieSameSite,
		Secure:   cfg.CookieSecure,
	})
	tokens := service.NewTokenIssuer(actionTokens, sessions, logger)
	opts := service.AccountOptions{
		FrontendURL: cfg.FrontendURL,
		BcryptCost:  cfg.BcryptCost,
		PageSize:    cfg.DefaultPageSize,
	}

	// 6. Router and HTTP server
	router := api.NewRouter(api.RouterDeps{
		Students:        service.NewAccountService(model.KindStudent, users, tokens, notifier, logger, opts),
		Investors:       service.NewAccountService(model.KindInvestor, users, tokens, notifier, logger, opts),
		Contacts:        service.NewContactService(contacts, logger),
		Sessions:        sessions,
		Gate:            service.NewAuthorizationGate(users, logger),
		Logger:          logger,
		AccessLog:       httpLogger,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimit:       cfg.AuthRateLimit,
		RateLimitWindow: cfg.AuthRateLimitWindow,
	})

	// Mail delivery runs inside the request, so writes get more room than reads.
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 7. Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info(ctx, "server starting", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal("server failed", err)
		}
	}()

	<-stop
	logger.Info(ctx, "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "server shutdown failed", "error", err)
		return
	}
	logger.Info(ctx, "server stopped gracefully")
}
