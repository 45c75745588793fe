package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"booklend/internal/book"
	"booklend/internal/config"
	"booklend/internal/httpx"
	"booklend/internal/lending"
	"booklend/internal/notification"
	"booklend/internal/platform/covers"
	"booklend/internal/platform/push"
	"booklend/internal/review"
	"booklend/internal/user"
	"booklend/internal/waitlist"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool := mustOpenDB(ctx, cfg.DB.DSN, logger)
	defer dbPool.Close()

	coverStore, err := covers.NewFileStore(cfg.CoversDir)
	if err != nil {
		logger.Fatal("cannot prepare covers directory", zap.String("dir", cfg.CoversDir), zap.Error(err))
	}

	var dispatcher lending.Dispatcher
	if cfg.Push.GatewayURL != "" {
		dispatcher = push.NewClient(cfg.Push.GatewayURL, cfg.Push.RPS, cfg.Push.Timeout, logger.Named("push"))
	} else {
		logger.Warn("PUSH_GATEWAY_URL not set, notifications are only logged")
		dispatcher = push.NewLogDispatcher(logger.Named("push"))
	}

	timeout := cfg.DB.Timeout
	router := newRouter(routerDeps{
		stores: stores{
			users:         user.NewPostgresRepo(dbPool, timeout),
			books:         book.NewPostgresRepo(dbPool, timeout),
			notifications: notification.NewPostgresRepo(dbPool, timeout),
			waitList:      waitlist.NewPostgresRepo(dbPool, timeout),
			reviews:       review.NewPostgresRepo(dbPool, timeout),
		},
		covers:     coverStore,
		dispatcher: dispatcher,
		db:         dbPool,
		jwtSecret:  cfg.JWTSecret,
		logger:     logger,
	})

	rateLimiter := httpx.NewRateLimitMiddleware(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
	go rateLimiter.Run(ctx)

	handler := httpx.Chain(router,
		httpx.RequestIDMiddleware(logger),
		httpx.RecoveryMiddleware(logger),
		httpx.AccessLogMiddleware(logger),
		httpx.SecurityHeadersMiddleware,
		httpx.CORSMiddleware(cfg.HTTP.CORSOrigins),
		httpx.RequestSizeLimitMiddleware(cfg.HTTP.MaxBodyBytes),
		rateLimiter.Middleware,
	)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.Addr), zap.String("env", cfg.Env))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development() {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg.Level = level
	return zcfg.Build()
}

func mustOpenDB(ctx context.Context, dsn string, logger *zap.Logger) *pgxpool.Pool {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Fatal("cannot create db pool", zap.Error(err))
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		logger.Fatal("cannot ping database", zap.String("dsn", redactDSN(dsn)), zap.Error(err))
	}
	logger.Info("database connection OK")
	return pool
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
