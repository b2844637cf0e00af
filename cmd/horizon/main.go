package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/horizon-rh/horizon-rh/internal/app"
	"github.com/horizon-rh/horizon-rh/internal/auth"
	"github.com/horizon-rh/horizon-rh/internal/fiche"
	"github.com/horizon-rh/horizon-rh/internal/leave"
	"github.com/horizon-rh/horizon-rh/internal/masterdata"
	"github.com/horizon-rh/horizon-rh/internal/observability"
	"github.com/horizon-rh/horizon-rh/internal/platform/db"
	"github.com/horizon-rh/horizon-rh/internal/shared"
	"github.com/horizon-rh/horizon-rh/jobs"
	"github.com/horizon-rh/horizon-rh/report"
)

type nopNotifier struct{}

func (nopNotifier) NotifyDecision(context.Context, leave.RequestRecord) error { return nil }

func (nopNotifier) EnqueueFiche(context.Context, uuid.UUID) error { return nil }

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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "horizon_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler, err := auth.NewHandler(logger, authService, sessionManager, csrfManager)
	if err != nil {
		logger.Error("init auth handler", slog.Any("error", err))
		os.Exit(1)
	}
	actorMiddleware := auth.NewActorMiddleware(authService)

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	masterRepo := masterdata.NewRepository(pool)
	masterService := masterdata.NewService(masterRepo)
	masterHandler := masterdata.NewHandler(logger, masterService)
	directory := masterdata.NewDirectory(masterRepo)

	metrics := observability.NewMetrics()

	var notifier leave.Notifier = nopNotifier{}
	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("queue client unavailable, decision notifications disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := queueClient.Close(); err != nil {
				logger.Warn("queue client close", slog.Any("error", err))
			}
		}()
		notifier = jobs.NewLeaveNotifier(queueClient)
	}

	leaveRepo := leave.NewRepository(pool)
	leaveService := leave.NewService(leaveRepo, directory, auditLogger, notifier, metrics, idempotencyStore)

	pdfClient := report.NewClient(cfg.GotenbergURL)
	renderer, err := fiche.NewRenderer(pdfClient)
	if err != nil {
		logger.Error("init fiche renderer", slog.Any("error", err))
		os.Exit(1)
	}
	leaveHandler := leave.NewHandler(logger, leaveService, renderer)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		AuthHandler:       authHandler,
		ActorMiddleware:   actorMiddleware,
		LeaveHandler:      leaveHandler,
		MasterDataHandler: masterHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
