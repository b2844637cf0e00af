package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/horizon-rh/horizon-rh/internal/app"
	"github.com/horizon-rh/horizon-rh/internal/fiche"
	"github.com/horizon-rh/horizon-rh/internal/leave"
	"github.com/horizon-rh/horizon-rh/internal/platform/db"
	"github.com/horizon-rh/horizon-rh/internal/shared"
	"github.com/horizon-rh/horizon-rh/jobs"
	"github.com/horizon-rh/horizon-rh/report"
)

// ficheRefWriter stores artefact references through the repository so the
// worker does not need the full lifecycle service.
type ficheRefWriter struct {
	repo *leave.Repository
}

func (w ficheRefWriter) SetFicheRef(ctx context.Context, id uuid.UUID, ref string) error {
	return w.repo.WithTx(ctx, func(ctx context.Context, tx leave.TxRepository) error {
		return tx.SetFicheRef(ctx, id, ref)
	})
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	leaveRepo := leave.NewRepository(pool)

	pdfClient := report.NewClient(cfg.GotenbergURL)
	renderer, err := fiche.NewRenderer(pdfClient)
	if err != nil {
		logger.Error("init fiche renderer", slog.Any("error", err))
		os.Exit(1)
	}
	ficheJob := fiche.NewJob(fiche.JobConfig{
		Loader:     leaveRepo,
		Writer:     ficheRefWriter{repo: leaveRepo},
		Renderer:   renderer,
		StorageDir: cfg.FicheStorageDir,
		Logger:     logger,
	})

	mailer := jobs.NewMailer(jobs.MailerConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		From:     cfg.SMTPFrom,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		Logger:   logger,
	})

	idempotencyStore := shared.NewIdempotencyStore(pool)
	cleanupJob := jobs.NewIdempotencyCleanupJob(idempotencyStore, cfg.IdempotencyRetention, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: mailer.HandleTask},
			{Type: jobs.TaskFicheGenerate, Handler: ficheJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
