package fiche

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/horizon-rh/horizon-rh/internal/leave"
	"github.com/horizon-rh/horizon-rh/jobs"
)

// RecordLoader fetches request snapshots for the job runtime.
type RecordLoader interface {
	Get(ctx context.Context, id uuid.UUID) (leave.RequestRecord, error)
}

// RefWriter stores the generated artefact reference on the request.
type RefWriter interface {
	SetFicheRef(ctx context.Context, id uuid.UUID, ref string) error
}

// JobConfig wires dependencies required by the worker job.
type JobConfig struct {
	Loader     RecordLoader
	Writer     RefWriter
	Renderer   *Renderer
	StorageDir string
	Logger     *slog.Logger
}

// Job processes fiche generation requests coming from the queue.
type Job struct {
	loader     RecordLoader
	writer     RefWriter
	renderer   *Renderer
	storageDir string
	logger     *slog.Logger
}

// NewJob constructs a Job handler.
func NewJob(cfg JobConfig) *Job {
	return &Job{loader: cfg.Loader, writer: cfg.Writer, renderer: cfg.Renderer, storageDir: cfg.StorageDir, logger: cfg.Logger}
}

// Handle fulfils the asynq.HandlerFunc contract.
func (j *Job) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.loader == nil || j.writer == nil || j.renderer == nil {
		return fmt.Errorf("fiche job not configured")
	}
	var payload jobs.FichePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	id, err := uuid.Parse(payload.RequestID)
	if err != nil {
		return asynq.SkipRetry
	}
	rec, err := j.loader.Get(ctx, id)
	if err != nil {
		if errors.Is(err, leave.ErrNotFound) {
			return asynq.SkipRetry
		}
		return err
	}
	rendered, err := j.renderer.Render(ctx, rec)
	if err != nil {
		return err
	}
	path, err := j.save(rec.ID, rendered.PDF)
	if err != nil {
		return err
	}
	if err := j.writer.SetFicheRef(ctx, rec.ID, path); err != nil {
		return err
	}
	if j.logger != nil {
		j.logger.Info("fiche ready", slog.String("request_id", rec.ID.String()), slog.String("file", path))
	}
	return nil
}

func (j *Job) save(id uuid.UUID, pdf []byte) (string, error) {
	dir := j.storageDir
	if strings.TrimSpace(dir) == "" {
		dir = filepath.Join(os.TempDir(), "fiches")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("fiche-conge-%s.pdf", id)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
