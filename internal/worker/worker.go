package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cwygoda/questions/internal/domain"
)

// Checker verifies the links found in a block of text.
type Checker interface {
	Check(ctx context.Context, text string) []domain.VerifiedLink
}

// Worker polls for pending link-check jobs and runs them.
type Worker struct {
	svc          *domain.JobService
	checker      Checker
	pollInterval time.Duration
	batchSize    int
	maxRetries   int
	logger       *zap.Logger
}

// New creates a new worker.
func New(svc *domain.JobService, checker Checker, pollInterval time.Duration, batchSize, maxRetries int, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		svc:          svc,
		checker:      checker,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		maxRetries:   maxRetries,
		logger:       logger,
	}
}

// Run starts the worker loop until context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker started", zap.Duration("poll_interval", w.pollInterval))
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down")
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Worker) poll(ctx context.Context) {
	jobs, err := w.svc.GetPending(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("poll failed", zap.Error(err))
		return
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		w.processJob(ctx, &job)
	}
}

func (w *Worker) processJob(ctx context.Context, job *domain.Job) {
	log := w.logger.With(zap.Int64("job", job.ID))

	if err := w.svc.MarkProcessing(ctx, job.ID); err != nil {
		log.Warn("claim failed", zap.Error(err))
		return
	}

	// Refresh job to get updated attempts count
	job, err := w.svc.Get(ctx, job.ID)
	if err != nil {
		log.Error("refresh failed", zap.Error(err))
		return
	}

	start := time.Now()
	results := w.checker.Check(ctx, job.Text)
	if ctx.Err() != nil {
		// Probes were cut short; RecoverStale requeues the job on restart.
		log.Warn("interrupted", zap.Error(ctx.Err()))
		return
	}

	if err := w.svc.MarkComplete(ctx, job.ID, results); err != nil {
		log.Error("store results failed", zap.Error(err), zap.Int("attempt", job.Attempts))
		if job.CanRetry(w.maxRetries) {
			w.svc.MarkRetry(ctx, job.ID, err.Error())
		} else {
			w.svc.MarkFailed(ctx, job.ID, err.Error())
		}
		return
	}

	job.Results = results
	log.Info("completed",
		zap.Int("links", len(results)),
		zap.Int("broken", job.Broken()),
		zap.Duration("elapsed", time.Since(start)))
}
