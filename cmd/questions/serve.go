package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpAdapter "github.com/cwygoda/questions/internal/adapter/http"
	"github.com/cwygoda/questions/internal/adapter/sqlite"
	"github.com/cwygoda/questions/internal/domain"
	"github.com/cwygoda/questions/internal/worker"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port   int
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the link-check job worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
			}
			if cmd.Flags().Changed("db") {
				a.cfg.DBPath = dbPath
			}
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "HTTP server port")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	return cmd
}

func (a *app) serve(parent context.Context) error {
	cfg, logger := a.cfg, a.logger

	logger.Info("starting questions",
		zap.Int("port", cfg.Port),
		zap.String("db", cfg.DBPath))

	repo, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer repo.Close()

	jobs := domain.NewJobService(repo)
	checker := a.linkChecker()
	questions := domain.NewQuestionsService(checker, cfg.Divisors.Workers)

	// Recover stale jobs from previous crash
	if recovered, err := jobs.RecoverStale(parent); err != nil {
		logger.Warn("failed to recover stale jobs", zap.Error(err))
	} else if recovered > 0 {
		logger.Info("recovered stale jobs", zap.Int64("count", recovered))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := httpAdapter.NewServer(questions, jobs, addr, logger.Named("http"))
	w := worker.New(jobs, checker, cfg.Worker.PollInterval, cfg.Worker.BatchSize, cfg.Worker.MaxRetries, logger.Named("worker"))

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		w.Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		stop()
		<-workerDone
		return fmt.Errorf("HTTP server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	<-workerDone

	logger.Info("shutdown complete")
	return nil
}
