// Package main provides the entry point for the merge request enrichment agent.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/gitlab_enricher/internal/batch"
	batchRouter "github.com/festy23/gitlab_enricher/internal/batch/router"
	"github.com/festy23/gitlab_enricher/internal/config"
	dbConfig "github.com/festy23/gitlab_enricher/internal/database/config"
	"github.com/festy23/gitlab_enricher/internal/database/database"
	"github.com/festy23/gitlab_enricher/internal/database/migrate"
	"github.com/festy23/gitlab_enricher/internal/database/pool"
	"github.com/festy23/gitlab_enricher/internal/gitlabapi"
	"github.com/festy23/gitlab_enricher/internal/gitlabapi/v3client"
	"github.com/festy23/gitlab_enricher/internal/gitlabapi/v4client"
	"github.com/festy23/gitlab_enricher/internal/health"
	mrRouter "github.com/festy23/gitlab_enricher/internal/mergerequest/router"
	mrService "github.com/festy23/gitlab_enricher/internal/mergerequest/service"
	"github.com/festy23/gitlab_enricher/internal/middleware"
	"github.com/festy23/gitlab_enricher/internal/normalize"
	outcomeRepository "github.com/festy23/gitlab_enricher/internal/outcome/repository"
	outcomeRouter "github.com/festy23/gitlab_enricher/internal/outcome/router"
	outcomeService "github.com/festy23/gitlab_enricher/internal/outcome/service"
	"github.com/festy23/gitlab_enricher/pkg/logger"
)

func main() {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}

	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	sugar, err := logger.NewWithConfig(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = sugar.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, sugar); err != nil {
		sugar.Errorw("agent stopped with error", "error", err)
		_ = sugar.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, sugar *zap.SugaredLogger) error {
	client, err := newClient(cfg.GitLab)
	if err != nil {
		return err
	}
	if err := client.SanityCheck(ctx); err != nil {
		gitlabapi.LogRequestError(sugar, err, "sanity_check", true, "url", cfg.GitLab.URL)
		return fmt.Errorf("gitlab sanity check failed: %w", err)
	}

	db, err := openLedger(ctx, cfg, sugar)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			sugar.Warnw("failed to close ledger database", "error", err)
		}
	}()

	normalizer := normalize.New(client, cfg.Enrichment.MergeEventAction, sugar)
	enricher := mrService.New(client, normalizer, sugar, mrService.Options{
		ConcurrentFetch: cfg.Enrichment.ConcurrentFetch,
	})

	var outcomes outcomeService.Service
	var recorder batch.Recorder
	if db != nil {
		outcomes = outcomeService.New(outcomeRepository.New(db, sugar), sugar)
		recorder = outcomes
	}

	runner := batch.NewRunner(client, enricher, batch.NewJSONLinesSink(os.Stdout), recorder, cfg.Enrichment, sugar)

	if cfg.Mode == config.ModeBatch {
		summary, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		sugar.Infow("Batch finished", "run_id", summary.RunID, "failed", summary.Failed)
		return nil
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(sugar), middleware.Recovery(sugar))

	r.GET("/health", health.New(client, db, sugar).Check)
	mrRouter.RegisterRoutes(r, enricher, sugar)
	batchRouter.RegisterRoutes(r, runner, sugar)
	if outcomes != nil {
		outcomeRouter.RegisterRoutes(r, outcomes, sugar)
	}

	return serve(ctx, cfg.Server, r, sugar)
}

func newClient(cfg config.GitLabConfig) (gitlabapi.Client, error) {
	if cfg.APIVersion == config.APIVersionV3 {
		return v3client.New(cfg), nil
	}
	client, err := v4client.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitlab client: %w", err)
	}
	return client, nil
}

// openLedger returns nil when the ledger is disabled.
func openLedger(ctx context.Context, cfg config.Config, sugar *zap.SugaredLogger) (*gorm.DB, error) {
	if !cfg.LedgerEnabled {
		sugar.Infow("Outcome ledger disabled")
		return nil, nil
	}

	ledgerCfg := dbConfig.LoadConfigFromEnv()
	if err := ledgerCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ledger configuration: %w", err)
	}
	poolCfg := pool.LoadConfigFromEnv()

	db, err := database.Open(ctx, ledgerCfg, dbConfig.LoadRetryConfigFromEnv(), poolCfg, sugar)
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(db, ledgerCfg.MigrationsPath, sugar); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return db, nil
}

func serve(ctx context.Context, cfg config.ServerConfig, handler http.Handler, sugar *zap.SugaredLogger) error {
	srv := &http.Server{
		Addr:         cfg.GetAddress(),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("Server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sugar.Infow("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
