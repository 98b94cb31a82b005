// Package service provides business logic layer for the outcome ledger.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/festy23/gitlab_enricher/internal/outcome/model"
	"github.com/festy23/gitlab_enricher/internal/outcome/repository"
)

// Service defines the interface for outcome ledger operations.
type Service interface {
	// Record stores the outcome of one enrichment.
	Record(ctx context.Context, outcome model.Outcome) error

	// GetStatistics returns outcome counts for a run, or all runs if runID is empty.
	GetStatistics(ctx context.Context, runID string) (*model.StatisticsResponse, error)
}

type service struct {
	repo   repository.Repository
	logger *zap.SugaredLogger
	now    func() time.Time
}

// New creates a new outcome service instance.
func New(repo repository.Repository, logger *zap.SugaredLogger) Service {
	return &service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Record stores the outcome of one enrichment.
func (s *service) Record(ctx context.Context, outcome model.Outcome) error {
	if outcome.RecordedAt.IsZero() {
		outcome.RecordedAt = s.now().UTC()
	}

	if err := s.repo.Record(ctx, &outcome); err != nil {
		s.logger.Errorw("Record failed", "run_id", outcome.RunID, "merge_request_id", outcome.MergeRequestID, "error", err)
		return err
	}
	return nil
}

// GetStatistics returns outcome counts.
func (s *service) GetStatistics(ctx context.Context, runID string) (*model.StatisticsResponse, error) {
	s.logger.Debugw("GetStatistics called", "run_id", runID)

	counts, err := s.repo.CountByStatus(ctx, runID)
	if err != nil {
		s.logger.Errorw("GetStatistics failed", "run_id", runID, "error", err)
		return nil, err
	}

	total := 0
	for _, c := range counts {
		total += c.Count
	}

	s.logger.Infow("GetStatistics completed", "run_id", runID, "total", total)
	return &model.StatisticsResponse{
		RunID:    runID,
		Total:    total,
		ByStatus: counts,
	}, nil
}
