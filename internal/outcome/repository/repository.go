// Package repository provides data access layer for the outcome ledger.
package repository

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/gitlab_enricher/internal/outcome/model"
)

// Repository defines the interface for outcome data access operations.
type Repository interface {
	// Record stores one outcome.
	Record(ctx context.Context, outcome *model.Outcome) error

	// CountByStatus counts outcomes per status, for one run or, with an
	// empty runID, for all runs.
	CountByStatus(ctx context.Context, runID string) ([]model.StatusCount, error)
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new outcome repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{
		db:     db,
		logger: logger,
	}
}

// Record stores one outcome.
func (r *repository) Record(ctx context.Context, outcome *model.Outcome) error {
	r.logger.Debugw("Record called", "run_id", outcome.RunID, "merge_request_id", outcome.MergeRequestID, "status", outcome.Status)

	if err := r.db.WithContext(ctx).Create(outcome).Error; err != nil {
		r.logger.Errorw("Record database error", "run_id", outcome.RunID, "merge_request_id", outcome.MergeRequestID, "error", err)
		return err
	}
	return nil
}

// CountByStatus counts outcomes per status.
func (r *repository) CountByStatus(ctx context.Context, runID string) ([]model.StatusCount, error) {
	r.logger.Debugw("CountByStatus called", "run_id", runID)

	var counts []model.StatusCount

	query := r.db.WithContext(ctx).
		Model(&model.Outcome{}).
		Select("status, COUNT(*) as count")
	if runID != "" {
		query = query.Where("run_id = ?", runID)
	}

	err := query.
		Group("status").
		Order("status ASC").
		Scan(&counts).Error
	if err != nil {
		r.logger.Errorw("CountByStatus database error", "run_id", runID, "error", err)
		return nil, err
	}

	if counts == nil {
		counts = []model.StatusCount{}
	}

	r.logger.Debugw("CountByStatus completed", "run_id", runID, "statuses", len(counts))
	return counts, nil
}
