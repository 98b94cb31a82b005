// Package batch walks the configured GitLab groups and enriches every merge
// request it finds.
package batch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/festy23/gitlab_enricher/internal/config"
	"github.com/festy23/gitlab_enricher/internal/gitlabapi"
	"github.com/festy23/gitlab_enricher/internal/mergerequest/model"
	"github.com/festy23/gitlab_enricher/internal/mergerequest/service"
	outcomemodel "github.com/festy23/gitlab_enricher/internal/outcome/model"
)

// ErrRunInProgress is returned when Run is called while another run is active.
var ErrRunInProgress = errors.New("a batch run is already in progress")

// Source lists what a run walks over.
type Source interface {
	FindGroup(ctx context.Context, groupID int) (*model.Group, error)
	ListGroupProjects(ctx context.Context, groupID int) ([]model.Project, error)
	ListProjectMergeRequests(ctx context.Context, projectID int) ([]model.RawMergeRequest, error)
}

// Recorder stores per merge request outcomes.
type Recorder interface {
	Record(ctx context.Context, outcome outcomemodel.Outcome) error
}

// Summary describes a finished run.
type Summary struct {
	RunID         string    `json:"run_id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Groups        int       `json:"groups"`
	Projects      int       `json:"projects"`
	MergeRequests int       `json:"merge_requests"`
	Excluded      int       `json:"excluded"`
	Enriched      int       `json:"enriched"`
	Degraded      int       `json:"degraded"`
	Skipped       int       `json:"skipped"`
	Failed        int       `json:"failed"`
	// ListingErrors counts groups and projects whose listing failed.
	ListingErrors int `json:"listing_errors"`
}

// Runner drives batch runs. At most one run is active at a time.
type Runner struct {
	source   Source
	enricher service.Service
	sink     Sink
	recorder Recorder
	cfg      config.EnrichmentConfig
	logger   *zap.SugaredLogger

	newRunID func() string
	now      func() time.Time
	running  sync.Mutex
}

// NewRunner creates a runner. recorder may be nil when the ledger is disabled.
func NewRunner(
	source Source,
	enricher service.Service,
	sink Sink,
	recorder Recorder,
	cfg config.EnrichmentConfig,
	logger *zap.SugaredLogger,
) *Runner {
	return &Runner{
		source:   source,
		enricher: enricher,
		sink:     sink,
		recorder: recorder,
		cfg:      cfg,
		logger:   logger,
		newRunID: uuid.NewString,
		now:      time.Now,
	}
}

// Run walks every configured group once.
//
// Per merge request failures never abort the run. Listing failures the
// client classifies as request errors are logged and skipped; any other
// error, a sink failure or context cancellation stops the run.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	if !r.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.running.Unlock()

	summary := &Summary{
		RunID:     r.newRunID(),
		StartedAt: r.now().UTC(),
	}
	logger := r.logger.With("run_id", summary.RunID)
	logger.Infow("Batch run started", "groups", len(r.cfg.GroupIDs))

	for _, groupID := range r.cfg.GroupIDs {
		if err := r.runGroup(ctx, logger, groupID, summary); err != nil {
			summary.FinishedAt = r.now().UTC()
			logger.Errorw("Batch run aborted", "group_id", groupID, "error", err)
			return summary, err
		}
	}

	summary.FinishedAt = r.now().UTC()
	logger.Infow("Batch run completed",
		"merge_requests", summary.MergeRequests,
		"enriched", summary.Enriched,
		"degraded", summary.Degraded,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"duration", summary.FinishedAt.Sub(summary.StartedAt),
	)
	return summary, nil
}

func (r *Runner) runGroup(ctx context.Context, logger *zap.SugaredLogger, groupID int, summary *Summary) error {
	group, err := r.source.FindGroup(ctx, groupID)
	if err != nil {
		return r.listingError(logger, err, "get_group", summary, "group_id", groupID)
	}
	summary.Groups++

	projects, err := r.source.ListGroupProjects(ctx, groupID)
	if err != nil {
		return r.listingError(logger, err, "list_group_projects", summary, "group_id", groupID)
	}
	logger.Infow("Processing group", "group_id", group.ID, "group", group.FullPath, "projects", len(projects))

	for _, project := range projects {
		if err := r.runProject(ctx, logger, project, summary); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runProject(ctx context.Context, logger *zap.SugaredLogger, project model.Project, summary *Summary) error {
	mrs, err := r.source.ListProjectMergeRequests(ctx, project.ID)
	if err != nil {
		return r.listingError(logger, err, "list_project_merge_requests", summary, "project_id", project.ID)
	}
	summary.Projects++

	selected := r.selectMergeRequests(mrs)
	summary.Excluded += len(mrs) - len(selected)
	logger.Debugw("Processing project", "project_id", project.ID, "project", project.PathWithNamespace,
		"merge_requests", len(selected), "excluded", len(mrs)-len(selected))

	for _, raw := range selected {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.enrichOne(ctx, logger, raw, summary); err != nil {
			return err
		}
	}
	return nil
}

// selectMergeRequests drops excluded states and orders newest first.
func (r *Runner) selectMergeRequests(mrs []model.RawMergeRequest) []model.RawMergeRequest {
	selected := make([]model.RawMergeRequest, 0, len(mrs))
	for _, mr := range mrs {
		if r.cfg.IsExcludedState(mr.State) {
			continue
		}
		selected = append(selected, mr)
	}

	slices.SortStableFunc(selected, func(a, b model.RawMergeRequest) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return selected
}

func (r *Runner) enrichOne(ctx context.Context, logger *zap.SugaredLogger, raw model.RawMergeRequest, summary *Summary) error {
	summary.MergeRequests++
	outcome := outcomemodel.Outcome{
		RunID:           summary.RunID,
		ProjectID:       raw.TargetProjectID,
		MergeRequestID:  raw.ID,
		MergeRequestIID: raw.IID,
	}

	mr, err := r.enricher.Enrich(ctx, raw)
	switch {
	case err == nil:
		if mr.IsDegraded() {
			outcome.Status = outcomemodel.StatusDegraded
			outcome.Degraded = outcomemodel.JoinDegraded(mr.Degraded)
			summary.Degraded++
		} else {
			outcome.Status = outcomemodel.StatusEnriched
			summary.Enriched++
		}
		if err := r.sink.Write(mr); err != nil {
			return err
		}
	case errors.Is(err, model.ErrMissingSourceProject):
		logger.Warnw("Skipping merge request with missing source project",
			"merge_request_id", raw.ID, "project_id", raw.TargetProjectID, "source_project_id", raw.SourceProjectID)
		outcome.Status = outcomemodel.StatusSkipped
		outcome.Error = err.Error()
		summary.Skipped++
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		gitlabapi.LogRequestError(logger, err, "enrich_merge_request", true,
			"merge_request_id", raw.ID, "project_id", raw.TargetProjectID)
		outcome.Status = outcomemodel.StatusFailed
		outcome.Error = err.Error()
		summary.Failed++
	}

	r.record(ctx, logger, outcome)
	return nil
}

func (r *Runner) record(ctx context.Context, logger *zap.SugaredLogger, outcome outcomemodel.Outcome) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.Record(ctx, outcome); err != nil {
		logger.Errorw("Failed to record outcome", "merge_request_id", outcome.MergeRequestID, "status", outcome.Status, "error", err)
	}
}

func (r *Runner) listingError(
	logger *zap.SugaredLogger,
	err error,
	action string,
	summary *Summary,
	keysAndValues ...interface{},
) error {
	if !gitlabapi.IsRecoverable(err) {
		return fmt.Errorf("%s: %w", action, err)
	}
	gitlabapi.LogRequestError(logger, err, action, true, keysAndValues...)
	summary.ListingErrors++
	return nil
}
