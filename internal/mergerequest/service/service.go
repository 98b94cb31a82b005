// Package service provides the merge request enrichment pipeline.
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/festy23/gitlab_enricher/internal/gitlabapi"
	"github.com/festy23/gitlab_enricher/internal/mergerequest/model"
	"github.com/festy23/gitlab_enricher/internal/normalize"
)

// Service defines the interface for merge request enrichment.
type Service interface {
	// Enrich builds the complete record for a merge request fetched from a
	// list endpoint.
	Enrich(ctx context.Context, raw model.RawMergeRequest) (*model.MergeRequest, error)

	// EnrichByID fetches a merge request by project and iid, then enriches it.
	EnrichByID(ctx context.Context, projectID, mergeRequestIID int) (*model.MergeRequest, error)
}

// Options tunes the pipeline.
type Options struct {
	// ConcurrentFetch runs the sub-resource fetches in parallel.
	ConcurrentFetch bool
}

type service struct {
	client     gitlabapi.Client
	normalizer *normalize.Normalizer
	logger     *zap.SugaredLogger
	opts       Options
}

// New creates a new enrichment service instance.
func New(client gitlabapi.Client, normalizer *normalize.Normalizer, logger *zap.SugaredLogger, opts Options) Service {
	return &service{
		client:     client,
		normalizer: normalizer,
		logger:     logger,
		opts:       opts,
	}
}

// Enrich runs project resolution, sub-resource fetching and commit
// materialization, then normalizes v3 records.
func (s *service) Enrich(ctx context.Context, raw model.RawMergeRequest) (*model.MergeRequest, error) {
	if raw.ID == 0 || raw.TargetProjectID == 0 || raw.SourceProjectID == 0 {
		return nil, fmt.Errorf("%w: merge request %d lacks project ids", model.ErrInvalidMergeRequest, raw.ID)
	}
	if raw.Schema == "" {
		raw.Schema = s.client.SchemaVersion()
	}

	s.logger.Debugw("Enrich called", "merge_request_id", raw.ID, "project_id", raw.TargetProjectID, "schema", raw.Schema)

	target, source, err := s.resolveProjects(ctx, raw)
	if err != nil {
		return nil, err
	}

	sub, err := s.fetchSubResources(ctx, raw)
	if err != nil {
		return nil, err
	}

	commits, err := s.materializeCommits(ctx, raw, sub.commitRefs)
	if err != nil {
		return nil, err
	}

	mr := model.NewMergeRequest(raw)
	mr.TargetProject = target
	mr.SourceProject = source
	mr.NoteList = orEmpty(sub.notes)
	mr.Diff = sub.diff
	mr.ApprovedBy = orEmpty(sub.approvals)
	mr.CommitList = orEmpty(commits)
	for _, field := range sub.degraded {
		mr.MarkDegraded(field)
	}

	if raw.Schema == model.SchemaV3 {
		mr, err = s.normalizer.NormalizeMergeRequest(ctx, mr)
		if err != nil {
			return nil, fmt.Errorf("normalize merge request %d: %w", raw.ID, err)
		}
	}

	s.logger.Debugw("Enrich completed",
		"merge_request_id", mr.ID,
		"notes", len(mr.NoteList),
		"commits", len(mr.CommitList),
		"approvals", len(mr.ApprovedBy),
		"degraded", mr.Degraded,
	)

	return mr, nil
}

// EnrichByID fetches the raw merge request first.
func (s *service) EnrichByID(ctx context.Context, projectID, mergeRequestIID int) (*model.MergeRequest, error) {
	raw, err := s.client.GetMergeRequest(ctx, projectID, mergeRequestIID)
	if err != nil {
		return nil, err
	}
	return s.Enrich(ctx, *raw)
}

// orEmpty keeps list fields encoded as [] rather than null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
