package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/festy23/gitlab_enricher/internal/gitlabapi"
	"github.com/festy23/gitlab_enricher/internal/mergerequest/model"
)

type subResources struct {
	notes      []model.Note
	diff       string
	approvals  []model.Identity
	commitRefs []model.CommitRef
	degraded   []string
}

// fetchSubResources fetches notes, changes, approvals and commit references.
// Each fetch absorbs its own recoverable failures; only unclassified errors
// are returned.
func (s *service) fetchSubResources(ctx context.Context, raw model.RawMergeRequest) (*subResources, error) {
	var (
		sub                                            subResources
		notesFailed, diffFailed, apprFailed, refFailed bool
	)

	fetches := []func() error{
		func() (err error) {
			sub.notes, notesFailed, err = fetchOrDefault(s, raw, "fetching notes", []model.Note{}, gitlabapi.IsRecoverable,
				func() ([]model.Note, error) { return s.client.MergeRequestNotes(ctx, raw) })
			return err
		},
		func() (err error) {
			sub.diff, diffFailed, err = fetchOrDefault(s, raw, "fetching changes", "", gitlabapi.IsRecoverable,
				func() (string, error) { return s.fetchDiff(ctx, raw) })
			return err
		},
		func() (err error) {
			sub.approvals, apprFailed, err = fetchOrDefault(s, raw, "fetching approvals", []model.Identity{}, isRecoverableApprovalError,
				func() ([]model.Identity, error) { return s.client.MergeRequestApprovals(ctx, raw) })
			return err
		},
		func() (err error) {
			sub.commitRefs, refFailed, err = fetchOrDefault(s, raw, "fetching commit list", []model.CommitRef{}, gitlabapi.IsRecoverable,
				func() ([]model.CommitRef, error) { return s.client.MergeRequestCommits(ctx, raw) })
			return err
		},
	}

	if s.opts.ConcurrentFetch {
		// Plain Group: a failing fetch must not cancel the others.
		var g errgroup.Group
		for _, fetch := range fetches {
			g.Go(fetch)
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for _, fetch := range fetches {
			if err := fetch(); err != nil {
				return nil, err
			}
		}
	}

	for _, f := range []struct {
		failed bool
		field  string
	}{
		{notesFailed, model.FieldNotes},
		{diffFailed, model.FieldDiff},
		{apprFailed, model.FieldApprovals},
		{refFailed, model.FieldCommits},
	} {
		if f.failed {
			sub.degraded = append(sub.degraded, f.field)
		}
	}

	return &sub, nil
}

// fetchDiff joins the per-file patches of the merge request into one blob.
func (s *service) fetchDiff(ctx context.Context, raw model.RawMergeRequest) (string, error) {
	changes, err := s.client.MergeRequestChanges(ctx, raw)
	if err != nil {
		return "", err
	}

	patches := make([]string, 0, len(changes))
	for _, c := range changes {
		patches = append(patches, c.Diff)
	}
	return strings.Join(patches, "\n"), nil
}

// isRecoverableApprovalError also absorbs payload-shape mismatches: the
// approvals payload differs across GitLab server versions.
func isRecoverableApprovalError(err error) bool {
	return gitlabapi.IsRecoverable(err) || errors.Is(err, gitlabapi.ErrUnexpectedPayload)
}

// fetchOrDefault returns fallback, and reports the failure, when fetch fails
// with an error recoverable accepts.
func fetchOrDefault[T any](
	s *service,
	raw model.RawMergeRequest,
	action string,
	fallback T,
	recoverable func(error) bool,
	fetch func() (T, error),
) (T, bool, error) {
	value, err := fetch()
	if err == nil {
		return value, false, nil
	}
	if !recoverable(err) {
		return value, false, fmt.Errorf("%s for merge request %d: %w", action, raw.ID, err)
	}

	gitlabapi.LogRequestError(s.logger, err, action, false,
		"merge_request_id", raw.ID,
		"project_id", raw.TargetProjectID,
	)
	return fallback, true, nil
}
