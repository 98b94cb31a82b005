package normalize

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/festy23/gitlab_enricher/internal/gitlabapi"
	"github.com/festy23/gitlab_enricher/internal/mergerequest/model"
)

// DefaultMergeEventAction is the event action that records the push of a
// merge into the target branch.
const DefaultMergeEventAction = "pushed to"

// EventSource is the part of gitlabapi.Client the normalizer reads from.
type EventSource interface {
	FindEvents(ctx context.Context, projectID int, action string) ([]model.Event, error)
	CommitDiff(ctx context.Context, projectID int, sha string) ([]model.FileDiff, error)
}

// Normalizer converts v3 records to the v4 shape.
type Normalizer struct {
	source      EventSource
	mergeAction string
	logger      *zap.SugaredLogger
}

// New creates a Normalizer. An empty mergeAction means DefaultMergeEventAction.
func New(source EventSource, mergeAction string, logger *zap.SugaredLogger) *Normalizer {
	if mergeAction == "" {
		mergeAction = DefaultMergeEventAction
	}
	return &Normalizer{source: source, mergeAction: mergeAction, logger: logger}
}

// Normalize returns the normalized form of r. The input is not modified.
func (n *Normalizer) Normalize(ctx context.Context, r Record) (Record, error) {
	return r.normalize(ctx, n)
}

// NormalizeMergeRequest is Normalize for a merge request.
func (n *Normalizer) NormalizeMergeRequest(ctx context.Context, mr *model.MergeRequest) (*model.MergeRequest, error) {
	out, err := n.Normalize(ctx, MergeRequestRecord{MergeRequest: mr})
	if err != nil {
		return nil, err
	}
	return out.(MergeRequestRecord).MergeRequest, nil
}

func (n *Normalizer) normalizeMergeRequest(ctx context.Context, in *model.MergeRequest) (*model.MergeRequest, error) {
	mr := in.Clone()
	raw := mr.Source

	mr.Author = normalizeIdentity(mr.Author)
	for i := range mr.NoteList {
		mr.NoteList[i].Author = normalizeIdentity(mr.NoteList[i].Author)
	}
	for i := range mr.CommitList {
		mr.CommitList[i] = normalizeCommit(mr.CommitList[i])
	}
	for i := range mr.ApprovedBy {
		mr.ApprovedBy[i] = normalizeIdentity(mr.ApprovedBy[i])
	}

	// A record decoded from its JSON form has no Source; keep what it carries.
	if !raw.CreatedAt.IsZero() {
		mr.CreatedAt = model.FormatTimestamp(raw.CreatedAt)
	}
	if !raw.UpdatedAt.IsZero() {
		mr.UpdatedAt = model.FormatTimestamp(raw.UpdatedAt)
		mr.UpdatedAtDT = raw.UpdatedAt
	}
	if raw.TargetBranch != "" {
		mr.BaseBranch = raw.TargetBranch
	}
	if raw.SourceBranch != "" {
		mr.HeadBranch = raw.SourceBranch
	}
	if mr.HeadSHA == "" {
		mr.HeadSHA = headSHA(mr)
	}

	diffs, err := n.commitDiffs(ctx, mr)
	if err != nil {
		return nil, err
	}
	mr.CommitDiffs = diffs

	event, err := n.findMergeEvent(ctx, mr)
	if err != nil {
		return nil, err
	}
	if event == nil {
		mr.MergeMetadata = model.MergeMetadataMissing
		mr.MergeDate = nil
		switch {
		case raw.ClosedAt != nil:
			closedAt := *raw.ClosedAt
			mr.ClosedAt = &closedAt
		case in.MergeMetadata == model.MergeMetadataEvent:
			mr.ClosedAt = nil
		}
		mr.MarkDegraded(model.FieldMergeEvent)
		n.logger.Warnw("No merge event correlates with merge request, merge metadata left empty",
			"merge_request_id", mr.ID,
			"project_id", mr.TargetProjectID,
			"head_sha", mr.HeadSHA,
		)
		return mr, nil
	}

	mergedAt := event.CreatedAt
	closedAt := event.CreatedAt
	mr.MergeDate = &mergedAt
	mr.ClosedAt = &closedAt
	mr.ApprovedBy = []model.Identity{normalizeIdentity(event.Author)}
	mr.MergeMetadata = model.MergeMetadataEvent

	return mr, nil
}

// headSHA is the sha the merge event is matched against: the raw head sha,
// else the newest materialized commit.
func headSHA(mr *model.MergeRequest) string {
	if mr.Source.SHA != "" {
		return mr.Source.SHA
	}
	if len(mr.CommitList) > 0 {
		return mr.CommitList[0].ID
	}
	return ""
}

// findMergeEvent returns the first event on the target project whose
// checkout sha is the head sha. Events come newest first; a merge is pushed
// once per sha, so the first match is the merge. A nil event with nil error
// means no correlation.
func (n *Normalizer) findMergeEvent(ctx context.Context, mr *model.MergeRequest) (*model.Event, error) {
	if mr.HeadSHA == "" {
		return nil, nil
	}

	events, err := n.source.FindEvents(ctx, mr.TargetProjectID, n.mergeAction)
	if err != nil {
		if gitlabapi.IsRecoverable(err) {
			gitlabapi.LogRequestError(n.logger, err, "fetching merge events", false, "merge_request_id", mr.ID)
			return nil, nil
		}
		return nil, err
	}

	for i := range events {
		if events[i].CheckoutSHA == mr.HeadSHA {
			return &events[i], nil
		}
	}
	return nil, nil
}

// commitDiffs returns, per materialized commit, the patch lines of all its
// files. It returns nil when there are no commits or a diff could not be
// fetched: nil means undetermined, not empty.
func (n *Normalizer) commitDiffs(ctx context.Context, mr *model.MergeRequest) ([][]string, error) {
	if len(mr.CommitList) == 0 {
		return nil, nil
	}

	projectID := mr.SourceProjectID
	result := make([][]string, 0, len(mr.CommitList))
	for _, commit := range mr.CommitList {
		files, err := n.source.CommitDiff(ctx, projectID, commit.ID)
		if err != nil {
			if gitlabapi.IsRecoverable(err) || errors.Is(err, gitlabapi.ErrUnexpectedPayload) {
				gitlabapi.LogRequestError(n.logger, err, "fetching commit diff", false,
					"merge_request_id", mr.ID, "commit", commit.ID)
				mr.MarkDegraded(model.FieldDiff)
				return nil, nil
			}
			return nil, err
		}

		lines := []string{}
		for _, f := range files {
			if f.Diff == "" {
				continue
			}
			lines = append(lines, strings.Split(strings.TrimRight(f.Diff, "\n"), "\n")...)
		}
		result = append(result, lines)
	}
	return result, nil
}
