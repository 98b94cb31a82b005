package service

import (
	"context"
	"fmt"

	"github.com/festy23/gitlab_enricher/internal/gitlabapi"
	"github.com/festy23/gitlab_enricher/internal/mergerequest/model"
)

// materializeCommits resolves each reference to a full commit in the source
// project, keeping reference order. Unresolvable references are dropped.
func (s *service) materializeCommits(ctx context.Context, raw model.RawMergeRequest, refs []model.CommitRef) ([]model.Commit, error) {
	commits := make([]model.Commit, 0, len(refs))

	for _, ref := range refs {
		commit, err := s.client.FindCommit(ctx, raw.SourceProjectID, ref.ID)
		if err != nil {
			if !gitlabapi.IsRecoverable(err) {
				return nil, fmt.Errorf("materializing commit %s of merge request %d: %w", ref.ID, raw.ID, err)
			}
			gitlabapi.LogRequestError(s.logger, err, "fetching commit", false,
				"merge_request_id", raw.ID,
				"commit", ref.ID,
			)
			continue
		}
		if commit == nil {
			s.logger.Debugw("Commit could not be resolved, dropping it",
				"merge_request_id", raw.ID,
				"project_id", raw.SourceProjectID,
				"commit", ref.ID,
			)
			continue
		}
		commits = append(commits, *commit)
	}

	return commits, nil
}
