package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/festy23/gitlab_enricher/internal/gitlabapi"
	"github.com/festy23/gitlab_enricher/internal/mergerequest/model"
)

// resolveProjects returns the target and source projects. For a merge
// request within one project both results are the same pointer.
func (s *service) resolveProjects(ctx context.Context, raw model.RawMergeRequest) (*model.Project, *model.Project, error) {
	target, err := s.client.FindProject(ctx, raw.TargetProjectID)
	if err != nil {
		return nil, nil, err
	}

	if raw.SourceProjectID == raw.TargetProjectID {
		return target, target, nil
	}

	source, err := s.client.FindProject(ctx, raw.SourceProjectID)
	if err != nil {
		if errors.Is(err, gitlabapi.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: merge request %d, source project %d",
				model.ErrMissingSourceProject, raw.ID, raw.SourceProjectID)
		}
		return nil, nil, err
	}

	return target, source, nil
}
