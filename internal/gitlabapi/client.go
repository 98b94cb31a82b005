// Package gitlabapi defines the GitLab API capabilities the enrichment
// pipeline depends on, and the error taxonomy shared by its implementations.
package gitlabapi

import (
	"context"

	"github.com/festy23/gitlab_enricher/internal/mergerequest/model"
)

// Client is a GitLab API client for one API generation.
//
// Implementations retry transient failures themselves; a call that still
// fails after retries returns a *retry.ExhaustedError. Non-retryable HTTP
// failures are returned as *APIError.
type Client interface {
	// SchemaVersion reports which API generation the client talks to.
	SchemaVersion() model.SchemaVersion

	// FindProject returns the project with the given id. A missing project
	// yields an error matching ErrNotFound.
	FindProject(ctx context.Context, projectID int) (*model.Project, error)

	// FindGroup returns the group with the given id.
	FindGroup(ctx context.Context, groupID int) (*model.Group, error)

	// ListGroupProjects returns every project of a group.
	ListGroupProjects(ctx context.Context, groupID int) ([]model.Project, error)

	// ListProjectMergeRequests returns every merge request targeting a project.
	ListProjectMergeRequests(ctx context.Context, projectID int) ([]model.RawMergeRequest, error)

	// GetMergeRequest returns one merge request by its project-scoped iid.
	GetMergeRequest(ctx context.Context, projectID, mergeRequestIID int) (*model.RawMergeRequest, error)

	// MergeRequestNotes returns the comments of a merge request in server order.
	MergeRequestNotes(ctx context.Context, mr model.RawMergeRequest) ([]model.Note, error)

	// MergeRequestChanges returns the per-file patches of a merge request.
	MergeRequestChanges(ctx context.Context, mr model.RawMergeRequest) ([]model.FileDiff, error)

	// MergeRequestApprovals returns the users who approved a merge request.
	MergeRequestApprovals(ctx context.Context, mr model.RawMergeRequest) ([]model.Identity, error)

	// MergeRequestCommits returns references to the commits of a merge request.
	MergeRequestCommits(ctx context.Context, mr model.RawMergeRequest) ([]model.CommitRef, error)

	// FindCommit returns a commit of a project. It returns (nil, nil) when
	// the sha cannot be resolved.
	FindCommit(ctx context.Context, projectID int, sha string) (*model.Commit, error)

	// CommitDiff returns the per-file patches of a commit.
	CommitDiff(ctx context.Context, projectID int, sha string) ([]model.FileDiff, error)

	// FindEvents returns the project events with the given action name.
	FindEvents(ctx context.Context, projectID int, action string) ([]model.Event, error)

	// SanityCheck verifies that the instance is reachable and the token works.
	SanityCheck(ctx context.Context) error
}
