// Package v4client implements gitlabapi.Client for the GitLab v4 API on top
// of github.com/xanzy/go-gitlab.
package v4client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/AlekSi/pointer"
	"github.com/xanzy/go-gitlab"
	"golang.org/x/time/rate"

	"github.com/festy23/gitlab_enricher/internal/config"
	"github.com/festy23/gitlab_enricher/internal/gitlabapi"
	"github.com/festy23/gitlab_enricher/internal/mergerequest/model"
	"github.com/festy23/gitlab_enricher/pkg/retry"
)

// Client talks to /api/v4.
type Client struct {
	api     *gitlab.Client
	perPage int
	retry   retry.Config
}

var _ gitlabapi.Client = (*Client)(nil)

// New creates a v4 client. go-gitlab's own retries are disabled: every call
// goes through pkg/retry with the gitlabapi transient classifier.
func New(cfg config.GitLabConfig) (*Client, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if !cfg.SSLVerify {
		httpClient.Transport = &http.Transport{
			//nolint:gosec // opt-in for self-hosted instances with private CAs
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	api, err := gitlab.NewClient(
		cfg.Token,
		gitlab.WithBaseURL(strings.TrimRight(cfg.URL, "/")+"/api/v4"),
		gitlab.WithHTTPClient(httpClient),
		gitlab.WithoutRetries(),
		// An unlimited limiter also skips go-gitlab's rate-limit probe request.
		gitlab.WithCustomLimiter(rate.NewLimiter(rate.Inf, 0)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitlab client: %w", err)
	}

	return &Client{
		api:     api,
		perPage: cfg.PerPage,
		retry:   gitlabapi.RetryConfig(cfg.RetryConfig()),
	}, nil
}

// SchemaVersion implements gitlabapi.Client.
func (c *Client) SchemaVersion() model.SchemaVersion {
	return model.SchemaV4
}

// FindProject implements gitlabapi.Client.
func (c *Client) FindProject(ctx context.Context, projectID int) (*model.Project, error) {
	var project *gitlab.Project
	_, err := c.send(ctx, func(opt gitlab.RequestOptionFunc) (*gitlab.Response, error) {
		p, resp, err := c.api.Projects.GetProject(projectID, nil, opt)
		project = p
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("find project %d: %w", projectID, err)
	}
	return projectToModel(project), nil
}

// FindGroup implements gitlabapi.Client.
func (c *Client) FindGroup(ctx context.Context, groupID int) (*model.Group, error) {
	var group *gitlab.Group
	_, err := c.send(ctx, func(opt gitlab.RequestOptionFunc) (*gitlab.Response, error) {
		g, resp, err := c.api.Groups.GetGroup(groupID, nil, opt)
		group = g
		return resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("find group %d: %w", groupID, err)
	}
	return &model.Group{ID: group.ID, Name: group.Name, Path: group.Path, FullPath: group.FullPath}, nil
}

// ListGroupProjects implements gitlabapi.Client.
func (c *Client) ListGroupProjects(ctx context.Context, groupID int) ([]model.Project, error) {
	projects := []model.Project{}
	err := c.paginate(ctx, func(page int, opt gitlab.RequestOptionFunc) (*gitlab.Response, error) {
		list, resp, err := c.api.Groups.ListGroupProjects(groupID, &gitlab.ListGroupProjectsOptions{
			ListOptions: gitlab.ListOptions{Page: page, PerPage: c.perPage},
			Archived:    pointer.ToBool(false),
		}, opt)
		if err != nil {
			return resp, err
		}
		for _, p := range list {
			projects = append(projects, *projectToModel(p))
		}
		return resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list projects of group %d: %w", groupID, err)
	}
	return projects, nil
}

// ListProjectMergeRequests implements gitlabapi.Client.
func (c *Client) ListProjectMergeRequests(ctx context.Context, projectID int) ([]model.RawMergeRequest, error) {
	payloads, err := getList[mergeRequestPayload](ctx, c, fmt.Sprintf("projects/%d/merge_requests", projectID), listOptions{
		OrderBy: "created_at",
		Sort:    "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("list merge requests of project %d: %w", projectID, err)
	}

	mrs := make([]model.RawMergeRequest, 0, len(payloads))
	for _, p := range payloads {
		mrs = append(mrs, p.toModel())
	}
	return mrs, nil
}

// GetMergeRequest implements gitlabapi.Client.
func (c *Client) GetMergeRequest(ctx context.Context, projectID, mergeRequestIID int) (*model.RawMergeRequest, error) {
	var payload mergeRequestPayload
	if err := c.get(ctx, fmt.Sprintf("projects/%d/merge_requests/%d", projectID, mergeRequestIID), &payload); err != nil {
		return nil, fmt.Errorf("get merge request %d!%d: %w", projectID, mergeRequestIID, err)
	}
	raw := payload.toModel()
	return &raw, nil
}

// MergeRequestNotes implements gitlabapi.Client.
func (c *Client) MergeRequestNotes(ctx context.Context, mr model.RawMergeRequest) ([]model.Note, error) {
	notes := []model.Note{}
	err := c.paginate(ctx, func(page int, opt gitlab.RequestOptionFunc) (*gitlab.Response, error) {
		list, resp, err := c.api.Notes.ListMergeRequestNotes(mr.ProjectID, mr.IID, &gitlab.ListMergeRequestNotesOptions{
			ListOptions: gitlab.ListOptions{Page: page, PerPage: c.perPage},
			OrderBy:     pointer.ToString("created_at"),
			Sort:        pointer.ToString("asc"),
		}, opt)
		if err != nil {
			return resp, err
		}
		for _, n := range list {
			notes = append(notes, noteToModel(n))
		}
		return resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list notes of merge request %d: %w", mr.ID, err)
	}
	return notes, nil
}

// MergeRequestChanges implements gitlabapi.Client.
func (c *Client) MergeRequestChanges(ctx context.Context, mr model.RawMergeRequest) ([]model.FileDiff, error) {
	var payload changesPayload
	if err := c.get(ctx, fmt.Sprintf("projects/%d/merge_requests/%d/changes", mr.ProjectID, mr.IID), &payload); err != nil {
		return nil, fmt.Errorf("get changes of merge request %d: %w", mr.ID, err)
	}

	diffs := make([]model.FileDiff, 0, len(payload.Changes))
	for _, ch := range payload.Changes {
		diffs = append(diffs, model.FileDiff{OldPath: ch.OldPath, NewPath: ch.NewPath, Diff: ch.Diff})
	}
	return diffs, nil
}

// MergeRequestApprovals implements gitlabapi.Client.
func (c *Client) MergeRequestApprovals(ctx context.Context, mr model.RawMergeRequest) ([]model.Identity, error) {
	var payload approvalsPayload
	if err := c.get(ctx, fmt.Sprintf("projects/%d/merge_requests/%d/approvals", mr.ProjectID, mr.IID), &payload); err != nil {
		return nil, fmt.Errorf("get approvals of merge request %d: %w", mr.ID, err)
	}

	approvers := make([]model.Identity, 0, len(payload.ApprovedBy))
	for _, a := range payload.ApprovedBy {
		approvers = append(approvers, a.User.toModel())
	}
	return approvers, nil
}

// MergeRequestCommits implements gitlabapi.Client.
func (c *Client) MergeRequestCommits(ctx context.Context, mr model.RawMergeRequest) ([]model.CommitRef, error) {
	payloads, err := getList[commitRefPayload](ctx, c, fmt.Sprintf("projects/%d/merge_requests/%d/commits", mr.ProjectID, mr.IID), listOptions{})
	if err != nil {
		return nil, fmt.Errorf("list commits of merge request %d: %w", mr.ID, err)
	}

	refs := make([]model.CommitRef, 0, len(payloads))
	for _, p := range payloads {
		refs = append(refs, model.CommitRef{ID: p.ID})
	}
	return refs, nil
}

// FindCommit implements gitlabapi.Client.
func (c *Client) FindCommit(ctx context.Context, projectID int, sha string) (*model.Commit, error) {
	var commit *gitlab.Commit
	_, err := c.send(ctx, func(opt gitlab.RequestOptionFunc) (*gitlab.Response, error) {
		cm, resp, err := c.api.Commits.GetCommit(projectID, sha, nil, opt)
		commit = cm
		return resp, err
	})
	if errors.Is(err, gitlabapi.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find commit %s in project %d: %w", sha, projectID, err)
	}
	if commit == nil || commit.ID == "" {
		return nil, nil
	}
	return commitToModel(commit), nil
}

// CommitDiff implements gitlabapi.Client.
func (c *Client) CommitDiff(ctx context.Context, projectID int, sha string) ([]model.FileDiff, error) {
	diffs := []model.FileDiff{}
	err := c.paginate(ctx, func(page int, opt gitlab.RequestOptionFunc) (*gitlab.Response, error) {
		list, resp, err := c.api.Commits.GetCommitDiff(projectID, sha, &gitlab.GetCommitDiffOptions{
			ListOptions: gitlab.ListOptions{Page: page, PerPage: c.perPage},
		}, opt)
		if err != nil {
			return resp, err
		}
		for _, d := range list {
			diffs = append(diffs, model.FileDiff{OldPath: d.OldPath, NewPath: d.NewPath, Diff: d.Diff})
		}
		return resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("get diff of commit %s: %w", sha, err)
	}
	return diffs, nil
}

// FindEvents implements gitlabapi.Client. The API filters by action type
// ("pushed"); the exact action name ("pushed to") is matched here.
func (c *Client) FindEvents(ctx context.Context, projectID int, action string) ([]model.Event, error) {
	opts := listOptions{}
	if fields := strings.Fields(action); len(fields) > 0 {
		opts.Action = fields[0]
	}

	payloads, err := getList[eventPayload](ctx, c, fmt.Sprintf("projects/%d/events", projectID), opts)
	if err != nil {
		return nil, fmt.Errorf("list events of project %d: %w", projectID, err)
	}

	events := []model.Event{}
	for _, p := range payloads {
		if p.ActionName != action {
			continue
		}
		events = append(events, p.toModel())
	}
	return events, nil
}

// SanityCheck implements gitlabapi.Client.
func (c *Client) SanityCheck(ctx context.Context) error {
	_, err := c.send(ctx, func(opt gitlab.RequestOptionFunc) (*gitlab.Response, error) {
		_, resp, err := c.api.Users.CurrentUser(opt)
		return resp, err
	})
	if err != nil {
		return fmt.Errorf("gitlab sanity check: %w", err)
	}
	return nil
}

// send runs one request under the retry policy, translating go-gitlab errors.
func (c *Client) send(ctx context.Context, fn func(opt gitlab.RequestOptionFunc) (*gitlab.Response, error)) (*gitlab.Response, error) {
	return retry.DoWithResult(ctx, c.retry, func() (*gitlab.Response, error) {
		resp, err := fn(gitlab.WithContext(ctx))
		return resp, translateError(err)
	})
}

// paginate calls fetch for page 1, 2, ... until the response has no next page.
func (c *Client) paginate(ctx context.Context, fetch func(page int, opt gitlab.RequestOptionFunc) (*gitlab.Response, error)) error {
	page := 1
	for {
		resp, err := c.send(ctx, func(opt gitlab.RequestOptionFunc) (*gitlab.Response, error) {
			return fetch(page, opt)
		})
		if err != nil {
			return err
		}
		if resp == nil || resp.NextPage == 0 {
			return nil
		}
		page = resp.NextPage
	}
}

func (c *Client) get(ctx context.Context, path string, v interface{}) error {
	_, err := c.send(ctx, func(opt gitlab.RequestOptionFunc) (*gitlab.Response, error) {
		req, err := c.api.NewRequest(http.MethodGet, path, nil, []gitlab.RequestOptionFunc{opt})
		if err != nil {
			return nil, err
		}
		return c.api.Do(req, v)
	})
	return err
}

func getList[T any](ctx context.Context, c *Client, path string, opts listOptions) ([]T, error) {
	items := []T{}
	err := c.paginate(ctx, func(page int, opt gitlab.RequestOptionFunc) (*gitlab.Response, error) {
		opts.Page = page
		opts.PerPage = c.perPage

		req, err := c.api.NewRequest(http.MethodGet, path, &opts, []gitlab.RequestOptionFunc{opt})
		if err != nil {
			return nil, err
		}

		var batch []T
		resp, err := c.api.Do(req, &batch)
		if err != nil {
			return resp, err
		}
		items = append(items, batch...)
		return resp, nil
	})
	return items, err
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var errResp *gitlab.ErrorResponse
	if errors.As(err, &errResp) {
		apiErr := &gitlabapi.APIError{Message: errResp.Message}
		if errResp.Response != nil {
			apiErr.StatusCode = errResp.Response.StatusCode
		}
		return apiErr
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %v", gitlabapi.ErrUnexpectedPayload, err)
	}

	return err
}
