// Package v3client implements gitlabapi.Client for the legacy GitLab v3 API.
// In v3, merge request sub-resources are addressed by the global merge
// request id rather than the project-scoped iid.
package v3client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/festy23/gitlab_enricher/internal/config"
	"github.com/festy23/gitlab_enricher/internal/gitlabapi"
	"github.com/festy23/gitlab_enricher/internal/mergerequest/model"
	"github.com/festy23/gitlab_enricher/pkg/retry"
)

// HTTPClient is the subset of *http.Client the client needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to /api/v3.
type Client struct {
	baseURL    string
	token      string
	perPage    int
	httpClient HTTPClient
	retry      retry.Config
}

var _ gitlabapi.Client = (*Client)(nil)

// New creates a v3 client with an *http.Client built from cfg.
func New(cfg config.GitLabConfig) *Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if !cfg.SSLVerify {
		httpClient.Transport = &http.Transport{
			//nolint:gosec // opt-in for self-hosted instances with private CAs
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return NewWithHTTPClient(cfg, httpClient)
}

// NewWithHTTPClient creates a v3 client on top of httpClient.
func NewWithHTTPClient(cfg config.GitLabConfig, httpClient HTTPClient) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/") + "/api/v3",
		token:      cfg.Token,
		perPage:    cfg.PerPage,
		httpClient: httpClient,
		retry:      gitlabapi.RetryConfig(cfg.RetryConfig()),
	}
}

// SchemaVersion implements gitlabapi.Client.
func (c *Client) SchemaVersion() model.SchemaVersion {
	return model.SchemaV3
}

// FindProject implements gitlabapi.Client.
func (c *Client) FindProject(ctx context.Context, projectID int) (*model.Project, error) {
	var payload projectPayload
	if err := c.get(ctx, fmt.Sprintf("/projects/%d", projectID), &payload); err != nil {
		return nil, fmt.Errorf("find project %d: %w", projectID, err)
	}
	return payload.toModel(), nil
}

// FindGroup implements gitlabapi.Client.
func (c *Client) FindGroup(ctx context.Context, groupID int) (*model.Group, error) {
	var payload groupPayload
	if err := c.get(ctx, fmt.Sprintf("/groups/%d", groupID), &payload); err != nil {
		return nil, fmt.Errorf("find group %d: %w", groupID, err)
	}
	return &model.Group{ID: payload.ID, Name: payload.Name, Path: payload.Path, FullPath: payload.FullPath}, nil
}

// ListGroupProjects implements gitlabapi.Client.
func (c *Client) ListGroupProjects(ctx context.Context, groupID int) ([]model.Project, error) {
	payloads, err := getList[projectPayload](ctx, c, fmt.Sprintf("/groups/%d/projects", groupID), nil)
	if err != nil {
		return nil, fmt.Errorf("list projects of group %d: %w", groupID, err)
	}

	projects := make([]model.Project, 0, len(payloads))
	for _, p := range payloads {
		projects = append(projects, *p.toModel())
	}
	return projects, nil
}

// ListProjectMergeRequests implements gitlabapi.Client.
func (c *Client) ListProjectMergeRequests(ctx context.Context, projectID int) ([]model.RawMergeRequest, error) {
	query := url.Values{"order_by": {"created_at"}, "sort": {"desc"}}
	payloads, err := getList[mergeRequestPayload](ctx, c, fmt.Sprintf("/projects/%d/merge_requests", projectID), query)
	if err != nil {
		return nil, fmt.Errorf("list merge requests of project %d: %w", projectID, err)
	}

	mrs := make([]model.RawMergeRequest, 0, len(payloads))
	for _, p := range payloads {
		mrs = append(mrs, p.toModel())
	}
	return mrs, nil
}

// GetMergeRequest implements gitlabapi.Client. v3 has no iid-addressed
// endpoint, so the list endpoint is filtered by iid.
func (c *Client) GetMergeRequest(ctx context.Context, projectID, mergeRequestIID int) (*model.RawMergeRequest, error) {
	var payloads []mergeRequestPayload
	query := url.Values{"iid": {strconv.Itoa(mergeRequestIID)}}
	if _, err := c.do(ctx, fmt.Sprintf("/projects/%d/merge_requests", projectID), query, &payloads); err != nil {
		return nil, fmt.Errorf("get merge request %d!%d: %w", projectID, mergeRequestIID, err)
	}
	if len(payloads) == 0 {
		return nil, fmt.Errorf("get merge request %d!%d: %w", projectID, mergeRequestIID,
			&gitlabapi.APIError{StatusCode: http.StatusNotFound, Message: "404 Merge Request Not Found"})
	}
	raw := payloads[0].toModel()
	return &raw, nil
}

// MergeRequestNotes implements gitlabapi.Client.
func (c *Client) MergeRequestNotes(ctx context.Context, mr model.RawMergeRequest) ([]model.Note, error) {
	payloads, err := getList[notePayload](ctx, c, mergeRequestPath(mr, "notes"), nil)
	if err != nil {
		return nil, fmt.Errorf("list notes of merge request %d: %w", mr.ID, err)
	}

	notes := make([]model.Note, 0, len(payloads))
	for _, p := range payloads {
		notes = append(notes, p.toModel())
	}
	return notes, nil
}

// MergeRequestChanges implements gitlabapi.Client.
func (c *Client) MergeRequestChanges(ctx context.Context, mr model.RawMergeRequest) ([]model.FileDiff, error) {
	var payload changesPayload
	if err := c.get(ctx, mergeRequestPath(mr, "changes"), &payload); err != nil {
		return nil, fmt.Errorf("get changes of merge request %d: %w", mr.ID, err)
	}

	diffs := make([]model.FileDiff, 0, len(payload.Changes))
	for _, d := range payload.Changes {
		diffs = append(diffs, d.toModel())
	}
	return diffs, nil
}

// MergeRequestApprovals implements gitlabapi.Client.
func (c *Client) MergeRequestApprovals(ctx context.Context, mr model.RawMergeRequest) ([]model.Identity, error) {
	var payload approvalsPayload
	if err := c.get(ctx, mergeRequestPath(mr, "approvals"), &payload); err != nil {
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
	payloads, err := getList[commitPayload](ctx, c, mergeRequestPath(mr, "commits"), nil)
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
	var payload commitPayload
	err := c.get(ctx, fmt.Sprintf("/projects/%d/repository/commits/%s", projectID, url.PathEscape(sha)), &payload)
	if errors.Is(err, gitlabapi.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find commit %s in project %d: %w", sha, projectID, err)
	}
	if payload.ID == "" {
		return nil, nil
	}
	return payload.toModel(projectID), nil
}

// CommitDiff implements gitlabapi.Client.
func (c *Client) CommitDiff(ctx context.Context, projectID int, sha string) ([]model.FileDiff, error) {
	var payloads []diffPayload
	if err := c.get(ctx, fmt.Sprintf("/projects/%d/repository/commits/%s/diff", projectID, url.PathEscape(sha)), &payloads); err != nil {
		return nil, fmt.Errorf("get diff of commit %s: %w", sha, err)
	}

	diffs := make([]model.FileDiff, 0, len(payloads))
	for _, d := range payloads {
		diffs = append(diffs, d.toModel())
	}
	return diffs, nil
}

// FindEvents implements gitlabapi.Client. v3 cannot filter events
// server-side, so every page is scanned.
func (c *Client) FindEvents(ctx context.Context, projectID int, action string) ([]model.Event, error) {
	payloads, err := getList[eventPayload](ctx, c, fmt.Sprintf("/projects/%d/events", projectID), nil)
	if err != nil {
		return nil, fmt.Errorf("list events of project %d: %w", projectID, err)
	}

	events := []model.Event{}
	for _, p := range payloads {
		if p.ActionName == action {
			events = append(events, p.toModel())
		}
	}
	return events, nil
}

// SanityCheck implements gitlabapi.Client.
func (c *Client) SanityCheck(ctx context.Context) error {
	var user userPayload
	if err := c.get(ctx, "/user", &user); err != nil {
		return fmt.Errorf("gitlab sanity check: %w", err)
	}
	return nil
}

func mergeRequestPath(mr model.RawMergeRequest, resource string) string {
	return fmt.Sprintf("/projects/%d/merge_requests/%d/%s", mr.ProjectID, mr.ID, resource)
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	_, err := c.do(ctx, path, nil, result)
	return err
}

func getList[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	items := []T{}
	page := 1
	for {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(c.perPage))

		var batch []T
		next, err := c.do(ctx, path, q, &batch)
		if err != nil {
			return nil, err
		}
		items = append(items, batch...)

		if next == 0 {
			return items, nil
		}
		page = next
	}
}

// do performs one GET under the retry policy and decodes the body into
// result. It returns the X-Next-Page value, or 0 on the last page.
func (c *Client) do(ctx context.Context, path string, query url.Values, result interface{}) (int, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	return retry.DoWithResult(ctx, c.retry, func() (int, error) {
		return c.doOnce(ctx, endpoint, result)
	})
}

func (c *Client) doOnce(ctx context.Context, endpoint string, result interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("PRIVATE-TOKEN", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &gitlabapi.APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return 0, fmt.Errorf("%w: %v", gitlabapi.ErrUnexpectedPayload, err)
	}

	next, _ := strconv.Atoi(resp.Header.Get("X-Next-Page"))
	return next, nil
}

// errorMessage extracts the "message" (or "error") field GitLab puts in
// error bodies, falling back to the raw text.
func errorMessage(body []byte) string {
	var payload struct {
		Message interface{} `json:"message"`
		Error   string      `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if s, ok := payload.Message.(string); ok && s != "" {
			return s
		}
		if payload.Message != nil {
			return fmt.Sprint(payload.Message)
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(body))
}
