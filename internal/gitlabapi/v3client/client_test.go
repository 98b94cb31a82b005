package v3client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/festy23/gitlab_enricher/internal/config"
	"github.com/festy23/gitlab_enricher/internal/gitlabapi"
	"github.com/festy23/gitlab_enricher/internal/mergerequest/model"
	"github.com/festy23/gitlab_enricher/pkg/retry"
)

func testConfig(url string) config.GitLabConfig {
	return config.GitLabConfig{
		URL:               url,
		Token:             "secret",
		APIVersion:        config.APIVersionV3,
		Timeout:           5 * time.Second,
		SSLVerify:         true,
		PerPage:           2,
		RetryMaxAttempts:  3,
		RetryInitialDelay: time.Millisecond,
		RetryMaxDelay:     5 * time.Millisecond,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(testConfig(srv.URL))
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

type failingTransport struct {
	calls int32
}

func (f *failingTransport) Do(*http.Request) (*http.Response, error) {
	atomic.AddInt32(&f.calls, 1)
	return nil, &timeoutError{}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClient_FindProject(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("PRIVATE-TOKEN"))
		switch r.URL.Path {
		case "/api/v3/projects/1":
			writeJSON(w, http.StatusOK, `{"id": 1, "name": "api", "namespace": {"id": 4, "name": "core", "kind": "group"}}`)
		default:
			writeJSON(w, http.StatusNotFound, `{"message": "404 Project Not Found"}`)
		}
	})

	assert.Equal(t, model.SchemaV3, client.SchemaVersion())

	project, err := client.FindProject(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "api", project.Name)
	assert.Equal(t, 4, project.GroupID)

	_, err = client.FindProject(context.Background(), 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, gitlabapi.ErrNotFound)

	var apiErr *gitlabapi.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "404 Project Not Found", apiErr.Message)
}

func TestClient_TransportFailureExhaustsRetries(t *testing.T) {
	transport := &failingTransport{}
	client := NewWithHTTPClient(testConfig("https://gitlab.example.com"), transport)

	_, err := client.MergeRequestNotes(context.Background(), model.RawMergeRequest{ID: 55, ProjectID: 1})
	require.Error(t, err)
	assert.True(t, retry.IsExhausted(err))
	assert.True(t, gitlabapi.IsRecoverable(err))
	assert.EqualValues(t, 3, atomic.LoadInt32(&transport.calls))
}

func TestClient_ListProjectMergeRequests_Paginates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/projects/1/merge_requests", r.URL.Path)
		assert.Equal(t, "desc", r.URL.Query().Get("sort"))
		switch r.URL.Query().Get("page") {
		case "1":
			w.Header().Set("X-Next-Page", "2")
			writeJSON(w, http.StatusOK, `[
				{"id": 11, "iid": 3, "project_id": 1, "target_project_id": 1, "source_project_id": 1,
				 "created_at": "2016-01-04T15:31:51.081Z", "updated_at": "2016-01-05T10:00:00.000Z",
				 "source_branch": "fix", "target_branch": "master", "state": "merged"},
				{"id": 10, "iid": 2, "project_id": 1, "target_project_id": 1, "source_project_id": 1}
			]`)
		case "2":
			w.Header().Set("X-Next-Page", "")
			writeJSON(w, http.StatusOK, `[{"id": 9, "iid": 1, "project_id": 1}]`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})

	mrs, err := client.ListProjectMergeRequests(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, mrs, 3)

	first := mrs[0]
	assert.Equal(t, 11, first.ID)
	assert.Equal(t, model.SchemaV3, first.Schema)
	assert.Equal(t, "master", first.TargetBranch)
	assert.Nil(t, first.MergedAt)
	assert.Equal(t, 2016, first.CreatedAt.Year())
	assert.Equal(t, 9, mrs[2].ID)
	assert.Equal(t, 1, mrs[2].ProjectID)
}

func TestClient_GetMergeRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("iid") {
		case "3":
			writeJSON(w, http.StatusOK, `[{"id": 11, "iid": 3, "project_id": 1}]`)
		default:
			writeJSON(w, http.StatusOK, `[]`)
		}
	})

	mr, err := client.GetMergeRequest(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 11, mr.ID)

	_, err = client.GetMergeRequest(context.Background(), 1, 4)
	assert.ErrorIs(t, err, gitlabapi.ErrNotFound)
}

func TestClient_SubResourcesUseGlobalID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/projects/1/merge_requests/11/notes":
			writeJSON(w, http.StatusOK, `[{"id": 1, "body": "lgtm", "author": {"username": "bob"}}]`)
		case "/api/v3/projects/1/merge_requests/11/changes":
			writeJSON(w, http.StatusOK, `{"changes": [{"new_path": "a.rb", "diff": "+a"}]}`)
		case "/api/v3/projects/1/merge_requests/11/approvals":
			writeJSON(w, http.StatusOK, `{"approved_by": []}`)
		case "/api/v3/projects/1/merge_requests/11/commits":
			writeJSON(w, http.StatusOK, `[{"id": "c1", "title": "x"}]`)
		default:
			writeJSON(w, http.StatusNotFound, `{"message": "404 Not found"}`)
		}
	})

	mr := model.RawMergeRequest{ID: 11, IID: 3, ProjectID: 1}
	ctx := context.Background()

	notes, err := client.MergeRequestNotes(ctx, mr)
	require.NoError(t, err)
	assert.Equal(t, "bob", notes[0].Author.Username)

	changes, err := client.MergeRequestChanges(ctx, mr)
	require.NoError(t, err)
	assert.Equal(t, "+a", changes[0].Diff)

	approvers, err := client.MergeRequestApprovals(ctx, mr)
	require.NoError(t, err)
	assert.Empty(t, approvers)

	refs, err := client.MergeRequestCommits(ctx, mr)
	require.NoError(t, err)
	assert.Equal(t, []model.CommitRef{{ID: "c1"}}, refs)
}

func TestClient_UnexpectedPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"approved_by": "nobody"}`)
	})

	_, err := client.MergeRequestApprovals(context.Background(), model.RawMergeRequest{ID: 1, ProjectID: 1})
	assert.ErrorIs(t, err, gitlabapi.ErrUnexpectedPayload)
	assert.False(t, gitlabapi.IsRecoverable(err))
}

func TestClient_FindCommit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/projects/2/repository/commits/c1":
			writeJSON(w, http.StatusOK, `{"id": "c1", "short_id": "c1", "title": "Fix", "created_at": "2016-01-04T15:31:51.081Z"}`)
		case "/api/v3/projects/2/repository/commits/c1/diff":
			writeJSON(w, http.StatusOK, `[{"new_path": "a.rb", "diff": "+a\n+b"}]`)
		default:
			writeJSON(w, http.StatusNotFound, `{"message": "404 Commit Not Found"}`)
		}
	})

	commit, err := client.FindCommit(context.Background(), 2, "c1")
	require.NoError(t, err)
	require.NotNil(t, commit)
	assert.Equal(t, 2, commit.ProjectID)

	missing, err := client.FindCommit(context.Background(), 2, "gone")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	diffs, err := client.CommitDiff(context.Background(), 2, "c1")
	require.NoError(t, err)
	assert.Equal(t, []model.FileDiff{{NewPath: "a.rb", Diff: "+a\n+b"}}, diffs)
}

func TestClient_FindEvents(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/projects/1/events", r.URL.Path)
		writeJSON(w, http.StatusOK, `[
			{"action_name": "commented on", "data": null},
			{"action_name": "pushed to", "data": {"checkout_sha": "abc", "ref": "refs/heads/master"},
			 "author": {"name": "Dave", "username": "dave"}, "created_at": "2016-01-05T09:00:00.000Z"}
		]`)
	})

	events, err := client.FindEvents(context.Background(), 1, "pushed to")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "abc", events[0].CheckoutSHA)
	assert.Equal(t, "dave", events[0].Author.Username)
}

func TestClient_SanityCheck(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/user", r.URL.Path)
		writeJSON(w, http.StatusForbidden, `{"error": "insufficient_scope"}`)
	})

	err := client.SanityCheck(context.Background())
	require.Error(t, err)
	assert.Equal(t, 403, gitlabapi.StatusCode(err))
	assert.Contains(t, err.Error(), "insufficient_scope")
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "404 Not found", errorMessage([]byte(`{"message": "404 Not found"}`)))
	assert.Equal(t, "map[title:[is too long]]", errorMessage([]byte(`{"message": {"title": ["is too long"]}}`)))
	assert.Equal(t, "invalid_token", errorMessage([]byte(`{"error": "invalid_token"}`)))
	assert.Equal(t, "Bad Gateway", errorMessage([]byte("Bad Gateway\n")))
}
