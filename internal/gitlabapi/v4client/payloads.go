package v4client

import (
	"time"

	"github.com/xanzy/go-gitlab"

	"github.com/festy23/gitlab_enricher/internal/mergerequest/model"
)

// go-gitlab's merge request types change shape between releases, so the
// merge request endpoints decode into these local payloads instead.

type userPayload struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	State    string `json:"state"`
}

type mergeRequestPayload struct {
	ID              int         `json:"id"`
	IID             int         `json:"iid"`
	ProjectID       int         `json:"project_id"`
	TargetProjectID int         `json:"target_project_id"`
	SourceProjectID int         `json:"source_project_id"`
	Title           string      `json:"title"`
	State           string      `json:"state"`
	CreatedAt       *time.Time  `json:"created_at"`
	UpdatedAt       *time.Time  `json:"updated_at"`
	ClosedAt        *time.Time  `json:"closed_at"`
	MergedAt        *time.Time  `json:"merged_at"`
	SourceBranch    string      `json:"source_branch"`
	TargetBranch    string      `json:"target_branch"`
	SHA             string      `json:"sha"`
	Author          userPayload `json:"author"`
}

type changesPayload struct {
	Changes []struct {
		OldPath string `json:"old_path"`
		NewPath string `json:"new_path"`
		Diff    string `json:"diff"`
	} `json:"changes"`
}

type approvalsPayload struct {
	ApprovedBy []struct {
		User userPayload `json:"user"`
	} `json:"approved_by"`
}

type commitRefPayload struct {
	ID string `json:"id"`
}

type eventPayload struct {
	ID         int         `json:"id"`
	ProjectID  int         `json:"project_id"`
	ActionName string      `json:"action_name"`
	Author     userPayload `json:"author"`
	CreatedAt  *time.Time  `json:"created_at"`
	PushData   struct {
		CommitTo string `json:"commit_to"`
		Ref      string `json:"ref"`
	} `json:"push_data"`
}

// listOptions are the query parameters of the paginated raw endpoints.
type listOptions struct {
	Page    int    `url:"page,omitempty"`
	PerPage int    `url:"per_page,omitempty"`
	OrderBy string `url:"order_by,omitempty"`
	Sort    string `url:"sort,omitempty"`
	Action  string `url:"action,omitempty"`
}

func (u userPayload) toModel() model.Identity {
	return model.Identity{ID: u.ID, Username: u.Username, Name: u.Name, Email: u.Email, State: u.State}
}

func (p mergeRequestPayload) toModel() model.RawMergeRequest {
	projectID := p.ProjectID
	if projectID == 0 {
		projectID = p.TargetProjectID
	}
	return model.RawMergeRequest{
		ID:              p.ID,
		IID:             p.IID,
		ProjectID:       projectID,
		TargetProjectID: p.TargetProjectID,
		SourceProjectID: p.SourceProjectID,
		Title:           p.Title,
		State:           p.State,
		CreatedAt:       valueOf(p.CreatedAt),
		UpdatedAt:       valueOf(p.UpdatedAt),
		ClosedAt:        p.ClosedAt,
		MergedAt:        p.MergedAt,
		SourceBranch:    p.SourceBranch,
		TargetBranch:    p.TargetBranch,
		SHA:             p.SHA,
		Author:          p.Author.toModel(),
		Schema:          model.SchemaV4,
	}
}

func (e eventPayload) toModel() model.Event {
	return model.Event{
		ID:          e.ID,
		ProjectID:   e.ProjectID,
		ActionName:  e.ActionName,
		CheckoutSHA: e.PushData.CommitTo,
		Ref:         e.PushData.Ref,
		Author:      e.Author.toModel(),
		CreatedAt:   valueOf(e.CreatedAt),
	}
}

func projectToModel(p *gitlab.Project) *model.Project {
	project := &model.Project{
		ID:                p.ID,
		Name:              p.Name,
		Path:              p.Path,
		PathWithNamespace: p.PathWithNamespace,
		WebURL:            p.WebURL,
		DefaultBranch:     p.DefaultBranch,
	}
	if p.Namespace != nil && p.Namespace.Kind == "group" {
		project.GroupID = p.Namespace.ID
		project.GroupName = p.Namespace.Name
	}
	if p.ForkedFromProject != nil {
		project.ForkedFromID = p.ForkedFromProject.ID
	}
	return project
}

func noteToModel(n *gitlab.Note) model.Note {
	return model.Note{
		ID:   n.ID,
		Body: n.Body,
		Author: model.Identity{
			ID:       n.Author.ID,
			Username: n.Author.Username,
			Name:     n.Author.Name,
			Email:    n.Author.Email,
			State:    n.Author.State,
		},
		System:    n.System,
		CreatedAt: valueOf(n.CreatedAt),
	}
}

func commitToModel(c *gitlab.Commit) *model.Commit {
	return &model.Commit{
		ID:          c.ID,
		ShortID:     c.ShortID,
		Title:       c.Title,
		Message:     c.Message,
		AuthorName:  c.AuthorName,
		AuthorEmail: c.AuthorEmail,
		AuthoredAt:  valueOf(c.AuthoredDate),
		CreatedAt:   valueOf(c.CreatedAt),
		ProjectID:   c.ProjectID,
	}
}

func valueOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
