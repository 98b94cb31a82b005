package v3client

import (
	"time"

	"github.com/festy23/gitlab_enricher/internal/mergerequest/model"
)

type userPayload struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	State    string `json:"state"`
}

type namespacePayload struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
	Kind string `json:"kind"`
}

type projectPayload struct {
	ID                int               `json:"id"`
	Name              string            `json:"name"`
	Path              string            `json:"path"`
	PathWithNamespace string            `json:"path_with_namespace"`
	WebURL            string            `json:"web_url"`
	DefaultBranch     string            `json:"default_branch"`
	Namespace         *namespacePayload `json:"namespace"`
	ForkedFromProject *struct {
		ID int `json:"id"`
	} `json:"forked_from_project"`
}

type groupPayload struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	FullPath string `json:"full_path"`
}

// mergeRequestPayload is the v3 merge request. v3 has no merged_at or
// closed_at; those are recovered from project events downstream.
type mergeRequestPayload struct {
	ID              int         `json:"id"`
	IID             int         `json:"iid"`
	ProjectID       int         `json:"project_id"`
	TargetProjectID int         `json:"target_project_id"`
	SourceProjectID int         `json:"source_project_id"`
	Title           string      `json:"title"`
	State           string      `json:"state"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	SourceBranch    string      `json:"source_branch"`
	TargetBranch    string      `json:"target_branch"`
	SHA             string      `json:"sha"`
	Author          userPayload `json:"author"`
}

type notePayload struct {
	ID        int         `json:"id"`
	Body      string      `json:"body"`
	Author    userPayload `json:"author"`
	System    bool        `json:"system"`
	CreatedAt time.Time   `json:"created_at"`
}

type diffPayload struct {
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
	Diff    string `json:"diff"`
}

type changesPayload struct {
	Changes []diffPayload `json:"changes"`
}

type approvalsPayload struct {
	ApprovedBy []struct {
		User userPayload `json:"user"`
	} `json:"approved_by"`
}

type commitPayload struct {
	ID          string    `json:"id"`
	ShortID     string    `json:"short_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
	AuthoredAt  time.Time `json:"authored_date"`
	CreatedAt   time.Time `json:"created_at"`
}

type eventPayload struct {
	ProjectID  int         `json:"project_id"`
	ActionName string      `json:"action_name"`
	Author     userPayload `json:"author"`
	CreatedAt  time.Time   `json:"created_at"`
	Data       *struct {
		CheckoutSHA string `json:"checkout_sha"`
		Ref         string `json:"ref"`
	} `json:"data"`
}

func (u userPayload) toModel() model.Identity {
	return model.Identity{ID: u.ID, Username: u.Username, Name: u.Name, Email: u.Email, State: u.State}
}

func (p projectPayload) toModel() *model.Project {
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
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		SourceBranch:    p.SourceBranch,
		TargetBranch:    p.TargetBranch,
		SHA:             p.SHA,
		Author:          p.Author.toModel(),
		Schema:          model.SchemaV3,
	}
}

func (n notePayload) toModel() model.Note {
	return model.Note{ID: n.ID, Body: n.Body, Author: n.Author.toModel(), System: n.System, CreatedAt: n.CreatedAt}
}

func (d diffPayload) toModel() model.FileDiff {
	return model.FileDiff{OldPath: d.OldPath, NewPath: d.NewPath, Diff: d.Diff}
}

func (c commitPayload) toModel(projectID int) *model.Commit {
	return &model.Commit{
		ID:          c.ID,
		ShortID:     c.ShortID,
		Title:       c.Title,
		Message:     c.Message,
		AuthorName:  c.AuthorName,
		AuthorEmail: c.AuthorEmail,
		AuthoredAt:  c.AuthoredAt,
		CreatedAt:   c.CreatedAt,
		ProjectID:   projectID,
	}
}

func (e eventPayload) toModel() model.Event {
	event := model.Event{
		ProjectID:  e.ProjectID,
		ActionName: e.ActionName,
		Author:     e.Author.toModel(),
		CreatedAt:  e.CreatedAt,
	}
	if e.Data != nil {
		event.CheckoutSHA = e.Data.CheckoutSHA
		event.Ref = e.Data.Ref
	}
	return event
}
