// Package model provides the entities of the merge request enrichment pipeline.
package model

import "time"

// SchemaVersion identifies the GitLab API generation a record came from.
type SchemaVersion string

const (
	// SchemaV3 is the legacy /api/v3 layout.
	SchemaV3 SchemaVersion = "v3"
	// SchemaV4 is the /api/v4 layout consumers expect.
	SchemaV4 SchemaVersion = "v4"
)

// Identity is a GitLab user as seen by authors, approvers and event actors.
type Identity struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	State    string `json:"state,omitempty"`
}

// Group is a GitLab group (namespace of kind "group").
type Group struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	FullPath string `json:"full_path,omitempty"`
}

// Project is a GitLab project looked up by id.
type Project struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	Path              string `json:"path"`
	PathWithNamespace string `json:"path_with_namespace"`
	WebURL            string `json:"web_url,omitempty"`
	DefaultBranch     string `json:"default_branch,omitempty"`
	GroupID           int    `json:"group_id,omitempty"`
	GroupName         string `json:"group_name,omitempty"`
	// ForkedFromID is zero unless the project is a fork.
	ForkedFromID int `json:"forked_from_id,omitempty"`
}

// Note is a merge request comment.
type Note struct {
	ID        int       `json:"id"`
	Body      string    `json:"body"`
	Author    Identity  `json:"author"`
	System    bool      `json:"system"`
	CreatedAt time.Time `json:"created_at"`
}

// CommitRef is the id-only commit reference attached to a merge request.
type CommitRef struct {
	ID string `json:"id"`
}

// Commit is a fully materialized commit.
type Commit struct {
	ID          string    `json:"id"`
	ShortID     string    `json:"short_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
	AuthoredAt  time.Time `json:"authored_date"`
	CreatedAt   time.Time `json:"created_at"`
	ProjectID   int       `json:"project_id"`
}

// FileDiff is the patch text of one file.
type FileDiff struct {
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
	Diff    string `json:"diff"`
}

// Event is a project audit-log entry.
type Event struct {
	ID          int       `json:"id"`
	ProjectID   int       `json:"project_id"`
	ActionName  string    `json:"action_name"`
	CheckoutSHA string    `json:"checkout_sha"`
	Ref         string    `json:"ref,omitempty"`
	Author      Identity  `json:"author"`
	CreatedAt   time.Time `json:"created_at"`
}
