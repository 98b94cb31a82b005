// Package normalize rewrites records that came from the GitLab v3 API into
// the v4 shape consumers expect.
package normalize

import (
	"context"

	"github.com/festy23/gitlab_enricher/internal/mergerequest/model"
)

// Record is one of MergeRequestRecord, CommitRecord, CommentRecord or
// UserRecord. The set is closed: normalize is unexported.
type Record interface {
	normalize(ctx context.Context, n *Normalizer) (Record, error)
}

// MergeRequestRecord wraps an enriched merge request.
type MergeRequestRecord struct {
	MergeRequest *model.MergeRequest
}

// CommitRecord wraps a materialized commit.
type CommitRecord struct {
	Commit model.Commit
}

// CommentRecord wraps a merge request note.
type CommentRecord struct {
	Note model.Note
}

// UserRecord wraps a user identity.
type UserRecord struct {
	Identity model.Identity
}

func (r UserRecord) normalize(context.Context, *Normalizer) (Record, error) {
	return UserRecord{Identity: normalizeIdentity(r.Identity)}, nil
}

func (r CommentRecord) normalize(context.Context, *Normalizer) (Record, error) {
	note := r.Note
	note.Author = normalizeIdentity(note.Author)
	return CommentRecord{Note: note}, nil
}

func (r CommitRecord) normalize(context.Context, *Normalizer) (Record, error) {
	return CommitRecord{Commit: normalizeCommit(r.Commit)}, nil
}

func (r MergeRequestRecord) normalize(ctx context.Context, n *Normalizer) (Record, error) {
	mr, err := n.normalizeMergeRequest(ctx, r.MergeRequest)
	if err != nil {
		return nil, err
	}
	return MergeRequestRecord{MergeRequest: mr}, nil
}

// normalizeIdentity fills whichever of name and username v3 left empty.
func normalizeIdentity(id model.Identity) model.Identity {
	if id.Name == "" {
		id.Name = id.Username
	}
	if id.Username == "" {
		id.Username = id.Name
	}
	return id
}

const shortIDLength = 8

// normalizeCommit back-fills the fields v3 commits may lack.
func normalizeCommit(c model.Commit) model.Commit {
	if c.ShortID == "" {
		c.ShortID = c.ID
		if len(c.ShortID) > shortIDLength {
			c.ShortID = c.ShortID[:shortIDLength]
		}
	}
	if c.Title == "" {
		c.Title = firstLine(c.Message)
	}
	if c.AuthoredAt.IsZero() {
		c.AuthoredAt = c.CreatedAt
	}
	return c
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' || s[i] == '\r' {
			return s[:i]
		}
	}
	return s
}
