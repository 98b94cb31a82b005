package model

import "time"

// MergeMetadataSource records where MergeDate and ClosedAt came from.
type MergeMetadataSource string

const (
	// MergeMetadataNative means the API reported the timestamps directly.
	MergeMetadataNative MergeMetadataSource = "native"
	// MergeMetadataEvent means they were recovered from a correlated project event.
	MergeMetadataEvent MergeMetadataSource = "event"
	// MergeMetadataMissing means no source could be found; the record is degraded.
	MergeMetadataMissing MergeMetadataSource = "missing"
)

// Names of the record parts that can fall back to a default.
const (
	FieldNotes      = "note_list"
	FieldDiff       = "diff"
	FieldApprovals  = "approved_by"
	FieldCommits    = "commit_list"
	FieldMergeEvent = "merge_event"
)

// RawMergeRequest is a merge request as returned by a list endpoint.
type RawMergeRequest struct {
	ID              int
	IID             int
	ProjectID       int
	TargetProjectID int
	SourceProjectID int
	Title           string
	State           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ClosedAt        *time.Time
	MergedAt        *time.Time
	SourceBranch    string
	TargetBranch    string
	SHA             string
	Author          Identity
	Schema          SchemaVersion
}

// MergeRequest is the enriched record handed to downstream consumers. It has
// the same shape whichever API generation produced the raw record.
type MergeRequest struct {
	ID              int           `json:"id"`
	IID             int           `json:"iid"`
	Title           string        `json:"title"`
	State           string        `json:"state"`
	SchemaVersion   SchemaVersion `json:"schema_version"`
	Author          Identity      `json:"author"`
	TargetProjectID int           `json:"target_project_id"`
	SourceProjectID int           `json:"source_project_id"`
	TargetProject   *Project      `json:"target_project"`
	SourceProject   *Project      `json:"source_project"`
	IsFork          bool          `json:"is_fork"`
	BaseBranch      string        `json:"base_branch"`
	HeadBranch      string        `json:"head_branch"`
	HeadSHA         string        `json:"head_sha"`
	CreatedAt       string        `json:"created_at"`
	UpdatedAt       string        `json:"updated_at"`
	// UpdatedAtDT keeps the parsed timestamp for ordering without re-parsing.
	UpdatedAtDT   time.Time           `json:"updated_at_dt"`
	MergeDate     *time.Time          `json:"merge_date"`
	ClosedAt      *time.Time          `json:"closed_at"`
	MergeMetadata MergeMetadataSource `json:"merge_metadata"`
	ApprovedBy    []Identity          `json:"approved_by"`
	NoteList      []Note              `json:"note_list"`
	Diff          string              `json:"diff"`
	// CommitDiffs holds one flattened list of diff lines per commit. Nil means
	// the diff could not be determined, which is not the same as no changes.
	CommitDiffs [][]string `json:"commit_diffs"`
	CommitList  []Commit   `json:"commit_list"`
	// Degraded lists the parts that fell back to a default value.
	Degraded []string `json:"degraded,omitempty"`

	// Source is the raw record this one was built from.
	Source RawMergeRequest `json:"-"`
}

// NewMergeRequest starts an enriched record from raw list-endpoint fields.
// Sub-resource fields are initialized empty, never nil.
func NewMergeRequest(raw RawMergeRequest) *MergeRequest {
	mr := &MergeRequest{
		ID:              raw.ID,
		IID:             raw.IID,
		Title:           raw.Title,
		State:           raw.State,
		SchemaVersion:   raw.Schema,
		Author:          raw.Author,
		TargetProjectID: raw.TargetProjectID,
		SourceProjectID: raw.SourceProjectID,
		IsFork:          raw.TargetProjectID != raw.SourceProjectID,
		BaseBranch:      raw.TargetBranch,
		HeadBranch:      raw.SourceBranch,
		HeadSHA:         raw.SHA,
		CreatedAt:       FormatTimestamp(raw.CreatedAt),
		UpdatedAt:       FormatTimestamp(raw.UpdatedAt),
		UpdatedAtDT:     raw.UpdatedAt,
		MergeDate:       copyTime(raw.MergedAt),
		ClosedAt:        copyTime(raw.ClosedAt),
		MergeMetadata:   MergeMetadataNative,
		ApprovedBy:      []Identity{},
		NoteList:        []Note{},
		CommitList:      []Commit{},
		Source:          raw,
	}
	return mr
}

// Clone returns a copy whose slices can be modified without touching m.
// Projects are shared: they are read-only once resolved.
func (m *MergeRequest) Clone() *MergeRequest {
	c := *m
	c.ApprovedBy = append([]Identity{}, m.ApprovedBy...)
	c.NoteList = append([]Note{}, m.NoteList...)
	c.CommitList = append([]Commit{}, m.CommitList...)
	if m.CommitDiffs != nil {
		c.CommitDiffs = make([][]string, len(m.CommitDiffs))
		for i, lines := range m.CommitDiffs {
			c.CommitDiffs[i] = append([]string{}, lines...)
		}
	}
	if m.Degraded != nil {
		c.Degraded = append([]string{}, m.Degraded...)
	}
	c.MergeDate = copyTime(m.MergeDate)
	c.ClosedAt = copyTime(m.ClosedAt)
	return &c
}

// MarkDegraded records that field fell back to its default. Repeated marks
// are ignored.
func (m *MergeRequest) MarkDegraded(field string) {
	for _, f := range m.Degraded {
		if f == field {
			return
		}
	}
	m.Degraded = append(m.Degraded, field)
}

// IsDegraded reports whether any part of the record fell back to a default.
func (m *MergeRequest) IsDegraded() bool {
	return len(m.Degraded) > 0
}

// FormatTimestamp renders t as ISO-8601 (RFC 3339) text. The zero time
// renders as an empty string.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
