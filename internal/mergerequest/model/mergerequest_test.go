package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawFixture() RawMergeRequest {
	merged := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	return RawMergeRequest{
		ID:              101,
		IID:             7,
		TargetProjectID: 1,
		SourceProjectID: 2,
		Title:           "Add feature",
		State:           "merged",
		CreatedAt:       time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2024, 3, 2, 11, 0, 0, 0, time.UTC),
		MergedAt:        &merged,
		SourceBranch:    "feature",
		TargetBranch:    "main",
		SHA:             "abc123",
		Author:          Identity{ID: 5, Username: "alice"},
		Schema:          SchemaV4,
	}
}

func TestNewMergeRequest(t *testing.T) {
	raw := rawFixture()

	mr := NewMergeRequest(raw)

	assert.Equal(t, 101, mr.ID)
	assert.Equal(t, "main", mr.BaseBranch)
	assert.Equal(t, "feature", mr.HeadBranch)
	assert.Equal(t, "2024-03-01T09:30:00Z", mr.CreatedAt)
	assert.Equal(t, "2024-03-02T11:00:00Z", mr.UpdatedAt)
	assert.Equal(t, raw.UpdatedAt, mr.UpdatedAtDT)
	assert.True(t, mr.IsFork)
	assert.Equal(t, MergeMetadataNative, mr.MergeMetadata)
	require.NotNil(t, mr.MergeDate)
	assert.Equal(t, *raw.MergedAt, *mr.MergeDate)
	assert.NotSame(t, raw.MergedAt, mr.MergeDate)
	assert.Nil(t, mr.ClosedAt)
	assert.Nil(t, mr.CommitDiffs)
	assert.False(t, mr.IsDegraded())
}

func TestMergeRequest_JSONAlwaysCarriesSubResources(t *testing.T) {
	mr := NewMergeRequest(rawFixture())

	data, err := json.Marshal(mr)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, []interface{}{}, decoded["note_list"])
	assert.Equal(t, []interface{}{}, decoded["approved_by"])
	assert.Equal(t, []interface{}{}, decoded["commit_list"])
	assert.Equal(t, "", decoded["diff"])
	assert.Nil(t, decoded["commit_diffs"])
	assert.Contains(t, decoded, "updated_at_dt")
	assert.NotContains(t, decoded, "Source")
	assert.NotContains(t, decoded, "degraded")
}

func TestMergeRequest_Clone(t *testing.T) {
	mr := NewMergeRequest(rawFixture())
	mr.NoteList = append(mr.NoteList, Note{ID: 1})
	mr.CommitDiffs = [][]string{{"+a"}}
	mr.TargetProject = &Project{ID: 1}

	c := mr.Clone()
	c.NoteList[0].Body = "changed"
	c.CommitDiffs[0][0] = "-b"
	c.MarkDegraded(FieldNotes)

	assert.Equal(t, "", mr.NoteList[0].Body)
	assert.Equal(t, "+a", mr.CommitDiffs[0][0])
	assert.False(t, mr.IsDegraded())
	assert.Same(t, mr.TargetProject, c.TargetProject)
}

func TestMergeRequest_MarkDegraded(t *testing.T) {
	mr := NewMergeRequest(rawFixture())

	mr.MarkDegraded(FieldDiff)
	mr.MarkDegraded(FieldDiff)
	mr.MarkDegraded(FieldApprovals)

	assert.Equal(t, []string{FieldDiff, FieldApprovals}, mr.Degraded)
	assert.True(t, mr.IsDegraded())
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "", FormatTimestamp(time.Time{}))

	loc := time.FixedZone("UTC+3", 3*60*60)
	assert.Equal(t, "2024-01-02T03:04:05+03:00", FormatTimestamp(time.Date(2024, 1, 2, 3, 4, 5, 0, loc)))
}
