// Package model provides entities and data transfer objects for the
// enrichment outcome ledger.
package model

import (
	"strings"
	"time"
)

// Status is the result of enriching one merge request.
type Status string

const (
	// StatusEnriched means every part of the record was fetched.
	StatusEnriched Status = "enriched"
	// StatusDegraded means the record was produced with defaulted parts.
	StatusDegraded Status = "degraded"
	// StatusSkipped means the merge request was skipped (its source project is gone).
	StatusSkipped Status = "skipped"
	// StatusFailed means enrichment failed with an unclassified error.
	StatusFailed Status = "failed"
)

// Outcome is one ledger entry. Matches the enrichment_outcomes table schema.
type Outcome struct {
	ID              int64     `gorm:"primaryKey;column:id;autoIncrement"                                json:"id"`
	RunID           string    `gorm:"column:run_id;type:varchar(36);not null;index:idx_outcomes_run_id" json:"run_id"`
	ProjectID       int       `gorm:"column:project_id;not null"                                        json:"project_id"`
	MergeRequestID  int       `gorm:"column:merge_request_id;not null"                                  json:"merge_request_id"`
	MergeRequestIID int       `gorm:"column:merge_request_iid;not null"                                 json:"merge_request_iid"`
	Status          Status    `gorm:"column:status;type:varchar(16);not null"                           json:"status"`
	Degraded        string    `gorm:"column:degraded;type:text;not null;default:''"                     json:"degraded,omitempty"`
	Error           string    `gorm:"column:error;type:text;not null;default:''"                        json:"error,omitempty"`
	RecordedAt      time.Time `gorm:"column:recorded_at;not null"                                       json:"recorded_at"`
}

// TableName specifies the table name for GORM.
func (Outcome) TableName() string {
	return "enrichment_outcomes"
}

// DegradedFields splits the stored degraded field list.
func (o Outcome) DegradedFields() []string {
	if o.Degraded == "" {
		return []string{}
	}
	return strings.Split(o.Degraded, ",")
}

// JoinDegraded is the inverse of DegradedFields.
func JoinDegraded(fields []string) string {
	return strings.Join(fields, ",")
}
