package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/festy23/gitlab_enricher/internal/mergerequest/model"
)

// Sink receives enriched merge requests.
type Sink interface {
	Write(mr *model.MergeRequest) error
}

// JSONLinesSink writes one JSON document per line.
type JSONLinesSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLinesSink creates a sink writing to w.
func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return &JSONLinesSink{enc: json.NewEncoder(w)}
}

// Write encodes mr as a single line.
func (s *JSONLinesSink) Write(mr *model.MergeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enc.Encode(mr); err != nil {
		return fmt.Errorf("failed to write merge request %d: %w", mr.ID, err)
	}
	return nil
}

// DiscardSink drops every record.
type DiscardSink struct{}

// Write implements Sink.
func (DiscardSink) Write(*model.MergeRequest) error { return nil }
