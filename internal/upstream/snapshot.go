package upstream

import (
	"context"
	"encoding/json"
	"time"
)

// Snapshot is the raw content of every collection read for one report.
// It also serves as a Source, so a captured snapshot can be replayed offline.
type Snapshot struct {
	CapturedAt  time.Time                    `json:"captured_at"`
	Collections map[string][]json.RawMessage `json:"collections"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		CapturedAt:  time.Now().UTC(),
		Collections: make(map[string][]json.RawMessage),
	}
}

// Rows returns the raw records of a collection.
func (s *Snapshot) Rows(collection string) []json.RawMessage {
	if s == nil {
		return nil
	}
	return s.Collections[collection]
}

// FetchAllPages returns the stored rows; filters and paging are not applied.
func (s *Snapshot) FetchAllPages(_ context.Context, q Query) ([]json.RawMessage, error) {
	return s.copyRows(q.Collection), nil
}

func (s *Snapshot) FetchAll(_ context.Context, q Query) ([]json.RawMessage, error) {
	return s.copyRows(q.Collection), nil
}

func (s *Snapshot) copyRows(collection string) []json.RawMessage {
	rows := s.Rows(collection)
	out := make([]json.RawMessage, len(rows))
	copy(out, rows)
	return out
}

var _ Source = (*Snapshot)(nil)
