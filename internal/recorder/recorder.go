// Package recorder keeps the history of decisions taken in episodes.
package recorder

import (
	"sync"

	"github.com/neotheprogramist/ai-playground/internal/types"
)

// Recorder persists step records.
type Recorder interface {
	Record(record types.StepRecord) error
	Close() error
}

// MemoryRecorder keeps step records in memory. It is safe for concurrent use.
type MemoryRecorder struct {
	records []types.StepRecord
	mu      sync.Mutex
}

// NewMemoryRecorder creates an empty MemoryRecorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{
		records: make([]types.StepRecord, 0),
		mu:      sync.Mutex{},
	}
}

func (r *MemoryRecorder) Record(record types.StepRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, record)

	return nil
}

// Records returns a copy of the recorded steps in insertion order.
func (r *MemoryRecorder) Records() []types.StepRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]types.StepRecord, len(r.records))
	copy(records, r.records)

	return records
}

// EpisodeRecords returns the recorded steps of one episode.
func (r *MemoryRecorder) EpisodeRecords(episodeID string) []types.StepRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]types.StepRecord, 0)

	for _, record := range r.records {
		if record.EpisodeID == episodeID {
			records = append(records, record)
		}
	}

	return records
}

func (r *MemoryRecorder) Close() error {
	return nil
}

// multiRecorder fans records out to several recorders.
type multiRecorder struct {
	recorders []Recorder
}

// Multi returns a Recorder that records to every given recorder in order and
// stops at the first error.
func Multi(recorders ...Recorder) Recorder {
	return &multiRecorder{recorders: recorders}
}

func (m *multiRecorder) Record(record types.StepRecord) error {
	for _, r := range m.recorders {
		if err := r.Record(record); err != nil {
			return err
		}
	}

	return nil
}

func (m *multiRecorder) Close() error {
	var firstErr error

	for _, r := range m.recorders {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
