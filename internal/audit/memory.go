package audit

import (
	"context"
	"sync"
)

// MemorySink collects audit records in memory for tests and for running
// without a database in development.
type MemorySink struct {
	mu      sync.RWMutex
	records []Record
	fail    error
}

// NewMemorySink constructs an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append stores the record, or returns the injected failure.
func (s *MemorySink) Append(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.records = append(s.records, record)
	return nil
}

// Records returns a copy of everything appended so far.
func (s *MemorySink) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// FailWith makes subsequent appends return err. Pass nil to restore service.
func (s *MemorySink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}
