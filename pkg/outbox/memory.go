package outbox

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the outbox for the in-memory repositories: dev mode and
// unit tests. Append is what those repositories call inside their "save"
// path; the relay side mirrors the SQL store's lease semantics.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// Append records a pending event.
func (s *MemoryStore) Append(aggregateType, aggregateID, eventType string, payload []byte, traceparent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, Event{
		ID:            s.nextID,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Type:          eventType,
		Payload:       payload,
		Traceparent:   traceparent,
		CreatedAt:     time.Now().UTC(),
		Status:        StatusPending,
	})
	s.nextID++
}

func (s *MemoryStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var batch []Event
	for i := range s.events {
		if len(batch) == batchSize {
			break
		}
		if s.events[i].Status != StatusPending {
			continue
		}
		s.events[i].Status = StatusInProgress
		batch = append(batch, s.events[i])
	}
	return batch, nil
}

func (s *MemoryStore) MarkSent(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if contains(ids, s.events[i].ID) {
			s.events[i].Status = StatusSent
		}
	}
	return nil
}

func (s *MemoryStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == id {
			s.events[i].Status = StatusFailed
			s.events[i].RetryCount++
			msg := errMsg
			s.events[i].LastError = &msg
		}
	}
	return nil
}

// Pending returns the events not yet sent, oldest first. Used by tests and
// by the dev-mode shutdown log.
func (s *MemoryStore) Pending() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.Status == StatusPending || e.Status == StatusInProgress {
			out = append(out, e)
		}
	}
	return out
}

// All returns every recorded event, oldest first.
func (s *MemoryStore) All() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
