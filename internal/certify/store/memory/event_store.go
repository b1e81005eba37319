package memory

import (
	"context"
	"sync"
	"time"

	"github.com/attendly/certserver/internal/certify/store"
	"github.com/attendly/certserver/internal/certify/types"
)

// EventStore is an in-memory event table for tests and dev environments.
type EventStore struct {
	mu     sync.RWMutex
	events map[string]types.Event

	// summarized mirrors the sqlite bookkeeping column.
	summarized map[string]time.Time
}

func NewEventStore() *EventStore {
	return &EventStore{
		events:     make(map[string]types.Event),
		summarized: make(map[string]time.Time),
	}
}

func (s *EventStore) Create(_ context.Context, ev types.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[ev.ID]; ok {
		return store.ErrDuplicate
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	ev.UpdatedAt = ev.CreatedAt
	ev.State = types.StateActive
	ev.Template = nil
	ev.Window = nil
	s.events[ev.ID] = ev
	return nil
}

func (s *EventStore) Get(_ context.Context, eventID string) (types.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.events[eventID]
	if !ok {
		return types.Event{}, store.ErrNotFound
	}
	return ev, nil
}

func (s *EventStore) End(_ context.Context, eventID string, tpl types.Template, window types.ClaimWindow, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[eventID]
	if !ok {
		return store.ErrNotFound
	}
	if ev.State != types.StateActive {
		return store.ErrStaleState
	}
	ev.State = types.StateEnded
	ev.Template = &tpl
	ev.Window = &window
	ev.UpdatedAt = now.UTC()
	s.events[eventID] = ev
	return nil
}

// snapshot returns a copy of all events.  Shared with the report store.
func (s *EventStore) snapshot() []types.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev)
	}
	return out
}

func (s *EventStore) isSummarized(eventID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.summarized[eventID]
	return ok
}

func (s *EventStore) markSummarized(eventID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summarized[eventID] = at
}
