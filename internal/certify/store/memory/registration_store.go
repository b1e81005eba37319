package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/attendly/certserver/internal/certify/store"
	"github.com/attendly/certserver/internal/certify/types"
)

// RegistrationStore is an in-memory registration ledger.  Insertion order is
// kept per event so sequence ranks behave like the sqlite autoincrement
// tie-breaker.
type RegistrationStore struct {
	mu     sync.RWMutex
	byKey  map[string]types.Registration
	order  map[string][]string // eventID -> recipientIDs in insertion order
}

func NewRegistrationStore() *RegistrationStore {
	return &RegistrationStore{
		byKey: make(map[string]types.Registration),
		order: make(map[string][]string),
	}
}

func key(eventID, recipientID string) string {
	return eventID + "\x00" + recipientID
}

func (s *RegistrationStore) Create(_ context.Context, reg types.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(reg.EventID, reg.RecipientID)
	if _, ok := s.byKey[k]; ok {
		return store.ErrDuplicate
	}
	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = time.Now().UTC()
	}
	s.byKey[k] = reg
	s.order[reg.EventID] = append(s.order[reg.EventID], reg.RecipientID)
	return nil
}

func (s *RegistrationStore) Delete(_ context.Context, eventID, recipientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(eventID, recipientID)
	if _, ok := s.byKey[k]; !ok {
		return store.ErrNotFound
	}
	delete(s.byKey, k)

	ids := s.order[eventID]
	for i, id := range ids {
		if id == recipientID {
			s.order[eventID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (s *RegistrationStore) Get(_ context.Context, eventID, recipientID string) (types.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, ok := s.byKey[key(eventID, recipientID)]
	if !ok {
		return types.Registration{}, store.ErrNotFound
	}
	return reg, nil
}

func (s *RegistrationStore) SequenceIndex(_ context.Context, eventID, recipientID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.byKey[key(eventID, recipientID)]; !ok {
		return 0, store.ErrNotFound
	}

	// Rank by registration time, ties broken by insertion order.
	ids := s.order[eventID]
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.SliceStable(sorted, func(i, j int) bool {
		a := s.byKey[key(eventID, sorted[i])]
		b := s.byKey[key(eventID, sorted[j])]
		return a.RegisteredAt.Before(b.RegisteredAt)
	})

	for i, id := range sorted {
		if id == recipientID {
			return i + 1, nil
		}
	}
	return 0, store.ErrNotFound
}

func (s *RegistrationStore) count(eventID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order[eventID])
}
