package memory

import (
	"context"
	"sync"
	"time"

	"github.com/attendly/certserver/internal/certify/store"
	"github.com/attendly/certserver/internal/certify/types"
)

// ClaimStore is an in-memory claim ledger.  The mutex makes Create the same
// atomic check-and-insert the sqlite primary key provides.
type ClaimStore struct {
	mu     sync.Mutex
	claims map[string]types.ClaimRecord
}

func NewClaimStore() *ClaimStore {
	return &ClaimStore{claims: make(map[string]types.ClaimRecord)}
}

func (s *ClaimStore) Create(_ context.Context, rec types.ClaimRecord) (bool, types.ClaimRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(rec.EventID, rec.RecipientID)
	if existing, ok := s.claims[k]; ok {
		return false, existing, nil
	}
	if rec.ClaimedAt.IsZero() {
		rec.ClaimedAt = time.Now().UTC()
	}
	s.claims[k] = rec
	return true, rec, nil
}

func (s *ClaimStore) Get(_ context.Context, eventID, recipientID string) (types.ClaimRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.claims[key(eventID, recipientID)]
	if !ok {
		return types.ClaimRecord{}, store.ErrNotFound
	}
	return rec, nil
}

// Records returns a copy of all claim records.  Test-only helper.
func (s *ClaimStore) Records() []types.ClaimRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.ClaimRecord, 0, len(s.claims))
	for _, rec := range s.claims {
		out = append(out, rec)
	}
	return out
}

func (s *ClaimStore) count(eventID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, rec := range s.claims {
		if rec.EventID == eventID {
			n++
		}
	}
	return n
}
