package memory

import (
	"context"
	"sync"
	"time"

	"github.com/attendly/certserver/internal/certify/store"
)

// ArtifactStore keeps rendered certificates in a map.  Tests and dev only.
type ArtifactStore struct {
	mu   sync.RWMutex
	data map[string]store.ArtifactRecord
}

func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{data: make(map[string]store.ArtifactRecord)}
}

func (s *ArtifactStore) Put(_ context.Context, rec store.ArtifactRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.data[rec.Ref] = rec
	return nil
}

func (s *ArtifactStore) Get(_ context.Context, ref string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[ref]
	if !ok {
		return nil, store.ErrNotFound
	}
	return rec.Data, nil
}

func (s *ArtifactStore) Exists(_ context.Context, ref string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[ref]
	return ok, nil
}
