package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

// Store implements ports.SnapshotStore in process memory. It is the default
// store for tests and single-process hosts.
type Store struct {
	mu   sync.RWMutex
	data map[string]domain.Snapshot
}

// NewStore creates an empty in-memory snapshot store.
func NewStore() *Store {
	return &Store{data: make(map[string]domain.Snapshot)}
}

// Save persists a deep copy of the snapshot so later flow mutations cannot
// bleed into stored state.
func (s *Store) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = snap.Clone()
	return nil
}

// Load retrieves a copy of the snapshot for the session.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := snap.Clone()
	return &out, nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the known session ids in stable order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
