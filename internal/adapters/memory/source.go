package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Source is an in-memory ports.QuestionSource, used in tests and for
// programmatically built questionnaires.
type Source struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewSource creates an empty source.
func NewSource() *Source {
	return &Source{docs: make(map[string][]byte)}
}

// Add pre-populates the source with a raw questionnaire document.
func (s *Source) Add(id string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = data
}

// Get retrieves a document by id.
func (s *Source) Get(ctx context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("questionnaire not found: %s", id)
	}
	return data, nil
}

// List returns the available questionnaire ids.
func (s *Source) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Usage is an in-memory ports.UsageStore for question banks.
type Usage struct {
	mu   sync.Mutex
	used []string
}

// NewUsage creates an empty usage store.
func NewUsage() *Usage {
	return &Usage{}
}

// LoadUsed returns the ids drawn so far.
func (u *Usage) LoadUsed(ctx context.Context) ([]string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.used...), nil
}

// SaveUsed replaces the drawn-id set.
func (u *Usage) SaveUsed(ctx context.Context, ids []string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.used = append([]string(nil), ids...)
	return nil
}
