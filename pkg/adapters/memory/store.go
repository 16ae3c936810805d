package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/vfxbridge/pkg/domain"
)

// Store implements ports.AssetStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save keeps a private copy of data.
func (s *Store) Save(ctx context.Context, path string, data []byte) error {
	copied := append([]byte(nil), data...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[path] = copied
	return nil
}

// Load returns a copy so callers can't mutate the stored asset.
func (s *Store) Load(ctx context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[path]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	return append([]byte(nil), data...), nil
}

// Delete removes the asset.
func (s *Store) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, path)
	return nil
}

// List returns all asset paths, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.data))
	for p := range s.data {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}
