package ports_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/ports"
)

// mapStore is the smallest AssetStore that satisfies the contract.
type mapStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mapStore) Save(_ context.Context, path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[path] = append([]byte(nil), data...)
	return nil
}

func (m *mapStore) Load(_ context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[path]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	return d, nil
}

func (m *mapStore) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, path)
	return nil
}

func (m *mapStore) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.data))
	for p := range m.data {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func TestAssetStore_Contract(t *testing.T) {
	ports.RunAssetStoreContract(t, &mapStore{data: map[string][]byte{}})
}
