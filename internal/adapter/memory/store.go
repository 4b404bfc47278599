package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/metrics"
)

type entry struct {
	value   []byte
	at      time.Time
	deleted bool
}

// Store is an in-process key-value backend. Writes older than the stored one are ignored.
type Store struct {
	mu   sync.RWMutex
	data map[string]entry
}

func NewStore() *Store {
	return &Store{
		data: make(map[string]entry),
	}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metrics.RecordStoreOperation(types.StoreMemory, "get", nil)

	e, ok := s.data[key]
	if !ok || e.deleted {
		return nil, types.ErrNotFound
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, at time.Time) error {
	v := make([]byte, len(value))
	copy(v, value)
	s.put(key, entry{value: v, at: at})

	metrics.RecordStoreOperation(types.StoreMemory, "set", nil)
	return nil
}

func (s *Store) Delete(_ context.Context, key string, at time.Time) error {
	s.put(key, entry{at: at, deleted: true})

	metrics.RecordStoreOperation(types.StoreMemory, "delete", nil)
	return nil
}

func (s *Store) put(key string, e entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.data[key]; ok && cur.at.After(e.at) {
		return
	}
	s.data[key] = e
}
