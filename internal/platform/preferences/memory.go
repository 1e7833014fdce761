package preferences

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/phrazzld/tracktoid/internal/store"
)

// MemoryStore is a process-local PreferenceStore. Values written through it
// notify subscribers synchronously, on the writer's goroutine.
type MemoryStore struct {
	mu          sync.RWMutex
	values      map[string]string
	subscribers Subscribers
}

// NewMemoryStore creates a MemoryStore seeded with initial, which may be nil.
func NewMemoryStore(initial map[string]string) *MemoryStore {
	values := make(map[string]string, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &MemoryStore{values: values}
}

// GetString implements store.PreferenceStore.
func (s *MemoryStore) GetString(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok, nil
}

// GetBool implements store.PreferenceStore.
func (s *MemoryStore) GetBool(ctx context.Context, key string) (bool, bool, error) {
	raw, ok, err := s.GetString(ctx, key)
	if err != nil || !ok {
		return false, ok, err
	}

	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, true, store.NewStoreError("preference", "get",
			fmt.Sprintf("key %q does not hold a boolean", key), store.ErrInvalidValue)
	}
	return b, true, nil
}

// SetString implements store.PreferenceStore.
func (s *MemoryStore) SetString(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()

	s.subscribers.Notify(key)
	return nil
}

// SetBool implements store.PreferenceStore.
func (s *MemoryStore) SetBool(ctx context.Context, key string, value bool) error {
	return s.SetString(ctx, key, strconv.FormatBool(value))
}

// Delete removes key and notifies subscribers.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	_, existed := s.values[key]
	delete(s.values, key)
	s.mu.Unlock()

	if existed {
		s.subscribers.Notify(key)
	}
}

// Subscribe implements store.PreferenceStore.
func (s *MemoryStore) Subscribe(fn func(key string)) func() {
	return s.subscribers.Add(fn)
}

var _ store.PreferenceStore = (*MemoryStore)(nil)
