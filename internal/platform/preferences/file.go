package preferences

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/phrazzld/tracktoid/internal/store"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// FileStore keeps preferences in a YAML file. Keys are case-insensitive and
// reported to subscribers in lower case when the change came from outside
// the process.
type FileStore struct {
	mu          sync.RWMutex
	path        string
	v           *viper.Viper
	values      map[string]string
	subscribers Subscribers
	logger      *slog.Logger
}

// NewFileStore opens the YAML file at path, creating it when missing.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if err := ensureFile(path); err != nil {
		return nil, store.NewStoreError("preference", "open", "cannot create preference file", err)
	}

	s := &FileStore{
		path:   path,
		v:      newYAMLViper(path),
		logger: logger.With("component", "file_preference_store", "path", path),
	}

	if err := s.v.ReadInConfig(); err != nil {
		return nil, store.NewStoreError("preference", "open", "cannot read preference file", err)
	}
	s.values = s.snapshotLocked()

	return s, nil
}

// Watch starts watching the file for edits made outside the process.
// Changed keys are reported to subscribers.
func (s *FileStore) Watch() {
	// A separate viper instance watches so its internal re-reads never race
	// with reads of s.v.
	watcher := newYAMLViper(s.path)
	watcher.OnConfigChange(func(e fsnotify.Event) {
		s.logger.Debug("preference file changed", "op", e.Op.String())
		s.reload()
	})
	watcher.WatchConfig()
	s.logger.Info("watching preference file")
}

// GetString implements store.PreferenceStore.
func (s *FileStore) GetString(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.v.IsSet(key) {
		return "", false, nil
	}

	value, err := cast.ToStringE(s.v.Get(key))
	if err != nil {
		return "", true, store.NewStoreError("preference", "get",
			fmt.Sprintf("key %q does not hold a string", key), store.ErrInvalidValue)
	}
	return value, true, nil
}

// GetBool implements store.PreferenceStore.
func (s *FileStore) GetBool(_ context.Context, key string) (bool, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.v.IsSet(key) {
		return false, false, nil
	}

	value, err := cast.ToBoolE(s.v.Get(key))
	if err != nil {
		return false, true, store.NewStoreError("preference", "get",
			fmt.Sprintf("key %q does not hold a boolean", key), store.ErrInvalidValue)
	}
	return value, true, nil
}

// SetString implements store.PreferenceStore.
func (s *FileStore) SetString(_ context.Context, key, value string) error {
	return s.set(key, value)
}

// SetBool implements store.PreferenceStore.
func (s *FileStore) SetBool(_ context.Context, key string, value bool) error {
	return s.set(key, value)
}

// Subscribe implements store.PreferenceStore.
func (s *FileStore) Subscribe(fn func(key string)) func() {
	return s.subscribers.Add(fn)
}

func (s *FileStore) set(key string, value any) error {
	s.mu.Lock()

	// Writing through a scratch instance keeps s.v free of overrides, which
	// would otherwise shadow later edits of the file.
	w := newYAMLViper(s.path)
	for _, k := range s.v.AllKeys() {
		w.Set(k, s.v.Get(k))
	}
	w.Set(key, value)

	if err := w.WriteConfigAs(s.path); err != nil {
		s.mu.Unlock()
		return store.NewStoreError("preference", "set",
			fmt.Sprintf("cannot write key %q", key), errors.Join(store.ErrUpdateFailed, err))
	}
	if err := s.v.ReadInConfig(); err != nil {
		s.mu.Unlock()
		return store.NewStoreError("preference", "set", "cannot re-read preference file", err)
	}
	s.values = s.snapshotLocked()
	s.mu.Unlock()

	s.subscribers.Notify(key)
	return nil
}

// reload re-reads the file and notifies subscribers of every key whose
// value differs from the last observed one.
func (s *FileStore) reload() {
	s.mu.Lock()
	if err := s.v.ReadInConfig(); err != nil {
		s.mu.Unlock()
		s.logger.Warn("failed to reload preference file", "error", err)
		return
	}
	next := s.snapshotLocked()
	changed := changedKeys(s.values, next)
	s.values = next
	s.mu.Unlock()

	for _, key := range changed {
		s.logger.Debug("preference changed outside the process", "key", key)
		s.subscribers.Notify(key)
	}
}

// snapshotLocked must be called with mu held.
func (s *FileStore) snapshotLocked() map[string]string {
	values := make(map[string]string)
	for _, k := range s.v.AllKeys() {
		values[k] = fmt.Sprint(s.v.Get(k))
	}
	return values
}

func changedKeys(before, after map[string]string) []string {
	var keys []string
	for k, v := range after {
		if old, ok := before[k]; !ok || old != v {
			keys = append(keys, k)
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func newYAMLViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	return v
}

func ensureFile(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("{}\n"), 0o600)
}

var _ store.PreferenceStore = (*FileStore)(nil)
