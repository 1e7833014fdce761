package trakt

import (
	"context"
	"errors"
	"sync"
)

// ErrNotInitialized is returned by Instance before Create has succeeded.
var ErrNotInitialized = errors.New("trakt manager not initialized")

var (
	instanceMu sync.RWMutex
	instance   *Manager
)

// Create builds a Manager with New and installs it as the process
// instance. A previous instance is closed and its queue discarded, so
// callers must not recreate while tasks are pending.
func Create(ctx context.Context, opts Options) (*Manager, error) {
	m, err := New(ctx, opts)
	if err != nil {
		return nil, err
	}

	instanceMu.Lock()
	previous := instance
	instance = m
	instanceMu.Unlock()

	if previous != nil {
		if pending := previous.PendingCount(); pending > 0 {
			previous.logger.Warn("replacing manager with pending tasks", "pending", pending)
		}
		previous.Close()
	}

	return m, nil
}

// Instance returns the manager installed by Create.
func Instance() (*Manager, error) {
	instanceMu.RLock()
	defer instanceMu.RUnlock()

	if instance == nil {
		return nil, ErrNotInitialized
	}
	return instance, nil
}
