// Package mocks provides mock implementations for testing task components.
package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/tracktoid/internal/task"
)

// Task is a mock implementation of task.Task that records Start calls.
type Task struct {
	IDValue   uuid.UUID
	KindValue task.Kind
	StartFn   func(ctx context.Context)

	mu     sync.Mutex
	queued bool
	starts int
}

// NewTask creates a mock task of the given kind with a fresh ID.
func NewTask(kind task.Kind) *Task {
	return &Task{
		IDValue:   uuid.New(),
		KindValue: kind,
	}
}

// ID implements task.Task
func (m *Task) ID() uuid.UUID {
	return m.IDValue
}

// Kind implements task.Task
func (m *Task) Kind() task.Kind {
	return m.KindValue
}

// MarkQueued implements task.Task
func (m *Task) MarkQueued() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued = true
}

// InQueue implements task.Task
func (m *Task) InQueue() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queued
}

// Started implements task.Task
func (m *Task) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts > 0
}

// Start implements task.Task
func (m *Task) Start(ctx context.Context) {
	m.mu.Lock()
	m.starts++
	fn := m.StartFn
	m.mu.Unlock()

	if fn != nil {
		fn(ctx)
	}
}

// Starts returns how many times Start was called.
func (m *Task) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

var _ task.Task = (*Task)(nil)
