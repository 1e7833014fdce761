package mocks

import (
	"sync"

	"github.com/phrazzld/tracktoid/internal/task"
)

// DeferralNotifier is a mock implementation of task.DeferralNotifier.
type DeferralNotifier struct {
	mu        sync.Mutex
	Deferrals []task.Task
	Positions []int
}

// Deferred implements task.DeferralNotifier
func (m *DeferralNotifier) Deferred(t task.Task, position int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deferrals = append(m.Deferrals, t)
	m.Positions = append(m.Positions, position)
}

// Count returns how many deferrals were reported.
func (m *DeferralNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Deferrals)
}

var _ task.DeferralNotifier = (*DeferralNotifier)(nil)
