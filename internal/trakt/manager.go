package trakt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/phrazzld/tracktoid/internal/domain"
	"github.com/phrazzld/tracktoid/internal/events"
	"github.com/phrazzld/tracktoid/internal/service/auth"
	"github.com/phrazzld/tracktoid/internal/store"
	"github.com/phrazzld/tracktoid/internal/task"
)

// Errors returned by New.
var (
	ErrNilStore         = errors.New("preference store is required")
	ErrNilAuthenticator = errors.New("authenticator is required")
)

// Options are the collaborators of a Manager. Store and Authenticator are
// required.
type Options struct {
	Store         store.PreferenceStore
	Authenticator auth.Authenticator

	// Hasher migrates plaintext passwords. Defaults to SHA-1.
	Hasher auth.PasswordHasher

	// Notifier is told about deferred tasks. Defaults to a task.LogNotifier
	// using DeferredMessage.
	Notifier        task.DeferralNotifier
	DeferredMessage string

	Logger *slog.Logger
}

// Status is a point-in-time view of the manager.
type Status struct {
	ActiveTaskID   string    `json:"active_task_id,omitempty"`
	ActiveTaskKind task.Kind `json:"active_task_kind,omitempty"`
	Pending        int       `json:"pending"`
	UpdateRunning  bool      `json:"update_running"`
	Username       string    `json:"username"`
	Listeners      int       `json:"listeners"`
}

// Manager serializes Trakt requests and reports their lifecycle.
type Manager struct {
	mu          sync.Mutex
	ctx         context.Context
	queue       *task.Queue
	listeners   *events.Registry
	credentials *auth.CredentialBinding
	logger      *slog.Logger
	closed      atomic.Bool
}

// New binds ctx, which every task receives on Start, and loads the
// credentials from the store. The manager starts with an empty queue and no
// listeners.
func New(ctx context.Context, opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, ErrNilStore
	}
	if opts.Authenticator == nil {
		return nil, ErrNilAuthenticator
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	hasher := opts.Hasher
	if hasher == nil {
		hasher = auth.NewSHA1Hasher()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = task.NewLogNotifier(logger, opts.DeferredMessage)
	}

	m := &Manager{
		ctx:       ctx,
		listeners: events.NewRegistry(logger),
		logger:    logger.With("component", "trakt_manager"),
	}
	m.queue = task.NewQueue(ctx, logger,
		task.WithLocker(&m.mu),
		task.WithDeferralNotifier(notifier))

	binding, err := auth.NewCredentialBinding(opts.Store, opts.Authenticator, hasher, logger,
		auth.WithLocker(&m.mu))
	if err != nil {
		return nil, fmt.Errorf("failed to create credential binding: %w", err)
	}
	if err := binding.LoadInitial(ctx); err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	m.credentials = binding

	m.logger.Info("trakt manager ready", "username", binding.Username())
	return m, nil
}

// RegisterListener adds l to the listener set. Registering twice is a no-op.
func (m *Manager) RegisterListener(l events.Listener) {
	m.listeners.Register(l)
}

// UnregisterListener removes l. Unknown listeners are ignored.
func (m *Manager) UnregisterListener(l events.Listener) {
	m.listeners.Unregister(l)
}

// ListenerCount returns the number of registered listeners.
func (m *Manager) ListenerCount() int {
	return m.listeners.Len()
}

// NewRequest builds a request that reports its lifecycle to this manager.
func (m *Manager) NewRequest(kind task.Kind, listener events.Listener, fn task.RequestFunc) (*task.Request, error) {
	return task.NewRequest(kind, listener, fn, m, m.logger)
}

// Submit queues t. It reports whether t started immediately; otherwise it
// waits behind the active task and the deferral notifier is told. A task
// that was already submitted or started returns task.ErrTaskAlreadySubmitted.
func (m *Manager) Submit(t task.Task) (bool, error) {
	return m.queue.Enqueue(t)
}

// Run starts t outside the queue. Its completion never advances the queue.
// Queued or already started tasks are rejected.
func (m *Manager) Run(t task.Task) error {
	if t.InQueue() || t.Started() {
		m.logger.Warn("rejecting ad hoc run of a submitted task",
			"task_id", t.ID(),
			"task_kind", t.Kind())
		return task.ErrTaskAlreadySubmitted
	}
	m.logger.Debug("running task ad hoc", "task_id", t.ID(), "task_kind", t.Kind())
	t.Start(m.ctx)
	return nil
}

// BeforeRequest implements task.Reporter.
func (m *Manager) BeforeRequest(listener events.Listener) {
	m.listeners.NotifyBeforeRequest(listener)
}

// AfterRequest implements task.Reporter. The queue advances first, then the
// initiating listener hears the outcome and, when err is set, the error.
func (m *Manager) AfterRequest(t task.Task, listener events.Listener, success bool, err error) {
	m.queue.Complete(t, t.InQueue())

	m.listeners.NotifyAfterRequest(listener, success)
	if err != nil {
		m.listeners.NotifyError(listener, err)
	}
}

// IsKindActive reports whether the active task is of the given kind.
func (m *Manager) IsKindActive(kind task.Kind) bool {
	return m.queue.IsKindActive(kind)
}

// IsUpdateRunning reports whether a show update is the active task.
func (m *Manager) IsUpdateRunning() bool {
	return m.queue.IsKindActive(task.KindUpdateShows)
}

// ActiveTask returns the task currently running from the queue.
func (m *Manager) ActiveTask() (task.Task, bool) {
	return m.queue.Active()
}

// PendingCount returns the number of queued tasks waiting behind the
// active one.
func (m *Manager) PendingCount() int {
	if n := m.queue.Len(); n > 0 {
		return n - 1
	}
	return 0
}

// NotifyShowUpdated tells every listener that show changed.
func (m *Manager) NotifyShowUpdated(show domain.Show) {
	m.listeners.NotifyShowUpdated(show)
}

// NotifyShowRemoved tells every listener that show left the library.
func (m *Manager) NotifyShowRemoved(show domain.Show) {
	m.listeners.NotifyShowRemoved(show)
}

// CurrentUsername returns the username pushed to the authenticator.
func (m *Manager) CurrentUsername() string {
	return m.credentials.Username()
}

// Credentials returns the credentials pushed to the authenticator.
func (m *Manager) Credentials() domain.Credentials {
	return m.credentials.Credentials()
}

// Status returns a snapshot of the queue and listener state.
func (m *Manager) Status() Status {
	status := Status{
		Pending:       m.PendingCount(),
		UpdateRunning: m.IsUpdateRunning(),
		Username:      m.CurrentUsername(),
		Listeners:     m.ListenerCount(),
	}
	if active, ok := m.ActiveTask(); ok {
		status.ActiveTaskID = active.ID().String()
		status.ActiveTaskKind = active.Kind()
	}
	return status
}

// Close stops reacting to preference changes. Queued tasks are left to
// finish on their own. Close is idempotent.
func (m *Manager) Close() {
	if !m.closed.CompareAndSwap(false, true) {
		return
	}
	m.credentials.Close()
	m.logger.Info("trakt manager closed", "pending", m.PendingCount())
}

var _ task.Reporter = (*Manager)(nil)
