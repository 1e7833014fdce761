package events

import (
	"log/slog"
	"sync"

	"github.com/phrazzld/tracktoid/internal/domain"
)

// Registry keeps the set of registered listeners and dispatches lifecycle
// events to them.
type Registry struct {
	listeners []Listener
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		listeners: make([]Listener, 0),
		logger:    logger.With("component", "listener_registry"),
	}
}

// Register adds a listener. Registering the same listener twice is a no-op.
func (r *Registry) Register(listener Listener) {
	if listener == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(listener) >= 0 {
		return
	}
	r.listeners = append(r.listeners, listener)
	r.logger.Debug("registered listener", "listener_count", len(r.listeners))
}

// Unregister removes a listener. Unknown listeners are ignored.
func (r *Registry) Unregister(listener Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(listener)
	if i < 0 {
		return
	}

	r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
	r.logger.Debug("unregistered listener", "listener_count", len(r.listeners))
}

// IsRegistered reports whether the listener is currently registered.
func (r *Registry) IsRegistered(listener Listener) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexOf(listener) >= 0
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}

// NotifyBeforeRequest tells the initiating listener that its request started.
func (r *Registry) NotifyBeforeRequest(listener Listener) {
	if r.IsRegistered(listener) {
		listener.OnBeforeRequest()
	}
}

// NotifyAfterRequest tells the initiating listener that its request completed.
func (r *Registry) NotifyAfterRequest(listener Listener, success bool) {
	if r.IsRegistered(listener) {
		listener.OnAfterRequest(success)
	}
}

// NotifyError tells the initiating listener that its request failed with err.
func (r *Registry) NotifyError(listener Listener, err error) {
	if r.IsRegistered(listener) {
		listener.OnRequestError(err)
	}
}

// NotifyShowUpdated broadcasts a show update to every registered listener.
func (r *Registry) NotifyShowUpdated(show domain.Show) {
	listeners := r.snapshot()
	r.logger.Debug("broadcasting show update",
		"tvdb_id", show.TVDBID,
		"listener_count", len(listeners))

	for _, l := range listeners {
		l.OnShowUpdated(show)
	}
}

// NotifyShowRemoved broadcasts a show removal to every registered listener.
func (r *Registry) NotifyShowRemoved(show domain.Show) {
	listeners := r.snapshot()
	r.logger.Debug("broadcasting show removal",
		"tvdb_id", show.TVDBID,
		"listener_count", len(listeners))

	for _, l := range listeners {
		l.OnShowRemoved(show)
	}
}

// snapshot copies the listener set so handlers may register or unregister
// while a broadcast is running.
func (r *Registry) snapshot() []Listener {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	return listeners
}

// indexOf must be called with mu held.
func (r *Registry) indexOf(listener Listener) int {
	for i, l := range r.listeners {
		if l == listener {
			return i
		}
	}
	return -1
}
