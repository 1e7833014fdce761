package events

import "github.com/phrazzld/tracktoid/internal/domain"

// Listener observes Trakt request lifecycle events.
//
// Implementations are compared by identity for registration, so they should
// be pointer types.
type Listener interface {
	// OnBeforeRequest is called once when a request tied to this listener starts.
	OnBeforeRequest()

	// OnAfterRequest is called once when that request completes. success is the
	// request's own declared outcome.
	OnAfterRequest(success bool)

	// OnRequestError is called after OnAfterRequest when the request ended
	// with an exceptional condition.
	OnRequestError(err error)

	// OnShowUpdated is broadcast when a tracked show changed.
	OnShowUpdated(show domain.Show)

	// OnShowRemoved is broadcast when a tracked show was dropped.
	OnShowRemoved(show domain.Show)
}

// Funcs adapts optional callbacks to the Listener interface. Nil fields are
// skipped. Register a *Funcs, never a Funcs value.
type Funcs struct {
	BeforeRequest func()
	AfterRequest  func(success bool)
	RequestError  func(err error)
	ShowUpdated   func(show domain.Show)
	ShowRemoved   func(show domain.Show)
}

// OnBeforeRequest implements Listener.
func (f *Funcs) OnBeforeRequest() {
	if f.BeforeRequest != nil {
		f.BeforeRequest()
	}
}

// OnAfterRequest implements Listener.
func (f *Funcs) OnAfterRequest(success bool) {
	if f.AfterRequest != nil {
		f.AfterRequest(success)
	}
}

// OnRequestError implements Listener.
func (f *Funcs) OnRequestError(err error) {
	if f.RequestError != nil {
		f.RequestError(err)
	}
}

// OnShowUpdated implements Listener.
func (f *Funcs) OnShowUpdated(show domain.Show) {
	if f.ShowUpdated != nil {
		f.ShowUpdated(show)
	}
}

// OnShowRemoved implements Listener.
func (f *Funcs) OnShowRemoved(show domain.Show) {
	if f.ShowRemoved != nil {
		f.ShowRemoved(show)
	}
}

var _ Listener = (*Funcs)(nil)
