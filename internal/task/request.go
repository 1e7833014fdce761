package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/phrazzld/tracktoid/internal/events"
	"github.com/phrazzld/tracktoid/internal/redact"
)

// RequestFunc performs one Trakt request. The boolean is the request's own
// declared outcome; a non-nil error is an exceptional condition and forces
// the outcome to false.
type RequestFunc func(ctx context.Context) (bool, error)

// Reporter receives the lifecycle of a Request.
type Reporter interface {
	// BeforeRequest is called once, on the request goroutine, before fn runs.
	BeforeRequest(listener events.Listener)

	// AfterRequest is the single completion report of t.
	AfterRequest(t Task, listener events.Listener, success bool, err error)
}

// Request is the standard Task: Start runs fn on its own goroutine and
// reports the outcome to the Reporter exactly once, even if fn panics.
type Request struct {
	id       uuid.UUID
	kind     Kind
	listener events.Listener
	fn       RequestFunc
	reporter Reporter
	logger   *slog.Logger

	inQueue atomic.Bool
	started atomic.Bool
	once    sync.Once
	done    chan struct{}
}

// NewRequest creates a Request of the given kind. listener may be nil when
// nobody waits for the outcome.
func NewRequest(
	kind Kind,
	listener events.Listener,
	fn RequestFunc,
	reporter Reporter,
	logger *slog.Logger,
) (*Request, error) {
	if fn == nil {
		return nil, ErrNilRequestFunc
	}
	if reporter == nil {
		return nil, ErrNilReporter
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	id := uuid.New()
	return &Request{
		id:       id,
		kind:     kind,
		listener: listener,
		fn:       fn,
		reporter: reporter,
		logger:   logger.With("task_id", id, "task_kind", kind),
		done:     make(chan struct{}),
	}, nil
}

// ID returns the task's unique identifier
func (r *Request) ID() uuid.UUID {
	return r.id
}

// Kind returns the task classification
func (r *Request) Kind() Kind {
	return r.kind
}

// Listener returns the listener tied to this request.
func (r *Request) Listener() events.Listener {
	return r.listener
}

// MarkQueued implements Task.
func (r *Request) MarkQueued() {
	r.inQueue.Store(true)
}

// InQueue implements Task.
func (r *Request) InQueue() bool {
	return r.inQueue.Load()
}

// Started implements Task.
func (r *Request) Started() bool {
	return r.started.Load()
}

// Done is closed once the completion report has been delivered.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Start implements Task. Only the first call has an effect.
func (r *Request) Start(ctx context.Context) {
	if !r.started.CompareAndSwap(false, true) {
		r.logger.Warn("request already started")
		return
	}
	go r.run(ctx)
}

func (r *Request) run(ctx context.Context) {
	var (
		success bool
		err     error
	)

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("request panicked", "panic", rec)
			success = false
			err = fmt.Errorf("%w: %v", ErrRequestPanic, rec)
		}
		r.complete(success, err)
	}()

	r.reporter.BeforeRequest(r.listener)

	r.logger.Debug("executing request")
	success, err = r.fn(ctx)
}

func (r *Request) complete(success bool, err error) {
	r.once.Do(func() {
		if err != nil {
			success = false
			err = NewRequestError(err, r)
			r.logger.Error("request failed", "error", redact.Error(err))
		} else {
			r.logger.Debug("request finished", "success", success)
		}

		r.reporter.AfterRequest(r, r.listener, success, err)
		close(r.done)
	})
}

var _ Task = (*Request)(nil)
