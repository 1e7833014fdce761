package task

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// RequestErrorTextCode tags errors returned by Trakt request functions.
const RequestErrorTextCode = "TRAKT_REQUEST_FAILED"

// Common errors
var (
	ErrNilRequestFunc = errors.New("request function cannot be nil")
	ErrNilReporter    = errors.New("reporter cannot be nil")
	ErrNilLogger      = errors.New("logger cannot be nil")
	ErrRequestPanic   = errors.New("request panicked")

	// ErrTaskAlreadySubmitted is returned for a task that was already
	// admitted to a queue or already started.
	ErrTaskAlreadySubmitted = errors.New("task already submitted")
)

// NewRequestError classifies a failure raised while talking to Trakt so
// listeners can tell it apart from a request that merely reported
// success=false.
func NewRequestError(source error, t Task) error {
	if source == nil {
		return nil
	}

	var existing *goerrors.Error
	if goerrors.As(source, &existing) && existing.TextCode == RequestErrorTextCode {
		return source
	}

	return goerrors.Wrap(source, goerrors.CategoryExternal, "trakt request failed").
		WithTextCode(RequestErrorTextCode).
		WithMetadata(map[string]any{
			"task_id":   t.ID().String(),
			"task_kind": string(t.Kind()),
		})
}
