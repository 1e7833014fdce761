package task

import (
	"context"

	"github.com/google/uuid"
)

// Kind classifies the work a task performs against Trakt.
type Kind string

// Task kinds
const (
	// KindUpdateShows refreshes the library copy of one or more shows.
	KindUpdateShows Kind = "update_shows"

	// KindMarkSeen marks episodes as watched.
	KindMarkSeen Kind = "mark_seen"

	// KindRate sends a rating for a show or episode.
	KindRate Kind = "rate"

	// KindLibrary adds or removes shows from the user's library.
	KindLibrary Kind = "library"

	// KindRecommendations fetches or dismisses recommendations.
	KindRecommendations Kind = "recommendations"
)

// Task is a unit of asynchronous work against Trakt.
// Version: 1.0
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Kind returns the task classification
	Kind() Kind

	// MarkQueued records that the task was admitted through a Queue.
	MarkQueued()

	// InQueue reports whether the task was admitted through a Queue. Tasks
	// run ad hoc report false.
	InQueue() bool

	// Started reports whether Start has been called.
	Started() bool

	// Start launches the task. It must not block on the request itself and
	// the task must eventually report completion exactly once.
	Start(ctx context.Context)
}

// DeferralNotifier informs the user that a submitted task has to wait.
type DeferralNotifier interface {
	// Deferred is called when task was queued behind position other tasks.
	Deferred(task Task, position int)
}
