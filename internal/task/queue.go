package task

import (
	"context"
	"log/slog"
	"sync"
)

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithLocker makes the queue guard its state with l instead of a private
// mutex, so it can share one mutual-exclusion domain with other state.
func WithLocker(l sync.Locker) QueueOption {
	return func(q *Queue) {
		q.mu = l
	}
}

// WithDeferralNotifier sets who is told that a task has to wait.
func WithDeferralNotifier(n DeferralNotifier) QueueOption {
	return func(q *Queue) {
		q.notifier = n
	}
}

// Queue runs tasks one at a time in submission order. The task at position
// 0 is the active one; every other task is pending.
type Queue struct {
	mu       sync.Locker
	tasks    []Task
	ctx      context.Context
	notifier DeferralNotifier
	logger   *slog.Logger
}

// NewQueue creates an empty Queue. Tasks it starts receive ctx.
func NewQueue(ctx context.Context, logger *slog.Logger, opts ...QueueOption) *Queue {
	q := &Queue{
		mu:     &sync.Mutex{},
		tasks:  make([]Task, 0),
		ctx:    ctx,
		logger: logger.With("component", "task_queue"),
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.notifier == nil {
		q.notifier = NewLogNotifier(logger, "")
	}
	return q
}

// Enqueue appends task to the queue. When the queue was empty the task is
// started before Enqueue returns and true is reported; otherwise the task
// waits, the deferral notifier is told, and false is reported.
//
// A task that was already admitted or already started is rejected with
// ErrTaskAlreadySubmitted: its second entry would reach the head without
// ever being started and stall every task behind it.
func (q *Queue) Enqueue(task Task) (bool, error) {
	q.mu.Lock()
	if task.InQueue() || task.Started() || q.containsLocked(task) {
		q.mu.Unlock()
		q.logger.Warn("rejecting task that was already submitted",
			"task_id", task.ID(),
			"task_kind", task.Kind())
		return false, ErrTaskAlreadySubmitted
	}
	task.MarkQueued()
	q.tasks = append(q.tasks, task)
	position := len(q.tasks) - 1
	q.mu.Unlock()

	logger := q.logger.With("task_id", task.ID(), "task_kind", task.Kind())

	if position == 0 {
		logger.Debug("starting task immediately")
		task.Start(q.ctx)
		return true, nil
	}

	logger.Debug("task deferred", "position", position)
	q.notifier.Deferred(task, position)
	return false, nil
}

func (q *Queue) containsLocked(task Task) bool {
	for _, t := range q.tasks {
		if t.ID() == task.ID() {
			return true
		}
	}
	return false
}

// Complete is the completion report of task. It must be called once for
// every task, queued or not. The queue only advances when wasQueued is true
// and task is the active task: the head is popped and the new head, if any,
// is started. It reports whether the queue advanced.
func (q *Queue) Complete(task Task, wasQueued bool) bool {
	if !wasQueued {
		return false
	}

	q.mu.Lock()
	if len(q.tasks) == 0 || q.tasks[0].ID() != task.ID() {
		q.mu.Unlock()
		q.logger.Warn("ignoring completion of a task that is not active",
			"task_id", task.ID(),
			"task_kind", task.Kind())
		return false
	}

	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	var next Task
	if len(q.tasks) > 0 {
		next = q.tasks[0]
	}
	remaining := len(q.tasks)
	q.mu.Unlock()

	q.logger.Debug("task left the queue",
		"task_id", task.ID(),
		"task_kind", task.Kind(),
		"remaining", remaining)

	if next != nil {
		q.logger.Debug("starting next task", "task_id", next.ID(), "task_kind", next.Kind())
		next.Start(q.ctx)
	}
	return true
}

// IsHeadOfKind reports whether there is an active task and match accepts it.
func (q *Queue) IsHeadOfKind(match func(Task) bool) bool {
	active, ok := q.Active()
	return ok && match(active)
}

// IsKindActive reports whether the active task is of the given kind.
func (q *Queue) IsKindActive(kind Kind) bool {
	return q.IsHeadOfKind(func(t Task) bool {
		return t.Kind() == kind
	})
}

// Active returns the active task, if any.
func (q *Queue) Active() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil, false
	}
	return q.tasks[0], true
}

// Len returns the number of queued tasks, the active one included.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Snapshot returns the queued tasks in execution order.
func (q *Queue) Snapshot() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	tasks := make([]Task, len(q.tasks))
	copy(tasks, q.tasks)
	return tasks
}
