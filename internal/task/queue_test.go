package task_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/phrazzld/tracktoid/internal/platform/logger"
	"github.com/phrazzld/tracktoid/internal/task"
	"github.com/phrazzld/tracktoid/internal/task/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestQueue() (*task.Queue, *mocks.DeferralNotifier) {
	notifier := &mocks.DeferralNotifier{}
	q := task.NewQueue(context.Background(), setupTestLogger(), task.WithDeferralNotifier(notifier))
	return q, notifier
}

func TestQueueEnqueue(t *testing.T) {
	t.Run("first task starts immediately", func(t *testing.T) {
		q, notifier := newTestQueue()
		a := mocks.NewTask(task.KindUpdateShows)

		started, err := q.Enqueue(a)

		require.NoError(t, err)
		assert.True(t, started)
		assert.Equal(t, 1, a.Starts())
		assert.True(t, a.InQueue())
		assert.Equal(t, 0, notifier.Count())
	})

	t.Run("later tasks wait and the caller is informed", func(t *testing.T) {
		q, notifier := newTestQueue()
		a := mocks.NewTask(task.KindUpdateShows)
		b := mocks.NewTask(task.KindRate)

		q.Enqueue(a)
		started, err := q.Enqueue(b)

		require.NoError(t, err)
		assert.False(t, started)
		assert.Equal(t, 0, b.Starts())
		assert.True(t, b.InQueue(), "admission marks the task as queued")
		require.Equal(t, 1, notifier.Count())
		assert.Equal(t, b, notifier.Deferrals[0])
		assert.Equal(t, []int{1}, notifier.Positions)
	})

	t.Run("start runs with the queue context", func(t *testing.T) {
		type ctxKey struct{}
		ctx := context.WithValue(context.Background(), ctxKey{}, "queue")
		q := task.NewQueue(ctx, setupTestLogger())

		var got any
		a := mocks.NewTask(task.KindLibrary)
		a.StartFn = func(ctx context.Context) { got = ctx.Value(ctxKey{}) }

		q.Enqueue(a)
		assert.Equal(t, "queue", got)
	})
}

func TestQueueRejectsResubmission(t *testing.T) {
	t.Run("task already in the queue", func(t *testing.T) {
		q, notifier := newTestQueue()
		a := mocks.NewTask(task.KindUpdateShows)
		b := mocks.NewTask(task.KindRate)

		_, err := q.Enqueue(a)
		require.NoError(t, err)

		started, err := q.Enqueue(a)
		assert.ErrorIs(t, err, task.ErrTaskAlreadySubmitted)
		assert.False(t, started)
		assert.Equal(t, 1, q.Len())
		assert.Equal(t, 0, notifier.Count())

		_, err = q.Enqueue(b)
		require.NoError(t, err)

		require.True(t, q.Complete(a, true))
		assert.Equal(t, 1, b.Starts(), "the next task starts once the only copy of a completes")

		active, ok := q.Active()
		require.True(t, ok)
		assert.Equal(t, b.ID(), active.ID())
	})

	t.Run("task already started ad hoc", func(t *testing.T) {
		q, _ := newTestQueue()
		a := mocks.NewTask(task.KindRecommendations)
		a.Start(context.Background())

		started, err := q.Enqueue(a)
		assert.ErrorIs(t, err, task.ErrTaskAlreadySubmitted)
		assert.False(t, started)
		assert.False(t, a.InQueue())
		assert.Equal(t, 0, q.Len())
	})

	t.Run("completed task submitted again", func(t *testing.T) {
		q, _ := newTestQueue()
		a := mocks.NewTask(task.KindMarkSeen)

		_, err := q.Enqueue(a)
		require.NoError(t, err)
		require.True(t, q.Complete(a, true))

		_, err = q.Enqueue(a)
		assert.ErrorIs(t, err, task.ErrTaskAlreadySubmitted)
		assert.Equal(t, 0, q.Len())
		assert.Equal(t, 1, a.Starts())
	})
}

func TestQueueScenario(t *testing.T) {
	q, _ := newTestQueue()
	a := mocks.NewTask(task.KindUpdateShows)
	b := mocks.NewTask(task.KindMarkSeen)

	q.Enqueue(a)
	assert.Equal(t, 1, a.Starts())

	q.Enqueue(b)
	assert.Equal(t, 0, b.Starts(), "B must not start while A is active")

	assert.True(t, q.Complete(a, true))
	assert.Equal(t, 1, b.Starts(), "B starts once A completes")

	active, ok := q.Active()
	require.True(t, ok)
	assert.Equal(t, b.ID(), active.ID())

	assert.True(t, q.Complete(b, true))
	active, ok = q.Active()
	assert.False(t, ok)
	assert.Nil(t, active)
	assert.Equal(t, 0, q.Len())
}

func TestQueueFIFO(t *testing.T) {
	q, _ := newTestQueue()
	tasks := make([]*mocks.Task, 5)
	for i := range tasks {
		tasks[i] = mocks.NewTask(task.KindRate)
		q.Enqueue(tasks[i])

		active, ok := q.Active()
		require.True(t, ok)
		assert.Equal(t, tasks[0].ID(), active.ID(), "head is the earliest uncompleted task")
	}

	for i := range tasks {
		active, ok := q.Active()
		require.True(t, ok)
		assert.Equal(t, tasks[i].ID(), active.ID())
		assert.Equal(t, 1, tasks[i].Starts())
		if i+1 < len(tasks) {
			assert.Equal(t, 0, tasks[i+1].Starts())
		}

		require.True(t, q.Complete(tasks[i], true))
	}

	assert.Equal(t, 0, q.Len())
}

func TestQueueComplete(t *testing.T) {
	t.Run("completion reported twice advances once", func(t *testing.T) {
		q, _ := newTestQueue()
		a := mocks.NewTask(task.KindRate)
		b := mocks.NewTask(task.KindRate)
		c := mocks.NewTask(task.KindRate)
		q.Enqueue(a)
		q.Enqueue(b)
		q.Enqueue(c)

		assert.True(t, q.Complete(a, true))
		assert.False(t, q.Complete(a, true))

		active, ok := q.Active()
		require.True(t, ok)
		assert.Equal(t, b.ID(), active.ID())
		assert.Equal(t, 2, q.Len())
		assert.Equal(t, 1, b.Starts())
		assert.Equal(t, 0, c.Starts())
	})

	t.Run("ad hoc completion never mutates the queue", func(t *testing.T) {
		q, _ := newTestQueue()
		a := mocks.NewTask(task.KindRate)
		b := mocks.NewTask(task.KindRate)
		q.Enqueue(a)
		q.Enqueue(b)

		assert.False(t, q.Complete(a, false))
		adHoc := mocks.NewTask(task.KindLibrary)
		assert.False(t, q.Complete(adHoc, false))

		assert.Equal(t, []task.Task{a, b}, q.Snapshot())
		assert.Equal(t, 0, b.Starts())
	})

	t.Run("completion of a pending task does not pop the head", func(t *testing.T) {
		q, _ := newTestQueue()
		a := mocks.NewTask(task.KindRate)
		b := mocks.NewTask(task.KindRate)
		q.Enqueue(a)
		q.Enqueue(b)

		assert.False(t, q.Complete(b, true))
		assert.Equal(t, []task.Task{a, b}, q.Snapshot())
	})

	t.Run("completion on an empty queue is a no-op", func(t *testing.T) {
		q, _ := newTestQueue()
		assert.False(t, q.Complete(mocks.NewTask(task.KindRate), true))
		assert.Equal(t, 0, q.Len())
	})

	t.Run("non-active completion is logged", func(t *testing.T) {
		logBuf, log, cleanup := logger.SetupTestLogger(t, nil)
		defer cleanup()

		q := task.NewQueue(context.Background(), log)
		q.Complete(mocks.NewTask(task.KindRate), true)

		entries, err := logBuf.GetLogEntries()
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		last := entries[len(entries)-1]
		assert.Equal(t, "WARN", last["level"])
		assert.Equal(t, "ignoring completion of a task that is not active", last["msg"])
	})
}

func TestQueueIntrospection(t *testing.T) {
	q, _ := newTestQueue()

	assert.False(t, q.IsKindActive(task.KindUpdateShows))
	assert.False(t, q.IsHeadOfKind(func(task.Task) bool { return true }))

	update := mocks.NewTask(task.KindUpdateShows)
	rate := mocks.NewTask(task.KindRate)
	q.Enqueue(update)
	q.Enqueue(rate)

	assert.True(t, q.IsKindActive(task.KindUpdateShows))
	assert.False(t, q.IsKindActive(task.KindRate), "pending tasks are not active")
	assert.True(t, q.IsHeadOfKind(func(t task.Task) bool { return t.ID() == update.ID() }))

	q.Complete(update, true)
	assert.True(t, q.IsKindActive(task.KindRate))
}

func TestQueueSharedLocker(t *testing.T) {
	var mu sync.Mutex
	q := task.NewQueue(context.Background(), setupTestLogger(), task.WithLocker(&mu))

	a := mocks.NewTask(task.KindRate)
	q.Enqueue(a)

	require.True(t, mu.TryLock(), "queue must release the shared lock after Enqueue")
	mu.Unlock()
	assert.Equal(t, 1, q.Len())
}

func TestQueueDeferralIsLoggedByDefault(t *testing.T) {
	logBuf, log, cleanup := logger.SetupTestLogger(t, nil)
	defer cleanup()

	q := task.NewQueue(context.Background(), log)
	q.Enqueue(mocks.NewTask(task.KindRate))
	q.Enqueue(mocks.NewTask(task.KindRate))

	entries, err := logBuf.GetLogEntries()
	require.NoError(t, err)

	var found bool
	for _, e := range entries {
		if e["msg"] == task.DefaultDeferredMessage {
			found = true
			assert.Equal(t, "deferral_notifier", e["component"])
			assert.EqualValues(t, 1, e["position"])
		}
	}
	assert.True(t, found, "default notifier should log the deferred message")
}

func TestQueueConcurrentSubmitAndComplete(t *testing.T) {
	q, _ := newTestQueue()

	const taskCount = 50
	completions := make(chan task.Task, taskCount)

	var wg sync.WaitGroup
	for i := 0; i < taskCount; i++ {
		tk := mocks.NewTask(task.KindRate)
		tk.StartFn = func(ctx context.Context) {
			completions <- tk
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue(tk)
		}()
	}

	started := 0
	for started < taskCount {
		active := <-completions
		started++
		require.True(t, q.Complete(active, true))
	}
	wg.Wait()

	assert.Equal(t, 0, q.Len())
}
