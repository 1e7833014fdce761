package task

import "log/slog"

// DefaultDeferredMessage is what users are told when their action waits
// behind another one.
const DefaultDeferredMessage = "This action will be done later..."

// LogNotifier reports deferred tasks through the logger. It stands in for a
// user-facing notification surface.
type LogNotifier struct {
	logger  *slog.Logger
	message string
}

// NewLogNotifier creates a LogNotifier. An empty message selects
// DefaultDeferredMessage.
func NewLogNotifier(logger *slog.Logger, message string) *LogNotifier {
	if message == "" {
		message = DefaultDeferredMessage
	}
	return &LogNotifier{
		logger:  logger.With("component", "deferral_notifier"),
		message: message,
	}
}

// Deferred implements DeferralNotifier.
func (n *LogNotifier) Deferred(task Task, position int) {
	n.logger.Info(n.message,
		"task_id", task.ID(),
		"task_kind", task.Kind(),
		"position", position)
}

var _ DeferralNotifier = (*LogNotifier)(nil)
