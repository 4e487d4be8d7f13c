package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/OpenSkyDrones/opensky/internal/model"
)

const (
	defaultMaxRetry = 5

	// QueueName is the asynq queue that carries contact notifications.
	QueueName = "notifications"
)

var errQueueNotInitialized = errors.New("notification queue not initialized")

// TaskEnqueuer is the subset of *asynq.Client used to schedule notifications.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier schedules contact notifications on the asynq queue.
type QueueNotifier struct {
	logger   *zap.Logger
	enqueuer TaskEnqueuer
	maxRetry int
}

// NewQueueNotifier builds a notifier. Non-positive maxRetry uses the default.
func NewQueueNotifier(logger *zap.Logger, enqueuer TaskEnqueuer, maxRetry int) *QueueNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetry <= 0 {
		maxRetry = defaultMaxRetry
	}
	return &QueueNotifier{logger: logger, enqueuer: enqueuer, maxRetry: maxRetry}
}

// NotifyContact enqueues a notification task for the submission.
func (notifier *QueueNotifier) NotifyContact(ctx context.Context, contact model.ContactSubmission) error {
	if notifier == nil || notifier.enqueuer == nil {
		return errQueueNotInitialized
	}
	task, taskErr := NewContactTask(contact)
	if taskErr != nil {
		return taskErr
	}
	info, enqueueErr := notifier.enqueuer.EnqueueContext(ctx, task, asynq.MaxRetry(notifier.maxRetry), asynq.Queue(QueueName))
	if enqueueErr != nil {
		return fmt.Errorf("enqueue contact notification: %w", enqueueErr)
	}
	if info != nil {
		notifier.logger.Debug("contact_notification_enqueued", zap.String("contact_id", contact.ID), zap.String("task_id", info.ID))
	}
	return nil
}

// NoopNotifier discards notifications. It is used when no queue is configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyContact(context.Context, model.ContactSubmission) error {
	return nil
}
