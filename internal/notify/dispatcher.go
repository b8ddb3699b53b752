package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/twofourteen/backend-scents/internal/db"
)

// TaskEmailSend is the asynq task type consumed by the worker.
const TaskEmailSend = "email:send"

// Enqueuer is the subset of asynq.Client the dispatcher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NewEmailTask wraps a rendered message in an asynq task.
func NewEmailTask(msg Message) (*asynq.Task, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEmailSend, body, asynq.MaxRetry(5)), nil
}

// EmailNotifier renders events into emails and hands them to the task
// queue. It implements events.Notifier; events without a recipient are
// skipped silently.
type EmailNotifier struct {
	Queue Enqueuer
}

// Notify implements events.Notifier.
func (n EmailNotifier) Notify(ctx context.Context, event db.DomainEvent) error {
	if n.Queue == nil {
		return nil
	}
	msg, ok := Render(event)
	if !ok {
		return nil
	}
	task, err := NewEmailTask(msg)
	if err != nil {
		return fmt.Errorf("notify: build email task: %w", err)
	}
	if _, err := n.Queue.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("notify: enqueue email: %w", err)
	}
	return nil
}
