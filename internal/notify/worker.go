package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/twofourteen/backend-scents/internal/common"
	"github.com/twofourteen/backend-scents/internal/obs"
)

// Worker consumes queued email tasks and delivers them through the
// configured sender.
type Worker struct {
	Mail   common.EmailSender
	Logger zerolog.Logger
}

// Register attaches the worker's handlers to the asynq mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskEmailSend, w.HandleEmailSend)
}

// HandleEmailSend processes one email:send task. Returning an error lets
// asynq retry with backoff.
func (w *Worker) HandleEmailSend(_ context.Context, task *asynq.Task) error {
	var msg Message
	if err := json.Unmarshal(task.Payload(), &msg); err != nil {
		// malformed payload will never succeed, drop it
		w.Logger.Error().Err(err).Msg("decode email task payload")
		return nil
	}
	if msg.To == "" {
		return nil
	}
	if w.Mail == nil {
		return fmt.Errorf("email sender not configured")
	}
	if err := w.Mail.Send(msg.To, msg.Subject, msg.HTML); err != nil {
		if obs.EmailDeliveriesTotal != nil {
			obs.EmailDeliveriesTotal.WithLabelValues("error").Inc()
		}
		w.Logger.Warn().Err(err).Str("to", msg.To).Msg("send email")
		return err
	}
	if obs.EmailDeliveriesTotal != nil {
		obs.EmailDeliveriesTotal.WithLabelValues("ok").Inc()
	}
	return nil
}
