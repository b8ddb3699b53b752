package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/twofourteen/backend-scents/internal/db"
)

// EventStore defines the persistence operations required by the event bus.
type EventStore interface {
	InsertDomainEvent(ctx context.Context, arg db.InsertDomainEventParams) (db.DomainEvent, error)
}

// Notifier reacts to emitted events (email, metrics, and so on).
type Notifier interface {
	Notify(ctx context.Context, event db.DomainEvent) error
}

// Bus persists domain events and fans them out to downstream handlers.
// Notifier failures are joined into the returned error but never undo the
// persisted event.
type Bus struct {
	Store     EventStore
	Notifiers []Notifier
}

// Emit records the event and dispatches it to all configured notifiers.
func (b *Bus) Emit(ctx context.Context, topic string, aggregateID pgtype.UUID, payload any) (db.DomainEvent, error) {
	if b == nil || b.Store == nil {
		return db.DomainEvent{}, errors.New("events: store not configured")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return db.DomainEvent{}, errors.New("events: topic is required")
	}
	if !aggregateID.Valid {
		return db.DomainEvent{}, errors.New("events: aggregate id is required")
	}
	encoded, err := encodePayload(payload)
	if err != nil {
		return db.DomainEvent{}, fmt.Errorf("events: encode payload: %w", err)
	}
	ev, err := b.Store.InsertDomainEvent(ctx, db.InsertDomainEventParams{
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     encoded,
	})
	if err != nil {
		return db.DomainEvent{}, fmt.Errorf("events: persist event: %w", err)
	}
	var joined error
	for _, notifier := range b.Notifiers {
		if notifier == nil {
			continue
		}
		if notifyErr := notifier.Notify(ctx, ev); notifyErr != nil {
			joined = errors.Join(joined, fmt.Errorf("events: notifier: %w", notifyErr))
		}
	}
	return ev, joined
}

func encodePayload(payload any) ([]byte, error) {
	if payload == nil {
		return []byte("{}"), nil
	}
	switch v := payload.(type) {
	case []byte:
		if len(v) == 0 {
			return []byte("{}"), nil
		}
		if !json.Valid(v) {
			return nil, errors.New("payload is not valid json")
		}
		return append([]byte(nil), v...), nil
	case json.RawMessage:
		return encodePayload([]byte(v))
	case string:
		return encodePayload([]byte(v))
	default:
		return json.Marshal(v)
	}
}
