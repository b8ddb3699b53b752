package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/twofourteen/backend-scents/internal/db"
)

type memStore struct {
	events []db.DomainEvent
	err    error
}

func (m *memStore) InsertDomainEvent(_ context.Context, arg db.InsertDomainEventParams) (db.DomainEvent, error) {
	if m.err != nil {
		return db.DomainEvent{}, m.err
	}
	ev := db.DomainEvent{
		Topic:       arg.Topic,
		AggregateID: arg.AggregateID,
		Payload:     arg.Payload,
	}
	_ = ev.ID.Scan(uuid.NewString())
	m.events = append(m.events, ev)
	return ev, nil
}

type recordingNotifier struct {
	seen []db.DomainEvent
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, ev db.DomainEvent) error {
	n.seen = append(n.seen, ev)
	return n.err
}

func testAggregateID(t *testing.T) pgtype.UUID {
	t.Helper()
	var id pgtype.UUID
	if err := id.Scan(uuid.NewString()); err != nil {
		t.Fatalf("scan uuid: %v", err)
	}
	return id
}

func TestEmitPersistsAndFansOut(t *testing.T) {
	store := &memStore{}
	first := &recordingNotifier{}
	second := &recordingNotifier{}
	bus := &Bus{Store: store, Notifiers: []Notifier{first, second}}

	ev, err := bus.Emit(context.Background(), TopicOrderCreated, testAggregateID(t), map[string]string{"order_number": "ORD-20260831-4F21A9"})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if ev.Topic != TopicOrderCreated {
		t.Fatalf("topic = %q", ev.Topic)
	}
	if len(store.events) != 1 {
		t.Fatalf("persisted %d events", len(store.events))
	}
	if len(first.seen) != 1 || len(second.seen) != 1 {
		t.Fatalf("fan-out missed a notifier: %d/%d", len(first.seen), len(second.seen))
	}
}

func TestEmitNotifierFailureKeepsEvent(t *testing.T) {
	store := &memStore{}
	failing := &recordingNotifier{err: errors.New("smtp down")}
	bus := &Bus{Store: store, Notifiers: []Notifier{failing}}

	_, err := bus.Emit(context.Background(), TopicOrderPaid, testAggregateID(t), nil)
	if err == nil {
		t.Fatal("expected joined notifier error")
	}
	if len(store.events) != 1 {
		t.Fatalf("persisted %d events, want 1", len(store.events))
	}
}

func TestEmitRequiresTopicAndAggregate(t *testing.T) {
	bus := &Bus{Store: &memStore{}}

	if _, err := bus.Emit(context.Background(), "  ", testAggregateID(t), nil); err == nil {
		t.Fatal("expected error for blank topic")
	}
	if _, err := bus.Emit(context.Background(), TopicOrderCreated, pgtype.UUID{}, nil); err == nil {
		t.Fatal("expected error for missing aggregate id")
	}
}

func TestEmitStoreFailure(t *testing.T) {
	failing := &recordingNotifier{}
	bus := &Bus{Store: &memStore{err: errors.New("db down")}, Notifiers: []Notifier{failing}}

	if _, err := bus.Emit(context.Background(), TopicOrderCreated, testAggregateID(t), nil); err == nil {
		t.Fatal("expected store error")
	}
	if len(failing.seen) != 0 {
		t.Fatal("notifier ran despite persist failure")
	}
}

func TestEmitRejectsInvalidJSONPayload(t *testing.T) {
	bus := &Bus{Store: &memStore{}}

	if _, err := bus.Emit(context.Background(), TopicOrderCreated, testAggregateID(t), []byte("{not json")); err == nil {
		t.Fatal("expected payload validation error")
	}
}
