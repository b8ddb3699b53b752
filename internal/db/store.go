package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store runs multi-statement writes inside a single transaction.
type Store struct {
	Pool *pgxpool.Pool
	Q    *Queries
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool, Q: New(pool)}
}

// CreateOrderWithItems writes the order header, its lines and an
// order.created event atomically. Either all rows land or none do.
func (s *Store) CreateOrderWithItems(ctx context.Context, order CreateOrderParams, items []CreateOrderItemParams, event InsertDomainEventParams) (Order, []OrderItem, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	qtx := s.Q.WithTx(tx)

	created, err := qtx.CreateOrder(ctx, order)
	if err != nil {
		return Order{}, nil, err
	}
	lines := make([]OrderItem, 0, len(items))
	for _, item := range items {
		item.OrderID = created.ID
		line, err := qtx.CreateOrderItem(ctx, item)
		if err != nil {
			return Order{}, nil, err
		}
		lines = append(lines, line)
	}
	event.AggregateID = created.ID
	if _, err := qtx.InsertDomainEvent(ctx, event); err != nil {
		return Order{}, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, nil, err
	}
	return created, lines, nil
}
