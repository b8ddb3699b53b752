package order

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/twofourteen/backend-scents/internal/common"
	"github.com/twofourteen/backend-scents/internal/db"
)

type fakeOrderQueries struct {
	orders map[string]db.Order
	items  map[string][]db.OrderItem
}

func newFakeOrderQueries() *fakeOrderQueries {
	return &fakeOrderQueries{
		orders: map[string]db.Order{},
		items:  map[string][]db.OrderItem{},
	}
}

func (f *fakeOrderQueries) addOrder(t *testing.T, userID string, status string) db.Order {
	t.Helper()
	uID, err := db.UUID(userID)
	require.NoError(t, err)
	ord := db.Order{
		OrderNumber:     NewOrderNumber(time.Now()),
		UserID:          uID,
		CustomerName:    "Ava Laurent",
		CustomerEmail:   "ava@example.com",
		CustomerPhone:   "+12025550199",
		ShippingAddress: []byte(`{"city":"Paris"}`),
		BillingAddress:  []byte(`{"city":"Paris"}`),
		Subtotal:        decimal.RequireFromString("319.98"),
		Tax:             decimal.RequireFromString("31.998"),
		ShippingCost:    decimal.RequireFromString("10"),
		Discount:        decimal.Zero,
		Total:           decimal.RequireFromString("361.978"),
		Currency:        "USD",
		PaymentMethod:   "CASH_ON_DELIVERY",
		Status:          status,
		PaymentStatus:   PaymentPending,
	}
	_ = ord.ID.Scan(uuid.NewString())
	f.orders[db.UUIDString(ord.ID)] = ord
	return ord
}

func (f *fakeOrderQueries) GetOrderByID(_ context.Context, id pgtype.UUID) (db.Order, error) {
	ord, ok := f.orders[db.UUIDString(id)]
	if !ok {
		return db.Order{}, pgx.ErrNoRows
	}
	return ord, nil
}

func (f *fakeOrderQueries) GetOrderByNumber(_ context.Context, orderNumber string) (db.Order, error) {
	for _, ord := range f.orders {
		if ord.OrderNumber == orderNumber {
			return ord, nil
		}
	}
	return db.Order{}, pgx.ErrNoRows
}

func (f *fakeOrderQueries) ListOrdersByUser(_ context.Context, arg db.ListOrdersByUserParams) ([]db.Order, error) {
	rows := []db.Order{}
	for _, ord := range f.orders {
		if db.UUIDEqual(ord.UserID, arg.UserID) {
			rows = append(rows, ord)
		}
	}
	return rows, nil
}

func (f *fakeOrderQueries) CountOrdersByUser(_ context.Context, userID pgtype.UUID) (int64, error) {
	var n int64
	for _, ord := range f.orders {
		if db.UUIDEqual(ord.UserID, userID) {
			n++
		}
	}
	return n, nil
}

func (f *fakeOrderQueries) ListOrderItemsByOrder(_ context.Context, orderID pgtype.UUID) ([]db.OrderItem, error) {
	return f.items[db.UUIDString(orderID)], nil
}

func (f *fakeOrderQueries) UpdateOrderStatus(_ context.Context, arg db.UpdateOrderStatusParams) (db.Order, error) {
	ord, ok := f.orders[db.UUIDString(arg.ID)]
	if !ok {
		return db.Order{}, pgx.ErrNoRows
	}
	ord.Status = arg.Status
	f.orders[db.UUIDString(arg.ID)] = ord
	return ord, nil
}

func (f *fakeOrderQueries) UpdateOrderPaymentStatus(_ context.Context, arg db.UpdateOrderPaymentStatusParams) (db.Order, error) {
	ord, ok := f.orders[db.UUIDString(arg.ID)]
	if !ok {
		return db.Order{}, pgx.ErrNoRows
	}
	ord.PaymentStatus = arg.PaymentStatus
	f.orders[db.UUIDString(arg.ID)] = ord
	return ord, nil
}

func (f *fakeOrderQueries) SetOrderTracking(_ context.Context, arg db.SetOrderTrackingParams) (db.Order, error) {
	ord, ok := f.orders[db.UUIDString(arg.ID)]
	if !ok {
		return db.Order{}, pgx.ErrNoRows
	}
	ord.TrackingNumber = arg.TrackingNumber
	f.orders[db.UUIDString(arg.ID)] = ord
	return ord, nil
}

type recordingEmitter struct {
	topics []string
}

func (e *recordingEmitter) Emit(_ context.Context, topic string, _ pgtype.UUID, _ any) (db.DomainEvent, error) {
	e.topics = append(e.topics, topic)
	return db.DomainEvent{Topic: topic}, nil
}

func newOrderService(q Querier, emitter EventEmitter) *Service {
	return NewService(ServiceConfig{Queries: q, Events: emitter, Logger: zerolog.Nop()})
}

func TestGetByIDAuthorization(t *testing.T) {
	q := newFakeOrderQueries()
	svc := newOrderService(q, nil)
	owner := uuid.NewString()
	other := uuid.NewString()
	ord := q.addOrder(t, owner, StatusPending)
	orderID := db.UUIDString(ord.ID)

	view, err := svc.GetByID(context.Background(), Principal{UserID: owner}, orderID)
	require.NoError(t, err)
	require.Equal(t, ord.OrderNumber, view.OrderNumber)

	_, err = svc.GetByID(context.Background(), Principal{UserID: other}, orderID)
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, http.StatusForbidden, appErr.HTTPStatus)

	_, err = svc.GetByID(context.Background(), Principal{UserID: other, Admin: true}, orderID)
	require.NoError(t, err)
}

func TestGetByIDUnknownOrder(t *testing.T) {
	svc := newOrderService(newFakeOrderQueries(), nil)

	_, err := svc.GetByID(context.Background(), Principal{UserID: uuid.NewString(), Admin: true}, uuid.NewString())
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
}

func TestListByUserOrderNumberFilter(t *testing.T) {
	q := newFakeOrderQueries()
	svc := newOrderService(q, nil)
	owner := uuid.NewString()
	ord := q.addOrder(t, owner, StatusPending)
	q.addOrder(t, owner, StatusPaid)

	result, err := svc.ListByUser(context.Background(), owner, 1, 20, ord.OrderNumber)
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	require.Equal(t, ord.OrderNumber, result.Orders[0].OrderNumber)

	// someone else's order number yields an empty page, not a leak
	result, err = svc.ListByUser(context.Background(), uuid.NewString(), 1, 20, ord.OrderNumber)
	require.NoError(t, err)
	require.Empty(t, result.Orders)
}

func TestUpdateStatusEnforcesTransitions(t *testing.T) {
	q := newFakeOrderQueries()
	emitter := &recordingEmitter{}
	svc := newOrderService(q, emitter)
	ord := q.addOrder(t, uuid.NewString(), StatusPending)
	orderID := db.UUIDString(ord.ID)

	view, err := svc.UpdateStatus(context.Background(), orderID, StatusPaid)
	require.NoError(t, err)
	require.Equal(t, StatusPaid, view.Status)
	require.Equal(t, []string{"order.paid"}, emitter.topics)

	_, err = svc.UpdateStatus(context.Background(), orderID, StatusDelivered)
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, http.StatusConflict, appErr.HTTPStatus)
	require.Equal(t, StatusPaid, q.orders[orderID].Status)

	_, err = svc.UpdateStatus(context.Background(), orderID, StatusProcessing)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), orderID, StatusShipped)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), orderID, StatusDelivered)
	require.NoError(t, err)
	require.Equal(t, []string{"order.paid", "order.shipped", "order.delivered"}, emitter.topics)
}

func TestUpdatePaymentStatusValidation(t *testing.T) {
	q := newFakeOrderQueries()
	svc := newOrderService(q, nil)
	ord := q.addOrder(t, uuid.NewString(), StatusPending)

	view, err := svc.UpdatePaymentStatus(context.Background(), db.UUIDString(ord.ID), PaymentRefunded)
	require.NoError(t, err)
	require.Equal(t, PaymentRefunded, view.PaymentStatus)

	_, err = svc.UpdatePaymentStatus(context.Background(), db.UUIDString(ord.ID), "SETTLED")
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
}

func TestSetTracking(t *testing.T) {
	q := newFakeOrderQueries()
	svc := newOrderService(q, nil)
	ord := q.addOrder(t, uuid.NewString(), StatusShipped)

	view, err := svc.SetTracking(context.Background(), db.UUIDString(ord.ID), "1Z999AA10123456784")
	require.NoError(t, err)
	require.NotNil(t, view.TrackingNumber)
	require.Equal(t, "1Z999AA10123456784", *view.TrackingNumber)

	_, err = svc.SetTracking(context.Background(), db.UUIDString(ord.ID), "")
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
}

func TestNewOrderNumberShape(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	n := NewOrderNumber(now)
	require.True(t, strings.HasPrefix(n, "ORD-20260831-"), n)
	require.Len(t, n, len("ORD-20260831-")+6)
	require.NotEqual(t, n, NewOrderNumber(now))
}
