package checkout

import (
	"context"
	"errors"
	"net/http"
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
	"github.com/twofourteen/backend-scents/internal/events"
	"github.com/twofourteen/backend-scents/internal/order"
	"github.com/twofourteen/backend-scents/internal/payment"
)

type fakeCheckoutQueries struct {
	products map[string]db.Product
}

func (f *fakeCheckoutQueries) addProduct(t *testing.T, name, base string, discount *string) db.Product {
	t.Helper()
	id, err := db.UUID(uuid.NewString())
	require.NoError(t, err)
	p := db.Product{
		ID:        id,
		Name:      name,
		Slug:      name,
		BasePrice: decimal.RequireFromString(base),
		IsActive:  true,
	}
	if discount != nil {
		d := decimal.RequireFromString(*discount)
		p.DiscountPrice = &d
	}
	if f.products == nil {
		f.products = map[string]db.Product{}
	}
	f.products[db.UUIDString(id)] = p
	return p
}

func (f *fakeCheckoutQueries) GetProductByID(_ context.Context, id pgtype.UUID) (db.Product, error) {
	p, ok := f.products[db.UUIDString(id)]
	if !ok {
		return db.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

type fakeOrderStore struct {
	order db.Order
	items []db.OrderItem
	event db.InsertDomainEventParams
	calls int
	err   error
}

func (f *fakeOrderStore) CreateOrderWithItems(_ context.Context, ord db.CreateOrderParams, items []db.CreateOrderItemParams, event db.InsertDomainEventParams) (db.Order, []db.OrderItem, error) {
	f.calls++
	if f.err != nil {
		return db.Order{}, nil, f.err
	}
	created := db.Order{
		OrderNumber:           ord.OrderNumber,
		UserID:                ord.UserID,
		CustomerName:          ord.CustomerName,
		CustomerEmail:         ord.CustomerEmail,
		CustomerPhone:         ord.CustomerPhone,
		ShippingAddress:       ord.ShippingAddress,
		BillingAddress:        ord.BillingAddress,
		Subtotal:              ord.Subtotal,
		Tax:                   ord.Tax,
		ShippingCost:          ord.ShippingCost,
		Discount:              ord.Discount,
		Total:                 ord.Total,
		Currency:              ord.Currency,
		PaymentMethod:         ord.PaymentMethod,
		Status:                ord.Status,
		PaymentStatus:         ord.PaymentStatus,
		StripePaymentIntentID: ord.StripePaymentIntentID,
	}
	_ = created.ID.Scan(uuid.NewString())
	createdItems := make([]db.OrderItem, 0, len(items))
	for _, item := range items {
		oi := db.OrderItem{
			OrderID:     created.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			VariantSize: item.VariantSize,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
		_ = oi.ID.Scan(uuid.NewString())
		createdItems = append(createdItems, oi)
	}
	f.order = created
	f.items = createdItems
	f.event = event
	return created, createdItems, nil
}

type fakeCarts struct {
	cleared []string
	err     error
}

func (f *fakeCarts) Clear(_ context.Context, userID string) error {
	if f.err != nil {
		return f.err
	}
	f.cleared = append(f.cleared, userID)
	return nil
}

type fakeProvider struct {
	intent  payment.Intent
	err     error
	amounts []int64
}

func (p *fakeProvider) CreateIntent(_ context.Context, amount int64, _ string) (payment.Intent, error) {
	p.amounts = append(p.amounts, amount)
	if p.err != nil {
		return payment.Intent{}, p.err
	}
	return p.intent, nil
}

type fakeNotifier struct {
	events []db.DomainEvent
	err    error
}

func (n *fakeNotifier) Notify(_ context.Context, ev db.DomainEvent) error {
	n.events = append(n.events, ev)
	return n.err
}

type checkoutFixture struct {
	queries  *fakeCheckoutQueries
	store    *fakeOrderStore
	carts    *fakeCarts
	provider *fakeProvider
	notifier *fakeNotifier
	service  *Service
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	f := &checkoutFixture{
		queries:  &fakeCheckoutQueries{},
		store:    &fakeOrderStore{},
		carts:    &fakeCarts{},
		provider: &fakeProvider{intent: payment.Intent{IntentID: "pi_123", ClientSecret: "pi_123_secret"}},
		notifier: &fakeNotifier{},
	}
	f.service = NewService(ServiceConfig{
		Queries:          f.queries,
		Store:            f.store,
		Carts:            f.carts,
		Provider:         f.provider,
		Notifiers:        []events.Notifier{f.notifier},
		TaxRate:          decimal.RequireFromString("0.1"),
		ShippingFlatCost: decimal.RequireFromString("10"),
		Currency:         "USD",
		Now:              func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) },
		Logger:           zerolog.Nop(),
	})
	return f
}

func validRequest(productID string) Request {
	addr := Address{
		AddressLine1: "12 Rue des Parfums",
		City:         "Paris",
		PostalCode:   "75001",
		Country:      "FR",
	}
	return Request{
		Customer: Customer{
			Name:  "Ava Laurent",
			Email: "ava@example.com",
			Phone: "+12025550199",
		},
		ShippingAddress: addr,
		BillingAddress:  addr,
		Items:           []Line{{ProductID: productID, VariantSize: 100, Quantity: 2}},
		PaymentMethod:   "CASH_ON_DELIVERY",
	}
}

func TestPlaceOrderCashOnDelivery(t *testing.T) {
	f := newCheckoutFixture(t)
	product := f.queries.addProduct(t, "Noir Intense", "179.99", strPtr("159.99"))
	userID := uuid.NewString()

	view, err := f.service.PlaceOrder(context.Background(), userID, validRequest(db.UUIDString(product.ID)))
	require.NoError(t, err)

	require.Equal(t, order.StatusPending, view.Status)
	require.Equal(t, order.PaymentPending, view.PaymentStatus)
	require.True(t, view.Subtotal.Equal(decimal.RequireFromString("319.98")))
	require.True(t, view.Tax.Equal(decimal.RequireFromString("31.998")))
	require.True(t, view.ShippingCost.Equal(decimal.RequireFromString("10")))
	require.True(t, view.Total.Equal(decimal.RequireFromString("361.978")))
	require.Len(t, view.Items, 1)
	require.Equal(t, "Noir Intense", view.Items[0].ProductName)

	require.Equal(t, []string{userID}, f.carts.cleared)
	require.Empty(t, f.provider.amounts)
	require.Equal(t, events.TopicOrderCreated, f.store.event.Topic)
	require.Len(t, f.notifier.events, 1)
}

func TestPlaceOrderCardCreatesIntent(t *testing.T) {
	f := newCheckoutFixture(t)
	product := f.queries.addProduct(t, "Noir Intense", "179.99", strPtr("159.99"))

	req := validRequest(db.UUIDString(product.ID))
	req.PaymentMethod = "CARD"
	view, err := f.service.PlaceOrder(context.Background(), uuid.NewString(), req)
	require.NoError(t, err)

	require.Equal(t, order.StatusPaid, view.Status)
	require.Equal(t, order.PaymentPaid, view.PaymentStatus)
	require.Equal(t, []int64{36198}, f.provider.amounts)
	require.NotNil(t, view.StripePaymentIntentID)
	require.Equal(t, "pi_123", *view.StripePaymentIntentID)
}

func TestPlaceOrderCardWithClientIntentSkipsProvider(t *testing.T) {
	f := newCheckoutFixture(t)
	product := f.queries.addProduct(t, "Fleur Blanche", "129.99", nil)

	req := validRequest(db.UUIDString(product.ID))
	req.PaymentMethod = "CARD"
	req.PaymentIntentID = "pi_client_77"
	view, err := f.service.PlaceOrder(context.Background(), uuid.NewString(), req)
	require.NoError(t, err)

	require.Empty(t, f.provider.amounts)
	require.Equal(t, "pi_client_77", *view.StripePaymentIntentID)
}

func TestPlaceOrderProviderFailureAbortsBeforeWrite(t *testing.T) {
	f := newCheckoutFixture(t)
	f.provider.err = errors.New("stripe unavailable")
	product := f.queries.addProduct(t, "Noir Intense", "159.99", nil)

	req := validRequest(db.UUIDString(product.ID))
	req.PaymentMethod = "CARD"
	_, err := f.service.PlaceOrder(context.Background(), uuid.NewString(), req)

	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "PAYMENT_PROVIDER_ERROR", appErr.Code)
	require.Equal(t, 0, f.store.calls)
	require.Empty(t, f.carts.cleared)
}

func TestPlaceOrderCartClearFailureStillSucceeds(t *testing.T) {
	f := newCheckoutFixture(t)
	f.carts.err = errors.New("redis down")
	product := f.queries.addProduct(t, "Noir Intense", "159.99", nil)

	_, err := f.service.PlaceOrder(context.Background(), uuid.NewString(), validRequest(db.UUIDString(product.ID)))
	require.NoError(t, err)
	require.Equal(t, 1, f.store.calls)
}

func TestPlaceOrderNotifierFailureStillSucceeds(t *testing.T) {
	f := newCheckoutFixture(t)
	f.notifier.err = errors.New("queue full")
	product := f.queries.addProduct(t, "Noir Intense", "159.99", nil)

	_, err := f.service.PlaceOrder(context.Background(), uuid.NewString(), validRequest(db.UUIDString(product.ID)))
	require.NoError(t, err)
}

func TestPlaceOrderGuest(t *testing.T) {
	f := newCheckoutFixture(t)
	product := f.queries.addProduct(t, "Fleur Blanche", "129.99", nil)

	view, err := f.service.PlaceOrder(context.Background(), "", validRequest(db.UUIDString(product.ID)))
	require.NoError(t, err)
	require.Empty(t, f.carts.cleared)
	require.NotEmpty(t, view.OrderNumber)
	require.False(t, f.store.order.UserID.Valid)
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newCheckoutFixture(t)
	product := f.queries.addProduct(t, "Noir Intense", "159.99", nil)

	req := validRequest(db.UUIDString(product.ID))
	req.Customer.Email = "not-an-email"
	_, err := f.service.PlaceOrder(context.Background(), "", req)
	requireValidationError(t, err)

	req = validRequest(db.UUIDString(product.ID))
	req.Customer.Phone = "12345"
	_, err = f.service.PlaceOrder(context.Background(), "", req)
	requireValidationError(t, err)

	req = validRequest(db.UUIDString(product.ID))
	req.Items = nil
	_, err = f.service.PlaceOrder(context.Background(), "", req)
	requireValidationError(t, err)

	req = validRequest(db.UUIDString(product.ID))
	req.PaymentMethod = "WIRE"
	_, err = f.service.PlaceOrder(context.Background(), "", req)
	requireValidationError(t, err)

	req = validRequest(db.UUIDString(product.ID))
	req.ShippingAddress.AddressLine1 = "x"
	_, err = f.service.PlaceOrder(context.Background(), "", req)
	requireValidationError(t, err)

	require.Equal(t, 0, f.store.calls)
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.service.PlaceOrder(context.Background(), "", validRequest(uuid.NewString()))
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
}

func requireValidationError(t *testing.T, err error) {
	t.Helper()
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func strPtr(s string) *string { return &s }
