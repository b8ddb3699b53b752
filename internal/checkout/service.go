package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/twofourteen/backend-scents/internal/common"
	"github.com/twofourteen/backend-scents/internal/db"
	"github.com/twofourteen/backend-scents/internal/events"
	"github.com/twofourteen/backend-scents/internal/obs"
	"github.com/twofourteen/backend-scents/internal/order"
	"github.com/twofourteen/backend-scents/internal/payment"
	"github.com/twofourteen/backend-scents/internal/pricing"
)

// Customer identifies who the order is for. Checkout works for guests, so
// this is payload data rather than the authenticated principal.
type Customer struct {
	Name  string `json:"name" validate:"required,min=2"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,min=10"`
}

// Address is a shipping or billing address snapshot.
type Address struct {
	AddressLine1 string `json:"address_line1" validate:"required,min=5"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city" validate:"required,min=2"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code" validate:"required,min=3"`
	Country      string `json:"country" validate:"required,min=2"`
}

// Line is one requested order line.
type Line struct {
	ProductID   string `json:"product_id" validate:"required,uuid4"`
	VariantSize int    `json:"variant_size" validate:"required,gt=0"`
	Quantity    int    `json:"quantity" validate:"required,min=1"`
}

// Request is the checkout payload.
type Request struct {
	Customer        Customer `json:"customer" validate:"required"`
	ShippingAddress Address  `json:"shipping_address" validate:"required"`
	BillingAddress  Address  `json:"billing_address" validate:"required"`
	Items           []Line   `json:"items" validate:"required,min=1,dive"`
	PaymentMethod   string   `json:"payment_method" validate:"required,oneof=CARD CASH_ON_DELIVERY"`
	PaymentIntentID string   `json:"payment_intent_id"`
}

// Querier is the subset of the query layer checkout reads from.
type Querier interface {
	GetProductByID(ctx context.Context, id pgtype.UUID) (db.Product, error)
}

// OrderStore is the durable commit point: the order, its items, and the
// order.created event land in one transaction.
type OrderStore interface {
	CreateOrderWithItems(ctx context.Context, order db.CreateOrderParams, items []db.CreateOrderItemParams, event db.InsertDomainEventParams) (db.Order, []db.OrderItem, error)
}

// CartClearer empties the buyer's cart after a successful order.
type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

// Service orchestrates checkout: validate, price, optionally open a card
// payment intent, write the order, then best-effort cleanup and fan-out.
type Service struct {
	queries   Querier
	store     OrderStore
	carts     CartClearer
	provider  payment.Provider
	notifiers []events.Notifier
	validate  *validator.Validate
	taxRate   decimal.Decimal
	shipping  decimal.Decimal
	currency  string
	now       func() time.Time
	logger    zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries          Querier
	Store            OrderStore
	Carts            CartClearer
	Provider         payment.Provider
	Notifiers        []events.Notifier
	TaxRate          decimal.Decimal
	ShippingFlatCost decimal.Decimal
	Currency         string
	Now              func() time.Time
	Logger           zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "USD"
	}
	return &Service{
		queries:   cfg.Queries,
		store:     cfg.Store,
		carts:     cfg.Carts,
		provider:  cfg.Provider,
		notifiers: cfg.Notifiers,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		taxRate:   cfg.TaxRate,
		shipping:  cfg.ShippingFlatCost,
		currency:  currency,
		now:       now,
		logger:    cfg.Logger,
	}
}

// PlaceOrder runs the checkout sequence. userID is empty for guests.
func (s *Service) PlaceOrder(ctx context.Context, userID string, req Request) (order.View, error) {
	if err := s.validate.Struct(req); err != nil {
		return order.View{}, validationError(err)
	}

	lines, pricingItems, err := s.resolveLines(ctx, req.Items)
	if err != nil {
		return order.View{}, err
	}
	summary := pricing.Compute(pricingItems, decimal.Zero, s.taxRate, s.shipping)

	intentID := req.PaymentIntentID
	status, paymentStatus := order.StatusPending, order.PaymentPending
	if req.PaymentMethod == "CARD" {
		if intentID == "" {
			minor := summary.Total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
			intent, err := s.provider.CreateIntent(ctx, minor, s.currency)
			if err != nil {
				return order.View{}, &common.AppError{
					Code:       "PAYMENT_PROVIDER_ERROR",
					Message:    "failed to create payment intent",
					HTTPStatus: http.StatusInternalServerError,
					Err:        err,
				}
			}
			intentID = intent.IntentID
		}
		status, paymentStatus = order.StatusPaid, order.PaymentPaid
	}

	shippingJSON, err := json.Marshal(req.ShippingAddress)
	if err != nil {
		return order.View{}, err
	}
	billingJSON, err := json.Marshal(req.BillingAddress)
	if err != nil {
		return order.View{}, err
	}

	params := db.CreateOrderParams{
		OrderNumber:     order.NewOrderNumber(s.now()),
		CustomerName:    req.Customer.Name,
		CustomerEmail:   req.Customer.Email,
		CustomerPhone:   req.Customer.Phone,
		ShippingAddress: shippingJSON,
		BillingAddress:  billingJSON,
		Subtotal:        summary.Subtotal,
		Tax:             summary.Tax,
		ShippingCost:    summary.Shipping,
		Discount:        summary.Discount,
		Total:           summary.Total,
		Currency:        s.currency,
		PaymentMethod:   req.PaymentMethod,
		Status:          status,
		PaymentStatus:   paymentStatus,
	}
	if userID != "" {
		uID, err := db.UUID(userID)
		if err != nil {
			return order.View{}, &common.AppError{Code: "VALIDATION_ERROR", Message: "invalid user id", HTTPStatus: http.StatusBadRequest}
		}
		params.UserID = uID
	}
	if intentID != "" {
		params.StripePaymentIntentID = pgtype.Text{String: intentID, Valid: true}
	}

	eventPayload, err := json.Marshal(map[string]any{
		"order_number":   params.OrderNumber,
		"customer_email": params.CustomerEmail,
		"total":          summary.Total,
		"payment_method": req.PaymentMethod,
	})
	if err != nil {
		return order.View{}, err
	}

	created, createdItems, err := s.store.CreateOrderWithItems(ctx, params, lines, db.InsertDomainEventParams{
		Topic:   events.TopicOrderCreated,
		Payload: eventPayload,
	})
	if err != nil {
		return order.View{}, err
	}

	// The order is durable from here on. Cleanup and notifications must
	// not fail the request.
	if userID != "" && s.carts != nil {
		if err := s.carts.Clear(ctx, userID); err != nil {
			s.logger.Warn().Err(err).Str("order_number", created.OrderNumber).Msg("clear cart after checkout")
		}
	}
	s.notify(ctx, created, eventPayload)

	if obs.OrdersCreatedTotal != nil {
		obs.OrdersCreatedTotal.WithLabelValues(req.PaymentMethod).Inc()
	}

	view := order.NewView(created)
	view.Items = make([]order.ItemView, 0, len(createdItems))
	for _, item := range createdItems {
		view.Items = append(view.Items, order.ItemView{
			ProductID:   db.UUIDString(item.ProductID),
			ProductName: item.ProductName,
			VariantSize: int(item.VariantSize),
			Quantity:    int(item.Quantity),
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return view, nil
}

// resolveLines snapshots product names and effective prices from the
// catalog. Client payloads never set prices.
func (s *Service) resolveLines(ctx context.Context, items []Line) ([]db.CreateOrderItemParams, []pricing.Item, error) {
	lines := make([]db.CreateOrderItemParams, 0, len(items))
	pricingItems := make([]pricing.Item, 0, len(items))
	for _, item := range items {
		pID, err := db.UUID(item.ProductID)
		if err != nil {
			return nil, nil, &common.AppError{Code: "VALIDATION_ERROR", Message: "invalid product id", HTTPStatus: http.StatusBadRequest}
		}
		product, err := s.queries.GetProductByID(ctx, pID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil, &common.AppError{Code: "NOT_FOUND", Message: "product not found", HTTPStatus: http.StatusNotFound}
			}
			return nil, nil, err
		}
		if !product.IsActive {
			return nil, nil, &common.AppError{Code: "NOT_FOUND", Message: "product not found", HTTPStatus: http.StatusNotFound}
		}
		unit := pricing.EffectivePrice(product.BasePrice, product.DiscountPrice)
		lines = append(lines, db.CreateOrderItemParams{
			ProductID:   pID,
			ProductName: product.Name,
			VariantSize: int32(item.VariantSize),
			Quantity:    int32(item.Quantity),
			UnitPrice:   unit,
		})
		pricingItems = append(pricingItems, pricing.Item{Qty: item.Quantity, UnitPrice: unit})
	}
	return lines, pricingItems, nil
}

func (s *Service) notify(ctx context.Context, created db.Order, payload []byte) {
	if len(s.notifiers) == 0 {
		return
	}
	event := db.DomainEvent{
		Topic:       events.TopicOrderCreated,
		AggregateID: created.ID,
		Payload:     payload,
	}
	for _, notifier := range s.notifiers {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, event); err != nil {
			s.logger.Warn().Err(err).Str("order_number", created.OrderNumber).Msg("order created notification")
		}
	}
}

// validationError flattens validator output into field-level details.
func validationError(err error) error {
	details := map[string]string{}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			details[fe.Namespace()] = fe.Tag()
		}
	}
	return &common.AppError{
		Code:       "VALIDATION_ERROR",
		Message:    "invalid checkout payload",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details:    details,
	}
}
