package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/twofourteen/backend-scents/internal/common"
	"github.com/twofourteen/backend-scents/internal/db"
	"github.com/twofourteen/backend-scents/internal/events"
)

// Querier is the subset of the query layer the order service depends on.
type Querier interface {
	GetOrderByID(ctx context.Context, id pgtype.UUID) (db.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (db.Order, error)
	ListOrdersByUser(ctx context.Context, arg db.ListOrdersByUserParams) ([]db.Order, error)
	CountOrdersByUser(ctx context.Context, userID pgtype.UUID) (int64, error)
	ListOrderItemsByOrder(ctx context.Context, orderID pgtype.UUID) ([]db.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, arg db.UpdateOrderStatusParams) (db.Order, error)
	UpdateOrderPaymentStatus(ctx context.Context, arg db.UpdateOrderPaymentStatusParams) (db.Order, error)
	SetOrderTracking(ctx context.Context, arg db.SetOrderTrackingParams) (db.Order, error)
}

// EventEmitter publishes domain events after state changes.
type EventEmitter interface {
	Emit(ctx context.Context, topic string, aggregateID pgtype.UUID, payload any) (db.DomainEvent, error)
}

// Service reads and mutates orders after checkout has written them.
type Service struct {
	queries Querier
	events  EventEmitter
	logger  zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries Querier
	Events  EventEmitter
	Logger  zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{queries: cfg.Queries, events: cfg.Events, logger: cfg.Logger}
}

// Principal identifies the caller for authorization checks.
type Principal struct {
	UserID string
	Admin  bool
}

// ItemView is an order line in responses.
type ItemView struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	VariantSize int             `json:"variant_size"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// View is the full order payload.
type View struct {
	ID                    string          `json:"id"`
	OrderNumber           string          `json:"order_number"`
	Status                string          `json:"status"`
	PaymentStatus         string          `json:"payment_status"`
	PaymentMethod         string          `json:"payment_method"`
	Currency              string          `json:"currency"`
	CustomerName          string          `json:"customer_name"`
	CustomerEmail         string          `json:"customer_email"`
	CustomerPhone         string          `json:"customer_phone"`
	ShippingAddress       json.RawMessage `json:"shipping_address"`
	BillingAddress        json.RawMessage `json:"billing_address"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	Tax                   decimal.Decimal `json:"tax"`
	ShippingCost          decimal.Decimal `json:"shipping_cost"`
	Discount              decimal.Decimal `json:"discount"`
	Total                 decimal.Decimal `json:"total"`
	TrackingNumber        *string         `json:"tracking_number,omitempty"`
	StripePaymentIntentID *string         `json:"stripe_payment_intent_id,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	Items                 []ItemView      `json:"items,omitempty"`
}

// ListResult pairs a page of orders with the total count.
type ListResult struct {
	Orders []View
	Total  int64
}

// ListByUser returns the caller's orders, newest first. A non-empty
// orderNumber narrows the result to that single order when the caller owns
// it.
func (s *Service) ListByUser(ctx context.Context, userID string, page, limit int, orderNumber string) (ListResult, error) {
	uID, err := db.UUID(userID)
	if err != nil {
		return ListResult{}, badRequest("invalid user id")
	}
	if orderNumber != "" {
		ord, err := s.queries.GetOrderByNumber(ctx, orderNumber)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ListResult{Orders: []View{}}, nil
			}
			return ListResult{}, err
		}
		if !db.UUIDEqual(ord.UserID, uID) {
			return ListResult{Orders: []View{}}, nil
		}
		view, err := s.withItems(ctx, ord)
		if err != nil {
			return ListResult{}, err
		}
		return ListResult{Orders: []View{view}, Total: 1}, nil
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	total, err := s.queries.CountOrdersByUser(ctx, uID)
	if err != nil {
		return ListResult{}, err
	}
	rows, err := s.queries.ListOrdersByUser(ctx, db.ListOrdersByUserParams{
		UserID: uID,
		Limit:  int32(limit),
		Offset: int32((page - 1) * limit),
	})
	if err != nil {
		return ListResult{}, err
	}
	views := make([]View, 0, len(rows))
	for _, ord := range rows {
		view, err := s.withItems(ctx, ord)
		if err != nil {
			return ListResult{}, err
		}
		views = append(views, view)
	}
	return ListResult{Orders: views, Total: total}, nil
}

// GetByID returns one order. Only the owning user or an admin may read it.
func (s *Service) GetByID(ctx context.Context, caller Principal, orderID string) (View, error) {
	ord, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return View{}, err
	}
	if !s.canRead(caller, ord) {
		return View{}, forbidden()
	}
	return s.withItems(ctx, ord)
}

// UpdateStatus moves an order along the status machine. Admin only, the
// handler enforces the role.
func (s *Service) UpdateStatus(ctx context.Context, orderID, status string) (View, error) {
	ord, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return View{}, err
	}
	if err := CheckTransition(ord.Status, status); err != nil {
		return View{}, err
	}
	updated, err := s.queries.UpdateOrderStatus(ctx, db.UpdateOrderStatusParams{ID: ord.ID, Status: status})
	if err != nil {
		return View{}, err
	}
	s.emitStatusEvent(ctx, updated)
	return s.withItems(ctx, updated)
}

// UpdatePaymentStatus overwrites the payment status. Admin only.
func (s *Service) UpdatePaymentStatus(ctx context.Context, orderID, paymentStatus string) (View, error) {
	if !ValidPaymentStatus(paymentStatus) {
		return View{}, badRequest("unknown payment status " + paymentStatus)
	}
	ord, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return View{}, err
	}
	updated, err := s.queries.UpdateOrderPaymentStatus(ctx, db.UpdateOrderPaymentStatusParams{ID: ord.ID, PaymentStatus: paymentStatus})
	if err != nil {
		return View{}, err
	}
	return s.withItems(ctx, updated)
}

// SetTracking records the carrier tracking number. Admin only.
func (s *Service) SetTracking(ctx context.Context, orderID, trackingNumber string) (View, error) {
	if trackingNumber == "" {
		return View{}, badRequest("tracking number is required")
	}
	ord, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return View{}, err
	}
	updated, err := s.queries.SetOrderTracking(ctx, db.SetOrderTrackingParams{
		ID:             ord.ID,
		TrackingNumber: pgtype.Text{String: trackingNumber, Valid: true},
	})
	if err != nil {
		return View{}, err
	}
	return s.withItems(ctx, updated)
}

func (s *Service) loadOrder(ctx context.Context, orderID string) (db.Order, error) {
	id, err := db.UUID(orderID)
	if err != nil {
		return db.Order{}, notFound()
	}
	ord, err := s.queries.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Order{}, notFound()
		}
		return db.Order{}, err
	}
	return ord, nil
}

func (s *Service) canRead(caller Principal, ord db.Order) bool {
	if caller.Admin {
		return true
	}
	if caller.UserID == "" || !ord.UserID.Valid {
		return false
	}
	return db.UUIDString(ord.UserID) == caller.UserID
}

// emitStatusEvent publishes the event matching the new status. Failures are
// logged, never surfaced; the status change itself already committed.
func (s *Service) emitStatusEvent(ctx context.Context, ord db.Order) {
	if s.events == nil {
		return
	}
	var topic string
	switch ord.Status {
	case StatusPaid:
		topic = events.TopicOrderPaid
	case StatusCancelled:
		topic = events.TopicOrderCancelled
	case StatusShipped:
		topic = events.TopicOrderShipped
	case StatusDelivered:
		topic = events.TopicOrderDelivered
	default:
		return
	}
	payload := map[string]string{
		"order_number":   ord.OrderNumber,
		"status":         ord.Status,
		"customer_email": ord.CustomerEmail,
	}
	if _, err := s.events.Emit(ctx, topic, ord.ID, payload); err != nil {
		s.logger.Warn().Err(err).Str("order_number", ord.OrderNumber).Str("topic", topic).Msg("emit order status event")
	}
}

func (s *Service) withItems(ctx context.Context, ord db.Order) (View, error) {
	rows, err := s.queries.ListOrderItemsByOrder(ctx, ord.ID)
	if err != nil {
		return View{}, err
	}
	items := make([]ItemView, 0, len(rows))
	for _, row := range rows {
		items = append(items, ItemView{
			ProductID:   db.UUIDString(row.ProductID),
			ProductName: row.ProductName,
			VariantSize: int(row.VariantSize),
			Quantity:    int(row.Quantity),
			UnitPrice:   row.UnitPrice,
			LineTotal:   row.UnitPrice.Mul(decimal.NewFromInt(int64(row.Quantity))),
		})
	}
	view := NewView(ord)
	view.Items = items
	return view, nil
}

// NewView maps a stored order to its response shape without items.
func NewView(ord db.Order) View {
	view := View{
		ID:              db.UUIDString(ord.ID),
		OrderNumber:     ord.OrderNumber,
		Status:          ord.Status,
		PaymentStatus:   ord.PaymentStatus,
		PaymentMethod:   ord.PaymentMethod,
		Currency:        ord.Currency,
		CustomerName:    ord.CustomerName,
		CustomerEmail:   ord.CustomerEmail,
		CustomerPhone:   ord.CustomerPhone,
		ShippingAddress: json.RawMessage(ord.ShippingAddress),
		BillingAddress:  json.RawMessage(ord.BillingAddress),
		Subtotal:        ord.Subtotal,
		Tax:             ord.Tax,
		ShippingCost:    ord.ShippingCost,
		Discount:        ord.Discount,
		Total:           ord.Total,
	}
	if ord.TrackingNumber.Valid {
		tracking := ord.TrackingNumber.String
		view.TrackingNumber = &tracking
	}
	if ord.StripePaymentIntentID.Valid {
		intent := ord.StripePaymentIntentID.String
		view.StripePaymentIntentID = &intent
	}
	if ord.CreatedAt.Valid {
		view.CreatedAt = ord.CreatedAt.Time
	}
	return view
}

func badRequest(message string) *common.AppError {
	return &common.AppError{Code: "VALIDATION_ERROR", Message: message, HTTPStatus: http.StatusBadRequest}
}

func notFound() *common.AppError {
	return &common.AppError{Code: "NOT_FOUND", Message: "order not found", HTTPStatus: http.StatusNotFound}
}

func forbidden() *common.AppError {
	return &common.AppError{Code: "FORBIDDEN", Message: "you do not have access to this order", HTTPStatus: http.StatusForbidden}
}
