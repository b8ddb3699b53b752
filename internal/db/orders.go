package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, order_number, user_id, customer_name, customer_email, customer_phone,
shipping_address, billing_address, subtotal, tax, shipping_cost, discount, total, currency,
payment_method, status, payment_status, tracking_number, stripe_payment_intent_id, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var (
		o                                          Order
		subtotal, tax, shipping, discount, totalNum pgtype.Numeric
	)
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.ShippingAddress, &o.BillingAddress, &subtotal, &tax, &shipping, &discount, &totalNum,
		&o.Currency, &o.PaymentMethod, &o.Status, &o.PaymentStatus,
		&o.TrackingNumber, &o.StripePaymentIntentID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return Order{}, err
	}
	o.Subtotal = NumericDecimal(subtotal)
	o.Tax = NumericDecimal(tax)
	o.ShippingCost = NumericDecimal(shipping)
	o.Discount = NumericDecimal(discount)
	o.Total = NumericDecimal(totalNum)
	return o, nil
}

type CreateOrderParams struct {
	OrderNumber           string
	UserID                pgtype.UUID
	CustomerName          string
	CustomerEmail         string
	CustomerPhone         string
	ShippingAddress       []byte
	BillingAddress        []byte
	Subtotal              decimal.Decimal
	Tax                   decimal.Decimal
	ShippingCost          decimal.Decimal
	Discount              decimal.Decimal
	Total                 decimal.Decimal
	Currency              string
	PaymentMethod         string
	Status                string
	PaymentStatus         string
	StripePaymentIntentID pgtype.Text
}

const createOrder = `
INSERT INTO orders (
	order_number, user_id, customer_name, customer_email, customer_phone,
	shipping_address, billing_address, subtotal, tax, shipping_cost, discount, total,
	currency, payment_method, status, payment_status, stripe_payment_intent_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
RETURNING ` + orderColumns

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.OrderNumber, arg.UserID, arg.CustomerName, arg.CustomerEmail, arg.CustomerPhone,
		arg.ShippingAddress, arg.BillingAddress,
		DecimalNumeric(arg.Subtotal), DecimalNumeric(arg.Tax), DecimalNumeric(arg.ShippingCost),
		DecimalNumeric(arg.Discount), DecimalNumeric(arg.Total),
		arg.Currency, arg.PaymentMethod, arg.Status, arg.PaymentStatus, arg.StripePaymentIntentID,
	)
	return scanOrder(row)
}

type CreateOrderItemParams struct {
	OrderID     pgtype.UUID
	ProductID   pgtype.UUID
	ProductName string
	VariantSize int32
	Quantity    int32
	UnitPrice   decimal.Decimal
}

const createOrderItem = `
INSERT INTO order_items (order_id, product_id, product_name, variant_size, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, product_id, product_name, variant_size, quantity, unit_price`

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var (
		it    OrderItem
		price pgtype.Numeric
	)
	err := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.ProductID, arg.ProductName, arg.VariantSize, arg.Quantity, DecimalNumeric(arg.UnitPrice),
	).Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.VariantSize, &it.Quantity, &price)
	if err != nil {
		return OrderItem{}, err
	}
	it.UnitPrice = NumericDecimal(price)
	return it, nil
}

const getOrderByID = `
SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

func (q *Queries) GetOrderByID(ctx context.Context, id pgtype.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByID, id))
}

const getOrderByNumber = `
SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`

func (q *Queries) GetOrderByNumber(ctx context.Context, orderNumber string) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByNumber, orderNumber))
}

type ListOrdersByUserParams struct {
	UserID pgtype.UUID
	Limit  int32
	Offset int32
}

const listOrdersByUser = `
SELECT ` + orderColumns + `
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

func (q *Queries) ListOrdersByUser(ctx context.Context, arg ListOrdersByUserParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByUser, arg.UserID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const countOrdersByUser = `SELECT count(*) FROM orders WHERE user_id = $1`

func (q *Queries) CountOrdersByUser(ctx context.Context, userID pgtype.UUID) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, countOrdersByUser, userID).Scan(&total)
	return total, err
}

const listOrderItemsByOrder = `
SELECT id, order_id, product_id, product_name, variant_size, quantity, unit_price
FROM order_items
WHERE order_id = $1
ORDER BY product_name`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var (
			it    OrderItem
			price pgtype.Numeric
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.VariantSize, &it.Quantity, &price); err != nil {
			return nil, err
		}
		it.UnitPrice = NumericDecimal(price)
		items = append(items, it)
	}
	return items, rows.Err()
}

type UpdateOrderStatusParams struct {
	ID     pgtype.UUID
	Status string
}

const updateOrderStatus = `
UPDATE orders SET status = $2, updated_at = now() WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status))
}

type UpdateOrderPaymentStatusParams struct {
	ID            pgtype.UUID
	PaymentStatus string
}

const updateOrderPaymentStatus = `
UPDATE orders SET payment_status = $2, updated_at = now() WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) UpdateOrderPaymentStatus(ctx context.Context, arg UpdateOrderPaymentStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderPaymentStatus, arg.ID, arg.PaymentStatus))
}

type SetOrderTrackingParams struct {
	ID             pgtype.UUID
	TrackingNumber pgtype.Text
}

const setOrderTracking = `
UPDATE orders SET tracking_number = $2, updated_at = now() WHERE id = $1
RETURNING ` + orderColumns

func (q *Queries) SetOrderTracking(ctx context.Context, arg SetOrderTrackingParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, setOrderTracking, arg.ID, arg.TrackingNumber))
}
