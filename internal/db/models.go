package db

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// User is a registered storefront customer or administrator.
type User struct {
	ID                pgtype.UUID
	Name              string
	Email             string
	PasswordHash      string
	Phone             pgtype.Text
	PreferredLanguage pgtype.Text
	PreferredCurrency pgtype.Text
	Theme             pgtype.Text
	Role              string
	CreatedAt         pgtype.Timestamptz
	UpdatedAt         pgtype.Timestamptz
}

// Category groups products for browsing.
type Category struct {
	ID           pgtype.UUID
	Name         string
	Slug         string
	Description  pgtype.Text
	DisplayOrder int32
}

// Product is a perfume listing. Customers never mutate products.
type Product struct {
	ID            pgtype.UUID
	Name          string
	Slug          string
	Description   pgtype.Text
	BasePrice     decimal.Decimal
	DiscountPrice *decimal.Decimal
	CategoryID    pgtype.UUID
	Gender        string
	Concentration string
	TopNotes      []string
	MiddleNotes   []string
	BaseNotes     []string
	FeaturedImage pgtype.Text
	Images        []string
	IsActive      bool
	CreatedAt     pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
}

// ProductVariant is a bottle size of a product with its own stock and SKU.
type ProductVariant struct {
	ID              pgtype.UUID
	ProductID       pgtype.UUID
	Size            int32
	Stock           int32
	SKU             string
	PriceAdjustment decimal.Decimal
}

// Cart is a per-user shopping cart, created lazily on first add.
type Cart struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// CartItem references a (product, variant size) pair with a quantity.
// At most one row exists per (cart, product, variant size).
type CartItem struct {
	ID          pgtype.UUID
	CartID      pgtype.UUID
	ProductID   pgtype.UUID
	VariantSize int32
	Quantity    int32
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

// CartItemWithProduct joins a cart item with the product columns needed to
// price and render it.
type CartItemWithProduct struct {
	ID            pgtype.UUID
	CartID        pgtype.UUID
	ProductID     pgtype.UUID
	VariantSize   int32
	Quantity      int32
	ProductName   string
	ProductSlug   string
	BasePrice     decimal.Decimal
	DiscountPrice *decimal.Decimal
	FeaturedImage pgtype.Text
	Images        []string
}

// Wishlist is a per-user saved-items list, created lazily on first add.
type Wishlist struct {
	ID     pgtype.UUID
	UserID pgtype.UUID
}

// WishlistItem references a product. At most one row per (wishlist, product).
type WishlistItem struct {
	ID         pgtype.UUID
	WishlistID pgtype.UUID
	ProductID  pgtype.UUID
	CreatedAt  pgtype.Timestamptz
}

// WishlistItemWithProduct joins a wishlist item with a product summary.
type WishlistItemWithProduct struct {
	ID            pgtype.UUID
	WishlistID    pgtype.UUID
	ProductID     pgtype.UUID
	ProductName   string
	ProductSlug   string
	BasePrice     decimal.Decimal
	DiscountPrice *decimal.Decimal
	FeaturedImage pgtype.Text
	CreatedAt     pgtype.Timestamptz
}

// Order is the immutable checkout snapshot. Customer and address fields are
// denormalized at order time and do not follow later product or profile edits.
type Order struct {
	ID                    pgtype.UUID
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
	TrackingNumber        pgtype.Text
	StripePaymentIntentID pgtype.Text
	CreatedAt             pgtype.Timestamptz
	UpdatedAt             pgtype.Timestamptz
}

// OrderItem is a denormalized order line captured at order time.
type OrderItem struct {
	ID          pgtype.UUID
	OrderID     pgtype.UUID
	ProductID   pgtype.UUID
	ProductName string
	VariantSize int32
	Quantity    int32
	UnitPrice   decimal.Decimal
}

// DomainEvent is a persisted record of something that happened.
type DomainEvent struct {
	ID          pgtype.UUID
	Topic       string
	AggregateID pgtype.UUID
	Payload     []byte
	OccurredAt  pgtype.Timestamptz
}
