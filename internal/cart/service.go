package cart

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/twofourteen/backend-scents/internal/common"
	"github.com/twofourteen/backend-scents/internal/db"
	"github.com/twofourteen/backend-scents/internal/pricing"
)

// Querier is the subset of the query layer the cart service depends on.
type Querier interface {
	GetCartByUser(ctx context.Context, userID pgtype.UUID) (db.Cart, error)
	CreateCart(ctx context.Context, userID pgtype.UUID) (db.Cart, error)
	FindCartItem(ctx context.Context, arg db.FindCartItemParams) (db.CartItem, error)
	CreateCartItem(ctx context.Context, arg db.CreateCartItemParams) (db.CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, arg db.UpdateCartItemQuantityParams) (db.CartItem, error)
	GetCartItemByID(ctx context.Context, id pgtype.UUID) (db.CartItem, error)
	DeleteCartItem(ctx context.Context, id pgtype.UUID) (int64, error)
	DeleteCartItems(ctx context.Context, cartID pgtype.UUID) error
	ListCartItemsWithProduct(ctx context.Context, cartID pgtype.UUID) ([]db.CartItemWithProduct, error)
	GetProductByID(ctx context.Context, id pgtype.UUID) (db.Product, error)
}

// Service encapsulates cart operations. Carts are created lazily on the
// first add, so Items on a fresh user returns an empty slice, not an error.
type Service struct {
	queries Querier
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries Querier
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{queries: cfg.Queries}
}

// ItemView is a cart line joined with its product summary.
type ItemView struct {
	ID            string           `json:"id"`
	ProductID     string           `json:"product_id"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	VariantSize   int              `json:"variant_size"`
	Quantity      int              `json:"quantity"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	LineTotal     decimal.Decimal  `json:"line_total"`
	BasePrice     decimal.Decimal  `json:"base_price"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
	FeaturedImage *string          `json:"featured_image,omitempty"`
}

// Items returns the caller's cart lines, newest last.
func (s *Service) Items(ctx context.Context, userID string) ([]ItemView, error) {
	cart, ok, err := s.findCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []ItemView{}, nil
	}
	rows, err := s.queries.ListCartItemsWithProduct(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	items := make([]ItemView, 0, len(rows))
	for _, row := range rows {
		unit := pricing.EffectivePrice(row.BasePrice, row.DiscountPrice)
		view := ItemView{
			ID:            db.UUIDString(row.ID),
			ProductID:     db.UUIDString(row.ProductID),
			Name:          row.ProductName,
			Slug:          row.ProductSlug,
			VariantSize:   int(row.VariantSize),
			Quantity:      int(row.Quantity),
			UnitPrice:     unit,
			LineTotal:     unit.Mul(decimal.NewFromInt(int64(row.Quantity))),
			BasePrice:     row.BasePrice,
			DiscountPrice: row.DiscountPrice,
		}
		if row.FeaturedImage.Valid {
			img := row.FeaturedImage.String
			view.FeaturedImage = &img
		}
		items = append(items, view)
	}
	return items, nil
}

// AddItem adds quantity of a (product, variant size) pair to the user's
// cart, creating the cart on first use. An existing line for the same pair
// is incremented rather than duplicated.
func (s *Service) AddItem(ctx context.Context, userID, productID string, variantSize, quantity int) (ItemView, error) {
	if quantity <= 0 {
		return ItemView{}, badRequest("quantity", "quantity must be positive")
	}
	if variantSize <= 0 {
		return ItemView{}, badRequest("variant_size", "variant size must be positive")
	}
	pID, err := db.UUID(productID)
	if err != nil {
		return ItemView{}, badRequest("product_id", "invalid product id")
	}
	product, err := s.queries.GetProductByID(ctx, pID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ItemView{}, notFound("product not found")
		}
		return ItemView{}, err
	}
	if !product.IsActive {
		return ItemView{}, notFound("product not found")
	}

	cart, err := s.ensureCart(ctx, userID)
	if err != nil {
		return ItemView{}, err
	}

	var item db.CartItem
	existing, err := s.queries.FindCartItem(ctx, db.FindCartItemParams{
		CartID:      cart.ID,
		ProductID:   pID,
		VariantSize: int32(variantSize),
	})
	switch {
	case err == nil:
		item, err = s.queries.UpdateCartItemQuantity(ctx, db.UpdateCartItemQuantityParams{
			ID:       existing.ID,
			Quantity: existing.Quantity + int32(quantity),
		})
		if err != nil {
			return ItemView{}, err
		}
	case errors.Is(err, pgx.ErrNoRows):
		item, err = s.queries.CreateCartItem(ctx, db.CreateCartItemParams{
			CartID:      cart.ID,
			ProductID:   pID,
			VariantSize: int32(variantSize),
			Quantity:    int32(quantity),
		})
		if err != nil {
			return ItemView{}, err
		}
	default:
		return ItemView{}, err
	}

	unit := pricing.EffectivePrice(product.BasePrice, product.DiscountPrice)
	view := ItemView{
		ID:            db.UUIDString(item.ID),
		ProductID:     db.UUIDString(item.ProductID),
		Name:          product.Name,
		Slug:          product.Slug,
		VariantSize:   int(item.VariantSize),
		Quantity:      int(item.Quantity),
		UnitPrice:     unit,
		LineTotal:     unit.Mul(decimal.NewFromInt(int64(item.Quantity))),
		BasePrice:     product.BasePrice,
		DiscountPrice: product.DiscountPrice,
	}
	if product.FeaturedImage.Valid {
		img := product.FeaturedImage.String
		view.FeaturedImage = &img
	}
	return view, nil
}

// UpdateQuantity sets the quantity of a cart line the caller owns. A
// non-positive quantity removes the line instead.
func (s *Service) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if quantity <= 0 {
		_, err := s.queries.DeleteCartItem(ctx, item.ID)
		return err
	}
	_, err = s.queries.UpdateCartItemQuantity(ctx, db.UpdateCartItemQuantityParams{
		ID:       item.ID,
		Quantity: int32(quantity),
	})
	return err
}

// RemoveItem deletes a cart line the caller owns. A line that is already
// gone counts as removed.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) error {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) && appErr.HTTPStatus == http.StatusNotFound {
			return nil
		}
		return err
	}
	_, err = s.queries.DeleteCartItem(ctx, item.ID)
	return err
}

// Clear removes every line from the user's cart. Without a cart it is a
// no-op.
func (s *Service) Clear(ctx context.Context, userID string) error {
	cart, ok, err := s.findCart(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return s.queries.DeleteCartItems(ctx, cart.ID)
}

// ownedItem loads a cart item and verifies it belongs to the caller's
// cart. Items in someone else's cart look identical to missing ones.
func (s *Service) ownedItem(ctx context.Context, userID, itemID string) (db.CartItem, error) {
	iID, err := db.UUID(itemID)
	if err != nil {
		return db.CartItem{}, notFound("cart item not found")
	}
	item, err := s.queries.GetCartItemByID(ctx, iID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.CartItem{}, notFound("cart item not found")
		}
		return db.CartItem{}, err
	}
	cart, ok, err := s.findCart(ctx, userID)
	if err != nil {
		return db.CartItem{}, err
	}
	if !ok || !db.UUIDEqual(item.CartID, cart.ID) {
		return db.CartItem{}, notFound("cart item not found")
	}
	return item, nil
}

func (s *Service) findCart(ctx context.Context, userID string) (db.Cart, bool, error) {
	uID, err := db.UUID(userID)
	if err != nil {
		return db.Cart{}, false, badRequest("user_id", "invalid user id")
	}
	cart, err := s.queries.GetCartByUser(ctx, uID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Cart{}, false, nil
		}
		return db.Cart{}, false, err
	}
	return cart, true, nil
}

func (s *Service) ensureCart(ctx context.Context, userID string) (db.Cart, error) {
	cart, ok, err := s.findCart(ctx, userID)
	if err != nil {
		return db.Cart{}, err
	}
	if ok {
		return cart, nil
	}
	uID, err := db.UUID(userID)
	if err != nil {
		return db.Cart{}, badRequest("user_id", "invalid user id")
	}
	return s.queries.CreateCart(ctx, uID)
}

func badRequest(field, message string) *common.AppError {
	return &common.AppError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]string{"field": field},
	}
}

func notFound(message string) *common.AppError {
	return &common.AppError{
		Code:       "NOT_FOUND",
		Message:    message,
		HTTPStatus: http.StatusNotFound,
	}
}
