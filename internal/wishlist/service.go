package wishlist

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

// Querier is the subset of the query layer the wishlist service depends on.
type Querier interface {
	GetWishlistByUser(ctx context.Context, userID pgtype.UUID) (db.Wishlist, error)
	CreateWishlist(ctx context.Context, userID pgtype.UUID) (db.Wishlist, error)
	CreateWishlistItem(ctx context.Context, arg db.CreateWishlistItemParams) (db.WishlistItem, error)
	DeleteWishlistItem(ctx context.Context, arg db.DeleteWishlistItemParams) (int64, error)
	ListWishlistItemsWithProduct(ctx context.Context, wishlistID pgtype.UUID) ([]db.WishlistItemWithProduct, error)
	GetProductByID(ctx context.Context, id pgtype.UUID) (db.Product, error)
}

// Service manages per-user saved products. The wishlist row itself is created
// lazily on the first add.
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

// ItemView is a saved product summary.
type ItemView struct {
	ProductID      string           `json:"product_id"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	BasePrice      decimal.Decimal  `json:"base_price"`
	DiscountPrice  *decimal.Decimal `json:"discount_price,omitempty"`
	EffectivePrice decimal.Decimal  `json:"effective_price"`
	FeaturedImage  *string          `json:"featured_image,omitempty"`
}

// Items returns the caller's saved products, most recently added first.
func (s *Service) Items(ctx context.Context, userID string) ([]ItemView, error) {
	uID, err := db.UUID(userID)
	if err != nil {
		return nil, badRequest("invalid user id")
	}
	wl, err := s.queries.GetWishlistByUser(ctx, uID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []ItemView{}, nil
		}
		return nil, err
	}
	rows, err := s.queries.ListWishlistItemsWithProduct(ctx, wl.ID)
	if err != nil {
		return nil, err
	}
	items := make([]ItemView, 0, len(rows))
	for _, row := range rows {
		view := ItemView{
			ProductID:      db.UUIDString(row.ProductID),
			Name:           row.ProductName,
			Slug:           row.ProductSlug,
			BasePrice:      row.BasePrice,
			DiscountPrice:  row.DiscountPrice,
			EffectivePrice: pricing.EffectivePrice(row.BasePrice, row.DiscountPrice),
		}
		if row.FeaturedImage.Valid {
			img := row.FeaturedImage.String
			view.FeaturedImage = &img
		}
		items = append(items, view)
	}
	return items, nil
}

// AddItem saves a product for the user. Saving the same product twice is a
// client error and leaves the list unchanged.
func (s *Service) AddItem(ctx context.Context, userID, productID string) error {
	uID, err := db.UUID(userID)
	if err != nil {
		return badRequest("invalid user id")
	}
	pID, err := db.UUID(productID)
	if err != nil {
		return badRequest("invalid product id")
	}
	product, err := s.queries.GetProductByID(ctx, pID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound("product not found")
		}
		return err
	}
	if !product.IsActive {
		return notFound("product not found")
	}

	wl, err := s.queries.GetWishlistByUser(ctx, uID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		wl, err = s.queries.CreateWishlist(ctx, uID)
		if err != nil {
			return err
		}
	}

	_, err = s.queries.CreateWishlistItem(ctx, db.CreateWishlistItemParams{
		WishlistID: wl.ID,
		ProductID:  pID,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return &common.AppError{
				Code:       "ALREADY_IN_WISHLIST",
				Message:    "product is already in the wishlist",
				HTTPStatus: http.StatusBadRequest,
				Err:        err,
			}
		}
		return err
	}
	return nil
}

// RemoveItem deletes a saved product. A product that was never saved, or a
// user without a wishlist, is 404.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) error {
	uID, err := db.UUID(userID)
	if err != nil {
		return badRequest("invalid user id")
	}
	pID, err := db.UUID(productID)
	if err != nil {
		return badRequest("invalid product id")
	}
	wl, err := s.queries.GetWishlistByUser(ctx, uID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound("wishlist item not found")
		}
		return err
	}
	deleted, err := s.queries.DeleteWishlistItem(ctx, db.DeleteWishlistItemParams{
		WishlistID: wl.ID,
		ProductID:  pID,
	})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return notFound("wishlist item not found")
	}
	return nil
}

func badRequest(message string) *common.AppError {
	return &common.AppError{Code: "VALIDATION_ERROR", Message: message, HTTPStatus: http.StatusBadRequest}
}

func notFound(message string) *common.AppError {
	return &common.AppError{Code: "NOT_FOUND", Message: message, HTTPStatus: http.StatusNotFound}
}
