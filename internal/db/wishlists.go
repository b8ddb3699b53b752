package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getWishlistByUser = `
SELECT id, user_id FROM wishlists WHERE user_id = $1`

func (q *Queries) GetWishlistByUser(ctx context.Context, userID pgtype.UUID) (Wishlist, error) {
	var w Wishlist
	err := q.db.QueryRow(ctx, getWishlistByUser, userID).Scan(&w.ID, &w.UserID)
	return w, err
}

const createWishlist = `
INSERT INTO wishlists (user_id) VALUES ($1) RETURNING id, user_id`

func (q *Queries) CreateWishlist(ctx context.Context, userID pgtype.UUID) (Wishlist, error) {
	var w Wishlist
	err := q.db.QueryRow(ctx, createWishlist, userID).Scan(&w.ID, &w.UserID)
	return w, err
}

type CreateWishlistItemParams struct {
	WishlistID pgtype.UUID
	ProductID  pgtype.UUID
}

const createWishlistItem = `
INSERT INTO wishlist_items (wishlist_id, product_id)
VALUES ($1, $2)
RETURNING id, wishlist_id, product_id, created_at`

func (q *Queries) CreateWishlistItem(ctx context.Context, arg CreateWishlistItemParams) (WishlistItem, error) {
	var it WishlistItem
	err := q.db.QueryRow(ctx, createWishlistItem, arg.WishlistID, arg.ProductID).
		Scan(&it.ID, &it.WishlistID, &it.ProductID, &it.CreatedAt)
	return it, err
}

type DeleteWishlistItemParams struct {
	WishlistID pgtype.UUID
	ProductID  pgtype.UUID
}

const deleteWishlistItem = `
DELETE FROM wishlist_items WHERE wishlist_id = $1 AND product_id = $2`

func (q *Queries) DeleteWishlistItem(ctx context.Context, arg DeleteWishlistItemParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteWishlistItem, arg.WishlistID, arg.ProductID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listWishlistItemsWithProduct = `
SELECT wi.id, wi.wishlist_id, wi.product_id,
       p.name, p.slug, p.base_price, p.discount_price, p.featured_image, wi.created_at
FROM wishlist_items wi
JOIN products p ON p.id = wi.product_id
WHERE wi.wishlist_id = $1
ORDER BY wi.created_at DESC`

func (q *Queries) ListWishlistItemsWithProduct(ctx context.Context, wishlistID pgtype.UUID) ([]WishlistItemWithProduct, error) {
	rows, err := q.db.Query(ctx, listWishlistItemsWithProduct, wishlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WishlistItemWithProduct
	for rows.Next() {
		var (
			it   WishlistItemWithProduct
			base pgtype.Numeric
			disc pgtype.Numeric
		)
		err := rows.Scan(&it.ID, &it.WishlistID, &it.ProductID,
			&it.ProductName, &it.ProductSlug, &base, &disc, &it.FeaturedImage, &it.CreatedAt)
		if err != nil {
			return nil, err
		}
		it.BasePrice = NumericDecimal(base)
		it.DiscountPrice = NullableDecimal(disc)
		items = append(items, it)
	}
	return items, rows.Err()
}
