package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getCartByUser = `
SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`

func (q *Queries) GetCartByUser(ctx context.Context, userID pgtype.UUID) (Cart, error) {
	var c Cart
	err := q.db.QueryRow(ctx, getCartByUser, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const createCart = `
INSERT INTO carts (user_id) VALUES ($1)
RETURNING id, user_id, created_at, updated_at`

func (q *Queries) CreateCart(ctx context.Context, userID pgtype.UUID) (Cart, error) {
	var c Cart
	err := q.db.QueryRow(ctx, createCart, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

type FindCartItemParams struct {
	CartID      pgtype.UUID
	ProductID   pgtype.UUID
	VariantSize int32
}

const findCartItem = `
SELECT id, cart_id, product_id, variant_size, quantity, created_at, updated_at
FROM cart_items
WHERE cart_id = $1 AND product_id = $2 AND variant_size = $3`

func (q *Queries) FindCartItem(ctx context.Context, arg FindCartItemParams) (CartItem, error) {
	var it CartItem
	err := q.db.QueryRow(ctx, findCartItem, arg.CartID, arg.ProductID, arg.VariantSize).
		Scan(&it.ID, &it.CartID, &it.ProductID, &it.VariantSize, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

type CreateCartItemParams struct {
	CartID      pgtype.UUID
	ProductID   pgtype.UUID
	VariantSize int32
	Quantity    int32
}

const createCartItem = `
INSERT INTO cart_items (cart_id, product_id, variant_size, quantity)
VALUES ($1, $2, $3, $4)
RETURNING id, cart_id, product_id, variant_size, quantity, created_at, updated_at`

func (q *Queries) CreateCartItem(ctx context.Context, arg CreateCartItemParams) (CartItem, error) {
	var it CartItem
	err := q.db.QueryRow(ctx, createCartItem, arg.CartID, arg.ProductID, arg.VariantSize, arg.Quantity).
		Scan(&it.ID, &it.CartID, &it.ProductID, &it.VariantSize, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

type UpdateCartItemQuantityParams struct {
	ID       pgtype.UUID
	Quantity int32
}

const updateCartItemQuantity = `
UPDATE cart_items SET quantity = $2, updated_at = now()
WHERE id = $1
RETURNING id, cart_id, product_id, variant_size, quantity, created_at, updated_at`

func (q *Queries) UpdateCartItemQuantity(ctx context.Context, arg UpdateCartItemQuantityParams) (CartItem, error) {
	var it CartItem
	err := q.db.QueryRow(ctx, updateCartItemQuantity, arg.ID, arg.Quantity).
		Scan(&it.ID, &it.CartID, &it.ProductID, &it.VariantSize, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

const getCartItemByID = `
SELECT id, cart_id, product_id, variant_size, quantity, created_at, updated_at
FROM cart_items WHERE id = $1`

func (q *Queries) GetCartItemByID(ctx context.Context, id pgtype.UUID) (CartItem, error) {
	var it CartItem
	err := q.db.QueryRow(ctx, getCartItemByID, id).
		Scan(&it.ID, &it.CartID, &it.ProductID, &it.VariantSize, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

const deleteCartItem = `DELETE FROM cart_items WHERE id = $1`

func (q *Queries) DeleteCartItem(ctx context.Context, id pgtype.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteCartItem, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteCartItems = `DELETE FROM cart_items WHERE cart_id = $1`

func (q *Queries) DeleteCartItems(ctx context.Context, cartID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteCartItems, cartID)
	return err
}

const listCartItemsWithProduct = `
SELECT ci.id, ci.cart_id, ci.product_id, ci.variant_size, ci.quantity,
       p.name, p.slug, p.base_price, p.discount_price, p.featured_image, p.images
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.cart_id = $1
ORDER BY ci.created_at`

func (q *Queries) ListCartItemsWithProduct(ctx context.Context, cartID pgtype.UUID) ([]CartItemWithProduct, error) {
	rows, err := q.db.Query(ctx, listCartItemsWithProduct, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CartItemWithProduct
	for rows.Next() {
		var (
			it   CartItemWithProduct
			base pgtype.Numeric
			disc pgtype.Numeric
		)
		err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.VariantSize, &it.Quantity,
			&it.ProductName, &it.ProductSlug, &base, &disc, &it.FeaturedImage, &it.Images)
		if err != nil {
			return nil, err
		}
		it.BasePrice = NumericDecimal(base)
		it.DiscountPrice = NullableDecimal(disc)
		items = append(items, it)
	}
	return items, rows.Err()
}
