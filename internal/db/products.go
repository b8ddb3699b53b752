package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const productColumns = `p.id, p.name, p.slug, p.description, p.base_price, p.discount_price, p.category_id,
p.gender, p.concentration, p.top_notes, p.middle_notes, p.base_notes, p.featured_image, p.images,
p.is_active, p.created_at, p.updated_at`

func scanProduct(row interface{ Scan(dest ...any) error }) (Product, error) {
	var (
		p    Product
		base pgtype.Numeric
		disc pgtype.Numeric
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &base, &disc, &p.CategoryID,
		&p.Gender, &p.Concentration, &p.TopNotes, &p.MiddleNotes, &p.BaseNotes,
		&p.FeaturedImage, &p.Images, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return Product{}, err
	}
	p.BasePrice = NumericDecimal(base)
	p.DiscountPrice = NullableDecimal(disc)
	return p, nil
}

// ListProductsParams filters the active product listing. Nullable filters are
// skipped when invalid.
type ListProductsParams struct {
	CategorySlug pgtype.Text
	Gender       pgtype.Text
	Search       pgtype.Text
	Limit        int32
	Offset       int32
}

const listProducts = `
SELECT ` + productColumns + `
FROM products p
LEFT JOIN categories c ON c.id = p.category_id
WHERE p.is_active
  AND ($1::text IS NULL OR c.slug = $1)
  AND ($2::text IS NULL OR p.gender = $2)
  AND ($3::text IS NULL OR p.name ILIKE '%' || $3 || '%')
ORDER BY p.created_at DESC
LIMIT $4 OFFSET $5`

func (q *Queries) ListProducts(ctx context.Context, arg ListProductsParams) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProducts, arg.CategorySlug, arg.Gender, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

const countProducts = `
SELECT count(*)
FROM products p
LEFT JOIN categories c ON c.id = p.category_id
WHERE p.is_active
  AND ($1::text IS NULL OR c.slug = $1)
  AND ($2::text IS NULL OR p.gender = $2)
  AND ($3::text IS NULL OR p.name ILIKE '%' || $3 || '%')`

func (q *Queries) CountProducts(ctx context.Context, arg ListProductsParams) (int64, error) {
	var total int64
	err := q.db.QueryRow(ctx, countProducts, arg.CategorySlug, arg.Gender, arg.Search).Scan(&total)
	return total, err
}

const getProductBySlug = `
SELECT ` + productColumns + ` FROM products p WHERE p.slug = $1 AND p.is_active`

func (q *Queries) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getProductBySlug, slug))
}

const getProductByID = `
SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`

func (q *Queries) GetProductByID(ctx context.Context, id pgtype.UUID) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getProductByID, id))
}

const listVariantsByProduct = `
SELECT id, product_id, size, stock, sku, price_adjustment
FROM product_variants
WHERE product_id = $1
ORDER BY size`

func (q *Queries) ListVariantsByProduct(ctx context.Context, productID pgtype.UUID) ([]ProductVariant, error) {
	rows, err := q.db.Query(ctx, listVariantsByProduct, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var variants []ProductVariant
	for rows.Next() {
		var (
			v   ProductVariant
			adj pgtype.Numeric
		)
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Size, &v.Stock, &v.SKU, &adj); err != nil {
			return nil, err
		}
		v.PriceAdjustment = NumericDecimal(adj)
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

const listCategories = `
SELECT id, name, slug, description, display_order
FROM categories
ORDER BY display_order, name`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.DisplayOrder); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
