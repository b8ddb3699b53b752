package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/twofourteen/backend-scents/internal/common"
	"github.com/twofourteen/backend-scents/internal/db"
	"github.com/twofourteen/backend-scents/internal/pricing"
)

// Querier is the subset of the query layer the catalog service depends on.
type Querier interface {
	ListProducts(ctx context.Context, arg db.ListProductsParams) ([]db.Product, error)
	CountProducts(ctx context.Context, arg db.ListProductsParams) (int64, error)
	GetProductBySlug(ctx context.Context, slug string) (db.Product, error)
	ListVariantsByProduct(ctx context.Context, productID pgtype.UUID) ([]db.ProductVariant, error)
	ListCategories(ctx context.Context) ([]db.Category, error)
}

// Service orchestrates catalog queries, DTO assembly, and caching.
type Service struct {
	queries      Querier
	cache        *Cache
	defaultPage  int
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries      Querier
	Cache        *Cache
	DefaultPage  int
	DefaultLimit int
	MaxLimit     int
}

// ListParams captures filters for product listing.
type ListParams struct {
	Search   string
	Category string
	Gender   string
	Page     int
	Limit    int
}

// ProductListItem represents an entry in list responses.
type ProductListItem struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	BasePrice      decimal.Decimal  `json:"base_price"`
	DiscountPrice  *decimal.Decimal `json:"discount_price,omitempty"`
	EffectivePrice decimal.Decimal  `json:"effective_price"`
	Gender         string           `json:"gender"`
	Concentration  string           `json:"concentration"`
	FeaturedImage  *string          `json:"featured_image,omitempty"`
}

// VariantView describes a purchasable size of a product.
type VariantView struct {
	ID              string          `json:"id"`
	Size            int             `json:"size"`
	Stock           int             `json:"stock"`
	SKU             string          `json:"sku"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment"`
}

// ProductDetail aggregates the full detail payload.
type ProductDetail struct {
	ProductListItem
	Description *string       `json:"description,omitempty"`
	TopNotes    []string      `json:"top_notes"`
	MiddleNotes []string      `json:"middle_notes"`
	BaseNotes   []string      `json:"base_notes"`
	Images      []string      `json:"images"`
	Variants    []VariantView `json:"variants"`
}

// Category represents the public category payload.
type Category struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description,omitempty"`
}

// ProductListResult contains list data and pagination metadata.
type ProductListResult struct {
	Items []ProductListItem
	Total int64
	Page  int
	Limit int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	defaultPage := cfg.DefaultPage
	if defaultPage < 1 {
		defaultPage = 1
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		queries:      cfg.Queries,
		cache:        cfg.Cache,
		defaultPage:  defaultPage,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ParseListParams normalises raw query values into strongly typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{
		Page:  s.defaultPage,
		Limit: s.defaultLimit,
	}
	params.Search = strings.TrimSpace(values.Get("q"))
	params.Category = strings.TrimSpace(values.Get("category"))
	params.Gender = strings.ToUpper(strings.TrimSpace(values.Get("gender")))

	if params.Gender != "" {
		switch params.Gender {
		case "MALE", "FEMALE", "UNISEX":
		default:
			return params, badRequest("gender", "gender must be MALE, FEMALE or UNISEX", nil)
		}
	}

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}

	limit := s.defaultLimit
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return params, badRequest("limit", "limit must be a positive integer", err)
		}
		limit = l
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	params.Limit = limit
	return params, nil
}

// ListCategories returns all categories in display order.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	result := make([]Category, 0, len(rows))
	for _, row := range rows {
		cat := Category{
			ID:   db.UUIDString(row.ID),
			Name: row.Name,
			Slug: row.Slug,
		}
		if row.Description.Valid {
			desc := row.Description.String
			cat.Description = &desc
		}
		result = append(result, cat)
	}
	return result, nil
}

// ListProducts returns the filtered active product list with pagination metadata.
func (s *Service) ListProducts(ctx context.Context, params ListParams) (ProductListResult, error) {
	key, shouldUseCache := s.listCacheKey(params)
	if shouldUseCache && s.cache != nil {
		var cached cachedList
		ok, err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil && ok {
			return ProductListResult{Items: cached.Items, Total: cached.Total, Page: params.Page, Limit: params.Limit}, nil
		}
	}

	queryParams := db.ListProductsParams{
		CategorySlug: optionalText(params.Category),
		Gender:       optionalText(params.Gender),
		Search:       optionalText(params.Search),
		Limit:        int32(params.Limit),
		Offset:       int32((params.Page - 1) * params.Limit),
	}
	total, err := s.queries.CountProducts(ctx, queryParams)
	if err != nil {
		return ProductListResult{}, fmt.Errorf("count products: %w", err)
	}
	rows, err := s.queries.ListProducts(ctx, queryParams)
	if err != nil {
		return ProductListResult{}, fmt.Errorf("list products: %w", err)
	}
	items := make([]ProductListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, listItem(row))
	}
	result := ProductListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}
	if shouldUseCache && s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, cachedList{Items: items, Total: total})
	}
	return result, nil
}

// GetProductDetail returns the product with its variants and scent profile.
func (s *Service) GetProductDetail(ctx context.Context, slug string) (ProductDetail, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ProductDetail{}, badRequest("slug", "slug is required", nil)
	}
	product, err := s.queries.GetProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductDetail{}, &common.AppError{Code: "NOT_FOUND", Message: "product not found", HTTPStatus: http.StatusNotFound, Err: err}
		}
		return ProductDetail{}, fmt.Errorf("get product by slug: %w", err)
	}
	detail := ProductDetail{
		ProductListItem: listItem(product),
		TopNotes:        product.TopNotes,
		MiddleNotes:     product.MiddleNotes,
		BaseNotes:       product.BaseNotes,
		Images:          product.Images,
	}
	if product.Description.Valid {
		desc := product.Description.String
		detail.Description = &desc
	}
	variants, err := s.queries.ListVariantsByProduct(ctx, product.ID)
	if err != nil {
		return ProductDetail{}, fmt.Errorf("list variants: %w", err)
	}
	detail.Variants = make([]VariantView, 0, len(variants))
	for _, row := range variants {
		detail.Variants = append(detail.Variants, VariantView{
			ID:              db.UUIDString(row.ID),
			Size:            int(row.Size),
			Stock:           int(row.Stock),
			SKU:             row.SKU,
			PriceAdjustment: row.PriceAdjustment,
		})
	}
	return detail, nil
}

func listItem(p db.Product) ProductListItem {
	item := ProductListItem{
		ID:             db.UUIDString(p.ID),
		Name:           p.Name,
		Slug:           p.Slug,
		BasePrice:      p.BasePrice,
		DiscountPrice:  p.DiscountPrice,
		EffectivePrice: pricing.EffectivePrice(p.BasePrice, p.DiscountPrice),
		Gender:         p.Gender,
		Concentration:  p.Concentration,
	}
	if p.FeaturedImage.Valid {
		img := p.FeaturedImage.String
		item.FeaturedImage = &img
	}
	return item
}

type cachedList struct {
	Items []ProductListItem `json:"items"`
	Total int64             `json:"total"`
}

// Only the unfiltered first page is cached. Filtered reads go to the database.
func (s *Service) listCacheKey(params ListParams) (string, bool) {
	if params.Page != s.defaultPage || params.Limit != s.defaultLimit {
		return "", false
	}
	if params.Search != "" || params.Category != "" || params.Gender != "" {
		return "", false
	}
	return "catalog:products:list:front", true
}

func optionalText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details: map[string]any{
			"field": field,
		},
	}
}
