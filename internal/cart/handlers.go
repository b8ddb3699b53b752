package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/twofourteen/backend-scents/internal/common"
	"github.com/twofourteen/backend-scents/internal/pricing"
)

// Handler exposes the authenticated cart endpoints.
type Handler struct {
	service  *Service
	taxRate  decimal.Decimal
	shipping decimal.Decimal
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service          *Service
	TaxRate          decimal.Decimal
	ShippingFlatCost decimal.Decimal
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service, taxRate: cfg.TaxRate, shipping: cfg.ShippingFlatCost}
}

type totalsView struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

type addItemRequest struct {
	ProductID   string `json:"product_id"`
	VariantSize int    `json:"variant_size"`
	Quantity    int    `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// Get handles GET /api/v1/cart.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", nil)
		return
	}
	items, err := h.service.Items(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	lines := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		lines = append(lines, pricing.Item{Qty: it.Quantity, UnitPrice: it.UnitPrice})
	}
	summary := pricing.Compute(lines, decimal.Zero, h.taxRate, h.shipping)
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"items": items,
			"totals": totalsView{
				Subtotal: summary.Subtotal,
				Discount: summary.Discount,
				Tax:      summary.Tax,
				Shipping: summary.Shipping,
				Total:    summary.Total,
			},
		},
	})
}

// AddItem handles POST /api/v1/cart/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", nil)
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	item, err := h.service.AddItem(r.Context(), userID, req.ProductID, req.VariantSize, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": item})
}

// UpdateItem handles PATCH /api/v1/cart/items/{itemId}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", nil)
		return
	}
	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	itemID := chi.URLParam(r, "itemId")
	if err := h.service.UpdateQuantity(r.Context(), userID, itemID, req.Quantity); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"status": "updated"}})
}

// RemoveItem handles DELETE /api/v1/cart/items/{itemId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", nil)
		return
	}
	itemID := chi.URLParam(r, "itemId")
	if err := h.service.RemoveItem(r.Context(), userID, itemID); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"status": "removed"}})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
