package wishlist

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/twofourteen/backend-scents/internal/common"
)

// Handler exposes the authenticated wishlist endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
}

// Get handles GET /api/v1/wishlist.
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
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// AddItem handles POST /api/v1/wishlist/items.
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
	if err := h.service.AddItem(r.Context(), userID, req.ProductID); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]string{"status": "added"}})
}

// RemoveItem handles DELETE /api/v1/wishlist/items?productId=.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", nil)
		return
	}
	productID := r.URL.Query().Get("productId")
	if productID == "" {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "productId query parameter is required", nil)
		return
	}
	if err := h.service.RemoveItem(r.Context(), userID, productID); err != nil {
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
