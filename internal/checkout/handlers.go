package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/twofourteen/backend-scents/internal/common"
)

// Handler exposes POST /api/v1/orders. Guests may order, so the route is
// not behind RequireAuth; an authenticated principal still gets its cart
// cleared and the order linked to the account.
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

// PlaceOrder handles POST /api/v1/orders.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	userID, _ := common.UserID(r.Context())
	view, err := h.service.PlaceOrder(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": view})
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
