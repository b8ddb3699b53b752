package order

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/twofourteen/backend-scents/internal/common"
)

// Handler exposes the customer-facing order endpoints.
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

// List handles GET /api/v1/orders with optional ?orderNumber= filter.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	result, err := h.service.ListByUser(r.Context(), userID, page, perPage, r.URL.Query().Get("orderNumber"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(result.Total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       result.Orders,
		"pagination": common.NewPagination(page, perPage, result.Total),
	})
}

// Get handles GET /api/v1/orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", nil)
		return
	}
	caller := Principal{UserID: userID, Admin: common.IsAdmin(r.Context())}
	view, err := h.service.GetByID(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

func writeError(w http.ResponseWriter, err error) {
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
