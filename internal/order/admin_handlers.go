package order

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/twofourteen/backend-scents/internal/common"
)

// AdminHandler exposes the back-office order mutations. Routes using it
// must sit behind the admin middleware.
type AdminHandler struct {
	service *Service
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(service *Service) *AdminHandler {
	return &AdminHandler{service: service}
}

type statusRequest struct {
	Status string `json:"status"`
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"payment_status"`
}

type trackingRequest struct {
	TrackingNumber string `json:"tracking_number"`
}

// UpdateStatus handles PATCH /api/v1/admin/orders/{id}/status.
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	view, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// UpdatePaymentStatus handles PATCH /api/v1/admin/orders/{id}/payment-status.
func (h *AdminHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req paymentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	view, err := h.service.UpdatePaymentStatus(r.Context(), chi.URLParam(r, "id"), req.PaymentStatus)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// SetTracking handles PUT /api/v1/admin/orders/{id}/tracking.
func (h *AdminHandler) SetTracking(w http.ResponseWriter, r *http.Request) {
	var req trackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	view, err := h.service.SetTracking(r.Context(), chi.URLParam(r, "id"), req.TrackingNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}
