package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/twofourteen/backend-scents/internal/common"
)

// Handler exposes the authenticated profile endpoints.
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

// Get handles GET /api/v1/users/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := principalFrom(r)
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", nil)
		return
	}
	profile, err := h.service.Get(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": profile})
}

// Update handles PATCH /api/v1/users/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := principalFrom(r)
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized", nil)
		return
	}
	var input UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	profile, err := h.service.Update(r.Context(), caller, chi.URLParam(r, "id"), input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": profile})
}

func principalFrom(r *http.Request) (Principal, bool) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		return Principal{}, false
	}
	return Principal{UserID: userID, Admin: common.IsAdmin(r.Context())}, true
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
