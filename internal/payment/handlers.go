package payment

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/twofourteen/backend-scents/internal/common"
	"github.com/twofourteen/backend-scents/internal/obs"
)

// Handler exposes the payment intent endpoint used by the storefront's
// card flow. It is reachable without authentication so guests can pay.
type Handler struct {
	provider Provider
	currency string
	logger   zerolog.Logger
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Provider        Provider
	DefaultCurrency string
	Logger          zerolog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{provider: cfg.Provider, currency: cfg.DefaultCurrency, logger: cfg.Logger}
}

type createIntentRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type createIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// CreateIntent handles POST /api/v1/stripe/create-payment-intent. Amount is
// in minor units.
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	if req.Amount <= 0 {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "amount must be positive", nil)
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = h.currency
	}
	intent, err := h.provider.CreateIntent(r.Context(), req.Amount, currency)
	if err != nil {
		if obs.PaymentIntentTotal != nil {
			obs.PaymentIntentTotal.WithLabelValues("stripe", "error").Inc()
		}
		h.logger.Error().Err(err).Int64("amount", req.Amount).Msg("create payment intent")
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_PROVIDER_ERROR", "failed to create payment intent", nil)
		return
	}
	if obs.PaymentIntentTotal != nil {
		obs.PaymentIntentTotal.WithLabelValues("stripe", "ok").Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": createIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.IntentID,
	}})
}
