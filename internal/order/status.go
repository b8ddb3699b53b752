package order

import (
	"net/http"

	"github.com/twofourteen/backend-scents/internal/common"
)

// Order lifecycle statuses.
const (
	StatusPending    = "PENDING"
	StatusPaid       = "PAID"
	StatusProcessing = "PROCESSING"
	StatusShipped    = "SHIPPED"
	StatusDelivered  = "DELIVERED"
	StatusCancelled  = "CANCELLED"
)

// Payment statuses.
const (
	PaymentPending  = "PENDING"
	PaymentPaid     = "PAID"
	PaymentFailed   = "FAILED"
	PaymentRefunded = "REFUNDED"
)

// transitions is the full set of legal status moves. DELIVERED and
// CANCELLED are terminal.
var transitions = map[string][]string{
	StatusPending:    {StatusPaid, StatusCancelled},
	StatusPaid:       {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

var paymentStatuses = map[string]bool{
	PaymentPending:  true,
	PaymentPaid:     true,
	PaymentFailed:   true,
	PaymentRefunded: true,
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
	return paymentStatuses[s]
}

// CanTransition reports whether an order may move from one status to
// another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns a conflict error when the move is not legal.
func CheckTransition(from, to string) error {
	if !ValidStatus(to) {
		return &common.AppError{
			Code:       "VALIDATION_ERROR",
			Message:    "unknown order status " + to,
			HTTPStatus: http.StatusBadRequest,
		}
	}
	if !CanTransition(from, to) {
		return &common.AppError{
			Code:       "INVALID_STATUS_TRANSITION",
			Message:    "order cannot move from " + from + " to " + to,
			HTTPStatus: http.StatusConflict,
		}
	}
	return nil
}
