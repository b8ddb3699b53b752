package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/twofourteen/backend-scents/internal/common"
)

var errNoToken = errors.New("auth: token missing")

// Middleware wires authentication context into HTTP handlers.
type Middleware struct {
	Service *Service
}

// Authenticate attaches the caller principal to the request context when a
// valid token is present. Requests without a token pass through untouched.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := m.authenticateRequest(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth enforces that a valid token is present before executing the next handler.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := m.authenticateRequest(r)
		if err != nil {
			if errors.Is(err, errNoToken) {
				common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
				return
			}
			var appErr *common.AppError
			if errors.As(err, &appErr) {
				status := appErr.HTTPStatus
				if status == 0 {
					status = http.StatusUnauthorized
				}
				common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
				return
			}
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin enforces an authenticated caller with the admin role.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !common.IsAdmin(r.Context()) {
			common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "admin role required", nil)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func (m Middleware) authenticateRequest(r *http.Request) (context.Context, error) {
	if m.Service == nil {
		return r.Context(), errors.New("auth: service not configured")
	}
	token := extractBearer(r)
	if token == "" {
		return r.Context(), errNoToken
	}
	principal, err := m.Service.ParseAccessToken(token)
	if err != nil {
		return r.Context(), err
	}
	ctx := common.WithUserID(r.Context(), principal.UserID)
	if principal.Role != "" {
		ctx = common.WithRole(ctx, principal.Role)
	}
	return ctx, nil
}

func extractBearer(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
