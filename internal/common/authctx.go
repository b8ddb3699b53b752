package common

import "context"

type ctxKey string

const (
	userIDKey ctxKey = "auth/user-id"
	roleKey   ctxKey = "auth/role"
)

// RoleAdmin grants cross-user access to orders, profiles and admin mutations.
const RoleAdmin = "ADMIN"

// WithUserID stores the authenticated user identifier on the provided context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID extracts the authenticated user identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// WithRole stores the authenticated user's role on the provided context.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey, role)
}

// Role extracts the authenticated user's role from the context if present.
func Role(ctx context.Context) (string, bool) {
	v := ctx.Value(roleKey)
	if v == nil {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}

// IsAdmin reports whether the context principal carries the admin role.
func IsAdmin(ctx context.Context) bool {
	role, ok := Role(ctx)
	return ok && role == RoleAdmin
}
