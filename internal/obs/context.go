package obs

import "context"

type routePatternKey struct{}

// WithRoutePattern records the matched chi route pattern for downstream
// instrumentation (metrics labels, span names).
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext returns the recorded pattern, or "".
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(routePatternKey{}).(string); ok {
		return v
	}
	return ""
}
