package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// NewRedisLimiter builds a limiter backed by a Redis store.
func NewRedisLimiter(client *redis.Client, rate limiter.Rate, prefix string) (*limiter.Limiter, error) {
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, err
	}
	return limiter.New(store, rate), nil
}

// Handler enforces rate limits before delegating to the next handler.
type Handler struct {
	Limiter *limiter.Limiter
	Key     func(*http.Request) string
	OnError func(error)
}

// Middleware implements the http.Handler middleware interface. Store errors
// fail open so a Redis outage does not take the API down with it.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter == nil || h.Key == nil {
			next.ServeHTTP(w, r)
			return
		}
		lctx, err := h.Limiter.Get(r.Context(), h.Key(r))
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		headers.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			retryAfter := lctx.Reset - time.Now().Unix()
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
