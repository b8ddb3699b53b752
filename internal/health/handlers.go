package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Checker probes the dependencies the API needs to serve traffic.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Handler serves the liveness and readiness endpoints.
type Handler struct {
	Checker      Checker
	DBTimeout    time.Duration
	RedisTimeout time.Duration
}

// Live answers liveness probes. It never touches dependencies.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports per-dependency status and 503s when any probe fails.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !IsReady() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if h.Checker == nil {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}
	ctx := r.Context()
	status := map[string]string{"db": "ok", "redis": "ok"}
	if err := h.Checker.PingDB(ctx, h.dbTimeout()); err != nil {
		status["db"] = err.Error()
	}
	if err := h.Checker.PingRedis(ctx, h.redisTimeout()); err != nil {
		status["redis"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	if status["db"] != "ok" || status["redis"] != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (h Handler) dbTimeout() time.Duration {
	if h.DBTimeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.DBTimeout
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
