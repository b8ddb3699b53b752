package health

import "sync/atomic"

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady flips the readiness gate. Flipping it off before draining lets
// load balancers stop routing ahead of the actual shutdown.
func SetReady(v bool) {
	ready.Store(v)
}

// IsReady reports the readiness gate state.
func IsReady() bool {
	return ready.Load()
}
