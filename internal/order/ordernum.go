package order

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// NewOrderNumber builds a human-readable order number such as
// ORD-20260831-4F21A9. Uniqueness is enforced by the orders table; the
// random suffix makes collisions within a day vanishingly rare.
func NewOrderNumber(now time.Time) string {
	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	return "ORD-" + now.UTC().Format("20060102") + "-" + strings.ToUpper(hex.EncodeToString(buf))
}
