package payment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// generateOrderNSU follows the ORD-{unix}-{6 hex} shape the checkout
// provider echoes back in webhooks.
func generateOrderNSU(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%s", now.Unix(), uuid.NewString()[:6])
}

func last4(pan string) string {
	digits := make([]rune, 0, len(pan))
	for _, r := range pan {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) <= 4 {
		return string(digits)
	}
	return string(digits[len(digits)-4:])
}
