package worker

import (
	"math/rand/v2"
)

// RandomPaymentExecutor approves a payment with probability ApprovalRate.
type RandomPaymentExecutor struct {
	ApprovalRate float64
}

func (r *RandomPaymentExecutor) Execute() bool {
	return rand.Float64() < r.ApprovalRate
}
