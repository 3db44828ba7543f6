package worker

import "time"

type PaymentExecutor interface {
	Execute() bool
}

type Scheduler interface {
	Schedule(delay time.Duration, fn func())
}
