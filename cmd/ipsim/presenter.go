package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rcarvalho-pb/ipsim-go/internal/application/confirmation"
	"github.com/rcarvalho-pb/ipsim-go/internal/domain/transaction"
)

// presenter renders poller events on a terminal and reports the single
// outcome on done.
type presenter struct {
	out      io.Writer
	interval time.Duration
	deadline time.Duration

	mu   sync.Mutex
	done chan confirmation.Outcome
}

func newPresenter(out io.Writer, interval, deadline time.Duration) *presenter {
	return &presenter{
		out:      out,
		interval: interval,
		deadline: deadline,
		done:     make(chan confirmation.Outcome, 1),
	}
}

func (p *presenter) callbacks() confirmation.Callbacks {
	return confirmation.Callbacks{
		OnWaiting:    p.waiting,
		OnApproved:   p.approved,
		OnDeclined:   p.declined,
		OnTimedOut:   p.timedOut,
		OnProbeError: p.probeError,
	}
}

func (p *presenter) waiting(ref confirmation.Reference) {
	p.printf("Waiting for payment %s (checking every %s, giving up after %s)\n", ref, p.interval, p.deadline)
}

func (p *presenter) approved(tx transaction.Transaction) {
	net := "-"
	if tx.NetAmount != nil {
		net = formatCents(*tx.NetAmount)
	}
	p.printf("Payment approved: amount %s, net %s\n", formatCents(tx.Amount), net)
	if tx.ReceiptURL != "" {
		p.printf("Receipt: %s\n", tx.ReceiptURL)
	}
	p.resolve(confirmation.OutcomeApproved)
}

func (p *presenter) declined(reason string) {
	p.printf("Payment declined: %s\n", reason)
	p.resolve(confirmation.OutcomeDeclined)
}

func (p *presenter) timedOut() {
	p.printf("No confirmation received within %s\n", p.deadline)
	p.resolve(confirmation.OutcomeTimedOut)
}

func (p *presenter) probeError(err error) {
	p.printf("Status check failed, retrying: %v\n", err)
}

func (p *presenter) resolve(o confirmation.Outcome) {
	select {
	case p.done <- o:
	default:
	}
}

func (p *presenter) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func formatCents(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%sR$ %d.%02d", sign, v/100, v%100)
}
