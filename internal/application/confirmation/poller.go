package confirmation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rcarvalho-pb/ipsim-go/internal/domain/transaction"
	"github.com/rcarvalho-pb/ipsim-go/internal/infra/logging"
	"github.com/rcarvalho-pb/ipsim-go/internal/infra/metrics"
)

const (
	DefaultInterval = 3 * time.Second
	DefaultDeadline = 10 * time.Minute

	DefaultDeclineReason = "payment was declined by the processor"
)

// Callbacks is the presentation side of the poller. Every field is
// optional. OnApproved, OnDeclined and OnTimedOut fire at most once per
// session and never after Stop or a superseding Start has returned.
type Callbacks struct {
	OnWaiting    func(ref Reference)
	OnApproved   func(tx transaction.Transaction)
	OnDeclined   func(reason string)
	OnTimedOut   func()
	OnProbeError func(err error)
}

// Poller waits for one payment at a time to reach a terminal status.
//
// Start arms a probe ticker and an absolute deadline; the first probe runs
// immediately. Probes that fail are reported through OnProbeError and never
// end the session; only an APPROVED or DENIED answer, the deadline, or Stop
// does. The zero value is usable once Oracle is set.
type Poller struct {
	Oracle    StatusOracle
	Callbacks Callbacks
	Logger    logging.Logger
	Metrics   *metrics.Metrics
	Clock     clockwork.Clock
	Interval  time.Duration
	Deadline  time.Duration

	mu      sync.Mutex
	current *session
}

// session exclusively owns both timers. resolved flips once, under
// Poller.mu, and every continuation checks it before acting.
type session struct {
	ref      Reference
	ctx      context.Context
	cancel   context.CancelFunc
	ticker   clockwork.Ticker
	deadline clockwork.Timer
	resolved bool
}

func (s *session) release() {
	s.ticker.Stop()
	s.deadline.Stop()
	s.cancel()
}

type probeResult struct {
	tx  transaction.Transaction
	err error
}

// Start retires any active session without notifying it, then begins
// polling ref.
func (p *Poller) Start(ref Reference) {
	clock := p.clock()

	p.mu.Lock()
	prev := p.current
	retired := p.detach(prev)

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		ref:      ref,
		ctx:      ctx,
		cancel:   cancel,
		ticker:   clock.NewTicker(p.interval()),
		deadline: clock.NewTimer(p.deadline()),
	}
	p.current = s
	p.mu.Unlock()

	if retired {
		p.finish(prev, OutcomeCancelled)
	}

	p.Metrics.SessionStarted()
	p.logInfo("confirmation polling started", map[string]any{
		"order-nsu": string(ref),
		"interval":  p.interval().String(),
		"deadline":  p.deadline().String(),
	})

	if cb := p.Callbacks.OnWaiting; cb != nil {
		cb(ref)
	}

	go p.run(s)
}

// Stop silently cancels the active session, if any. It is idempotent and
// may be called from inside a callback.
func (p *Poller) Stop() {
	p.mu.Lock()
	s := p.current
	stopped := p.detach(s)
	p.mu.Unlock()

	if stopped {
		p.finish(s, OutcomeCancelled)
	}
}

// Active returns the reference being polled, if a session is running.
func (p *Poller) Active() (Reference, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return "", false
	}
	return p.current.ref, true
}

// detach must be called with p.mu held. It reports whether s was the live
// session; only the caller that gets true may emit s's terminal event.
func (p *Poller) detach(s *session) bool {
	if s == nil || s.resolved || p.current != s {
		return false
	}
	s.resolved = true
	s.release()
	p.current = nil
	return true
}

func (p *Poller) live(s *session) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current == s && !s.resolved
}

func (p *Poller) run(s *session) {
	results := make(chan probeResult)

	if s.ctx.Err() != nil {
		return
	}
	go p.probe(s, results)

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-s.ticker.Chan():
			go p.probe(s, results)

		case r := <-results:
			if p.handle(s, r) {
				return
			}

		case <-s.deadline.Chan():
			if p.drain(s, results) {
				return
			}
			p.resolve(s, OutcomeTimedOut, probeResult{})
			return
		}
	}
}

// drain handles probe results that were already waiting when the deadline
// fired. A result in hand is authoritative; the deadline only means no
// answer arrived.
func (p *Poller) drain(s *session, results <-chan probeResult) bool {
	for {
		select {
		case r := <-results:
			if p.handle(s, r) {
				return true
			}
		default:
			return false
		}
	}
}

func (p *Poller) probe(s *session, results chan<- probeResult) {
	clock := p.clock()
	start := clock.Now()

	tx, err := p.Oracle.Check(s.ctx, s.ref)
	if err == nil && !tx.Status.Valid() {
		err = fmt.Errorf("%w: %q", ErrMalformedStatus, tx.Status)
	}

	if s.ctx.Err() == nil {
		label := "error"
		if err == nil {
			label = string(tx.Status)
		}
		p.Metrics.ObserveProbe(label, clock.Since(start))
	}

	select {
	case results <- probeResult{tx: tx, err: err}:
	case <-s.ctx.Done():
	}
}

// handle reports whether the session is over.
func (p *Poller) handle(s *session, r probeResult) bool {
	if r.err != nil {
		return !p.reportProbeError(s, r.err)
	}

	switch r.tx.Status {
	case transaction.StatusApproved:
		p.resolve(s, OutcomeApproved, r)
		return true
	case transaction.StatusDenied:
		p.resolve(s, OutcomeDeclined, r)
		return true
	}
	return false
}

// reportProbeError reports whether s is still live. The second liveness
// check commits the delivery and nothing caller-supplied runs between it and
// OnProbeError, so a Stop that gets the lock first always silences it, even
// one that lands while the logger is busy.
func (p *Poller) reportProbeError(s *session, err error) bool {
	if !p.live(s) {
		return false
	}
	p.logError("payment status probe failed", map[string]any{
		"order-nsu": string(s.ref),
		"error":     err,
	})

	if !p.live(s) {
		return false
	}
	if cb := p.Callbacks.OnProbeError; cb != nil {
		cb(err)
	}
	return true
}

func (p *Poller) resolve(s *session, outcome Outcome, r probeResult) {
	p.mu.Lock()
	won := p.detach(s)
	p.mu.Unlock()

	if !won {
		return
	}
	p.finish(s, outcome)

	switch outcome {
	case OutcomeApproved:
		if cb := p.Callbacks.OnApproved; cb != nil {
			cb(r.tx)
		}
	case OutcomeDeclined:
		reason := r.tx.Message
		if reason == "" {
			reason = DefaultDeclineReason
		}
		if cb := p.Callbacks.OnDeclined; cb != nil {
			cb(reason)
		}
	case OutcomeTimedOut:
		if cb := p.Callbacks.OnTimedOut; cb != nil {
			cb()
		}
	}
}

func (p *Poller) finish(s *session, outcome Outcome) {
	p.Metrics.SessionEnded(outcome.String())
	p.logInfo("confirmation polling finished", map[string]any{
		"order-nsu": string(s.ref),
		"outcome":   outcome.String(),
	})
}

func (p *Poller) clock() clockwork.Clock {
	if p.Clock == nil {
		return clockwork.NewRealClock()
	}
	return p.Clock
}

func (p *Poller) interval() time.Duration {
	if p.Interval <= 0 {
		return DefaultInterval
	}
	return p.Interval
}

func (p *Poller) deadline() time.Duration {
	if p.Deadline <= 0 {
		return DefaultDeadline
	}
	return p.Deadline
}

func (p *Poller) logInfo(msg string, fields map[string]any) {
	if p.Logger != nil {
		p.Logger.Info(msg, fields)
	}
}

func (p *Poller) logError(msg string, fields map[string]any) {
	if p.Logger != nil {
		p.Logger.Error(msg, fields)
	}
}
