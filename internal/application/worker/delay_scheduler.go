package worker

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DelayScheduler runs functions after a delay on the clock. Stop cancels
// everything still pending and waits for functions already running.
type DelayScheduler struct {
	Clock clockwork.Clock

	mu      sync.Mutex
	timers  map[clockwork.Timer]struct{}
	closed  bool
	running sync.WaitGroup
}

func (s *DelayScheduler) Schedule(delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.timers == nil {
		s.timers = make(map[clockwork.Timer]struct{})
	}

	clock := s.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	// the callback takes s.mu first, so t is assigned before it is read
	var t clockwork.Timer
	t = clock.AfterFunc(delay, func() {
		s.mu.Lock()
		_, pending := s.timers[t]
		delete(s.timers, t)
		if pending {
			s.running.Add(1)
		}
		s.mu.Unlock()

		if pending {
			defer s.running.Done()
			fn()
		}
	})
	s.timers[t] = struct{}{}
}

func (s *DelayScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *DelayScheduler) Stop() {
	s.mu.Lock()
	s.closed = true
	for t := range s.timers {
		t.Stop()
	}
	clear(s.timers)
	s.mu.Unlock()

	s.running.Wait()
}
