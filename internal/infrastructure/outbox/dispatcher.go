package outbox

import (
	"context"
	"time"

	"github.com/rcarvalho-pb/ipsim-go/internal/domain/event"
	"github.com/rcarvalho-pb/ipsim-go/internal/infra/logging"
	"github.com/rcarvalho-pb/ipsim-go/internal/infra/metrics"
)

type EventPublisher interface {
	Publish(event.Event) error
}

// Dispatcher drains recorded events onto the bus. An event that fails to
// decode or publish stays unpublished and is retried on the next tick.
type Dispatcher struct {
	Repo         Repository
	EventBus     EventPublisher
	Logger       logging.Logger
	Metrics      *metrics.Metrics
	PollInterval time.Duration
	BatchSize    int
}

func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.DispatchOnce()
		}
	}
}

// DispatchOnce returns the number of events published.
func (d *Dispatcher) DispatchOnce() int {
	events, err := d.Repo.FindUnpublished(d.BatchSize)
	if err != nil {
		d.logError("outbox read failed", map[string]any{"error": err})
		return 0
	}

	published := 0
	for _, evt := range events {
		payload, err := event.DecodePayload(evt.Type, evt.Payload)
		if err != nil {
			d.logError("outbox event undecodable", map[string]any{
				"outbox-id":  evt.ID,
				"event-type": string(evt.Type),
				"error":      err,
			})
			continue
		}

		if err := d.EventBus.Publish(event.Event{Type: evt.Type, Payload: payload}); err != nil {
			d.logError("outbox publish failed", map[string]any{
				"outbox-id":  evt.ID,
				"event-type": string(evt.Type),
				"error":      err,
			})
			continue
		}

		if err := d.Repo.MarkPublished(evt.ID); err != nil {
			d.logError("outbox mark published failed", map[string]any{
				"outbox-id": evt.ID,
				"error":     err,
			})
			continue
		}

		d.Metrics.IncDispatched()
		published++
	}

	return published
}

func (d *Dispatcher) logError(msg string, fields map[string]any) {
	if d.Logger != nil {
		d.Logger.Error(msg, fields)
	}
}
