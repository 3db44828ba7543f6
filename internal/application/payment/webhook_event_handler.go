package payment

import (
	"errors"

	"github.com/rcarvalho-pb/ipsim-go/internal/domain/event"
	"github.com/rcarvalho-pb/ipsim-go/internal/domain/transaction"
)

// WebhookEventHandler applies webhooks delivered through the event bus.
type WebhookEventHandler struct {
	Service *Service
}

func (h *WebhookEventHandler) Handle(evt event.Event) error {
	if evt.Type != event.WebhookIssued {
		return nil
	}

	payload, ok := evt.Payload.(event.WebhookPayload)
	if !ok {
		return errors.New("invalid payload for WebhookIssued")
	}

	_, _, err := h.Service.ApplyWebhook(payload)
	if errors.Is(err, transaction.ErrNotFound) {
		return nil
	}
	return err
}
