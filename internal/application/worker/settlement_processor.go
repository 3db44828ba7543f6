package worker

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rcarvalho-pb/ipsim-go/internal/application/contracts"
	"github.com/rcarvalho-pb/ipsim-go/internal/domain/event"
	"github.com/rcarvalho-pb/ipsim-go/internal/infra/logging"
	"github.com/rcarvalho-pb/ipsim-go/internal/infra/metrics"
)

const declineReason = "Payment was declined by the issuer"

// SettlementProcessor plays the external checkout provider: some time after
// a transaction is created it decides the payment and emits the webhook the
// provider would send.
type SettlementProcessor struct {
	Recorder       contracts.EventRecorder
	Scheduler      Scheduler
	Executor       PaymentExecutor
	Logger         logging.Logger
	Metrics        *metrics.Metrics
	Delay          time.Duration
	ReceiptBaseURL string

	// claimed holds orders whose settlement is scheduled but not finished.
	mu      sync.Mutex
	claimed map[string]struct{}
}

func (p *SettlementProcessor) Handle(evt event.Event) error {
	if evt.Type != event.TransactionCreated {
		return nil
	}

	payload, ok := evt.Payload.(event.TransactionCreatedPayload)
	if !ok {
		return errors.New("invalid payload for TransactionCreated")
	}

	if !p.claim(payload.OrderNSU) {
		return nil
	}

	p.Logger.Info("settlement scheduled", map[string]any{
		"order-nsu": payload.OrderNSU,
		"delay":     p.Delay.String(),
	})

	p.Scheduler.Schedule(p.Delay, func() {
		defer p.unclaim(payload.OrderNSU)

		if err := p.Settle(payload); err != nil {
			p.Logger.Error("settlement failed", map[string]any{
				"order-nsu": payload.OrderNSU,
				"error":     err,
			})
		}
	})

	return nil
}

// Settle decides the payment and records the resulting webhook in the
// outbox.
func (p *SettlementProcessor) Settle(payload event.TransactionCreatedPayload) error {
	approved := p.Executor.Execute()

	webhook := event.WebhookPayload{
		OrderNSU:       payload.OrderNSU,
		InvoiceSlug:    generateInvoiceSlug(),
		TransactionNSU: generateTransactionNSU(),
		Amount:         payload.Amount,
		Installments:   payload.Installments,
		CaptureMethod:  "credit_card",
	}

	result := "approved"
	if approved {
		webhook.ReceiptURL = strings.TrimRight(p.ReceiptBaseURL, "/") + "/" + payload.OrderNSU
	} else {
		result = "denied"
		webhook.Status = "DENIED"
		webhook.Reason = declineReason
	}

	if err := p.Recorder.Record(event.Event{
		Type:    event.WebhookIssued,
		Payload: webhook,
	}); err != nil {
		return fmt.Errorf("record webhook: %w", err)
	}

	p.Metrics.IncSettlement(result)
	p.Logger.Info("payment settled", map[string]any{
		"order-nsu":       payload.OrderNSU,
		"transaction-nsu": webhook.TransactionNSU,
		"result":          result,
	})

	return nil
}

func (p *SettlementProcessor) claim(orderNSU string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.claimed == nil {
		p.claimed = make(map[string]struct{})
	}
	if _, exists := p.claimed[orderNSU]; exists {
		return false
	}
	p.claimed[orderNSU] = struct{}{}
	return true
}

func (p *SettlementProcessor) unclaim(orderNSU string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.claimed, orderNSU)
}

// InFlight returns the number of settlements scheduled but not finished.
func (p *SettlementProcessor) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.claimed)
}
