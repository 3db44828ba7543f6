package payment_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/ipsim-go/internal/application/payment"
	"github.com/rcarvalho-pb/ipsim-go/internal/domain/event"
	"github.com/rcarvalho-pb/ipsim-go/internal/domain/transaction"
	"github.com/rcarvalho-pb/ipsim-go/internal/infra/metrics"
	"github.com/rcarvalho-pb/ipsim-go/internal/infrastructure/persistence/inmemory"
)

type fakeBus struct {
	published []event.Event
	publishFn func(event.Event) error
}

func (f *fakeBus) Publish(evt event.Event) error {
	f.published = append(f.published, evt)
	if f.publishFn != nil {
		return f.publishFn(evt)
	}
	return nil
}

type noopLogger struct{}

func (n *noopLogger) Info(string, map[string]any)  {}
func (n *noopLogger) Error(string, map[string]any) {}

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newService(bus *fakeBus) (*payment.Service, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	return &payment.Service{
		Repo:            inmemory.NewTransactionRepository(),
		EventBus:        bus,
		Logger:          &noopLogger{},
		Metrics:         m,
		CheckoutBaseURL: "http://localhost:8080/checkout/",
		Now:             func() time.Time { return fixedNow },
	}, m
}

func validRequest() payment.SubmitRequest {
	return payment.SubmitRequest{
		Amount:       1550,
		Type:         transaction.TypeCreditSpot,
		Installments: 1,
		CardNumber:   "4000 1234 5678 9010",
		CardHolder:   "SIMULATED USER",
		CardExpiry:   "12/30",
	}
}

func TestService_Submit_ShouldStorePendingTransactionAndPublishEvent(t *testing.T) {
	bus := &fakeBus{}
	svc, m := newService(bus)

	tx, err := svc.Submit(validRequest())
	require.NoError(t, err)

	require.Equal(t, transaction.StatusPending, tx.Status)
	require.True(t, strings.HasPrefix(tx.OrderNSU, "ORD-1792411200-"), tx.OrderNSU)
	require.Len(t, tx.OrderNSU, len("ORD-1792411200-")+6)
	require.Equal(t, "http://localhost:8080/checkout/"+tx.OrderNSU, tx.CheckoutURL)
	require.Equal(t, "9010", tx.CardLast4)
	require.Nil(t, tx.NetAmount)

	stored, err := svc.FindByOrderNSU(tx.OrderNSU)
	require.NoError(t, err)
	require.Equal(t, tx.ID, stored.ID)

	require.Len(t, bus.published, 1)
	require.Equal(t, event.TransactionCreated, bus.published[0].Type)
	payload := bus.published[0].Payload.(event.TransactionCreatedPayload)
	require.Equal(t, tx.OrderNSU, payload.OrderNSU)
	require.Equal(t, int64(1550), payload.Amount)

	require.Equal(t, 1.0, testutil.ToFloat64(m.TransactionsTotal.WithLabelValues("PENDING")))
}

func TestService_Submit_ShouldValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*payment.SubmitRequest)
		wantErr error
	}{
		{"zero amount", func(r *payment.SubmitRequest) { r.Amount = 0 }, payment.ErrInvalidAmount},
		{"unknown type", func(r *payment.SubmitRequest) { r.Type = "PIX" }, payment.ErrInvalidType},
		{"spot with installments", func(r *payment.SubmitRequest) { r.Installments = 3 }, payment.ErrInvalidInstallments},
		{"single installment plan", func(r *payment.SubmitRequest) {
			r.Type = transaction.TypeCreditInstallment
			r.Installments = 1
		}, payment.ErrInvalidInstallments},
		{"too many installments", func(r *payment.SubmitRequest) {
			r.Type = transaction.TypeCreditInstallment
			r.Installments = 13
		}, payment.ErrInvalidInstallments},
		{"missing holder", func(r *payment.SubmitRequest) { r.CardHolder = " " }, payment.ErrMissingCard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &fakeBus{}
			svc, _ := newService(bus)

			req := validRequest()
			tt.mutate(&req)

			_, err := svc.Submit(req)
			require.ErrorIs(t, err, tt.wantErr)
			require.Empty(t, bus.published)
		})
	}
}

func TestService_Submit_ShouldDefaultInstallmentsToOne(t *testing.T) {
	svc, _ := newService(&fakeBus{})

	req := validRequest()
	req.Type = transaction.TypeDebit
	req.Installments = 0

	tx, err := svc.Submit(req)
	require.NoError(t, err)
	require.Equal(t, 1, tx.Installments)
}

func TestService_Submit_WhenPublishFails_ShouldReturnError(t *testing.T) {
	svc, _ := newService(&fakeBus{publishFn: func(event.Event) error { return errors.New("bus down") }})

	_, err := svc.Submit(validRequest())
	require.Error(t, err)
}

func TestService_ApplyWebhook_ShouldApproveWithNetAmount(t *testing.T) {
	svc, m := newService(&fakeBus{})
	tx, err := svc.Submit(validRequest())
	require.NoError(t, err)

	got, applied, err := svc.ApplyWebhook(event.WebhookPayload{
		OrderNSU:       tx.OrderNSU,
		InvoiceSlug:    "abc123",
		TransactionNSU: "TXN-1",
		ReceiptURL:     "http://localhost:8080/receipts/" + tx.OrderNSU,
		Installments:   1,
	})
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, transaction.StatusApproved, got.Status)
	require.Equal(t, "TXN-1", got.TransactionNSU)
	require.NotNil(t, got.NetAmount)
	require.Equal(t, int64(1550-47), *got.NetAmount)

	stored, _ := svc.FindByOrderNSU(tx.OrderNSU)
	require.Equal(t, transaction.StatusApproved, stored.Status)
	require.Equal(t, 1.0, testutil.ToFloat64(m.WebhooksTotal.WithLabelValues("applied")))
}

func TestService_ApplyWebhook_ShouldDenyWithReason(t *testing.T) {
	svc, _ := newService(&fakeBus{})
	tx, _ := svc.Submit(validRequest())

	got, applied, err := svc.ApplyWebhook(event.WebhookPayload{
		OrderNSU: tx.OrderNSU,
		Status:   "denied",
		Reason:   "insufficient funds",
	})
	require.NoError(t, err)
	require.True(t, applied)
	require.Equal(t, transaction.StatusDenied, got.Status)
	require.Equal(t, "insufficient funds", got.Message)
	require.Nil(t, got.NetAmount)
}

func TestService_ApplyWebhook_ShouldIgnoreDuplicates(t *testing.T) {
	svc, m := newService(&fakeBus{})
	tx, _ := svc.Submit(validRequest())

	_, _, err := svc.ApplyWebhook(event.WebhookPayload{OrderNSU: tx.OrderNSU})
	require.NoError(t, err)

	got, applied, err := svc.ApplyWebhook(event.WebhookPayload{OrderNSU: tx.OrderNSU, Status: "DENIED"})
	require.NoError(t, err)
	require.False(t, applied)
	require.Equal(t, transaction.StatusApproved, got.Status)
	require.Equal(t, 1.0, testutil.ToFloat64(m.WebhooksTotal.WithLabelValues("duplicate")))
}

func TestService_ApplyWebhook_ShouldRejectBadPayloads(t *testing.T) {
	svc, _ := newService(&fakeBus{})

	_, _, err := svc.ApplyWebhook(event.WebhookPayload{})
	require.ErrorIs(t, err, payment.ErrMissingOrderNSU)

	_, _, err = svc.ApplyWebhook(event.WebhookPayload{OrderNSU: "ORD-x", Status: "REFUNDED"})
	require.ErrorIs(t, err, payment.ErrInvalidWebhookStatus)

	_, _, err = svc.ApplyWebhook(event.WebhookPayload{OrderNSU: "ORD-unknown"})
	require.ErrorIs(t, err, transaction.ErrNotFound)
}

func TestWebhookEventHandler_ShouldAcknowledgeUnknownOrders(t *testing.T) {
	svc, _ := newService(&fakeBus{})
	handler := &payment.WebhookEventHandler{Service: svc}

	require.NoError(t, handler.Handle(event.Event{
		Type:    event.WebhookIssued,
		Payload: event.WebhookPayload{OrderNSU: "ORD-unknown"},
	}))
	require.Error(t, handler.Handle(event.Event{Type: event.WebhookIssued, Payload: 42}))
	require.NoError(t, handler.Handle(event.Event{Type: event.TransactionCreated}))
}
