package payment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rcarvalho-pb/ipsim-go/internal/domain/event"
	"github.com/rcarvalho-pb/ipsim-go/internal/domain/transaction"
	"github.com/rcarvalho-pb/ipsim-go/internal/infra/logging"
	"github.com/rcarvalho-pb/ipsim-go/internal/infra/metrics"
)

var (
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrInvalidType          = errors.New("invalid transaction type")
	ErrInvalidInstallments  = errors.New("invalid installments")
	ErrMissingCard          = errors.New("card number and card holder are required")
	ErrMissingOrderNSU      = errors.New("missing order_nsu")
	ErrInvalidWebhookStatus = errors.New("invalid webhook status")
)

const (
	messagePending  = "Awaiting checkout confirmation"
	messageApproved = "Transaction approved successfully"
	messageDenied   = "Transaction denied"
)

type EventPublisher interface {
	Publish(event.Event) error
}

type Service struct {
	Repo            transaction.Repository
	EventBus        EventPublisher
	Logger          logging.Logger
	Metrics         *metrics.Metrics
	CheckoutBaseURL string
	Now             func() time.Time
}

type SubmitRequest struct {
	Amount       int64
	Type         transaction.Type
	Installments int
	CardNumber   string
	CardHolder   string
	CardExpiry   string
}

func (r *SubmitRequest) validate() error {
	if r.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !r.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, r.Type)
	}
	if r.Installments == 0 {
		r.Installments = 1
	}
	switch r.Type {
	case transaction.TypeCreditInstallment:
		if r.Installments < minSplitInstallments || r.Installments > maxInstallments {
			return fmt.Errorf("%w: %d", ErrInvalidInstallments, r.Installments)
		}
	default:
		if r.Installments != 1 {
			return fmt.Errorf("%w: %s is paid in a single installment", ErrInvalidInstallments, r.Type)
		}
	}
	if strings.TrimSpace(r.CardNumber) == "" || strings.TrimSpace(r.CardHolder) == "" {
		return ErrMissingCard
	}
	return nil
}

// Submit registers a PENDING transaction behind a fresh checkout link. The
// final status arrives later through ApplyWebhook.
func (s *Service) Submit(req SubmitRequest) (*transaction.Transaction, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	orderNSU := generateOrderNSU(now)

	tx := &transaction.Transaction{
		ID:           uuid.NewString(),
		Amount:       req.Amount,
		Type:         req.Type,
		Installments: req.Installments,
		Status:       transaction.StatusPending,
		Timestamp:    now,
		Message:      messagePending,
		CheckoutURL:  strings.TrimRight(s.CheckoutBaseURL, "/") + "/" + orderNSU,
		OrderNSU:     orderNSU,
		CardHolder:   req.CardHolder,
		CardLast4:    last4(req.CardNumber),
	}

	if err := s.Repo.Save(tx); err != nil {
		return nil, fmt.Errorf("save transaction: %w", err)
	}
	s.Metrics.IncTransaction(string(transaction.StatusPending))

	s.info("payment initiated", map[string]any{
		"transaction-id": tx.ID,
		"order-nsu":      tx.OrderNSU,
		"amount":         tx.Amount,
		"type":           string(tx.Type),
		"installments":   tx.Installments,
	})

	err := s.EventBus.Publish(event.Event{
		Type: event.TransactionCreated,
		Payload: event.TransactionCreatedPayload{
			TransactionID: tx.ID,
			OrderNSU:      tx.OrderNSU,
			Amount:        tx.Amount,
			Installments:  tx.Installments,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("publish %s: %w", event.TransactionCreated, err)
	}

	return tx, nil
}

// ApplyWebhook settles the transaction named by the payload. The boolean is
// false when the transaction was already terminal and nothing changed.
func (s *Service) ApplyWebhook(p event.WebhookPayload) (*transaction.Transaction, bool, error) {
	if p.OrderNSU == "" {
		s.Metrics.IncWebhook("invalid")
		return nil, false, ErrMissingOrderNSU
	}

	status, err := webhookStatus(p.Status)
	if err != nil {
		s.Metrics.IncWebhook("invalid")
		return nil, false, err
	}

	tx, err := s.Repo.FindByOrderNSU(p.OrderNSU)
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			s.Metrics.IncWebhook("unknown")
			s.info("webhook for unknown order acknowledged", map[string]any{
				"order-nsu": p.OrderNSU,
			})
		}
		return nil, false, err
	}

	if tx.Status.Terminal() {
		s.Metrics.IncWebhook("duplicate")
		s.info("duplicate webhook ignored", map[string]any{
			"order-nsu": p.OrderNSU,
			"status":    string(tx.Status),
		})
		return tx, false, nil
	}

	tx.Status = status
	tx.InvoiceSlug = p.InvoiceSlug
	tx.TransactionNSU = p.TransactionNSU
	tx.ReceiptURL = p.ReceiptURL
	tx.Timestamp = s.now()
	if p.Installments > 0 {
		tx.Installments = p.Installments
	}

	switch status {
	case transaction.StatusApproved:
		net := NetAmount(tx.Amount, tx.Type, tx.Installments)
		tx.NetAmount = &net
		tx.Message = messageApproved
	case transaction.StatusDenied:
		tx.Message = messageDenied
		if p.Reason != "" {
			tx.Message = p.Reason
		}
	}

	if err := s.Repo.Update(tx); err != nil {
		return nil, false, fmt.Errorf("update transaction: %w", err)
	}

	s.Metrics.IncWebhook("applied")
	s.Metrics.IncTransaction(string(status))
	s.info("transaction settled", map[string]any{
		"transaction-id": tx.ID,
		"order-nsu":      tx.OrderNSU,
		"status":         string(tx.Status),
	})

	return tx, true, nil
}

func (s *Service) FindByOrderNSU(orderNSU string) (*transaction.Transaction, error) {
	return s.Repo.FindByOrderNSU(orderNSU)
}

func (s *Service) List() ([]*transaction.Transaction, error) {
	return s.Repo.FindAll()
}

func webhookStatus(raw string) (transaction.Status, error) {
	switch transaction.Status(strings.ToUpper(raw)) {
	case "", transaction.StatusApproved:
		return transaction.StatusApproved, nil
	case transaction.StatusDenied:
		return transaction.StatusDenied, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidWebhookStatus, raw)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) info(msg string, fields map[string]any) {
	if s.Logger != nil {
		s.Logger.Info(msg, fields)
	}
}
