package apiclient

import (
	"time"

	"github.com/rcarvalho-pb/ipsim-go/internal/domain/transaction"
)

// PaymentRequest is the body of a payment submission. Amount is in cents.
type PaymentRequest struct {
	Amount       int64  `json:"amount"`
	Type         string `json:"type"`
	Installments int    `json:"installments"`
	CardNumber   string `json:"cardNumber"`
	CardHolder   string `json:"cardHolder"`
	CardExpiry   string `json:"cardExpiry"`
}

type transactionResp struct {
	ID          string    `json:"id"`
	Amount      int64     `json:"amount"`
	NetAmount   *int64    `json:"netAmount"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Message     string    `json:"message"`
	CheckoutURL *string   `json:"checkoutUrl"`
	OrderNSU    *string   `json:"orderNsu"`
	ReceiptURL  *string   `json:"receiptUrl"`
}

// toTransaction keeps the status verbatim; deciding whether it is one of
// the known values is left to the caller.
func (r transactionResp) toTransaction() transaction.Transaction {
	return transaction.Transaction{
		ID:          r.ID,
		Amount:      r.Amount,
		NetAmount:   r.NetAmount,
		Status:      transaction.Status(r.Status),
		Timestamp:   r.Timestamp,
		Message:     r.Message,
		CheckoutURL: deref(r.CheckoutURL),
		OrderNSU:    deref(r.OrderNSU),
		ReceiptURL:  deref(r.ReceiptURL),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
