package httpapi

import (
	"time"

	"github.com/rcarvalho-pb/ipsim-go/internal/domain/transaction"
)

// Amounts travel in cents.
type CreateTransactionRequest struct {
	Amount       int64  `json:"amount"`
	Type         string `json:"type"`
	Installments int    `json:"installments"`
	CardNumber   string `json:"cardNumber"`
	CardHolder   string `json:"cardHolder"`
	CardExpiry   string `json:"cardExpiry"`
}

type TransactionResponse struct {
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

func toResponse(tx *transaction.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          tx.ID,
		Amount:      tx.Amount,
		NetAmount:   tx.NetAmount,
		Status:      string(tx.Status),
		Timestamp:   tx.Timestamp,
		Message:     tx.Message,
		CheckoutURL: optional(tx.CheckoutURL),
		OrderNSU:    optional(tx.OrderNSU),
		ReceiptURL:  optional(tx.ReceiptURL),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
