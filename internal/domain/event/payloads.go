package event

import (
	"encoding/json"
	"fmt"
)

type TransactionCreatedPayload struct {
	TransactionID string `json:"transaction_id"`
	OrderNSU      string `json:"order_nsu"`
	Amount        int64  `json:"amount"`
	Installments  int    `json:"installments"`
}

// WebhookPayload mirrors the body the checkout provider posts once a
// checkout settles. Status is empty for approvals.
type WebhookPayload struct {
	OrderNSU       string `json:"order_nsu"`
	InvoiceSlug    string `json:"invoice_slug"`
	TransactionNSU string `json:"transaction_nsu"`
	ReceiptURL     string `json:"receipt_url"`
	Amount         int64  `json:"amount"`
	Installments   int    `json:"installments"`
	CaptureMethod  string `json:"capture_method"`
	Status         string `json:"status,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// DecodePayload restores the typed payload of a serialized event.
func DecodePayload(t Type, data []byte) (any, error) {
	switch t {
	case TransactionCreated:
		var p TransactionCreatedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case WebhookIssued:
		var p WebhookPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown event type %q", t)
}
