package transaction

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("transaction not found")

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusDenied   Status = "DENIED"
)

// Valid reports whether s is one of the three statuses the processor emits.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusDenied
}

type Type string

const (
	TypeDebit             Type = "DEBIT"
	TypeCreditSpot        Type = "CREDIT_SPOT"
	TypeCreditInstallment Type = "CREDIT_INSTALLMENT"
)

func (t Type) Valid() bool {
	switch t {
	case TypeDebit, TypeCreditSpot, TypeCreditInstallment:
		return true
	}
	return false
}

// Transaction amounts are in cents.
type Transaction struct {
	ID             string
	Amount         int64
	NetAmount      *int64
	Type           Type
	Installments   int
	Status         Status
	Timestamp      time.Time
	Message        string
	CheckoutURL    string
	OrderNSU       string
	ReceiptURL     string
	TransactionNSU string
	InvoiceSlug    string
	CardHolder     string
	CardLast4      string
}

// Clone returns a deep copy so repositories never hand out shared pointers.
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.NetAmount != nil {
		net := *t.NetAmount
		c.NetAmount = &net
	}
	return &c
}
