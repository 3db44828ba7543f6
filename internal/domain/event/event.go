package event

type Type string

const (
	TransactionCreated Type = "TRANSACTION_CREATED"
	WebhookIssued      Type = "WEBHOOK_ISSUED"
)

type Event struct {
	Type    Type
	Payload any
}
