package contracts

import "github.com/rcarvalho-pb/ipsim-go/internal/domain/event"

type EventRecorder interface {
	Record(event.Event) error
}
