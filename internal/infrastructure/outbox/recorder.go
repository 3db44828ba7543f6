package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rcarvalho-pb/ipsim-go/internal/domain/event"
)

type Recorder struct {
	Repo Repository
}

func (r *Recorder) Record(evt event.Event) error {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", evt.Type, err)
	}

	return r.Repo.Save(OutboxEvent{
		ID:        "outbox_" + uuid.NewString(),
		Type:      evt.Type,
		Payload:   payload,
		CreatedAt: time.Now(),
	})
}
