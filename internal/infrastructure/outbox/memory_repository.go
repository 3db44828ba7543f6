package outbox

import (
	"slices"
	"sync"
)

// MemoryRepository backs the outbox when the server runs without a
// database file.
type MemoryRepository struct {
	mu     sync.Mutex
	events []OutboxEvent
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Save(evt OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	evt.Published = false
	evt.Payload = slices.Clone(evt.Payload)
	r.events = append(r.events, evt)
	return nil
}

func (r *MemoryRepository) FindUnpublished(limit int) ([]OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []OutboxEvent
	for _, evt := range r.events {
		if evt.Published {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, evt)
	}
	return out, nil
}

func (r *MemoryRepository) MarkPublished(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.events {
		if r.events[i].ID == id {
			r.events[i].Published = true
		}
	}

	// drop the published prefix so the slice does not grow forever
	idx := slices.IndexFunc(r.events, func(e OutboxEvent) bool { return !e.Published })
	if idx < 0 {
		r.events = r.events[:0]
	} else {
		r.events = r.events[idx:]
	}
	return nil
}
