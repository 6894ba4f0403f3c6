// Package event publishes domain events through the transactional outbox.
// Events are written as PENDING rows; the worker process relays them to the
// message broker and marks them PROCESSED.
package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/careconnect/api/internal/model"
	"github.com/careconnect/api/internal/repository"
)

// Emitter records a domain event for asynchronous delivery.
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload interface{}) error
}

type outboxEmitter struct {
	repo repository.OutboxRepository
}

func NewOutboxEmitter(repo repository.OutboxRepository) Emitter {
	return &outboxEmitter{repo: repo}
}

func (e *outboxEmitter) Emit(ctx context.Context, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return e.repo.Create(ctx, &model.OutboxEvent{
		EventType: eventType,
		Payload:   json.RawMessage(data),
	})
}
