package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"course-media/internal/broker"
	"course-media/internal/domain"

	"github.com/wb-go/wbf/retry"
)

// EventPublisher writes image events keyed by course, so events of one
// course keep their order within a partition.
type EventPublisher struct {
	producer broker.Producer
	retries  retry.Strategy
}

func NewEventPublisher(producer broker.Producer, retries retry.Strategy) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		retries:  retries,
	}
}

func (p *EventPublisher) Publish(ctx context.Context, event *domain.ImageEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.producer.Send(ctx, p.retries, []byte(event.CourseID), value); err != nil {
		return fmt.Errorf("failed to send %s event: %w", event.Type, err)
	}
	return nil
}

// DecodeEvent parses a message produced by EventPublisher.
func DecodeEvent(msg *broker.Message) (*domain.ImageEvent, error) {
	var event domain.ImageEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("event has no type")
	}
	return &event, nil
}
