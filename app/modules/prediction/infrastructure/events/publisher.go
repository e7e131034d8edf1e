package predictionevents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
)

// Publisher announces committed evaluation runs on the message bus.
type Publisher struct {
	publisher message.Publisher
	logger    *slog.Logger
}

func NewPublisher(publisher message.Publisher, logger *slog.Logger) *Publisher {
	return &Publisher{publisher: publisher, logger: logger}
}

// PublishEvaluated publishes event on EvaluatedTopicV1.
func (p *Publisher) PublishEvaluated(ctx context.Context, event predictiondomain.EvaluatedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal evaluated event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(metadataSubject, EvaluatedTopicV1)
	msg.Metadata.Set(metadataEventKind, event.Kind.String())

	if err := p.publisher.Publish(EvaluatedTopicV1, msg); err != nil {
		return fmt.Errorf("failed to publish evaluated event: %w", err)
	}

	p.logger.DebugContext(ctx, "Published evaluated event",
		slog.String("message_id", msg.UUID),
		slog.String("event_kind", event.Kind.String()),
		slog.String("event_id", event.EventID.String()),
	)
	return nil
}
