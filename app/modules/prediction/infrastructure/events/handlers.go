package predictionevents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
	"github.com/tipping-league/prediction-core/app/shared/observability"
)

// Invalidator drops cached entries by tag.
type Invalidator interface {
	Invalidate(ctx context.Context, tags ...string) error
}

// Handlers reacts to prediction events.
type Handlers struct {
	invalidator Invalidator
	logger      *slog.Logger
}

func NewHandlers(invalidator Invalidator, logger *slog.Logger) *Handlers {
	return &Handlers{invalidator: invalidator, logger: logger}
}

// HandleEvaluated invalidates every cache entry tagged by the evaluated event.
// Malformed payloads are acked and dropped; invalidation errors are returned
// so the router retries.
func (h *Handlers) HandleEvaluated(msg *message.Message) error {
	ctx := msg.Context()

	var event predictiondomain.EvaluatedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		h.logger.WarnContext(ctx, "Dropping malformed evaluated event",
			slog.String("message_id", msg.UUID),
			observability.Err(err),
		)
		return nil
	}
	if len(event.Tags) == 0 {
		return nil
	}

	if err := h.invalidator.Invalidate(ctx, event.Tags...); err != nil {
		return fmt.Errorf("failed to invalidate %d tags: %w", len(event.Tags), err)
	}

	h.logger.InfoContext(ctx, "Invalidated cached predictions",
		slog.String("event_kind", event.Kind.String()),
		slog.String("event_id", event.EventID.String()),
		slog.Any("tags", event.Tags),
	)
	return nil
}
