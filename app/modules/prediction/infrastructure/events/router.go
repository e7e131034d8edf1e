package predictionevents

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

const invalidationHandlerName = "prediction.cache_invalidation"

// Router wires prediction topics to their handlers.
type Router struct {
	logger     *slog.Logger
	router     *message.Router
	subscriber message.Subscriber
}

// NewRouter builds a Watermill router with retry and panic recovery.
func NewRouter(subscriber message.Subscriber, logger *slog.Logger) (*Router, error) {
	wmLogger := watermill.NewSlogLogger(logger)
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}
	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Logger:          wmLogger,
		}.Middleware,
	)
	return &Router{logger: logger, router: router, subscriber: subscriber}, nil
}

// Configure registers the handlers.
func (r *Router) Configure(handlers *Handlers) {
	r.logger.Info("Registering prediction event handlers",
		slog.String("evaluated_subject", EvaluatedTopicV1),
	)
	r.router.AddNoPublisherHandler(invalidationHandlerName, EvaluatedTopicV1, r.subscriber, handlers.HandleEvaluated)
}

// Run blocks until ctx is cancelled or the router is closed.
func (r *Router) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running is closed once every handler is subscribed.
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// Close shuts down the router.
func (r *Router) Close() error {
	return r.router.Close()
}
