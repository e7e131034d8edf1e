package predictionevents

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	nc "github.com/nats-io/nats.go"
)

// PubSub is a publisher and subscriber over one transport.
type PubSub struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Close closes both sides.
func (p PubSub) Close() error {
	perr := p.Publisher.Close()
	serr := p.Subscriber.Close()
	if perr != nil {
		return perr
	}
	return serr
}

// NewNATSPubSub connects to core NATS. Every instance subscribes without a
// queue group so each one drops its own cache entries.
func NewNATSPubSub(url string, logger *slog.Logger) (PubSub, error) {
	wmLogger := watermill.NewSlogLogger(logger)
	marshaler := &wmnats.NATSMarshaler{}
	options := []nc.Option{
		nc.RetryOnFailedConnect(true),
		nc.Timeout(5 * time.Second),
		nc.ReconnectWait(time.Second),
	}
	jetStream := wmnats.JetStreamConfig{Disabled: true}

	publisher, err := wmnats.NewPublisher(wmnats.PublisherConfig{
		URL:         url,
		NatsOptions: options,
		Marshaler:   marshaler,
		JetStream:   jetStream,
	}, wmLogger)
	if err != nil {
		return PubSub{}, fmt.Errorf("failed to create NATS publisher: %w", err)
	}

	subscriber, err := wmnats.NewSubscriber(wmnats.SubscriberConfig{
		URL:            url,
		NatsOptions:    options,
		Unmarshaler:    marshaler,
		JetStream:      jetStream,
		CloseTimeout:   10 * time.Second,
		AckWaitTimeout: 30 * time.Second,
	}, wmLogger)
	if err != nil {
		_ = publisher.Close()
		return PubSub{}, fmt.Errorf("failed to create NATS subscriber: %w", err)
	}

	return PubSub{Publisher: publisher, Subscriber: subscriber}, nil
}

// NewInProcessPubSub is used when no NATS URL is configured and in tests.
func NewInProcessPubSub(logger *slog.Logger) PubSub {
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermill.NewSlogLogger(logger))
	return PubSub{Publisher: ch, Subscriber: ch}
}
