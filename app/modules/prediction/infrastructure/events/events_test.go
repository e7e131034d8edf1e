package predictionevents

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
)

type FakeInvalidator struct {
	mu    sync.Mutex
	calls [][]string
	seen  chan struct{}

	InvalidateFunc func(ctx context.Context, tags ...string) error
}

func NewFakeInvalidator() *FakeInvalidator {
	return &FakeInvalidator{seen: make(chan struct{}, 8)}
}

func (f *FakeInvalidator) Invalidate(ctx context.Context, tags ...string) error {
	f.mu.Lock()
	f.calls = append(f.calls, tags)
	f.mu.Unlock()
	f.seen <- struct{}{}
	if f.InvalidateFunc != nil {
		return f.InvalidateFunc(ctx, tags...)
	}
	return nil
}

func (f *FakeInvalidator) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func evaluatedEvent() predictiondomain.EvaluatedEvent {
	eventID, leagueID := uuid.New(), uuid.New()
	return predictiondomain.EvaluatedEvent{
		Kind:           predictiondomain.KindMatch,
		EventID:        eventID,
		LeagueID:       leagueID,
		FullRun:        true,
		UsersEvaluated: 3,
		Tags:           predictiondomain.CacheTags(predictiondomain.KindMatch, eventID, leagueID),
		EvaluatedAt:    time.Date(2026, 6, 14, 21, 0, 0, 0, time.UTC),
	}
}

func TestPublishedEventInvalidatesCache(t *testing.T) {
	logger := discardLogger()
	ps := NewInProcessPubSub(logger)
	defer ps.Close()

	invalidator := NewFakeInvalidator()
	router, err := NewRouter(ps.Subscriber, logger)
	require.NoError(t, err)
	router.Configure(NewHandlers(invalidator, logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = router.Run(ctx) }()
	defer router.Close()

	select {
	case <-router.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}

	event := evaluatedEvent()
	require.NoError(t, NewPublisher(ps.Publisher, logger).PublishEvaluated(ctx, event))

	select {
	case <-invalidator.seen:
	case <-time.After(5 * time.Second):
		t.Fatal("invalidation was not delivered")
	}
	assert.Equal(t, [][]string{event.Tags}, invalidator.Calls())
}

func TestHandleEvaluated(t *testing.T) {
	t.Run("malformed payload is dropped", func(t *testing.T) {
		invalidator := NewFakeInvalidator()
		h := NewHandlers(invalidator, discardLogger())

		err := h.HandleEvaluated(message.NewMessage(watermill.NewUUID(), []byte("{not json")))
		require.NoError(t, err)
		assert.Empty(t, invalidator.Calls())
	})

	t.Run("invalidation error is returned for retry", func(t *testing.T) {
		invalidator := NewFakeInvalidator()
		invalidator.InvalidateFunc = func(ctx context.Context, tags ...string) error {
			return errors.New("redis unavailable")
		}
		h := NewHandlers(invalidator, discardLogger())

		payload := []byte(`{"kind":"question","eventId":"` + uuid.NewString() + `","tags":["prediction:event:question:x"]}`)
		err := h.HandleEvaluated(message.NewMessage(watermill.NewUUID(), payload))
		require.Error(t, err)
		assert.Len(t, invalidator.Calls(), 1)
	})

	t.Run("event without tags is ignored", func(t *testing.T) {
		invalidator := NewFakeInvalidator()
		h := NewHandlers(invalidator, discardLogger())

		err := h.HandleEvaluated(message.NewMessage(watermill.NewUUID(), []byte(`{"kind":"match"}`)))
		require.NoError(t, err)
		assert.Empty(t, invalidator.Calls())
	})
}
