package event

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/repository"
	pkgkafka "github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/kafka"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/logger"
)

// --- Mocks ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}

type mockInvalidator struct {
	mock.Mock
}

func (m *mockInvalidator) Invalidate(ctx context.Context, kinds ...repository.RefKind) error {
	args := m.Called(ctx, kinds)
	return args.Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestEvent(eventType string) *pkgkafka.Event {
	return &pkgkafka.Event{
		EventID:       "evt-test-123",
		EventType:     eventType,
		AggregateID:   "agg-test-456",
		AggregateType: "product",
		Version:       1,
		Timestamp:     time.Now().UTC(),
		Source:        "test-service",
		Data:          json.RawMessage(`{}`),
	}
}

// ============================================================
// Producer
// ============================================================

func TestProducer_PublishLineSelected(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, newTestLogger())

	data := CartLineData{ProfileID: "7", LineID: "11", ProductID: "1", VariantID: "10", Selected: true, Quantity: 2, CartTotal: 180000}

	pub.On("Publish", mock.Anything, TopicCartLineSelected, mock.MatchedBy(func(e *pkgkafka.Event) bool {
		var got CartLineData
		return e.EventType == TopicCartLineSelected &&
			e.AggregateID == "7" &&
			e.AggregateType == AggregateTypeCart &&
			e.Source == SourceStorefront &&
			e.UnmarshalData(&got) == nil &&
			got == data
	})).Return(nil).Once()

	require.NoError(t, p.PublishLineSelected(context.Background(), data))
	pub.AssertExpectations(t)
}

func TestProducer_StampsSessionMetadata(t *testing.T) {
	pub := new(mockPublisher)
	p := NewProducer(pub, newTestLogger())

	pub.On("Publish", mock.Anything, TopicCartLineRemoved, mock.MatchedBy(func(e *pkgkafka.Event) bool {
		return e.Metadata["session_id"] == "sess-9"
	})).Return(nil).Once()
	pub.On("Publish", mock.Anything, TopicCartLineRemoved, mock.MatchedBy(func(e *pkgkafka.Event) bool {
		return e.Metadata == nil
	})).Return(nil).Once()

	ctx := logger.WithSession(context.Background(), "sess-9", "7")
	require.NoError(t, p.PublishLineRemoved(ctx, CartLineData{ProfileID: "7", LineID: "11"}))
	require.NoError(t, p.PublishLineRemoved(context.Background(), CartLineData{ProfileID: "7", LineID: "12"}))
	pub.AssertExpectations(t)
}

func TestProducer_Topics(t *testing.T) {
	tests := []struct {
		name    string
		publish func(p *Producer) error
		topic   string
		aggID   string
	}{
		{"quantity", func(p *Producer) error {
			return p.PublishQuantityChanged(context.Background(), CartLineData{ProfileID: "7"})
		}, TopicCartQuantityChanged, "7"},
		{"removed", func(p *Producer) error {
			return p.PublishLineRemoved(context.Background(), CartLineData{ProfileID: "7"})
		}, TopicCartLineRemoved, "7"},
		{"all selected", func(p *Producer) error {
			return p.PublishAllSelected(context.Background(), CartAllSelectedData{ProfileID: "7"})
		}, TopicCartAllSelected, "7"},
		{"session started", func(p *Producer) error {
			return p.PublishSessionStarted(context.Background(), SessionData{SessionID: "s-1"})
		}, TopicSessionStarted, "s-1"},
		{"session ended", func(p *Producer) error {
			return p.PublishSessionEnded(context.Background(), SessionData{SessionID: "s-1"})
		}, TopicSessionEnded, "s-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := new(mockPublisher)
			pub.On("Publish", mock.Anything, tt.topic, mock.MatchedBy(func(e *pkgkafka.Event) bool {
				return e.AggregateID == tt.aggID
			})).Return(nil).Once()

			require.NoError(t, tt.publish(NewProducer(pub, newTestLogger())))
			pub.AssertExpectations(t)
		})
	}
}

func TestProducer_PublishError(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, TopicCartLineRemoved, mock.Anything).Return(errors.New("broker down"))

	err := NewProducer(pub, newTestLogger()).PublishLineRemoved(context.Background(), CartLineData{ProfileID: "7"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish "+TopicCartLineRemoved)
}

// ============================================================
// Consumer
// ============================================================

func TestConsumer_InvalidatesByTopic(t *testing.T) {
	tests := []struct {
		eventType string
		kind      repository.RefKind
	}{
		{TopicProductUpdated, repository.RefProducts},
		{TopicSupplierUpdated, repository.RefSuppliers},
		{TopicFlashSaleUpdated, repository.RefFlashSales},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			cache := new(mockInvalidator)
			cache.On("Invalidate", mock.Anything, []repository.RefKind{tt.kind}).Return(nil).Once()

			c := NewConsumer(cache, newTestLogger())
			require.NoError(t, c.Handle(context.Background(), newTestEvent(tt.eventType)))
			cache.AssertExpectations(t)
		})
	}
}

func TestConsumer_IgnoresUnknownEvents(t *testing.T) {
	cache := new(mockInvalidator)
	c := NewConsumer(cache, newTestLogger())

	require.NoError(t, c.Handle(context.Background(), newTestEvent("shopsphere.order.created")))
	cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestConsumer_InvalidateError(t *testing.T) {
	cache := new(mockInvalidator)
	cache.On("Invalidate", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	err := NewConsumer(cache, newTestLogger()).Handle(context.Background(), newTestEvent(TopicProductUpdated))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalidate products")
}

func TestConsumedTopics(t *testing.T) {
	for _, topic := range ConsumedTopics() {
		_, ok := invalidations[topic]
		assert.True(t, ok, topic)
	}
	assert.Len(t, ConsumedTopics(), len(invalidations))
}
