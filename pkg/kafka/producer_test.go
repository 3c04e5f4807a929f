package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/logger"
)

type quantityChanged struct {
	LineID   string `json:"line_id"`
	Quantity int    `json:"quantity"`
}

func TestNewEvent_Fields(t *testing.T) {
	data := quantityChanged{LineID: "42", Quantity: 3}
	event, err := NewEvent("cart.line.quantity_changed", "42", "cart_line", "shopsphere-storefront", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "cart.line.quantity_changed", event.EventType)
	assert.Equal(t, "42", event.AggregateID)
	assert.Equal(t, "cart_line", event.AggregateType)
	assert.Equal(t, "shopsphere-storefront", event.Source)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)

	var got quantityChanged
	require.NoError(t, event.UnmarshalData(&got))
	assert.Equal(t, data, got)
}

func TestNewEvent_InvalidData(t *testing.T) {
	_, err := NewEvent("test.event", "agg-1", "test", "svc", make(chan int))
	require.Error(t, err)
}

func TestEvent_MarshalPreservesEnvelope(t *testing.T) {
	original, err := NewEvent("session.login", "sess-1", "session", "svc", map[string]string{"profile_id": "7"})
	require.NoError(t, err)
	original.WithCorrelationID("corr-abc").WithMetadata("user_agent", "test")

	raw, err := original.Marshal()
	require.NoError(t, err)

	restored, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, original.EventID, restored.EventID)
	assert.Equal(t, "corr-abc", restored.CorrelationID)
	assert.Equal(t, "test", restored.Metadata["user_agent"])
	assert.JSONEq(t, string(original.Data), string(restored.Data))
}

func TestEvent_WithMetadata_NilMetadataMap(t *testing.T) {
	event := &Event{EventID: "test-id"}
	event.WithMetadata("key", "value")
	assert.Equal(t, "value", event.Metadata["key"])
}

func TestEvent_UnmarshalData_Invalid(t *testing.T) {
	event := &Event{Data: json.RawMessage(`not valid json`)}
	var target map[string]string
	require.Error(t, event.UnmarshalData(&target))
}

func TestUnmarshalEvent_Invalid(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`{broken json`))
	require.Error(t, err)
	_, err = UnmarshalEvent([]byte{})
	require.Error(t, err)
}

func TestUnmarshalEvent_MissingEventType(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`{"event_id":"e1","data":{}}`))
	require.ErrorIs(t, err, ErrMalformedEvent)
}

func TestEvent_UnmarshalData_Empty(t *testing.T) {
	event := &Event{EventType: "shopsphere.catalog.product_updated"}
	var target map[string]string
	require.ErrorIs(t, event.UnmarshalData(&target), ErrMalformedEvent)
}

func TestNewEvent_StampsEnvelope(t *testing.T) {
	event, err := NewEvent("shopsphere.cart.all_selected", "42", "cart", "storefront-cart", map[string]bool{"selected": true})
	require.NoError(t, err)
	assert.Equal(t, EnvelopeVersion, event.Version)
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, time.UTC, event.Timestamp.Location())
	assert.Nil(t, event.Metadata)
}

func TestDefaultProducerConfig(t *testing.T) {
	brokers := []string{"broker1:9092", "broker2:9092"}
	cfg := DefaultProducerConfig(brokers)

	assert.Equal(t, brokers, cfg.Brokers)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 10*time.Millisecond, cfg.BatchTimeout)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
	assert.False(t, cfg.Async)
}

func TestTopic_Format(t *testing.T) {
	assert.Equal(t, "shopsphere", TopicPrefix)
	assert.Equal(t, "shopsphere.cart.line-selected", Topic("cart", "line-selected"))
	assert.Equal(t, "shopsphere.catalog.product-updated", Topic("catalog", "product-updated"))
}

func TestNewProducer_CreatesInstance(t *testing.T) {
	p := NewProducer(DefaultProducerConfig([]string{"localhost:19092"}), nil)
	require.NotNil(t, p)
	assert.Equal(t, []string{"localhost:19092"}, p.brokers)
	assert.NoError(t, p.Close())
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	require.ErrorIs(t, PingBrokers(t.Context(), nil), ErrNoBrokers)
}

func TestPingBrokers_JoinsFailures(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := PingBrokers(ctx, []string{"127.0.0.1:1", "127.0.0.1:2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
	assert.Contains(t, err.Error(), "127.0.0.1:2")
}

func TestToMessage_KeyedByAggregate(t *testing.T) {
	event, err := NewEvent("cart.line.quantity_changed", "line-5", "cart_line", "svc", quantityChanged{LineID: "line-5", Quantity: 2})
	require.NoError(t, err)

	msg, err := toMessage(context.Background(), "shopsphere.cart.line-quantity-changed", event)
	require.NoError(t, err)

	assert.Equal(t, []byte("line-5"), msg.Key)
	assert.Equal(t, "shopsphere.cart.line-quantity-changed", msg.Topic)
	assert.Equal(t, event.Timestamp, msg.Time)

	restored, err := UnmarshalEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, restored.EventID)
}

func TestBuildHeaders_CorrelationAndTraceContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "publish")
	defer span.End()

	event, err := NewEvent("cart.line.removed", "9", "cart_line", "svc", nil)
	require.NoError(t, err)
	event.WithCorrelationID("corr-1")

	headers := buildHeaders(ctx, event)
	carrier := NewHeaderCarrier(&headers)

	assert.Equal(t, "cart.line.removed", carrier.Get("event_type"))
	assert.Equal(t, "svc", carrier.Get("source"))
	assert.Equal(t, "corr-1", carrier.Get("correlation_id"))
	assert.Equal(t, "1", carrier.Get("schema_version"))
	assert.Contains(t, carrier.Get("traceparent"), span.SpanContext().TraceID().String())
}

func TestPublish_DefaultsCorrelationIDFromContext(t *testing.T) {
	p := NewProducer(ProducerConfig{Brokers: []string{"127.0.0.1:1"}, BatchSize: 1, BatchTimeout: time.Millisecond}, nil)
	defer func() { _ = p.Close() }()

	event, err := NewEvent("cart.line.selected", "1", "cart_line", "svc", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(logger.WithCorrelationID(context.Background(), "req-9"), 200*time.Millisecond)
	defer cancel()

	// No broker is listening, so the write fails; the envelope is still stamped.
	require.Error(t, p.Publish(ctx, Topic("cart", "line-selected"), event))
	assert.Equal(t, "req-9", event.CorrelationID)
}
