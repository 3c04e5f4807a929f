package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/kafka"
	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/logger"
)

// Kafka topic constants for storefront cart and session events.
const (
	TopicCartLineSelected    = "shopsphere.cart.line_selected"
	TopicCartQuantityChanged = "shopsphere.cart.quantity_changed"
	TopicCartLineRemoved     = "shopsphere.cart.line_removed"
	TopicCartAllSelected     = "shopsphere.cart.all_selected"
	TopicSessionStarted      = "shopsphere.session.started"
	TopicSessionEnded        = "shopsphere.session.ended"
)

// Aggregate type constants.
const (
	AggregateTypeCart    = "cart"
	AggregateTypeSession = "session"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront-cart"

// CartLineData is the payload of every single-line cart event.
type CartLineData struct {
	ProfileID string `json:"profile_id"`
	LineID    string `json:"line_id"`
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Selected  bool   `json:"selected"`
	Quantity  int    `json:"quantity"`
	CartTotal int64  `json:"cart_total"`
}

// CartAllSelectedData is the payload of a cart.all_selected event.
type CartAllSelectedData struct {
	ProfileID string `json:"profile_id"`
	Selected  bool   `json:"selected"`
	LineCount int    `json:"line_count"`
	CartTotal int64  `json:"cart_total"`
}

// SessionData is the payload of session events.
type SessionData struct {
	SessionID string `json:"session_id"`
	ProfileID string `json:"profile_id"`
	Username  string `json:"username,omitempty"`
}

// Producer publishes storefront events to Kafka.
type Producer struct {
	kafka  pkgkafka.Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishLineSelected publishes a cart.line_selected event.
func (p *Producer) PublishLineSelected(ctx context.Context, data CartLineData) error {
	return p.publish(ctx, TopicCartLineSelected, data.ProfileID, AggregateTypeCart, data)
}

// PublishQuantityChanged publishes a cart.quantity_changed event.
func (p *Producer) PublishQuantityChanged(ctx context.Context, data CartLineData) error {
	return p.publish(ctx, TopicCartQuantityChanged, data.ProfileID, AggregateTypeCart, data)
}

// PublishLineRemoved publishes a cart.line_removed event.
func (p *Producer) PublishLineRemoved(ctx context.Context, data CartLineData) error {
	return p.publish(ctx, TopicCartLineRemoved, data.ProfileID, AggregateTypeCart, data)
}

// PublishAllSelected publishes a cart.all_selected event.
func (p *Producer) PublishAllSelected(ctx context.Context, data CartAllSelectedData) error {
	return p.publish(ctx, TopicCartAllSelected, data.ProfileID, AggregateTypeCart, data)
}

// PublishSessionStarted publishes a session.started event.
func (p *Producer) PublishSessionStarted(ctx context.Context, data SessionData) error {
	return p.publish(ctx, TopicSessionStarted, data.SessionID, AggregateTypeSession, data)
}

// PublishSessionEnded publishes a session.ended event.
func (p *Producer) PublishSessionEnded(ctx context.Context, data SessionData) error {
	return p.publish(ctx, TopicSessionEnded, data.SessionID, AggregateTypeSession, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if sid := logger.SessionIDFromContext(ctx); sid != "" {
		event.WithMetadata("session_id", sid)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}
