package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/internal/repository"
	pkgkafka "github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/kafka"
)

// Kafka topics consumed by the storefront. Each one invalidates a class of
// cached reference data.
const (
	TopicProductUpdated   = "shopsphere.catalog.product_updated"
	TopicSupplierUpdated  = "shopsphere.catalog.supplier_updated"
	TopicFlashSaleUpdated = "shopsphere.flash_sale.updated"
)

var invalidations = map[string]repository.RefKind{
	TopicProductUpdated:   repository.RefProducts,
	TopicSupplierUpdated:  repository.RefSuppliers,
	TopicFlashSaleUpdated: repository.RefFlashSales,
}

// ConsumedTopics lists the topics Consumer handles.
func ConsumedTopics() []string {
	return []string{TopicProductUpdated, TopicSupplierUpdated, TopicFlashSaleUpdated}
}

// Invalidator drops cached reference data.
type Invalidator interface {
	Invalidate(ctx context.Context, kinds ...repository.RefKind) error
}

// Consumer invalidates the reference cache when upstream data changes.
type Consumer struct {
	cache  Invalidator
	logger *slog.Logger
}

// NewConsumer creates a new cache invalidation consumer.
func NewConsumer(cache Invalidator, logger *slog.Logger) *Consumer {
	return &Consumer{
		cache:  cache,
		logger: logger,
	}
}

// Handle is a pkgkafka.Handler. Events of unknown type are skipped.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	kind, ok := invalidations[event.EventType]
	if !ok {
		c.logger.DebugContext(ctx, "ignoring event",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	if err := c.cache.Invalidate(ctx, kind); err != nil {
		return fmt.Errorf("invalidate %s: %w", kind, err)
	}

	c.logger.InfoContext(ctx, "reference cache invalidated",
		slog.String("kind", string(kind)),
		slog.String("event_id", event.EventID),
		slog.String("aggregate_id", event.AggregateID),
	)

	return nil
}
