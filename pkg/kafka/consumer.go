package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"github.com/AnhTuan1407/shopsphere-fe-sub001/pkg/logger"
)

const (
	defaultMaxAttempts  = 3
	defaultRetryBackoff = 100 * time.Millisecond
	fetchErrorBackoff   = time.Second
)

// Handler processes one decoded event. A returned error triggers a retry.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig describes one consumer group subscribed to Topics.
// MaxAttempts and RetryBackoff default to 3 and 100ms; the n-th retry waits
// n*RetryBackoff.
type ConsumerConfig struct {
	Brokers      []string
	GroupID      string
	Topics       []string
	MinBytes     int
	MaxBytes     int
	MaxAttempts  int
	RetryBackoff time.Duration
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer delivers messages to a Handler with at-least-once semantics. A
// message is committed once handled, or once its attempts are exhausted;
// poison messages never block the partition.
type Consumer struct {
	reader      messageReader
	handler     Handler
	logger      *slog.Logger
	groupID     string
	topics      []string
	maxAttempts int
	backoff     time.Duration
	deadLetter  DeadLetterer
	closeOnce   sync.Once
	closeErr    error
}

func NewConsumer(cfg ConsumerConfig, handler Handler, l *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
	})
	return newConsumer(r, cfg, handler, l)
}

func newConsumer(r messageReader, cfg ConsumerConfig, handler Handler, l *slog.Logger) *Consumer {
	if l == nil {
		l = slog.Default()
	}
	c := &Consumer{
		reader:      r,
		handler:     handler,
		logger:      l.With(slog.String("consumer_group", cfg.GroupID)),
		groupID:     cfg.GroupID,
		topics:      cfg.Topics,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.RetryBackoff,
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = defaultMaxAttempts
	}
	if c.backoff <= 0 {
		c.backoff = defaultRetryBackoff
	}
	return c
}

// WithDeadLetter parks messages whose attempts are exhausted on d before
// they are committed.
func (c *Consumer) WithDeadLetter(d DeadLetterer) *Consumer {
	c.deadLetter = d
	return c
}

// Start consumes until ctx is canceled, then closes the reader.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started", slog.Any("topics", c.topics))
	defer func() { _ = c.Close() }()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		switch {
		case ctx.Err() != nil:
			c.logger.Info("consumer stopping")
			return nil
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			c.logger.Error("fetch failed", slog.String("error", err.Error()))
			if !sleep(ctx, fetchErrorBackoff) {
				return nil
			}
			continue
		}

		consumerMessages.WithLabelValues(msg.Topic, c.groupID, resultReceived).Inc()
		if !c.process(ctx, msg) {
			return nil
		}
	}
}

// process handles and commits msg. It returns false if ctx ended while
// waiting between attempts; the message is then left uncommitted.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) bool {
	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		c.logger.Error("dropping malformed message",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		consumerMessages.WithLabelValues(msg.Topic, c.groupID, resultMalformed).Inc()
		c.commit(ctx, msg)
		return true
	}

	msgCtx := messageContext(ctx, msg, event)
	log := c.logger.With(
		slog.String("topic", msg.Topic),
		slog.String("event_type", event.EventType),
		slog.String("aggregate_id", event.AggregateID),
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
	)

	start := time.Now()
	err = c.handleWithRetry(msgCtx, event, log)
	consumerHandleDuration.WithLabelValues(msg.Topic, c.groupID).Observe(time.Since(start).Seconds())
	if ctx.Err() != nil {
		return false
	}

	result := resultProcessed
	if err != nil {
		result = resultFailed
		log.ErrorContext(msgCtx, "giving up on message", slog.Int("attempts", c.maxAttempts), slog.String("error", err.Error()))
		if c.parked(msgCtx, msg, err, log) {
			result = resultDeadLettered
		}
	}
	consumerMessages.WithLabelValues(msg.Topic, c.groupID, result).Inc()
	c.commit(ctx, msg)
	return true
}

// parked reports whether msg reached the dead-letter topic. A failed park is
// logged and the message is committed anyway.
func (c *Consumer) parked(ctx context.Context, msg kafka.Message, cause error, log *slog.Logger) bool {
	if c.deadLetter == nil {
		return false
	}
	if err := c.deadLetter.DeadLetter(ctx, msg, cause, c.groupID); err != nil {
		log.ErrorContext(ctx, "dead-letter failed", slog.String("error", err.Error()))
		return false
	}
	return true
}

func (c *Consumer) handleWithRetry(ctx context.Context, event *Event, log *slog.Logger) error {
	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err = c.handler(ctx, event); err == nil {
			return nil
		}
		log.WarnContext(ctx, "handler failed", slog.Int("attempt", attempt), slog.String("error", err.Error()))
		if attempt < c.maxAttempts && !sleep(ctx, time.Duration(attempt)*c.backoff) {
			return ctx.Err()
		}
	}
	return err
}

// messageContext restores the producer's trace and correlation ID.
func messageContext(ctx context.Context, msg kafka.Message, event *Event) context.Context {
	headers := msg.Headers
	ctx = otel.GetTextMapPropagator().Extract(ctx, NewHeaderCarrier(&headers))
	if event.CorrelationID != "" {
		ctx = logger.WithCorrelationID(ctx, event.CorrelationID)
	}
	return ctx
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("commit failed",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
	}
}

// Close is idempotent.
func (c *Consumer) Close() error {
	c.closeOnce.Do(func() { c.closeErr = c.reader.Close() })
	return c.closeErr
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// TopicPrefix namespaces every ShopSphere topic.
const TopicPrefix = "shopsphere"

// Topic returns "shopsphere.<domain>.<action>".
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}
