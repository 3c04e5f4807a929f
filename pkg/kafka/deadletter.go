package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// DeadLetterPrefix namespaces the topics that park exhausted messages.
const DeadLetterPrefix = TopicPrefix + ".dlq"

// DeadLetterTopic returns the parking topic for source.
func DeadLetterTopic(source string) string {
	return DeadLetterPrefix + "." + source
}

// DeadLetterer parks a message whose handler kept failing.
type DeadLetterer interface {
	DeadLetter(ctx context.Context, msg kafka.Message, cause error, groupID string) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DeadLetterWriter copies failed messages, with their origin in the
// headers, to DeadLetterTopic(msg.Topic).
type DeadLetterWriter struct {
	writer messageWriter
	logger *slog.Logger
}

func NewDeadLetterWriter(brokers []string, l *slog.Logger) *DeadLetterWriter {
	return newDeadLetterWriter(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              1,
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}, l)
}

func newDeadLetterWriter(w messageWriter, l *slog.Logger) *DeadLetterWriter {
	if l == nil {
		l = slog.Default()
	}
	return &DeadLetterWriter{writer: w, logger: l}
}

func (d *DeadLetterWriter) DeadLetter(ctx context.Context, msg kafka.Message, cause error, groupID string) error {
	parked := deadLetterMessage(msg, cause, groupID)
	if err := d.writer.WriteMessages(ctx, parked); err != nil {
		return fmt.Errorf("dead-letter to %s: %w", parked.Topic, err)
	}
	d.logger.WarnContext(ctx, "message dead-lettered",
		slog.String("dlq_topic", parked.Topic),
		slog.String("topic", msg.Topic),
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
	)
	return nil
}

func (d *DeadLetterWriter) Close() error {
	return d.writer.Close()
}

func deadLetterMessage(msg kafka.Message, cause error, groupID string) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers)+5)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: "dlq_source_topic", Value: []byte(msg.Topic)},
		kafka.Header{Key: "dlq_source_partition", Value: []byte(strconv.Itoa(msg.Partition))},
		kafka.Header{Key: "dlq_source_offset", Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		kafka.Header{Key: "dlq_consumer_group", Value: []byte(groupID)},
	)
	if cause != nil {
		headers = append(headers, kafka.Header{Key: "dlq_error", Value: []byte(cause.Error())})
	}
	return kafka.Message{
		Topic:   DeadLetterTopic(msg.Topic),
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	}
}
