// Package publisher provides audit event sinks.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "agrifund/pkg/platform/audit"
)

// Kafka publishes decision-audit events to a Kafka topic. Produces are
// asynchronous and best-effort: a failed produce is logged, never surfaced
// to the approval flow.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// KafkaOption configures the Kafka publisher.
type KafkaOption func(*Kafka)

// WithLogger sets a logger for produce failures.
func WithLogger(logger *slog.Logger) KafkaOption {
	return func(k *Kafka) { k.logger = logger }
}

// NewKafka constructs a Kafka publisher. Returns nil (disabled) when no
// brokers are configured.
func NewKafka(brokers []string, topic string, opts ...KafkaOption) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	k := &Kafka{client: client, topic: topic}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

// Emit serializes the event and produces it asynchronously, keyed by
// notification ID so decisions on one notification stay ordered.
func (k *Kafka) Emit(ctx context.Context, event audit.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(event.NotificationID.String()),
		Value: data,
	}
	k.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil && k.logger != nil {
			k.logger.Error("audit event produce failed",
				"action", event.Action,
				"notification_id", event.NotificationID,
				"error", err,
			)
		}
	})
	return nil
}

// Close flushes outstanding produces and releases the client.
func (k *Kafka) Close() error {
	k.client.Flush(context.Background())
	k.client.Close()
	return nil
}
