package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"urec/internal/platform/config"
)

// KafkaPublisher emits occupancy change events to a Kafka topic, keyed by
// area id so per-area ordering survives partitioning.
type KafkaPublisher struct {
	client *kgo.Client
	logger *slog.Logger
}

// NewKafka constructs a Kafka-backed publisher. Returns nil if no brokers
// are configured.
func NewKafka(cfg config.KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, logger: logger}, nil
}

// PublishChanged produces the event asynchronously; delivery failures are
// logged, never surfaced to the caller.
func (p *KafkaPublisher) PublishChanged(ctx context.Context, ev Changed) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.ErrorContext(ctx, "marshal occupancy event", "error", err)
		return
	}

	record := &kgo.Record{Key: []byte(ev.AreaID), Value: payload}
	p.client.Produce(context.WithoutCancel(ctx), record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("publish occupancy event",
				"area_id", ev.AreaID,
				"event_id", ev.EventID,
				"error", err,
			)
		}
	})
}

// Health verifies broker connectivity.
func (p *KafkaPublisher) Health(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close flushes pending records and releases the client.
func (p *KafkaPublisher) Close() {
	_ = p.client.Flush(context.Background())
	p.client.Close()
}
