package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaExporter mirrors engine events to Kafka topics for downstream
// consumers (analytics, replay). Optional: the in-process bus remains
// the primary delivery path and the exporter is enabled by config.
type KafkaExporter struct {
	client      *kgo.Client
	topicPrefix string
	mu          sync.RWMutex
	closed      bool
}

// NewKafkaExporter creates an exporter producing to
// "<prefix>.<topic>" per event topic.
func NewKafkaExporter(brokers []string, instanceID, topicPrefix string) (*KafkaExporter, error) {
	kgoOpts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(instanceID),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(5 * time.Millisecond),
	}

	client, err := kgo.NewClient(kgoOpts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka exporter: %w", err)
	}

	log.Info().
		Strs("brokers", brokers).
		Str("topic_prefix", topicPrefix).
		Msg("kafka exporter created (franz-go)")

	return &KafkaExporter{
		client:      client,
		topicPrefix: topicPrefix,
	}, nil
}

// Publish produces the event asynchronously, keyed by event topic so a
// partition preserves per-topic ordering. Delivery errors are logged,
// not returned; export must never stall the engine.
func (k *KafkaExporter) Publish(ctx context.Context, event Event) error {
	k.mu.RLock()
	if k.closed {
		k.mu.RUnlock()
		return fmt.Errorf("kafka exporter is closed")
	}
	k.mu.RUnlock()

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	record := &kgo.Record{
		Topic:     fmt.Sprintf("%s.%s", k.topicPrefix, event.Topic),
		Key:       []byte(event.Topic),
		Value:     value,
		Timestamp: event.Timestamp,
	}

	k.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			log.Error().Err(err).
				Str("topic", r.Topic).
				Msg("kafka exporter: delivery failed")
		}
	})
	return nil
}

// Close flushes pending records and shuts down the client.
func (k *KafkaExporter) Close() {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return
	}
	k.closed = true
	k.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := k.client.Flush(ctx); err != nil {
		log.Warn().Err(err).Msg("kafka exporter: flush on close failed")
	}
	k.client.Close()
}
