// Package orphans publishes records about artifacts that were uploaded but never
// referenced by an order, for an out-of-process reconciliation job.
package orphans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

type Report struct {
	SubmissionID string    `json:"submission_id"`
	UserID       string    `json:"user_id"`
	Stage        string    `json:"stage"`
	Reason       string    `json:"reason"`
	StorageKeys  []string  `json:"storage_keys"`
	Uncertain    []string  `json:"uncertain_keys,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type SinkI interface {
	Publish(ctx context.Context, report Report) error
	Close()
}

// NopSink is used when no broker is configured.
type NopSink struct{}

func (NopSink) Publish(context.Context, Report) error { return nil }
func (NopSink) Close()                                {}

type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type KafkaSink struct {
	producer producer
	topic    string
}

func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are not configured")
	}
	if topic == "" {
		return nil, errors.New("kafka orphan topic is not configured")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerLinger(0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return &KafkaSink{producer: client, topic: topic}, nil
}

// Publish writes the report keyed by submission id, so every record of one submission lands on one partition.
func (sink *KafkaSink) Publish(ctx context.Context, report Report) error {
	if report.OccurredAt.IsZero() {
		report.OccurredAt = time.Now().UTC()
	}

	value, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode orphan report: %w", err)
	}

	record := &kgo.Record{
		Topic: sink.topic,
		Key:   []byte(report.SubmissionID),
		Value: value,
	}
	if err = sink.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to publish orphan report: %w", err)
	}
	return nil
}

func (sink *KafkaSink) Close() {
	sink.producer.Close()
}
