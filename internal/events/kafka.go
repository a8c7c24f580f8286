package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink produces transition events to a Kafka topic, keyed by entity id
// so per-entity ordering survives partitioning.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// NewKafkaSink connects to the brokers and ensures the topic exists.
// Topic creation failing with "already exists" is fine; any other error is
// surfaced so misconfiguration shows up at startup, not at first emit.
func NewKafkaSink(ctx context.Context, brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}

	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, ctr := range resp.Sorted() {
		if ctr.Err != nil && !errors.Is(ctr.Err, kerr.TopicAlreadyExists) {
			client.Close()
			return nil, fmt.Errorf("create topic %s: %w", topic, ctr.Err)
		}
	}

	return &KafkaSink{client: client, topic: topic}, nil
}

func (s *KafkaSink) Append(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(e.EntityID),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event: %w", err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (s *KafkaSink) Close() {
	s.client.Close()
}
