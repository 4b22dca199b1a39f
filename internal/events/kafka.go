package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaStore publishes events to a Kafka topic, keyed by subject so all
// events for one record land on the same partition in order. ListRecent is
// not served from Kafka; pair this sink with an InMemoryStore (or the
// journal) for reads.
type KafkaStore struct {
	client *kgo.Client
	topic  string
}

// NewKafkaStore connects to the brokers and ensures the topic exists.
// Topic creation is idempotent; an already-exists response is not an error.
func NewKafkaStore(ctx context.Context, brokers, topic string) (*KafkaStore, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(brokers, ",")...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure topic %s: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("ensure topic %s: %w", topic, resp.Err)
	}

	return &KafkaStore{client: client, topic: topic}, nil
}

func (s *KafkaStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Subject),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event: %w", err)
	}
	return nil
}

// ListRecent is unsupported on the Kafka sink.
func (s *KafkaStore) ListRecent(context.Context, int) ([]Event, error) {
	return nil, fmt.Errorf("kafka sink does not support reads")
}

func (s *KafkaStore) Close() {
	s.client.Close()
}
