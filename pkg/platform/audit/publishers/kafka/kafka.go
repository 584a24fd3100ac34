// Package kafka publishes audit events to a Kafka topic so external
// consumers (retention jobs, alerting) can react without touching the
// application store.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	audit "courtyard/pkg/platform/audit"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Sink produces audit events to a single topic, keyed by account ID so a
// given account's events stay ordered within one partition.
type Sink struct {
	client *kgo.Client
	topic  string
}

// payload is the JSON structure written to Kafka. Field names are part of
// the consumer contract; change them only with a topic version bump.
type payload struct {
	ID        string `json:"ID"`
	Category  string `json:"Category"`
	Timestamp string `json:"Timestamp"`
	AccountID string `json:"AccountID,omitempty"`
	Subject   string `json:"Subject,omitempty"`
	Action    string `json:"Action"`
	Reason    string `json:"Reason,omitempty"`
	RequestID string `json:"RequestID,omitempty"`
	IP        string `json:"IP,omitempty"`
	Device    string `json:"Device,omitempty"`
}

// NewSink connects to the brokers and ensures the topic exists. Topic
// creation is idempotent so concurrent instances can race it safely.
func NewSink(ctx context.Context, brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.ProduceRequestTimeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	if _, err := admin.CreateTopic(ctx, 1, 1, nil, topic); err != nil {
		// Topic may already exist; only a connectivity failure is fatal.
		if pingErr := client.Ping(ctx); pingErr != nil {
			client.Close()
			return nil, fmt.Errorf("kafka unreachable: %w", pingErr)
		}
	}

	return &Sink{client: client, topic: topic}, nil
}

// Append implements audit.Sink. Delivery is synchronous; the publisher
// decides whether failures block the operation.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	p := payload{
		ID:        uuid.New().String(),
		Category:  string(event.Category),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Subject:   event.Subject,
		Action:    event.Action,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		IP:        event.IP,
		Device:    event.Device,
	}
	if !event.AccountID.IsNil() {
		p.AccountID = event.AccountID.String()
	}

	value, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(p.AccountID),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (s *Sink) Close() {
	s.client.Close()
}
