// Package kafka publishes audit events to the external audit topic. Kafka is
// the system of record for audit events; this core only produces.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "caregate/pkg/platform/audit"
)

// Publisher produces audit events to a single topic, keyed by decision id so
// per-decision ordering survives partitioning.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// New connects a producer to the given brokers.
func New(brokers []string, topic string) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ProduceRequestTimeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Publisher{client: client, topic: topic}, nil
}

// payload is the JSON structure published to Kafka. Field names match
// audit.Event for deserialization by downstream consumers.
type payload struct {
	Timestamp      string `json:"Timestamp"`
	DecisionID     string `json:"DecisionID"`
	State          string `json:"State"`
	Action         string `json:"Action"`
	Actor          string `json:"Actor,omitempty"`
	Reason         string `json:"Reason,omitempty"`
	RequestID      string `json:"RequestID,omitempty"`
	InputsSummary  string `json:"InputsSummary,omitempty"`
	OutputsSummary string `json:"OutputsSummary,omitempty"`
}

// Emit produces one event synchronously. Callers treat failures as
// best-effort (logged, never failing the request), but emission is attempted
// for every state transition.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(payload{
		Timestamp:      event.Timestamp.UTC().Format(time.RFC3339Nano),
		DecisionID:     event.DecisionID,
		State:          event.State,
		Action:         string(event.Action),
		Actor:          event.Actor,
		Reason:         event.Reason,
		RequestID:      event.RequestID,
		InputsSummary:  event.InputsSummary,
		OutputsSummary: event.OutputsSummary,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.DecisionID),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes and releases the producer.
func (p *Publisher) Close() {
	p.client.Close()
}
