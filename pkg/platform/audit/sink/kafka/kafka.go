// Package kafka publishes audit events to a Kafka topic via franz-go.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "veritag/pkg/platform/audit"
)

// Sink writes audit events to one topic, keyed by tag code so a tag's trail
// stays ordered within a partition.
type Sink struct {
	client *kgo.Client
	topic  string
}

// record is the wire shape. Field names are part of the consumer contract.
type record struct {
	Category          string    `json:"category"`
	Timestamp         time.Time `json:"timestamp"`
	Action            string    `json:"action"`
	TagCode           string    `json:"tagCode"`
	ScanID            string    `json:"scanId,omitempty"`
	ScanNumber        int       `json:"scanNumber,omitempty"`
	FingerprintDigest string    `json:"fingerprintDigest,omitempty"`
	IPPrefix          string    `json:"ipPrefix,omitempty"`
	Subsystem         string    `json:"subsystem,omitempty"`
	Reason            string    `json:"reason,omitempty"`
	RiskLevel         string    `json:"riskLevel,omitempty"`
	RequestID         string    `json:"requestId,omitempty"`
}

// NewSink connects to the given brokers.
func NewSink(brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

func (s *Sink) Publish(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(record{
		Category:          string(event.Category),
		Timestamp:         event.Timestamp,
		Action:            event.Action,
		TagCode:           event.TagCode,
		ScanID:            event.ScanID,
		ScanNumber:        event.ScanNumber,
		FingerprintDigest: event.FingerprintDigest,
		IPPrefix:          event.IPPrefix,
		Subsystem:         event.Subsystem,
		Reason:            event.Reason,
		RiskLevel:         event.RiskLevel,
		RequestID:         event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	result := s.client.ProduceSync(ctx, &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.TagCode),
		Value: payload,
	})
	if err := result.FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (s *Sink) Close() error {
	s.client.Close()
	return nil
}
