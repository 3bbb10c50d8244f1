package assembly

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/segmentio/kafka-go"

	"github.com/umputun/newsdigest/pkg/domain"
)

//go:generate moq -out mocks/message_writer.go -pkg mocks -skip-ensure -fmt goimports . MessageWriter

// MessageWriter writes messages to a topic, implemented by kafka.Writer
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig defines the topic items are published to
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Timeout time.Duration
}

// Kafka publishes every item as a JSON message keyed by its fingerprint
type Kafka struct {
	writer  MessageWriter
	topic   string
	timeout time.Duration
}

// message is the payload read by the newsletter generator
type message struct {
	RunAt time.Time `json:"run_at"`
	domain.ContentItem
}

// NewKafka makes a Kafka assembler writing synchronously to the topic
func NewKafka(cfg KafkaConfig) *Kafka {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // same fingerprint, same partition
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: cfg.Timeout,
	}
	return &Kafka{writer: writer, topic: cfg.Topic, timeout: cfg.Timeout}
}

// Assemble writes all items in a single batch
func (k *Kafka) Assemble(ctx context.Context, items []domain.ContentItem) error {
	if len(items) == 0 {
		return nil
	}
	now := time.Now()
	msgs := make([]kafka.Message, 0, len(items))
	for _, item := range items {
		value, err := json.Marshal(message{RunAt: now, ContentItem: item})
		if err != nil {
			return fmt.Errorf("marshal item %s: %w", item.Fingerprint, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(item.Fingerprint),
			Value:   value,
			Time:    now,
			Headers: []kafka.Header{{Key: "category", Value: []byte(item.Category)}},
		})
	}

	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages to kafka topic %s: %w", len(msgs), k.topic, err)
	}
	lgr.Printf("[INFO] published %d items to kafka topic %s", len(msgs), k.topic)
	return nil
}

// Close flushes and closes the writer
func (k *Kafka) Close() error {
	return k.writer.Close()
}
