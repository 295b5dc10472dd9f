package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes envelopes to a single topic. The writer is async: write
// failures surface in the Completion callback and are logged there.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
	now    func() time.Time
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		BatchSize:    100,
		BatchTimeout: 200 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warn("kafka write failed", zap.Int("messages", len(messages)), zap.Error(err))
			}
		},
	}
	return newKafkaPublisher(writer, logger)
}

func newKafkaPublisher(writer messageWriter, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, logger: logger, now: time.Now}
}

func (p *KafkaPublisher) PriceChanged(ctx context.Context, productID string, change PriceChanged) error {
	return p.publish(ctx, TypePriceChanged, productID, change)
}

// ItemsPurchased is keyed by the first purchased product so one checkout stays
// on one partition.
func (p *KafkaPublisher) ItemsPurchased(ctx context.Context, purchase ItemsPurchased) error {
	if len(purchase.Items) == 0 {
		return nil
	}
	return p.publish(ctx, TypeItemsPurchased, purchase.Items[0].ProductID, purchase)
}

func (p *KafkaPublisher) publish(ctx context.Context, typ Type, key string, data any) error {
	msg, err := p.message(typ, key, data)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events.publish %s: %w", typ, err)
	}
	return nil
}

func (p *KafkaPublisher) message(typ Type, key string, data any) (kafka.Message, error) {
	env, err := NewEnvelope(typ, key, data, p.now())
	if err != nil {
		return kafka.Message{}, fmt.Errorf("events.message %s: %w", typ, err)
	}
	value, err := json.Marshal(env)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("events.message %s: %w", typ, err)
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(typ)},
		},
	}, nil
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
