package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"checkout-service/internal/infra"

	"github.com/IBM/sarama"
)

type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

var _ infra.Publisher = (*Producer)(nil)

// NewProducer retries the broker connection a few times; brokers in compose
// setups are often slower to boot than the service.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3

	var producer sarama.SyncProducer
	var err error
	for i := 1; i <= 5; i++ {
		producer, err = sarama.NewSyncProducer(brokers, config)
		if err == nil {
			log.Printf("kafka: producer ready (topic %s)", topic)
			return NewProducerWith(producer, topic), nil
		}
		log.Printf("kafka: waiting for brokers (%d/5): %v", i, err)
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("failed to start kafka producer: %w", err)
}

func NewProducerWith(p sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: p, topic: topic}
}

// Publish writes to the configured topic; the routing key becomes the
// message key and an "event" header.
func (p *Producer) Publish(ctx context.Context, routingKey string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(routingKey),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event"), Value: []byte(routingKey)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	log.Printf("kafka: %s -> %s[%d]@%d", routingKey, p.topic, partition, offset)
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
