package kafka

import (
	"context"
	"fmt"

	"course-media/internal/config"

	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
)

// ProducerClient writes to the single events topic.
type ProducerClient struct {
	producer *wbkafka.Producer
	topic    string
}

func NewProducerClient(cfg *config.Config) *ProducerClient {
	return &ProducerClient{
		producer: wbkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic),
		topic:    cfg.Kafka.EventsTopic,
	}
}

func (p *ProducerClient) Send(ctx context.Context, strategy retry.Strategy, key, value []byte) error {
	if err := p.producer.SendWithRetry(ctx, strategy, key, value); err != nil {
		return fmt.Errorf("failed to send to topic %s: %w", p.topic, err)
	}
	return nil
}

func (p *ProducerClient) Close() error {
	return p.producer.Close()
}
