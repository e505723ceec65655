package kafka

import (
	"context"

	"course-media/internal/broker"
	"course-media/internal/config"

	kafka "github.com/segmentio/kafka-go"
	wbkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
)

type ConsumerClient struct {
	consumer *wbkafka.Consumer
}

func NewConsumerClient(cfg *config.Config) *ConsumerClient {
	return &ConsumerClient{
		consumer: wbkafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic, cfg.Kafka.GroupID),
	}
}

// Start forwards fetched messages to out until ctx is done. It does not
// close out.
func (c *ConsumerClient) Start(ctx context.Context, out chan<- *broker.Message, strategy retry.Strategy) {
	raw := make(chan kafka.Message, cap(out))

	go c.consumer.StartConsuming(ctx, raw, strategy)
	go forward(ctx, raw, out)
}

func (c *ConsumerClient) Commit(ctx context.Context, msg *broker.Message) error {
	return c.consumer.Commit(ctx, toKafka(msg))
}

func (c *ConsumerClient) Close() error {
	return c.consumer.Close()
}

func forward(ctx context.Context, in <-chan kafka.Message, out chan<- *broker.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			select {
			case out <- fromKafka(msg):
			case <-ctx.Done():
				return
			}
		}
	}
}

func fromKafka(msg kafka.Message) *broker.Message {
	return &broker.Message{
		Key:       msg.Key,
		Value:     msg.Value,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	}
}

func toKafka(msg *broker.Message) kafka.Message {
	return kafka.Message{
		Key:       msg.Key,
		Value:     msg.Value,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	}
}
