package broker

import (
	"context"

	"github.com/wb-go/wbf/retry"
)

type Message struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
}

type Producer interface {
	Send(ctx context.Context, strategy retry.Strategy, key, value []byte) error
	Close() error
}

type Consumer interface {
	Start(ctx context.Context, out chan<- *Message, strategy retry.Strategy)
	Commit(ctx context.Context, msg *Message) error
	Close() error
}
