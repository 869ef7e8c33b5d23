package eventlogger

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaLogger publishes events as JSON, keyed by the group they belong to so
// a group's events stay ordered within a partition.
type KafkaLogger struct {
	writer messageWriter
}

func NewKafkaLogger(brokers []string, topic string) *KafkaLogger {
	return &KafkaLogger{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

func (k *KafkaLogger) Save(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	// personal expense events carry no group
	key := e.Metadata["group_id"]
	if key == "" {
		key = e.Metadata["user_id"]
	}

	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	})
}

func (k *KafkaLogger) Close() error {
	return k.writer.Close()
}
