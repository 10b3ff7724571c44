package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
)

const (
	TopicPayment = "payment"
	TopicRefund  = "refund"
)

// KafkaPublisher writes JSON events with a nil key and waits for the full
// acknowledgement from the brokers. Workers must not publish before Start
// has completed or after Close.
type KafkaPublisher struct {
	brokers []string
	writer  *kafka.Writer
}

func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{brokers: brokers}
}

// Start verifies broker connectivity before any worker loop runs; a failure
// here is the one fatal boot condition.
func (p *KafkaPublisher) Start(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return errors.New("kafka brokers are not configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka broker unreachable: %w", err)
	}
	_ = conn.Close()

	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}

	return nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if p.writer == nil {
		return errors.New("kafka publisher is not started")
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Value: payload,
	})
}

func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
