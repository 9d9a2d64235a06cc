package events

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaProducer пишет события в топик Kafka асинхронно.
type KafkaProducer struct {
	writer *kafka.Writer
	log    *slog.Logger
}

// NewKafkaProducer создаёт продюсер. Без брокеров или топика Publish — no-op.
func NewKafkaProducer(brokers []string, topic string, log *slog.Logger) *KafkaProducer {
	if log == nil {
		log = slog.Default()
	}
	p := &KafkaProducer{log: log.With("component", "kafka")}
	if len(brokers) == 0 || topic == "" {
		return p
	}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				p.log.Warn("write complaint events", "count", len(messages), "error", err)
			}
		},
	}
	return p
}

// Enabled: настроен ли транспорт.
func (p *KafkaProducer) Enabled() bool { return p.writer != nil }

// Publish ставит событие в очередь writer-а. Ключ — id жалобы, чтобы события
// одной жалобы шли в одну партицию.
func (p *KafkaProducer) Publish(ctx context.Context, e Event) {
	if p.writer == nil {
		return
	}
	body, err := e.Encode()
	if err != nil {
		p.log.Warn("marshal complaint event", "event", e.Type, "error", err)
		return
	}
	msg := kafka.Message{Key: []byte(strconv.FormatUint(e.ComplaintID, 10)), Value: body}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Warn("enqueue complaint event", "event", e.Type, "complaint_id", e.ComplaintID, "error", err)
	}
}

func (p *KafkaProducer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
