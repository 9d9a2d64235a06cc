package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher публикует события в канал Redis Pub/Sub.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	timeout time.Duration
	log     *slog.Logger
}

// NewRedisPublisher: при пустом addr публикатор ничего не делает.
func NewRedisPublisher(addr, password string, db int, channel string, log *slog.Logger) *RedisPublisher {
	if log == nil {
		log = slog.Default()
	}
	p := &RedisPublisher{channel: channel, timeout: 2 * time.Second, log: log.With("component", "redis")}
	if addr == "" || channel == "" {
		return p
	}
	p.client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return p
}

func (p *RedisPublisher) Enabled() bool { return p.client != nil }

// Ping проверяет соединение (используется при старте).
func (p *RedisPublisher) Ping(ctx context.Context) error {
	if p.client == nil {
		return nil
	}
	return p.client.Ping(ctx).Err()
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) {
	if p.client == nil {
		return
	}
	body, err := e.Encode()
	if err != nil {
		p.log.Warn("marshal complaint event", "event", e.Type, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.client.Publish(ctx, p.channel, string(body)).Err(); err != nil {
		p.log.Warn("publish complaint event", "event", e.Type, "complaint_id", e.ComplaintID, "error", err)
	}
}

func (p *RedisPublisher) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}
