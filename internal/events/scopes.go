package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// purgeAll: сообщение шины, сбрасывающее кэш целиком.
const purgeAll = "*"

// ScopeSink получает сбросы кэша категорий AdminProfile.
type ScopeSink interface {
	Invalidate(userID string)
	Purge()
}

// ScopeBus рассылает сброс кэша категорий AdminProfile между процессами через
// Redis Pub/Sub: служебные команды публикуют, экземпляры API слушают.
type ScopeBus struct {
	client  *redis.Client
	channel string
	timeout time.Duration
	retry   time.Duration
	log     *slog.Logger
}

// NewScopeBus: при пустом addr шина выключена, Enabled возвращает false.
func NewScopeBus(addr, password string, db int, channel string, log *slog.Logger) *ScopeBus {
	if log == nil {
		log = slog.Default()
	}
	b := &ScopeBus{channel: channel, timeout: 2 * time.Second, retry: time.Second, log: log.With("component", "scope-bus")}
	if addr == "" || channel == "" {
		return b
	}
	b.client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return b
}

func (b *ScopeBus) Enabled() bool { return b.client != nil }

// Invalidate публикует сброс записи пользователя.
func (b *ScopeBus) Invalidate(userID string) {
	if userID == "" || userID == purgeAll {
		return
	}
	b.publish(userID)
}

// Purge публикует сброс всего кэша.
func (b *ScopeBus) Purge() { b.publish(purgeAll) }

func (b *ScopeBus) publish(payload string) {
	if b.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.log.Warn("publish scope invalidation", "payload", payload, "error", err)
	}
}

// Listen подписывается на канал и передаёт сбросы в sink до отмены ctx.
// После (пере)подписки и после ошибок чтения кэш сбрасывается целиком:
// пропущенные за это время сообщения не восстановить.
func (b *ScopeBus) Listen(ctx context.Context, sink ScopeSink) error {
	if b.client == nil {
		return nil
	}
	ps := b.client.Subscribe(ctx, b.channel)
	defer ps.Close()
	for {
		msg, err := ps.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			sink.Purge()
			b.log.Warn("scope bus receive", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(b.retry):
			}
			continue
		}
		switch m := msg.(type) {
		case *redis.Subscription:
			if m.Kind == "subscribe" {
				sink.Purge()
			}
		case *redis.Message:
			if m.Payload == purgeAll {
				sink.Purge()
			} else {
				sink.Invalidate(m.Payload)
			}
		}
	}
}

func (b *ScopeBus) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}
