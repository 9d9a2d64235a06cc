// Package events: доменные события жалоб. Публикация best-effort: ошибки
// транспорта логируются и не влияют на ответ API.
package events

import (
	"context"
	"encoding/json"
	"time"
)

const (
	ComplaintCreated  = "complaint.created"
	ComplaintUpdated  = "complaint.updated"
	ComplaintDeleted  = "complaint.deleted"
	CommentCreated    = "comment.created"
	CommentDeleted    = "comment.deleted"
	AttachmentCreated = "attachment.created"
	AttachmentDeleted = "attachment.deleted"
)

// Event: сообщение об изменении жалобы или её вложенных ресурсов.
type Event struct {
	Type        string    `json:"event"`
	ComplaintID uint64    `json:"complaint_id"`
	// EntityID: id комментария или вложения для вложенных событий.
	EntityID   uint64    `json:"entity_id,omitempty"`
	CategoryID *uint64   `json:"category_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	Actor      string    `json:"actor"`
	Fields     []string  `json:"fields,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Encode сериализует событие для транспорта.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher отправляет события.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Nop отбрасывает события.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// Multi рассылает событие всем публикаторам по очереди.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) {
	for _, p := range m {
		p.Publish(ctx, e)
	}
}
