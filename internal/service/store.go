// Package service: фасад ресурсов: для каждой пары (уровень, действие)
// связывает Resolver, Authorizer и хранилище.
package service

import (
	"context"
	"io"
	"os"

	"github.com/psds-microservice/complaint-service/internal/model"
	"github.com/psds-microservice/complaint-service/internal/policy"
)

// Интерфейсы хранилища со стороны потребителя (реализации — internal/repository).

type CategoryStore interface {
	List(ctx context.Context) ([]model.Category, error)
	GetByID(ctx context.Context, id uint64) (*model.Category, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	NameTaken(ctx context.Context, name string, excludeID uint64) (bool, error)
	FindByNames(ctx context.Context, names []string) ([]model.Category, error)
	Create(ctx context.Context, c *model.Category) error
	Update(ctx context.Context, id uint64, changes map[string]interface{}) (*model.Category, error)
	Delete(ctx context.Context, id uint64) error
}

type ComplaintStore interface {
	List(ctx context.Context, scope policy.ComplaintScope, limit, offset int) ([]model.Complaint, int64, error)
	All(ctx context.Context) ([]model.Complaint, error)
	GetByID(ctx context.Context, id uint64) (*model.Complaint, error)
	Create(ctx context.Context, c *model.Complaint) error
	Update(ctx context.Context, id uint64, changes map[string]interface{}) (*model.Complaint, error)
	Delete(ctx context.Context, id uint64) ([]string, error)
}

type CommentStore interface {
	List(ctx context.Context, scope policy.CommentScope) ([]model.Comment, error)
	Get(ctx context.Context, scope policy.CommentScope, id uint64) (*model.Comment, error)
	Create(ctx context.Context, c *model.Comment) error
	Delete(ctx context.Context, complaintID, id uint64) error
}

type AttachmentStore interface {
	List(ctx context.Context, scope policy.AttachmentScope) ([]model.Attachment, error)
	Get(ctx context.Context, scope policy.AttachmentScope, id uint64) (*model.Attachment, error)
	Create(ctx context.Context, a *model.Attachment) error
	Delete(ctx context.Context, complaintID, id uint64) error
}

type ProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (*model.AdminProfile, error)
	CategoryScope(ctx context.Context, userID string) ([]uint64, bool, error)
	Upsert(ctx context.Context, userID, username string, categories []model.Category) (*model.AdminProfile, error)
	Delete(ctx context.Context, userID string) error
}

// BlobStore: непрозрачное хранилище файлов по пути.
type BlobStore interface {
	// Put не перезаписывает занятый ключ и возвращает фактический.
	Put(ctx context.Context, key string, r io.Reader, limit int64) (string, int64, error)
	Open(key string) (*os.File, error)
	Delete(key string) error
}

// Indexer: поисковая индексация жалоб (best-effort).
type Indexer interface {
	IndexComplaintAsync(c *model.Complaint)
}

type nopIndexer struct{}

func (nopIndexer) IndexComplaintAsync(*model.Complaint) {}
