// Package repository: хранилище сущностей поверх gorm (PostgreSQL).
package repository

import (
	"errors"

	"gorm.io/gorm"
)

// Store объединяет репозитории всех сущностей.
type Store struct {
	db *gorm.DB

	Categories  *CategoryRepository
	Complaints  *ComplaintRepository
	Comments    *CommentRepository
	Attachments *AttachmentRepository
	Profiles    *ProfileRepository
}

func New(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Categories:  &CategoryRepository{db: db},
		Complaints:  &ComplaintRepository{db: db},
		Comments:    &CommentRepository{db: db},
		Attachments: &AttachmentRepository{db: db},
		Profiles:    &ProfileRepository{db: db},
	}
}

// DB: исходное подключение (для health-проверок).
func (s *Store) DB() *gorm.DB { return s.db }

func notFound(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
