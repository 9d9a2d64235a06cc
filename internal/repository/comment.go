package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/psds-microservice/complaint-service/internal/errs"
	"github.com/psds-microservice/complaint-service/internal/model"
	"github.com/psds-microservice/complaint-service/internal/policy"
)

type CommentRepository struct {
	db *gorm.DB
}

func commentScope(tx *gorm.DB, s policy.CommentScope) *gorm.DB {
	tx = tx.Where("complaint_id = ?", s.ComplaintID)
	if s.PublicOnly {
		tx = tx.Where("public = ?", true)
	}
	return tx
}

// List: комментарии жалобы в порядке создания.
func (r *CommentRepository) List(ctx context.Context, scope policy.CommentScope) ([]model.Comment, error) {
	items := []model.Comment{}
	if err := commentScope(r.db.WithContext(ctx), scope).Order("created_at ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *CommentRepository) Get(ctx context.Context, scope policy.CommentScope, id uint64) (*model.Comment, error) {
	var c model.Comment
	if err := commentScope(r.db.WithContext(ctx), scope).First(&c, id).Error; err != nil {
		return nil, notFound(err, errs.ErrCommentNotFound)
	}
	return &c, nil
}

func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CommentRepository) Delete(ctx context.Context, complaintID, id uint64) error {
	res := r.db.WithContext(ctx).Where("complaint_id = ?", complaintID).Delete(&model.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrCommentNotFound
	}
	return nil
}
