package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/psds-microservice/complaint-service/internal/errs"
	"github.com/psds-microservice/complaint-service/internal/model"
	"github.com/psds-microservice/complaint-service/internal/policy"
)

type AttachmentRepository struct {
	db *gorm.DB
}

func (r *AttachmentRepository) List(ctx context.Context, scope policy.AttachmentScope) ([]model.Attachment, error) {
	items := []model.Attachment{}
	if err := r.db.WithContext(ctx).Where("complaint_id = ?", scope.ComplaintID).
		Order("uploaded_at ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *AttachmentRepository) Get(ctx context.Context, scope policy.AttachmentScope, id uint64) (*model.Attachment, error) {
	var a model.Attachment
	if err := r.db.WithContext(ctx).Where("complaint_id = ?", scope.ComplaintID).First(&a, id).Error; err != nil {
		return nil, notFound(err, errs.ErrAttachmentNotFound)
	}
	return &a, nil
}

func (r *AttachmentRepository) Create(ctx context.Context, a *model.Attachment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AttachmentRepository) Delete(ctx context.Context, complaintID, id uint64) error {
	res := r.db.WithContext(ctx).Where("complaint_id = ?", complaintID).Delete(&model.Attachment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrAttachmentNotFound
	}
	return nil
}
