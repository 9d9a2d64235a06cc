package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/psds-microservice/complaint-service/internal/errs"
	"github.com/psds-microservice/complaint-service/internal/model"
	"github.com/psds-microservice/complaint-service/internal/policy"
)

type ComplaintRepository struct {
	db *gorm.DB
}

// applyScope переводит множество видимости в условия запроса.
func applyScope(tx *gorm.DB, s policy.ComplaintScope) *gorm.DB {
	switch s.Kind {
	case policy.ScopeAll:
	case policy.ScopeOwner:
		tx = tx.Where("reporter_id = ?", s.OwnerID)
	case policy.ScopeCategories:
		tx = tx.Where("category_id IN ?", s.CategoryIDs)
	default:
		return tx.Where("1 = 0")
	}
	if s.Status != "" {
		tx = tx.Where("status = ?", s.Status)
	}
	return tx
}

func (r *ComplaintRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Category").
		Preload("Attachments", func(db *gorm.DB) *gorm.DB { return db.Order("uploaded_at ASC, id ASC") })
}

// List возвращает жалобы из множества видимости, новые первыми.
func (r *ComplaintRepository) List(ctx context.Context, scope policy.ComplaintScope, limit, offset int) ([]model.Complaint, int64, error) {
	items := []model.Complaint{}
	if scope.Empty() {
		return items, 0, nil
	}
	var total int64
	if err := applyScope(r.db.WithContext(ctx).Model(&model.Complaint{}), scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	tx := applyScope(r.preloaded(ctx), scope)
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	if err := tx.Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// All: все жалобы без фильтров (переиндексация).
func (r *ComplaintRepository) All(ctx context.Context) ([]model.Complaint, error) {
	var items []model.Complaint
	if err := r.preloaded(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ComplaintRepository) GetByID(ctx context.Context, id uint64) (*model.Complaint, error) {
	var c model.Complaint
	if err := r.preloaded(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err, errs.ErrComplaintNotFound)
	}
	return &c, nil
}

func (r *ComplaintRepository) Create(ctx context.Context, c *model.Complaint) error {
	if err := r.db.WithContext(ctx).Omit("Category", "Attachments").Create(c).Error; err != nil {
		return err
	}
	return nil
}

// Update применяет изменения; updated_at обновляет gorm.
func (r *ComplaintRepository) Update(ctx context.Context, id uint64, changes map[string]interface{}) (*model.Complaint, error) {
	res := r.db.WithContext(ctx).Model(&model.Complaint{ID: id}).Updates(changes)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errs.ErrComplaintNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete атомарно удаляет жалобу с комментариями и вложениями.
// Возвращает пути blob-ов удалённых вложений.
func (r *ComplaintRepository) Delete(ctx context.Context, id uint64) ([]string, error) {
	var files []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Attachment{}).Where("complaint_id = ?", id).Pluck("file", &files).Error; err != nil {
			return err
		}
		if err := tx.Where("complaint_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("complaint_id = ?", id).Delete(&model.Attachment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Complaint{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrComplaintNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
