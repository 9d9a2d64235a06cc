package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/psds-microservice/complaint-service/internal/errs"
	"github.com/psds-microservice/complaint-service/internal/model"
)

type CategoryRepository struct {
	db *gorm.DB
}

func (r *CategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	var items []model.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id uint64) (*model.Category, error) {
	var c model.Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err, errs.ErrCategoryNotFound)
	}
	return &c, nil
}

func (r *CategoryRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// NameTaken проверяет уникальность имени, исключая запись excludeID.
func (r *CategoryRepository) NameTaken(ctx context.Context, name string, excludeID uint64) (bool, error) {
	var n int64
	tx := r.db.WithContext(ctx).Model(&model.Category{}).Where("name = ?", name)
	if excludeID != 0 {
		tx = tx.Where("id <> ?", excludeID)
	}
	if err := tx.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindByNames возвращает категории с указанными именами.
func (r *CategoryRepository) FindByNames(ctx context.Context, names []string) ([]model.Category, error) {
	var items []model.Category
	if len(names) == 0 {
		return items, nil
	}
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *model.Category) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return translateDuplicate(err)
	}
	return nil
}

func (r *CategoryRepository) Update(ctx context.Context, id uint64, changes map[string]interface{}) (*model.Category, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(c).Updates(changes).Error; err != nil {
		return nil, translateDuplicate(err)
	}
	return r.GetByID(ctx, id)
}

// Delete удаляет категорию: жалобы остаются без категории, категория
// исключается из всех профилей администраторов.
func (r *CategoryRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Complaint{}).Where("category_id = ?", id).
			UpdateColumn("category_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM admin_profile_categories WHERE category_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrCategoryNotFound
		}
		return nil
	})
}

func translateDuplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Invalid("name", "category with this name already exists")
	}
	return err
}
