package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/psds-microservice/complaint-service/internal/errs"
	"github.com/psds-microservice/complaint-service/internal/model"
)

type ProfileRepository struct {
	db *gorm.DB
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*model.AdminProfile, error) {
	var p model.AdminProfile
	err := r.db.WithContext(ctx).
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		return nil, notFound(err, errs.ErrProfileNotFound)
	}
	return &p, nil
}

// CategoryScope реализует policy.ProfileSource.
func (r *ProfileRepository) CategoryScope(ctx context.Context, userID string) ([]uint64, bool, error) {
	p, err := r.GetByUserID(ctx, userID)
	if errors.Is(err, errs.ErrProfileNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return p.CategoryIDs(), true, nil
}

// Upsert создаёт профиль при необходимости и заменяет набор категорий.
func (r *ProfileRepository) Upsert(ctx context.Context, userID, username string, categories []model.Category) (*model.AdminProfile, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.AdminProfile
		if err := tx.Where(model.AdminProfile{UserID: userID}).
			Attrs(model.AdminProfile{Username: username}).
			FirstOrCreate(&p).Error; err != nil {
			return err
		}
		if username != "" && p.Username != username {
			if err := tx.Model(&p).Update("username", username).Error; err != nil {
				return err
			}
		}
		return tx.Model(&p).Association("Categories").Replace(categories)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByUserID(ctx, userID)
}

func (r *ProfileRepository) Delete(ctx context.Context, userID string) error {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.AdminProfile{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrProfileNotFound
	}
	return nil
}
