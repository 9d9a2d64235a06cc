package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/psds-microservice/complaint-service/internal/errs"
	"github.com/psds-microservice/complaint-service/internal/identity"
	"github.com/psds-microservice/complaint-service/internal/model"
	"github.com/psds-microservice/complaint-service/internal/policy"
)

type CategoryService struct {
	categories CategoryStore
	authz      *policy.Authorizer
	scopes     ScopeInvalidator
	log        *slog.Logger
}

func (s *CategoryService) List(ctx context.Context, a identity.Actor) ([]model.Category, error) {
	if err := s.authz.Check(a, policy.ActionRead, policy.TierCategory, nil); err != nil {
		return nil, err
	}
	return s.categories.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, a identity.Actor, id uint64) (*model.Category, error) {
	if err := s.authz.Check(a, policy.ActionRead, policy.TierCategory, nil); err != nil {
		return nil, err
	}
	return s.categories.GetByID(ctx, id)
}

func (s *CategoryService) Create(ctx context.Context, a identity.Actor, in CategoryInput) (*model.Category, error) {
	if err := s.authz.Check(a, policy.ActionCreate, policy.TierCategory, nil); err != nil {
		return nil, err
	}
	if in.Name == nil {
		return nil, errs.Invalid("name", "this field is required")
	}
	if err := s.checkName(ctx, *in.Name, 0); err != nil {
		return nil, err
	}
	c := &model.Category{Name: strings.TrimSpace(*in.Name)}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info("category created", "category_id", c.ID, "actor", a.Handle())
	return c, nil
}

// Update: partial=false требует name.
func (s *CategoryService) Update(ctx context.Context, a identity.Actor, id uint64, in CategoryInput, partial bool) (*model.Category, error) {
	if err := s.authz.Check(a, policy.ActionUpdate, policy.TierCategory, nil); err != nil {
		return nil, err
	}
	current, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.empty() {
		return nil, errs.Invalid("", "no fields to update")
	}
	if !partial && in.Name == nil {
		return nil, errs.Invalid("name", "this field is required")
	}
	changes := map[string]interface{}{}
	if in.Name != nil {
		if err := s.checkName(ctx, *in.Name, id); err != nil {
			return nil, err
		}
		changes["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		changes["description"] = *in.Description
	}
	updated, err := s.categories.Update(ctx, current.ID, changes)
	if err != nil {
		return nil, err
	}
	s.log.Info("category updated", "category_id", id, "actor", a.Handle())
	return updated, nil
}

// Delete удаляет категорию; жалобы остаются без категории.
func (s *CategoryService) Delete(ctx context.Context, a identity.Actor, id uint64) error {
	if err := s.authz.Check(a, policy.ActionDelete, policy.TierCategory, nil); err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	if s.scopes != nil {
		s.scopes.Purge()
	}
	s.log.Info("category deleted", "category_id", id, "actor", a.Handle())
	return nil
}

func (s *CategoryService) checkName(ctx context.Context, name string, excludeID uint64) error {
	if err := checkText("name", name, maxCategoryName, true); err != nil {
		return err
	}
	taken, err := s.categories.NameTaken(ctx, strings.TrimSpace(name), excludeID)
	if err != nil {
		return err
	}
	if taken {
		return errs.Invalid("name", "category with this name already exists")
	}
	return nil
}
