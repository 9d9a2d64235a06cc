package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/psds-microservice/complaint-service/internal/errs"
	"github.com/psds-microservice/complaint-service/internal/model"
)

// StaffService управляет AdminProfile: какие категории видит staff-пользователь.
// Используется служебными командами, не HTTP API, поэтому кэш экземпляров API
// сбрасывается через scopes (шину между процессами).
type StaffService struct {
	profiles   ProfileStore
	categories CategoryStore
	scopes     ScopeInvalidator
}

func NewStaffService(profiles ProfileStore, categories CategoryStore, scopes ScopeInvalidator) *StaffService {
	return &StaffService{profiles: profiles, categories: categories, scopes: scopes}
}

func (s *StaffService) Show(ctx context.Context, userID string) (*model.AdminProfile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

// Grant добавляет категории в профиль, создавая его при необходимости.
func (s *StaffService) Grant(ctx context.Context, userID, username string, names []string) (*model.AdminProfile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errs.Invalid("user", "user id is required")
	}
	add, err := s.resolveNames(ctx, names)
	if err != nil {
		return nil, err
	}
	current, err := s.currentCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := map[uint64]model.Category{}
	for _, c := range append(current, add...) {
		byID[c.ID] = c
	}
	return s.save(ctx, userID, username, byID)
}

// Revoke убирает категории из профиля. Без имён профиль удаляется целиком.
func (s *StaffService) Revoke(ctx context.Context, userID string, names []string) (*model.AdminProfile, error) {
	defer s.invalidate(userID)
	if len(names) == 0 {
		return nil, s.profiles.Delete(ctx, userID)
	}
	remove, err := s.resolveNames(ctx, names)
	if err != nil {
		return nil, err
	}
	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := map[uint64]model.Category{}
	for _, c := range p.Categories {
		byID[c.ID] = c
	}
	for _, c := range remove {
		delete(byID, c.ID)
	}
	return s.save(ctx, userID, p.Username, byID)
}

func (s *StaffService) save(ctx context.Context, userID, username string, byID map[uint64]model.Category) (*model.AdminProfile, error) {
	cats := make([]model.Category, 0, len(byID))
	for _, c := range byID {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].ID < cats[j].ID })
	p, err := s.profiles.Upsert(ctx, userID, username, cats)
	if err != nil {
		return nil, err
	}
	s.invalidate(userID)
	return p, nil
}

func (s *StaffService) currentCategories(ctx context.Context, userID string) ([]model.Category, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, errs.ErrProfileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p.Categories, nil
}

func (s *StaffService) resolveNames(ctx context.Context, names []string) ([]model.Category, error) {
	found, err := s.categories.FindByNames(ctx, names)
	if err != nil {
		return nil, err
	}
	known := map[string]bool{}
	for _, c := range found {
		known[c.Name] = true
	}
	for _, n := range names {
		if !known[n] {
			return nil, errs.Invalid("category", fmt.Sprintf("unknown category %q", n))
		}
	}
	return found, nil
}

func (s *StaffService) invalidate(userID string) {
	if s.scopes != nil {
		s.scopes.Invalidate(userID)
	}
}
