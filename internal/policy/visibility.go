// Package policy: ядро доступа: какие записи видит актор (Resolver) и что он может
// изменять (Authorizer, таблицы полей). Правила заданы упорядоченными списками,
// первое совпавшее правило побеждает.
package policy

import (
	"context"
	"fmt"

	"github.com/psds-microservice/complaint-service/internal/errs"
	"github.com/psds-microservice/complaint-service/internal/identity"
	"github.com/psds-microservice/complaint-service/internal/model"
)

// StatusAll: значение фильтра status, отключающее фильтрацию.
const StatusAll = "all"

type ScopeKind int

const (
	ScopeNone ScopeKind = iota
	ScopeAll
	ScopeOwner
	ScopeCategories
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeAll:
		return "all"
	case ScopeOwner:
		return "owner"
	case ScopeCategories:
		return "categories"
	default:
		return "none"
	}
}

// ComplaintScope: множество жалоб, видимых актору, в виде предиката.
// Хранилище переводит его в WHERE, Contains проверяет одну запись.
type ComplaintScope struct {
	Kind        ScopeKind
	OwnerID     string
	CategoryIDs []uint64
	// Status: дополнительный фильтр; пусто — без фильтра.
	Status model.ComplaintStatus
	// Rule: имя сработавшего правила.
	Rule string
}

// Empty: заведомо пустое множество.
func (s ComplaintScope) Empty() bool {
	return s.Kind == ScopeNone
}

// Contains проверяет, входит ли жалоба в множество.
func (s ComplaintScope) Contains(c *model.Complaint) bool {
	if c == nil {
		return false
	}
	if s.Status != "" && c.Status != s.Status {
		return false
	}
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeOwner:
		return s.OwnerID != "" && c.OwnerID() == s.OwnerID
	case ScopeCategories:
		if c.CategoryID == nil {
			return false
		}
		for _, id := range s.CategoryIDs {
			if id == *c.CategoryID {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ParseStatusFilter разбирает query-параметр status. "" и "all" — без фильтра.
func ParseStatusFilter(raw string) (model.ComplaintStatus, error) {
	if raw == "" || raw == StatusAll {
		return "", nil
	}
	st := model.ComplaintStatus(raw)
	if !st.Valid() {
		return "", errs.Invalid("status", fmt.Sprintf("unknown status %q: must be one of new, in_progress, resolved, rejected, all", raw))
	}
	return st, nil
}

// ProfileSource отдаёт категории AdminProfile пользователя.
// found=false — профиля нет.
type ProfileSource interface {
	CategoryScope(ctx context.Context, userID string) (categoryIDs []uint64, found bool, err error)
}

type complaintRule struct {
	name string
	// applyStatus: применяется ли фильтр status в этой ветке.
	applyStatus bool
	match       func(a identity.Actor) bool
	scope       func(ctx context.Context, profiles ProfileSource, a identity.Actor) (ComplaintScope, error)
}

// complaintRules: порядок важен.
var complaintRules = []complaintRule{
	{
		name:  "anonymous",
		match: func(a identity.Actor) bool { return !a.Authenticated },
		scope: func(context.Context, ProfileSource, identity.Actor) (ComplaintScope, error) {
			return ComplaintScope{Kind: ScopeNone}, nil
		},
	},
	{
		name:        "superuser",
		applyStatus: true,
		match:       func(a identity.Actor) bool { return a.IsSuperuser() },
		scope: func(context.Context, ProfileSource, identity.Actor) (ComplaintScope, error) {
			return ComplaintScope{Kind: ScopeAll}, nil
		},
	},
	{
		name:        "staff",
		applyStatus: true,
		match:       func(a identity.Actor) bool { return a.IsStaff() },
		scope: func(ctx context.Context, profiles ProfileSource, a identity.Actor) (ComplaintScope, error) {
			if profiles == nil {
				return ComplaintScope{Kind: ScopeNone}, nil
			}
			ids, found, err := profiles.CategoryScope(ctx, a.ID)
			if err != nil {
				return ComplaintScope{}, fmt.Errorf("admin profile lookup: %w", err)
			}
			if !found || len(ids) == 0 {
				return ComplaintScope{Kind: ScopeNone}, nil
			}
			return ComplaintScope{Kind: ScopeCategories, CategoryIDs: ids}, nil
		},
	},
	{
		name:  "owner",
		match: func(a identity.Actor) bool { return a.Authenticated },
		scope: func(_ context.Context, _ ProfileSource, a identity.Actor) (ComplaintScope, error) {
			return ComplaintScope{Kind: ScopeOwner, OwnerID: a.ID}, nil
		},
	},
}

// Resolver вычисляет видимые актору множества записей.
type Resolver struct {
	profiles ProfileSource
}

func NewResolver(profiles ProfileSource) *Resolver {
	return &Resolver{profiles: profiles}
}

// Complaints возвращает множество видимых жалоб. status применяется только
// в ветках staff и superuser.
func (r *Resolver) Complaints(ctx context.Context, a identity.Actor, status model.ComplaintStatus) (ComplaintScope, error) {
	for _, rule := range complaintRules {
		if !rule.match(a) {
			continue
		}
		scope, err := rule.scope(ctx, r.profiles, a)
		if err != nil {
			return ComplaintScope{}, err
		}
		scope.Rule = rule.name
		if rule.applyStatus && !scope.Empty() {
			scope.Status = status
		}
		return scope, nil
	}
	return ComplaintScope{Kind: ScopeNone, Rule: "default"}, nil
}

// CommentScope: комментарии одной жалобы; PublicOnly для не-staff.
type CommentScope struct {
	ComplaintID uint64
	PublicOnly  bool
}

func (s CommentScope) Contains(c *model.Comment) bool {
	if c == nil || c.ComplaintID != s.ComplaintID {
		return false
	}
	return !s.PublicOnly || c.Public
}

// Comments: staff видит все комментарии жалобы, остальные — только публичные.
func (r *Resolver) Comments(a identity.Actor, complaintID uint64) CommentScope {
	return CommentScope{ComplaintID: complaintID, PublicOnly: !a.IsStaff()}
}

// AttachmentScope: вложения одной жалобы. Отдельной фильтрации нет:
// доступ наследуется от проверки родительской жалобы.
type AttachmentScope struct {
	ComplaintID uint64
}

func (s AttachmentScope) Contains(at *model.Attachment) bool {
	return at != nil && at.ComplaintID == s.ComplaintID
}

func (r *Resolver) Attachments(complaintID uint64) AttachmentScope {
	return AttachmentScope{ComplaintID: complaintID}
}
