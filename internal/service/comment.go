package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/psds-microservice/complaint-service/internal/errs"
	"github.com/psds-microservice/complaint-service/internal/events"
	"github.com/psds-microservice/complaint-service/internal/identity"
	"github.com/psds-microservice/complaint-service/internal/model"
	"github.com/psds-microservice/complaint-service/internal/policy"
)

type CommentService struct {
	comments CommentStore
	gate     parentGate
	resolver *policy.Resolver
	notify   notifier
	log      *slog.Logger
}

func (s *CommentService) List(ctx context.Context, a identity.Actor, complaintID uint64) ([]model.Comment, error) {
	if _, err := s.gate.open(ctx, a, complaintID, policy.TierComment, policy.ActionRead); err != nil {
		return nil, err
	}
	return s.comments.List(ctx, s.resolver.Comments(a, complaintID))
}

func (s *CommentService) Get(ctx context.Context, a identity.Actor, complaintID, id uint64) (*model.Comment, error) {
	if _, err := s.gate.open(ctx, a, complaintID, policy.TierComment, policy.ActionRead); err != nil {
		return nil, err
	}
	return s.comments.Get(ctx, s.resolver.Comments(a, complaintID), id)
}

// Create добавляет комментарий. Жалоба и пользователь берутся из маршрута
// и актора, public = актор staff.
func (s *CommentService) Create(ctx context.Context, a identity.Actor, complaintID uint64, in CommentInput) (*model.Comment, error) {
	parent, err := s.gate.open(ctx, a, complaintID, policy.TierComment, policy.ActionCreate)
	if err != nil {
		return nil, err
	}
	in, dropped := in.Restrict(policy.WritableCommentFields(a, policy.ActionCreate))
	logDropped(s.log, a, policy.ActionCreate, dropped)
	if in.Message == nil || strings.TrimSpace(*in.Message) == "" {
		return nil, errs.Invalid("message", "this field may not be blank")
	}
	if in.Author != nil {
		if err := checkText(policy.FieldAuthor, *in.Author, maxCommentAuthor, false); err != nil {
			return nil, err
		}
	}

	c := &model.Comment{
		ComplaintID: parent.ID,
		Message:     *in.Message,
		Author:      deref(in.Author),
		Public:      a.IsStaff(),
	}
	if a.Authenticated {
		uid := a.ID
		c.UserID = &uid
		c.Username = a.Username
		c.Author = ""
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	s.log.Info("comment created", "complaint_id", parent.ID, "comment_id", c.ID, "public", c.Public, "actor", a.Handle())
	s.notify.send(ctx, events.CommentCreated, a, parent, c.ID, nil)
	return c, nil
}

// Update всегда отклоняется: комментарии неизменяемы.
func (s *CommentService) Update(ctx context.Context, a identity.Actor, complaintID, id uint64) (*model.Comment, error) {
	if _, err := s.gate.open(ctx, a, complaintID, policy.TierComment, policy.ActionUpdate); err != nil {
		return nil, err
	}
	return nil, errs.Forbidden("comments are immutable")
}

// Delete: только staff; не-staff получает Forbidden при существующей жалобе.
func (s *CommentService) Delete(ctx context.Context, a identity.Actor, complaintID, id uint64) error {
	parent, err := s.gate.open(ctx, a, complaintID, policy.TierComment, policy.ActionDelete)
	if err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, complaintID, id); err != nil {
		return err
	}
	s.log.Info("comment deleted", "complaint_id", complaintID, "comment_id", id, "actor", a.Handle())
	s.notify.send(ctx, events.CommentDeleted, a, parent, id, nil)
	return nil
}
