package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/psds-microservice/complaint-service/internal/errs"
	"github.com/psds-microservice/complaint-service/internal/events"
	"github.com/psds-microservice/complaint-service/internal/identity"
	"github.com/psds-microservice/complaint-service/internal/model"
	"github.com/psds-microservice/complaint-service/internal/policy"
)

// MaxPageSize: верхняя граница limit при выдаче списка.
const MaxPageSize = 100

// ListFilter: параметры списка жалоб.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

type ComplaintService struct {
	complaints ComplaintStore
	categories CategoryStore
	blobs      BlobStore
	resolver   *policy.Resolver
	authz      *policy.Authorizer
	notify     notifier
	index      Indexer
	log        *slog.Logger
}

// List возвращает видимые актору жалобы и их общее число.
func (s *ComplaintService) List(ctx context.Context, a identity.Actor, f ListFilter) ([]model.Complaint, int64, error) {
	if err := s.authz.Check(a, policy.ActionRead, policy.TierComplaint, nil); err != nil {
		return nil, 0, err
	}
	status, err := policy.ParseStatusFilter(f.Status)
	if err != nil {
		return nil, 0, err
	}
	if f.Limit < 0 {
		return nil, 0, errs.Invalid("limit", "must not be negative")
	}
	if f.Offset < 0 {
		return nil, 0, errs.Invalid("offset", "must not be negative")
	}
	if f.Limit == 0 || f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	scope, err := s.resolver.Complaints(ctx, a, status)
	if err != nil {
		return nil, 0, err
	}
	s.log.Debug("complaint scope", "actor", a.Handle(), "rule", scope.Rule, "kind", scope.Kind.String(), "status", scope.Status)
	return s.complaints.List(ctx, scope, f.Limit, f.Offset)
}

func (s *ComplaintService) Get(ctx context.Context, a identity.Actor, id uint64) (*model.Complaint, error) {
	if err := s.authz.Check(a, policy.ActionRead, policy.TierComplaint, nil); err != nil {
		return nil, err
	}
	return s.visible(ctx, a, id)
}

// visible: жалоба из видимого множества (без фильтра status), иначе NotFound.
func (s *ComplaintService) visible(ctx context.Context, a identity.Actor, id uint64) (*model.Complaint, error) {
	c, err := s.complaints.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	scope, err := s.resolver.Complaints(ctx, a, "")
	if err != nil {
		return nil, err
	}
	if !scope.Contains(c) {
		return nil, errs.ErrComplaintNotFound
	}
	return c, nil
}

// Create регистрирует жалобу. Репортёр берётся из актора; у анонимной жалобы
// должно быть имя или email.
func (s *ComplaintService) Create(ctx context.Context, a identity.Actor, in ComplaintInput) (*model.Complaint, error) {
	if err := s.authz.Check(a, policy.ActionCreate, policy.TierComplaint, nil); err != nil {
		return nil, err
	}
	in, dropped := in.Restrict(policy.WritableComplaintFields(a, policy.ActionCreate))
	logDropped(s.log, a, policy.ActionCreate, dropped)
	if a.Authenticated {
		in.ReporterName, in.ReporterEmail, in.ReporterPhone = nil, nil, nil
	}
	if err := in.validate(policy.FieldTitle, policy.FieldDescription); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.Category); err != nil {
		return nil, err
	}

	c := &model.Complaint{
		Title:         deref(in.Title),
		Description:   *in.Description,
		CategoryID:    in.Category.Value,
		ReporterName:  deref(in.ReporterName),
		ReporterEmail: deref(in.ReporterEmail),
		ReporterPhone: deref(in.ReporterPhone),
		Status:        model.ComplaintStatusNew,
		AssignedTo:    deref(in.AssignedTo),
	}
	if in.Status != nil {
		c.Status = model.ComplaintStatus(*in.Status)
	}
	if a.Authenticated {
		id := a.ID
		c.ReporterID = &id
		c.ReporterUsername = a.Username
	} else if c.ReporterName == "" && c.ReporterEmail == "" {
		return nil, errs.Invalid("reporter_email", "anonymous complaints require reporter_name or reporter_email")
	}

	if err := s.complaints.Create(ctx, c); err != nil {
		return nil, err
	}
	created, err := s.complaints.GetByID(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	s.log.Info("complaint created", "complaint_id", created.ID, "actor", a.Handle())
	s.notify.send(ctx, events.ComplaintCreated, a, created, 0, nil)
	s.index.IndexComplaintAsync(created)
	return created, nil
}

// Update изменяет жалобу. partial=false (PUT) требует title и description.
// Поля вне таблицы разрешённых молча отбрасываются.
func (s *ComplaintService) Update(ctx context.Context, a identity.Actor, id uint64, in ComplaintInput, partial bool) (*model.Complaint, error) {
	if !a.Authenticated {
		return nil, s.authz.Check(a, policy.ActionUpdate, policy.TierComplaint, nil)
	}
	c, err := s.visible(ctx, a, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Check(a, policy.ActionUpdate, policy.TierComplaint, c); err != nil {
		return nil, err
	}
	if len(in.Provided()) == 0 {
		return nil, errs.Invalid("", "no fields to update")
	}
	in, dropped := in.Restrict(policy.WritableComplaintFields(a, policy.ActionUpdate))
	logDropped(s.log, a, policy.ActionUpdate, dropped)

	var required []policy.Field
	if !partial {
		required = []policy.Field{policy.FieldTitle, policy.FieldDescription}
	}
	if err := in.validate(required...); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.Category); err != nil {
		return nil, err
	}
	if c.ReporterID == nil {
		name, email := c.ReporterName, c.ReporterEmail
		if in.ReporterName != nil {
			name = deref(in.ReporterName)
		}
		if in.ReporterEmail != nil {
			email = deref(in.ReporterEmail)
		}
		if name == "" && email == "" {
			return nil, errs.Invalid("reporter_email", "anonymous complaints require reporter_name or reporter_email")
		}
	}

	changes := in.changes()
	if len(changes) == 0 {
		return c, nil
	}
	updated, err := s.complaints.Update(ctx, id, changes)
	if err != nil {
		return nil, err
	}
	s.log.Info("complaint updated", "complaint_id", id, "actor", a.Handle(), "fields", in.Provided().Sorted())
	s.notify.send(ctx, events.ComplaintUpdated, a, updated, 0, in.Provided())
	s.index.IndexComplaintAsync(updated)
	return updated, nil
}

// Delete удаляет жалобу вместе с комментариями и вложениями.
func (s *ComplaintService) Delete(ctx context.Context, a identity.Actor, id uint64) error {
	if !a.Authenticated {
		return s.authz.Check(a, policy.ActionDelete, policy.TierComplaint, nil)
	}
	c, err := s.visible(ctx, a, id)
	if err != nil {
		return err
	}
	if err := s.authz.Check(a, policy.ActionDelete, policy.TierComplaint, c); err != nil {
		return err
	}
	files, err := s.complaints.Delete(ctx, id)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := s.blobs.Delete(f); err != nil {
			s.log.Warn("remove attachment file", "complaint_id", id, "file", f, "error", err)
		}
	}
	s.log.Info("complaint deleted", "complaint_id", id, "actor", a.Handle(), "attachments", len(files))
	s.notify.send(ctx, events.ComplaintDeleted, a, c, 0, nil)
	return nil
}

// All: все жалобы без учёта актора; только для служебных команд.
func (s *ComplaintService) All(ctx context.Context) ([]model.Complaint, error) {
	return s.complaints.All(ctx)
}

func (s *ComplaintService) checkCategory(ctx context.Context, ref OptionalID) error {
	if !ref.Set || ref.Value == nil {
		return nil
	}
	ok, err := s.categories.Exists(ctx, *ref.Value)
	if err != nil {
		return err
	}
	if !ok {
		return errs.Invalid("category", fmt.Sprintf("invalid pk %d: category does not exist", *ref.Value))
	}
	return nil
}
