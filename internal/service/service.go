package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/psds-microservice/complaint-service/internal/errs"
	"github.com/psds-microservice/complaint-service/internal/events"
	"github.com/psds-microservice/complaint-service/internal/identity"
	"github.com/psds-microservice/complaint-service/internal/model"
	"github.com/psds-microservice/complaint-service/internal/policy"
)

// Deps: зависимости фасада.
type Deps struct {
	Categories  CategoryStore
	Complaints  ComplaintStore
	Comments    CommentStore
	Attachments AttachmentStore
	Blobs       BlobStore

	Resolver   *policy.Resolver
	Authorizer *policy.Authorizer

	Events  events.Publisher
	Indexer Indexer
	// Scopes сбрасывается при удалении категорий; может быть nil.
	Scopes ScopeInvalidator
	Logger *slog.Logger

	MaxUploadBytes int64
}

// Services: фасад всех уровней ресурсов.
type Services struct {
	Categories  *CategoryService
	Complaints  *ComplaintService
	Comments    *CommentService
	Attachments *AttachmentService
}

func New(d Deps) *Services {
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Indexer == nil {
		d.Indexer = nopIndexer{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	n := notifier{pub: d.Events, now: time.Now}
	gate := parentGate{complaints: d.Complaints, resolver: d.Resolver, authz: d.Authorizer}
	return &Services{
		Categories: &CategoryService{
			categories: d.Categories,
			authz:      d.Authorizer,
			scopes:     d.Scopes,
			log:        d.Logger.With("tier", policy.TierCategory),
		},
		Complaints: &ComplaintService{
			complaints: d.Complaints,
			categories: d.Categories,
			blobs:      d.Blobs,
			resolver:   d.Resolver,
			authz:      d.Authorizer,
			notify:     n,
			index:      d.Indexer,
			log:        d.Logger.With("tier", policy.TierComplaint),
		},
		Comments: &CommentService{
			comments: d.Comments,
			gate:     gate,
			resolver: d.Resolver,
			notify:   n,
			log:      d.Logger.With("tier", policy.TierComment),
		},
		Attachments: &AttachmentService{
			attachments: d.Attachments,
			blobs:       d.Blobs,
			gate:        gate,
			resolver:    d.Resolver,
			notify:      n,
			maxBytes:    d.MaxUploadBytes,
			log:         d.Logger.With("tier", policy.TierAttachment),
		},
	}
}

// parentGate открывает доступ к вложенному уровню: родитель существует,
// актор прошёл авторизатор, родитель входит в его видимое множество.
type parentGate struct {
	complaints ComplaintStore
	resolver   *policy.Resolver
	authz      *policy.Authorizer
}

func (g parentGate) open(ctx context.Context, a identity.Actor, complaintID uint64, tier policy.Tier, action policy.Action) (*model.Complaint, error) {
	parent, err := g.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if err := g.authz.Check(a, action, tier, parent); err != nil {
		return nil, err
	}
	scope, err := g.resolver.Complaints(ctx, a, "")
	if err != nil {
		return nil, err
	}
	if !scope.Contains(parent) {
		return nil, errs.ErrComplaintNotFound
	}
	return parent, nil
}

type notifier struct {
	pub events.Publisher
	now func() time.Time
}

func (n notifier) send(ctx context.Context, typ string, a identity.Actor, c *model.Complaint, entityID uint64, fields policy.FieldSet) {
	e := events.Event{
		Type:        typ,
		ComplaintID: c.ID,
		EntityID:    entityID,
		CategoryID:  c.CategoryID,
		Status:      string(c.Status),
		Actor:       a.Handle(),
		OccurredAt:  n.now().UTC(),
	}
	for _, f := range fields.Sorted() {
		e.Fields = append(e.Fields, string(f))
	}
	n.pub.Publish(ctx, e)
}

func logDropped(log *slog.Logger, a identity.Actor, action policy.Action, dropped policy.FieldSet) {
	if len(dropped) == 0 {
		return
	}
	log.Debug("protected fields ignored", "actor", a.Handle(), "action", action, "fields", dropped.Sorted())
}
