package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/psds-microservice/complaint-service/internal/errs"
	"github.com/psds-microservice/complaint-service/internal/events"
	"github.com/psds-microservice/complaint-service/internal/identity"
	"github.com/psds-microservice/complaint-service/internal/model"
	"github.com/psds-microservice/complaint-service/internal/policy"
)

type AttachmentService struct {
	attachments AttachmentStore
	blobs       BlobStore
	gate        parentGate
	resolver    *policy.Resolver
	notify      notifier
	maxBytes    int64
	log         *slog.Logger
}

func (s *AttachmentService) List(ctx context.Context, a identity.Actor, complaintID uint64) ([]model.Attachment, error) {
	if _, err := s.gate.open(ctx, a, complaintID, policy.TierAttachment, policy.ActionRead); err != nil {
		return nil, err
	}
	return s.attachments.List(ctx, s.resolver.Attachments(complaintID))
}

// Open отдаёт запись вложения и открытый файл. Файл закрывает вызывающий.
func (s *AttachmentService) Open(ctx context.Context, a identity.Actor, complaintID, id uint64) (*model.Attachment, *os.File, error) {
	if _, err := s.gate.open(ctx, a, complaintID, policy.TierAttachment, policy.ActionRead); err != nil {
		return nil, nil, err
	}
	at, err := s.attachments.Get(ctx, s.resolver.Attachments(complaintID), id)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.blobs.Open(at.File)
	if err != nil {
		return nil, nil, err
	}
	return at, f, nil
}

// CanUpload проверяет доступ к жалобе до приёма тела загрузки.
func (s *AttachmentService) CanUpload(ctx context.Context, a identity.Actor, complaintID uint64) error {
	_, err := s.gate.open(ctx, a, complaintID, policy.TierAttachment, policy.ActionCreate)
	return err
}

// Create сохраняет файл под complaints/<id>/<filename>. Если имя занято,
// хранилище добавляет короткий суффикс перед расширением.
func (s *AttachmentService) Create(ctx context.Context, a identity.Actor, complaintID uint64, filename string, r io.Reader) (*model.Attachment, error) {
	parent, err := s.gate.open(ctx, a, complaintID, policy.TierAttachment, policy.ActionCreate)
	if err != nil {
		return nil, err
	}
	name := cleanFilename(filename)
	if name == "" {
		return nil, errs.Invalid("file", "no file was submitted")
	}
	key, _, err := s.blobs.Put(ctx, model.AttachmentPath(parent.ID, name), r, s.maxBytes)
	if err != nil {
		return nil, err
	}
	at := &model.Attachment{ComplaintID: parent.ID, File: key}
	if err := s.attachments.Create(ctx, at); err != nil {
		if derr := s.blobs.Delete(key); derr != nil {
			s.log.Warn("remove orphaned file", "file", key, "error", derr)
		}
		return nil, err
	}
	s.log.Info("attachment created", "complaint_id", parent.ID, "attachment_id", at.ID, "file", key, "actor", a.Handle())
	s.notify.send(ctx, events.AttachmentCreated, a, parent, at.ID, nil)
	return at, nil
}

// Delete: только staff. Файл удаляется после записи, best-effort.
func (s *AttachmentService) Delete(ctx context.Context, a identity.Actor, complaintID, id uint64) error {
	parent, err := s.gate.open(ctx, a, complaintID, policy.TierAttachment, policy.ActionDelete)
	if err != nil {
		return err
	}
	at, err := s.attachments.Get(ctx, s.resolver.Attachments(complaintID), id)
	if err != nil {
		return err
	}
	if err := s.attachments.Delete(ctx, complaintID, id); err != nil {
		return err
	}
	if err := s.blobs.Delete(at.File); err != nil {
		s.log.Warn("remove attachment file", "file", at.File, "error", err)
	}
	s.log.Info("attachment deleted", "complaint_id", complaintID, "attachment_id", id, "actor", a.Handle())
	s.notify.send(ctx, events.AttachmentDeleted, a, parent, id, nil)
	return nil
}

func cleanFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
