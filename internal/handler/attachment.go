package handler

import (
	"errors"
	"mime"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/complaint-service/internal/apierr"
	"github.com/psds-microservice/complaint-service/internal/errs"
	"github.com/psds-microservice/complaint-service/internal/middleware"
	"github.com/psds-microservice/complaint-service/internal/service"
)

// multipartOverhead: запас на заголовки multipart сверх лимита файла.
const multipartOverhead = 1 << 20

type AttachmentHandler struct {
	svc      *service.AttachmentService
	maxBytes int64
}

func NewAttachmentHandler(svc *service.AttachmentService, maxBytes int64) *AttachmentHandler {
	return &AttachmentHandler{svc: svc, maxBytes: maxBytes}
}

func (h *AttachmentHandler) List(c *gin.Context) {
	complaintID, ok := parseID(c, "id")
	if !ok {
		return
	}
	items, err := h.svc.List(c.Request.Context(), middleware.ActorFrom(c), complaintID)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	out := make([]attachmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, newAttachmentResponse(a))
	}
	c.JSON(http.StatusOK, gin.H{"attachments": out})
}

// Create принимает multipart-поле "file". Доступ к жалобе проверяется до
// чтения тела.
func (h *AttachmentHandler) Create(c *gin.Context) {
	complaintID, ok := parseID(c, "id")
	if !ok {
		return
	}
	actor := middleware.ActorFrom(c)
	if err := h.svc.CanUpload(c.Request.Context(), actor, complaintID); err != nil {
		apierr.Respond(c, err)
		return
	}
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierr.Respond(c, errs.Invalid("file", "file exceeds the upload size limit"))
			return
		}
		apierr.Respond(c, errs.Invalid("file", "no file was submitted"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	defer f.Close()

	at, err := h.svc.Create(c.Request.Context(), actor, complaintID, fh.Filename, f)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, newAttachmentResponse(*at))
}

// Download отдаёт содержимое вложения с проверкой доступа к жалобе.
func (h *AttachmentHandler) Download(c *gin.Context) {
	complaintID, ok := parseID(c, "id")
	if !ok {
		return
	}
	id, ok := parseID(c, "attachment_id")
	if !ok {
		return
	}
	at, f, err := h.svc.Open(c.Request.Context(), middleware.ActorFrom(c), complaintID, id)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	name := path.Base(at.File)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(c.Writer, c.Request, name, info.ModTime(), f)
}

func (h *AttachmentHandler) Delete(c *gin.Context) {
	complaintID, ok := parseID(c, "id")
	if !ok {
		return
	}
	id, ok := parseID(c, "attachment_id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.ActorFrom(c), complaintID, id); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
