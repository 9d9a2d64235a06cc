package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/complaint-service/internal/apierr"
	"github.com/psds-microservice/complaint-service/internal/middleware"
	"github.com/psds-microservice/complaint-service/internal/service"
)

type CommentHandler struct {
	svc *service.CommentService
}

func NewCommentHandler(svc *service.CommentService) *CommentHandler {
	return &CommentHandler{svc: svc}
}

func (h *CommentHandler) List(c *gin.Context) {
	complaintID, ok := parseID(c, "id")
	if !ok {
		return
	}
	items, err := h.svc.List(c.Request.Context(), middleware.ActorFrom(c), complaintID)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	out := make([]commentResponse, 0, len(items))
	for i := range items {
		out = append(out, newCommentResponse(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"comments": out})
}

func (h *CommentHandler) Get(c *gin.Context) {
	complaintID, ok := parseID(c, "id")
	if !ok {
		return
	}
	id, ok := parseID(c, "comment_id")
	if !ok {
		return
	}
	cm, err := h.svc.Get(c.Request.Context(), middleware.ActorFrom(c), complaintID, id)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, newCommentResponse(cm))
}

func (h *CommentHandler) Create(c *gin.Context) {
	complaintID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.CommentInput
	if !bindJSON(c, &req) {
		return
	}
	cm, err := h.svc.Create(c.Request.Context(), middleware.ActorFrom(c), complaintID, req)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, newCommentResponse(cm))
}

// Update всегда завершается отказом: комментарии неизменяемы.
func (h *CommentHandler) Update(c *gin.Context) {
	complaintID, ok := parseID(c, "id")
	if !ok {
		return
	}
	id, ok := parseID(c, "comment_id")
	if !ok {
		return
	}
	_, err := h.svc.Update(c.Request.Context(), middleware.ActorFrom(c), complaintID, id)
	apierr.Respond(c, err)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	complaintID, ok := parseID(c, "id")
	if !ok {
		return
	}
	id, ok := parseID(c, "comment_id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.ActorFrom(c), complaintID, id); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
