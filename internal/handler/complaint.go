package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/complaint-service/internal/apierr"
	"github.com/psds-microservice/complaint-service/internal/middleware"
	"github.com/psds-microservice/complaint-service/internal/service"
)

type ComplaintHandler struct {
	svc *service.ComplaintService
}

func NewComplaintHandler(svc *service.ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{svc: svc}
}

// List: ?status=new|in_progress|resolved|rejected|all&limit=&offset=
func (h *ComplaintHandler) List(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		return
	}
	f := service.ListFilter{Status: c.Query("status"), Limit: limit, Offset: offset}
	items, total, err := h.svc.List(c.Request.Context(), middleware.ActorFrom(c), f)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	out := make([]complaintResponse, 0, len(items))
	for i := range items {
		out = append(out, newComplaintResponse(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"complaints": out,
		"total":      total,
	})
}

func (h *ComplaintHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	complaint, err := h.svc.Get(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, newComplaintResponse(complaint))
}

func (h *ComplaintHandler) Create(c *gin.Context) {
	var req service.ComplaintInput
	if !bindJSON(c, &req) {
		return
	}
	complaint, err := h.svc.Create(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, newComplaintResponse(complaint))
}

// Update обслуживает PUT (полное) и PATCH (частичное).
func (h *ComplaintHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.ComplaintInput
	if !bindJSON(c, &req) {
		return
	}
	complaint, err := h.svc.Update(c.Request.Context(), middleware.ActorFrom(c), id, req, c.Request.Method == http.MethodPatch)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, newComplaintResponse(complaint))
}

func (h *ComplaintHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
