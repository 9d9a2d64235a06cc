package handler

import (
	"fmt"
	"time"

	"github.com/psds-microservice/complaint-service/internal/model"
)

type attachmentResponse struct {
	ID         uint64    `json:"id"`
	Complaint  uint64    `json:"complaint"`
	File       string    `json:"file"`
	FileURL    string    `json:"file_url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// attachmentFileURL: ссылка на выдачу файла через проверку доступа к жалобе.
func attachmentFileURL(a model.Attachment) string {
	return fmt.Sprintf("/api/v1/complaints/%d/attachments/%d/file", a.ComplaintID, a.ID)
}

func newAttachmentResponse(a model.Attachment) attachmentResponse {
	return attachmentResponse{
		ID:         a.ID,
		Complaint:  a.ComplaintID,
		File:       a.File,
		FileURL:    attachmentFileURL(a),
		UploadedAt: a.UploadedAt,
	}
}

type complaintResponse struct {
	ID               uint64               `json:"id"`
	Reporter         *string              `json:"reporter"`
	ReporterUsername *string              `json:"reporter_username"`
	ReporterName     string               `json:"reporter_name"`
	ReporterEmail    string               `json:"reporter_email"`
	ReporterPhone    string               `json:"reporter_phone"`
	Title            string               `json:"title"`
	Description      string               `json:"description"`
	Category         *uint64              `json:"category"`
	CategoryName     *string              `json:"category_name"`
	Status           string               `json:"status"`
	AssignedTo       string               `json:"assigned_to"`
	Attachments      []attachmentResponse `json:"attachments"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

func newComplaintResponse(c *model.Complaint) complaintResponse {
	r := complaintResponse{
		ID:            c.ID,
		Reporter:      c.ReporterID,
		ReporterName:  c.ReporterName,
		ReporterEmail: c.ReporterEmail,
		ReporterPhone: c.ReporterPhone,
		Title:         c.Title,
		Description:   c.Description,
		Category:      c.CategoryID,
		Status:        string(c.Status),
		AssignedTo:    c.AssignedTo,
		Attachments:   make([]attachmentResponse, 0, len(c.Attachments)),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	if c.ReporterID != nil {
		name := c.ReporterUsername
		r.ReporterUsername = &name
	}
	if c.Category != nil {
		name := c.Category.Name
		r.CategoryName = &name
	}
	for _, a := range c.Attachments {
		r.Attachments = append(r.Attachments, newAttachmentResponse(a))
	}
	return r
}

type commentResponse struct {
	ID            uint64    `json:"id"`
	Complaint     uint64    `json:"complaint"`
	User          *string   `json:"user"`
	Author        string    `json:"author"`
	AuthorDisplay string    `json:"author_display"`
	Message       string    `json:"message"`
	Public        bool      `json:"public"`
	CreatedAt     time.Time `json:"created_at"`
}

func newCommentResponse(c *model.Comment) commentResponse {
	return commentResponse{
		ID:            c.ID,
		Complaint:     c.ComplaintID,
		User:          c.UserID,
		Author:        c.Author,
		AuthorDisplay: c.AuthorDisplay(),
		Message:       c.Message,
		Public:        c.Public,
		CreatedAt:     c.CreatedAt,
	}
}
