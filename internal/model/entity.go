package model

import (
	"fmt"
	"time"
)

type ComplaintStatus string

const (
	ComplaintStatusNew        ComplaintStatus = "new"
	ComplaintStatusInProgress ComplaintStatus = "in_progress"
	ComplaintStatusResolved   ComplaintStatus = "resolved"
	ComplaintStatusRejected   ComplaintStatus = "rejected"
)

// Valid сообщает, входит ли статус в допустимый набор.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintStatusNew, ComplaintStatusInProgress, ComplaintStatusResolved, ComplaintStatusRejected:
		return true
	}
	return false
}

type Category struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

// Complaint: жалоба. ReporterID — слабая ссылка на внешнюю идентичность (sub из токена),
// nil для анонимных жалоб.
type Complaint struct {
	ID               uint64          `gorm:"primaryKey" json:"id"`
	ReporterID       *string         `gorm:"type:varchar(255);index" json:"reporter"`
	ReporterUsername string          `gorm:"type:varchar(150)" json:"reporter_username,omitempty"`
	ReporterName     string          `gorm:"type:varchar(120)" json:"reporter_name"`
	ReporterEmail    string          `gorm:"type:varchar(254)" json:"reporter_email"`
	ReporterPhone    string          `gorm:"type:varchar(30)" json:"reporter_phone"`
	Title            string          `gorm:"type:varchar(200);not null" json:"title"`
	Description      string          `gorm:"type:text;not null" json:"description"`
	CategoryID       *uint64         `gorm:"index" json:"category"`
	Category         *Category       `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Status           ComplaintStatus `gorm:"type:varchar(20);index;not null;default:new" json:"status"`
	AssignedTo       string          `gorm:"type:varchar(150)" json:"assigned_to"`

	Attachments []Attachment `gorm:"constraint:OnDelete:CASCADE" json:"attachments"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnerID возвращает идентификатор репортёра или пустую строку для анонимной жалобы.
func (c *Complaint) OwnerID() string {
	if c == nil || c.ReporterID == nil {
		return ""
	}
	return *c.ReporterID
}

// CategoryName: имя категории, если она загружена.
func (c *Complaint) CategoryName() string {
	if c.Category == nil {
		return ""
	}
	return c.Category.Name
}

type Comment struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	ComplaintID uint64    `gorm:"index;not null" json:"complaint"`
	UserID      *string   `gorm:"type:varchar(255);index" json:"user"`
	Username    string    `gorm:"type:varchar(150)" json:"username,omitempty"`
	Author      string    `gorm:"type:varchar(120)" json:"author"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	Public      bool      `gorm:"not null;default:false" json:"public"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// AuthorDisplay: имя пользователя, иначе author, иначе "Anonymous".
func (c *Comment) AuthorDisplay() string {
	if c.UserID != nil && c.Username != "" {
		return c.Username
	}
	if c.Author != "" {
		return c.Author
	}
	return "Anonymous"
}

type Attachment struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	ComplaintID uint64    `gorm:"index;not null" json:"-"`
	File        string    `gorm:"type:varchar(512);not null" json:"file"`
	UploadedAt  time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

// AttachmentPath: путь blob-а вложения: complaints/<complaint_id>/<filename>.
func AttachmentPath(complaintID uint64, filename string) string {
	return fmt.Sprintf("complaints/%d/%s", complaintID, filename)
}

// AdminProfile задаёт категории, в пределах которых staff-пользователь видит жалобы.
type AdminProfile struct {
	ID         uint64     `gorm:"primaryKey" json:"id"`
	UserID     string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"user"`
	Username   string     `gorm:"type:varchar(150)" json:"username"`
	Categories []Category `gorm:"many2many:admin_profile_categories;constraint:OnDelete:CASCADE" json:"categories"`
}

// CategoryIDs возвращает идентификаторы назначенных категорий.
func (p *AdminProfile) CategoryIDs() []uint64 {
	ids := make([]uint64, 0, len(p.Categories))
	for _, c := range p.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}
