// Package servicetest: хранилище в памяти для тестов фасада и обработчиков.
// Фильтрация идёт через Contains тех же предикатов, что хранилище переводит в SQL.
package servicetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/psds-microservice/complaint-service/internal/errs"
	"github.com/psds-microservice/complaint-service/internal/model"
	"github.com/psds-microservice/complaint-service/internal/policy"
)

// MemStore хранит все сущности в map-ах под одним мьютексом.
type MemStore struct {
	mu          sync.Mutex
	seq         uint64
	clock       time.Time
	categories  map[uint64]model.Category
	complaints  map[uint64]model.Complaint
	comments    map[uint64]model.Comment
	attachments map[uint64]model.Attachment
	profiles    map[string]model.AdminProfile
}

func NewMemStore() *MemStore {
	return &MemStore{
		clock:       time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		categories:  map[uint64]model.Category{},
		complaints:  map[uint64]model.Complaint{},
		comments:    map[uint64]model.Comment{},
		attachments: map[uint64]model.Attachment{},
		profiles:    map[string]model.AdminProfile{},
	}
}

func (m *MemStore) next() (uint64, time.Time) {
	m.seq++
	m.clock = m.clock.Add(time.Minute)
	return m.seq, m.clock
}

type CategoriesStore struct{ *MemStore }

func (m CategoriesStore) List(context.Context) ([]model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Category{}
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m CategoriesStore) GetByID(_ context.Context, id uint64) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, errs.ErrCategoryNotFound
	}
	return &c, nil
}

func (m CategoriesStore) Exists(_ context.Context, id uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.categories[id]
	return ok, nil
}

func (m CategoriesStore) NameTaken(_ context.Context, name string, excludeID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Name == name && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m CategoriesStore) FindByNames(_ context.Context, names []string) ([]model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Category{}
	for _, c := range m.categories {
		for _, n := range names {
			if c.Name == n {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (m CategoriesStore) Create(_ context.Context, c *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID, _ = m.next()
	m.categories[c.ID] = *c
	return nil
}

func (m CategoriesStore) Update(_ context.Context, id uint64, changes map[string]interface{}) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, errs.ErrCategoryNotFound
	}
	if v, ok := changes["name"]; ok {
		c.Name = v.(string)
	}
	if v, ok := changes["description"]; ok {
		c.Description = v.(string)
	}
	m.categories[id] = c
	return &c, nil
}

func (m CategoriesStore) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return errs.ErrCategoryNotFound
	}
	delete(m.categories, id)
	for cid, c := range m.complaints {
		if c.CategoryID != nil && *c.CategoryID == id {
			c.CategoryID = nil
			m.complaints[cid] = c
		}
	}
	for uid, p := range m.profiles {
		kept := p.Categories[:0:0]
		for _, c := range p.Categories {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		p.Categories = kept
		m.profiles[uid] = p
	}
	return nil
}

type ComplaintsStore struct{ *MemStore }

// hydrate подставляет категорию и вложения, как Preload.
func (m ComplaintsStore) hydrate(c model.Complaint) model.Complaint {
	c.Category = nil
	if c.CategoryID != nil {
		if cat, ok := m.categories[*c.CategoryID]; ok {
			c.Category = &cat
		}
	}
	c.Attachments = nil
	for _, a := range m.attachments {
		if a.ComplaintID == c.ID {
			c.Attachments = append(c.Attachments, a)
		}
	}
	sort.Slice(c.Attachments, func(i, j int) bool { return c.Attachments[i].ID < c.Attachments[j].ID })
	return c
}

func (m ComplaintsStore) List(_ context.Context, scope policy.ComplaintScope, limit, offset int) ([]model.Complaint, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Complaint{}
	for _, c := range m.complaints {
		c := c
		if scope.Contains(&c) {
			out = append(out, m.hydrate(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (m ComplaintsStore) All(context.Context) ([]model.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Complaint{}
	for _, c := range m.complaints {
		out = append(out, m.hydrate(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m ComplaintsStore) GetByID(_ context.Context, id uint64) (*model.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.complaints[id]
	if !ok {
		return nil, errs.ErrComplaintNotFound
	}
	c = m.hydrate(c)
	return &c, nil
}

func (m ComplaintsStore) Create(_ context.Context, c *model.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, now := m.next()
	c.ID, c.CreatedAt, c.UpdatedAt = id, now, now
	m.complaints[id] = *c
	return nil
}

func (m ComplaintsStore) Update(_ context.Context, id uint64, changes map[string]interface{}) (*model.Complaint, error) {
	m.mu.Lock()
	c, ok := m.complaints[id]
	if !ok {
		m.mu.Unlock()
		return nil, errs.ErrComplaintNotFound
	}
	for k, v := range changes {
		switch k {
		case "title":
			c.Title = v.(string)
		case "description":
			c.Description = v.(string)
		case "category_id":
			c.CategoryID = v.(*uint64)
		case "reporter_name":
			c.ReporterName = v.(string)
		case "reporter_email":
			c.ReporterEmail = v.(string)
		case "reporter_phone":
			c.ReporterPhone = v.(string)
		case "status":
			c.Status = v.(model.ComplaintStatus)
		case "assigned_to":
			c.AssignedTo = v.(string)
		}
	}
	_, c.UpdatedAt = m.next()
	m.complaints[id] = c
	m.mu.Unlock()
	return m.GetByID(context.Background(), id)
}

func (m ComplaintsStore) Delete(_ context.Context, id uint64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.complaints[id]; !ok {
		return nil, errs.ErrComplaintNotFound
	}
	var files []string
	for aid, a := range m.attachments {
		if a.ComplaintID == id {
			files = append(files, a.File)
			delete(m.attachments, aid)
		}
	}
	for cid, c := range m.comments {
		if c.ComplaintID == id {
			delete(m.comments, cid)
		}
	}
	delete(m.complaints, id)
	sort.Strings(files)
	return files, nil
}

type CommentsStore struct{ *MemStore }

func (m CommentsStore) List(_ context.Context, scope policy.CommentScope) ([]model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Comment{}
	for _, c := range m.comments {
		c := c
		if scope.Contains(&c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m CommentsStore) Get(_ context.Context, scope policy.CommentScope, id uint64) (*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok || !scope.Contains(&c) {
		return nil, errs.ErrCommentNotFound
	}
	return &c, nil
}

func (m CommentsStore) Create(_ context.Context, c *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID, c.CreatedAt = m.next()
	m.comments[c.ID] = *c
	return nil
}

func (m CommentsStore) Delete(_ context.Context, complaintID, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok || c.ComplaintID != complaintID {
		return errs.ErrCommentNotFound
	}
	delete(m.comments, id)
	return nil
}

type AttachmentsStore struct{ *MemStore }

func (m AttachmentsStore) List(_ context.Context, scope policy.AttachmentScope) ([]model.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Attachment{}
	for _, a := range m.attachments {
		a := a
		if scope.Contains(&a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m AttachmentsStore) Get(_ context.Context, scope policy.AttachmentScope, id uint64) (*model.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attachments[id]
	if !ok || !scope.Contains(&a) {
		return nil, errs.ErrAttachmentNotFound
	}
	return &a, nil
}

func (m AttachmentsStore) Create(_ context.Context, a *model.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID, a.UploadedAt = m.next()
	m.attachments[a.ID] = *a
	return nil
}

func (m AttachmentsStore) Delete(_ context.Context, complaintID, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attachments[id]
	if !ok || a.ComplaintID != complaintID {
		return errs.ErrAttachmentNotFound
	}
	delete(m.attachments, id)
	return nil
}

type ProfilesStore struct{ *MemStore }

func (m ProfilesStore) GetByUserID(_ context.Context, userID string) (*model.AdminProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, errs.ErrProfileNotFound
	}
	return &p, nil
}

func (m ProfilesStore) CategoryScope(ctx context.Context, userID string) ([]uint64, bool, error) {
	p, err := m.GetByUserID(ctx, userID)
	if err != nil {
		return nil, false, nil
	}
	return p.CategoryIDs(), true, nil
}

func (m ProfilesStore) Upsert(_ context.Context, userID, username string, categories []model.Category) (*model.AdminProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		p = model.AdminProfile{UserID: userID}
		p.ID, _ = m.next()
	}
	if username != "" {
		p.Username = username
	}
	p.Categories = append([]model.Category(nil), categories...)
	m.profiles[userID] = p
	return &p, nil
}

func (m ProfilesStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[userID]; !ok {
		return errs.ErrProfileNotFound
	}
	delete(m.profiles, userID)
	return nil
}

func (m *MemStore) Categories() CategoriesStore   { return CategoriesStore{m} }
func (m *MemStore) Complaints() ComplaintsStore   { return ComplaintsStore{m} }
func (m *MemStore) Comments() CommentsStore       { return CommentsStore{m} }
func (m *MemStore) Attachments() AttachmentsStore { return AttachmentsStore{m} }
func (m *MemStore) Profiles() ProfilesStore       { return ProfilesStore{m} }

// CommentCount: число комментариев во всех жалобах.
func (m *MemStore) CommentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.comments)
}

func (m *MemStore) AttachmentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attachments)
}
