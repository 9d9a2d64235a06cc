package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/psds-microservice/complaint-service/internal/model"
)

// Client отправляет жалобы в search-service для индексации (best-effort, не блокирует API).
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient возвращает клиент. Если baseURL пустой, вызовы — no-op.
func NewClient(baseURL string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		log: log.With("component", "searchindex"),
	}
}

func (c *Client) Enabled() bool { return c.baseURL != "" }

// IndexComplaintPayload: тело POST /search/index/complaint.
type IndexComplaintPayload struct {
	ComplaintID  int64  `json:"complaint_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	CategoryID   int64  `json:"category_id,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
	Status       string `json:"status"`
	AssignedTo   string `json:"assigned_to,omitempty"`
	ReporterID   string `json:"reporter_id,omitempty"`
}

func payloadOf(c *model.Complaint) IndexComplaintPayload {
	p := IndexComplaintPayload{
		ComplaintID:  int64(c.ID),
		Title:        c.Title,
		Description:  c.Description,
		CategoryName: c.CategoryName(),
		Status:       string(c.Status),
		AssignedTo:   c.AssignedTo,
		ReporterID:   c.OwnerID(),
	}
	if c.CategoryID != nil {
		p.CategoryID = int64(*c.CategoryID)
	}
	return p
}

// IndexComplaint отправляет жалобу в search-service.
func (c *Client) IndexComplaint(ctx context.Context, complaint *model.Complaint) error {
	if c.baseURL == "" {
		return nil
	}
	body, err := json.Marshal(payloadOf(complaint))
	if err != nil {
		return fmt.Errorf("searchindex: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search/index/complaint", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("searchindex: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("searchindex: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("searchindex: status %d for complaint %d", resp.StatusCode, complaint.ID)
	}
	return nil
}

// IndexComplaintAsync вызывает IndexComplaint в отдельной горутине (не блокирует ответ API).
func (c *Client) IndexComplaintAsync(complaint *model.Complaint) {
	if c.baseURL == "" {
		return
	}
	snapshot := *complaint
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.IndexComplaint(ctx, &snapshot); err != nil {
			c.log.Warn("index complaint", "complaint_id", snapshot.ID, "error", err)
		}
	}()
}
