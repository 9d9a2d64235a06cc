package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/helpy/paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psds-microservice/complaint-service/internal/blob"
	"github.com/psds-microservice/complaint-service/internal/handler"
	"github.com/psds-microservice/complaint-service/internal/identity"
	"github.com/psds-microservice/complaint-service/internal/model"
	"github.com/psds-microservice/complaint-service/internal/policy"
	"github.com/psds-microservice/complaint-service/internal/service"
	"github.com/psds-microservice/complaint-service/internal/service/servicetest"
)

type testAPI struct {
	t      *testing.T
	h      http.Handler
	store  *servicetest.MemStore
	tokens *identity.TokenProvider
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := servicetest.NewMemStore()
	blobs, err := blob.New(t.TempDir())
	require.NoError(t, err)
	svc := service.New(service.Deps{
		Categories:     store.Categories(),
		Complaints:     store.Complaints(),
		Comments:       store.Comments(),
		Attachments:    store.Attachments(),
		Blobs:          blobs,
		Resolver:       policy.NewResolver(store.Profiles()),
		Authorizer:     policy.NewAuthorizer(policy.Options{AllowAnonymousComplaints: true}),
		MaxUploadBytes: 1 << 16,
	})
	tokens := identity.NewTokenProvider("test-secret", "complaint-service", time.Hour)
	h := New(Handlers{
		Health:      handler.NewHealthHandler(nil),
		Categories:  handler.NewCategoryHandler(svc.Categories),
		Complaints:  handler.NewComplaintHandler(svc.Complaints),
		Comments:    handler.NewCommentHandler(svc.Comments),
		Attachments: handler.NewAttachmentHandler(svc.Attachments, 1<<16),
	}, Options{Tokens: tokens})
	return &testAPI{t: t, h: h, store: store, tokens: tokens}
}

func (a *testAPI) token(actor identity.Actor) string {
	a.t.Helper()
	tok, err := a.tokens.Issue(actor)
	require.NoError(a.t, err)
	return tok
}

func (a *testAPI) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, w)
	e, ok := body["error"].(map[string]interface{})
	require.True(t, ok, w.Body.String())
	return e["code"].(string)
}

var (
	owner   = identity.Actor{ID: "u-owner", Username: "olga", Authenticated: true}
	plumber = identity.Actor{ID: "s-1", Username: "pete", Authenticated: true, Staff: true}
	admin   = identity.Actor{ID: "a-1", Username: "anna", Authenticated: true, Groups: []string{"Administrators"}}
	other   = identity.Actor{ID: "u-other", Username: "oleg", Authenticated: true}
)

func TestRouter_ServiceEndpoints(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, paths.PathHealth, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = api.do(http.MethodGet, paths.PathReady, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, paths.PathSwagger+"/openapi.json", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3.0.3", decode(t, w)["openapi"])

	w = api.do(http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "complaint_http_requests_total")
}

func TestRouter_AnonymousSubmission(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/v1/complaints", map[string]interface{}{
		"title": "Leak", "description": "...", "reporter_email": "a@b.com", "reporter": "u-owner",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Nil(t, created["reporter"])
	assert.Equal(t, "new", created["status"])
	assert.Equal(t, []interface{}{}, created["attachments"])

	w = api.do(http.MethodPost, "/api/v1/complaints", map[string]interface{}{"title": "Leak", "description": "..."}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = api.do(http.MethodGet, "/api/v1/complaints", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	assert.Empty(t, list["complaints"])
	assert.EqualValues(t, 0, list["total"])

	w = api.do(http.MethodGet, "/api/v1/complaints", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
}

func TestRouter_CategoriesRequireAdministrators(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/v1/categories", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/api/v1/categories", map[string]string{"name": "Plumbing"}, api.token(plumber))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, w))

	w = api.do(http.MethodPost, "/api/v1/categories", map[string]string{"name": "Plumbing"}, api.token(admin))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Plumbing", decode(t, w)["name"])

	w = api.do(http.MethodGet, "/api/v1/categories", nil, api.token(owner))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["categories"], 1)

	w = api.do(http.MethodGet, "/api/v1/categories/abc", nil, api.token(owner))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_ComplaintLifecycle(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()
	ownerTok, staffTok := api.token(owner), api.token(plumber)

	cat := &model.Category{Name: "Plumbing"}
	require.NoError(t, api.store.Categories().Create(ctx, cat))
	_, err := api.store.Profiles().Upsert(ctx, plumber.ID, plumber.Username, []model.Category{*cat})
	require.NoError(t, err)

	w := api.do(http.MethodPost, "/api/v1/complaints", map[string]interface{}{
		"title": "Leak", "description": "kitchen", "category": cat.ID,
	}, ownerTok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "u-owner", created["reporter"])
	assert.Equal(t, "olga", created["reporter_username"])
	assert.Equal(t, "Plumbing", created["category_name"])
	id := int(created["id"].(float64))
	base := "/api/v1/complaints/" + itoa(id)

	w = api.do(http.MethodPatch, base, map[string]string{"status": "resolved", "description": "worse"}, ownerTok)
	require.Equal(t, http.StatusOK, w.Code)
	patched := decode(t, w)
	assert.Equal(t, "new", patched["status"])
	assert.Equal(t, "worse", patched["description"])

	w = api.do(http.MethodPatch, base, map[string]string{"status": "resolved"}, staffTok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "resolved", decode(t, w)["status"])

	w = api.do(http.MethodGet, "/api/v1/complaints?status=resolved", nil, staffTok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	w = api.do(http.MethodGet, "/api/v1/complaints?status=closed", nil, staffTok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPost, base+"/comments", map[string]interface{}{"message": "any news?", "public": true}, ownerTok)
	require.Equal(t, http.StatusCreated, w.Code)
	comment := decode(t, w)
	assert.Equal(t, false, comment["public"])
	assert.Equal(t, "olga", comment["author_display"])
	commentPath := base + "/comments/" + itoa(int(comment["id"].(float64)))

	w = api.do(http.MethodDelete, commentPath, nil, ownerTok)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = api.do(http.MethodPatch, commentPath, map[string]string{"message": "edited"}, ownerTok)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = api.do(http.MethodDelete, "/api/v1/complaints/9999/comments/1", nil, ownerTok)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = api.do(http.MethodDelete, commentPath, nil, staffTok)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.upload(base+"/attachments", "photo.jpg", []byte("jpeg-bytes"), ownerTok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	att := decode(t, w)
	assert.Equal(t, "complaints/"+itoa(id)+"/photo.jpg", att["file"])
	attPath := base + "/attachments/" + itoa(int(att["id"].(float64)))
	assert.Equal(t, attPath+"/file", att["file_url"])

	w = api.do(http.MethodGet, attPath+"/file", nil, ownerTok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg-bytes", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "photo.jpg")

	w = api.do(http.MethodDelete, attPath, nil, ownerTok)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodDelete, base, nil, ownerTok)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(http.MethodGet, base+"/attachments", nil, ownerTok)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_AttachmentFilesRequireAccess(t *testing.T) {
	api := newTestAPI(t)
	ownerTok := api.token(owner)

	w := api.do(http.MethodPost, "/api/v1/complaints", map[string]interface{}{"title": "Leak", "description": "kitchen"}, ownerTok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := itoa(int(decode(t, w)["id"].(float64)))

	w = api.upload("/api/v1/complaints/"+id+"/attachments", "secret.txt", []byte("top-secret"), ownerTok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	fileURL := decode(t, w)["file_url"].(string)

	w = api.do(http.MethodGet, fileURL, nil, ownerTok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "top-secret", w.Body.String())

	w = api.do(http.MethodGet, fileURL, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), "top-secret")

	w = api.do(http.MethodGet, fileURL, nil, api.token(other))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "top-secret")

	for _, tok := range []string{"", api.token(other)} {
		w = api.do(http.MethodGet, "/media/complaints/"+id+"/secret.txt", nil, tok)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NotContains(t, w.Body.String(), "top-secret")
	}
}

// countingReader считает байты, прочитанные из тела запроса.
type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

func TestRouter_UploadRejectedBeforeBodyIsRead(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/v1/complaints", map[string]interface{}{"title": "Leak", "description": "kitchen"}, api.token(owner))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	path := "/api/v1/complaints/" + itoa(int(decode(t, w)["id"].(float64))) + "/attachments"

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{name: "anonymous", token: "", want: http.StatusUnauthorized},
		{name: "stranger", token: api.token(other), want: http.StatusNotFound},
		{name: "missing complaint", token: api.token(owner), want: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, contentType := multipartFile(t, "big.bin", bytes.Repeat([]byte("x"), 4096))
			cr := &countingReader{r: body}
			target := path
			if tc.name == "missing complaint" {
				target = "/api/v1/complaints/9999/attachments"
			}
			w := api.send(httptest.NewRequest(http.MethodPost, target, cr), contentType, tc.token)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
			assert.Zero(t, cr.n)
		})
	}

	w = api.do(http.MethodGet, path, nil, api.token(owner))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["attachments"])
}

func multipartFile(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (a *testAPI) upload(path, filename string, content []byte, token string) *httptest.ResponseRecorder {
	a.t.Helper()
	body, contentType := multipartFile(a.t, filename, content)
	return a.send(httptest.NewRequest(http.MethodPost, path, body), contentType, token)
}

func (a *testAPI) send(req *http.Request, contentType, token string) *httptest.ResponseRecorder {
	req.Header.Set("Content-Type", contentType)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.h.ServeHTTP(w, req)
	return w
}

func itoa(n int) string { return strconv.Itoa(n) }
