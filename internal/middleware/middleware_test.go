package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psds-microservice/complaint-service/internal/identity"
)

type stubTokens map[string]identity.Actor

func (s stubTokens) Parse(raw string) (identity.Actor, error) {
	a, ok := s[raw]
	if !ok {
		return identity.Actor{}, errors.New("bad token")
	}
	return a, nil
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/whoami/:id", func(c *gin.Context) {
		c.String(http.StatusOK, ActorFrom(c).Handle())
	})
	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami/1", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	r := newRouter(Authenticate(stubTokens{
		"good": {ID: "u-1", Username: "olga", Authenticated: true},
	}))

	w := do(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())

	w = do(r, "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "olga", w.Body.String())

	for _, h := range []string{"Bearer nope", "Basic abc", "Bearer ", "good"} {
		w = do(r, h)
		assert.Equal(t, http.StatusUnauthorized, w.Code, h)
		assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`, h)
	}
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	r := newRouter(RequestID(), Logger(log))

	w := do(r, "")
	require.Equal(t, http.StatusOK, w.Code)
	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Contains(t, buf.String(), "request_id="+id)
	assert.Contains(t, buf.String(), "status=200")

	req := httptest.NewRequest(http.MethodGet, "/whoami/1", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	r := newRouter(Metrics())
	before := requestCount(t, "/whoami/:id")

	do(r, "")
	do(r, "")

	assert.Equal(t, before+2, requestCount(t, "/whoami/:id"))
}

func requestCount(t *testing.T, path string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, httpRequestsTotal.WithLabelValues(http.MethodGet, path, "200").Write(&m))
	return m.GetCounter().GetValue()
}
