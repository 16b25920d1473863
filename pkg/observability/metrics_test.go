package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	pkgerrors "degrees/pkg/errors"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_ObserveSearch(t *testing.T) {
	c := NewCollector()

	c.ObserveSearch("discover", 10*time.Millisecond, 3, 40, nil)
	c.ObserveSearch("discover", 5*time.Millisecond, 2, 12, nil)
	c.ObserveSearch("path", time.Millisecond, 0, 2000, nil)

	assert.Equal(t, 5.0, testutil.ToFloat64(c.journeysFound.WithLabelValues("discover")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.searchLatency))
	assert.Equal(t, 2, testutil.CollectAndCount(c.searchIters))
}

func TestStoreStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{pkgerrors.NewNotFoundError("node"), "rejected"},
		{pkgerrors.NewConflictError("dup"), "rejected"},
		{pkgerrors.NewUnavailableError("sqlite", nil), "unavailable"},
		{errors.New("disk full"), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, storeStatus(tt.err))
	}
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.ObserveRequest(http.MethodGet, "/api/v2/paths", http.StatusOK, time.Millisecond)
	c.RateLimited()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(body, `degrees_http_requests_total{code="200",method="GET",route="/api/v2/paths"} 1`), body)
	assert.Contains(t, body, "degrees_http_rate_limited_total 1")
}
