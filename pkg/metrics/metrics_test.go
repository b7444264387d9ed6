package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestStatusBucket(t *testing.T) {
	require.Equal(t, "2xx", statusBucket(http.StatusOK))
	require.Equal(t, "3xx", statusBucket(http.StatusFound))
	require.Equal(t, "4xx", statusBucket(http.StatusTooManyRequests))
	require.Equal(t, "5xx", statusBucket(http.StatusBadGateway))
}

func TestMiddlewareCountsRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	router.GET("/ping/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/metrics", Handler())

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/ping/:id", "2xx"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping/42", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/ping/:id", "2xx"))
	require.Equal(t, before+1, after)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "suncare_http_requests_total"))
}
