package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRequest(e *echo.Echo, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func clearRegisteredMetrics(t *testing.T) {
	t.Helper()
	mustRegisterHTTPMetrics(DefaultMetricsConfig).Reset()
}

func TestMetricsMiddleware(t *testing.T) {
	clearRegisteredMetrics(t)
	e := echo.New()
	e.Use(Metrics())

	e.GET("/test", func(c echo.Context) error {
		return c.String(http.StatusOK, "test")
	})
	e.GET("/test_echo_error", func(c echo.Context) error {
		return c.String(http.StatusInternalServerError, "test")
	})
	errorHandler := func(c echo.Context) error {
		return fmt.Errorf("internal user error")
	}
	e.GET("/test_user_error_1", errorHandler)
	e.GET("/test_user_error_2", errorHandler)

	for i := 0; i < 10; i++ {
		makeRequest(e, "/test")
		makeRequest(e, "/test_echo_error")
		makeRequest(e, "/test_user_error_1")
		makeRequest(e, "/test_user_error_2")
		makeRequest(e, fmt.Sprintf("/missing/%d", i))
	}

	metrics := mustRegisterHTTPMetrics(DefaultMetricsConfig)
	// one series per (code, method, path)
	assert.Equal(t, 5, testutil.CollectAndCount(metrics))

	rec := makeRequest(e, DefaultMetricsConfig.MetricsPath)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `request_duration_seconds_count{code="200",method="GET",path="/test"} 10`))
	assert.True(t, strings.Contains(body, `request_duration_seconds_count{code="500",method="GET",path="/test_user_error_1"} 10`))
	assert.True(t, strings.Contains(body, `request_duration_seconds_count{code="404",method="GET",path="/not-found"} 10`))
}
