package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()

	handler := func(c echo.Context) error {
		reqID, ok := c.Get(XRequestID).(string)
		if !ok {
			return echo.NewHTTPError(http.StatusInternalServerError, "request ID not found in context")
		}
		assert.Equal(t, reqID, RequestIDFromContext(c.Request().Context()))
		assert.Equal(t, reqID, GetRequestID(c))
		return c.String(http.StatusOK, reqID)
	}

	t.Run("reuses caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(XRequestID, "custom-request-id")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, RequestID()(handler)(c))
		assert.Equal(t, "custom-request-id", c.Get(XRequestID))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "custom-request-id", rec.Body.String())
		assert.Equal(t, "custom-request-id", rec.Header().Get(XRequestID))
	})

	t.Run("generates id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, RequestID()(handler)(c))
		id := rec.Header().Get(XRequestID)
		assert.Len(t, id, 36)
		assert.Equal(t, id, rec.Body.String())
	})
}

func TestGetRequestIDOutsideRequest(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Empty(t, GetRequestID(c))
}
