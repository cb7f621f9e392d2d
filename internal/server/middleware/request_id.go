package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const XRequestID = "x-request-id"

type requestIDKey struct{}

// GetRequestID returns the id set by RequestID, or "" outside a request.
func GetRequestID(c echo.Context) string {
	if id, ok := c.Get(XRequestID).(string); ok {
		return id
	}
	return RequestIDFromContext(c.Request().Context())
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID reuses the caller's x-request-id header or generates a uuid, and
// exposes it on the echo context, the request context and the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(XRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.SetRequest(req.WithContext(WithRequestID(req.Context(), id)))
			c.Set(XRequestID, id)
			c.Response().Header().Set(XRequestID, id)
			return next(c)
		}
	}
}
