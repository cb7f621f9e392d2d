package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"google.golang.org/grpc/codes"

	"github.com/nguyentranbao-ct/torrent-bot/internal/models"
)

var DefaultSkipper = func(c echo.Context) bool {
	return false
}

type Skipper func(c echo.Context) bool

// Logger is the subset of *zap.SugaredLogger the middlewares use.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

type Response struct {
	Status       int         `json:"-"`
	Success      bool        `json:"success"`
	Data         interface{} `json:"data,omitempty"`
	ErrorCode    string      `json:"error_code,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
}

type ResponseError struct {
	Status       int    `json:"-"`
	Err          error  `json:"-"`
	Success      bool   `json:"success"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("status: %d, code: %s; message: %+v", e.Status, e.ErrorCode, e.Err)
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

// NewResponseError maps a domain error onto an HTTP status.
func NewResponseError(err error) *ResponseError {
	var re *ResponseError
	if errors.As(err, &re) {
		return re
	}
	resp := &ResponseError{
		Status:       HTTPStatus(models.Code(err)),
		Err:          err,
		ErrorMessage: err.Error(),
	}
	if kind := models.KindOf(err); kind != "" {
		resp.ErrorCode = string(kind)
	}
	return resp
}

func HTTPStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.FailedPrecondition:
		return http.StatusConflict
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.ResourceExhausted:
		return http.StatusRequestEntityTooLarge
	case codes.Unavailable:
		return http.StatusBadGateway
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Canceled:
		return 499
	}
	return http.StatusInternalServerError
}
