package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorHandler renders every handler error as a ResponseError JSON body.
func ErrorHandler(log Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if err == nil || c.Response().Committed {
			return
		}

		var resp *ResponseError
		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			resp = &ResponseError{
				Status:       he.Code,
				Err:          err,
				ErrorMessage: fmt.Sprint(he.Message),
			}
		case errors.Is(err, context.Canceled) && c.Request().Context().Err() == context.Canceled:
			resp = &ResponseError{Status: 499, Err: err, ErrorMessage: "request canceled"}
		default:
			resp = NewResponseError(err)
		}

		if resp.Status == http.StatusNotFound && isNotFoundHandler(c.Handler()) {
			resp.ErrorMessage = "no route matched"
		}

		if err := c.JSON(resp.Status, resp); err != nil {
			log.Errorw("could not response", "code", resp.Status, "response_body", resp)
		}
	}
}
