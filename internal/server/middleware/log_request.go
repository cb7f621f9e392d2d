package middleware

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

type (
	// LogRequestConfig store middleware configuration
	LogRequestConfig struct {
		Logger       Logger
		Enabled      func(c echo.Context) bool
		RequestBody  func(c echo.Context) bool
		ResponseBody func(c echo.Context) bool
		KeyAndValues func(c echo.Context) []interface{}
	}
	bodyDumpWriter struct {
		io.Writer
		http.ResponseWriter
	}
)

// LogRequest writes one access log line per request; the level follows the
// response status.
func LogRequest(config LogRequestConfig) echo.MiddlewareFunc {
	always := func(c echo.Context) bool {
		return true
	}
	if config.Logger == nil {
		panic("Logger is required to use LogRequest")
	}
	if config.Enabled == nil {
		config.Enabled = always
	}
	if config.RequestBody == nil {
		config.RequestBody = always
	}
	if config.ResponseBody == nil {
		config.ResponseBody = always
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !config.Enabled(c) {
				return next(c)
			}

			start := time.Now()
			req := c.Request()
			res := c.Response()

			logReqBody := config.RequestBody(c)
			logResBody := config.ResponseBody(c)

			var reqBody json.RawMessage
			if logReqBody && strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
				reqBody, _ = io.ReadAll(req.Body)
				if len(reqBody) == 0 {
					reqBody = nil
				}
				req.Body = io.NopCloser(bytes.NewBuffer(reqBody))
			}
			var resBuf bytes.Buffer
			if logResBody {
				res.Writer = &bodyDumpWriter{
					Writer:         io.MultiWriter(res.Writer, &resBuf),
					ResponseWriter: res.Writer,
				}
			}

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			args := make([]interface{}, 0, 24)
			args = append(args,
				"status", res.Status,
				"method", req.Method,
				"uri", req.RequestURI,
				"latency_ms", time.Since(start).Milliseconds(),
				"real_ip", c.RealIP(),
				"request_id", GetRequestID(c),
			)
			if config.KeyAndValues != nil {
				args = append(args, config.KeyAndValues(c)...)
			}
			if logReqBody && reqBody != nil {
				args = append(args, "request_body", reqBody)
			}
			if logResBody && strings.HasPrefix(res.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
				args = append(args, "response_body", json.RawMessage(resBuf.Bytes()))
			}

			switch {
			case res.Status >= 500:
				if err != nil {
					args = append(args, "error", err.Error())
				}
				config.Logger.Errorw("http request", args...)
			case res.Status >= 400:
				config.Logger.Warnw("http request", args...)
			default:
				config.Logger.Infow("http request", args...)
			}

			return err
		}
	}
}

func (w *bodyDumpWriter) WriteHeader(code int) {
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyDumpWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func (w *bodyDumpWriter) Flush() {
	w.ResponseWriter.(http.Flusher).Flush()
}

func (w *bodyDumpWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.(http.Hijacker).Hijack()
}
