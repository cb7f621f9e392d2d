package middleware

import (
	"errors"
	"reflect"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsConfig struct {
	Skipper     Skipper
	Buckets     []float64
	MetricsPath string
}

const (
	httpRequestsDuration = "request_duration_seconds"
	notFoundPath         = "/not-found"
)

var DefaultMetricsConfig = MetricsConfig{
	Skipper: DefaultSkipper,
	Buckets: []float64{
		0.001, // 1ms
		0.005,
		0.01, // 10ms
		0.05,
		0.1, // 100 ms
		0.5,
		1.0, // 1s
		2.0,
		5.0,
		10.0, // 10s
		20.0,
		30.0,
	},
	MetricsPath: "/metrics",
}

func isNotFoundHandler(handler echo.HandlerFunc) bool {
	return reflect.ValueOf(handler).Pointer() == reflect.ValueOf(echo.NotFoundHandler).Pointer()
}

// Metrics records request latency by status, method and route, and serves
// the prometheus registry on the metrics path.
func Metrics() echo.MiddlewareFunc {
	return MetricsWithConfig(DefaultMetricsConfig)
}

func MetricsWithConfig(config MetricsConfig) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = DefaultSkipper
	}
	httpMetrics := mustRegisterHTTPMetrics(config)

	var promHandler echo.HandlerFunc
	if config.MetricsPath != "" {
		promHandler = echo.WrapHandler(promhttp.Handler())
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if promHandler != nil && req.URL.Path == config.MetricsPath {
				return promHandler(c)
			}
			if config.Skipper(c) {
				return next(c)
			}

			// keep 404 cardinality bounded
			path := c.Path()
			if isNotFoundHandler(c.Handler()) {
				path = notFoundPath
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := strconv.Itoa(c.Response().Status)
			httpMetrics.WithLabelValues(status, req.Method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func mustRegisterHTTPMetrics(config MetricsConfig) *prometheus.HistogramVec {
	httpMetrics := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    httpRequestsDuration,
		Help:    "Spend time by processing a route",
		Buckets: config.Buckets,
	}, []string{"code", "method", "path"})

	if err := prometheus.Register(httpMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector.(*prometheus.HistogramVec)
		}
		panic(err)
	}
	return httpMetrics
}
