package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/nguyentranbao-ct/torrent-bot/internal/config"
	pkgmdw "github.com/nguyentranbao-ct/torrent-bot/internal/server/middleware"
)

// NewEcho builds the HTTP surface with every route registered.
func NewEcho(log *zap.SugaredLogger, handler Controller) *echo.Echo {
	log = log.Named("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = pkgmdw.NewValidator()
	e.HTTPErrorHandler = pkgmdw.ErrorHandler(log)

	logConfig := pkgmdw.LogRequestConfig{
		Logger: log,
		Enabled: func(c echo.Context) bool {
			uri := c.Request().RequestURI
			return uri != "/health" && uri != "/metrics"
		},
		KeyAndValues: func(c echo.Context) []any {
			if chatID := c.Get(chatIDKey); chatID != nil {
				return []any{"chat_id", chatID}
			}
			return nil
		},
	}

	e.Use(pkgmdw.Metrics())
	e.Use(pkgmdw.RequestID())
	e.Use(pkgmdw.LogRequest(logConfig))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Errorw("PANIC RECOVER", "error", err, "stack", string(stack),
				"request_id", pkgmdw.GetRequestID(c))
			return err
		},
	}))

	e.GET("/health", handler.Health)

	api := e.Group("/api/v1")
	api.POST("/events", pkgmdw.WrapHandler(withChatID(handler.HandleEvent)))
	api.POST("/tasks", pkgmdw.WrapHandler(handler.AddTask))
	api.GET("/search", pkgmdw.WrapHandler(handler.Search))
	api.GET("/dispatches", pkgmdw.WrapHandler(handler.ListDispatches))

	return e
}

func StartServer(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	conf *config.Config,
	log *zap.SugaredLogger,
	e *echo.Echo,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Infow("starting HTTP server", "addr", conf.Server.Addr)
				if err := e.Start(conf.Server.Addr); !errors.Is(err, http.ErrServerClosed) {
					log.Errorw("HTTP server stopped", "error", err)
					_ = sd.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}
