package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/torrent-bot/internal/config"
	"github.com/nguyentranbao-ct/torrent-bot/internal/models"
	"github.com/nguyentranbao-ct/torrent-bot/internal/repo/mongodb"
	pkgmdw "github.com/nguyentranbao-ct/torrent-bot/internal/server/middleware"
	"github.com/nguyentranbao-ct/torrent-bot/internal/usecase"
)

const defaultDispatchLimit = 20

type Controller interface {
	Health(c echo.Context) error
	HandleEvent(c echo.Context, event models.ChatEvent) (*models.Reply, error)
	AddTask(c echo.Context, req AddTaskRequest) (*AddTaskResponse, error)
	Search(c echo.Context, req SearchRequest) (*models.SearchResultPage, error)
	ListDispatches(c echo.Context, req ListDispatchesRequest) ([]*models.DispatchRecord, error)
}

type AddTaskRequest struct {
	TorrentID string `json:"torrent_id" validate:"required,torrentid"`
}

type AddTaskResponse struct {
	TorrentID string `json:"torrent_id"`
	Accepted  bool   `json:"accepted"`
}

type SearchRequest struct {
	Keyword string `query:"keyword" validate:"required"`
	// Page is 0-indexed.
	Page    int    `query:"page" validate:"gte=0"`
	Tracker string `query:"tracker"`
}

type ListDispatchesRequest struct {
	Limit int64 `query:"limit" validate:"omitempty,min=1,max=200"`
}

type controller struct {
	defaultTracker string
	conversation   usecase.ConversationUsecase
	search         usecase.SearchUsecase
	task           usecase.TaskUsecase
	dispatchLog    mongodb.DispatchLogRepository
}

func NewController(
	cfg *config.Config,
	conversation usecase.ConversationUsecase,
	search usecase.SearchUsecase,
	task usecase.TaskUsecase,
	dispatchLog mongodb.DispatchLogRepository,
) Controller {
	return &controller{
		defaultTracker: cfg.Bot.DefaultTracker,
		conversation:   conversation,
		search:         search,
		task:           task,
		dispatchLog:    dispatchLog,
	}
}

func (h *controller) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "torrent-bot",
	})
}

func (h *controller) HandleEvent(c echo.Context, event models.ChatEvent) (*models.Reply, error) {
	reply, err := h.conversation.HandleEvent(c.Request().Context(), event)
	if errors.Is(err, usecase.ErrChatNotAllowed) {
		return nil, &pkgmdw.ResponseError{
			Status:       http.StatusForbidden,
			Err:          err,
			ErrorMessage: err.Error(),
		}
	}
	return reply, err
}

func (h *controller) AddTask(c echo.Context, req AddTaskRequest) (*AddTaskResponse, error) {
	accepted, err := h.task.Execute(c.Request().Context(), req.TorrentID)
	if err != nil {
		return nil, err
	}
	return &AddTaskResponse{
		TorrentID: strings.TrimSpace(req.TorrentID),
		Accepted:  accepted,
	}, nil
}

func (h *controller) Search(c echo.Context, req SearchRequest) (*models.SearchResultPage, error) {
	trackerName := req.Tracker
	if trackerName == "" {
		trackerName = h.defaultTracker
	}
	return h.search.Search(c.Request().Context(), trackerName, req.Keyword, req.Page)
}

func (h *controller) ListDispatches(c echo.Context, req ListDispatchesRequest) ([]*models.DispatchRecord, error) {
	limit := req.Limit
	if limit == 0 {
		limit = defaultDispatchLimit
	}
	return h.dispatchLog.ListRecent(c.Request().Context(), limit)
}
