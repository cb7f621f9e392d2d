package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nguyentranbao-ct/torrent-bot/internal/config"
	"github.com/nguyentranbao-ct/torrent-bot/internal/models"
	"github.com/nguyentranbao-ct/torrent-bot/internal/usecase"
)

type fakeConversation struct {
	usecase.ConversationUsecase
	events []models.ChatEvent
	err    error
}

func (f *fakeConversation) HandleEvent(_ context.Context, event models.ChatEvent) (*models.Reply, error) {
	f.events = append(f.events, event)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Reply{ChatID: event.ChatID, Text: "ok", State: models.StateIdle}, nil
}

type fakeSearch struct {
	tracker string
	keyword string
	page    int
	err     error
}

func (f *fakeSearch) Search(_ context.Context, trackerName, keyword string, page int) (*models.SearchResultPage, error) {
	f.tracker, f.keyword, f.page = trackerName, keyword, page
	if f.err != nil {
		return nil, f.err
	}
	return &models.SearchResultPage{Keyword: keyword, CurrentPage: page, TotalPages: 1}, nil
}

type fakeTask struct {
	accepted bool
	ids      []string
}

func (f *fakeTask) Execute(_ context.Context, torrentID string) (bool, error) {
	f.ids = append(f.ids, torrentID)
	return f.accepted, nil
}

type fakeDispatchLog struct {
	limit int64
}

func (f *fakeDispatchLog) Append(context.Context, *models.DispatchRecord) error { return nil }
func (f *fakeDispatchLog) EnsureIndexes(context.Context) error                 { return nil }
func (f *fakeDispatchLog) ListRecent(_ context.Context, limit int64) ([]*models.DispatchRecord, error) {
	f.limit = limit
	return []*models.DispatchRecord{{TorrentID: "42", Succeeded: true}}, nil
}

type testServer struct {
	conversation *fakeConversation
	search       *fakeSearch
	task         *fakeTask
	dispatchLog  *fakeDispatchLog
	handler      http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{Bot: config.BotConfig{DefaultTracker: "mteam"}}
	s := &testServer{
		conversation: &fakeConversation{},
		search:       &fakeSearch{},
		task:         &fakeTask{accepted: true},
		dispatchLog:  &fakeDispatchLog{},
	}
	ctrl := NewController(cfg, s.conversation, s.search, s.task, s.dispatchLog)
	s.handler = NewEcho(zap.NewNop().Sugar(), ctrl)
	return s
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "torrent-bot")
}

func TestHandleEvent(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/events", `{"chat_id":7,"kind":"command","text":"/start"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success bool         `json:"success"`
		Data    models.Reply `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(7), resp.Data.ChatID)
	require.Len(t, s.conversation.events, 1)
	assert.Equal(t, "/start", s.conversation.events[0].Text)
	assert.NotEmpty(t, rec.Header().Get("x-request-id"))
}

func TestHandleEventValidation(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/v1/events", `{"chat_id":7,"kind":"photo"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, s.conversation.events)
}

func TestHandleEventErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not allowed", fmt.Errorf("%w: 7", usecase.ErrChatNotAllowed), http.StatusForbidden},
		{"invalid", models.NewError(models.KindInputInvalid, "chat id is required", nil), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t)
			s.conversation.err = tc.err
			rec := s.do(http.MethodPost, "/api/v1/events", `{"chat_id":7,"kind":"text","text":"hi"}`)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestAddTask(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/v1/tasks", `{"torrent_id":"12345"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"data":{"torrent_id":"12345","accepted":true}}`, rec.Body.String())
	assert.Equal(t, []string{"12345"}, s.task.ids)

	rec = s.do(http.MethodPost, "/api/v1/tasks", `{"torrent_id":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, s.task.ids, 1)
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/search?keyword=ubuntu&page=2", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "mteam", s.search.tracker)
	assert.Equal(t, "ubuntu", s.search.keyword)
	assert.Equal(t, 2, s.search.page)

	rec = s.do(http.MethodGet, "/api/v1/search?keyword=ubuntu&tracker=carpt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "carpt", s.search.tracker)

	rec = s.do(http.MethodGet, "/api/v1/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.search.err = models.NewError(models.KindTrackerUnavailable, "", context.DeadlineExceeded)
	rec = s.do(http.MethodGet, "/api/v1/search?keyword=ubuntu", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "TRACKER_UNAVAILABLE")
}

func TestListDispatches(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/dispatches", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(defaultDispatchLimit), s.dispatchLog.limit)
	assert.Contains(t, rec.Body.String(), `"torrent_id":"42"`)

	rec = s.do(http.MethodGet, "/api/v1/dispatches?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), s.dispatchLog.limit)

	rec = s.do(http.MethodGet, "/api/v1/dispatches?limit=1000", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
