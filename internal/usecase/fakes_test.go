package usecase

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/nguyentranbao-ct/torrent-bot/internal/config"
	"github.com/nguyentranbao-ct/torrent-bot/internal/models"
	"github.com/nguyentranbao-ct/torrent-bot/internal/repo/downloader"
	"github.com/nguyentranbao-ct/torrent-bot/internal/repo/tracker"
)

func testConfig() *config.Config {
	return &config.Config{
		Bot: config.BotConfig{
			PageSize:         5,
			MaxMessageLength: 4096,
			NetworkTimeout:   time.Second,
			DefaultTracker:   tracker.NameMTeam,
		},
	}
}

// fakeTracker serves total generated results, sliced by the requested page.
type fakeTracker struct {
	total int
	raw   string
	err   error
	// started is signalled when a search begins; release unblocks it.
	started chan struct{}
	release chan struct{}
	// hold blocks searches for the given 1-indexed page numbers until the
	// channel is closed; held receives the page number on entry.
	hold map[int]chan struct{}
	held chan int

	mu    sync.Mutex
	calls []tracker.SearchQuery
}

func (f *fakeTracker) Name() string { return tracker.NameMTeam }

func (f *fakeTracker) Search(ctx context.Context, q tracker.SearchQuery) (*tracker.RawSearchResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	f.mu.Unlock()

	if ch, ok := f.hold[q.PageNumber]; ok {
		if f.held != nil {
			f.held <- q.PageNumber
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, models.NewError(models.KindTrackerUnavailable, "timeout", ctx.Err())
		}
	}
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, models.NewError(models.KindTrackerUnavailable, "timeout", ctx.Err())
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.raw != "" {
		return &tracker.RawSearchResult{Data: gjson.Parse(f.raw)}, nil
	}

	start := (q.PageNumber - 1) * q.PageSize
	end := min(start+q.PageSize, f.total)
	items := []map[string]any{}
	for i := start; i < end; i++ {
		items = append(items, map[string]any{
			"id":         strconv.Itoa(i + 1),
			"name":       fmt.Sprintf("Ubuntu.%d.Desktop.amd64.iso", i+1),
			"smallDescr": fmt.Sprintf("Ubuntu %d", i+1),
			"size":       "1073741824",
			"category":   "422",
			"status":     map[string]any{"discount": "FREE"},
		})
	}
	totalPages := (f.total + q.PageSize - 1) / q.PageSize
	body, err := json.Marshal(map[string]any{
		"data":       items,
		"total":      strconv.Itoa(f.total),
		"pageNumber": strconv.Itoa(q.PageNumber),
		"totalPages": strconv.Itoa(totalPages),
		"pageSize":   strconv.Itoa(q.PageSize),
	})
	if err != nil {
		return nil, err
	}
	return &tracker.RawSearchResult{Data: gjson.ParseBytes(body)}, nil
}

func (f *fakeTracker) DownloadURL(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeTracker) searchCalls() []tracker.SearchQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tracker.SearchQuery(nil), f.calls...)
}

func newTrackerRegistry(trackers ...tracker.Tracker) *tracker.Registry {
	r := tracker.NewRegistry()
	for _, t := range trackers {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

type fakeDownloader struct {
	name   string
	ok     bool
	err    error
	panics bool

	mu    sync.Mutex
	added []string
}

func (f *fakeDownloader) Name() string { return f.name }

func (f *fakeDownloader) AddTorrent(_ context.Context, torrentID string) (bool, error) {
	f.mu.Lock()
	f.added = append(f.added, torrentID)
	f.mu.Unlock()
	if f.panics {
		panic("downloader exploded")
	}
	return f.ok, f.err
}

func (f *fakeDownloader) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.added...)
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeNotifier) Notify(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return f.err
}

func (f *fakeNotifier) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

type fakeDispatchLog struct {
	mu      sync.Mutex
	records []*models.DispatchRecord
	err     error
}

func (f *fakeDispatchLog) Append(_ context.Context, record *models.DispatchRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return f.err
}

func (f *fakeDispatchLog) ListRecent(context.Context, int64) ([]*models.DispatchRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records, nil
}

func (f *fakeDispatchLog) EnsureIndexes(context.Context) error { return nil }

// stubTask is a TaskUsecase with a fixed answer.
type stubTask struct {
	ok  bool
	err error

	mu  sync.Mutex
	ids []string
}

func (s *stubTask) Execute(_ context.Context, torrentID string) (bool, error) {
	s.mu.Lock()
	s.ids = append(s.ids, torrentID)
	s.mu.Unlock()
	return s.ok, s.err
}

func (s *stubTask) executed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}

func newTestTaskUsecase(pool *downloader.Pool, n *fakeNotifier, dl *fakeDispatchLog, log *zap.SugaredLogger) TaskUsecase {
	uc, err := NewTaskUsecase(testConfig(), pool, n, dl, log)
	if err != nil {
		panic(err)
	}
	return uc
}
