package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/nguyentranbao-ct/torrent-bot/internal/config"
	"github.com/nguyentranbao-ct/torrent-bot/internal/models"
	"github.com/nguyentranbao-ct/torrent-bot/internal/repo/tracker"
	"github.com/nguyentranbao-ct/torrent-bot/pkg/util"
)

const (
	subtitleLimit = 72
	unknownTitle  = "Unknown title"
)

type SearchUsecase interface {
	// Search fetches one page of results. page is 0-indexed.
	Search(ctx context.Context, trackerName, keyword string, page int) (*models.SearchResultPage, error)
}

type searchUsecase struct {
	trackers *tracker.Registry
	pageSize int
	timeout  time.Duration
	metrics  *prometheus.HistogramVec
	log      *zap.SugaredLogger
}

func NewSearchUsecase(cfg *config.Config, trackers *tracker.Registry, log *zap.SugaredLogger) (SearchUsecase, error) {
	metrics, err := util.GetHistogramVec("search_usecase", "tracker", "status")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}
	return &searchUsecase{
		trackers: trackers,
		pageSize: cfg.Bot.PageSize,
		timeout:  cfg.Bot.NetworkTimeout,
		metrics:  metrics,
		log:      log.Named("usecase.search"),
	}, nil
}

func (uc *searchUsecase) Search(ctx context.Context, trackerName, keyword string, page int) (result *models.SearchResultPage, err error) {
	start := time.Now()
	defer func() {
		uc.metrics.WithLabelValues(trackerName, models.Code(err).String()).Observe(time.Since(start).Seconds())
	}()

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, models.NewError(models.KindInputInvalid, "keyword is required", nil)
	}
	if page < 0 {
		return nil, models.NewError(models.KindInputInvalid, fmt.Sprintf("page must be non-negative, got %d", page), nil)
	}

	t, err := uc.trackers.Get(trackerName)
	if err != nil {
		return nil, models.NewError(models.KindTrackerUnavailable, "lookup tracker", err)
	}

	ctx, cancel := util.NewTimeoutContext(ctx, uc.timeout)
	defer cancel()

	raw, err := t.Search(ctx, tracker.SearchQuery{
		Keyword:    keyword,
		PageNumber: page + 1,
		PageSize:   uc.pageSize,
	})
	if err != nil {
		if models.KindOf(err) != models.KindTrackerUnavailable {
			err = models.NewError(models.KindTrackerUnavailable, t.Name()+": search failed", err)
		}
		return nil, err
	}
	return uc.normalize(keyword, page, raw.Data), nil
}

func (uc *searchUsecase) normalize(keyword string, page int, data gjson.Result) *models.SearchResultPage {
	result := &models.SearchResultPage{
		Keyword:     keyword,
		Items:       []models.SearchResultItem{},
		CurrentPage: page + 1,
	}
	if !data.IsObject() {
		uc.log.Warnw("search data is not an object", "keyword", keyword, "data", data.Raw)
		return result
	}

	list := data.Get("data")
	if list.Exists() && !list.IsArray() {
		uc.log.Warnw("search result list is not an array", "keyword", keyword, "data", list.Raw)
	}
	if list.IsArray() {
		list.ForEach(func(_, entry gjson.Result) bool {
			item, ok := uc.toItem(entry)
			if !ok {
				return true
			}
			result.Items = append(result.Items, item)
			return len(result.Items) < uc.pageSize
		})
	}

	result.TotalResults = uc.toInt(data.Get("total"), "total", 0)
	result.TotalPages = uc.toInt(data.Get("totalPages"), "totalPages", 0)
	result.CurrentPage = uc.toInt(data.Get("pageNumber"), "pageNumber", page+1)
	return result
}

func (uc *searchUsecase) toItem(entry gjson.Result) (models.SearchResultItem, bool) {
	if !entry.IsObject() {
		uc.log.Warnw("skipping malformed search entry", "entry", entry.Raw)
		return models.SearchResultItem{}, false
	}
	id := strings.TrimSpace(entry.Get("id").String())
	if id == "" {
		uc.log.Warnw("skipping search entry without id", "entry", entry.Raw)
		return models.SearchResultItem{}, false
	}

	short := strings.TrimSpace(entry.Get("smallDescr").String())
	name := strings.TrimSpace(entry.Get("name").String())
	title, subtitle := short, ""
	switch {
	case short == "" && name != "":
		title = name
	case short == "":
		title = unknownTitle
	case name != "" && name != short:
		subtitle = models.Truncate(name, subtitleLimit)
	}

	size, err := cast.ToInt64E(entry.Get("size").Value())
	if err != nil || size < 0 {
		uc.log.Warnw("invalid torrent size", "id", id, "size", entry.Get("size").Raw)
		size = 0
	}

	return models.SearchResultItem{
		ID:            id,
		Title:         title,
		Subtitle:      subtitle,
		SizeBytes:     size,
		CategoryLabel: tracker.CategoryLabel(entry.Get("category").String()),
		DiscountLabel: tracker.DiscountLabel(entry.Get("status.discount").String()),
	}, true
}

// toInt parses a lenient numeric field, falling back to def when it is
// absent or unparsable.
func (uc *searchUsecase) toInt(field gjson.Result, name string, def int) int {
	if !field.Exists() || field.Type == gjson.Null {
		return def
	}
	v, err := cast.ToIntE(field.Value())
	if err != nil || v < 0 {
		uc.log.Warnw("unparsable page field, using default", "field", name, "value", field.Raw, "default", def)
		return def
	}
	return v
}
