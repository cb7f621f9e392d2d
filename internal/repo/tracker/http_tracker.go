package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tidwall/gjson"

	"github.com/nguyentranbao-ct/torrent-bot/internal/config"
	"github.com/nguyentranbao-ct/torrent-bot/internal/models"
	"github.com/nguyentranbao-ct/torrent-bot/pkg/util"
)

const (
	searchPath      = "/api/torrent/search"
	downloadURLPath = "/api/torrent/genDlToken"
	searchMode      = "normal"
	successMessage  = "SUCCESS"
)

type searchRequest struct {
	Mode       string `json:"mode"`
	Keyword    string `json:"keyword"`
	PageNumber int    `json:"pageNumber"`
	PageSize   int    `json:"pageSize"`
}

type httpTracker struct {
	name    string
	baseURL string
	apiKey  string
	client  *resty.Client
	metrics *prometheus.HistogramVec
}

// NewHTTPTracker builds a tracker speaking the M-Team style JSON API.
func NewHTTPTracker(name string, cfg config.TrackerConfig, client *resty.Client) (Tracker, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("tracker %s: base url is required", name)
	}
	metrics, err := util.GetHistogramVec("tracker_requests", "tracker", "operation", "status")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}
	return &httpTracker{
		name:    strings.ToLower(name),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
		metrics: metrics,
	}, nil
}

func (t *httpTracker) Name() string {
	return t.name
}

func (t *httpTracker) Search(ctx context.Context, query SearchQuery) (*RawSearchResult, error) {
	start := time.Now()
	envelope, err := t.post(t.request(ctx).SetBody(searchRequest{
		Mode:       searchMode,
		Keyword:    query.Keyword,
		PageNumber: query.PageNumber,
		PageSize:   query.PageSize,
	}), searchPath)
	t.observe("search", start, err)
	if err != nil {
		return nil, err
	}
	return &RawSearchResult{Data: envelope.Get("data")}, nil
}

func (t *httpTracker) DownloadURL(ctx context.Context, torrentID string) (string, error) {
	start := time.Now()
	envelope, err := t.post(t.request(ctx).SetFormData(map[string]string{"id": torrentID}), downloadURLPath)
	t.observe("download_url", start, err)
	if err != nil {
		return "", err
	}
	link := envelope.Get("data").String()
	if link == "" {
		return "", models.NewError(models.KindTrackerUnavailable, t.name+": empty download url", nil)
	}
	return link, nil
}

func (t *httpTracker) request(ctx context.Context) *resty.Request {
	req := t.client.R().SetContext(ctx)
	if t.apiKey != "" {
		req.SetHeader("x-api-key", t.apiKey)
	}
	return req
}

// post sends req and validates the {message, data} envelope.
func (t *httpTracker) post(req *resty.Request, path string) (gjson.Result, error) {
	resp, err := req.Post(t.baseURL + path)
	if err != nil {
		return gjson.Result{}, models.NewError(models.KindTrackerUnavailable, t.name+": request failed", err)
	}
	if resp.IsError() {
		return gjson.Result{}, models.NewError(models.KindTrackerUnavailable,
			fmt.Sprintf("%s: unexpected status %d", t.name, resp.StatusCode()), nil)
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, models.NewError(models.KindTrackerUnavailable, t.name+": malformed response envelope", nil)
	}
	envelope := gjson.ParseBytes(body)
	message := envelope.Get("message").String()
	if !strings.EqualFold(message, successMessage) || !envelope.Get("data").Exists() {
		if message == "" {
			message = "unknown error"
		}
		return gjson.Result{}, models.NewError(models.KindTrackerUnavailable,
			fmt.Sprintf("%s: tracker replied %q", t.name, message), nil)
	}
	return envelope, nil
}

func (t *httpTracker) observe(operation string, start time.Time, err error) {
	t.metrics.
		WithLabelValues(t.name, operation, models.Code(err).String()).
		Observe(time.Since(start).Seconds())
}
