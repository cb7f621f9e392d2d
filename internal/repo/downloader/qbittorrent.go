package downloader

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"

	"github.com/nguyentranbao-ct/torrent-bot/internal/config"
	"github.com/nguyentranbao-ct/torrent-bot/internal/models"
)

const (
	qbLoginPath = "/api/v2/auth/login"
	qbAddPath   = "/api/v2/torrents/add"
	qbOK        = "Ok."
)

type qbittorrent struct {
	cfg      config.QBittorrentConfig
	baseURL  string
	client   *resty.Client
	resolver LinkResolver

	mu       sync.Mutex
	loggedIn bool
}

// NewQBittorrent talks to the qBittorrent WebUI API v2. The session cookie
// lives in client's cookie jar.
func NewQBittorrent(cfg config.QBittorrentConfig, client *resty.Client, resolver LinkResolver) (Downloader, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qbittorrent: url is required")
	}
	baseURL := strings.TrimRight(cfg.URL, "/")
	return &qbittorrent{
		cfg:      cfg,
		baseURL:  baseURL,
		client:   client.SetHeader("Referer", baseURL),
		resolver: resolver,
	}, nil
}

func (q *qbittorrent) Name() string {
	return TypeQBittorrent
}

func (q *qbittorrent) AddTorrent(ctx context.Context, torrentID string) (bool, error) {
	link, err := q.resolver.Resolve(ctx, torrentID)
	if err != nil {
		return false, err
	}
	if err := q.ensureLogin(ctx, false); err != nil {
		return false, err
	}

	resp, err := q.add(ctx, link)
	if err != nil {
		return false, err
	}
	if resp.StatusCode() == http.StatusForbidden {
		if err := q.ensureLogin(ctx, true); err != nil {
			return false, err
		}
		if resp, err = q.add(ctx, link); err != nil {
			return false, err
		}
	}
	if resp.IsError() {
		return false, models.NewError(models.KindDownloaderFailure,
			fmt.Sprintf("qbittorrent: add returned status %d", resp.StatusCode()), nil)
	}
	return strings.TrimSpace(resp.String()) == qbOK, nil
}

func (q *qbittorrent) add(ctx context.Context, link string) (*resty.Response, error) {
	form := map[string]string{"urls": link}
	if q.cfg.Category != "" {
		form["category"] = q.cfg.Category
	}
	if q.cfg.SavePath != "" {
		form["savepath"] = q.cfg.SavePath
	}
	resp, err := q.client.R().
		SetContext(ctx).
		SetMultipartFormData(form).
		Post(q.baseURL + qbAddPath)
	if err != nil {
		return nil, models.NewError(models.KindDownloaderFailure, "qbittorrent: add request failed", err)
	}
	return resp, nil
}

func (q *qbittorrent) ensureLogin(ctx context.Context, force bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.loggedIn && !force {
		return nil
	}
	q.loggedIn = false

	resp, err := q.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"username": q.cfg.Username,
			"password": q.cfg.Password,
		}).
		Post(q.baseURL + qbLoginPath)
	if err != nil {
		return models.NewError(models.KindDownloaderFailure, "qbittorrent: login request failed", err)
	}
	if resp.IsError() || strings.TrimSpace(resp.String()) != qbOK {
		return models.NewError(models.KindDownloaderFailure,
			fmt.Sprintf("qbittorrent: login rejected (status %d)", resp.StatusCode()), nil)
	}
	q.loggedIn = true
	return nil
}
