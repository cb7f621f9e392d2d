package downloader

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/nguyentranbao-ct/torrent-bot/internal/config"
	"github.com/nguyentranbao-ct/torrent-bot/internal/models"
)

const (
	transmissionSessionHeader = "X-Transmission-Session-Id"
	transmissionSuccess       = "success"
)

type transmissionRequest struct {
	Method    string         `json:"method"`
	Arguments map[string]any `json:"arguments"`
}

type transmission struct {
	cfg      config.TransmissionConfig
	client   *resty.Client
	resolver LinkResolver

	mu        sync.RWMutex
	sessionID string
}

// NewTransmission talks to the Transmission RPC endpoint.
func NewTransmission(cfg config.TransmissionConfig, client *resty.Client, resolver LinkResolver) (Downloader, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("transmission: url is required")
	}
	if cfg.Username != "" {
		client.SetBasicAuth(cfg.Username, cfg.Password)
	}
	return &transmission{
		cfg:      cfg,
		client:   client,
		resolver: resolver,
	}, nil
}

func (t *transmission) Name() string {
	return TypeTransmission
}

func (t *transmission) AddTorrent(ctx context.Context, torrentID string) (bool, error) {
	link, err := t.resolver.Resolve(ctx, torrentID)
	if err != nil {
		return false, err
	}
	args := map[string]any{"filename": link}
	if t.cfg.DownloadDir != "" {
		args["download-dir"] = t.cfg.DownloadDir
	}
	body := transmissionRequest{Method: "torrent-add", Arguments: args}

	resp, err := t.call(ctx, body)
	if err != nil {
		return false, err
	}
	// The first call of a session is answered with 409 and the id to use.
	if resp.StatusCode() == http.StatusConflict {
		t.setSessionID(resp.Header().Get(transmissionSessionHeader))
		if resp, err = t.call(ctx, body); err != nil {
			return false, err
		}
	}
	if resp.IsError() {
		return false, models.NewError(models.KindDownloaderFailure,
			fmt.Sprintf("transmission: rpc returned status %d", resp.StatusCode()), nil)
	}

	result := gjson.GetBytes(resp.Body(), "result").String()
	if result != transmissionSuccess {
		return false, models.NewError(models.KindDownloaderFailure, fmt.Sprintf("transmission: %q", result), nil)
	}
	return true, nil
}

func (t *transmission) call(ctx context.Context, body transmissionRequest) (*resty.Response, error) {
	req := t.client.R().SetContext(ctx).SetBody(body)
	if id := t.getSessionID(); id != "" {
		req.SetHeader(transmissionSessionHeader, id)
	}
	resp, err := req.Post(t.cfg.URL)
	if err != nil {
		return nil, models.NewError(models.KindDownloaderFailure, "transmission: rpc request failed", err)
	}
	return resp, nil
}

func (t *transmission) getSessionID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sessionID
}

func (t *transmission) setSessionID(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionID = id
}
