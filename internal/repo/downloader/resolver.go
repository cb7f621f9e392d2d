package downloader

import (
	"context"
	"fmt"
	"strings"

	"github.com/nguyentranbao-ct/torrent-bot/internal/models"
	"github.com/nguyentranbao-ct/torrent-bot/internal/repo/tracker"
)

const magnetPrefix = "magnet:?xt=urn:btih:"

// LinkResolver turns a torrent id into something a downloader can fetch.
type LinkResolver interface {
	Resolve(ctx context.Context, torrentID string) (string, error)
}

type linkResolver struct {
	trackers    *tracker.Registry
	trackerName string
}

// NewLinkResolver resolves info hashes to magnet links and asks trackerName
// for a download link otherwise.
func NewLinkResolver(trackers *tracker.Registry, trackerName string) LinkResolver {
	return &linkResolver{
		trackers:    trackers,
		trackerName: trackerName,
	}
}

func (r *linkResolver) Resolve(ctx context.Context, torrentID string) (string, error) {
	id := strings.TrimSpace(torrentID)
	switch {
	case id == "":
		return "", models.NewError(models.KindInputInvalid, "torrent id is required", nil)
	case strings.HasPrefix(id, "magnet:"), strings.HasPrefix(id, "http://"), strings.HasPrefix(id, "https://"):
		return id, nil
	case models.IsValidTorrentHash(id):
		return magnetPrefix + id, nil
	}

	t, err := r.trackers.Get(r.trackerName)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", id, err)
	}
	link, err := t.DownloadURL(ctx, id)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", id, err)
	}
	return link, nil
}
