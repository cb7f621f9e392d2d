package downloader

import (
	"context"
	"errors"
)

const (
	TypeQBittorrent  = "qbittorrent"
	TypeTransmission = "transmission"
)

var ErrUnknownDownloader = errors.New("unknown downloader")

// Downloader is a back-end able to start a transfer for a torrent id.
// AddTorrent reports false with a nil error when the back-end answered but
// refused the torrent.
type Downloader interface {
	Name() string
	AddTorrent(ctx context.Context, torrentID string) (bool, error)
}
