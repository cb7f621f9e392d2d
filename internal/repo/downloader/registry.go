package downloader

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nguyentranbao-ct/torrent-bot/internal/config"
	"github.com/nguyentranbao-ct/torrent-bot/pkg/util"
)

// Deps carries what a factory may need to build a downloader.
type Deps struct {
	Config   *config.Config
	Resolver LinkResolver
	Timeout  time.Duration
}

type Factory func(deps Deps) (Downloader, error)

var factories = map[string]Factory{
	TypeQBittorrent: func(deps Deps) (Downloader, error) {
		return NewQBittorrent(deps.Config.QBittorrent, util.NewRestyClient(deps.Timeout), deps.Resolver)
	},
	TypeTransmission: func(deps Deps) (Downloader, error) {
		return NewTransmission(deps.Config.Transmission, util.NewRestyClient(deps.Timeout), deps.Resolver)
	},
}

// New builds the downloader registered under typeName.
func New(typeName string, deps Deps) (Downloader, error) {
	factory, ok := factories[strings.ToLower(strings.TrimSpace(typeName))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDownloader, typeName)
	}
	return factory(deps)
}

// Types lists the known downloader type names.
func Types() []string {
	types := make([]string, 0, len(factories))
	for name := range factories {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}
