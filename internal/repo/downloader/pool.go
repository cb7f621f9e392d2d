package downloader

import (
	"strings"

	"go.uber.org/zap"

	"github.com/nguyentranbao-ct/torrent-bot/pkg/util"
)

// Pool is the ordered set of downloaders a dispatch fans out to. It is
// read-only after construction.
type Pool struct {
	downloaders []Downloader
}

// NewPool resolves a comma separated list of type names. Entries that fail
// to resolve are logged and skipped; the pool may end up empty.
func NewPool(names string, deps Deps, log *zap.SugaredLogger) *Pool {
	log = log.Named("downloader")
	pool := &Pool{}
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		d, err := New(name, deps)
		if err != nil {
			log.Errorw("failed to load downloader", "downloader", name, "error", err)
			continue
		}
		pool.downloaders = append(pool.downloaders, d)
	}
	if pool.Len() == 0 {
		log.Warnw("no downloader loaded, check DOWNLOADERS", "configured", names)
	} else {
		log.Infow("downloaders loaded", "count", pool.Len(), "downloaders", pool.Names())
	}
	return pool
}

func NewPoolOf(downloaders ...Downloader) *Pool {
	return &Pool{downloaders: downloaders}
}

// Downloaders returns the pool members in configured order.
func (p *Pool) Downloaders() []Downloader {
	out := make([]Downloader, len(p.downloaders))
	copy(out, p.downloaders)
	return out
}

func (p *Pool) Len() int {
	return len(p.downloaders)
}

func (p *Pool) Names() []string {
	return util.ConvertList(p.downloaders, Downloader.Name)
}
