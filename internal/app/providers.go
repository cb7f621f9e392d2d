package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/nguyentranbao-ct/torrent-bot/internal/config"
	"github.com/nguyentranbao-ct/torrent-bot/internal/repo/downloader"
	"github.com/nguyentranbao-ct/torrent-bot/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/torrent-bot/internal/repo/notifier"
	"github.com/nguyentranbao-ct/torrent-bot/internal/repo/tracker"
	"github.com/nguyentranbao-ct/torrent-bot/pkg/util"
)

const mongoConnectTimeout = 10 * time.Second

func newRestyClient(cfg *config.Config) *resty.Client {
	return util.NewRestyClient(cfg.Bot.NetworkTimeout)
}

// newMongoDB returns nil when the database is disabled; repositories fall
// back to no-op implementations.
func newMongoDB(lc fx.Lifecycle, cfg *config.Config, log *zap.SugaredLogger) (*mongodb.DB, error) {
	if !cfg.Database.Enabled {
		log.Named("app").Infow("database disabled, dispatch log is not persisted")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()
	db, err := mongodb.NewConnection(ctx, cfg.Database.URI, cfg.Database.Database)
	if err != nil {
		return nil, fmt.Errorf("init mongo client: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return db.Close(ctx)
		},
	})
	return db, nil
}

func newTrackerRegistry(cfg *config.Config, client *resty.Client, log *zap.SugaredLogger) (*tracker.Registry, error) {
	return tracker.NewRegistryFromConfig(cfg, client, log)
}

func newLinkResolver(cfg *config.Config, trackers *tracker.Registry) downloader.LinkResolver {
	return downloader.NewLinkResolver(trackers, cfg.Bot.DefaultTracker)
}

func newDownloaderPool(cfg *config.Config, resolver downloader.LinkResolver, log *zap.SugaredLogger) *downloader.Pool {
	return downloader.NewPool(cfg.Downloaders, downloader.Deps{
		Config:   cfg,
		Resolver: resolver,
		Timeout:  cfg.Bot.NetworkTimeout,
	}, log)
}

func newNotifier(cfg *config.Config, client *resty.Client, log *zap.SugaredLogger) notifier.Notifier {
	return notifier.New(cfg.Notifier, client, log)
}
