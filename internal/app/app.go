package app

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nguyentranbao-ct/torrent-bot/internal/config"
	"github.com/nguyentranbao-ct/torrent-bot/internal/kafka"
	"github.com/nguyentranbao-ct/torrent-bot/internal/repo/downloader"
	"github.com/nguyentranbao-ct/torrent-bot/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/torrent-bot/internal/repo/notifier"
	"github.com/nguyentranbao-ct/torrent-bot/internal/repo/tracker"
	"github.com/nguyentranbao-ct/torrent-bot/internal/server"
	"github.com/nguyentranbao-ct/torrent-bot/internal/usecase"
)

const startedText = "🤖 Torrent bot started."

func Invoke(funcs ...any) *fx.App {
	conf := config.MustLoad()
	log, err := NewLogger(conf.Log)
	if err != nil {
		panic(fmt.Errorf("init logger: %w", err))
	}
	log.Named("app").Debugw("config loaded", "config", conf)
	return fx.New(Options(conf, log, funcs...))
}

// Options is the full dependency graph; tests build it with fx.ValidateApp.
func Options(conf *config.Config, log *zap.SugaredLogger, funcs ...any) fx.Option {
	return fx.Options(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{
				Logger: log.Named("fx").Desugar(),
			}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Supply(conf, log),
		fx.Provide(
			newRestyClient,
			newMongoDB,
			newTrackerRegistry,
			newLinkResolver,
			newDownloaderPool,
			newNotifier,

			mongodb.NewDispatchLogRepository,

			usecase.NewSessionStore,
			usecase.NewAllowlistService,
			usecase.NewSearchUsecase,
			usecase.NewTaskUsecase,
			usecase.NewConversationUsecase,

			server.NewController,
			server.NewEcho,

			kafka.NewReplyPublisher,
			kafka.NewConsumer,
		),
		fx.Invoke(EnsureIndexes),
		fx.Invoke(StartupChecks),
		fx.Invoke(funcs...),
	)
}

func EnsureIndexes(lc fx.Lifecycle, repo mongodb.DispatchLogRepository) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return repo.EnsureIndexes(ctx)
		},
	})
}

// StartupChecks reports configuration problems that do not prevent the bot
// from running, then announces the start.
func StartupChecks(
	lc fx.Lifecycle,
	conf *config.Config,
	trackers *tracker.Registry,
	pool *downloader.Pool,
	n notifier.Notifier,
	log *zap.SugaredLogger,
) {
	log = log.Named("app")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := trackers.Get(conf.Bot.DefaultTracker); err != nil {
				log.Errorw("default tracker is not configured, searches will fail",
					"tracker", conf.Bot.DefaultTracker, "available", trackers.Names(), "error", err)
			}
			if conf.Notifier.TelegramToken == "" || conf.Notifier.TelegramChatID == "" {
				log.Warnw("telegram notifier is not configured, notifications go to the log")
			}
			if len(conf.Bot.AllowedChatIDs) == 0 {
				log.Warnw("no chat allowlist configured, every chat may use the bot")
			}
			log.Infow("bot starting", "downloaders", pool.Names(), "trackers", trackers.Names())
			if err := n.Notify(ctx, startedText); err != nil {
				log.Warnw("failed to send startup notification", "error", err)
			}
			return nil
		},
	})
}
