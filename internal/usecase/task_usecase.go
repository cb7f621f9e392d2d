package usecase

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/nguyentranbao-ct/torrent-bot/internal/config"
	"github.com/nguyentranbao-ct/torrent-bot/internal/models"
	"github.com/nguyentranbao-ct/torrent-bot/internal/repo/downloader"
	"github.com/nguyentranbao-ct/torrent-bot/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/torrent-bot/internal/repo/notifier"
	"github.com/nguyentranbao-ct/torrent-bot/pkg/util"
)

type TaskUsecase interface {
	// Execute hands torrentID to every downloader in the pool and reports
	// whether at least one accepted it.
	Execute(ctx context.Context, torrentID string) (bool, error)
}

type taskUsecase struct {
	pool        *downloader.Pool
	notifier    notifier.Notifier
	dispatchLog mongodb.DispatchLogRepository
	timeout     time.Duration
	metrics     *prometheus.HistogramVec
	log         *zap.SugaredLogger
}

func NewTaskUsecase(
	cfg *config.Config,
	pool *downloader.Pool,
	notifier notifier.Notifier,
	dispatchLog mongodb.DispatchLogRepository,
	log *zap.SugaredLogger,
) (TaskUsecase, error) {
	metrics, err := util.GetHistogramVec("downloader_add_torrent", "downloader", "status")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}
	return &taskUsecase{
		pool:        pool,
		notifier:    notifier,
		dispatchLog: dispatchLog,
		timeout:     cfg.Bot.NetworkTimeout,
		metrics:     metrics,
		log:         log.Named("usecase.task"),
	}, nil
}

func (uc *taskUsecase) Execute(ctx context.Context, torrentID string) (bool, error) {
	torrentID = strings.TrimSpace(torrentID)
	if torrentID == "" {
		uc.log.Errorw("download task is missing a torrent id")
		return false, models.NewError(models.KindInputInvalid, "torrent id is required", nil)
	}

	uc.log.Infow("dispatching torrent", "torrent_id", torrentID, "downloaders", uc.pool.Names())
	start := time.Now()

	outcomes := make([]models.DownloadOutcome, 0, uc.pool.Len())
	succeeded := false
	for _, d := range uc.pool.Downloaders() {
		outcome := uc.addTorrent(ctx, d, torrentID)
		outcomes = append(outcomes, outcome)
		succeeded = succeeded || outcome.Succeeded
	}

	uc.notify(ctx, torrentID, succeeded)
	uc.record(ctx, &models.DispatchRecord{
		TorrentID:  torrentID,
		Outcomes:   outcomes,
		Succeeded:  succeeded,
		DurationMs: time.Since(start).Milliseconds(),
	})

	uc.log.Infow("dispatch finished", "torrent_id", torrentID, "succeeded", succeeded, "outcomes", outcomes)
	return succeeded, nil
}

// addTorrent calls one downloader under its own timeout; errors and panics
// count as a failed outcome.
func (uc *taskUsecase) addTorrent(ctx context.Context, d downloader.Downloader, torrentID string) (outcome models.DownloadOutcome) {
	outcome.DownloaderName = d.Name()
	start := time.Now()

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PANIC RECOVER: %v", r)
			outcome.Succeeded = false
		}
		if err == nil && !outcome.Succeeded {
			err = models.NewError(models.KindDownloaderFailure, "torrent rejected", nil)
		}
		if err != nil {
			outcome.Error = err.Error()
			uc.log.Warnw("downloader failed to add torrent", "downloader", d.Name(), "torrent_id", torrentID, "error", err)
		}
		uc.metrics.WithLabelValues(d.Name(), models.Code(err).String()).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := util.NewTimeoutContext(ctx, uc.timeout)
	defer cancel()

	outcome.Succeeded, err = d.AddTorrent(ctx, torrentID)
	if err != nil {
		outcome.Succeeded = false
	}
	return outcome
}

func (uc *taskUsecase) notify(ctx context.Context, torrentID string, succeeded bool) {
	id := html.EscapeString(torrentID)
	text := fmt.Sprintf("✅ Torrent <code>%s</code> was added by at least one downloader.", id)
	if !succeeded {
		text = fmt.Sprintf("❌ Every downloader failed to add torrent <code>%s</code>.", id)
	}
	if err := uc.notifier.Notify(ctx, text); err != nil {
		uc.log.Errorw("failed to send dispatch notification", "torrent_id", torrentID, "error", err)
	}
}

func (uc *taskUsecase) record(ctx context.Context, record *models.DispatchRecord) {
	if err := uc.dispatchLog.Append(ctx, record); err != nil {
		uc.log.Errorw("failed to append dispatch log", "torrent_id", record.TorrentID, "error", err)
	}
}
