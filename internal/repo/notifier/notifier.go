package notifier

import (
	"context"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/nguyentranbao-ct/torrent-bot/internal/config"
)

// Notifier delivers operator notifications such as dispatch summaries.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// New returns a Telegram notifier when a bot token and chat id are
// configured, and a log-only notifier otherwise.
func New(cfg config.NotifierConfig, client *resty.Client, log *zap.SugaredLogger) Notifier {
	log = log.Named("notifier")
	if cfg.TelegramToken == "" || cfg.TelegramChatID == "" {
		return NewLogNotifier(log)
	}
	return NewTelegram(cfg, client)
}

type logNotifier struct {
	log *zap.SugaredLogger
}

func NewLogNotifier(log *zap.SugaredLogger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) Notify(_ context.Context, text string) error {
	n.log.Infow("notification", "text", text)
	return nil
}
