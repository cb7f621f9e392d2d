package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/nguyentranbao-ct/torrent-bot/internal/config"
)

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegram struct {
	endpoint string
	token    string
	chatID   string
	client   *resty.Client
}

// NewTelegram sends notifications through the Bot API sendMessage method.
func NewTelegram(cfg config.NotifierConfig, client *resty.Client) Notifier {
	return &telegram{
		endpoint: fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(cfg.TelegramAPIURL, "/"), cfg.TelegramToken),
		token:    cfg.TelegramToken,
		chatID:   cfg.TelegramChatID,
		client:   client,
	}
}

func (t *telegram) Notify(ctx context.Context, text string) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(sendMessageRequest{
			ChatID:    t.chatID,
			Text:      text,
			ParseMode: "HTML",
		}).
		Post(t.endpoint)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("send message: %w", ctxErr)
		}
		// transport errors carry the request URL, which embeds the token
		return fmt.Errorf("send message: %s", t.redact(err.Error()))
	}
	body := resp.Body()
	if !gjson.GetBytes(body, "ok").Bool() {
		desc := gjson.GetBytes(body, "description").String()
		if desc == "" {
			desc = resp.Status()
		}
		return fmt.Errorf("send message: telegram replied %q", desc)
	}
	return nil
}

func (t *telegram) redact(s string) string {
	if t.token == "" {
		return s
	}
	return strings.ReplaceAll(s, t.token, "<redacted>")
}
