package usecase

import (
	"strconv"
	"strings"

	"github.com/nguyentranbao-ct/torrent-bot/internal/config"
)

type AllowlistService interface {
	IsChatAllowed(chatID int64) bool
	GetAllowedChats() []string
}

type allowlistService struct {
	allowedChats map[string]bool
	allowlist    []string
}

// NewAllowlistService creates a new allowlist service
func NewAllowlistService(cfg *config.Config) AllowlistService {
	allowedChats := make(map[string]bool)
	for _, chatID := range cfg.Bot.AllowedChatIDs {
		if chatID = strings.TrimSpace(chatID); chatID != "" {
			allowedChats[chatID] = true
		}
	}

	return &allowlistService{
		allowedChats: allowedChats,
		allowlist:    cfg.Bot.AllowedChatIDs,
	}
}

// IsChatAllowed checks if a chat may talk to the bot
func (a *allowlistService) IsChatAllowed(chatID int64) bool {
	if a.allowedChats["all"] {
		return true
	}

	// An empty allowlist allows every chat
	if len(a.allowedChats) == 0 {
		return true
	}

	return a.allowedChats[strconv.FormatInt(chatID, 10)]
}

func (a *allowlistService) GetAllowedChats() []string {
	return a.allowlist
}
