package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, 5, cfg.Bot.PageSize)
		assert.Equal(t, 4096, cfg.Bot.MaxMessageLength)
		assert.Equal(t, 20*time.Second, cfg.Bot.NetworkTimeout)
		assert.Equal(t, "mteam", cfg.Bot.DefaultTracker)
		assert.Equal(t, "qbittorrent", cfg.Downloaders)
		assert.False(t, cfg.Kafka.Enabled)
		assert.Equal(t, 64, cfg.Kafka.Workers)
		assert.Equal(t, 256, cfg.Kafka.MaxInFlight)
		assert.False(t, cfg.Database.Enabled)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("BOT_PAGE_SIZE", "10")
		t.Setenv("BOT_ALLOWED_CHAT_IDS", "1,2")
		t.Setenv("DOWNLOADERS", "qbittorrent, transmission")
		t.Setenv("TRACKER_MTEAM_BASE_URL", "https://tracker.example")
		t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 10, cfg.Bot.PageSize)
		assert.Equal(t, []string{"1", "2"}, cfg.Bot.AllowedChatIDs)
		assert.Equal(t, "qbittorrent, transmission", cfg.Downloaders)
		assert.Equal(t, "https://tracker.example", cfg.MTeam.BaseURL)
		assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	})

	t.Run("invalid page size", func(t *testing.T) {
		t.Setenv("BOT_PAGE_SIZE", "0")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("invalid tracker url", func(t *testing.T) {
		t.Setenv("TRACKER_CARPT_BASE_URL", "not a url")

		_, err := Load()
		assert.Error(t, err)
	})
}
