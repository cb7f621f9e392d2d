package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nguyentranbao-ct/torrent-bot/internal/config"
	"github.com/nguyentranbao-ct/torrent-bot/pkg/util"
)

type stubTracker struct {
	name string
}

func (s stubTracker) Name() string { return s.name }

func (s stubTracker) Search(context.Context, SearchQuery) (*RawSearchResult, error) {
	return &RawSearchResult{}, nil
}

func (s stubTracker) DownloadURL(context.Context, string) (string, error) { return "", nil }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubTracker{name: "MTeam"}))
	require.NoError(t, r.Register(stubTracker{name: "carpt"}))

	t.Run("lookup is case insensitive", func(t *testing.T) {
		got, err := r.Get(" MTEAM ")
		require.NoError(t, err)
		assert.Equal(t, "MTeam", got.Name())
	})

	t.Run("unknown key is a named error", func(t *testing.T) {
		_, err := r.Get("dicmusic")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownTracker))
		assert.Contains(t, err.Error(), "dicmusic")
	})

	t.Run("duplicate", func(t *testing.T) {
		assert.Error(t, r.Register(stubTracker{name: "mteam"}))
	})

	t.Run("invalid", func(t *testing.T) {
		assert.Error(t, r.Register(nil))
		assert.Error(t, r.Register(stubTracker{name: " "}))
	})

	assert.Equal(t, []string{"carpt", "mteam"}, r.Names())
}

func TestNewRegistryFromConfig(t *testing.T) {
	cfg := &config.Config{
		MTeam: config.TrackerConfig{BaseURL: "https://kp.m-team.example"},
	}

	r, err := NewRegistryFromConfig(cfg, util.NewRestyClient(0), zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Equal(t, []string{NameMTeam}, r.Names())

	_, err = r.Get(NameCarpt)
	assert.True(t, errors.Is(err, ErrUnknownTracker))
}
