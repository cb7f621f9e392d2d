package tracker

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/nguyentranbao-ct/torrent-bot/internal/config"
)

var ErrUnknownTracker = errors.New("unknown tracker")

// Registry is the closed set of trackers the bot can search.
type Registry struct {
	trackers map[string]Tracker
	mu       sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		trackers: make(map[string]Tracker),
	}
}

// NewRegistryFromConfig registers every tracker that has a base url configured.
func NewRegistryFromConfig(cfg *config.Config, client *resty.Client, log *zap.SugaredLogger) (*Registry, error) {
	log = log.Named("tracker")
	registry := NewRegistry()
	configured := map[string]config.TrackerConfig{
		NameMTeam: cfg.MTeam,
		NameCarpt: cfg.Carpt,
	}
	for name, trackerCfg := range configured {
		if trackerCfg.BaseURL == "" {
			log.Debugw("tracker not configured, skipping", "tracker", name)
			continue
		}
		t, err := NewHTTPTracker(name, trackerCfg, client)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(t); err != nil {
			return nil, err
		}
		log.Infow("tracker registered", "tracker", name, "base_url", trackerCfg.BaseURL)
	}
	return registry, nil
}

func (r *Registry) Register(t Tracker) error {
	if t == nil {
		return fmt.Errorf("tracker cannot be nil")
	}
	name := normalizeName(t.Name())
	if name == "" {
		return fmt.Errorf("tracker name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.trackers[name]; exists {
		return fmt.Errorf("tracker %s already registered", name)
	}
	r.trackers[name] = t
	return nil
}

// Get looks a tracker up by name, case-insensitively.
func (r *Registry) Get(name string) (Tracker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.trackers[normalizeName(name)]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTracker, name)
	}
	return t, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.trackers))
	for name := range r.trackers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
