package registry

import (
	"sync"

	"github.com/hupe1980/genmesh/core"
	"github.com/hupe1980/genmesh/logging"
)

// Registry is a goroutine-safe identity -> core.UserConfig map. Reads and
// writes may interleave with in-flight generations.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]core.UserConfig
	logger  logging.Logger
}

// Options configures a Registry.
type Options struct {
	Logger logging.Logger
}

// New returns an empty registry.
func New(optFns ...func(o *Options)) *Registry {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{configs: make(map[string]core.UserConfig), logger: opts.Logger}
}

// Set stores cfg for identity, replacing any previous configuration.
func (r *Registry) Set(identity string, cfg core.UserConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Info("Saving new config for user", "user_id", identity, "app_ids", len(cfg.AppIDs))
	r.configs[identity] = cfg.Clone()
}

// SetAll applies a configuration event carrying several identities at once.
// The whole batch becomes visible atomically.
func (r *Registry) SetAll(configs map[string]core.UserConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for identity, cfg := range configs {
		r.logger.Info("Saving new config for user", "user_id", identity, "app_ids", len(cfg.AppIDs))
		r.configs[identity] = cfg.Clone()
	}
}

// Get returns a copy of the configuration stored for identity.
func (r *Registry) Get(identity string) (core.UserConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[identity]
	if !ok {
		return core.UserConfig{}, false
	}
	return cfg.Clone(), true
}

// Capabilities returns the capability set for identity. An unknown identity
// yields an empty, non-nil set.
func (r *Registry) Capabilities(identity string) []string {
	cfg, ok := r.Get(identity)
	if !ok {
		return []string{}
	}
	return cfg.AppIDs
}
