package config

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Provider serves the current configuration snapshot and swaps it atomically
// when the configuration is reloaded. Readers never observe a partially
// applied configuration; an invalid reload leaves the previous snapshot live.
type Provider struct {
	v       *viper.Viper
	current atomic.Pointer[Config]
	logger  *zap.Logger

	mu        sync.Mutex
	listeners []func(*Config)
}

// NewProvider loads the configuration and returns a provider serving it
func NewProvider(logger *zap.Logger) (*Provider, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	cfg, err := fromViper(v)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Provider{v: v, logger: logger}
	p.current.Store(cfg)
	return p, nil
}

// NewStaticProvider returns a provider pinned to cfg. Reload is a no-op.
func NewStaticProvider(cfg *Config) *Provider {
	p := &Provider{logger: zap.NewNop()}
	p.current.Store(cfg)
	return p
}

// Current returns the active configuration snapshot
func (p *Provider) Current() *Config {
	return p.current.Load()
}

// Billing returns the active billing configuration
func (p *Provider) Billing() BillingConfig {
	return p.current.Load().Billing
}

// OnReload registers fn to be called with every successfully reloaded snapshot
func (p *Provider) OnReload(fn func(*Config)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// SetLogger replaces the logger used to report reloads
func (p *Provider) SetLogger(logger *zap.Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// Reload re-reads the config file and environment and swaps the snapshot.
func (p *Provider) Reload() error {
	if p.v == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return p.swapLocked()
}

// Watch reloads the configuration whenever the config file changes on disk.
func (p *Provider) Watch() {
	if p.v == nil || p.v.ConfigFileUsed() == "" {
		p.logger.Debug("No config file in use, skipping config watch")
		return
	}
	p.v.OnConfigChange(func(e fsnotify.Event) {
		p.mu.Lock()
		defer p.mu.Unlock()

		p.logger.Info("Config file changed", zap.String("file", e.Name), zap.String("op", e.Op.String()))
		if err := p.swapLocked(); err != nil {
			p.logger.Error("Rejected config change, keeping previous configuration", zap.Error(err))
		}
	})
	p.v.WatchConfig()
}

func (p *Provider) swapLocked() error {
	cfg, err := fromViper(p.v)
	if err != nil {
		return err
	}
	p.current.Store(cfg)
	p.logger.Info("Configuration reloaded",
		zap.Int("time_resolution_minutes", cfg.Billing.TimeResolutionMinutes),
		zap.Float64("default_hourly_rate", cfg.Billing.DefaultHourlyRate),
	)
	for _, fn := range p.listeners {
		fn(cfg)
	}
	return nil
}
