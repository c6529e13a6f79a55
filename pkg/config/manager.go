package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

// Manager hands out immutable configuration snapshots and applies operator
// mutations by swapping in a freshly unmarshaled copy. Detectors and the
// pipeline read a snapshot per request and never observe partial updates.
type Manager struct {
	mu    sync.RWMutex
	viper *viper.Viper
	cfg   *Config
}

func NewManager(cfg *Config) *Manager {
	return &Manager{cfg: cfg}
}

// NewManagerWithViper keeps the viper instance used at load time so SetPath
// can re-unmarshal the full tree after a nested mutation.
func NewManagerWithViper(v *viper.Viper, cfg *Config) *Manager {
	return &Manager{viper: v, cfg: cfg}
}

// Snapshot returns the current configuration. Callers must not mutate it.
func (m *Manager) Snapshot() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Engine returns a copy of the current engine configuration.
func (m *Manager) Engine() EngineConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Engine
}

func (m *Manager) EnableRule(name string) {
	m.setRule(name, true)
}

func (m *Manager) DisableRule(name string) {
	m.setRule(name, false)
}

func (m *Manager) setRule(name string, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := *m.cfg
	rules := make(map[string]bool, len(m.cfg.Engine.Rules)+1)
	for k, v := range m.cfg.Engine.Rules {
		rules[k] = v
	}
	rules[name] = enabled
	next.Engine.Rules = rules
	m.cfg = &next
}

// SetPath applies a nested configuration mutation, e.g.
// SetPath("engine.rate_limit.login_attempts_limit", 10).
func (m *Manager) SetPath(path string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.viper == nil {
		return fmt.Errorf("runtime config mutation is not available without a backing config source")
	}

	previous := m.viper.Get(path)
	m.viper.Set(path, value)
	var next Config
	if err := m.viper.Unmarshal(&next); err != nil {
		m.viper.Set(path, previous)
		return fmt.Errorf("failed to apply config mutation %q: %w", path, err)
	}
	if err := next.Engine.Validate(); err != nil {
		m.viper.Set(path, previous)
		return fmt.Errorf("config mutation %q rejected: %w", path, err)
	}
	if next.Engine.Rules == nil {
		next.Engine.Rules = m.cfg.Engine.Rules
	}
	m.cfg = &next
	return nil
}
