package plugin

import (
	"fmt"
	"sync"
)

// Manager управляет плагинами и вызывает hooks
type Manager struct {
	sessionPlugins []SessionPlugin
	trafficPlugins []TrafficPlugin
	plugins        []Plugin
	mu             sync.RWMutex
}

// NewManager создает новый менеджер плагинов
func NewManager() *Manager {
	return &Manager{
		sessionPlugins: make([]SessionPlugin, 0),
		trafficPlugins: make([]TrafficPlugin, 0),
		plugins:        make([]Plugin, 0),
	}
}

// Register регистрирует плагин во всех подходящих группах hooks
func (m *Manager) Register(p Plugin) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plugins = append(m.plugins, p)
	if sp, ok := p.(SessionPlugin); ok {
		m.sessionPlugins = append(m.sessionPlugins, sp)
	}
	if tp, ok := p.(TrafficPlugin); ok {
		m.trafficPlugins = append(m.trafficPlugins, tp)
	}
}

// Plugin возвращает зарегистрированный плагин по имени
func (m *Manager) Plugin(name string) (Plugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.plugins {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// OnSessionOpen вызывает OnSessionOpen hook для всех session плагинов
func (m *Manager) OnSessionOpen(ctx *SessionContext) error {
	m.mu.RLock()
	plugins := make([]SessionPlugin, len(m.sessionPlugins))
	copy(plugins, m.sessionPlugins)
	m.mu.RUnlock()

	for _, plugin := range plugins {
		if err := plugin.OnSessionOpen(ctx); err != nil {
			return fmt.Errorf("plugin %s OnSessionOpen error: %w", plugin.Name(), err)
		}
	}
	return nil
}

// OnBackendConnected вызывает OnBackendConnected hook для всех session плагинов
func (m *Manager) OnBackendConnected(ctx *SessionContext) error {
	m.mu.RLock()
	plugins := make([]SessionPlugin, len(m.sessionPlugins))
	copy(plugins, m.sessionPlugins)
	m.mu.RUnlock()

	for _, plugin := range plugins {
		if err := plugin.OnBackendConnected(ctx); err != nil {
			return fmt.Errorf("plugin %s OnBackendConnected error: %w", plugin.Name(), err)
		}
	}
	return nil
}

// OnDataTransfer вызывает OnDataTransfer hook для всех traffic плагинов
func (m *Manager) OnDataTransfer(ctx *SessionContext, direction string, bytes int64) {
	m.mu.RLock()
	plugins := make([]TrafficPlugin, len(m.trafficPlugins))
	copy(plugins, m.trafficPlugins)
	m.mu.RUnlock()

	for _, plugin := range plugins {
		plugin.OnDataTransfer(ctx, direction, bytes)
	}
}

// OnSessionClosed вызывает OnSessionClosed hook для всех traffic плагинов
func (m *Manager) OnSessionClosed(ctx *SessionContext) {
	m.mu.RLock()
	plugins := make([]TrafficPlugin, len(m.trafficPlugins))
	copy(plugins, m.trafficPlugins)
	m.mu.RUnlock()

	for _, plugin := range plugins {
		plugin.OnSessionClosed(ctx)
	}
}

// Close закрывает все плагины
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, plugin := range m.plugins {
		if err := plugin.Close(); err != nil {
			errs = append(errs, fmt.Errorf("plugin %s close error: %w", plugin.Name(), err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing plugins: %v", errs)
	}

	return nil
}
