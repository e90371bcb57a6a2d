package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"example.com/me/wsrelay/internal/constants"
	"example.com/me/wsrelay/internal/logger"
)

// TLSConfig представляет TLS конфигурацию WebSocket слушателя (wss://)
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// InboundConfig представляет конфигурацию WebSocket inbound
type InboundConfig struct {
	Listen         string     `yaml:"listen"`
	Path           string     `yaml:"path"`
	OriginPatterns []string   `yaml:"origin_patterns"`
	MaxMessageSize int64      `yaml:"max_message_size"`
	TLS            *TLSConfig `yaml:"tls,omitempty"`
}

// BackendConfig представляет конфигурацию игрового сервера
type BackendConfig struct {
	Address        string        `yaml:"address"`
	ProxyProtocol  bool          `yaml:"proxy_protocol"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	ReadBufferSize int           `yaml:"read_buffer_size"`
}

// OutboundConfig представляет способ подключения к backend
type OutboundConfig struct {
	Type         string `yaml:"type"`                    // "direct" или "socks5"
	ProxyAddress string `yaml:"proxy_address,omitempty"` // Адрес SOCKS5 прокси
}

// LogConfig представляет конфигурацию логирования
type LogConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig представляет конфигурацию HTTP endpoint с метриками
type MetricsConfig struct {
	Listen string `yaml:"listen"` // Пустая строка - endpoint выключен
}

// PluginConfig представляет конфигурацию одного плагина
type PluginConfig struct {
	Enabled bool                   `yaml:"enabled"`
	Config  map[string]interface{} `yaml:"config,omitempty"`
}

// PluginsConfig представляет конфигурацию плагинов
type PluginsConfig struct {
	Traffic *PluginConfig `yaml:"traffic,omitempty"`
}

// Config представляет полную конфигурацию приложения
type Config struct {
	Inbound  InboundConfig  `yaml:"inbound"`
	Backend  BackendConfig  `yaml:"backend"`
	Outbound OutboundConfig `yaml:"outbound"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Plugins  PluginsConfig  `yaml:"plugins"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		Inbound: InboundConfig{
			Listen:         constants.DefaultListenAddress,
			Path:           constants.DefaultPath,
			OriginPatterns: []string{"*"},
			MaxMessageSize: constants.DefaultMaxMessageSize,
		},
		Backend: BackendConfig{
			Address:        constants.DefaultBackendAddress,
			DialTimeout:    constants.DefaultDialTimeout,
			ReadBufferSize: constants.DefaultReadBufferSize,
		},
		Outbound: OutboundConfig{
			Type: constants.OutboundDirect,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate проверяет конфигурацию целиком
func (c *Config) Validate() error {
	if err := validateHostPort(c.Inbound.Listen); err != nil {
		return fmt.Errorf("inbound.listen: %w", err)
	}
	if !strings.HasPrefix(c.Inbound.Path, "/") {
		return fmt.Errorf("inbound.path must start with '/': %q", c.Inbound.Path)
	}
	if c.Inbound.MaxMessageSize <= 0 {
		return fmt.Errorf("inbound.max_message_size must be positive: %d", c.Inbound.MaxMessageSize)
	}
	if tls := c.Inbound.TLS; tls != nil && tls.Enabled {
		if tls.CertFile == "" || tls.KeyFile == "" {
			return fmt.Errorf("inbound.tls: cert_file and key_file are required when TLS is enabled")
		}
	}

	if err := validateHostPort(c.Backend.Address); err != nil {
		return fmt.Errorf("backend.address: %w", err)
	}
	if c.Backend.DialTimeout < 0 {
		return fmt.Errorf("backend.dial_timeout must not be negative: %s", c.Backend.DialTimeout)
	}
	if c.Backend.ReadBufferSize <= 0 {
		return fmt.Errorf("backend.read_buffer_size must be positive: %d", c.Backend.ReadBufferSize)
	}

	switch c.Outbound.Type {
	case constants.OutboundDirect:
	case constants.OutboundSOCKS5:
		if err := validateHostPort(c.Outbound.ProxyAddress); err != nil {
			return fmt.Errorf("outbound.proxy_address is required for SOCKS5 outbound: %w", err)
		}
	default:
		return fmt.Errorf("unsupported outbound type: %s", c.Outbound.Type)
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	if c.Metrics.Listen != "" {
		if err := validateHostPort(c.Metrics.Listen); err != nil {
			return fmt.Errorf("metrics.listen: %w", err)
		}
	}

	return nil
}

// validateHostPort проверяет адрес формата host:port
func validateHostPort(address string) error {
	if address == "" {
		return fmt.Errorf("address is empty")
	}
	_, port, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", address, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("invalid port in %q", address)
	}
	return nil
}
