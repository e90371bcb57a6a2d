package config

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfigCreated возвращается, когда файла конфигурации не было и он создан со значениями по умолчанию
var ErrConfigCreated = errors.New("configuration file created, please review it")

const defaultConfigYAML = `# wsrelay configuration

inbound:
  # Address of the WebSocket listener
  listen: "0.0.0.0:8080"
  # HTTP path accepting WebSocket upgrades
  path: "/"
  origin_patterns: ["*"]
  # Largest accepted WebSocket message in bytes
  max_message_size: 2097154
  tls:
    enabled: false
    cert_file: ""
    key_file: ""

backend:
  # Game server address
  address: "127.0.0.1:25565"
  # Prefix every backend connection with a PROXY protocol v1 line
  proxy_protocol: false
  dial_timeout: 10s
  read_buffer_size: 1024

outbound:
  # "direct" or "socks5"
  type: direct
  proxy_address: ""

log:
  level: info

metrics:
  # Empty disables /metrics, /healthz and /stats
  listen: ""

plugins:
  traffic:
    enabled: false
`

// Load загружает конфигурацию из файла и переопределяет через CLI аргументы
func Load() (*Config, error) {
	var configFile string
	var listen string
	var backend string
	var proxyProtocol bool
	var metricsListen string

	flag.StringVar(&configFile, "config", "config.yaml", "Path to configuration file")
	flag.StringVar(&listen, "listen", "", "WebSocket listen address (overrides config)")
	flag.StringVar(&backend, "backend", "", "Backend game server address (overrides config)")
	flag.BoolVar(&proxyProtocol, "proxy-protocol", false, "Send PROXY protocol header to backend (overrides config)")
	flag.StringVar(&metricsListen, "metrics", "", "Metrics listen address (overrides config)")
	flag.Parse()

	cfg, err := LoadFile(configFile)
	if err != nil {
		return nil, err
	}

	// Override via CLI arguments
	if listen != "" {
		cfg.Inbound.Listen = listen
	}
	if backend != "" {
		cfg.Backend.Address = backend
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "proxy-protocol" {
			cfg.Backend.ProxyProtocol = proxyProtocol
		}
	})
	if metricsListen != "" {
		cfg.Metrics.Listen = metricsListen
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFile читает YAML файл поверх значений по умолчанию.
// Если файла нет, он создается из шаблона и возвращается ErrConfigCreated.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := WriteDefault(path); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrConfigCreated, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// WriteDefault записывает шаблон конфигурации по умолчанию
func WriteDefault(path string) error {
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0644); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	return nil
}
