package server

import (
	"crypto/tls"
	"fmt"
	"net"
	"sync/atomic"

	"example.com/me/wsrelay/config"
	"example.com/me/wsrelay/inbound"
	"example.com/me/wsrelay/internal/constants"
	"example.com/me/wsrelay/internal/logger"
	"example.com/me/wsrelay/internal/plugin"
	"example.com/me/wsrelay/internal/plugins/traffic"
	tlsconfig "example.com/me/wsrelay/internal/tls"
	"example.com/me/wsrelay/outbound"
	"example.com/me/wsrelay/proxy"
)

// Server представляет relay server
type Server struct {
	cfg           *config.Config
	inbound       *inbound.WebSocketInbound
	outbound      outbound.Outbound
	pluginManager *plugin.Manager
	traffic       *traffic.ClientCounter
	bridge        *proxy.Bridge
	metrics       *metricsServer

	ready   atomic.Bool
	closing atomic.Bool
}

// NewServer создает новый server
func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg: cfg,
	}
}

// Initialize инициализирует все компоненты server
func (s *Server) Initialize() error {
	// Initialize Plugin Manager
	s.pluginManager = plugin.NewManager()

	// Load and initialize plugins
	if err := s.initializePlugins(); err != nil {
		return fmt.Errorf("failed to initialize plugins: %w", err)
	}

	// Initialize outbound
	if err := s.initializeOutbound(); err != nil {
		return fmt.Errorf("failed to initialize outbound: %w", err)
	}

	s.bridge = proxy.NewBridge(proxy.Options{
		BackendAddress: s.cfg.Backend.Address,
		ProxyProtocol:  s.cfg.Backend.ProxyProtocol,
		DialTimeout:    s.cfg.Backend.DialTimeout,
		ReadBufferSize: s.cfg.Backend.ReadBufferSize,
		Outbound:       s.outbound,
		Plugins:        s.pluginManager,
	})

	// Initialize inbound
	if err := s.initializeInbound(); err != nil {
		return fmt.Errorf("failed to initialize inbound: %w", err)
	}

	if s.cfg.Metrics.Listen != "" {
		s.metrics = newMetricsServer(s.cfg.Metrics.Listen, s)
	}

	return nil
}

// initializePlugins инициализирует плагины
func (s *Server) initializePlugins() error {
	if s.cfg.Plugins.Traffic != nil && s.cfg.Plugins.Traffic.Enabled {
		counter := traffic.NewClientCounter()
		if err := counter.Init(s.cfg.Plugins.Traffic.Config); err != nil {
			return fmt.Errorf("failed to initialize %s plugin: %w", traffic.PluginName, err)
		}
		s.pluginManager.Register(counter)
		s.traffic = counter
		logger.Info(constants.ComponentServer, "Traffic plugin enabled")
	}

	return nil
}

// initializeOutbound инициализирует outbound
func (s *Server) initializeOutbound() error {
	switch s.cfg.Outbound.Type {
	case constants.OutboundDirect, "":
		s.outbound = outbound.NewDirectOutbound()
	case constants.OutboundSOCKS5:
		if s.cfg.Outbound.ProxyAddress == "" {
			return fmt.Errorf("proxy_address is required for SOCKS5 outbound")
		}
		ob, err := outbound.NewSOCKS5Outbound(s.cfg.Outbound.ProxyAddress)
		if err != nil {
			return err
		}
		s.outbound = ob
	default:
		return fmt.Errorf("unsupported outbound type: %s", s.cfg.Outbound.Type)
	}
	return nil
}

// initializeInbound инициализирует inbound
func (s *Server) initializeInbound() error {
	tlsConfig, err := s.prepareTLSConfig()
	if err != nil {
		return fmt.Errorf("failed to prepare TLS config: %w", err)
	}

	s.inbound = inbound.NewWebSocketInbound(inbound.Options{
		Listen:         s.cfg.Inbound.Listen,
		Path:           s.cfg.Inbound.Path,
		OriginPatterns: s.cfg.Inbound.OriginPatterns,
		MaxMessageSize: s.cfg.Inbound.MaxMessageSize,
		TLSConfig:      tlsConfig,
	})
	return nil
}

// prepareTLSConfig подготавливает TLS конфигурацию
func (s *Server) prepareTLSConfig() (*tls.Config, error) {
	return tlsconfig.NewTLSConfig(s.cfg.Inbound.TLS)
}

// Start запускает server
func (s *Server) Start() error {
	// Start inbound
	if err := s.inbound.Start(s.bridge.HandleSession); err != nil {
		return fmt.Errorf("failed to start inbound: %w", err)
	}

	if s.metrics != nil {
		if err := s.metrics.Start(); err != nil {
			s.inbound.Stop()
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	s.ready.Store(true)

	proxyProtocol := "off"
	if s.cfg.Backend.ProxyProtocol {
		proxyProtocol = "on"
	}
	if s.cfg.Outbound.Type == constants.OutboundSOCKS5 {
		logger.Info(constants.ComponentServer, "Relay started on %s -> %s (PROXY protocol %s, SOCKS5 outbound via %s)",
			s.inbound.Addr(), s.cfg.Backend.Address, proxyProtocol, s.cfg.Outbound.ProxyAddress)
	} else {
		logger.Info(constants.ComponentServer, "Relay started on %s -> %s (PROXY protocol %s)",
			s.inbound.Addr(), s.cfg.Backend.Address, proxyProtocol)
	}

	return nil
}

// Errors возвращает канал фатальных ошибок слушателя
func (s *Server) Errors() <-chan error {
	return s.inbound.Errors()
}

// Addr возвращает адрес WebSocket слушателя
func (s *Server) Addr() net.Addr {
	return s.inbound.Addr()
}

// Stop останавливает server
func (s *Server) Stop() error {
	s.closing.Store(true)

	var errs []error

	if s.inbound != nil {
		if err := s.inbound.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("error stopping inbound: %w", err))
		}
	}

	if s.metrics != nil {
		if err := s.metrics.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("error stopping metrics server: %w", err))
		}
	}

	if s.pluginManager != nil {
		if err := s.pluginManager.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing plugins: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors stopping server: %v", errs)
	}

	return nil
}

// MetricsAddr возвращает адрес endpoint метрик или nil, если он выключен
func (s *Server) MetricsAddr() net.Addr {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.Addr()
}
