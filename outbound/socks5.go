package outbound

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/net/proxy"

	"example.com/me/wsrelay/internal/constants"
	"example.com/me/wsrelay/internal/logger"
)

// SOCKS5Outbound реализует подключение к backend через SOCKS5 прокси
type SOCKS5Outbound struct {
	proxyAddress string
	dialer       proxy.ContextDialer
}

// NewSOCKS5Outbound создает новый SOCKS5 outbound
func NewSOCKS5Outbound(proxyAddress string) (*SOCKS5Outbound, error) {
	d, err := proxy.SOCKS5("tcp", proxyAddress, nil, forwardDialer{direct: NewDirectOutbound()})
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("SOCKS5 dialer for %s does not support contexts", proxyAddress)
	}

	return &SOCKS5Outbound{
		proxyAddress: proxyAddress,
		dialer:       cd,
	}, nil
}

// Dial устанавливает соединение с адресом backend через SOCKS5 прокси
func (s *SOCKS5Outbound) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if network != "tcp" {
		return nil, fmt.Errorf("unsupported network: %s", network)
	}

	logger.Debug(constants.ComponentOutbound, "Connecting to %s via SOCKS5 proxy %s", address, s.proxyAddress)

	conn, err := s.dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("SOCKS5 connect to %s via %s failed: %w", address, s.proxyAddress, err)
	}

	logger.Debug(constants.ComponentOutbound, "SOCKS5 connection established to %s via %s", address, s.proxyAddress)
	return conn, nil
}

// forwardDialer подключается к самому SOCKS5 прокси напрямую
type forwardDialer struct {
	direct *DirectOutbound
}

func (f forwardDialer) Dial(network, address string) (net.Conn, error) {
	return f.direct.Dial(context.Background(), network, address)
}

func (f forwardDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return f.direct.Dial(ctx, network, address)
}
