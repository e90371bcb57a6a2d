package proxy

import (
	"fmt"
	"net/netip"

	"example.com/me/wsrelay/internal/constants"
)

// ParsePeer разбирает адрес клиента вида "ip:port". IPv4 в IPv6 форме приводится к IPv4.
func ParsePeer(remoteAddr string) (netip.AddrPort, error) {
	ap, err := netip.ParseAddrPort(remoteAddr)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("invalid client address %q: %w", remoteAddr, err)
	}
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port()), nil
}

// ProxyHeader строит строку PROXY protocol v1 для адреса клиента.
//
// Локальный адрес всегда loopback, оба порта - фиксированный порт backend,
// а не реальный порт клиента.
func ProxyHeader(client netip.Addr) string {
	ip := client.Unmap().WithZone("")
	if ip.Is4() {
		return fmt.Sprintf("PROXY TCP4 %s %s %d %d\r\n",
			ip, constants.ProxyLocalIPv4, constants.ProxyPlaceholderPort, constants.ProxyPlaceholderPort)
	}
	return fmt.Sprintf("PROXY TCP6 %s %s %d %d\r\n",
		ip, constants.ProxyLocalIPv6, constants.ProxyPlaceholderPort, constants.ProxyPlaceholderPort)
}
