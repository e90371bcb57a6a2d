package outbound

import (
	"context"
	"net"
)

// DirectOutbound реализует прямое подключение
type DirectOutbound struct {
	dialer *net.Dialer
}

// NewDirectOutbound создает новый direct outbound
func NewDirectOutbound() *DirectOutbound {
	return &DirectOutbound{
		dialer: &net.Dialer{},
	}
}

// Dial устанавливает прямое TCP соединение с выключенным алгоритмом Нейгла
func (d *DirectOutbound) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	conn, err := d.dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	SetNoDelay(conn)
	return conn, nil
}

// SetNoDelay выключает склеивание пакетов, если conn является TCP соединением
func SetNoDelay(conn net.Conn) {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}
}
