package outbound

import (
	"context"
	"net"
)

// Outbound интерфейс для подключения к backend
type Outbound interface {
	// Dial устанавливает соединение с адресом backend
	Dial(ctx context.Context, network, address string) (net.Conn, error)
}
