package inbound

import (
	"context"
	"errors"
	"net"

	"nhooyr.io/websocket"
)

// Ошибки inbound
var (
	// ErrBind не удалось занять адрес слушателя. Фатальная ошибка.
	ErrBind = errors.New("listener bind failed")
	// ErrAccept ошибка приема TCP соединения
	ErrAccept = errors.New("accept failed")
	// ErrHandshake ошибка WebSocket handshake, отбрасывается только это соединение
	ErrHandshake = errors.New("websocket handshake failed")
)

// Handler функция для обработки принятого WebSocket соединения.
// ctx отменяется при остановке inbound.
type Handler func(ctx context.Context, conn *websocket.Conn, remoteAddr string) error

// Inbound интерфейс для inbound обработчиков
type Inbound interface {
	// Start занимает адрес и вызывает handler для каждого нового соединения
	Start(handler Handler) error
	// Stop останавливает слушатель и все активные сессии
	Stop() error
	// Addr возвращает адрес слушателя
	Addr() net.Addr
}
