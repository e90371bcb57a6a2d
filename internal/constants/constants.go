package constants

import "time"

// Version версия relay, выводится при старте
const Version = "0.3.0"

// Адреса по умолчанию
const (
	// DefaultListenAddress адрес WebSocket слушателя по умолчанию
	DefaultListenAddress = "0.0.0.0:8080"
	// DefaultBackendAddress адрес игрового сервера по умолчанию
	DefaultBackendAddress = "127.0.0.1:25565"
	// DefaultPath HTTP путь, на котором принимаются WebSocket соединения
	DefaultPath = "/"
)

// Размеры буферов и сообщений
const (
	// DefaultReadBufferSize размер буфера чтения из TCP backend
	DefaultReadBufferSize = 1024
	// DefaultMaxMessageSize максимальный размер входящего WebSocket сообщения.
	// Максимальный пакет Minecraft: 2^21-1 байт данных + 3 байта VarInt длины.
	DefaultMaxMessageSize = 2097151 + 3
)

// PROXY protocol
const (
	// ProxyPlaceholderPort порт, который пишется в PROXY заголовок вместо реальных портов
	ProxyPlaceholderPort = 25565
	// ProxyLocalIPv4 локальный адрес для TCP4 заголовка
	ProxyLocalIPv4 = "127.0.0.1"
	// ProxyLocalIPv6 локальный адрес для TCP6 заголовка
	ProxyLocalIPv6 = "::1"
)

// Timeouts and intervals
const (
	// DefaultDialTimeout таймаут подключения к backend
	DefaultDialTimeout = 10 * time.Second
	// ShutdownTimeout время на остановку HTTP серверов
	ShutdownTimeout = 5 * time.Second
	// CloseHandshakeTimeout сколько сессия ждет ответный close frame клиента
	CloseHandshakeTimeout = time.Second
	// AcceptBackoffMin минимальная пауза после ошибки Accept
	AcceptBackoffMin = 5 * time.Millisecond
	// AcceptBackoffMax максимальная пауза после ошибки Accept
	AcceptBackoffMax = time.Second
)

// Outbound types
const (
	OutboundDirect = "direct"
	OutboundSOCKS5 = "socks5"
)

// Traffic directions
const (
	// DirectionSent данные от клиента к backend
	DirectionSent = "sent"
	// DirectionReceived данные от backend к клиенту
	DirectionReceived = "received"
)

// Component names for logging
const (
	// ComponentMain имя компонента для логирования main
	ComponentMain = "main"
	// ComponentServer имя компонента для логирования server
	ComponentServer = "server"
	// ComponentInbound имя компонента для логирования inbound
	ComponentInbound = "inbound"
	// ComponentOutbound имя компонента для логирования outbound
	ComponentOutbound = "outbound"
	// ComponentProxy имя компонента для логирования proxy
	ComponentProxy = "proxy"
	// ComponentPlugin имя компонента для логирования plugin
	ComponentPlugin = "plugin"
	// ComponentMetrics имя компонента для логирования metrics
	ComponentMetrics = "metrics"
)
