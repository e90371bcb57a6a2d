package plugin

import (
	"sync"
	"sync/atomic"
	"time"
)

// SessionContext содержит метаданные сессии для передачи между компонентами
type SessionContext struct {
	// Идентификатор сессии
	ID string

	// Метаданные соединения
	RemoteAddr     string // Адрес WebSocket клиента
	ClientIP       string // IP клиента без порта
	BackendAddress string // Адрес игрового сервера

	// Временные метки
	StartTime time.Time // Время начала сессии

	// Статистика трафика, обновляется обоими направлениями одновременно
	BytesSent     atomic.Int64 // Байт отправлено на backend
	BytesReceived atomic.Int64 // Байт получено от backend

	// Дополнительные метаданные для плагинов
	mu       sync.Mutex
	metadata map[string]interface{}
}

// NewSessionContext создает новый контекст сессии
func NewSessionContext(id, remoteAddr, clientIP, backendAddress string) *SessionContext {
	return &SessionContext{
		ID:             id,
		RemoteAddr:     remoteAddr,
		ClientIP:       clientIP,
		BackendAddress: backendAddress,
		StartTime:      time.Now(),
		metadata:       make(map[string]interface{}),
	}
}

// SetMetadata сохраняет значение для плагинов
func (c *SessionContext) SetMetadata(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metadata[key] = value
}

// Metadata возвращает сохраненное значение
func (c *SessionContext) Metadata(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.metadata[key]
	return v, ok
}

// Duration возвращает время жизни сессии
func (c *SessionContext) Duration() time.Duration {
	return time.Since(c.StartTime)
}
