package plugin

// Plugin базовый интерфейс для всех плагинов
type Plugin interface {
	// Name возвращает имя плагина
	Name() string
	// Init инициализирует плагин с конфигурацией
	Init(config map[string]interface{}) error
	// Close закрывает плагин и освобождает ресурсы
	Close() error
}

// SessionPlugin плагин для обработки открытия сессий
type SessionPlugin interface {
	Plugin
	// OnSessionOpen вызывается после WebSocket handshake, до подключения к backend.
	// Ошибка отклоняет сессию.
	OnSessionOpen(ctx *SessionContext) error
	// OnBackendConnected вызывается после успешного подключения к backend
	OnBackendConnected(ctx *SessionContext) error
}

// TrafficPlugin плагин для подсчета трафика
type TrafficPlugin interface {
	Plugin
	// OnDataTransfer вызывается для каждого пересланного блока данных
	OnDataTransfer(ctx *SessionContext, direction string, bytes int64)
	// OnSessionClosed вызывается при закрытии сессии
	OnSessionClosed(ctx *SessionContext)
}
