package traffic

import (
	"github.com/jpillora/sizestr"

	"example.com/me/wsrelay/internal/constants"
	"example.com/me/wsrelay/internal/logger"
	"example.com/me/wsrelay/internal/plugin"
)

// PluginName имя плагина в конфигурации
const PluginName = "traffic"

// ClientCounter плагин для подсчета трафика по IP клиента
type ClientCounter struct {
	counter     *BaseCounter
	logSessions bool
}

// NewClientCounter создает новый ClientCounter плагин
func NewClientCounter() *ClientCounter {
	return &ClientCounter{
		counter: NewBaseCounter(),
	}
}

// Name возвращает имя плагина
func (c *ClientCounter) Name() string {
	return PluginName
}

// Init инициализирует плагин. Поддерживается опция log_sessions (bool).
func (c *ClientCounter) Init(config map[string]interface{}) error {
	if v, ok := config["log_sessions"].(bool); ok {
		c.logSessions = v
	}
	logger.Debug(constants.ComponentPlugin, "ClientCounter initialized (log_sessions=%v)", c.logSessions)
	return nil
}

// Close закрывает плагин
func (c *ClientCounter) Close() error {
	logger.Debug(constants.ComponentPlugin, "ClientCounter closed")
	return nil
}

// OnSessionOpen вызывается при новой сессии
func (c *ClientCounter) OnSessionOpen(ctx *plugin.SessionContext) error {
	if ctx.ClientIP == "" {
		return nil
	}
	c.counter.OpenSession(ctx.ClientIP)
	return nil
}

// OnBackendConnected ничего не считает, подключение к backend уже учтено в сессии
func (c *ClientCounter) OnBackendConnected(ctx *plugin.SessionContext) error {
	return nil
}

// OnDataTransfer вызывается при передаче данных
func (c *ClientCounter) OnDataTransfer(ctx *plugin.SessionContext, direction string, bytes int64) {
	if ctx.ClientIP == "" {
		return
	}

	switch direction {
	case constants.DirectionSent:
		c.counter.AddBytes(ctx.ClientIP, bytes, 0)
	case constants.DirectionReceived:
		c.counter.AddBytes(ctx.ClientIP, 0, bytes)
	}
}

// OnSessionClosed вызывается при закрытии сессии
func (c *ClientCounter) OnSessionClosed(ctx *plugin.SessionContext) {
	if ctx.ClientIP == "" {
		return
	}
	c.counter.CloseSession(ctx.ClientIP)

	if c.logSessions {
		stats := c.counter.GetStats(ctx.ClientIP)
		logger.Info(constants.ComponentPlugin, "Client %s: sessions=%d, total sent=%s, received=%s",
			ctx.ClientIP, stats.Sessions, sizestr.ToString(stats.BytesSent), sizestr.ToString(stats.BytesReceived))
	}
}

// GetStats возвращает статистику для указанного IP
func (c *ClientCounter) GetStats(clientIP string) Stats {
	return c.counter.GetStats(clientIP)
}

// Snapshot возвращает статистику по всем клиентам
func (c *ClientCounter) Snapshot() map[string]Stats {
	return c.counter.GetAllStats()
}
