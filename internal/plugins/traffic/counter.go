package traffic

import (
	"sync"
	"time"
)

// Stats представляет статистику трафика
type Stats struct {
	Sessions       int64     `json:"sessions"`        // Количество сессий
	ActiveSessions int64     `json:"active_sessions"` // Открытые сессии
	BytesSent      int64     `json:"bytes_sent"`      // Всего отправлено байт на backend
	BytesReceived  int64     `json:"bytes_received"`  // Всего получено байт от backend
	LastActivity   time.Time `json:"last_activity"`   // Время последней активности
}

// BaseCounter базовый счетчик трафика с thread-safe хранилищем
type BaseCounter struct {
	mu    sync.RWMutex
	stats map[string]*Stats // ID -> Stats
}

// NewBaseCounter создает новый базовый счетчик
func NewBaseCounter() *BaseCounter {
	return &BaseCounter{
		stats: make(map[string]*Stats),
	}
}

// entry возвращает запись для ID, создавая ее при необходимости. Вызывается под mu.
func (b *BaseCounter) entry(id string) *Stats {
	s := b.stats[id]
	if s == nil {
		s = &Stats{}
		b.stats[id] = s
	}
	return s
}

// GetStats возвращает статистику для указанного ID
func (b *BaseCounter) GetStats(id string) Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	stats, exists := b.stats[id]
	if !exists {
		return Stats{}
	}
	return *stats
}

// OpenSession увеличивает счетчик сессий
func (b *BaseCounter) OpenSession(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.entry(id)
	s.Sessions++
	s.ActiveSessions++
	s.LastActivity = time.Now()
}

// CloseSession уменьшает счетчик открытых сессий
func (b *BaseCounter) CloseSession(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.entry(id)
	if s.ActiveSessions > 0 {
		s.ActiveSessions--
	}
	s.LastActivity = time.Now()
}

// AddBytes добавляет байты к статистике
func (b *BaseCounter) AddBytes(id string, sent, received int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.entry(id)
	s.BytesSent += sent
	s.BytesReceived += received
	s.LastActivity = time.Now()
}

// GetAllStats возвращает копию всей статистики
func (b *BaseCounter) GetAllStats() map[string]Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make(map[string]Stats, len(b.stats))
	for id, stats := range b.stats {
		result[id] = *stats
	}
	return result
}
