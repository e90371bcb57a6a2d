package proxy

import (
	"errors"

	"example.com/me/wsrelay/internal/metrics"
)

// Ошибки сессии. Каждая завершает только свою сессию.
var (
	// ErrDial backend недоступен или отказал в подключении
	ErrDial = errors.New("backend dial failed")
	// ErrWrite ошибка записи в backend (PROXY заголовок или данные клиента)
	ErrWrite = errors.New("backend write failed")
	// ErrWSRead ошибка чтения или разбора WebSocket кадра
	ErrWSRead = errors.New("websocket read failed")
	// ErrWSWrite ошибка отправки WebSocket сообщения
	ErrWSWrite = errors.New("websocket write failed")
	// ErrTCPRead ошибка чтения из backend
	ErrTCPRead = errors.New("backend read failed")
	// ErrRejected сессия отклонена плагином
	ErrRejected = errors.New("session rejected")
)

// ErrorKind возвращает метку вида ошибки для метрик и логов
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrDial):
		return metrics.KindDial
	case errors.Is(err, ErrWrite):
		return metrics.KindWrite
	case errors.Is(err, ErrWSRead):
		return metrics.KindWSRead
	case errors.Is(err, ErrWSWrite):
		return metrics.KindWSWrite
	case errors.Is(err, ErrTCPRead):
		return metrics.KindTCPRead
	case errors.Is(err, ErrRejected):
		return metrics.KindRejected
	default:
		return metrics.KindOther
	}
}
