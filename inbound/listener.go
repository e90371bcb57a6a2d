package inbound

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/jpillora/backoff"

	"example.com/me/wsrelay/internal/constants"
	"example.com/me/wsrelay/internal/logger"
	"example.com/me/wsrelay/internal/metrics"
)

// acceptListener пропускает временные ошибки Accept с паузой вместо остановки сервера.
// Accept вызывается только из одного goroutine http.Server.
type acceptListener struct {
	net.Listener
	backoff *backoff.Backoff
	sleep   func(time.Duration)
}

func newAcceptListener(l net.Listener) *acceptListener {
	return &acceptListener{
		Listener: l,
		backoff: &backoff.Backoff{
			Min:    constants.AcceptBackoffMin,
			Max:    constants.AcceptBackoffMax,
			Factor: 2,
			Jitter: true,
		},
		sleep: time.Sleep,
	}
}

// Accept возвращает следующее соединение с включенным TCP_NODELAY.
// Возвращает ошибку, когда слушатель закрыт или ошибка не временная.
func (l *acceptListener) Accept() (net.Conn, error) {
	for {
		conn, err := l.Listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil, err
			}
			if !isTemporaryAcceptError(err) {
				metrics.ErrorsTotal.WithLabelValues(metrics.KindAccept).Inc()
				logger.Error(constants.ComponentInbound, "%v, listener cannot recover", fmt.Errorf("%w: %w", ErrAccept, err))
				return nil, err
			}
			delay := l.backoff.Duration()
			metrics.ErrorsTotal.WithLabelValues(metrics.KindAccept).Inc()
			logger.Error(constants.ComponentInbound, "%v, retrying in %s", fmt.Errorf("%w: %w", ErrAccept, err), delay)
			l.sleep(delay)
			continue
		}
		l.backoff.Reset()

		if tc, ok := conn.(*net.TCPConn); ok {
			if err := tc.SetNoDelay(true); err != nil {
				logger.Debug(constants.ComponentInbound, "Failed to set TCP_NODELAY for %s: %v", conn.RemoteAddr(), err)
			}
		}
		return conn, nil
	}
}

// isTemporaryAcceptError сообщает, может ли следующий Accept пройти успешно.
// Нехватка дескрипторов или памяти и оборванные клиентом соединения проходят сами,
// а, например, EBADF или EINVAL означают, что сокет слушателя больше не годен.
func isTemporaryAcceptError(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	for _, errno := range []syscall.Errno{
		syscall.EMFILE,
		syscall.ENFILE,
		syscall.ENOBUFS,
		syscall.ENOMEM,
		syscall.ECONNABORTED,
		syscall.ECONNRESET,
		syscall.EAGAIN,
		syscall.EINTR,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}

	var temp interface{ Temporary() bool }
	if errors.As(err, &temp) {
		return temp.Temporary()
	}
	return false
}
