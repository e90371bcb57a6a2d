package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"example.com/me/wsrelay/internal/constants"
	"example.com/me/wsrelay/internal/logger"
	"example.com/me/wsrelay/internal/metrics"
	"example.com/me/wsrelay/internal/plugin"
)

// Session пара WebSocket соединения клиента и TCP соединения к backend.
// Session единолично владеет обоими соединениями.
type Session struct {
	id      string
	ws      *websocket.Conn
	backend net.Conn
	peer    netip.AddrPort
	sctx    *plugin.SessionContext
	bridge  *Bridge

	closeOnce sync.Once
}

// pumpResult результат одного направления пересылки
type pumpResult struct {
	direction string
	err       error
}

// run запускает оба направления и ждет завершения сессии.
// Первое завершившееся направление закрывает оба соединения,
// ошибка второго направления после этого только логируется.
func (s *Session) run(parent context.Context) error {
	// Остановка сервера обрабатывается ниже, чтобы закрыть WebSocket с кодом GoingAway,
	// поэтому контекст пересылки не наследует отмену parent.
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	defer cancel()

	done := make(chan pumpResult, 2)

	go func() {
		done <- pumpResult{direction: constants.DirectionSent, err: s.inboundPump(ctx)}
	}()

	go func() {
		done <- pumpResult{direction: constants.DirectionReceived, err: s.outboundPump(ctx)}
	}()

	var first pumpResult
	select {
	case first = <-done:
		if first.err != nil {
			s.teardown(websocket.StatusInternalError, ErrorKind(first.err))
		} else {
			s.teardown(websocket.StatusNormalClosure, "")
		}
	case <-parent.Done():
		logger.Debug(constants.ComponentProxy, "Session %s: server is stopping", s.id)
		s.teardown(websocket.StatusGoingAway, "server shutting down")
		first = <-done
		first.err = nil
	}
	cancel()

	second := <-done
	if second.err != nil {
		logger.Debug(constants.ComponentProxy, "Session %s: %s direction stopped after shutdown: %v", s.id, second.direction, second.err)
	}

	return first.err
}

// teardown закрывает оба соединения. Повторные вызовы ничего не делают.
// Ответ клиента на close frame ждется не дольше closeTimeout, затем сессия
// продолжает завершение, а handshake досрочно обрывается отменой контекста в run.
func (s *Session) teardown(code websocket.StatusCode, reason string) {
	s.closeOnce.Do(func() {
		if err := s.backend.Close(); err != nil {
			logger.Debug(constants.ComponentProxy, "Session %s: backend close: %v", s.id, err)
		}

		done := make(chan error, 1)
		go func() {
			done <- s.ws.Close(code, reason)
		}()

		timer := time.NewTimer(s.bridge.closeTimeout)
		defer timer.Stop()

		select {
		case err := <-done:
			if err != nil {
				logger.Debug(constants.ComponentProxy, "Session %s: websocket close: %v", s.id, err)
			}
		case <-timer.C:
			logger.Debug(constants.ComponentProxy, "Session %s: client did not answer close frame in %s", s.id, s.bridge.closeTimeout)
		}
	})
}

// writeProxyHeader отправляет PROXY protocol заголовок до любых данных клиента
func (s *Session) writeProxyHeader() error {
	header := ProxyHeader(s.peer.Addr())
	if _, err := io.WriteString(s.backend, header); err != nil {
		return fmt.Errorf("%w: PROXY header: %w", ErrWrite, err)
	}
	logger.Debug(constants.ComponentProxy, "Session %s: sent PROXY header %q", s.id, header)
	return nil
}

// inboundPump пересылает бинарные WebSocket сообщения в backend
func (s *Session) inboundPump(ctx context.Context) error {
	for {
		typ, data, err := s.ws.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				logger.Debug(constants.ComponentProxy, "[WS] Session %s closed by client (%v)", s.id, status)
				s.closeBackendWrite()
				return nil
			}
			return fmt.Errorf("%w: %w", ErrWSRead, err)
		}

		switch typ {
		case websocket.MessageBinary:
			if len(data) == 0 {
				continue
			}
			if _, err := s.backend.Write(data); err != nil {
				return fmt.Errorf("%w: %w", ErrWrite, err)
			}
			s.account(constants.DirectionSent, len(data))
		default:
			metrics.UnsupportedMessages.Inc()
			logger.Warn(constants.ComponentProxy, "Session %s: unsupported message type %v (%d bytes), skipped", s.id, typ, len(data))
		}
	}
}

// outboundPump читает backend блоками фиксированного размера и отправляет
// каждый блок отдельным бинарным WebSocket сообщением
func (s *Session) outboundPump(ctx context.Context) error {
	buf := make([]byte, s.bridge.readBufferSize)
	for {
		n, err := s.backend.Read(buf)
		if n > 0 {
			if werr := s.ws.Write(ctx, websocket.MessageBinary, buf[:n]); werr != nil {
				return fmt.Errorf("%w: %w", ErrWSWrite, werr)
			}
			s.account(constants.DirectionReceived, n)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Debug(constants.ComponentProxy, "[TCP] Session %s: connection is closed by backend", s.id)
				return nil
			}
			return fmt.Errorf("%w: %w", ErrTCPRead, err)
		}
	}
}

// closeBackendWrite закрывает пишущую половину backend соединения,
// чтобы backend получил конец потока
func (s *Session) closeBackendWrite() {
	hc, ok := s.backend.(interface{ CloseWrite() error })
	if !ok {
		return
	}
	if err := hc.CloseWrite(); err != nil {
		logger.Debug(constants.ComponentProxy, "Session %s: backend CloseWrite: %v", s.id, err)
	}
}

// account учитывает пересланный блок в контексте сессии, плагинах и метриках
func (s *Session) account(direction string, n int) {
	switch direction {
	case constants.DirectionSent:
		s.sctx.BytesSent.Add(int64(n))
	case constants.DirectionReceived:
		s.sctx.BytesReceived.Add(int64(n))
	}
	metrics.BytesTotal.WithLabelValues(direction).Add(float64(n))
	metrics.MessagesTotal.WithLabelValues(direction).Inc()
	s.bridge.plugins.OnDataTransfer(s.sctx, direction, int64(n))
}
