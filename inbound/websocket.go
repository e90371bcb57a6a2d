package inbound

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"nhooyr.io/websocket"

	"example.com/me/wsrelay/internal/constants"
	"example.com/me/wsrelay/internal/logger"
	"example.com/me/wsrelay/internal/metrics"
)

// Options параметры WebSocket слушателя
type Options struct {
	Listen         string
	Path           string
	OriginPatterns []string
	MaxMessageSize int64
	// TLSConfig включает wss://, nil - обычный ws://
	TLSConfig *tls.Config
}

// WebSocketInbound принимает WebSocket соединения и передает их handler
type WebSocketInbound struct {
	opts Options

	listener   *acceptListener
	httpServer *http.Server

	baseCtx context.Context
	cancel  context.CancelFunc

	// mu упорядочивает регистрацию сессий и ожидание в Stop
	mu       sync.Mutex
	sessions sync.WaitGroup
	stopped  atomic.Bool
	errs     chan error

	listen func(network, address string) (net.Listener, error)
}

// NewWebSocketInbound создает новый WebSocket inbound
func NewWebSocketInbound(opts Options) *WebSocketInbound {
	if opts.Path == "" {
		opts.Path = constants.DefaultPath
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = constants.DefaultMaxMessageSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocketInbound{
		opts:    opts,
		baseCtx: ctx,
		cancel:  cancel,
		errs:    make(chan error, 1),
		listen:  net.Listen,
	}
}

// Start занимает адрес и начинает принимать соединения в фоне
func (s *WebSocketInbound) Start(handler Handler) error {
	ln, err := s.listen("tcp", s.opts.Listen)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBind, s.opts.Listen, err)
	}

	s.listener = newAcceptListener(ln)

	var l net.Listener = s.listener
	scheme := "ws"
	if s.opts.TLSConfig != nil {
		l = tls.NewListener(l, s.opts.TLSConfig)
		scheme = "wss"
	}

	s.httpServer = &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.serveHTTP(w, r, handler)
		}),
		BaseContext: func(net.Listener) context.Context { return s.baseCtx },
	}

	logger.Info(constants.ComponentInbound, "Listening for %s://%s%s", scheme, ln.Addr(), s.opts.Path)

	go func() {
		err := s.httpServer.Serve(l)
		if s.stopped.Load() || errors.Is(err, http.ErrServerClosed) {
			return
		}
		s.errs <- fmt.Errorf("%w: listener stopped: %w", ErrAccept, err)
	}()

	return nil
}

// serveHTTP выполняет upgrade и обслуживает сессию на goroutine соединения
func (s *WebSocketInbound) serveHTTP(w http.ResponseWriter, r *http.Request, handler Handler) {
	if r.URL.Path != s.opts.Path {
		http.NotFound(w, r)
		return
	}

	// Hijacked соединения не отслеживаются http.Server, Stop ждет их сам
	if !s.trackSession() {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.sessions.Done()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.opts.OriginPatterns,
	})
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues(metrics.KindHandshake).Inc()
		logger.Warn(constants.ComponentInbound, "Connection from %s dropped: %v", r.RemoteAddr, fmt.Errorf("%w: %w", ErrHandshake, err))
		return
	}
	conn.SetReadLimit(s.opts.MaxMessageSize)

	logger.Debug(constants.ComponentInbound, "WebSocket connection accepted from %s", r.RemoteAddr)

	if err := handler(s.baseCtx, conn, r.RemoteAddr); err != nil {
		logger.Debug(constants.ComponentInbound, "Session from %s ended with error: %v", r.RemoteAddr, err)
	}
}

// trackSession регистрирует сессию, если Stop еще не вызван
func (s *WebSocketInbound) trackSession() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped.Load() {
		return false
	}
	s.sessions.Add(1)
	return true
}

// Stop закрывает слушатель и завершает активные сессии
func (s *WebSocketInbound) Stop() error {
	s.mu.Lock()
	if !s.stopped.CompareAndSwap(false, true) {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	s.cancel()

	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn(constants.ComponentInbound, "Timed out waiting for sessions to close")
	}

	logger.Info(constants.ComponentInbound, "WebSocket inbound stopped")
	return err
}

// Addr возвращает адрес слушателя или nil, если Start не вызывался
func (s *WebSocketInbound) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Errors возвращает канал фатальных ошибок слушателя
func (s *WebSocketInbound) Errors() <-chan error {
	return s.errs
}
