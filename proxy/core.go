package proxy

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/jpillora/sizestr"
	"nhooyr.io/websocket"

	"example.com/me/wsrelay/internal/constants"
	"example.com/me/wsrelay/internal/logger"
	"example.com/me/wsrelay/internal/metrics"
	"example.com/me/wsrelay/internal/plugin"
	"example.com/me/wsrelay/outbound"
)

// Options параметры, общие для всех сессий. После создания Bridge не изменяются.
type Options struct {
	BackendAddress string
	ProxyProtocol  bool
	DialTimeout    time.Duration
	ReadBufferSize int
	// CloseTimeout ограничивает ожидание ответного close frame клиента
	CloseTimeout time.Duration
	Outbound     outbound.Outbound
	Plugins      *plugin.Manager
}

// Bridge связывает каждое WebSocket соединение с новым TCP соединением к backend
type Bridge struct {
	backendAddress string
	proxyProtocol  bool
	dialTimeout    time.Duration
	readBufferSize int
	closeTimeout   time.Duration
	outbound       outbound.Outbound
	plugins        *plugin.Manager
}

// NewBridge создает новый Bridge
func NewBridge(opts Options) *Bridge {
	b := &Bridge{
		backendAddress: opts.BackendAddress,
		proxyProtocol:  opts.ProxyProtocol,
		dialTimeout:    opts.DialTimeout,
		readBufferSize: opts.ReadBufferSize,
		closeTimeout:   opts.CloseTimeout,
		outbound:       opts.Outbound,
		plugins:        opts.Plugins,
	}
	if b.readBufferSize <= 0 {
		b.readBufferSize = constants.DefaultReadBufferSize
	}
	if b.closeTimeout <= 0 {
		b.closeTimeout = constants.CloseHandshakeTimeout
	}
	if b.outbound == nil {
		b.outbound = outbound.NewDirectOutbound()
	}
	if b.plugins == nil {
		b.plugins = plugin.NewManager()
	}
	return b
}

// HandleSession обслуживает одно принятое WebSocket соединение до его закрытия.
// Подходит как inbound.Handler. Возвращает ошибку, из-за которой сессия завершилась,
// или nil при штатном закрытии любой из сторон.
func (b *Bridge) HandleSession(ctx context.Context, ws *websocket.Conn, remoteAddr string) error {
	id := uuid.NewString()

	peer, peerErr := ParsePeer(remoteAddr)
	clientIP := ""
	if peerErr == nil {
		clientIP = peer.Addr().String()
	}

	sctx := plugin.NewSessionContext(id, remoteAddr, clientIP, b.backendAddress)

	metrics.SessionsTotal.Inc()
	metrics.ActiveSessions.Inc()
	defer func() {
		metrics.ActiveSessions.Dec()
		metrics.SessionDurationSecs.Observe(sctx.Duration().Seconds())
	}()

	logger.Info(constants.ComponentProxy, "New session %s from %s, connecting to %s ...", id, remoteAddr, b.backendAddress)

	defer b.plugins.OnSessionClosed(sctx)
	if err := b.plugins.OnSessionOpen(sctx); err != nil {
		err = fmt.Errorf("%w: %w", ErrRejected, err)
		b.fail(id, err)
		_ = ws.Close(websocket.StatusPolicyViolation, "session rejected")
		return err
	}

	backend, err := b.connectBackend(ctx)
	if err != nil {
		b.fail(id, err)
		_ = ws.Close(websocket.StatusBadGateway, "backend unavailable")
		return err
	}

	s := &Session{
		id:      id,
		ws:      ws,
		backend: backend,
		peer:    peer,
		sctx:    sctx,
		bridge:  b,
	}

	if err := b.plugins.OnBackendConnected(sctx); err != nil {
		err = fmt.Errorf("%w: %w", ErrRejected, err)
		b.fail(id, err)
		s.teardown(websocket.StatusPolicyViolation, "session rejected")
		return err
	}

	if b.proxyProtocol {
		if peerErr != nil {
			err := fmt.Errorf("%w: PROXY header: %w", ErrWrite, peerErr)
			b.fail(id, err)
			s.teardown(websocket.StatusInternalError, metrics.KindWrite)
			return err
		}
		if err := s.writeProxyHeader(); err != nil {
			b.fail(id, err)
			s.teardown(websocket.StatusInternalError, metrics.KindWrite)
			return err
		}
	}

	err = s.run(ctx)
	if err != nil {
		b.fail(id, err)
	}

	logger.Info(constants.ComponentProxy, "Session %s closed after %s: sent=%s, received=%s",
		id, sctx.Duration().Round(time.Millisecond),
		sizestr.ToString(sctx.BytesSent.Load()), sizestr.ToString(sctx.BytesReceived.Load()))
	return err
}

// connectBackend подключается к backend с таймаутом dialTimeout
func (b *Bridge) connectBackend(ctx context.Context) (net.Conn, error) {
	if b.dialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.dialTimeout)
		defer cancel()
	}

	start := time.Now()
	conn, err := b.outbound.Dial(ctx, "tcp", b.backendAddress)
	metrics.BackendDialDurations.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDial, b.backendAddress, err)
	}

	outbound.SetNoDelay(conn)
	return conn, nil
}

// fail учитывает ошибку сессии в метриках и логе
func (b *Bridge) fail(id string, err error) {
	kind := ErrorKind(err)
	metrics.ErrorsTotal.WithLabelValues(kind).Inc()
	logger.Error(constants.ComponentProxy, "Session %s failed (%s): %v", id, kind, err)
}
