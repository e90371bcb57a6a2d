// Package metrics содержит Prometheus метрики relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Виды ошибок, значения метки "kind" у ErrorsTotal
const (
	KindAccept    = "accept"
	KindHandshake = "handshake"
	KindDial      = "dial"
	KindWrite     = "write"
	KindWSRead    = "ws_read"
	KindWSWrite   = "ws_write"
	KindTCPRead   = "tcp_read"
	KindRejected  = "rejected"
	KindOther     = "other"
)

var (
	ActiveSessions       = promauto.NewGauge(prometheus.GaugeOpts{Name: "wsrelay_active_sessions", Help: "Sessions currently bridged"})
	SessionsTotal        = promauto.NewCounter(prometheus.CounterOpts{Name: "wsrelay_sessions_total", Help: "WebSocket sessions accepted"})
	BytesTotal           = promauto.NewCounterVec(prometheus.CounterOpts{Name: "wsrelay_bytes_total", Help: "Bytes relayed by direction"}, []string{"direction"})
	MessagesTotal        = promauto.NewCounterVec(prometheus.CounterOpts{Name: "wsrelay_messages_total", Help: "Chunks relayed by direction"}, []string{"direction"})
	UnsupportedMessages  = promauto.NewCounter(prometheus.CounterOpts{Name: "wsrelay_unsupported_messages_total", Help: "Non-binary WebSocket messages skipped"})
	ErrorsTotal          = promauto.NewCounterVec(prometheus.CounterOpts{Name: "wsrelay_errors_total", Help: "Errors by kind"}, []string{"kind"})
	SessionDurationSecs  = promauto.NewHistogram(prometheus.HistogramOpts{Name: "wsrelay_session_duration_seconds", Help: "Session lifetime seconds", Buckets: prometheus.ExponentialBuckets(0.01, 2, 20)})
	BackendDialDurations = promauto.NewHistogram(prometheus.HistogramOpts{Name: "wsrelay_backend_dial_seconds", Help: "Backend dial latency", Buckets: prometheus.DefBuckets})
)
