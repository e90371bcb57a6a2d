package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/me/wsrelay/internal/constants"
	"example.com/me/wsrelay/internal/logger"
	"example.com/me/wsrelay/internal/plugins/traffic"
)

// metricsServer отдает Prometheus метрики, health checks и статистику трафика
type metricsServer struct {
	addr       string
	srv        *Server
	listener   net.Listener
	httpServer *http.Server
}

func newMetricsServer(addr string, srv *Server) *metricsServer {
	m := &metricsServer{addr: addr, srv: srv}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if srv.closing.Load() || !srv.ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.HandleFunc("/stats", m.handleStats)

	m.httpServer = &http.Server{Handler: mux}
	return m
}

// statsResponse тело ответа /stats
type statsResponse struct {
	Version string                   `json:"version"`
	Backend string                   `json:"backend"`
	Clients map[string]traffic.Stats `json:"clients"`
}

func (m *metricsServer) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Version: constants.Version,
		Backend: m.srv.cfg.Backend.Address,
		Clients: map[string]traffic.Stats{},
	}
	if m.srv.traffic != nil {
		resp.Clients = m.srv.traffic.Snapshot()
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(resp)
}

// Start занимает адрес и обслуживает запросы в фоне
func (m *metricsServer) Start() error {
	ln, err := net.Listen("tcp", m.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", m.addr, err)
	}
	m.listener = ln

	logger.Info(constants.ComponentMetrics, "Metrics endpoint listening on http://%s/metrics", ln.Addr())

	go func() {
		if err := m.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(constants.ComponentMetrics, "Metrics server stopped: %v", err)
		}
	}()
	return nil
}

// Addr возвращает адрес endpoint
func (m *metricsServer) Addr() net.Addr {
	if m.listener == nil {
		return nil
	}
	return m.listener.Addr()
}

// Stop останавливает endpoint
func (m *metricsServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	return m.httpServer.Shutdown(ctx)
}
