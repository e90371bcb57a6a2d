package main

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

func TestPercentile(t *testing.T) {
	stats := NewStats()
	durations := []time.Duration{5, 1, 4, 2, 3}

	if got := stats.Percentile(durations, 0); got != 1 {
		t.Errorf("p0: ожидалось 1, получено %d", got)
	}
	if got := stats.Percentile(durations, 50); got != 3 {
		t.Errorf("p50: ожидалось 3, получено %d", got)
	}
	if got := stats.Percentile(durations, 100); got != 5 {
		t.Errorf("p100: ожидалось 5, получено %d", got)
	}
	if got := stats.Percentile(nil, 50); got != 0 {
		t.Errorf("Пустой слайс: ожидалось 0, получено %d", got)
	}
	if durations[0] != 5 {
		t.Error("Percentile не должен менять исходный слайс")
	}
}

func TestStats_Add(t *testing.T) {
	stats := NewStats()
	stats.Add(Result{Metrics: Metrics{Success: true, Handshake: time.Millisecond, RoundTrips: []time.Duration{1, 2}, BytesRead: 10}})
	stats.Add(Result{Metrics: Metrics{Error: "dial: refused", CloseStatus: "StatusBadGateway"}})

	if stats.Total != 2 || stats.Success != 1 {
		t.Errorf("Неверные счетчики: total=%d success=%d", stats.Total, stats.Success)
	}
	if stats.Errors["dial: refused"] != 1 || stats.CloseCodes["StatusBadGateway"] != 1 {
		t.Errorf("Неверная разбивка ошибок: %v %v", stats.Errors, stats.CloseCodes)
	}
	if len(stats.RoundTrip) != 2 || stats.TotalBytes != 10 {
		t.Errorf("Неверные round trip/байты: %v %d", stats.RoundTrip, stats.TotalBytes)
	}
}

func TestRunSession_Echo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}
			// Эхо двумя частями, как relay с маленьким буфером
			half := len(data) / 2
			conn.Write(r.Context(), websocket.MessageBinary, data[:half])
			conn.Write(r.Context(), websocket.MessageBinary, data[half:])
		}
	}))
	defer srv.Close()

	result := runSession("ws"+strings.TrimPrefix(srv.URL, "http"), sessionOptions{
		messages: 3,
		size:     64,
		timeout:  5 * time.Second,
		client:   http.DefaultClient,
	})

	if !result.Metrics.Success {
		t.Fatalf("Сессия должна быть успешной: %s", result.Metrics.Error)
	}
	if len(result.Metrics.RoundTrips) != 3 || result.Metrics.BytesRead != 192 {
		t.Errorf("Неверные метрики: %+v", result.Metrics)
	}
}

func TestRunSession_ClosedByRelay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		conn.Close(websocket.StatusBadGateway, "backend unavailable")
	}))
	defer srv.Close()

	result := runSession("ws"+strings.TrimPrefix(srv.URL, "http"), sessionOptions{
		messages: 1,
		size:     16,
		timeout:  5 * time.Second,
		client:   http.DefaultClient,
	})

	if result.Metrics.Success {
		t.Fatal("Сессия не должна быть успешной")
	}
	if result.Metrics.CloseStatus != websocket.StatusBadGateway.String() {
		t.Errorf("Ожидался код %s, получено %q (%s)", websocket.StatusBadGateway, result.Metrics.CloseStatus, result.Metrics.Error)
	}
}

func TestEchoBackend_SkipsProxyHeader(t *testing.T) {
	listener, err := startEchoBackend("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Ошибка запуска echo backend: %v", err)
	}
	defer listener.Close()

	conn, err := net.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	if _, err := io.WriteString(conn, "PROXY TCP4 192.0.2.1 127.0.0.1 25565 25565\r\npayload"); err != nil {
		t.Fatalf("Ошибка записи: %v", err)
	}

	buf := make([]byte, len("payload"))
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("Ошибка чтения: %v", err)
	}
	if string(buf) != "payload" {
		t.Errorf("Ожидалось payload, получено %q", buf)
	}
}

