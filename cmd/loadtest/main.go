package main

import (
	"bufio"
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/proxy"
	"nhooyr.io/websocket"
)

// sessionOptions параметры одной нагрузочной сессии
type sessionOptions struct {
	messages int
	size     int
	timeout  time.Duration
	client   *http.Client
}

// runSession открывает WebSocket сессию, отправляет сообщения и ждет их эхо от backend
func runSession(targetURL string, opts sessionOptions) Result {
	start := time.Now()
	result := Result{URL: targetURL}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, targetURL, &websocket.DialOptions{HTTPClient: opts.client})
	if err != nil {
		result.Metrics.Error = fmt.Sprintf("dial: %v", err)
		result.Metrics.TotalLatency = time.Since(start)
		return result
	}
	result.Metrics.Handshake = time.Since(start)
	defer conn.Close(websocket.StatusNormalClosure, "")

	payload := make([]byte, opts.size)
	for i := 0; i < opts.messages; i++ {
		if _, err := rand.Read(payload); err != nil {
			result.Metrics.Error = err.Error()
			break
		}

		sent := time.Now()
		if err := conn.Write(ctx, websocket.MessageBinary, payload); err != nil {
			result.fail("write", err)
			break
		}

		// Relay режет ответ backend на блоки, собираем эхо целиком
		var echo []byte
		for len(echo) < len(payload) {
			_, data, err := conn.Read(ctx)
			if err != nil {
				result.fail("read", err)
				break
			}
			echo = append(echo, data...)
		}
		if result.Metrics.Error != "" {
			break
		}

		rtt := time.Since(sent)
		if i == 0 {
			result.Metrics.FirstEcho = time.Since(start)
		}
		result.Metrics.RoundTrips = append(result.Metrics.RoundTrips, rtt)
		result.Metrics.BytesRead += int64(len(echo))

		if !bytes.Equal(echo, payload) {
			result.Metrics.Error = "echo mismatch"
			break
		}
	}

	if result.Metrics.Error == "" {
		result.Metrics.Success = true
	}
	result.Metrics.TotalLatency = time.Since(start)
	return result
}

// fail записывает ошибку сессии и код закрытия WebSocket, если он есть
func (r *Result) fail(op string, err error) {
	if status := websocket.CloseStatus(err); status != -1 {
		r.Metrics.CloseStatus = status.String()
		r.Metrics.Error = fmt.Sprintf("%s: closed with %s", op, status)
		return
	}
	r.Metrics.Error = fmt.Sprintf("%s: %v", op, err)
}

// createHTTPClient создает HTTP клиент для WebSocket handshake, опционально через SOCKS5
func createHTTPClient(proxyAddr string, insecure bool) (*http.Client, error) {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: insecure,
		},
	}

	if proxyAddr != "" {
		dialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		contextDialer, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("SOCKS5 dialer does not support context")
		}
		transport.DialContext = contextDialer.DialContext
	}

	return &http.Client{Transport: transport}, nil
}

// startEchoBackend запускает TCP backend, который возвращает все полученные байты.
// PROXY protocol заголовок, если он есть, пропускается.
func startEchoBackend(addr string) (net.Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start echo backend: %w", err)
	}

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go serveEcho(conn)
		}
	}()

	return listener, nil
}

func serveEcho(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	if prefix, err := reader.Peek(6); err == nil && string(prefix) == "PROXY " {
		if _, err := reader.ReadString('\n'); err != nil {
			return
		}
	}
	if _, err := io.Copy(conn, reader); err != nil && !errors.Is(err, net.ErrClosed) {
		fmt.Fprintf(os.Stderr, "echo backend: %v\n", err)
	}
}

// runLoadTest запускает нагрузочный тест
func runLoadTest(targetURL string, client *http.Client, concurrency, sessions int, opts sessionOptions) {
	stats := NewStats()
	opts.client = client

	semaphore := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	fmt.Printf("Starting load test: %d sessions, %d concurrent, %d messages of %d bytes each\n",
		sessions, concurrency, opts.messages, opts.size)
	fmt.Printf("Target: %s\n", targetURL)
	fmt.Println()

	startTime := time.Now()
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		semaphore <- struct{}{} // Acquire

		go func() {
			defer wg.Done()
			defer func() { <-semaphore }() // Release

			stats.Add(runSession(targetURL, opts))
		}()
	}

	wg.Wait()
	duration := time.Since(startTime)

	// Print report
	printReport(stats, duration)
}

func main() {
	var (
		targetURL   = flag.String("url", "ws://127.0.0.1:8080/", "Relay WebSocket URL")
		proxyAddr   = flag.String("proxy", "", "SOCKS5 proxy address for reaching the relay")
		echoListen  = flag.String("echo", "", "Start a built-in echo backend on this address")
		insecure    = flag.Bool("insecure", false, "Skip TLS certificate verification for wss://")
		concurrency = flag.Int("c", 10, "Number of concurrent sessions")
		sessions    = flag.Int("n", 100, "Total number of sessions")
		messages    = flag.Int("m", 10, "Messages per session")
		size        = flag.Int("size", 512, "Message size in bytes")
		timeout     = flag.Duration("timeout", 30*time.Second, "Timeout for one session")
	)
	flag.Parse()

	if *size < 8 {
		fmt.Fprintln(os.Stderr, "-size must be at least 8 bytes")
		os.Exit(2)
	}
	if !strings.HasPrefix(*targetURL, "ws://") && !strings.HasPrefix(*targetURL, "wss://") {
		fmt.Fprintln(os.Stderr, "-url must start with ws:// or wss://")
		os.Exit(2)
	}

	if *echoListen != "" {
		listener, err := startEchoBackend(*echoListen)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer listener.Close()
		fmt.Printf("Echo backend listening on %s\n", listener.Addr())
	}

	client, err := createHTTPClient(*proxyAddr, *insecure)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating HTTP client: %v\n", err)
		os.Exit(1)
	}

	runLoadTest(*targetURL, client, *concurrency, *sessions, sessionOptions{
		messages: *messages,
		size:     *size,
		timeout:  *timeout,
	})
}
