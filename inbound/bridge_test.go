package inbound

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"example.com/me/wsrelay/outbound"
	"example.com/me/wsrelay/proxy"
)

// failFirstOutbound отказывает в первом подключении, остальные передает DirectOutbound
type failFirstOutbound struct {
	direct *outbound.DirectOutbound
	dials  atomic.Int32
}

func (o *failFirstOutbound) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if o.dials.Add(1) == 1 {
		return nil, errors.New("connection refused")
	}
	return o.direct.Dial(ctx, network, address)
}

// startTCPBackend запускает backend и передает в канал все, что прочитано из каждого соединения
func startTCPBackend(t *testing.T, echo bool) (string, <-chan []byte) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Не удалось запустить backend: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	received := make(chan []byte, 4)
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				c.SetDeadline(time.Now().Add(5 * time.Second))
				if echo {
					io.Copy(c, c)
					return
				}
				data, _ := io.ReadAll(c)
				received <- data
			}(conn)
		}
	}()

	return listener.Addr().String(), received
}

func TestWebSocketInbound_SurvivesBackendDialFailure(t *testing.T) {
	addr, _ := startTCPBackend(t, true)
	bridge := proxy.NewBridge(proxy.Options{
		BackendAddress: addr,
		Outbound:       &failFirstOutbound{direct: outbound.NewDirectOutbound()},
	})
	in := startInbound(t, Options{}, bridge.HandleSession)
	url := "ws://" + in.Addr().String() + "/"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}
	_, _, err = first.Read(ctx)
	if status := websocket.CloseStatus(err); status != websocket.StatusBadGateway {
		t.Errorf("Ожидался код %v, получено %v (%v)", websocket.StatusBadGateway, status, err)
	}

	// Слушатель продолжает принимать соединения после неудачной сессии
	roundTrip(t, url, nil)
}

func TestWebSocketInbound_PreservesByteOrder(t *testing.T) {
	addr, received := startTCPBackend(t, false)
	bridge := proxy.NewBridge(proxy.Options{BackendAddress: addr})
	in := startInbound(t, Options{}, bridge.HandleSession)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws://"+in.Addr().String()+"/", nil)
	if err != nil {
		t.Fatalf("Ошибка подключения: %v", err)
	}

	messages := [][]byte{
		{0x00, 0x01, 0x02},
		bytes.Repeat([]byte{0xab}, 4096),
		[]byte("handshake"),
		{0xff},
		bytes.Repeat([]byte{0x10, 0x20}, 1000),
	}
	var want []byte
	for _, msg := range messages {
		if err := conn.Write(ctx, websocket.MessageBinary, msg); err != nil {
			t.Fatalf("Ошибка отправки: %v", err)
		}
		want = append(want, msg...)
	}
	if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil {
		t.Logf("Close: %v", err)
	}

	select {
	case got := <-received:
		if !bytes.Equal(got, want) {
			t.Errorf("Backend получил %d байт вместо %d или в другом порядке", len(got), len(want))
		}
	case <-ctx.Done():
		t.Fatal("Backend не получил конец потока")
	}
}
