package outbound

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestDirectOutbound_Dial(t *testing.T) {
	outbound := NewDirectOutbound()
	ctx := context.Background()

	// Тест: подключение к несуществующему адресу должно вернуть ошибку
	t.Run("dial invalid port", func(t *testing.T) {
		conn, err := outbound.Dial(ctx, "tcp", "127.0.0.1:99999")
		if err == nil {
			conn.Close()
			t.Error("Ожидалась ошибка при подключении к несуществующему адресу")
		}
	})

	// Тест: подключение к закрытому порту
	t.Run("dial refused", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("Ошибка создания слушателя: %v", err)
		}
		addr := listener.Addr().String()
		listener.Close()

		conn, err := outbound.Dial(ctx, "tcp", addr)
		if err == nil {
			conn.Close()
			t.Error("Ожидалась ошибка при подключении к закрытому порту")
		}
	})

	// Тест: подключение к локальному серверу
	t.Run("dial local server", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("Ошибка создания слушателя: %v", err)
		}
		defer listener.Close()

		conn, err := outbound.Dial(ctx, "tcp", listener.Addr().String())
		if err != nil {
			t.Fatalf("Ошибка подключения: %v", err)
		}
		defer conn.Close()

		// Проверяем, что это TCP соединение
		if _, ok := conn.(*net.TCPConn); !ok {
			t.Errorf("Ожидалось *net.TCPConn, получено %T", conn)
		}
	})

	// Тест: отмененный контекст прерывает подключение
	t.Run("canceled context", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("Ошибка создания слушателя: %v", err)
		}
		defer listener.Close()

		cctx, cancel := context.WithTimeout(ctx, time.Nanosecond)
		defer cancel()
		time.Sleep(time.Millisecond)

		conn, err := outbound.Dial(cctx, "tcp", listener.Addr().String())
		if err == nil {
			conn.Close()
			t.Error("Ожидалась ошибка при отмененном контексте")
		}
	})
}

func TestNewDirectOutbound(t *testing.T) {
	outbound := NewDirectOutbound()

	if outbound == nil {
		t.Fatal("NewDirectOutbound вернул nil")
	}

	if outbound.dialer == nil {
		t.Error("Dialer не инициализирован")
	}
}
