package inbound

import (
	"errors"
	"net"
	"os"
	"syscall"
	"testing"
	"time"
)

// flakyListener возвращает заданные ошибки перед настоящими соединениями
type flakyListener struct {
	net.Listener
	errs []error
}

func (l *flakyListener) Accept() (net.Conn, error) {
	if len(l.errs) > 0 {
		err := l.errs[0]
		l.errs = l.errs[1:]
		return nil, err
	}
	return l.Listener.Accept()
}

// acceptError повторяет форму ошибки, которую возвращает net.TCPListener
func acceptError(errno syscall.Errno) error {
	return &net.OpError{Op: "accept", Net: "tcp", Err: os.NewSyscallError("accept", errno)}
}

func TestAcceptListener_RetriesAfterError(t *testing.T) {
	inner, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Ошибка запуска слушателя: %v", err)
	}
	defer inner.Close()

	flaky := &flakyListener{
		Listener: inner,
		errs:     []error{acceptError(syscall.EMFILE), acceptError(syscall.ECONNABORTED)},
	}

	l := newAcceptListener(flaky)
	var delays []time.Duration
	l.sleep = func(d time.Duration) { delays = append(delays, d) }

	go func() {
		conn, err := net.Dial("tcp", inner.Addr().String())
		if err == nil {
			defer conn.Close()
			time.Sleep(100 * time.Millisecond)
		}
	}()

	conn, err := l.Accept()
	if err != nil {
		t.Fatalf("Accept должен пережить временные ошибки: %v", err)
	}
	defer conn.Close()

	if len(delays) != 2 {
		t.Fatalf("Ожидалось 2 паузы, получено %d", len(delays))
	}
	for _, d := range delays {
		if d <= 0 || d > time.Second {
			t.Errorf("Пауза вне диапазона: %s", d)
		}
	}
	if _, ok := conn.(*net.TCPConn); !ok {
		t.Errorf("Ожидалось *net.TCPConn, получено %T", conn)
	}
}

func TestAcceptListener_StopsWhenClosed(t *testing.T) {
	inner, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Ошибка запуска слушателя: %v", err)
	}

	l := newAcceptListener(inner)
	l.sleep = func(time.Duration) { t.Error("Закрытый слушатель не должен повторять Accept") }
	inner.Close()

	if _, err := l.Accept(); !errors.Is(err, net.ErrClosed) {
		t.Errorf("Ожидалась net.ErrClosed, получено %v", err)
	}
}

func TestAcceptListener_ReturnsFatalError(t *testing.T) {
	inner, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Ошибка запуска слушателя: %v", err)
	}
	defer inner.Close()

	flaky := &flakyListener{Listener: inner, errs: []error{acceptError(syscall.EBADF)}}

	l := newAcceptListener(flaky)
	l.sleep = func(time.Duration) { t.Error("Невосстановимая ошибка не должна повторяться") }

	if _, err := l.Accept(); !errors.Is(err, syscall.EBADF) {
		t.Errorf("Ожидалась EBADF, получено %v", err)
	}
}

func TestIsTemporaryAcceptError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"EMFILE", acceptError(syscall.EMFILE), true},
		{"ENFILE", acceptError(syscall.ENFILE), true},
		{"ECONNABORTED", acceptError(syscall.ECONNABORTED), true},
		{"EINTR", acceptError(syscall.EINTR), true},
		{"timeout", os.ErrDeadlineExceeded, true},
		{"EBADF", acceptError(syscall.EBADF), false},
		{"EINVAL", acceptError(syscall.EINVAL), false},
		{"plain", errors.New("listener broken"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTemporaryAcceptError(tt.err); got != tt.want {
				t.Errorf("isTemporaryAcceptError(%v) = %v, ожидалось %v", tt.err, got, tt.want)
			}
		})
	}
}
