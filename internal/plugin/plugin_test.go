package plugin

import (
	"errors"
	"testing"
	"time"
)

func TestNewSessionContext(t *testing.T) {
	ctx := NewSessionContext("s-1", "127.0.0.1:1234", "127.0.0.1", "127.0.0.1:25565")

	if ctx.RemoteAddr != "127.0.0.1:1234" {
		t.Errorf("Expected RemoteAddr 127.0.0.1:1234, got %s", ctx.RemoteAddr)
	}

	if ctx.BackendAddress != "127.0.0.1:25565" {
		t.Errorf("Expected BackendAddress 127.0.0.1:25565, got %s", ctx.BackendAddress)
	}

	if ctx.StartTime.IsZero() {
		t.Error("Expected StartTime to be set")
	}

	// Проверяем что StartTime примерно сейчас
	now := time.Now()
	if ctx.StartTime.After(now) || ctx.StartTime.Before(now.Add(-time.Second)) {
		t.Errorf("StartTime should be approximately now, got %v", ctx.StartTime)
	}

	ctx.SetMetadata("k", 42)
	if v, ok := ctx.Metadata("k"); !ok || v != 42 {
		t.Errorf("Expected metadata k=42, got %v (%v)", v, ok)
	}
}

func TestManager_RegisterAndCall(t *testing.T) {
	manager := NewManager()

	mock := &mockPlugin{}
	manager.Register(mock)

	ctx := NewSessionContext("s-1", "127.0.0.1:1234", "127.0.0.1", "127.0.0.1:25565")
	if err := manager.OnSessionOpen(ctx); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := manager.OnBackendConnected(ctx); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	manager.OnDataTransfer(ctx, "sent", 10)
	manager.OnSessionClosed(ctx)

	if !mock.opened || !mock.connected || !mock.closed {
		t.Errorf("Expected all hooks to be called: %+v", mock)
	}
	if mock.transferred != 10 {
		t.Errorf("Expected 10 bytes transferred, got %d", mock.transferred)
	}

	if p, ok := manager.Plugin("mock"); !ok || p != mock {
		t.Error("Expected plugin lookup by name to succeed")
	}

	if err := manager.Close(); err != nil {
		t.Errorf("Expected no error on close, got %v", err)
	}
	if !mock.shutdown {
		t.Error("Expected Close to be called")
	}
}

func TestManager_OnSessionOpenReject(t *testing.T) {
	manager := NewManager()
	manager.Register(&mockPlugin{rejectErr: errors.New("denied")})

	ctx := NewSessionContext("s-1", "127.0.0.1:1234", "127.0.0.1", "127.0.0.1:25565")
	err := manager.OnSessionOpen(ctx)
	if err == nil {
		t.Fatal("Expected rejection error")
	}
}

type mockPlugin struct {
	rejectErr   error
	opened      bool
	connected   bool
	closed      bool
	shutdown    bool
	transferred int64
}

func (m *mockPlugin) Name() string {
	return "mock"
}

func (m *mockPlugin) Init(config map[string]interface{}) error {
	return nil
}

func (m *mockPlugin) Close() error {
	m.shutdown = true
	return nil
}

func (m *mockPlugin) OnSessionOpen(ctx *SessionContext) error {
	m.opened = true
	return m.rejectErr
}

func (m *mockPlugin) OnBackendConnected(ctx *SessionContext) error {
	m.connected = true
	return nil
}

func (m *mockPlugin) OnDataTransfer(ctx *SessionContext, direction string, bytes int64) {
	m.transferred += bytes
}

func (m *mockPlugin) OnSessionClosed(ctx *SessionContext) {
	m.closed = true
}
