package traffic

import (
	"sync"
	"testing"

	"example.com/me/wsrelay/internal/plugin"
)

func TestBaseCounter_Sessions(t *testing.T) {
	counter := NewBaseCounter()

	counter.OpenSession("test-id")
	counter.OpenSession("test-id")
	counter.CloseSession("test-id")
	stats := counter.GetStats("test-id")

	if stats.Sessions != 2 {
		t.Errorf("Expected 2 sessions, got %d", stats.Sessions)
	}
	if stats.ActiveSessions != 1 {
		t.Errorf("Expected 1 active session, got %d", stats.ActiveSessions)
	}
}

func TestBaseCounter_AddBytes(t *testing.T) {
	counter := NewBaseCounter()

	counter.AddBytes("test-id", 100, 200)
	stats := counter.GetStats("test-id")

	if stats.BytesSent != 100 {
		t.Errorf("Expected 100 bytes sent, got %d", stats.BytesSent)
	}

	if stats.BytesReceived != 200 {
		t.Errorf("Expected 200 bytes received, got %d", stats.BytesReceived)
	}

	if got := counter.GetStats("unknown"); got.Sessions != 0 || got.BytesSent != 0 {
		t.Errorf("Expected empty stats for unknown id, got %+v", got)
	}
}

func TestBaseCounter_Concurrent(t *testing.T) {
	counter := NewBaseCounter()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			counter.AddBytes("id", 1, 2)
		}()
	}
	wg.Wait()

	stats := counter.GetStats("id")
	if stats.BytesSent != 50 || stats.BytesReceived != 100 {
		t.Errorf("Expected 50/100 bytes, got %d/%d", stats.BytesSent, stats.BytesReceived)
	}
}

func TestClientCounter_Hooks(t *testing.T) {
	counter := NewClientCounter()
	if err := counter.Init(map[string]interface{}{"log_sessions": true}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	ctx := plugin.NewSessionContext("s-1", "192.0.2.1:50000", "192.0.2.1", "127.0.0.1:25565")

	if err := counter.OnSessionOpen(ctx); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	counter.OnDataTransfer(ctx, "sent", 10)
	counter.OnDataTransfer(ctx, "received", 30)
	counter.OnSessionClosed(ctx)

	stats := counter.GetStats("192.0.2.1")
	if stats.Sessions != 1 || stats.ActiveSessions != 0 {
		t.Errorf("Expected 1 closed session, got %+v", stats)
	}
	if stats.BytesSent != 10 || stats.BytesReceived != 30 {
		t.Errorf("Expected 10/30 bytes, got %d/%d", stats.BytesSent, stats.BytesReceived)
	}

	if len(counter.Snapshot()) != 1 {
		t.Errorf("Expected one client in snapshot, got %d", len(counter.Snapshot()))
	}
}

func TestClientCounter_SkipsUnknownClient(t *testing.T) {
	counter := NewClientCounter()

	ctx := plugin.NewSessionContext("s-1", "", "", "127.0.0.1:25565")
	_ = counter.OnSessionOpen(ctx)
	counter.OnDataTransfer(ctx, "sent", 10)

	if len(counter.Snapshot()) != 0 {
		t.Errorf("Expected empty snapshot, got %v", counter.Snapshot())
	}
}
