package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, userID string) *Client {
	return &Client{
		hub:    hub,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(testLogger())

	c1 := mockClient(hub, "alice")
	c2 := mockClient(hub, "alice")
	c3 := mockClient(hub, "bob")

	hub.Register(c1)
	hub.Register(c2)
	hub.Register(c3)

	if got := hub.ClientCount(); got != 3 {
		t.Fatalf("expected 3 clients, got %d", got)
	}
	if got := hub.UserClientCount("alice"); got != 2 {
		t.Fatalf("expected 2 alice clients, got %d", got)
	}

	hub.Unregister(c1)
	hub.Unregister(c2)

	if got := hub.UserClientCount("alice"); got != 0 {
		t.Fatalf("expected 0 alice clients after unregister, got %d", got)
	}
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("expected 1 client, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(testLogger())
	c := mockClient(hub, "alice")
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic on the closed channel
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return got
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
	return Message{}
}

func TestBroadcastToIsPerUser(t *testing.T) {
	hub := NewHub(testLogger())

	alice1 := mockClient(hub, "alice")
	alice2 := mockClient(hub, "alice")
	bob := mockClient(hub, "bob")
	for _, c := range []*Client{alice1, alice2, bob} {
		hub.Register(c)
	}

	hub.BroadcastTo("alice", NewMessage("log_entry", "created", "entry-1", map[string]any{"date": "2025-01-15"}))

	for _, c := range []*Client{alice1, alice2} {
		got := receive(t, c)
		if got.Type != "log_entry_created" {
			t.Errorf("expected type log_entry_created, got %s", got.Type)
		}
		if got.ID != "entry-1" {
			t.Errorf("expected id entry-1, got %s", got.ID)
		}
	}

	select {
	case <-bob.send:
		t.Error("bob must not receive alice's messages")
	default:
	}
}

func TestBroadcastToNoClients(t *testing.T) {
	hub := NewHub(testLogger())
	// Should not panic
	hub.BroadcastTo("nobody", NewMessage("food", "deleted", "f1", nil))
}

func TestBroadcastFullBuffer(t *testing.T) {
	hub := NewHub(testLogger())

	c := mockClient(hub, "alice")
	hub.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		hub.BroadcastTo("alice", NewMessage("test", "fill", "", i))
	}

	// This should drop the message, not panic or block
	hub.BroadcastTo("alice", NewMessage("test", "dropped", "", nil))

	if got := len(c.send); got != sendBufferSize {
		t.Errorf("expected %d queued messages, got %d", sendBufferSize, got)
	}
	hub.Unregister(c)
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("profile", "updated", "p1", nil)
	if msg.Type != "profile_updated" {
		t.Errorf("expected type profile_updated, got %s", msg.Type)
	}
	if msg.Entity != "profile" || msg.Action != "updated" || msg.ID != "p1" {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(testLogger())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := "alice"
			if i%2 == 0 {
				user = "bob"
			}
			c := mockClient(hub, user)
			hub.Register(c)
			hub.BroadcastTo(user, NewMessage("test", "concurrent", "", nil))
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}(i)
	}

	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}
