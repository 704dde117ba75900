package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/macrolog/internal/auth"
)

func withUser(userID string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID != "" {
			r = r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{UserID: userID}))
		}
		next.ServeHTTP(w, r)
	})
}

func waitForClients(t *testing.T, hub *Hub, userID string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.UserClientCount(userID) != n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d clients for %s", n, userID)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHandleWebSocketDelivers(t *testing.T) {
	hub := NewHub(testLogger())
	srv := httptest.NewServer(withUser("alice", HandleWebSocket(hub, testLogger(), nil)))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	waitForClients(t, hub, "alice", 1)
	hub.BroadcastTo("alice", NewMessage("food", "deleted", "food-1", nil))

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != "food_deleted" || got.ID != "food-1" {
		t.Errorf("unexpected message %+v", got)
	}

	conn.Close(ws.StatusNormalClosure, "")
	waitForClients(t, hub, "alice", 0)
}

func TestHandleWebSocketRequiresUser(t *testing.T) {
	hub := NewHub(testLogger())
	srv := httptest.NewServer(withUser("", HandleWebSocket(hub, testLogger(), nil)))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("response = %v, want 401", resp)
	}
}
