package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestComplete(t *testing.T) {
	var received messagesRequest
	var gotKey, gotVersion, gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","content":[{"type":"text","text":"{\"name\":\"Egg\"}"}]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL), WithModel("test-model"))

	text, err := client.Complete(context.Background(), "parse 2 eggs")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	if text != `{"name":"Egg"}` {
		t.Errorf("text = %q", text)
	}
	if gotKey != "test-key" {
		t.Errorf("api key = %q, want %q", gotKey, "test-key")
	}
	if gotVersion != apiVersion {
		t.Errorf("anthropic-version = %q, want %q", gotVersion, apiVersion)
	}
	if gotPath != "/v1/messages" {
		t.Errorf("path = %q, want /v1/messages", gotPath)
	}
	if received.Model != "test-model" {
		t.Errorf("model = %q, want %q", received.Model, "test-model")
	}
	if received.MaxTokens != defaultMaxTokens {
		t.Errorf("max_tokens = %d, want %d", received.MaxTokens, defaultMaxTokens)
	}
	if len(received.Messages) != 1 || received.Messages[0].Role != "user" || received.Messages[0].Content != "parse 2 eggs" {
		t.Errorf("messages = %+v", received.Messages)
	}
}

func TestCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	if _, err := client.Complete(context.Background(), "x"); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestCompleteNonTextContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"tool_use","id":"t1"}]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	if _, err := client.Complete(context.Background(), "x"); err == nil {
		t.Fatal("expected error for non-text content")
	}
}

func TestCompleteEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	if _, err := client.Complete(context.Background(), "x"); err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestCompleteTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient("test-key", WithBaseURL(server.URL), WithTimeout(50*time.Millisecond))

	start := time.Now()
	if _, err := client.Complete(context.Background(), "x"); err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %v", elapsed)
	}
}

func TestWithTimeoutLeavesSharedClientAlone(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	shared := &http.Client{Timeout: time.Minute}
	client := NewClient("test-key",
		WithHTTPClient(shared),
		WithBaseURL(server.URL),
		WithTimeout(50*time.Millisecond),
	)
	if shared.Timeout != time.Minute {
		t.Errorf("shared client timeout = %v, want unchanged 1m", shared.Timeout)
	}

	start := time.Now()
	if _, err := client.Complete(context.Background(), "x"); err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %v", elapsed)
	}
}

func TestCompleteNotConfigured(t *testing.T) {
	client := NewClient("")
	_, err := client.Complete(context.Background(), "x")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}
