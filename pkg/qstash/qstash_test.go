package qstash

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{Token: "t"}); err == nil {
		t.Fatalf("expected error for missing url")
	}
	if _, err := NewClient(Config{URL: "not a url", Token: "t"}); err == nil {
		t.Fatalf("expected error for invalid url")
	}
	if _, err := NewClient(Config{URL: "https://qstash.example.com"}); err == nil {
		t.Fatalf("expected error for missing token")
	}
}

func TestPublish(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		_ = json.NewEncoder(w).Encode(map[string]string{"messageId": "msg_1"})
	}))
	defer srv.Close()

	client := MustNew(Config{URL: srv.URL + "/", Token: " secret "})
	id, err := client.Publish(context.Background(), "https://hooks.example.com/done", []byte(`{"ok":true}`))
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if id != "msg_1" {
		t.Fatalf("expected message id msg_1, got %q", id)
	}
	if gotPath != "/v2/publish/https://hooks.example.com/done" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected authorization %q", gotAuth)
	}
	if gotBody != `{"ok":true}` {
		t.Fatalf("unexpected body %q", gotBody)
	}
}

func TestPublishErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid token"}`))
	}))
	defer srv.Close()

	client := MustNew(Config{URL: srv.URL, Token: "bad"})
	_, err := client.Publish(context.Background(), "https://hooks.example.com/done", nil)
	if err == nil || !strings.Contains(err.Error(), "invalid token") {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestPublishRequiresDestination(t *testing.T) {
	t.Parallel()

	client := MustNew(Config{URL: "https://qstash.example.com", Token: "t"})
	if _, err := client.Publish(context.Background(), " ", nil); err == nil {
		t.Fatalf("expected error for empty destination")
	}
}
