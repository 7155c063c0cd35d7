package openrouter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if client := NewClient(Config{BaseURL: "https://openrouter.ai/api/v1"}); client != nil {
		t.Fatalf("expected nil client without api key")
	}
}

func TestNewClientSendsAttributionHeaders(t *testing.T) {
	t.Parallel()

	var gotAuth, gotReferer, gotTitle string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReferer = r.Header.Get("HTTP-Referer")
		gotTitle = r.Header.Get("X-Title")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{
		BaseURL:  srv.URL + "/",
		APIKey:   " key ",
		SiteURL:  "https://example.com",
		SiteName: "pipeline",
	}, option.WithMaxRetries(0))
	if client == nil {
		t.Fatalf("expected client")
	}

	_, err := client.Chat.Completions.New(context.Background(), openaisdk.ChatCompletionNewParams{
		Model:    "m",
		Messages: []openaisdk.ChatCompletionMessageParamUnion{openaisdk.UserMessage("hi")},
	})
	if err != nil {
		t.Fatalf("completion returned error: %v", err)
	}
	if gotAuth != "Bearer key" {
		t.Fatalf("unexpected authorization %q", gotAuth)
	}
	if gotReferer != "https://example.com" || gotTitle != "pipeline" {
		t.Fatalf("unexpected attribution headers referer=%q title=%q", gotReferer, gotTitle)
	}
}

func TestConfigNewRequiresModel(t *testing.T) {
	t.Parallel()

	cfg := Config{APIKey: "key"}
	if _, err := cfg.New(context.Background()); err == nil {
		t.Fatalf("expected error without model")
	}
}

func TestConfigNewBuildsChatModel(t *testing.T) {
	t.Parallel()

	maxTokens := 100
	cfg := Config{BaseURL: "https://openrouter.ai/api/v1", APIKey: "key", Model: "x-ai/grok-4.1-fast", MaxCompletionToken: &maxTokens}
	m, err := cfg.New(context.Background())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if m == nil {
		t.Fatalf("expected chat model")
	}
}
