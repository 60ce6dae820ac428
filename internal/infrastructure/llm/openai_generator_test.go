package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"astra/internal/domain/entity"
	"astra/internal/infrastructure/metrics"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{
    "index": 0,
    "finish_reason": "stop",
    "logprobs": null,
    "message": {"role": "assistant", "content": "X", "refusal": null}
  }],
  "usage": {"prompt_tokens": 11, "completion_tokens": 3, "total_tokens": 14}
}`

type chatRequest struct {
	Model               string  `json:"model"`
	Temperature         float64 `json:"temperature"`
	MaxCompletionTokens int64   `json:"max_completion_tokens"`
	Messages            []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestGenerator(t *testing.T, srv *httptest.Server, timeout time.Duration) (*OpenAIGenerator, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	g := NewOpenAIGenerator(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/",
		Timeout: timeout,
	}, m, nil)
	return g, m
}

func TestGenerateSendsRequestAndReturnsFirstChoice(t *testing.T) {
	var got chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.Error(w, "unexpected route", http.StatusNotFound)
			return
		}
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	}))
	defer srv.Close()

	g, m := newTestGenerator(t, srv, 5*time.Second)
	out, err := g.Generate(context.Background(), entity.CompletionRequest{
		System:      "sys",
		User:        "user prompt",
		Model:       "gpt-4o-mini",
		Temperature: 0.2,
		MaxTokens:   1200,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if out.Text != "X" {
		t.Errorf("Text = %q, want X", out.Text)
	}
	if out.PromptTokens != 11 || out.CompletionTokens != 3 {
		t.Errorf("usage = %d/%d, want 11/3", out.PromptTokens, out.CompletionTokens)
	}
	if auth != "Bearer test-key" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.Model != "gpt-4o-mini" || got.Temperature != 0.2 || got.MaxCompletionTokens != 1200 {
		t.Errorf("unexpected params: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[0].Content != "sys" ||
		got.Messages[1].Role != "user" || got.Messages[1].Content != "user prompt" {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
	if v := testutil.ToFloat64(m.LLMRequests.WithLabelValues("gpt-4o-mini")); v != 1 {
		t.Errorf("llm requests = %v, want 1", v)
	}
	if v := testutil.ToFloat64(m.LLMTokens.WithLabelValues("gpt-4o-mini", "prompt")); v != 11 {
		t.Errorf("prompt tokens = %v, want 11", v)
	}
}

func TestGenerateDefaultsModel(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	}))
	defer srv.Close()

	g, _ := newTestGenerator(t, srv, 0)
	if _, err := g.Generate(context.Background(), entity.CompletionRequest{User: "hi"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.Model != string(defaultModel) {
		t.Errorf("model = %q, want %q", got.Model, defaultModel)
	}
}

func TestGenerateProviderErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"upstream exploded","type":"server_error"}}`)
	}))
	defer srv.Close()

	g, m := newTestGenerator(t, srv, 5*time.Second)
	_, err := g.Generate(context.Background(), entity.CompletionRequest{User: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("provider called %d times, want 1", calls.Load())
	}
	if v := testutil.ToFloat64(m.Errors.WithLabelValues("llm", "api_error_500")); v != 1 {
		t.Errorf("api error counter = %v, want 1", v)
	}
}

func TestGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[]}`)
	}))
	defer srv.Close()

	g, _ := newTestGenerator(t, srv, 5*time.Second)
	_, err := g.Generate(context.Background(), entity.CompletionRequest{User: "hi"})
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Fatalf("expected no choices error, got %v", err)
	}
}

func TestGenerateTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	g, m := newTestGenerator(t, srv, 50*time.Millisecond)
	_, err := g.Generate(context.Background(), entity.CompletionRequest{User: "hi"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if v := testutil.ToFloat64(m.Errors.WithLabelValues("llm", "timeout")); v != 1 {
		t.Errorf("timeout counter = %v, want 1", v)
	}
}
