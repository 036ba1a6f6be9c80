package openaiLLM

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akolanti/notex/internal/domain/errorModel"
)

type completionRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{APIKey: "test", BaseURL: srv.URL + "/v1", Model: "test-model", Timeout: 5 * time.Second})
}

func TestComplete_SingleUserMessage(t *testing.T) {
	var got completionRequest
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "test-model",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "generated text"}}]
		}`))
	})

	out, err := client.Complete(context.Background(), "the whole prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "generated text" {
		t.Errorf("got %q", out)
	}
	if got.Model != "test-model" {
		t.Errorf("model = %q", got.Model)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "the whole prompt" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestComplete_ProviderError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "bad model", "type": "invalid_request_error"}}`))
	})

	_, err := client.Complete(context.Background(), "p")
	if !errors.Is(err, errorModel.ErrProviderFailure) {
		t.Fatalf("expected provider failure, got %v", err)
	}
}

func TestComplete_NoChoices(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "created": 1, "model": "test-model", "choices": []}`))
	})

	_, err := client.Complete(context.Background(), "p")
	if !errors.Is(err, errorModel.ErrProviderFailure) {
		t.Fatalf("expected provider failure, got %v", err)
	}
}
