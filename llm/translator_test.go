package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"
)

func TestPrompt(t *testing.T) {
	got := Prompt("good morning", "en", "hi")
	for _, want := range []string{"from English to Hindi", "Output ONLY the translated text", "Text: good morning"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt %q lacks %q", got, want)
		}
	}
}

func TestChatTranslator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Model != "llama-3.3-70b-versatile" || req.MaxTokens != 1024 || req.Temperature != 0.3 {
			t.Errorf("request = %+v", req)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != openai.ChatMessageRoleUser {
			t.Errorf("messages = %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: " bonjour\n"}},
			},
		})
	}))
	defer srv.Close()

	tr := NewChatTranslator("key", srv.URL+"/v1", "llama-3.3-70b-versatile", 0, log.New(io.Discard))
	got, err := tr.Translate(context.Background(), "hello", "en", "fr")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "bonjour" {
		t.Errorf("got %q", got)
	}
}

func TestChatTranslatorAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid key","type":"auth"}}`))
	}))
	defer srv.Close()

	tr := NewChatTranslator("bad", srv.URL+"/v1", "m", 0, log.New(io.Discard))
	if _, err := tr.Translate(context.Background(), "hello", "en", "fr"); err == nil {
		t.Error("expected error")
	}
}
