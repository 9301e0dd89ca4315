package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kailas-cloud/docusort/internal/domain"
)

type chatRequest struct {
	Model          string  `json:"model"`
	Temperature    float32 `json:"temperature"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatServer(t *testing.T, status int, content string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4.1-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			}},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerator_Generate(t *testing.T) {
	var seen chatRequest
	srv := chatServer(t, http.StatusOK, "  NOI is $105,000.  ", &seen)

	gen := NewGenerator(newTestClient(srv.URL), "")
	answer, err := gen.Generate(context.Background(), "What is NOI?", "Source 1 (a.txt):\nRent 120000")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if answer != "NOI is $105,000." {
		t.Errorf("unexpected answer %q", answer)
	}

	if seen.Model != DefaultChatModel {
		t.Errorf("expected model %s, got %s", DefaultChatModel, seen.Model)
	}
	if seen.Temperature != answerTemperature {
		t.Errorf("expected temperature %v, got %v", answerTemperature, seen.Temperature)
	}
	if len(seen.Messages) != 2 || seen.Messages[0].Role != "system" {
		t.Fatalf("expected system+user messages, got %+v", seen.Messages)
	}
	user := seen.Messages[1].Content
	if !strings.HasPrefix(user, "Context:\nSource 1 (a.txt):") || !strings.HasSuffix(user, "Question:\nWhat is NOI?") {
		t.Errorf("unexpected user message %q", user)
	}
}

func TestGenerator_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
	}{
		{"server error", http.StatusInternalServerError, ""},
		{"blank completion", http.StatusOK, "   "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := chatServer(t, tc.status, tc.content, nil)
			gen := NewGenerator(newTestClient(srv.URL), "gpt-4.1-mini")

			_, err := gen.Generate(context.Background(), "q", "ctx")
			if !errors.Is(err, domain.ErrGenerationUnavailable) {
				t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
			}
		})
	}
}

func TestGenerator_CompleteJSON(t *testing.T) {
	var seen chatRequest
	reply := `{"name":"My Documents","type":"folder","children":[]}`
	srv := chatServer(t, http.StatusOK, reply, &seen)

	gen := NewGenerator(newTestClient(srv.URL), "gpt-4o")
	got, err := gen.CompleteJSON(context.Background(), "You output strictly valid JSON for folder trees.", "Files:\n- a.txt")
	if err != nil {
		t.Fatalf("CompleteJSON failed: %v", err)
	}
	if got != reply {
		t.Errorf("reply = %q", got)
	}
	if seen.Model != "gpt-4o" {
		t.Errorf("model = %s", seen.Model)
	}
	if seen.ResponseFormat == nil || seen.ResponseFormat.Type != "json_object" {
		t.Errorf("expected json_object response format, got %+v", seen.ResponseFormat)
	}
	if len(seen.Messages) != 2 || seen.Messages[0].Content != "You output strictly valid JSON for folder trees." ||
		seen.Messages[1].Content != "Files:\n- a.txt" {
		t.Errorf("unexpected messages %+v", seen.Messages)
	}
}

func TestGenerator_CompleteJSON_Errors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		status  int
		content string
	}{
		{"server error", http.StatusInternalServerError, ""},
		{"blank completion", http.StatusOK, " \n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv := chatServer(t, tc.status, tc.content, nil)
			gen := NewGenerator(newTestClient(srv.URL), "")

			if _, err := gen.CompleteJSON(context.Background(), "s", "u"); !errors.Is(err, domain.ErrGenerationUnavailable) {
				t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
			}
		})
	}
}
