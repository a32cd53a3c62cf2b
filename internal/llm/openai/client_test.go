package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"resumegen/internal/llm"
	"resumegen/internal/profile"
)

func testInput() llm.GenerateInput {
	return llm.GenerateInput{
		Profile: profile.CandidateProfile{
			PersonalInfo: profile.PersonalInfo{Name: "Ada Lovelace", Email: "ada@example.com"},
		},
		JobDescription: "Research mathematician role",
		TemplateStyle:  profile.StyleModern,
	}
}

func withStubAPI(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	oldURL := apiURL
	server := httptest.NewServer(handler)
	apiURL = server.URL
	t.Cleanup(func() {
		apiURL = oldURL
		server.Close()
	})
}

func TestGenerateResumeSendsPromptAndReturnsContent(t *testing.T) {
	var mu sync.Mutex
	var lastBody map[string]any

	withStubAPI(t, func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		mu.Lock()
		lastBody = payload
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"\\documentclass{moderncv}"}}]}`))
	})

	client, err := NewClient("test-key", "gpt-4.1", 2048)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	out, err := client.GenerateResume(context.Background(), testInput())
	if err != nil {
		t.Fatalf("GenerateResume: %v", err)
	}
	if !strings.Contains(out, `\documentclass`) {
		t.Fatalf("unexpected content: %s", out)
	}

	mu.Lock()
	defer mu.Unlock()
	if lastBody["model"] != "gpt-4.1" {
		t.Fatalf("unexpected model: %v", lastBody["model"])
	}
	msgs, ok := lastBody["messages"].([]any)
	if !ok || len(msgs) != 2 {
		t.Fatalf("expected system+user messages, got %v", lastBody["messages"])
	}
	user := msgs[1].(map[string]any)
	if !strings.Contains(user["content"].(string), "Ada Lovelace") {
		t.Fatalf("prompt missing profile data")
	}
	if !strings.Contains(user["content"].(string), "Research mathematician role") {
		t.Fatalf("prompt missing job description")
	}
}

func TestGenerateResumeIncludesStrictMessageOnCorrectiveRetry(t *testing.T) {
	var mu sync.Mutex
	var msgCount int

	withStubAPI(t, func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var payload struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		mu.Lock()
		msgCount = len(payload.Messages)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"\\documentclass{moderncv}"}}]}`))
	})

	client, err := NewClient("test-key", "gpt-4.1", 2048)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx := llm.WithStrictPrompt(context.Background())
	if _, err := client.GenerateResume(ctx, testInput()); err != nil {
		t.Fatalf("GenerateResume: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if msgCount != 3 {
		t.Fatalf("expected corrective system message to be prepended, got %d messages", msgCount)
	}
}

func TestGenerateResumeClassifiesRateLimit(t *testing.T) {
	withStubAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_exceeded"}}`))
	})

	client, err := NewClient("test-key", "gpt-4.1", 2048)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.GenerateResume(context.Background(), testInput())
	if !errors.Is(err, llm.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestGenerateResumeReportsServerErrors(t *testing.T) {
	withStubAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	client, err := NewClient("test-key", "gpt-4.1", 2048)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.GenerateResume(context.Background(), testInput())
	if err == nil || !strings.Contains(err.Error(), "http status 503") {
		t.Fatalf("expected http status 503 error, got %v", err)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient("", "gpt-4.1", 0); err == nil {
		t.Fatalf("expected error for missing api key")
	}
	if _, err := NewClient("key", "", 0); err == nil {
		t.Fatalf("expected error for missing model")
	}
}
