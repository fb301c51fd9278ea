package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fidde/rootcause/internal/bundle"
	"github.com/fidde/rootcause/internal/config"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type recorder struct {
	mu   sync.Mutex
	req  chatRequest
	path string
}

func (r *recorder) last() (chatRequest, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.req, r.path
}

// fakeChat serves a canned completion and records the last request.
func fakeChat(t *testing.T, reply string, status int) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got chatRequest
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		rec.mu.Lock()
		rec.req, rec.path = got, r.URL.Path
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream unavailable","type":"server_error"}}`))
			return
		}
		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   got.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openAIConfig() config.LLM {
	return config.LLM{
		OpenAIAPIKey: "sk-test",
		OpenAIModel:  "gpt-4o-mini",
		Temperature:  0.2,
		MaxTokens:    256,
		Timeout:      5 * time.Second,
	}
}

func TestNewNotConfigured(t *testing.T) {
	_, err := New(config.LLM{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Expected ErrNotConfigured, got %v", err)
	}
}

func TestAnalyzeError(t *testing.T) {
	srv, rec := fakeChat(t, "**Root Cause**: deadlock.\n**Impact**: payments failed.", http.StatusOK)

	c, err := New(openAIConfig(), WithBaseURL(srv.URL+"/v1"), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res := c.AnalyzeError(context.Background(), bundle.Input{Log: "ERROR Deadlock detected"})
	if !res.Success {
		t.Fatalf("Expected success, got error %q", res.Error)
	}
	if res.Parsed == nil || res.Parsed.RootCause != "deadlock." || res.Parsed.Impact != "payments failed." {
		t.Errorf("Unexpected parsed sections: %+v", res.Parsed)
	}

	req, path := rec.last()
	if path != "/v1/chat/completions" {
		t.Errorf("Expected /v1/chat/completions, got %s", path)
	}
	if req.Model != "gpt-4o-mini" {
		t.Errorf("Expected model gpt-4o-mini, got %s", req.Model)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[0].Content != bundle.SystemPrompt {
		t.Fatalf("Expected system prompt first, got %+v", req.Messages)
	}
	if !strings.Contains(req.Messages[1].Content, "ERROR Deadlock detected") {
		t.Errorf("User prompt should carry the log, got %q", req.Messages[1].Content)
	}
}

func TestAnalyzeErrorFailure(t *testing.T) {
	srv, _ := fakeChat(t, "", http.StatusInternalServerError)

	cfg := openAIConfig()
	c, err := New(cfg, WithBaseURL(srv.URL+"/v1"), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res := c.AnalyzeError(context.Background(), bundle.Input{Log: "x"})
	if res.Success {
		t.Fatal("Expected failure")
	}
	if res.Error == "" || res.Parsed != nil || res.Analysis != "" {
		t.Errorf("Failure result should only carry the error, got %+v", res)
	}

	if got := c.IncidentSummary(context.Background(), "log", "analysis"); got != SummaryUnavailable {
		t.Errorf("Expected %q, got %q", SummaryUnavailable, got)
	}
	if got := c.RelatedIssues(context.Background(), "Deadlock"); len(got) != 0 {
		t.Errorf("Expected no related issues, got %v", got)
	}
}

func TestIncidentSummaryTrims(t *testing.T) {
	srv, rec := fakeChat(t, "  Payments failed due to a deadlock.\n", http.StatusOK)

	c, err := New(openAIConfig(), WithBaseURL(srv.URL+"/v1"), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got := c.IncidentSummary(context.Background(), "log", "analysis")
	if got != "Payments failed due to a deadlock." {
		t.Errorf("Unexpected summary %q", got)
	}
	req, _ := rec.last()
	if req.Messages[0].Content != summarySystemPrompt {
		t.Errorf("Unexpected system prompt %q", req.Messages[0].Content)
	}
}

func TestRelatedIssues(t *testing.T) {
	reply := "- Lock wait timeouts\n\n- Connection pool exhaustion\n-  Transaction rollbacks\n- Slow queries\n- Replica lag"
	srv, _ := fakeChat(t, reply, http.StatusOK)

	c, err := New(openAIConfig(), WithBaseURL(srv.URL+"/v1"), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got := c.RelatedIssues(context.Background(), "Deadlock")
	want := []string{"Lock wait timeouts", "Connection pool exhaustion", "Transaction rollbacks", "Slow queries"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d issues, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Issue %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestAzureDeploymentPath(t *testing.T) {
	srv, rec := fakeChat(t, "ok", http.StatusOK)

	cfg := config.LLM{
		AzureAPIKey:     "azure-key",
		AzureEndpoint:   srv.URL,
		AzureDeployment: "gpt-4.1",
		AzureAPIVersion: "2024-08-01-preview",
	}
	c, err := New(cfg, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if res := c.AnalyzeError(context.Background(), bundle.Input{Log: "x"}); !res.Success {
		t.Fatalf("Expected success, got %q", res.Error)
	}
	req, path := rec.last()
	if path != "/openai/deployments/gpt-4.1/chat/completions" {
		t.Errorf("Unexpected Azure path %s", path)
	}
	if req.Model != "gpt-4.1" {
		t.Errorf("Expected deployment as model, got %s", req.Model)
	}
}

func TestBulletLines(t *testing.T) {
	got := bulletLines("a\n- b\n\n  - c  \n", 2)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Unexpected lines %v", got)
	}
}
