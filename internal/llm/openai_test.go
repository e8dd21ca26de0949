package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/docchat/docchat/internal/provider"
)

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *OpenAIGenerator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := provider.NewClient(provider.Config{BaseURL: srv.URL, APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	g, err := NewOpenAIGenerator(client, "gpt-3.5-turbo", 0)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestGenerate_includesContextAndTranscript(t *testing.T) {
	var captured chatRequest
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		fmt.Fprintf(w, `{"choices": [{"message": {"role": "assistant", "content": "the answer"}}]}`)
	})

	answer, err := g.Generate(context.Background(), "user: what is X?", []string{"chunk one", "chunk two"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if answer != "the answer" {
		t.Errorf("answer: %q", answer)
	}
	if captured.Model != "gpt-3.5-turbo" || captured.Temperature != 0 {
		t.Errorf("model/temperature: %q/%v", captured.Model, captured.Temperature)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(captured.Messages))
	}
	sys := captured.Messages[0]
	if sys.Role != "system" || !strings.Contains(sys.Content, "chunk one") || !strings.Contains(sys.Content, "chunk two") {
		t.Errorf("system message: %+v", sys)
	}
	if captured.Messages[1].Role != "user" || captured.Messages[1].Content != "user: what is X?" {
		t.Errorf("user message: %+v", captured.Messages[1])
	}
}

func TestGenerate_noChoices(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"choices": []}`)
	})
	if _, err := g.Generate(context.Background(), "q", nil); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestGenerate_providerFailure(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, `{"error": {"message": "context too long"}}`)
	})
	if _, err := g.Generate(context.Background(), "q", nil); err == nil {
		t.Error("expected provider error")
	}
}

func TestNewOpenAIGenerator_requiresModel(t *testing.T) {
	if _, err := NewOpenAIGenerator(nil, "", 0); err == nil {
		t.Error("expected error for empty model")
	}
}
