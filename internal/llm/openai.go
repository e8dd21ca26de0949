package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/docchat/docchat/internal/provider"
)

// systemPrompt frames retrieval-augmented answering: the model answers from the
// supplied context and admits when it does not know.
const systemPrompt = "Use the following pieces of context to answer the question at the end. " +
	"If you don't know the answer, just say that you don't know, don't try to make up an answer.\n\n"

// OpenAIGenerator answers questions through an OpenAI-compatible
// /chat/completions endpoint.
type OpenAIGenerator struct {
	client      *provider.Client
	model       string
	temperature float64
}

// NewOpenAIGenerator creates a generator for the given chat model.
func NewOpenAIGenerator(client *provider.Client, model string, temperature float64) (*OpenAIGenerator, error) {
	if model == "" {
		return nil, fmt.Errorf("chat model is required")
	}
	return &OpenAIGenerator{client: client, model: model, temperature: temperature}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends the retrieved chunks as system context and the transcript as the
// user turn, returning the model's answer. Synchronous; no streaming.
func (g *OpenAIGenerator) Generate(ctx context.Context, transcript string, contexts []string) (string, error) {
	var sys strings.Builder
	sys.WriteString(systemPrompt)
	for i, c := range contexts {
		if i > 0 {
			sys.WriteString("\n\n")
		}
		sys.WriteString(c)
	}

	req := chatRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []chatMessage{
			{Role: "system", Content: sys.String()},
			{Role: "user", Content: transcript},
		},
	}
	var resp chatResponse
	if err := g.client.Post(ctx, "/chat/completions", req, &resp); err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generate: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Close is a no-op; the underlying HTTP client has no resources to release.
func (g *OpenAIGenerator) Close() error { return nil }
