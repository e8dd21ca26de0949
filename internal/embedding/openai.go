package embedding

import (
	"context"
	"fmt"

	"github.com/docchat/docchat/internal/provider"
	"github.com/docchat/docchat/pkg/utils"
)

// OpenAIEmbedder embeds text through an OpenAI-compatible /embeddings endpoint.
// Returned vectors are L2-normalized so inner product equals cosine similarity.
type OpenAIEmbedder struct {
	client     *provider.Client
	model      string
	dimensions int
}

// NewOpenAIEmbedder creates an embedder for the given model. dimensions is the
// expected vector size; responses with a different size are rejected so a model
// change cannot silently corrupt the index.
func NewOpenAIEmbedder(client *provider.Client, model string, dimensions int) (*OpenAIEmbedder, error) {
	if model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be positive")
	}
	return &OpenAIEmbedder{client: client, model: model, dimensions: dimensions}, nil
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding for a single text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one request, preserving input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var resp embeddingsResponse
	req := embeddingsRequest{Model: e.model, Input: texts}
	if err := e.client.Post(ctx, "/embeddings", req, &resp); err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embed batch: got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embed batch: index %d out of range", d.Index)
		}
		if len(d.Embedding) != e.dimensions {
			return nil, fmt.Errorf("embed batch: got %d dimensions, expected %d", len(d.Embedding), e.dimensions)
		}
		utils.NormalizeL2(d.Embedding)
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("embed batch: missing embedding for input %d", i)
		}
	}
	return vectors, nil
}

// Dimensions returns the embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int { return e.dimensions }

// Model returns the embedding model identifier.
func (e *OpenAIEmbedder) Model() string { return e.model }

// Close is a no-op; the underlying HTTP client has no resources to release.
func (e *OpenAIEmbedder) Close() error { return nil }
