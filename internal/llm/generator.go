// Package llm provides answer generation through a hosted chat-completions provider.
package llm

import "context"

// Generator produces an answer conditioned on retrieved context chunks and the
// session transcript.
type Generator interface {
	Generate(ctx context.Context, transcript string, contexts []string) (string, error)
	Close() error
}
