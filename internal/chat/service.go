// Package chat implements the question-answering flow: validate, record the
// user turn, retrieve similar chunks, generate an answer, record it.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docchat/docchat/internal/llm"
	"github.com/docchat/docchat/internal/models"
	"github.com/docchat/docchat/internal/session"
	"github.com/docchat/docchat/pkg/utils"
	"go.uber.org/zap"
)

// Validation errors returned by Ask.
var (
	ErrEmptyQuestion  = errors.New("question is required")
	ErrMissingSession = errors.New("session identifier is required")
)

// ContextRetriever returns the chunk texts most relevant to a query.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string) ([]string, error)
}

// Service answers questions against the indexed corpus, keeping a per-session
// transcript.
type Service struct {
	sessions  *session.Store
	retriever ContextRetriever
	generator llm.Generator
	// latestOnly searches with only the newest question. The default (false)
	// matches the observed contract: the entire transcript is the similarity
	// query, so retrieval drifts as history grows.
	latestOnly bool
	logger     *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLatestOnlyRetrieval restricts the similarity query to the newest question
// while the generator still sees the full transcript.
func WithLatestOnlyRetrieval() Option {
	return func(s *Service) { s.latestOnly = true }
}

// WithLogger sets a logger for request events.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a chat service.
func NewService(sessions *session.Store, retriever ContextRetriever, generator llm.Generator, opts ...Option) *Service {
	s := &Service{
		sessions:  sessions,
		retriever: retriever,
		generator: generator,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask runs one question through the session transcript, retrieval, and
// generation, returning the answer. Requests for the same session id are
// serialized; unrelated sessions proceed concurrently.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	if sessionID == "" {
		return "", ErrMissingSession
	}

	sess := s.sessions.Get(sessionID)
	sess.Lock()
	defer sess.Unlock()

	sess.Append(models.RoleUser, question)
	transcript := formatTranscript(sess.Messages())

	query := transcript
	if s.latestOnly {
		query = question
	}
	chunks, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}

	answer, err := s.generator.Generate(ctx, transcript, chunks)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	sess.Append(models.RoleAssistant, answer)

	s.logger.Debug("chat turn completed",
		zap.String("session_id", sessionID),
		zap.String("question", utils.Truncate(question, 80)),
		zap.Int("retrieved_chunks", len(chunks)),
	)
	return answer, nil
}

// Transcript returns a copy of the transcript for a session id, or nil for an
// unknown session. Intended for diagnostics and tests.
func (s *Service) Transcript(sessionID string) []models.ChatMessage {
	sess := s.sessions.Get(sessionID)
	sess.Lock()
	defer sess.Unlock()
	return sess.Messages()
}

// formatTranscript renders messages as "role: content" lines in transcript order.
func formatTranscript(messages []models.ChatMessage) string {
	lines := make([]string, len(messages))
	for i, m := range messages {
		lines[i] = m.Role + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}
