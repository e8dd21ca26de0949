// Package session keeps per-session chat transcripts in memory with bounded
// lifetime.
package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/docchat/docchat/internal/models"
)

const evictionInterval = time.Minute

// Session holds one transcript. Callers lock the session for the duration of a
// chat request so concurrent requests for the same session id are serialized
// without blocking unrelated sessions.
type Session struct {
	sync.Mutex
	messages []models.ChatMessage
	lastSeen time.Time
}

// Append adds a turn to the transcript. Callers must hold the session lock.
func (s *Session) Append(role, content string) {
	s.messages = append(s.messages, models.ChatMessage{Role: role, Content: content})
}

// Messages returns a copy of the transcript. Callers must hold the session lock.
func (s *Session) Messages() []models.ChatMessage {
	out := make([]models.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Store maps session ids to transcripts. Idle sessions are evicted after the TTL
// and the session count is capped; both bound memory for a process that would
// otherwise grow without limit.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	ttl         time.Duration
	maxSessions int
}

// NewStore creates a session store with the given idle TTL and session cap.
func NewStore(ttl time.Duration, maxSessions int) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if maxSessions <= 0 {
		maxSessions = 1000
	}
	return &Store{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		maxSessions: maxSessions,
	}
}

// Get returns the session for id, creating it on first use, and marks it as
// recently seen.
func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		if len(s.sessions) >= s.maxSessions {
			s.evictOldestLocked()
		}
		sess = &Session{}
		s.sessions[id] = sess
	}
	sess.lastSeen = time.Now()
	return sess
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Start runs the eviction loop until ctx is cancelled.
func (s *Store) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(evictionInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.EvictExpired()
			}
		}
	}()
}

// EvictExpired removes sessions idle longer than the TTL. A request already
// holding an evicted session finishes on its own copy; the next request for
// that id starts a fresh transcript.
func (s *Store) EvictExpired() {
	cutoff := time.Now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

// evictOldestLocked removes the least recently seen session to make room.
// Caller holds s.mu.
func (s *Store) evictOldestLocked() {
	type entry struct {
		id       string
		lastSeen time.Time
	}
	entries := make([]entry, 0, len(s.sessions))
	for id, sess := range s.sessions {
		entries = append(entries, entry{id, sess.lastSeen})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].lastSeen.Before(entries[j].lastSeen) })
	// Remove the oldest tenth so the cap is not hit again immediately.
	n := len(entries) / 10
	if n == 0 {
		n = 1
	}
	for _, e := range entries[:n] {
		delete(s.sessions, e.id)
	}
}
