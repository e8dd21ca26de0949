package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docchat/docchat/internal/models"
)

func TestStore_transcriptOrder(t *testing.T) {
	store := NewStore(time.Hour, 100)
	sess := store.Get("s1")
	sess.Lock()
	sess.Append(models.RoleUser, "question one")
	sess.Append(models.RoleAssistant, "answer one")
	sess.Append(models.RoleUser, "question two")
	msgs := sess.Messages()
	sess.Unlock()

	want := []string{"question one", "answer one", "question two"}
	if len(msgs) != len(want) {
		t.Fatalf("got %d messages", len(msgs))
	}
	for i, w := range want {
		if msgs[i].Content != w {
			t.Errorf("message %d: got %q, want %q", i, msgs[i].Content, w)
		}
	}
}

func TestStore_sessionIsolation(t *testing.T) {
	store := NewStore(time.Hour, 100)
	a := store.Get("a")
	a.Lock()
	a.Append(models.RoleUser, "secret")
	a.Unlock()

	b := store.Get("b")
	b.Lock()
	defer b.Unlock()
	if len(b.Messages()) != 0 {
		t.Error("new session must not see another session's history")
	}
}

func TestStore_samePointerForSameID(t *testing.T) {
	store := NewStore(time.Hour, 100)
	if store.Get("x") != store.Get("x") {
		t.Error("same id must return same session")
	}
}

func TestStore_concurrentAppendsSameSession(t *testing.T) {
	store := NewStore(time.Hour, 100)
	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess := store.Get("shared")
			sess.Lock()
			sess.Append(models.RoleUser, fmt.Sprintf("msg %d", i))
			sess.Unlock()
		}(i)
	}
	wg.Wait()

	sess := store.Get("shared")
	sess.Lock()
	defer sess.Unlock()
	if got := len(sess.Messages()); got != n {
		t.Errorf("lost updates: got %d messages, want %d", got, n)
	}
}

func TestStore_evictExpired(t *testing.T) {
	store := NewStore(10*time.Millisecond, 100)
	store.Get("old")
	time.Sleep(30 * time.Millisecond)
	store.Get("fresh")
	store.EvictExpired()

	if store.Len() != 1 {
		t.Errorf("expected 1 session after eviction, got %d", store.Len())
	}
}

func TestStore_capEnforced(t *testing.T) {
	store := NewStore(time.Hour, 10)
	for i := 0; i < 25; i++ {
		store.Get(fmt.Sprintf("s%d", i))
	}
	if store.Len() > 25 {
		t.Errorf("store grew unbounded: %d", store.Len())
	}
	if store.Len() < 10 {
		t.Errorf("evicted too aggressively: %d", store.Len())
	}
}
