package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/imj25/digital-shield/internal/cache"
)

func TestStoreCreatesAndReusesSessions(t *testing.T) {
	st := NewStore(time.Minute, nil)
	ctx := context.Background()

	s, created := st.Get(ctx, "")
	if !created || s.ID == "" {
		t.Fatalf("expected fresh session, created=%v id=%q", created, s.ID)
	}

	again, created := st.Get(ctx, s.ID)
	if created || again != s {
		t.Fatalf("expected reuse of session %s", s.ID)
	}

	_, created = st.Get(ctx, "unknown-id")
	if !created {
		t.Fatalf("unknown ID should mint a new session")
	}
}

func TestStoreSweepsIdleSessions(t *testing.T) {
	st := NewStore(10*time.Millisecond, nil)
	ctx := context.Background()

	s, _ := st.Get(ctx, "")
	time.Sleep(25 * time.Millisecond)
	st.Get(ctx, "") // triggers the sweep

	if _, err := st.Lookup(s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired session to be swept, got %v", err)
	}
}

func TestResolvedPathSharedAcrossSessions(t *testing.T) {
	shared := cache.NewMemoryProvider()
	st := NewStore(time.Minute, shared)
	ctx := context.Background()

	first, _ := st.Get(ctx, "")
	st.RememberResolvedPath(ctx, first, "/api/v1/query")
	if first.ResolvedPath() != "/api/v1/query" {
		t.Fatalf("session copy not updated: %q", first.ResolvedPath())
	}

	second, _ := st.Get(ctx, "")
	if second.ResolvedPath() != "/api/v1/query" {
		t.Fatalf("new session should inherit shared path, got %q", second.ResolvedPath())
	}
}

func TestHistoryBounded(t *testing.T) {
	s := &Session{ID: "x"}
	for i := 0; i < maxHistory+10; i++ {
		s.Append("user", "question")
	}
	if got := len(s.History()); got != maxHistory {
		t.Fatalf("expected history capped at %d, got %d", maxHistory, got)
	}
}
