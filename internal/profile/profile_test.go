package profile

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func newRedisStore(t *testing.T) (*RedisStore, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	store, err := NewRedisStoreURL(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("NewRedisStoreURL: %v", err)
	}
	return store, func() { _ = store.Close(); mr.Close() }
}

func runStoreSuite(t *testing.T, s Store) {
	ctx := context.Background()

	p, err := s.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load unknown: %v", err)
	}
	if p != nil {
		t.Fatalf("expected nil profile for unknown nickname, got %+v", p)
	}

	if err := s.Save(ctx, &Profile{PlayerID: "p1", Nickname: "Alice"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// lookup is nickname case-insensitive
	p, err = s.Load(ctx, "  ALICE ")
	if err != nil || p == nil {
		t.Fatalf("Load: %v %v", p, err)
	}
	if p.PlayerID != "p1" || p.UpdatedAt.IsZero() {
		t.Fatalf("unexpected profile: %+v", p)
	}

	if err := s.Delete(ctx, "alice"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if p, _ = s.Load(ctx, "alice"); p != nil {
		t.Fatalf("profile survived delete: %+v", p)
	}
}

func runHistorySuite(t *testing.T, s Store) {
	ctx := context.Background()

	for i := 0; i < historyCap+5; i++ {
		rec := GameRecord{Mode: "solo", Score: i * 10, PlayedAt: time.Now()}
		if err := s.AppendHistory(ctx, "p1", rec); err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}

	h, err := s.History(ctx, "p1", 3)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(h) != 3 {
		t.Fatalf("expected 3 records, got %d", len(h))
	}
	// newest first
	if h[0].Score != (historyCap+4)*10 {
		t.Fatalf("unexpected head record: %+v", h[0])
	}

	h, err = s.History(ctx, "p1", 0)
	if err != nil {
		t.Fatalf("History all: %v", err)
	}
	if len(h) != historyCap {
		t.Fatalf("ring not trimmed: %d records", len(h))
	}

	if h, _ = s.History(ctx, "nobody", 10); len(h) != 0 {
		t.Fatalf("expected empty history, got %d", len(h))
	}
}

func TestRedisStore(t *testing.T) {
	s, cleanup := newRedisStore(t)
	defer cleanup()
	runStoreSuite(t, s)
	runHistorySuite(t, s)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	runStoreSuite(t, s)
	runHistorySuite(t, s)
}
