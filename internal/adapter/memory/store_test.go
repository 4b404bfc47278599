package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/types"
)

func TestStore_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	t0 := time.Now()

	if err := s.Set(ctx, "k", []byte("new"), t0.Add(time.Second)); err != nil {
		t.Fatalf("set: %v", err)
	}
	// An older write arriving late must not win.
	if err := s.Set(ctx, "k", []byte("old"), t0); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "new" {
		t.Fatalf("got %q, want new", got)
	}
}

func TestStore_DeleteIsTimestamped(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	t0 := time.Now()

	_ = s.Set(ctx, "k", []byte("v1"), t0)
	_ = s.Delete(ctx, "k", t0.Add(2*time.Second))

	if _, err := s.Get(ctx, "k"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Stale write does not resurrect the key.
	_ = s.Set(ctx, "k", []byte("stale"), t0.Add(time.Second))
	if _, err := s.Get(ctx, "k"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("stale write resurrected key: %v", err)
	}

	_ = s.Set(ctx, "k", []byte("v2"), t0.Add(3*time.Second))
	if got, _ := s.Get(ctx, "k"); string(got) != "v2" {
		t.Fatalf("got %q, want v2", got)
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	buf := []byte("abc")
	_ = s.Set(ctx, "k", buf, time.Now())
	buf[0] = 'x'

	got, _ := s.Get(ctx, "k")
	got[1] = 'y'

	again, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("store shares memory with callers: %q", again)
	}
}
