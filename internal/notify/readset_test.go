package notify

import (
	"context"
	"testing"
)

func TestMemoryReadSetAddIsIdempotent(t *testing.T) {
	store := NewMemoryReadSet()
	ctx := context.Background()

	added, err := store.Add(ctx, "u1", "t1")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !added {
		t.Error("first add should report newly added")
	}

	added, err = store.Add(ctx, "u1", "t1")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if added {
		t.Error("second add of same ticket should not report newly added")
	}
}

func TestMemoryReadSetScopedPerUser(t *testing.T) {
	store := NewMemoryReadSet()
	ctx := context.Background()

	if _, err := store.Add(ctx, "u1", "t1"); err != nil {
		t.Fatalf("add: %v", err)
	}

	has, err := store.Contains(ctx, "u2", "t1")
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if has {
		t.Error("u2 must not see u1's read set")
	}
}

func TestMemoryReadSetClear(t *testing.T) {
	store := NewMemoryReadSet()
	ctx := context.Background()

	if _, err := store.Add(ctx, "u1", "t1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Clear(ctx, "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	has, err := store.Contains(ctx, "u1", "t1")
	if err != nil {
		t.Fatalf("contains: %v", err)
	}
	if has {
		t.Error("cleared set should be empty")
	}
}
