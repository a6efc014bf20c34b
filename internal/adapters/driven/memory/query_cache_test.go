package memory

import (
	"context"
	"testing"
)

func TestQueryCache_GetPut(t *testing.T) {
	ctx := context.Background()
	c, err := NewQueryCache(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := c.Get(ctx, "rust"); ok {
		t.Error("expected miss on empty cache")
	}

	c.Put(ctx, "rust", []float32{1, 2})
	got, ok := c.Get(ctx, "rust")
	if !ok || got[1] != 2 {
		t.Fatalf("expected hit, got %v %v", got, ok)
	}

	// returned vectors are copies
	got[0] = 99
	again, _ := c.Get(ctx, "rust")
	if again[0] != 1 {
		t.Error("cache entry was mutated through a returned slice")
	}
}

func TestQueryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c, _ := NewQueryCache(2)

	c.Put(ctx, "a", []float32{1})
	c.Put(ctx, "b", []float32{2})
	c.Get(ctx, "a")
	c.Put(ctx, "c", []float32{3})

	if c.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", c.Len())
	}
	if _, ok := c.Get(ctx, "b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Error("expected a to survive")
	}
}

func TestNewQueryCache_DefaultSize(t *testing.T) {
	c, err := NewQueryCache(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c == nil {
		t.Fatal("expected cache")
	}
}
