package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	p2n "github.com/PIP-Team-3/pip-final-project-sub000"
)

func TestInMemoryCache_SetAndGet(t *testing.T) {
	cache := NewInMemoryCache(1 * time.Second)
	defer cache.Close()
	ctx := context.Background()
	digest := "b9c1d1e2f3a4"
	result := &p2n.MaterializationResult{EnvironmentHash: "abc", DatasetBackend: "sklearn"}

	if err := cache.Set(ctx, digest, result); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := cache.Get(ctx, digest)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != result {
		t.Errorf("expected the identical result pointer, got %v", got)
	}
}

func TestInMemoryCache_Miss(t *testing.T) {
	cache := NewInMemoryCache(1 * time.Second)
	defer cache.Close()

	_, err := cache.Get(context.Background(), "unseen-digest")
	if err == nil {
		t.Fatal("expected not-found error on miss")
	}
}

func TestInMemoryCache_Expiration(t *testing.T) {
	cache := NewInMemoryCache(50 * time.Millisecond)
	defer cache.Close()
	ctx := context.Background()

	if err := cache.Set(ctx, "digest", &p2n.MaterializationResult{}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	time.Sleep(60 * time.Millisecond)
	if _, err := cache.Get(ctx, "digest"); err == nil {
		t.Error("expected error for expired entry, got nil")
	}
}

func TestInMemoryCache_Invalidate(t *testing.T) {
	cache := NewInMemoryCache(1 * time.Second)
	defer cache.Close()
	ctx := context.Background()

	if err := cache.Set(ctx, "digest", "value"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	cache.Invalidate("digest")
	if _, err := cache.Get(ctx, "digest"); err == nil {
		t.Error("expected miss after Invalidate")
	}
}

func TestInMemoryCache_CancelledContext(t *testing.T) {
	cache := NewInMemoryCache(1 * time.Second)
	defer cache.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := cache.Set(ctx, "digest", "value"); err == nil {
		t.Error("Set should fail with a cancelled context")
	}
	if _, err := cache.Get(ctx, "digest"); err == nil {
		t.Error("Get should fail with a cancelled context")
	}
}

func TestInMemoryCache_Concurrency(t *testing.T) {
	cache := NewInMemoryCache(1 * time.Second)
	defer cache.Close()
	ctx := context.Background()
	setErr := make(chan error, 1)
	getErr := make(chan error, 1)

	go func() {
		setErr <- cache.Set(ctx, "digest", "value")
	}()
	go func() {
		_, err := cache.Get(ctx, "digest")
		getErr <- err
	}()

	if err := <-setErr; err != nil {
		t.Errorf("Set failed: %v", err)
	}
	if err := <-getErr; err != nil && !strings.Contains(err.Error(), "cached result") {
		t.Errorf("unexpected Get error: %v", err)
	}
}
