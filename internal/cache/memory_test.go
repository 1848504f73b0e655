package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/aadidesign/SilentAlliance/internal/cache"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory("t")

	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != "v" {
		t.Fatalf("v = %q", v)
	}

	ok, _ := c.Exists(ctx, "k")
	if !ok {
		t.Fatal("k must exist")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !cache.IsNotFound(err) {
		t.Fatalf("got %v, want not found", err)
	}
}

func TestMemory_TTLExpires(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory("t")

	if err := c.Set(ctx, "k", "v", 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, err := c.Get(ctx, "k"); !cache.IsNotFound(err) {
		t.Fatalf("got %v, want not found tras expirar", err)
	}
}

func TestMemory_PrefixIsolation(t *testing.T) {
	ctx := context.Background()
	a := cache.NewMemory("a")
	b := cache.NewMemory("b")

	_ = a.Set(ctx, "k", "va", 0)
	if _, err := b.Get(ctx, "k"); !cache.IsNotFound(err) {
		t.Fatalf("los clientes no comparten backend: got %v", err)
	}
}

func TestFactory_DefaultsToMemory(t *testing.T) {
	c, err := cache.New(cache.Config{Driver: "memory", Prefix: "x"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
