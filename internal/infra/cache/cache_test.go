package cache_test

import (
	"testing"
	"time"

	"github.com/meorganiza/meorganiza-api/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[float64](5 * time.Minute)

	c.Set("portfolio:user-1", 1250.75)
	val, ok := c.Get("portfolio:user-1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != 1250.75 {
		t.Errorf("expected 1250.75, got %v", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	_, ok := c.Get("portfolio:unknown-user")
	if ok {
		t.Fatal("expected cache miss for absent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("banks", "cached-list")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("banks")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("portfolio:user-1", "summary")
	c.Delete("portfolio:user-1")

	_, ok := c.Get("portfolio:user-1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestCache_DeletePrefix(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("portfolio:user-1", "a")
	c.Set("portfolio:user-1:monthly", "b")
	c.Set("portfolio:user-2", "c")

	c.DeletePrefix("portfolio:user-1")

	if _, ok := c.Get("portfolio:user-1"); ok {
		t.Fatal("expected prefixed key to be removed")
	}
	if _, ok := c.Get("portfolio:user-1:monthly"); ok {
		t.Fatal("expected prefixed key to be removed")
	}
	if _, ok := c.Get("portfolio:user-2"); !ok {
		t.Fatal("expected unrelated user's entry to survive")
	}
}
