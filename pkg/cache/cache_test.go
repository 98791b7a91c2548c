package cache

import (
	"errors"
	"testing"
)

func TestNewCacheDisabled(t *testing.T) {
	c, err := NewCache("", false)
	if err != nil {
		t.Fatalf("disabled cache must not fail to construct: %v", err)
	}

	if err := c.Set("key", "value", 0); err != nil {
		t.Fatalf("disabled Set returned error: %v", err)
	}

	var dest string
	if err := c.Get("key", &dest); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("disabled Get: expected cache miss, got %v", err)
	}

	if _, err := c.GetCachedCartID(1); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("disabled GetCachedCartID: expected cache miss, got %v", err)
	}
	if err := c.InvalidateCartID(1); err != nil {
		t.Fatalf("disabled InvalidateCartID returned error: %v", err)
	}

	exists, err := c.Exists("key")
	if err != nil || exists {
		t.Fatalf("disabled Exists: expected (false, nil), got (%v, %v)", exists, err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("disabled Close returned error: %v", err)
	}
}

func TestNewCacheUnreachableRedis(t *testing.T) {
	if _, err := NewCache("127.0.0.1:1", true); err == nil {
		t.Fatalf("expected connection error for unreachable redis")
	}
}
