package cache

import (
	"bytes"
	"errors"
	"testing"
)

func TestMemoryCacheLRU(t *testing.T) {
	c := NewMemoryCache(10)

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Put(k, []byte("xxxx")); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}

	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be cached")
	}

	s := c.Stats()
	if s.Items != 2 || s.Size != 8 {
		t.Errorf("unexpected stats: %+v", s)
	}
	if s.Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", s.Evictions)
	}
}

func TestMemoryCacheTouchKeepsEntry(t *testing.T) {
	c := NewMemoryCache(8)
	_ = c.Put("a", []byte("1234"))
	_ = c.Put("b", []byte("1234"))
	c.Get("a")
	_ = c.Put("c", []byte("1234"))

	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry was evicted")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
}

func TestMemoryCacheReplace(t *testing.T) {
	c := NewMemoryCache(100)
	_ = c.Put("a", []byte("short"))
	_ = c.Put("a", []byte("a longer value"))

	got, _ := c.Get("a")
	if !bytes.Equal(got, []byte("a longer value")) {
		t.Errorf("got %q", got)
	}
	if s := c.Stats(); s.Size != int64(len("a longer value")) || s.Items != 1 {
		t.Errorf("unexpected stats: %+v", s)
	}
}

func TestMemoryCacheTooLarge(t *testing.T) {
	c := NewMemoryCache(3)
	if err := c.Put("a", []byte("toolong")); !errors.Is(err, ErrItemTooLarge) {
		t.Fatalf("expected ErrItemTooLarge, got %v", err)
	}
}

func TestMemoryCacheDeleteClear(t *testing.T) {
	c := NewMemoryCache(100)
	_ = c.Put("a", []byte("1"))
	_ = c.Put("b", []byte("2"))

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted entry still present")
	}

	c.Clear()
	if s := c.Stats(); s.Items != 0 || s.Size != 0 {
		t.Errorf("expected empty cache, got %+v", s)
	}
}

func TestHitRate(t *testing.T) {
	if r := (Stats{}).HitRate(); r != 0 {
		t.Errorf("expected 0, got %v", r)
	}
	if r := (Stats{Hits: 3, Misses: 1}).HitRate(); r != 0.75 {
		t.Errorf("expected 0.75, got %v", r)
	}
}

func TestKey(t *testing.T) {
	a := Key("kokoro", "af_heart", "hello")
	if a != Key("kokoro", "af_heart", "hello") {
		t.Error("key is not stable")
	}
	if a == Key("kokoro", "af_bella", "hello") {
		t.Error("voice does not affect key")
	}
	if Key("ab", "c", "") == Key("a", "bc", "") {
		t.Error("fields are not separated")
	}
	if len(a) != 64 {
		t.Errorf("expected hex sha256, got %d chars", len(a))
	}
}
