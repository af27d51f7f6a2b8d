package cache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDiskCachePersists(t *testing.T) {
	dir := t.TempDir()
	value := bytes.Repeat([]byte("compressible "), 500)

	dc, err := NewDiskCache(dir, 1<<20, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := dc.Put("k1", value); err != nil {
		t.Fatal(err)
	}
	if s := dc.Stats(); s.Size >= int64(len(value)) {
		t.Errorf("expected compressed size below %d, got %d", len(value), s.Size)
	}
	if err := dc.Close(); err != nil {
		t.Fatal(err)
	}

	dc, err = NewDiskCache(dir, 1<<20, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer dc.Close() //nolint:errcheck

	got, ok := dc.Get("k1")
	if !ok {
		t.Fatal("entry lost after reopen")
	}
	if !bytes.Equal(got, value) {
		t.Error("value changed after round trip")
	}
}

func TestDiskCacheUncompressed(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1<<20, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer dc.Close() //nolint:errcheck

	value := bytes.Repeat([]byte("a"), 4096)
	_ = dc.Put("k", value)
	if s := dc.Stats(); s.Size != int64(len(value)) {
		t.Errorf("expected raw size, got %d", s.Size)
	}
}

func TestDiskCacheEviction(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer dc.Close() //nolint:errcheck

	_ = dc.Put("a", []byte("1234"))
	time.Sleep(2 * time.Millisecond)
	_ = dc.Put("b", []byte("1234"))
	time.Sleep(2 * time.Millisecond)
	_ = dc.Put("c", []byte("1234"))

	if _, ok := dc.Get("a"); ok {
		t.Error("expected oldest entry to be evicted")
	}
	if s := dc.Stats(); s.Evictions != 1 || s.Items != 2 {
		t.Errorf("unexpected stats: %+v", s)
	}
	if err := dc.Put("big", bytes.Repeat([]byte("x"), 11)); !errors.Is(err, ErrItemTooLarge) {
		t.Errorf("expected ErrItemTooLarge, got %v", err)
	}
}

func TestDiskCacheMissingFile(t *testing.T) {
	dir := t.TempDir()
	dc, err := NewDiskCache(dir, 1<<20, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer dc.Close() //nolint:errcheck

	_ = dc.Put("gone", []byte("data"))
	if err := os.Remove(filepath.Join(dir, "gone.cache")); err != nil {
		t.Fatal(err)
	}
	if _, ok := dc.Get("gone"); ok {
		t.Error("expected miss for deleted file")
	}
	if s := dc.Stats(); s.Items != 0 || s.Size != 0 {
		t.Errorf("stale entry kept: %+v", s)
	}
}

func TestDiskCacheRemoveOlderThan(t *testing.T) {
	dc, err := NewDiskCache(t.TempDir(), 1<<20, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer dc.Close() //nolint:errcheck

	_ = dc.Put("old", []byte("1"))
	cutoff := time.Now().Add(time.Millisecond)
	time.Sleep(3 * time.Millisecond)
	_ = dc.Put("new", []byte("2"))

	if n := dc.RemoveOlderThan(cutoff); n != 1 {
		t.Errorf("expected 1 removal, got %d", n)
	}
	if _, ok := dc.Get("new"); !ok {
		t.Error("new entry removed")
	}
}

func TestManagerPromotesDiskHits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DiskPath = t.TempDir()

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Put("k", []byte("audio")); err != nil {
		t.Fatal(err)
	}
	if _, lvl, ok := m.Get("k"); !ok || lvl != LevelMemory {
		t.Errorf("expected memory hit, got %v %v", lvl, ok)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}

	m, err = NewManager(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close() //nolint:errcheck

	data, lvl, ok := m.Get("k")
	if !ok || lvl != LevelDisk || string(data) != "audio" {
		t.Fatalf("expected disk hit, got %q %v %v", data, lvl, ok)
	}
	if _, lvl, _ := m.Get("k"); lvl != LevelMemory {
		t.Errorf("disk hit not promoted, got %v", lvl)
	}
	if got := len(m.Stats()); got != 2 {
		t.Errorf("expected stats for 2 levels, got %d", got)
	}
}

func TestManagerMemoryOnly(t *testing.T) {
	m, err := NewManager(Config{MemoryCapacity: 4})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Put("k", []byte("too large")); !errors.Is(err, ErrItemTooLarge) {
		t.Errorf("expected ErrItemTooLarge, got %v", err)
	}
	if _, _, ok := m.Get("k"); ok {
		t.Error("unexpected hit")
	}
	if err := m.Clear(); err != nil {
		t.Error(err)
	}
	if err := m.Close(); err != nil {
		t.Error(err)
	}
}
