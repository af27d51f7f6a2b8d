package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity.
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheCorrupted is returned when cache data cannot be decoded.
	ErrCacheCorrupted = errors.New("cache data corrupted")
)

// Level identifies a cache tier.
type Level int

const (
	// LevelMemory is the in-process LRU.
	LevelMemory Level = iota
	// LevelDisk is the persistent compressed store.
	LevelDisk
)

func (l Level) String() string {
	switch l {
	case LevelMemory:
		return "memory"
	case LevelDisk:
		return "disk"
	default:
		return "unknown"
	}
}

// Stats holds cache counters.
type Stats struct {
	Capacity  int64
	Size      int64
	Items     int64
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate returns hits / (hits + misses).
func (s Stats) HitRate() float64 {
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// Config holds configuration for a Manager.
type Config struct {
	MemoryCapacity   int64  // bytes
	DiskCapacity     int64  // bytes
	DiskPath         string // directory for cache files; empty disables disk
	CompressionLevel int    // zstd level, 0 disables compression
	TTL              time.Duration
}

// DefaultConfig returns the default cache configuration. DiskPath is left
// empty for the caller to fill in.
func DefaultConfig() Config {
	return Config{
		MemoryCapacity:   32 * 1024 * 1024,
		DiskCapacity:     100 * 1024 * 1024,
		CompressionLevel: 3,
		TTL:              7 * 24 * time.Hour,
	}
}

// Key derives the cache key for a chunk synthesized by backend with voice.
func Key(backend, voice, text string) string {
	h := sha256.New()
	h.Write([]byte(backend))
	h.Write([]byte{0})
	h.Write([]byte(voice))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
