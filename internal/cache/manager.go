package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// Manager layers a MemoryCache over an optional DiskCache. Disk hits are
// promoted to memory.
type Manager struct {
	memory *MemoryCache
	disk   *DiskCache
}

// NewManager builds the cache tiers described by config and prunes disk
// entries older than config.TTL.
func NewManager(config Config) (*Manager, error) {
	m := &Manager{memory: NewMemoryCache(config.MemoryCapacity)}
	if config.DiskPath == "" {
		return m, nil
	}

	disk, err := NewDiskCache(config.DiskPath, config.DiskCapacity, config.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create disk cache: %w", err)
	}
	if config.TTL > 0 {
		if n := disk.RemoveOlderThan(time.Now().Add(-config.TTL)); n > 0 {
			log.Debug("Pruned expired audio cache entries", "count", n)
		}
	}
	m.disk = disk
	return m, nil
}

// DefaultDir returns the audio cache directory under the user cache dir.
func DefaultDir(app string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to find user cache directory: %w", err)
	}
	return filepath.Join(dir, app, "audio"), nil
}

// Get looks up key in memory, then on disk.
func (m *Manager) Get(key string) ([]byte, Level, bool) {
	if data, ok := m.memory.Get(key); ok {
		return data, LevelMemory, true
	}
	if m.disk == nil {
		return nil, LevelDisk, false
	}
	data, ok := m.disk.Get(key)
	if !ok {
		return nil, LevelDisk, false
	}
	_ = m.memory.Put(key, data)
	return data, LevelDisk, true
}

// Put stores value in every tier. Oversized values for one tier are not an
// error as long as another tier accepted them.
func (m *Manager) Put(key string, value []byte) error {
	memErr := m.memory.Put(key, value)
	if m.disk == nil {
		return memErr
	}
	diskErr := m.disk.Put(key, value)
	if memErr != nil && diskErr != nil {
		return diskErr
	}
	return nil
}

// Clear empties every tier.
func (m *Manager) Clear() error {
	m.memory.Clear()
	if m.disk != nil {
		return m.disk.Clear()
	}
	return nil
}

// Stats returns per-tier counters.
func (m *Manager) Stats() map[Level]Stats {
	s := map[Level]Stats{LevelMemory: m.memory.Stats()}
	if m.disk != nil {
		s[LevelDisk] = m.disk.Stats()
	}
	return s
}

// Close flushes the disk index.
func (m *Manager) Close() error {
	if m.disk != nil {
		return m.disk.Close()
	}
	return nil
}
