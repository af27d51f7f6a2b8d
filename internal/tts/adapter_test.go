package tts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgnsrekt/mailreader/internal/cache"
)

func newTestCache(t *testing.T) *cache.Manager {
	t.Helper()
	m, err := cache.NewManager(cache.Config{MemoryCapacity: 1 << 20})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestSynthesizeToFile(t *testing.T) {
	system := &fakeBackend{id: "system"}
	s := NewSynthesizer(newTestRegistry(t, system), nil)

	path := filepath.Join(t.TempDir(), "nested", "chunk_0.wav")
	if !s.SynthesizeToFile(context.Background(), "hello", path, "system") {
		t.Fatal("expected success")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "system:hello" {
		t.Errorf("file = %q", data)
	}
}

func TestSynthesizeToFileFailures(t *testing.T) {
	tests := []struct {
		name    string
		backend *fakeBackend
		text    string
	}{
		{"backend error", &fakeBackend{id: "system", failWith: errors.New("boom")}, "hi"},
		{"partial file removed", &fakeBackend{id: "system", partial: true, failWith: errors.New("boom")}, "hi"},
		{"no file written", &fakeBackend{id: "system", noFile: true}, "hi"},
		{"unavailable", &fakeBackend{id: "system", unavail: errMissing}, "hi"},
		{"empty text", &fakeBackend{id: "system"}, "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSynthesizer(newTestRegistry(t, tt.backend), nil)
			path := filepath.Join(t.TempDir(), "chunk.wav")

			if s.SynthesizeToFile(context.Background(), tt.text, path, "system") {
				t.Fatal("expected failure")
			}
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Errorf("file left behind: %v", err)
			}
		})
	}
}

func TestSynthesizeToFileFallsBack(t *testing.T) {
	system := &fakeBackend{id: "system"}
	kokoro := &fakeBackend{id: "kokoro", unavail: errMissing}
	s := NewSynthesizer(newTestRegistry(t, system, kokoro), nil)

	path := filepath.Join(t.TempDir(), "chunk.wav")
	if !s.SynthesizeToFile(context.Background(), "hi", path, "kokoro") {
		t.Fatal("expected fallback success")
	}
	if kokoro.calls.Load() != 0 || system.calls.Load() != 1 {
		t.Errorf("calls: kokoro=%d system=%d", kokoro.calls.Load(), system.calls.Load())
	}
}

func TestSynthesizerCachesResolution(t *testing.T) {
	system := &fakeBackend{id: "system"}
	s := NewSynthesizer(newTestRegistry(t, system), nil)
	dir := t.TempDir()

	for range 3 {
		s.SynthesizeToFile(context.Background(), "chunk", filepath.Join(dir, "c.wav"), "system")
	}
	if n := system.checks.Load(); n != 1 {
		t.Errorf("availability checked %d times", n)
	}

	s.Forget()
	s.SynthesizeToFile(context.Background(), "chunk", filepath.Join(dir, "c.wav"), "system")
	if n := system.checks.Load(); n != 2 {
		t.Errorf("Forget did not clear resolution, checks=%d", n)
	}
}

func TestSynthesizerUsesAudioCache(t *testing.T) {
	system := &fakeBackend{id: "system", voice: "en"}
	s := NewSynthesizer(newTestRegistry(t, system), newTestCache(t))
	dir := t.TempDir()

	first := filepath.Join(dir, "a.wav")
	second := filepath.Join(dir, "b.wav")
	if !s.SynthesizeToFile(context.Background(), "same text", first, "system") {
		t.Fatal("first synthesis failed")
	}
	if !s.SynthesizeToFile(context.Background(), "same text", second, "system") {
		t.Fatal("cached synthesis failed")
	}
	if n := system.calls.Load(); n != 1 {
		t.Errorf("backend called %d times, want 1", n)
	}
	data, _ := os.ReadFile(second)
	if string(data) != "system:same text" {
		t.Errorf("cached file = %q", data)
	}
}

func TestSynthesizerChunkSize(t *testing.T) {
	s := NewSynthesizer(newTestRegistry(t,
		&fakeBackend{id: "system"},
		&fakeBackend{id: "kokoro", chunkSize: 800},
	), nil)
	if got := s.ChunkSize(context.Background(), "kokoro"); got != 800 {
		t.Errorf("kokoro chunk size = %d", got)
	}
	if got := s.ChunkSize(context.Background(), "system"); got != 1000 {
		t.Errorf("system chunk size = %d", got)
	}
}
