package tts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/mailreader/internal/cache"
)

// AudioCache stores synthesized chunk audio.
type AudioCache interface {
	Get(key string) ([]byte, cache.Level, bool)
	Put(key string, value []byte) error
}

// Synthesizer converts a single chunk into an audio file. Failures are
// logged and reported as false; they never propagate to the caller.
type Synthesizer struct {
	registry *Registry
	cache    AudioCache

	mu       sync.Mutex
	resolved map[string]Backend
}

// NewSynthesizer returns a Synthesizer over registry. audioCache may be nil.
func NewSynthesizer(registry *Registry, audioCache AudioCache) *Synthesizer {
	return &Synthesizer{
		registry: registry,
		cache:    audioCache,
		resolved: make(map[string]Backend),
	}
}

// Backend resolves backendID, falling back to the default backend. The
// result is remembered until Forget is called, so availability checks run
// once per ID rather than once per chunk.
func (s *Synthesizer) Backend(ctx context.Context, backendID string) (Backend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.resolved[backendID]; ok {
		return b, nil
	}
	b, err := s.registry.Resolve(ctx, backendID)
	if err != nil {
		return nil, err
	}
	s.resolved[backendID] = b
	return b, nil
}

// Forget clears remembered resolutions.
func (s *Synthesizer) Forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved = make(map[string]Backend)
}

// ChunkSize returns the preferred chunk size for backendID.
func (s *Synthesizer) ChunkSize(ctx context.Context, backendID string) int {
	b, err := s.Backend(ctx, backendID)
	if err != nil {
		return ChunkSize(nil)
	}
	return ChunkSize(b)
}

// SynthesizeToFile writes text as audio to path using backendID. It
// reports whether a non-empty file now exists at path. On failure path is
// left absent.
func (s *Synthesizer) SynthesizeToFile(ctx context.Context, text, path, backendID string) bool {
	if err := s.synthesize(ctx, text, path, backendID); err != nil {
		_ = os.Remove(path)
		if ctx.Err() != nil {
			log.Debug("Synthesis canceled", "path", path)
		} else {
			log.Warn("Chunk synthesis failed", "backend", backendID, "path", path, "error", err)
		}
		return false
	}
	return true
}

func (s *Synthesizer) synthesize(ctx context.Context, text, path, backendID string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	b, err := s.Backend(ctx, backendID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
		return NewError(ErrorCodeFileSystem, "cannot create output directory", err)
	}

	key := cache.Key(b.ID(), VoiceOf(b), text)
	if s.cache != nil {
		if audio, level, ok := s.cache.Get(key); ok {
			log.Debug("Audio cache hit", "backend", b.ID(), "level", level)
			return os.WriteFile(path, audio, 0o600)
		}
	}

	start := time.Now()
	if err := b.Synthesize(ctx, text, path); err != nil {
		return classify(b.ID(), err).WithContext("chars", len(text))
	}

	audio, err := os.ReadFile(path)
	if err != nil || len(audio) == 0 {
		return NewError(ErrorCodeNoOutput, b.ID()+" wrote nothing to "+path, ErrNoOutput)
	}
	log.Debug("Synthesized chunk", "backend", b.ID(), "chars", len(text), "bytes", len(audio), "took", time.Since(start))

	if s.cache != nil {
		if err := s.cache.Put(key, audio); err != nil {
			log.Debug("Audio not cached", "error", err)
		}
	}
	return nil
}
