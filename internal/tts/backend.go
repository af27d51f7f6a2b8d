package tts

import (
	"context"

	"github.com/dgnsrekt/mailreader/internal/text"
)

// DefaultBackend is the backend every resolution falls back to.
const DefaultBackend = "system"

// Backend is a speech engine that can write one chunk of text to an
// audio file.
type Backend interface {
	// ID is the registry key, e.g. "kokoro".
	ID() string

	// Name is a human readable description.
	Name() string

	// Available returns nil when the backend can synthesize on this
	// machine, or an error describing what is missing.
	Available(ctx context.Context) error

	// Synthesize writes text as audio to path.
	Synthesize(ctx context.Context, text, path string) error
}

// ChunkSizer is implemented by backends that prefer a chunk size other
// than text.DefaultChunkSize.
type ChunkSizer interface {
	ChunkSize() int
}

// Voicer is implemented by backends with a configurable voice. The voice
// is part of the audio cache key.
type Voicer interface {
	Voice() string
}

// ChunkSize returns the chunk size b prefers.
func ChunkSize(b Backend) int {
	if cs, ok := b.(ChunkSizer); ok && cs.ChunkSize() > 0 {
		return cs.ChunkSize()
	}
	return text.DefaultChunkSize
}

// VoiceOf returns b's voice, or "" when it has none.
func VoiceOf(b Backend) string {
	if v, ok := b.(Voicer); ok {
		return v.Voice()
	}
	return ""
}
