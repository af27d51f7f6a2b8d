package tts

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dgnsrekt/mailreader/internal/text"
)

func newTestRegistry(t *testing.T, backends ...*fakeBackend) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, b := range backends {
		if err := r.Register(b); err != nil {
			t.Fatalf("register %s: %v", b.id, err)
		}
	}
	return r
}

func TestRegisterDuplicate(t *testing.T) {
	r := newTestRegistry(t, &fakeBackend{id: "system"})
	if err := r.Register(&fakeBackend{id: "system"}); !errors.Is(err, ErrDuplicateBackend) {
		t.Fatalf("expected ErrDuplicateBackend, got %v", err)
	}
	if got := r.IDs(); len(got) != 1 {
		t.Errorf("IDs() = %v", got)
	}
}

func TestResolve(t *testing.T) {
	system := &fakeBackend{id: "system"}
	kokoro := &fakeBackend{id: "kokoro"}
	xtts := &fakeBackend{id: "xtts", unavail: errMissing}
	r := newTestRegistry(t, system, kokoro, xtts)

	tests := []struct {
		name string
		id   string
		want string
	}{
		{"available backend", "kokoro", "kokoro"},
		{"empty selects default", "", "system"},
		{"unavailable falls back", "xtts", "system"},
		{"unknown falls back", "festival", "system"},
		{"default itself", "system", "system"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := r.Resolve(context.Background(), tt.id)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.id, err)
			}
			if b.ID() != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.id, b.ID(), tt.want)
			}
		})
	}
}

func TestResolveFallbackUnavailable(t *testing.T) {
	r := newTestRegistry(t,
		&fakeBackend{id: "system", unavail: errMissing},
		&fakeBackend{id: "xtts", unavail: errMissing},
	)
	_, err := r.Resolve(context.Background(), "xtts")
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if !errors.Is(err, errMissing) {
		t.Errorf("cause lost: %v", err)
	}
}

func TestLookupSuggestion(t *testing.T) {
	r := newTestRegistry(t, &fakeBackend{id: "system"}, &fakeBackend{id: "kokoro"})

	_, err := r.Lookup(context.Background(), "kokro")
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
	if !strings.Contains(err.Error(), `did you mean "kokoro"`) {
		t.Errorf("no suggestion in %q", err)
	}

	if s := r.Suggest("zzz"); s != "" {
		t.Errorf("Suggest(zzz) = %q", s)
	}
}

func TestAvailability(t *testing.T) {
	r := newTestRegistry(t,
		&fakeBackend{id: "xtts", unavail: errMissing},
		&fakeBackend{id: "system"},
		&fakeBackend{id: "kokoro"},
	)
	st := r.Availability(context.Background())
	if len(st) != 3 {
		t.Fatalf("got %d statuses", len(st))
	}
	if !st[0].Available || !st[1].Available || st[2].Available {
		t.Errorf("available backends should sort first: %+v", st)
	}
	if st[2].ID != "xtts" || !errors.Is(st[2].Err, errMissing) {
		t.Errorf("unexpected last status: %+v", st[2])
	}
	if st[0].ID != "system" {
		t.Errorf("registration order not kept: %+v", st)
	}
}

func TestChunkSize(t *testing.T) {
	if got := ChunkSize(&fakeBackend{id: "kokoro", chunkSize: 800}); got != 800 {
		t.Errorf("got %d", got)
	}
	if got := ChunkSize(&fakeBackend{id: "system"}); got != text.DefaultChunkSize {
		t.Errorf("got %d", got)
	}
	if got := ChunkSize(nil); got != text.DefaultChunkSize {
		t.Errorf("got %d", got)
	}
}

func TestGuidance(t *testing.T) {
	for _, id := range []string{"system", "kokoro", "xtts", "piper", "gtts"} {
		if Guidance(id) == "" {
			t.Errorf("no guidance for %s", id)
		}
	}
	if !strings.Contains(Guidance("gtts"), "ffmpeg") {
		t.Error("gtts guidance should mention ffmpeg")
	}
	if !strings.Contains(systemGuidance("linux"), "espeak-ng") {
		t.Error("linux guidance should mention espeak-ng")
	}
	if !strings.Contains(Guidance("nope"), "nope") {
		t.Error("unknown guidance should name the backend")
	}
}
