package playback

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"mailreader_a1b2c3d4_0.wav",
		"mailreader_a1b2c3d4_1.wav.mp3",
		"mailreader_ffff0000_12.wav",
		"other_a1b2c3d4_0.wav",
		"notes.txt",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	if n := Sweep(dir, "mailreader"); n != 3 {
		t.Errorf("Sweep removed %d files, want 3", n)
	}
	left, _ := os.ReadDir(dir)
	if len(left) != 2 {
		t.Errorf("expected 2 files left, got %d", len(left))
	}
	if n := Sweep(filepath.Join(dir, "missing"), "mailreader"); n != 0 {
		t.Errorf("Sweep of missing dir removed %d", n)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		StateIdle:    "idle",
		StatePlaying: "playing",
		StatePaused:  "paused",
		StateStopped: "stopped",
		State(42):    "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
