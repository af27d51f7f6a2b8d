package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dgnsrekt/mailreader/internal/setup"
	"github.com/dgnsrekt/mailreader/internal/tts"
	"github.com/spf13/viper"
)

type stubBackend struct {
	id    string
	avail error
}

func (s stubBackend) ID() string                                       { return s.id }
func (s stubBackend) Name() string                                     { return "stub " + s.id }
func (s stubBackend) Available(context.Context) error                  { return s.avail }
func (s stubBackend) Synthesize(context.Context, string, string) error { return nil }

func testApp(t *testing.T, backends ...stubBackend) *app {
	t.Helper()
	paths := setup.PathsIn(t.TempDir())
	reg := tts.NewRegistry()
	for _, b := range backends {
		if err := reg.Register(b); err != nil {
			t.Fatal(err)
		}
	}
	return &app{
		paths:    paths,
		store:    setup.NewStore(paths.Data),
		registry: reg,
		python:   "mailreader-no-such-python",
	}
}

func TestPickEngine(t *testing.T) {
	for name, tc := range map[string]struct {
		available []string
		want      string
	}{
		"none":        {nil, "system"},
		"system only": {[]string{"system"}, "system"},
		"prefers":     {[]string{"gtts", "system", "piper"}, "piper"},
		"kokoro":      {[]string{"xtts", "kokoro"}, "kokoro"},
	} {
		t.Run(name, func(t *testing.T) {
			if got := pickEngine(tc.available); got != tc.want {
				t.Errorf("pickEngine(%v) = %q, want %q", tc.available, got, tc.want)
			}
		})
	}
}

func TestRunSetupWithoutInstall(t *testing.T) {
	a := testApp(t,
		stubBackend{id: "system"},
		stubBackend{id: "gtts"},
		stubBackend{id: "kokoro", avail: errors.New("not installed")},
	)

	var out bytes.Buffer
	if err := runSetup(context.Background(), a, nil, false, strings.NewReader("none\n"), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Dependency Check Report") {
		t.Errorf("report missing from output:\n%s", out.String())
	}

	st, err := a.store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if st.FirstRun || !st.SetupComplete {
		t.Errorf("state = %+v, want setup complete", st)
	}
	if st.TTSEngine != "gtts" {
		t.Errorf("engine = %q, want gtts", st.TTSEngine)
	}
}

func TestRunSetupUnknownGroup(t *testing.T) {
	a := testApp(t, stubBackend{id: "system"})

	var out bytes.Buffer
	err := runSetup(context.Background(), a, []string{"nope"}, true, strings.NewReader(""), &out)
	if !errors.Is(err, setup.ErrUnknownGroup) {
		t.Fatalf("err = %v, want ErrUnknownGroup", err)
	}
	if !a.store.IsFirstRun() {
		t.Error("setup should not be marked complete")
	}
}

func TestRunSetupDeclined(t *testing.T) {
	a := testApp(t, stubBackend{id: "system"})

	var out bytes.Buffer
	if err := runSetup(context.Background(), a, []string{"core"}, false, strings.NewReader("n\n"), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Skipping installation.") {
		t.Errorf("expected installation to be skipped:\n%s", out.String())
	}
	if a.store.IsFirstRun() {
		t.Error("setup should be marked complete")
	}
}

func TestConfirm(t *testing.T) {
	for in, want := range map[string]bool{
		"y\n":   true,
		"YES\n": true,
		"n\n":   false,
		"\n":    false,
		"":      false,
	} {
		var out bytes.Buffer
		if got := confirm(bufio.NewReader(strings.NewReader(in)), &out, "Go?"); got != want {
			t.Errorf("confirm(%q) = %v, want %v", in, got, want)
		}
		if out.String() != "Go? [y/N]: " {
			t.Errorf("prompt = %q", out.String())
		}
	}
}

func TestBackendFallsBackToSetupChoice(t *testing.T) {
	a := testApp(t, stubBackend{id: "system"}, stubBackend{id: "piper"})
	viper.Set("tts.engine", "")
	t.Cleanup(func() { viper.Set("tts.engine", "") })

	if got := a.backend(); got != tts.DefaultBackend {
		t.Errorf("backend() = %q before setup, want %q", got, tts.DefaultBackend)
	}
	if err := a.store.MarkSetupComplete("piper", a.paths); err != nil {
		t.Fatal(err)
	}
	if got := a.backend(); got != "piper" {
		t.Errorf("backend() = %q, want piper", got)
	}
	viper.Set("tts.engine", "system")
	if got := a.backend(); got != "system" {
		t.Errorf("backend() = %q, want configured system", got)
	}
}

func TestValidateStyle(t *testing.T) {
	for style, ok := range map[string]bool{
		"auto":                     true,
		"dark":                     true,
		"notty":                    true,
		"/no/such/style/file.json": false,
	} {
		if err := validateStyle(style); (err == nil) != ok {
			t.Errorf("validateStyle(%q) = %v", style, err)
		}
	}
}
