package setup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestStoreMissingFileIsFirstRun(t *testing.T) {
	s := NewStore(t.TempDir())
	if !s.IsFirstRun() {
		t.Error("expected first run without a state file")
	}
	st, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !st.FirstRun || st.SetupComplete {
		t.Errorf("unexpected state %+v", st)
	}
}

func TestStoreMarkSetupComplete(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	if err := os.WriteFile(s.Path(), []byte(`{"first_run": true, "theme": "dark"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	paths := PathsIn(dir)
	if err := s.MarkSetupComplete("kokoro", paths); err != nil {
		t.Fatal(err)
	}
	if s.IsFirstRun() {
		t.Error("still first run after setup")
	}
	st, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !st.SetupComplete || st.TTSEngine != "kokoro" || st.AppVersion != AppVersion {
		t.Errorf("unexpected state %+v", st)
	}
	if st.OutputDirectory != paths.Output || st.TempDirectory != paths.Temp {
		t.Errorf("unexpected directories %+v", st)
	}

	b, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["theme"] != "dark" {
		t.Errorf("unknown key not preserved: %v", raw)
	}
}

func TestStoreMarkFirstRun(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.MarkSetupComplete("", PathsIn(t.TempDir())); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkFirstRun(); err != nil {
		t.Fatal(err)
	}
	st, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !st.FirstRun || st.SetupComplete {
		t.Errorf("unexpected state %+v", st)
	}
	if st.AppVersion != AppVersion {
		t.Errorf("app_version lost: %+v", st)
	}
}

func TestStoreFirstRunDefaults(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"no first_run key", `{"setup_complete": true}`, true},
		{"false", `{"first_run": false}`, false},
		{"true", `{"first_run": true}`, true},
		{"corrupt", `{first_run`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, stateFile), []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			if got := NewStore(dir).IsFirstRun(); got != tt.want {
				t.Errorf("IsFirstRun() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStoreCorruptFileIsReplaced(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	if err := os.WriteFile(s.Path(), []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkSetupComplete("system", PathsIn(dir)); err != nil {
		t.Fatal(err)
	}
	if s.IsFirstRun() {
		t.Error("expected setup to overwrite a corrupt state file")
	}
}

func TestPathsIn(t *testing.T) {
	p := PathsIn("/srv/mr")
	if p.Data != filepath.Join("/srv/mr", "data") {
		t.Errorf("Data = %s", p.Data)
	}
	if p.Temp != filepath.Join(p.Output, "temp") {
		t.Errorf("Temp = %s", p.Temp)
	}
	if filepath.Dir(p.Logs) != filepath.Dir(p.Cache) {
		t.Errorf("logs %s and cache %s should share a parent", p.Logs, p.Cache)
	}
}
