package setup

import (
	"os"
	"path/filepath"
	"testing"
)

func populate(t *testing.T, paths Paths) {
	t.Helper()
	for _, dir := range []string{paths.Logs, paths.Output, paths.Cache, paths.Temp} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "file"), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func TestResetKeepsFiles(t *testing.T) {
	paths := PathsIn(t.TempDir())
	populate(t, paths)
	store := NewStore(paths.Data)
	if err := store.MarkSetupComplete("system", paths); err != nil {
		t.Fatal(err)
	}

	cleaned, err := Reset(store, paths, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(cleaned) != 0 {
		t.Errorf("cleaned %v without clean", cleaned)
	}
	if !store.IsFirstRun() {
		t.Error("expected first run after reset")
	}
	if _, err := os.Stat(filepath.Join(paths.Logs, "file")); err != nil {
		t.Error("log file removed without clean")
	}
}

func TestResetClean(t *testing.T) {
	paths := PathsIn(t.TempDir())
	populate(t, paths)
	store := NewStore(paths.Data)

	cleaned, err := Reset(store, paths, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(cleaned) != 3 {
		t.Fatalf("expected 3 cleaned directories, got %v", cleaned)
	}
	// output holds a file and the temp directory
	if cleaned[1].Dir != paths.Output || cleaned[1].Removed != 2 {
		t.Errorf("output cleaned = %+v", cleaned[1])
	}
	for _, dir := range []string{paths.Logs, paths.Output, paths.Cache} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("%s removed: %v", dir, err)
		}
		if len(entries) != 0 {
			t.Errorf("%s not empty", dir)
		}
	}
	st, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !st.FirstRun || st.SetupComplete {
		t.Errorf("unexpected state %+v", st)
	}
}

func TestResetMissingDirectories(t *testing.T) {
	paths := PathsIn(t.TempDir())
	cleaned, err := Reset(NewStore(paths.Data), paths, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(cleaned) != 0 {
		t.Errorf("cleaned %v", cleaned)
	}
}
