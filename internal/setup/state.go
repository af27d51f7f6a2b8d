package setup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	gap "github.com/muesli/go-app-paths"
)

// AppName names the user directories and files of the application.
const AppName = "mailreader"

// AppVersion is written to the state file on setup.
var AppVersion = "1.0.0"

const (
	stateFile   = "app_config.json"
	resultsFile = "installation_results.json"
)

// Paths are the per-user directories the application writes to.
type Paths struct {
	Data   string // state and installation results
	Cache  string // synthesized audio
	Logs   string
	Output string
	Temp   string // chunk audio during playback
}

// DefaultPaths resolves the user directories for AppName.
func DefaultPaths() (Paths, error) {
	scope := gap.NewScope(gap.User, AppName)
	dataDirs, err := scope.DataDirs()
	if err != nil {
		return Paths{}, fmt.Errorf("unable to find data directory: %w", err)
	}
	if len(dataDirs) == 0 {
		return Paths{}, errors.New("unable to find data directory")
	}
	cacheDir, err := scope.CacheDir()
	if err != nil {
		return Paths{}, fmt.Errorf("unable to find cache directory: %w", err)
	}
	return newPaths(dataDirs[0], cacheDir), nil
}

// PathsIn places every directory under root. Useful for portable installs
// and tests.
func PathsIn(root string) Paths {
	return newPaths(filepath.Join(root, "data"), filepath.Join(root, "cache"))
}

func newPaths(data, cache string) Paths {
	output := filepath.Join(data, "output")
	return Paths{
		Data:   data,
		Cache:  filepath.Join(cache, "audio"),
		Logs:   filepath.Join(cache, "logs"),
		Output: output,
		Temp:   filepath.Join(output, "temp"),
	}
}

// State is the first-run state file.
type State struct {
	FirstRun        bool   `json:"first_run"`
	SetupComplete   bool   `json:"setup_complete"`
	TTSEngine       string `json:"tts_engine"`
	AppVersion      string `json:"app_version"`
	OutputDirectory string `json:"output_directory"`
	TempDirectory   string `json:"temp_directory"`
}

// Store reads and writes the state file. Keys it does not know about are
// kept on every write.
type Store struct {
	path string
}

// NewStore returns a Store for the state file in dataDir.
func NewStore(dataDir string) *Store {
	return &Store{path: filepath.Join(dataDir, stateFile)}
}

// Path returns the state file path.
func (s *Store) Path() string { return s.path }

// Load reads the state. A missing file is reported as a first run.
func (s *Store) Load() (State, error) {
	raw, err := s.raw()
	if err != nil {
		return State{FirstRun: true}, err
	}
	if raw == nil {
		return State{FirstRun: true}, nil
	}
	b, _ := json.Marshal(raw)
	st := State{FirstRun: true}
	if err := json.Unmarshal(b, &st); err != nil {
		return State{FirstRun: true}, fmt.Errorf("invalid state file %s: %w", s.path, err)
	}
	return st, nil
}

// IsFirstRun reports whether the setup wizard should run. An unreadable
// state file counts as a first run.
func (s *Store) IsFirstRun() bool {
	st, err := s.Load()
	if err != nil {
		return true
	}
	return st.FirstRun
}

// MarkSetupComplete records a finished setup. engine, if not empty, is
// stored as the selected backend.
func (s *Store) MarkSetupComplete(engine string, paths Paths) error {
	return s.update(func(m map[string]any) {
		m["first_run"] = false
		m["setup_complete"] = true
		m["app_version"] = AppVersion
		if engine != "" {
			m["tts_engine"] = engine
		}
		if _, ok := m["output_directory"]; !ok {
			m["output_directory"] = paths.Output
		}
		if _, ok := m["temp_directory"]; !ok {
			m["temp_directory"] = paths.Temp
		}
	})
}

// MarkFirstRun makes the next start run the setup wizard again.
func (s *Store) MarkFirstRun() error {
	return s.update(func(m map[string]any) {
		m["first_run"] = true
		m["setup_complete"] = false
	})
}

func (s *Store) update(fn func(map[string]any)) error {
	raw, err := s.raw()
	if err != nil || raw == nil {
		raw = map[string]any{}
	}
	fn(raw)
	return writeJSON(s.path, raw)
}

func (s *Store) raw() (map[string]any, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read state file: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("invalid state file %s: %w", s.path, err)
	}
	return m, nil
}

// writeJSON writes v to path through a temporary file.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("unable to create directory: %w", err)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("unable to write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("unable to write %s: %w", path, err)
	}
	return nil
}
