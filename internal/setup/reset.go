package setup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Cleaned describes one emptied directory.
type Cleaned struct {
	Dir     string
	Removed int
}

// Reset marks the application as not set up. With clean, the logs, output
// and cache directories are emptied; the directories themselves stay.
func Reset(store *Store, paths Paths, clean bool) ([]Cleaned, error) {
	if err := store.MarkFirstRun(); err != nil {
		return nil, fmt.Errorf("unable to reset first run flag: %w", err)
	}
	log.Info("First run flag reset", "path", store.Path())
	if !clean {
		return nil, nil
	}

	var cleaned []Cleaned
	var errs []error
	for _, dir := range []string{paths.Logs, paths.Output, paths.Cache} {
		n, err := emptyDir(dir)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if n > 0 {
			cleaned = append(cleaned, Cleaned{Dir: dir, Removed: n})
			log.Info("Directory cleaned", "dir", dir, "removed", n)
		}
	}
	return cleaned, errors.Join(errs...)
}

// emptyDir removes the contents of dir and returns the number of entries
// removed. A missing dir is empty.
func emptyDir(dir string) (int, error) {
	if dir == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("unable to read %s: %w", dir, err)
	}
	var n int
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return n, fmt.Errorf("unable to clean %s: %w", dir, err)
		}
		n++
	}
	return n, nil
}
