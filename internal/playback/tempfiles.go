package playback

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// DefaultPrefix names every temporary audio file.
const DefaultPrefix = "mailreader"

// chunkPath returns the temporary audio path for chunk index of session.
func chunkPath(dir, prefix, session string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%d.wav", prefix, session, index))
}

// Sweep removes every temporary file in dir carrying prefix and returns how
// many were removed.
func Sweep(dir, prefix string) int {
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"_*"))
	if err != nil {
		return 0
	}
	n := 0
	for _, m := range matches {
		if removeFile(m) {
			n++
		}
	}
	return n
}

func removeFile(path string) bool {
	if path == "" {
		return false
	}
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Debug("Removing temporary audio", "path", path, "error", err)
	}
	return err == nil
}
