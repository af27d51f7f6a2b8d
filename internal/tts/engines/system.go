package engines

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/dgnsrekt/mailreader/internal/proc"
)

// System speaks through the platform voice: espeak-ng or espeak on Linux
// and BSD, say on macOS, System.Speech on Windows.
type System struct {
	goos string
}

// NewSystem returns the system voice backend for the running OS.
func NewSystem() *System {
	return &System{goos: runtime.GOOS}
}

func (s *System) ID() string { return "system" }

func (s *System) Name() string {
	switch s.goos {
	case "darwin":
		return "macOS say"
	case "windows":
		return "Windows System.Speech"
	default:
		return "espeak-ng"
	}
}

// Available checks that the platform speech command is on PATH.
func (s *System) Available(context.Context) error {
	_, err := s.binary()
	return err
}

// Synthesize writes text to path as WAV.
func (s *System) Synthesize(ctx context.Context, text, path string) error {
	bin, err := s.binary()
	if err != nil {
		return err
	}
	_, err = proc.Run(ctx, proc.Command{
		Name:    bin,
		Args:    systemArgs(s.goos, path),
		Stdin:   strings.NewReader(text),
		Timeout: systemTimeout,
	})
	return err
}

func (s *System) binary() (string, error) {
	var candidates []string
	switch s.goos {
	case "darwin":
		candidates = []string{"say"}
	case "windows":
		candidates = []string{"powershell", "pwsh"}
	default:
		candidates = []string{"espeak-ng", "espeak"}
	}
	for _, name := range candidates {
		if _, err := exec.LookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("%s: %w", strings.Join(candidates, " or "), exec.ErrNotFound)
}

// powershellScript reads the text from stdin so it never needs quoting.
const powershellScript = `Add-Type -AssemblyName System.Speech
$s = New-Object System.Speech.Synthesis.SpeechSynthesizer
$s.SetOutputToWaveFile($env:MAILREADER_OUT)
$s.Speak([Console]::In.ReadToEnd())
$s.Dispose()`

func systemArgs(goos, path string) []string {
	switch goos {
	case "darwin":
		return []string{"-o", path, "--file-format=WAVE", "--data-format=LEI16@22050", "-f", "-"}
	case "windows":
		script := strings.Replace(powershellScript, "$env:MAILREADER_OUT", "'"+strings.ReplaceAll(path, "'", "''")+"'", 1)
		return []string{"-NoProfile", "-NonInteractive", "-Command", script}
	default:
		return []string{"-w", path, "--stdin"}
	}
}
