package engines

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/dgnsrekt/mailreader/internal/proc"
)

// XTTS speaks with Coqui XTTS-v2 through the tts command.
type XTTS struct {
	cfg XTTSConfig
}

// NewXTTS returns the XTTS backend.
func NewXTTS(cfg XTTSConfig) *XTTS {
	return &XTTS{cfg: cfg}
}

func (x *XTTS) ID() string    { return "xtts" }
func (x *XTTS) Name() string  { return "Coqui XTTS-v2" }
func (x *XTTS) Voice() string { return x.cfg.Speaker + "/" + x.cfg.Language }

// Available checks for the Coqui tts command.
func (x *XTTS) Available(context.Context) error {
	if _, err := exec.LookPath("tts"); err != nil {
		return fmt.Errorf("coqui tts: %w", err)
	}
	return nil
}

// Synthesize writes text to path as WAV.
func (x *XTTS) Synthesize(ctx context.Context, text, path string) error {
	_, err := proc.Run(ctx, proc.Command{
		Name:    "tts",
		Args:    x.args(text, path),
		Env:     []string{"COQUI_TOS_AGREED=1"},
		Timeout: xttsTimeout,
	})
	return err
}

func (x *XTTS) args(text, path string) []string {
	return []string{
		"--text", text,
		"--model_name", x.cfg.Model,
		"--speaker_idx", x.cfg.Speaker,
		"--language_idx", x.cfg.Language,
		"--out_path", path,
	}
}
