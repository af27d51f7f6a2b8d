package engines

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dgnsrekt/mailreader/internal/proc"
	"github.com/mitchellh/go-homedir"
)

// ErrNoModel indicates the Piper voice model is not configured.
var ErrNoModel = errors.New("piper model path not configured")

// Piper speaks with a local Piper voice model.
type Piper struct {
	cfg PiperConfig
}

// NewPiper returns the Piper backend.
func NewPiper(cfg PiperConfig) *Piper {
	return &Piper{cfg: cfg}
}

func (p *Piper) ID() string   { return "piper" }
func (p *Piper) Name() string { return "Piper" }

// Voice is the model file name without extension.
func (p *Piper) Voice() string {
	return strings.TrimSuffix(filepath.Base(p.cfg.Model), filepath.Ext(p.cfg.Model))
}

// Available checks for the piper binary and a readable model.
func (p *Piper) Available(context.Context) error {
	if _, err := exec.LookPath("piper"); err != nil {
		return fmt.Errorf("piper: %w", err)
	}
	model, err := p.model()
	if err != nil {
		return err
	}
	if _, err := os.Stat(model); err != nil {
		return fmt.Errorf("model file not accessible: %w", err)
	}
	return nil
}

// Synthesize writes text to path as WAV.
func (p *Piper) Synthesize(ctx context.Context, text, path string) error {
	model, err := p.model()
	if err != nil {
		return err
	}
	_, err = proc.Run(ctx, proc.Command{
		Name:    "piper",
		Args:    []string{"--model", model, "--output_file", path},
		Stdin:   strings.NewReader(text),
		Timeout: piperTimeout,
	})
	return err
}

func (p *Piper) model() (string, error) {
	if p.cfg.Model == "" {
		return "", ErrNoModel
	}
	return homedir.Expand(p.cfg.Model)
}
