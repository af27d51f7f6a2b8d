package engines

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/dgnsrekt/mailreader/internal/proc"
	"golang.org/x/time/rate"
)

// GTTS speaks with Google Translate's voice through gtts-cli, converting
// the MP3 it returns to WAV with ffmpeg.
type GTTS struct {
	cfg     GTTSConfig
	limiter *rate.Limiter
}

// NewGTTS returns the gTTS backend.
func NewGTTS(cfg GTTSConfig) *GTTS {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultGTTSRate
	}
	return &GTTS{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
	}
}

func (g *GTTS) ID() string    { return "gtts" }
func (g *GTTS) Name() string  { return "Google TTS (gTTS)" }
func (g *GTTS) Voice() string { return g.cfg.Language }

// Available checks for gtts-cli and ffmpeg.
func (g *GTTS) Available(context.Context) error {
	for _, bin := range []string{"gtts-cli", "ffmpeg"} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s: %w", bin, err)
		}
	}
	return nil
}

// Synthesize writes text to path as 44.1kHz mono WAV.
func (g *GTTS) Synthesize(ctx context.Context, text, path string) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	mp3 := path + ".mp3"
	defer os.Remove(mp3) //nolint:errcheck

	args := []string{"-", "-l", g.cfg.Language, "-o", mp3}
	if g.cfg.Slow {
		args = append(args, "--slow")
	}
	if _, err := proc.Run(ctx, proc.Command{
		Name:    "gtts-cli",
		Args:    args,
		Stdin:   strings.NewReader(text),
		Timeout: gttsTimeout,
	}); err != nil {
		return fmt.Errorf("MP3 generation failed: %w", err)
	}

	if _, err := proc.Run(ctx, proc.Command{
		Name:    "ffmpeg",
		Args:    []string{"-y", "-loglevel", "error", "-i", mp3, "-ac", "1", "-ar", "44100", "-f", "wav", path},
		Timeout: gttsTimeout,
	}); err != nil {
		return fmt.Errorf("MP3 to WAV conversion failed: %w", err)
	}
	return nil
}
