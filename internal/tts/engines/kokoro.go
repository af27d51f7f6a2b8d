package engines

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgnsrekt/mailreader/internal/proc"
	openai "github.com/sashabaranov/go-openai"
)

// Kokoro speaks with the Kokoro-82M model, either through an
// OpenAI-compatible speech server or the kokoro Python package.
type Kokoro struct {
	cfg    KokoroConfig
	python string
	client *openai.Client
}

// NewKokoro returns the Kokoro backend. A non-empty cfg.URL selects
// server mode.
func NewKokoro(cfg KokoroConfig, python string) *Kokoro {
	k := &Kokoro{cfg: cfg, python: python}
	if cfg.URL != "" {
		oc := openai.DefaultConfig("not-needed")
		oc.BaseURL = strings.TrimRight(cfg.URL, "/") + "/v1"
		k.client = openai.NewClientWithConfig(oc)
	}
	return k
}

func (k *Kokoro) ID() string { return "kokoro" }

func (k *Kokoro) Name() string {
	if k.client != nil {
		return "Kokoro (" + k.cfg.URL + ")"
	}
	return "Kokoro (Python package)"
}

// ChunkSize keeps Kokoro requests short enough to avoid truncated audio.
func (k *Kokoro) ChunkSize() int { return DefaultKokoroChunkSize }

func (k *Kokoro) Voice() string { return k.cfg.Voice }

// Available lists the server's models, or imports the Python package.
func (k *Kokoro) Available(ctx context.Context) error {
	if k.client != nil {
		ctx, cancel := context.WithTimeout(ctx, serverProbeTimeout)
		defer cancel()
		if _, err := k.client.ListModels(ctx); err != nil {
			return fmt.Errorf("kokoro server at %s: %w", k.cfg.URL, err)
		}
		return nil
	}
	return pythonImports(ctx, k.python, "kokoro", "soundfile")
}

// Synthesize writes text to path as a 24kHz WAV file.
func (k *Kokoro) Synthesize(ctx context.Context, text, path string) error {
	if k.client != nil {
		return k.synthesizeHTTP(ctx, text, path)
	}
	_, err := proc.Run(ctx, proc.Command{
		Name:    k.python,
		Args:    []string{"-c", kokoroScript, path, k.cfg.Voice, fmt.Sprintf("%g", k.cfg.Speed)},
		Stdin:   strings.NewReader(text),
		Timeout: kokoroTimeout,
	})
	return err
}

func (k *Kokoro) synthesizeHTTP(ctx context.Context, text, path string) error {
	ctx, cancel := context.WithTimeout(ctx, kokoroTimeout)
	defer cancel()

	resp, err := k.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          "kokoro",
		Input:          text,
		Voice:          openai.SpeechVoice(k.cfg.Voice),
		ResponseFormat: openai.SpeechResponseFormatWav,
		Speed:          k.cfg.Speed,
	})
	if err != nil {
		return fmt.Errorf("kokoro speech request: %w", err)
	}
	defer resp.Close() //nolint:errcheck

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp); err != nil {
		_ = f.Close()
		return fmt.Errorf("reading kokoro audio: %w", err)
	}
	return f.Close()
}

// kokoroScript reads the text on stdin; argv is path, voice, speed.
const kokoroScript = `import sys
import numpy as np
import soundfile as sf
from kokoro import KPipeline

path, voice, speed = sys.argv[1], sys.argv[2], float(sys.argv[3])
text = sys.stdin.read()
pipeline = KPipeline(lang_code='a')
parts = [audio for _, _, audio in pipeline(text, voice=voice, speed=speed) if audio is not None]
if not parts:
    sys.exit("kokoro produced no audio")
sf.write(path, np.concatenate(parts), 24000, subtype='PCM_16')
`

// pythonImports returns nil when every module imports under python.
func pythonImports(ctx context.Context, python string, modules ...string) error {
	_, err := proc.Run(ctx, proc.Command{
		Name:    python,
		Args:    []string{"-c", "import " + strings.Join(modules, ", ")},
		Timeout: probeTimeout,
	})
	if err != nil {
		return fmt.Errorf("python modules %s: %w", strings.Join(modules, ", "), err)
	}
	return nil
}
