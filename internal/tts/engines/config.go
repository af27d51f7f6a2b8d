package engines

import (
	"os/exec"
	"runtime"
	"time"

	"github.com/dgnsrekt/mailreader/internal/tts"
)

// Config holds settings for every backend.
type Config struct {
	// Python interpreter used by the Kokoro package backend. Empty picks
	// python3 or python from PATH.
	Python string

	Kokoro KokoroConfig
	XTTS   XTTSConfig
	Piper  PiperConfig
	GTTS   GTTSConfig
}

// KokoroConfig configures the Kokoro backend.
type KokoroConfig struct {
	// URL of an OpenAI-compatible Kokoro server. Empty uses the Python
	// package instead.
	URL   string
	Voice string
	Speed float64
}

// XTTSConfig configures the Coqui XTTS-v2 backend.
type XTTSConfig struct {
	Model    string
	Speaker  string
	Language string
}

// PiperConfig configures the Piper backend.
type PiperConfig struct {
	Model string // path to an .onnx voice
}

// GTTSConfig configures the Google TTS backend.
type GTTSConfig struct {
	Language          string
	Slow              bool
	RequestsPerMinute int
}

// Defaults.
const (
	DefaultKokoroVoice     = "af_heart"
	DefaultKokoroChunkSize = 800
	DefaultXTTSModel       = "tts_models/multilingual/multi-dataset/xtts_v2"
	DefaultXTTSSpeaker     = "Ana Florence"
	DefaultXTTSLanguage    = "en"
	DefaultGTTSLanguage    = "en"
	DefaultGTTSRate        = 50
)

// Per-backend synthesis timeouts.
const (
	systemTimeout = 60 * time.Second
	kokoroTimeout = 3 * time.Minute
	xttsTimeout   = 5 * time.Minute
	piperTimeout  = 60 * time.Second
	gttsTimeout   = 30 * time.Second
	probeTimeout  = 30 * time.Second
)

// serverProbeTimeout bounds the availability check of a speech server.
var serverProbeTimeout = 5 * time.Second

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	var c Config
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Python == "" {
		c.Python = FindPython()
	}
	if c.Kokoro.Voice == "" {
		c.Kokoro.Voice = DefaultKokoroVoice
	}
	if c.Kokoro.Speed <= 0 {
		c.Kokoro.Speed = 1
	}
	if c.XTTS.Model == "" {
		c.XTTS.Model = DefaultXTTSModel
	}
	if c.XTTS.Speaker == "" {
		c.XTTS.Speaker = DefaultXTTSSpeaker
	}
	if c.XTTS.Language == "" {
		c.XTTS.Language = DefaultXTTSLanguage
	}
	if c.GTTS.Language == "" {
		c.GTTS.Language = DefaultGTTSLanguage
	}
	if c.GTTS.RequestsPerMinute <= 0 {
		c.GTTS.RequestsPerMinute = DefaultGTTSRate
	}
}

// FindPython returns the first Python interpreter found on PATH.
func FindPython() string {
	candidates := []string{"python3", "python"}
	if runtime.GOOS == "windows" {
		candidates = []string{"python", "py"}
	}
	for _, name := range candidates {
		if _, err := exec.LookPath(name); err == nil {
			return name
		}
	}
	return candidates[0]
}

// Register adds every backend to reg.
func Register(reg *tts.Registry, cfg Config) error {
	cfg.applyDefaults()
	for _, b := range []tts.Backend{
		NewSystem(),
		NewKokoro(cfg.Kokoro, cfg.Python),
		NewXTTS(cfg.XTTS),
		NewPiper(cfg.Piper),
		NewGTTS(cfg.GTTS),
	} {
		if err := reg.Register(b); err != nil {
			return err
		}
	}
	return nil
}
