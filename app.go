package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/mailreader/internal/audio"
	"github.com/dgnsrekt/mailreader/internal/cache"
	"github.com/dgnsrekt/mailreader/internal/pdf"
	"github.com/dgnsrekt/mailreader/internal/playback"
	"github.com/dgnsrekt/mailreader/internal/setup"
	"github.com/dgnsrekt/mailreader/internal/summarize"
	"github.com/dgnsrekt/mailreader/internal/tts"
	"github.com/dgnsrekt/mailreader/internal/tts/engines"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// app holds the services shared by the commands.
type app struct {
	paths      setup.Paths
	store      *setup.Store
	registry   *tts.Registry
	cache      *cache.Manager
	synth      playback.Synthesizer
	extractor  *pdf.Extractor
	summarizer *summarize.Summarizer
	python     string
}

// newApp builds the services from the configuration in viper.
func newApp() (*app, error) {
	paths, err := setup.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("unable to find data directories: %w", err)
	}
	if dir := expandPath(viper.GetString("tts.temp_dir")); dir != "" {
		paths.Temp = dir
	}
	if err := os.MkdirAll(paths.Temp, 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("unable to create temp directory: %w", err)
	}

	a := &app{
		paths: paths,
		store: setup.NewStore(paths.Data),
	}

	ecfg := engines.Config{
		Python: viper.GetString("python"),
		Kokoro: engines.KokoroConfig{
			URL:   viper.GetString("tts.kokoro.url"),
			Voice: viper.GetString("tts.kokoro.voice"),
			Speed: viper.GetFloat64("tts.kokoro.speed"),
		},
		XTTS: engines.XTTSConfig{
			Model:    viper.GetString("tts.xtts.model"),
			Speaker:  viper.GetString("tts.xtts.speaker"),
			Language: viper.GetString("tts.xtts.language"),
		},
		Piper: engines.PiperConfig{
			Model: expandPath(viper.GetString("tts.piper.model")),
		},
		GTTS: engines.GTTSConfig{
			Language:          viper.GetString("tts.gtts.language"),
			Slow:              viper.GetBool("tts.gtts.slow"),
			RequestsPerMinute: viper.GetInt("tts.gtts.requests_per_minute"),
		},
	}
	if ecfg.Python == "" {
		ecfg.Python = engines.FindPython()
	}
	a.python = ecfg.Python

	a.registry = tts.NewRegistry()
	if err := engines.Register(a.registry, ecfg); err != nil {
		return nil, fmt.Errorf("unable to register backends: %w", err)
	}

	ccfg := cache.DefaultConfig()
	ccfg.DiskPath = paths.Cache
	if dir := expandPath(viper.GetString("tts.cache.dir")); dir != "" {
		ccfg.DiskPath = dir
		a.paths.Cache = dir
	}
	if mb := viper.GetInt64("tts.cache.max_size"); mb > 0 {
		ccfg.DiskCapacity = mb * 1024 * 1024
	}

	// The synthesizer treats a nil AudioCache as "no caching", so it must
	// not receive a typed nil *cache.Manager.
	var audioCache tts.AudioCache
	if m, err := cache.NewManager(ccfg); err != nil {
		log.Warn("Audio cache disabled", "error", err)
	} else {
		a.cache = m
		audioCache = m
	}

	synth := tts.NewSynthesizer(a.registry, audioCache)
	a.synth = synth
	if size := viper.GetInt("tts.chunk_size"); size > 0 {
		a.synth = fixedChunkSize{Synthesizer: synth, size: size}
	}

	a.extractor = pdf.NewExtractor()
	if !viper.GetBool("pdf.ocr") {
		a.extractor.OCR = nil
	}

	a.summarizer = summarize.New(summarize.Config{
		APIKey:    viper.GetString("summary.api_key"),
		BaseURL:   viper.GetString("summary.base_url"),
		Model:     viper.GetString("summary.model"),
		MaxLength: viper.GetInt("summary.max_length"),
		MinLength: viper.GetInt("summary.min_length"),
	})
	return a, nil
}

// backend returns the configured backend, or the one chosen during setup,
// warning about unknown IDs.
func (a *app) backend() string {
	id := viper.GetString("tts.engine")
	if id == "" {
		if st, err := a.store.Load(); err == nil {
			id = st.TTSEngine
		}
	}
	if id == "" {
		id = tts.DefaultBackend
	}
	if _, ok := a.registry.Get(id); !ok {
		msg := "Unknown speech backend, falling back to " + tts.DefaultBackend
		if s := a.registry.Suggest(id); s != "" {
			log.Warn(msg, "backend", id, "suggestion", s)
		} else {
			log.Warn(msg, "backend", id)
		}
	}
	return id
}

// newReader opens the audio device and starts a playback reader.
func (a *app) newReader(onChange func(playback.Status)) (*playback.Reader, func(), error) {
	player, err := audio.NewPlayer(audio.DefaultPlayerConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open audio device: %w", err)
	}
	r := playback.New(a.synth, player, playback.Config{
		Backend:  a.backend(),
		TempDir:  a.paths.Temp,
		OnChange: onChange,
	})
	return r, func() {
		_ = r.Close()
		_ = player.Close()
	}, nil
}

func (a *app) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			log.Warn("Could not close audio cache", "error", err)
		}
	}
}

// fixedChunkSize overrides the backend chunk size with a configured one.
type fixedChunkSize struct {
	*tts.Synthesizer
	size int
}

func (f fixedChunkSize) ChunkSize(context.Context, string) int { return f.size }

func expandPath(path string) string {
	if path == "" {
		return ""
	}
	p, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return os.ExpandEnv(p)
}
