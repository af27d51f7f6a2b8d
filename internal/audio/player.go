package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// ErrInterrupted is returned by Play when Stop ends playback early.
var ErrInterrupted = errors.New("playback interrupted")

// ErrClosed is returned when the player has been closed.
var ErrClosed = errors.New("player is closed")

// PlayerState represents the current state of a player.
type PlayerState int32

// Player states.
const (
	StateStopped PlayerState = iota
	StatePlaying
	StatePaused
	StateClosed
)

func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int // 44100 or 48000 Hz only
	Channels   int // 1 = mono, 2 = stereo
	BufferSize int // bytes
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 44100,
		Channels:   1,
		BufferSize: 8192,
	}
}

// validateConfig validates the player configuration.
func validateConfig(config PlayerConfig) error {
	if config.SampleRate != 44100 && config.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", config.SampleRate)
	}
	if config.Channels != 1 && config.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", config.Channels)
	}
	if config.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}
	return nil
}

// oto allows a single context per process.
var (
	contextOnce sync.Once
	sharedCtx   *oto.Context
	contextErr  error
)

func deviceContext(config PlayerConfig) (*oto.Context, error) {
	contextOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   config.SampleRate,
			ChannelCount: config.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   time.Duration(config.BufferSize) * time.Second / time.Duration(config.SampleRate*config.Channels*2),
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			contextErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready
		sharedCtx = ctx
	})
	return sharedCtx, contextErr
}

// Player plays 16-bit PCM through the system audio device.
type Player struct {
	config PlayerConfig
	ctx    *oto.Context

	mu     sync.Mutex
	state  PlayerState
	player *oto.Player
	// data backs the active oto player and must stay referenced until it closes.
	data []byte
	stop chan struct{}
}

// NewPlayer opens the audio device with the given configuration.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	ctx, err := deviceContext(config)
	if err != nil {
		return nil, err
	}
	return &Player{config: config, ctx: ctx, state: StateStopped}, nil
}

// Format returns the sample rate and channel count Play expects.
func (p *Player) Format() (sampleRate, channels int) {
	return p.config.SampleRate, p.config.Channels
}

// Play plays pcm and blocks until it drains, Stop is called or ctx is done.
func (p *Player) Play(ctx context.Context, pcm []byte) error {
	if len(pcm) == 0 {
		return ErrNoAudioData
	}

	p.mu.Lock()
	if p.state == StateClosed {
		p.mu.Unlock()
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		p.mu.Unlock()
		return err
	}
	p.stopLocked()

	p.data = pcm
	p.player = p.ctx.NewPlayer(bytes.NewReader(p.data))
	p.stop = make(chan struct{})
	// Started under mu so a Pause never sees a stream that has not begun.
	p.player.Play()
	p.state = StatePlaying
	player, stop := p.player, p.stop
	p.mu.Unlock()

	log.Debug("audio playback started", "bytes", len(pcm))

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-stop:
			return ErrInterrupted
		case <-ticker.C:
			p.mu.Lock()
			if p.player == player && p.state == StatePlaying && !player.IsPlaying() {
				p.closeLocked()
				p.state = StateStopped
				p.mu.Unlock()
				return nil
			}
			p.mu.Unlock()
		}
	}
}

// Pause pauses the current playback, keeping its position.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePlaying {
		return fmt.Errorf("cannot pause: player is %s", p.state)
	}
	p.player.Pause()
	p.state = StatePaused
	return nil
}

// Resume continues paused playback.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePaused {
		return fmt.Errorf("cannot resume: player is %s", p.state)
	}
	p.player.Play()
	p.state = StatePlaying
	return nil
}

// Stop halts playback and releases the stream.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

func (p *Player) stopLocked() {
	if p.state != StatePlaying && p.state != StatePaused {
		return
	}
	p.closeLocked()
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
	p.state = StateStopped
}

func (p *Player) closeLocked() {
	if p.player != nil {
		p.player.Pause()
		if err := p.player.Close(); err != nil {
			log.Debug("closing oto player", "error", err)
		}
		p.player = nil
	}
	p.data = nil
}

// State returns the current player state.
func (p *Player) State() PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Close stops playback. The shared device context stays open for the
// lifetime of the process.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.state = StateClosed
	return nil
}
