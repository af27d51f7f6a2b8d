package audio

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MockPlayer simulates playback without producing sound.
//
// Each Play lasts Duration of unpaused time. When Hold is set, Play instead
// blocks until Release, Stop or context cancellation. When Gate is set, a
// stream starts only after a value is received from it.
type MockPlayer struct {
	Duration time.Duration
	Hold     bool
	Gate     chan struct{}

	mu      sync.Mutex
	state   PlayerState
	stop    chan struct{}
	release chan struct{}
	played  [][]byte

	playCount   atomic.Int64
	pauseCount  atomic.Int64
	resumeCount atomic.Int64
	stopCount   atomic.Int64
}

// NewMockPlayer creates a mock player whose streams last d.
func NewMockPlayer(d time.Duration) *MockPlayer {
	return &MockPlayer{Duration: d}
}

// Format reports the device format the mock pretends to use.
func (m *MockPlayer) Format() (sampleRate, channels int) {
	return 44100, 1
}

// Play records pcm and simulates its playback.
func (m *MockPlayer) Play(ctx context.Context, pcm []byte) error {
	if len(pcm) == 0 {
		return ErrNoAudioData
	}
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.played = append(m.played, append([]byte(nil), pcm...))
	m.state = StatePlaying
	m.stop = make(chan struct{})
	m.release = make(chan struct{})
	stop, release := m.stop, m.release
	m.mu.Unlock()
	m.playCount.Add(1)

	if m.Hold {
		select {
		case <-release:
			m.finish(stop)
			return nil
		case <-stop:
			return ErrInterrupted
		case <-ctx.Done():
			_ = m.Stop()
			return ctx.Err()
		}
	}

	const tick = time.Millisecond
	remaining := m.Duration
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for remaining > 0 {
		select {
		case <-stop:
			return ErrInterrupted
		case <-ctx.Done():
			_ = m.Stop()
			return ctx.Err()
		case <-ticker.C:
			if m.State() == StatePlaying {
				remaining -= tick
			}
		}
	}
	m.finish(stop)
	return nil
}

func (m *MockPlayer) finish(stop chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop == stop {
		m.state = StateStopped
		m.stop = nil
	}
}

// Release completes a held Play.
func (m *MockPlayer) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.release != nil {
		close(m.release)
		m.release = nil
	}
}

// Pause pauses the simulated stream.
func (m *MockPlayer) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StatePlaying {
		return fmt.Errorf("cannot pause: player is %s", m.state)
	}
	m.state = StatePaused
	m.pauseCount.Add(1)
	return nil
}

// Resume continues a paused stream.
func (m *MockPlayer) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StatePaused {
		return nil
	}
	m.state = StatePlaying
	m.resumeCount.Add(1)
	return nil
}

// Stop interrupts the active Play.
func (m *MockPlayer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
		m.stopCount.Add(1)
	}
	if m.state != StateClosed {
		m.state = StateStopped
	}
	return nil
}

// Close marks the player closed.
func (m *MockPlayer) Close() error {
	_ = m.Stop()
	m.mu.Lock()
	m.state = StateClosed
	m.mu.Unlock()
	return nil
}

// State returns the simulated state.
func (m *MockPlayer) State() PlayerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Played returns copies of every buffer passed to Play.
func (m *MockPlayer) Played() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.played...)
}

// PlayCount returns the number of Play calls.
func (m *MockPlayer) PlayCount() int64 { return m.playCount.Load() }

// PauseCount returns the number of effective Pause calls.
func (m *MockPlayer) PauseCount() int64 { return m.pauseCount.Load() }

// ResumeCount returns the number of effective Resume calls.
func (m *MockPlayer) ResumeCount() int64 { return m.resumeCount.Load() }

// StopCount returns the number of Stop calls that interrupted a stream.
func (m *MockPlayer) StopCount() int64 { return m.stopCount.Load() }
