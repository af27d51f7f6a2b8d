package playback

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/mailreader/internal/audio"
	"github.com/dgnsrekt/mailreader/internal/text"
	"github.com/google/uuid"
)

// Synthesizer writes one chunk of text to an audio file.
type Synthesizer interface {
	SynthesizeToFile(ctx context.Context, text, path, backendID string) bool
	ChunkSize(ctx context.Context, backendID string) int
}

// AudioPlayer sounds decoded PCM. Play blocks until the audio drains, Stop
// is called or ctx is done.
type AudioPlayer interface {
	Format() (sampleRate, channels int)
	Play(ctx context.Context, pcm []byte) error
	Pause() error
	Resume() error
	Stop() error
}

// Config configures a Reader.
type Config struct {
	Backend string
	TempDir string // defaults to os.TempDir()
	Prefix  string // defaults to DefaultPrefix

	// OnChange, if set, receives every status change. It is called from
	// the reader goroutine and must not block.
	OnChange func(Status)
}

// ErrClosed is returned by commands sent after Close.
var ErrClosed = errors.New("reader closed")

type commandKind int

const (
	cmdSetText commandKind = iota
	cmdSetBackend
	cmdReadAloud
	cmdPause
	cmdResume
	cmdStop
)

type command struct {
	kind commandKind
	arg  string
	done chan struct{}
}

type synthResult struct {
	index int
	path  string
	ok    bool
}

// Reader reads text aloud.
type Reader struct {
	synth  Synthesizer
	player AudioPlayer
	cfg    Config

	cmds chan command
	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	status Status

	// Owned by the loop goroutine.
	state   State
	text    string
	chunks  []string
	index   int
	skipped int
	session string
	ready   string // synthesized path waiting for resume

	readCtx    context.Context
	readCancel context.CancelFunc
	synthDone  chan synthResult
	playDone   chan error
	playPath   string
	playCancel context.CancelFunc

	// Lookahead: the chunk after the one sounding is synthesized while it
	// plays. aheadDone is set while that job runs, ahead once it is done.
	aheadIndex int
	aheadDone  chan synthResult
	ahead      *synthResult
}

// New starts a Reader.
func New(synth Synthesizer, player AudioPlayer, cfg Config) *Reader {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	r := &Reader{
		synth:  synth,
		player: player,
		cfg:    cfg,
		cmds:   make(chan command),
		quit:   make(chan struct{}),
		status: Status{Backend: cfg.Backend},
	}
	r.wg.Add(1)
	go r.loop()
	return r
}

// SetText replaces the text, stopping any active reading. The reader
// returns to idle with the new chunk list.
func (r *Reader) SetText(s string) error { return r.send(cmdSetText, s) }

// SetBackend selects the speech backend and rechunks the current text.
func (r *Reader) SetBackend(id string) error { return r.send(cmdSetBackend, id) }

// ReadAloud starts reading from the first chunk.
func (r *Reader) ReadAloud() error { return r.send(cmdReadAloud, "") }

// Pause pauses reading, keeping the current chunk.
func (r *Reader) Pause() error { return r.send(cmdPause, "") }

// Resume continues a paused reading with the same chunk.
func (r *Reader) Resume() error { return r.send(cmdResume, "") }

// Stop halts reading and removes temporary audio.
func (r *Reader) Stop() error { return r.send(cmdStop, "") }

// Status returns the current status.
func (r *Reader) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Chunks returns the current chunk list.
func (r *Reader) Chunks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.chunks...)
}

// Close stops reading, sweeps temporary audio and ends the reader
// goroutine.
func (r *Reader) Close() error {
	r.once.Do(func() { close(r.quit) })
	r.wg.Wait()
	return nil
}

func (r *Reader) send(kind commandKind, arg string) error {
	c := command{kind: kind, arg: arg, done: make(chan struct{})}
	select {
	case r.cmds <- c:
	case <-r.quit:
		return ErrClosed
	}
	<-c.done
	return nil
}

func (r *Reader) loop() {
	defer r.wg.Done()
	for {
		select {
		case c := <-r.cmds:
			r.handle(c)
			r.publish()
			close(c.done)
			continue
		case res := <-r.synthDone:
			r.synthDone = nil
			r.onSynthesized(res)
		case res := <-r.aheadDone:
			r.aheadDone = nil
			r.ahead = &res
		case err := <-r.playDone:
			r.playDone = nil
			r.onPlayed(err)
		case <-r.quit:
			r.halt()
			n := Sweep(r.cfg.TempDir, r.cfg.Prefix)
			log.Debug("Reader closed", "swept", n)
			return
		}
		r.publish()
	}
}

func (r *Reader) handle(c command) {
	switch c.kind {
	case cmdSetText:
		r.halt()
		r.text = c.arg
		r.rechunk()
		r.state = StateIdle
	case cmdSetBackend:
		if c.arg == r.cfg.Backend {
			return
		}
		r.halt()
		r.cfg.Backend = c.arg
		r.rechunk()
		r.state = StateIdle
	case cmdReadAloud:
		r.readAloud()
	case cmdPause:
		r.pause()
	case cmdResume:
		r.resume()
	case cmdStop:
		r.stop()
	}
}

func (r *Reader) rechunk() {
	size := r.synth.ChunkSize(context.Background(), r.cfg.Backend)
	chunks := text.Chunk(text.Normalize(r.text), size)
	r.mu.Lock()
	r.chunks = chunks
	r.mu.Unlock()
	r.index = 0
	r.skipped = 0
	log.Debug("Text chunked", "chunks", len(chunks), "size", size, "backend", r.cfg.Backend)
}

func (r *Reader) readAloud() {
	r.halt()
	r.index = 0
	r.skipped = 0
	if len(r.chunks) == 0 {
		log.Info("Nothing to read")
		r.state = StateIdle
		return
	}
	r.session = uuid.NewString()[:8]
	r.readCtx, r.readCancel = context.WithCancel(context.Background())
	r.state = StatePlaying
	log.Info("Reading aloud", "chunks", len(r.chunks), "backend", r.cfg.Backend, "session", r.session)
	r.startChunk(0)
}

func (r *Reader) pause() {
	if r.state != StatePlaying {
		return
	}
	r.state = StatePaused
	if r.playDone == nil {
		return
	}
	err := r.player.Pause()
	if err == nil {
		return
	}
	// The stream has not started or has just drained.
	log.Debug("Pausing audio", "error", err)
	r.playCancel()
	if err := <-r.playDone; err == nil {
		r.playDone = nil
		r.onPlayed(nil)
		return
	}
	r.playDone = nil
	r.ready = r.playPath
	r.playPath = ""
}

func (r *Reader) resume() {
	if r.state != StatePaused {
		return
	}
	r.state = StatePlaying
	switch {
	case r.playDone != nil:
		if err := r.player.Resume(); err != nil {
			log.Debug("Resuming audio", "error", err)
		}
	case r.synthDone != nil:
		// playback starts when synthesis finishes
	case r.ready != "":
		path := r.ready
		r.ready = ""
		r.play(path)
	default:
		r.startChunk(r.index)
	}
}

func (r *Reader) stop() {
	if r.state != StatePlaying && r.state != StatePaused {
		return
	}
	r.halt()
	n := Sweep(r.cfg.TempDir, r.cfg.Prefix)
	r.state = StateStopped
	log.Info("Reading stopped", "chunk", r.index, "swept", n)
}

// halt cancels synthesis and playback and waits for both to return, then
// removes their files.
func (r *Reader) halt() {
	if r.readCancel != nil {
		r.readCancel()
		r.readCancel = nil
	}
	if r.playDone != nil {
		_ = r.player.Stop()
		<-r.playDone
		r.playDone = nil
		r.playCancel()
		removeFile(r.playPath)
		r.playPath = ""
	}
	if r.synthDone != nil {
		res := <-r.synthDone
		r.synthDone = nil
		removeFile(res.path)
	}
	r.dropAhead()
	removeFile(r.ready)
	r.ready = ""
}

// dropAhead waits for the lookahead job, if any, and removes its file.
func (r *Reader) dropAhead() {
	if r.aheadDone != nil {
		res := <-r.aheadDone
		r.aheadDone = nil
		removeFile(res.path)
	}
	if r.ahead != nil {
		removeFile(r.ahead.path)
		r.ahead = nil
	}
}

// startChunk makes chunk i current, taking over the lookahead job when it
// covers i, or finishes the reading when i is past the end.
func (r *Reader) startChunk(i int) {
	r.index = i
	if i >= len(r.chunks) {
		r.dropAhead()
		r.finish()
		return
	}

	switch {
	case r.aheadDone != nil && r.aheadIndex == i:
		r.synthDone = r.aheadDone
		r.aheadDone = nil
		return
	case r.ahead != nil && r.ahead.index == i:
		res := *r.ahead
		r.ahead = nil
		r.onSynthesized(res)
		return
	}
	r.dropAhead()
	r.synthDone = r.synthesize(i)
}

// lookahead starts synthesizing chunk i in the background.
func (r *Reader) lookahead(i int) {
	if i >= len(r.chunks) || r.aheadDone != nil || r.ahead != nil {
		return
	}
	r.aheadIndex = i
	r.aheadDone = r.synthesize(i)
}

func (r *Reader) synthesize(i int) chan synthResult {
	path := chunkPath(r.cfg.TempDir, r.cfg.Prefix, r.session, i)
	done := make(chan synthResult, 1)
	ctx, chunk, backend := r.readCtx, r.chunks[i], r.cfg.Backend
	go func() {
		ok := r.synth.SynthesizeToFile(ctx, chunk, path, backend)
		done <- synthResult{index: i, path: path, ok: ok}
	}()
	return done
}

func (r *Reader) onSynthesized(res synthResult) {
	if !res.ok {
		log.Warn("Skipping chunk", "chunk", res.index, "reason", "synthesis failed")
		removeFile(res.path)
		r.skip()
		return
	}
	if r.state == StatePaused {
		r.ready = res.path
		return
	}
	r.play(res.path)
}

// skip moves past the current chunk. A paused reader moves on when resumed.
func (r *Reader) skip() {
	r.skipped++
	if r.state == StatePaused {
		r.index++
		return
	}
	r.startChunk(r.index + 1)
}

func (r *Reader) play(path string) {
	pcm, err := r.decode(path)
	if err != nil {
		log.Warn("Skipping chunk", "chunk", r.index, "reason", err)
		removeFile(path)
		r.skip()
		return
	}

	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(r.readCtx)
	r.playDone = done
	r.playPath = path
	r.playCancel = cancel
	go func() {
		done <- r.player.Play(ctx, pcm)
	}()
	r.lookahead(r.index + 1)
}

func (r *Reader) decode(path string) ([]byte, error) {
	pcm, err := audio.ReadWAVFile(path)
	if err != nil {
		return nil, err
	}
	rate, channels := r.player.Format()
	return pcm.Convert(rate, channels)
}

func (r *Reader) onPlayed(err error) {
	r.playCancel()
	removeFile(r.playPath)
	r.playPath = ""
	if err != nil && !errors.Is(err, audio.ErrInterrupted) && !errors.Is(err, context.Canceled) {
		log.Warn("Skipping chunk", "chunk", r.index, "reason", err)
		r.skip()
		return
	}
	if r.state == StatePaused {
		r.index++
		return
	}
	r.startChunk(r.index + 1)
}

func (r *Reader) finish() {
	if r.readCancel != nil {
		r.readCancel()
		r.readCancel = nil
	}
	r.state = StateIdle
	log.Info("Reading finished", "chunks", len(r.chunks), "skipped", r.skipped)
}

func (r *Reader) publish() {
	s := Status{
		State:        r.state,
		Index:        r.index,
		Total:        len(r.chunks),
		Backend:      r.cfg.Backend,
		Synthesizing: r.synthDone != nil,
		Skipped:      r.skipped,
	}
	r.mu.Lock()
	changed := s != r.status
	r.status = s
	r.mu.Unlock()
	if changed && r.cfg.OnChange != nil {
		r.cfg.OnChange(s)
	}
}
