package tts

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
)

type fakeBackend struct {
	id        string
	chunkSize int
	voice     string
	unavail   error
	failWith  error
	noFile    bool
	partial   bool
	calls     atomic.Int32
	checks    atomic.Int32
}

func (f *fakeBackend) ID() string     { return f.id }
func (f *fakeBackend) Name() string   { return "fake " + f.id }
func (f *fakeBackend) ChunkSize() int { return f.chunkSize }
func (f *fakeBackend) Voice() string  { return f.voice }

func (f *fakeBackend) Available(context.Context) error {
	f.checks.Add(1)
	return f.unavail
}

func (f *fakeBackend) Synthesize(_ context.Context, text, path string) error {
	f.calls.Add(1)
	if f.partial {
		_ = os.WriteFile(path, []byte("half"), 0o600)
	}
	if f.failWith != nil {
		return f.failWith
	}
	if f.noFile {
		return nil
	}
	return os.WriteFile(path, []byte(f.id+":"+text), 0o600)
}

var errMissing = errors.New("binary not found")
