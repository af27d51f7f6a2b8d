package tts

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/errgroup"
)

// Registry maps backend IDs to backends.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
	order    []string
	fallback string
}

// NewRegistry returns an empty registry that falls back to DefaultBackend.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]Backend),
		fallback: DefaultBackend,
	}
}

// Register adds b. Registering the same ID twice is an error.
func (r *Registry) Register(b Backend) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.backends[b.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBackend, b.ID())
	}
	r.backends[b.ID()] = b
	r.order = append(r.order, b.ID())
	return nil
}

// Get returns the backend registered under id.
func (r *Registry) Get(id string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[id]
	return b, ok
}

// IDs returns registered IDs in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Suggest returns the registered ID closest to id, or "".
func (r *Registry) Suggest(id string) string {
	if id == "" {
		return ""
	}
	matches := fuzzy.Find(id, r.IDs())
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}

// Lookup returns the backend for id, or an error explaining why it cannot
// be used. It does not fall back.
func (r *Registry) Lookup(ctx context.Context, id string) (Backend, error) {
	b, ok := r.Get(id)
	if !ok {
		if s := r.Suggest(id); s != "" {
			return nil, fmt.Errorf("%w: %q (did you mean %q?)", ErrUnknownBackend, id, s)
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, id)
	}
	if err := b.Available(ctx); err != nil {
		return nil, NewError(ErrorCodeBackendUnavailable, id+" is not available", fmt.Errorf("%w: %w", ErrBackendUnavailable, err))
	}
	return b, nil
}

// Resolve returns the backend for id when it is registered and available.
// Otherwise it logs a warning and returns the fallback backend. An error is
// returned only when the fallback cannot be used either.
func (r *Registry) Resolve(ctx context.Context, id string) (Backend, error) {
	if id == "" {
		id = r.fallback
	}
	b, err := r.Lookup(ctx, id)
	if err == nil {
		return b, nil
	}
	if id == r.fallback {
		return nil, err
	}

	log.Warn("Falling back to default TTS backend", "requested", id, "fallback", r.fallback, "error", err)
	fb, ferr := r.Lookup(ctx, r.fallback)
	if ferr != nil {
		return nil, fmt.Errorf("%w (fallback: %w)", err, ferr)
	}
	return fb, nil
}

// Status describes one backend's availability.
type Status struct {
	ID        string
	Name      string
	Available bool
	Err       error
}

// Availability checks every backend concurrently.
func (r *Registry) Availability(ctx context.Context) []Status {
	ids := r.IDs()
	statuses := make([]Status, len(ids))

	var g errgroup.Group
	for i, id := range ids {
		b, _ := r.Get(id)
		g.Go(func() error {
			err := b.Available(ctx)
			statuses[i] = Status{ID: id, Name: b.Name(), Available: err == nil, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(statuses, func(i, j int) bool {
		return statuses[i].Available && !statuses[j].Available
	})
	return statuses
}
