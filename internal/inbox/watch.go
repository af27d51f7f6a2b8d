// Package inbox watches a directory for new PDF files.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before it is handled.
const DefaultDebounce = 500 * time.Millisecond

// Handler processes one new PDF. Errors are logged and the watcher moves on.
type Handler func(ctx context.Context, path string) error

// Config configures Watch.
type Config struct {
	Dir      string
	Existing bool // handle PDFs already in Dir on start
	Debounce time.Duration
}

// Watch calls h once for every PDF created in cfg.Dir until ctx is done.
// Files are handled one at a time, after their writes have settled.
func Watch(ctx context.Context, cfg Config, h Handler) error {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return fmt.Errorf("unable to watch inbox: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("unable to watch inbox: %s is not a directory", cfg.Dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating fsnotify watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck
	if err := watcher.Add(cfg.Dir); err != nil {
		return fmt.Errorf("error adding dir to fsnotify watcher: %w", err)
	}
	log.Info("Watching inbox", "dir", cfg.Dir, "existing", cfg.Existing)

	w := &inbox{
		handler: h,
		seen:    map[string]bool{},
		pending: map[string]time.Time{},
	}
	existing, err := existingPDFs(cfg.Dir)
	if err != nil {
		return err
	}
	for _, p := range existing {
		if cfg.Existing {
			w.handle(ctx, p)
		} else {
			w.seen[p] = true
		}
	}

	tick := time.NewTicker(cfg.Debounce / 2)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("Inbox watcher stopped", "handled", w.handled)
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isPDF(event.Name) || (!event.Has(fsnotify.Create) && !event.Has(fsnotify.Write)) {
				continue
			}
			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			w.pending[event.Name] = time.Now()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Debug("fsnotify error", "dir", cfg.Dir, "error", err)
		case now := <-tick.C:
			w.flush(ctx, now, cfg.Debounce)
		}
	}
}

type inbox struct {
	handler Handler
	seen    map[string]bool
	pending map[string]time.Time
	handled int
}

// flush handles every pending file that has been quiet for d.
func (w *inbox) flush(ctx context.Context, now time.Time, d time.Duration) {
	var ready []string
	for p, last := range w.pending {
		if now.Sub(last) >= d {
			ready = append(ready, p)
		}
	}
	sort.Strings(ready)
	for _, p := range ready {
		delete(w.pending, p)
		if w.seen[p] {
			continue
		}
		if info, err := os.Stat(p); err != nil || !info.Mode().IsRegular() {
			continue
		}
		w.handle(ctx, p)
	}
}

func (w *inbox) handle(ctx context.Context, path string) {
	w.seen[path] = true
	w.handled++
	log.Info("New PDF", "path", path)
	if err := w.handler(ctx, path); err != nil {
		log.Error("Could not process PDF", "path", path, "error", err)
	}
}

func existingPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read inbox: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && isPDF(e.Name()) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
