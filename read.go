package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/mailreader/internal/playback"
	"github.com/dgnsrekt/mailreader/ui"
)

// readDocument extracts path, optionally summarizes it, and reads the
// result aloud without the TUI. It returns when reading finishes or ctx is
// done.
func readDocument(ctx context.Context, a *app, path string, summarize bool) error {
	fmt.Println(keyword("Reading"), filepath.Base(path))

	content, err := a.extractor.Extract(ctx, path)
	if err != nil {
		return err
	}
	if summarize {
		content, err = a.summarizer.Summarize(ctx, content)
		if err != nil {
			return fmt.Errorf("unable to summarize: %w", err)
		}
		printMarkdown("## Summary\n\n" + content)
	}

	changes := make(chan struct{}, 1)
	reader, closeReader, err := a.newReader(func(playback.Status) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer closeReader()

	if err := reader.SetText(content); err != nil {
		return err
	}
	if err := reader.ReadAloud(); err != nil {
		return err
	}
	return waitForReader(ctx, reader, changes)
}

// waitForReader blocks until reader leaves the playing and paused states.
// Cancelling ctx stops the reading.
func waitForReader(ctx context.Context, reader *playback.Reader, changes <-chan struct{}) error {
	last := -1
	for {
		s := reader.Status()
		switch s.State {
		case playback.StatePlaying, playback.StatePaused:
			if s.Index != last && s.Total > 0 {
				last = s.Index
				fmt.Fprintf(os.Stderr, "%s chunk %d/%d\n", subtle("»"), s.Index+1, s.Total)
			}
		default:
			if s.Skipped > 0 {
				log.Warn("Some chunks could not be read", "skipped", s.Skipped)
				if s.Skipped == s.Total {
					return errors.New("no chunk could be synthesized, run `mailreader backends` to check the speech backends")
				}
			}
			return nil
		}

		select {
		case <-ctx.Done():
			_ = reader.Stop()
			fmt.Fprintln(os.Stderr, subtle("Stopped."))
			return nil
		case <-changes:
		}
	}
}

func printMarkdown(md string) {
	out, err := ui.RenderMarkdown(md, style, int(width)) //nolint:gosec
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}
