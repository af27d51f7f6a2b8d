package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgnsrekt/mailreader/internal/playback"
)

type statusChangedMsg struct{}

// StatusFeed wakes the TUI when the reader status changes. Pass OnChange
// as the reader's change callback. Bursts of changes coalesce into one
// wake-up; the TUI reads the latest status itself.
type StatusFeed struct {
	ch chan struct{}
}

// NewStatusFeed returns a StatusFeed.
func NewStatusFeed() *StatusFeed {
	return &StatusFeed{ch: make(chan struct{}, 1)}
}

// OnChange signals a status change. It never blocks.
func (f *StatusFeed) OnChange(playback.Status) {
	select {
	case f.ch <- struct{}{}:
	default:
	}
}

func (f *StatusFeed) wait() tea.Cmd {
	if f == nil {
		return nil
	}
	return func() tea.Msg {
		<-f.ch
		return statusChangedMsg{}
	}
}
