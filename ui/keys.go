package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
)

type keyMap struct {
	Read      key.Binding
	Pause     key.Binding
	Resume    key.Binding
	Toggle    key.Binding
	Stop      key.Binding
	Summarize key.Binding
	Copy      key.Binding
	Open      key.Binding
	Back      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Read: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "read aloud"),
		),
		Pause: key.NewBinding(
			key.WithKeys("j"),
			key.WithHelp("j", "pause"),
		),
		Resume: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "resume"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pause/resume"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop"),
		),
		Summarize: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "summary/full text"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy text"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open file"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Read, k.Toggle, k.Stop, k.Summarize, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Read, k.Pause, k.Resume, k.Toggle, k.Stop},
		{k.Summarize, k.Copy, k.Open, k.Back},
		{k.Help, k.Quit},
	}
}

// The reader keys take j, f, u and space, so the viewport scrolls with the
// arrows, k and the paging keys only.
func viewportKeyMap() viewport.KeyMap {
	km := viewport.DefaultKeyMap()
	km.Up = key.NewBinding(key.WithKeys("up", "k"))
	km.Down = key.NewBinding(key.WithKeys("down"))
	km.PageUp = key.NewBinding(key.WithKeys("pgup", "b"))
	km.PageDown = key.NewBinding(key.WithKeys("pgdown"))
	km.HalfPageUp = key.NewBinding(key.WithKeys("ctrl+u"))
	km.HalfPageDown = key.NewBinding(key.WithKeys("ctrl+d"))
	return km
}
