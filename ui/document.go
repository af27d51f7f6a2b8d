package ui

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/mailreader/internal/playback"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

const (
	minTextWidth    = 20
	documentMargins = 2
)

// refresh re-renders the document into the viewport and keeps the current
// chunk in view.
func (m *model) refresh() {
	if m.state != stateDocument {
		return
	}
	content, lines := m.documentView()
	m.viewport.SetContent(content)
	m.chunkLines = lines
	m.follow()
}

// follow scrolls the viewport to the chunk being read.
func (m *model) follow() {
	if !m.reading() || m.status.Index >= len(m.chunkLines) {
		return
	}
	line := m.chunkLines[m.status.Index]
	if line < m.viewport.YOffset || line >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(line)
	}
}

func (m model) reading() bool {
	return m.status.State == playback.StatePlaying || m.status.State == playback.StatePaused
}

func (m model) textWidth() int {
	w := m.width - 2*documentMargins
	if m.cfg.GlamourMaxWidth > 0 {
		w = min(w, int(m.cfg.GlamourMaxWidth)) //nolint:gosec
	}
	return max(w, minTextWidth)
}

// documentView renders the header and every chunk, highlighting the one
// being read. It returns the first line of each chunk.
func (m model) documentView() (string, []int) {
	width := m.textWidth()
	margin := strings.Repeat(" ", documentMargins)

	var b strings.Builder
	header := m.headerView(width)
	b.WriteString(header)
	line := strings.Count(header, "\n")

	lines := make([]int, len(m.chunks))
	for i, chunk := range m.chunks {
		lines[i] = line
		wrapped := strings.Split(wordwrap.String(chunk, width), "\n")
		for _, l := range wrapped {
			if m.reading() && i == m.status.Index {
				l = highlightStyle.Render(l)
			}
			b.WriteString(margin + l + "\n")
		}
		b.WriteString("\n")
		line += len(wrapped) + 1
	}
	return b.String(), lines
}

func (m model) headerView(width int) string {
	title := runewidth.Truncate(filepath.Base(m.path), max(width-2, 1), ellipsis)
	kind := "Full text"
	if m.showSummary {
		kind = "Summary"
	}
	md := fmt.Sprintf("# %s\n\n*%s, %d chunks*\n", title, kind, len(m.chunks))
	if !m.cfg.GlamourEnabled {
		return md + "\n"
	}
	out, err := glamourRender(md, m.cfg.GlamourStyle, width)
	if err != nil {
		log.Error("error rendering with Glamour", "error", err)
		return md + "\n"
	}
	return out
}

// glamourRender renders markdown for the terminal.
func glamourRender(md, style string, width int) (string, error) {
	options := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		options = append(options, glamour.WithAutoStyle())
	} else {
		options = append(options, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return "", fmt.Errorf("error creating glamour renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("error rendering markdown: %w", err)
	}
	return out, nil
}

// RenderMarkdown renders md with glamour at width using style ("auto",
// "dark", "light", "notty" ...).
func RenderMarkdown(md, style string, width int) (string, error) {
	if style == "auto" {
		style = ""
	}
	return glamourRender(md, style, width)
}

func (m model) statusBarView(b *strings.Builder) {
	const (
		minPercent               float64 = 0.0
		maxPercent               float64 = 1.0
		percentToStringMagnitude float64 = 100.0
	)

	showStatusMessage := m.statusMessage != ""
	barStyle := statusBarNoteStyle
	if showStatusMessage {
		barStyle = statusBarMessageStyle
		if m.statusIsError {
			barStyle = statusBarErrorStyle
		}
	}

	logo := logoView()

	percent := math.Max(minPercent, math.Min(maxPercent, m.status.Progress()))
	progress := statusBarProgressStyle(fmt.Sprintf(" %3.f%% ", percent*percentToStringMagnitude))

	helpNote := statusBarHelpStyle(" ? Help ")

	var note string
	if showStatusMessage {
		note = m.statusMessage
	} else {
		note = filepath.Base(m.path) + " | " + m.readerNote()
	}
	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		m.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(progress)-
			ansi.PrintableRuneWidth(helpNote),
	)), ellipsis)
	note = barStyle(note)

	// Empty space
	padding := max(0,
		m.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(progress)-
			ansi.PrintableRuneWidth(helpNote),
	)
	emptySpace := barStyle(strings.Repeat(" ", padding))

	fmt.Fprintf(b, "%s%s%s%s%s",
		logo,
		note,
		emptySpace,
		progress,
		helpNote,
	)
}

// readerNote describes the reader state for the status bar.
func (m model) readerNote() string {
	if m.summarizing {
		return m.spinner.View() + " Summarizing" + ellipsis
	}
	s := m.status
	var note string
	switch s.State {
	case playback.StatePlaying, playback.StatePaused:
		note = fmt.Sprintf("%s %d/%d", stateLabel(s.State), min(s.Index+1, s.Total), s.Total)
		if s.Synthesizing {
			note = m.spinner.View() + " " + note
		}
	case playback.StateStopped:
		note = fmt.Sprintf("Stopped at %d/%d", min(s.Index+1, s.Total), s.Total)
	default:
		note = "Press r to read aloud"
	}
	if s.Backend != "" {
		note += " · " + s.Backend
	}
	if s.Skipped > 0 {
		note += fmt.Sprintf(" · %d skipped", s.Skipped)
	}
	return note
}

func stateLabel(s playback.State) string {
	label := strings.ToUpper(s.String()[:1]) + s.String()[1:]
	return stateStyles[s.String()].Render(label)
}

func (m model) helpView() string {
	s := m.help.FullHelpView(m.keys.FullHelp())

	// Fill up empty cells with spaces for background coloring
	if m.width > 0 {
		lines := strings.Split(s, "\n")
		for i := range lines {
			l := ansi.PrintableRuneWidth(lines[i])
			n := max(m.width-l-4, 0)
			lines[i] += strings.Repeat(" ", n)
		}
		s = strings.Join(lines, "\n")
	}
	return helpViewStyle.Render(s)
}

func (m model) pickerView() string {
	var b strings.Builder
	b.WriteString("\n  " + logoView() + " " + subtleStyle.Render("Pick a PDF to read") + "\n\n")
	b.WriteString(m.picker.View())
	b.WriteString("\n")
	if m.statusMessage != "" {
		style := statusBarMessageStyle
		if m.statusIsError {
			style = statusBarErrorStyle
		}
		b.WriteString("  " + style(" "+m.statusMessage+" ") + "\n")
	}
	b.WriteString("  " + m.help.ShortHelpView([]key.Binding{m.keys.Back, m.keys.Quit}))
	return b.String()
}
