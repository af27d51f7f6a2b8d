// Package ui provides the terminal interface of mailreader.
package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/mailreader/internal/playback"
	"github.com/muesli/termenv"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "copied!"
	ellipsis             = "…"
	statusBarHeight      = 1
)

// Reader is the playback surface the TUI drives.
type Reader interface {
	SetText(s string) error
	ReadAloud() error
	Pause() error
	Resume() error
	Stop() error
	Status() playback.Status
	Chunks() []string
}

// Extractor turns a PDF into text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Summarizer shortens text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Deps are the services behind the TUI.
type Deps struct {
	Reader     Reader
	Extractor  Extractor
	Summarizer Summarizer
	Feed       *StatusFeed
}

// NewProgram returns a new Tea program.
func NewProgram(cfg Config, deps Deps) *tea.Program {
	log.Debug(
		"Starting mailreader",
		"path", cfg.Path,
		"backend", cfg.Backend,
		"glamour", cfg.GlamourEnabled,
	)

	if cfg.GlamourStyle == "" || cfg.GlamourStyle == styles.AutoStyle {
		if termenv.HasDarkBackground() {
			cfg.GlamourStyle = styles.DarkStyle
		} else {
			cfg.GlamourStyle = styles.LightStyle
		}
	}

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, deps), opts...)
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type (
	extractedMsg struct {
		path   string
		text   string
		chunks []string
		err    error
	}
	summarizedMsg struct {
		summary string
		chunks  []string
		err     error
	}
	textSetMsg struct {
		chunks []string
		err    error
	}
	readerDoneMsg struct {
		action string
		err    error
	}
	statusMessageTimeoutMsg int
)

// state is the top-level application state.
type state int

const (
	statePicker state = iota
	stateLoading
	stateDocument
)

func (s state) String() string {
	return map[state]string{
		statePicker:   "picking a file",
		stateLoading:  "loading document",
		stateDocument: "showing document",
	}[s]
}

type model struct {
	cfg      Config
	deps     Deps
	keys     keyMap
	state    state
	fatalErr error
	width    int
	height   int

	picker   filepicker.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	loading  string

	path        string
	text        string
	summary     string
	showSummary bool
	summarizing bool
	readPending bool
	chunks      []string
	chunkLines  []int // first viewport line of each chunk
	status      playback.Status

	statusMessage string
	statusIsError bool
	statusSeq     int
}

func newModel(cfg Config, deps Deps) model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".pdf", ".PDF"}
	fp.AutoHeight = true
	fp.CurrentDirectory = cfg.StartDir
	if fp.CurrentDirectory == "" {
		fp.CurrentDirectory, _ = os.Getwd()
	}

	vp := viewport.New(0, 0)
	vp.KeyMap = viewportKeyMap()

	m := model{
		cfg:      cfg,
		deps:     deps,
		keys:     newKeyMap(),
		state:    statePicker,
		picker:   fp,
		viewport: vp,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:     help.New(),
	}
	if deps.Reader != nil {
		m.status = deps.Reader.Status()
	}
	if cfg.Path != "" {
		m.state = stateLoading
		m.path = cfg.Path
		m.loading = "Extracting " + filepath.Base(cfg.Path)
	}
	return m
}

func (m model) Init() tea.Cmd {
	log.Debug("Init() called", "state", m.state)
	cmds := []tea.Cmd{m.spinner.Tick, m.deps.Feed.wait()}
	switch m.state {
	case stateLoading:
		cmds = append(cmds, extractCmd(m.deps, m.path))
	case statePicker:
		cmds = append(cmds, m.picker.Init())
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If there's been an error, any key exits
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, tea.Quit
		}
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		switch m.state {
		case stateDocument:
			next, cmd, handled := m.handleDocumentKey(msg)
			if handled {
				return next, cmd
			}
		case statePicker:
			if key.Matches(msg, m.keys.Back) && m.text != "" {
				m.state = stateDocument
				m.refresh()
				return m, nil
			}
		case stateLoading:
			return m, nil
		}

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.setViewportSize()
		m.refresh()

	case extractedMsg:
		if msg.err != nil {
			log.Error("Could not extract PDF", "path", msg.path, "error", msg.err)
			if m.text == "" && msg.path == m.cfg.Path {
				m.fatalErr = msg.err
				return m, nil
			}
			m.state = statePicker
			return m, tea.Batch(m.picker.Init(), m.showStatusMessage(msg.err.Error(), true))
		}
		log.Info("Document loaded", "path", msg.path, "chars", len(msg.text), "chunks", len(msg.chunks))
		m.state = stateDocument
		m.path = msg.path
		m.text = msg.text
		m.chunks = msg.chunks
		m.summary = ""
		m.showSummary = false
		m.readPending = m.cfg.AutoRead
		m.status = m.deps.Reader.Status()
		m.refresh()
		m.viewport.GotoTop()
		if m.cfg.Summarize {
			m.summarizing = true
			cmds = append(cmds, summarizeCmd(m.deps, m.text))
		} else {
			cmds = append(cmds, m.takePendingRead())
		}

	case summarizedMsg:
		m.summarizing = false
		if msg.err != nil {
			log.Error("Could not summarize", "error", msg.err)
			cmds = append(cmds, m.showStatusMessage("Summary failed: "+msg.err.Error(), true))
			break
		}
		m.summary = msg.summary
		m.showSummary = true
		m.chunks = msg.chunks
		m.refresh()
		m.viewport.GotoTop()
		cmds = append(cmds, m.takePendingRead())

	case textSetMsg:
		if msg.err != nil {
			cmds = append(cmds, m.showStatusMessage(msg.err.Error(), true))
			break
		}
		m.chunks = msg.chunks
		m.refresh()
		m.viewport.GotoTop()

	case readerDoneMsg:
		if msg.err != nil {
			log.Error("Reader command failed", "action", msg.action, "error", msg.err)
			cmds = append(cmds, m.showStatusMessage(msg.action+" failed: "+msg.err.Error(), true))
		}
		m.status = m.deps.Reader.Status()
		m.refresh()

	case statusChangedMsg:
		m.status = m.deps.Reader.Status()
		m.refresh()
		cmds = append(cmds, m.deps.Feed.wait())

	case statusMessageTimeoutMsg:
		if int(msg) == m.statusSeq {
			m.statusMessage = ""
			m.statusIsError = false
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case errMsg:
		m.fatalErr = msg.err
		return m, nil
	}

	switch m.state {
	case statePicker:
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		cmds = append(cmds, cmd)
		if ok, path := m.picker.DidSelectFile(msg); ok {
			m.state = stateLoading
			m.loading = "Extracting " + filepath.Base(path)
			cmds = append(cmds, extractCmd(m.deps, path))
		}
	case stateDocument:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleDocumentKey applies the reader keys. handled is false for keys the
// viewport should see.
func (m model) handleDocumentKey(msg tea.KeyMsg) (next model, cmd tea.Cmd, handled bool) {
	r := m.deps.Reader
	switch {
	case key.Matches(msg, m.keys.Read):
		return m, readerCmd("Read aloud", r.ReadAloud), true
	case key.Matches(msg, m.keys.Pause):
		return m, readerCmd("Pause", r.Pause), true
	case key.Matches(msg, m.keys.Resume):
		return m, readerCmd("Resume", r.Resume), true
	case key.Matches(msg, m.keys.Toggle):
		switch m.status.State {
		case playback.StatePlaying:
			return m, readerCmd("Pause", r.Pause), true
		case playback.StatePaused:
			return m, readerCmd("Resume", r.Resume), true
		default:
			return m, readerCmd("Read aloud", r.ReadAloud), true
		}
	case key.Matches(msg, m.keys.Stop):
		return m, readerCmd("Stop", r.Stop), true
	case key.Matches(msg, m.keys.Summarize):
		return m.toggleSummary()
	case key.Matches(msg, m.keys.Copy):
		text := m.currentText()
		// Copy using OSC 52
		termenv.Copy(text)
		// Copy using native system clipboard
		_ = clipboard.WriteAll(text)
		return m, m.showStatusMessage("Copied text", false), true
	case key.Matches(msg, m.keys.Open):
		m.state = statePicker
		return m, m.picker.Init(), true
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.setViewportSize()
		if m.viewport.PastBottom() {
			m.viewport.GotoBottom()
		}
		return m, nil, true
	}
	return m, nil, false
}

// toggleSummary switches the reader between the full text and its summary,
// summarizing on first use.
func (m model) toggleSummary() (model, tea.Cmd, bool) {
	if m.summarizing {
		return m, nil, true
	}
	if m.showSummary {
		m.showSummary = false
		return m, setTextCmd(m.deps.Reader, m.text), true
	}
	if m.summary != "" {
		m.showSummary = true
		return m, setTextCmd(m.deps.Reader, m.summary), true
	}
	m.summarizing = true
	return m, summarizeCmd(m.deps, m.text), true
}

func (m model) currentText() string {
	if m.showSummary {
		return m.summary
	}
	return m.text
}

func (m *model) takePendingRead() tea.Cmd {
	if !m.readPending {
		return nil
	}
	m.readPending = false
	return readerCmd("Read aloud", m.deps.Reader.ReadAloud)
}

func (m *model) setViewportSize() {
	m.viewport.Width = m.width
	m.viewport.Height = m.height - statusBarHeight
	if m.help.ShowAll {
		m.viewport.Height -= strings.Count(m.helpView(), "\n") + 1
	}
	m.viewport.Height = max(m.viewport.Height, 0)
}

// showStatusMessage shows msg in the status bar for statusMessageTimeout.
func (m *model) showStatusMessage(msg string, isError bool) tea.Cmd {
	m.statusSeq++
	m.statusMessage = msg
	m.statusIsError = isError
	seq := m.statusSeq
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg(seq)
	})
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorView(m.fatalErr, true)
	}

	switch m.state {
	case statePicker:
		return m.pickerView()
	case stateLoading:
		return fmt.Sprintf("\n  %s %s%s\n", m.spinner.View(), m.loading, ellipsis)
	default:
		var b strings.Builder
		fmt.Fprint(&b, m.viewport.View()+"\n")
		m.statusBarView(&b)
		if m.help.ShowAll {
			fmt.Fprint(&b, "\n"+m.helpView())
		}
		return b.String()
	}
}

func errorView(err error, fatal bool) string {
	exitMsg := "press any key to "
	if fatal {
		exitMsg += "exit"
	} else {
		exitMsg += "return"
	}
	s := fmt.Sprintf("%s\n\n%v\n\n%s",
		errorTitleStyle.Render("ERROR"),
		err,
		subtleStyle.Render(exitMsg),
	)
	return "\n" + indent(s, 3)
}

// COMMANDS

func extractCmd(deps Deps, path string) tea.Cmd {
	return func() tea.Msg {
		text, err := deps.Extractor.Extract(context.Background(), path)
		if err != nil {
			return extractedMsg{path: path, err: err}
		}
		if err := deps.Reader.SetText(text); err != nil {
			return extractedMsg{path: path, err: err}
		}
		return extractedMsg{path: path, text: text, chunks: deps.Reader.Chunks()}
	}
}

func summarizeCmd(deps Deps, text string) tea.Cmd {
	return func() tea.Msg {
		summary, err := deps.Summarizer.Summarize(context.Background(), text)
		if err != nil {
			return summarizedMsg{err: err}
		}
		if err := deps.Reader.SetText(summary); err != nil {
			return summarizedMsg{err: err}
		}
		return summarizedMsg{summary: summary, chunks: deps.Reader.Chunks()}
	}
}

func setTextCmd(r Reader, text string) tea.Cmd {
	return func() tea.Msg {
		if err := r.SetText(text); err != nil {
			return textSetMsg{err: err}
		}
		return textSetMsg{chunks: r.Chunks()}
	}
}

func readerCmd(action string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return readerDoneMsg{action: action, err: fn()}
	}
}

// ETC

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}
