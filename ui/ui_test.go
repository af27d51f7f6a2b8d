package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgnsrekt/mailreader/internal/playback"
)

type fakeReader struct {
	mu     sync.Mutex
	calls  []string
	text   string
	status playback.Status
	err    error
}

func (f *fakeReader) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeReader) SetText(s string) error {
	f.mu.Lock()
	f.text = s
	f.mu.Unlock()
	return f.record("set")
}

func (f *fakeReader) ReadAloud() error { return f.record("read") }
func (f *fakeReader) Pause() error     { return f.record("pause") }
func (f *fakeReader) Resume() error    { return f.record("resume") }
func (f *fakeReader) Stop() error      { return f.record("stop") }

func (f *fakeReader) Status() playback.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeReader) Chunks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.text == "" {
		return nil
	}
	return strings.Split(f.text, " | ")
}

func (f *fakeReader) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) Extract(context.Context, string) (string, error) { return f.text, f.err }

type fakeSummarizer struct{ summary string }

func (f fakeSummarizer) Summarize(context.Context, string) (string, error) { return f.summary, nil }

func newTestModel(t *testing.T, r *fakeReader) model {
	t.Helper()
	deps := Deps{
		Reader:     r,
		Extractor:  fakeExtractor{text: "First chunk. | Second chunk."},
		Summarizer: fakeSummarizer{summary: "Short."},
	}
	m := newModel(Config{Path: "letter.pdf", StartDir: t.TempDir()}, deps)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = next.(model)
	next, _ = m.Update(extractCmd(deps, "letter.pdf")())
	return next.(model)
}

func keyMsg(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(s)}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and runs the reader command it produces.
func press(t *testing.T, m model, s string) model {
	t.Helper()
	next, cmd, handled := m.handleDocumentKey(keyMsg(s))
	if !handled {
		t.Fatalf("key %q not handled", s)
	}
	if cmd != nil {
		updated, _ := next.Update(cmd())
		next = updated.(model)
	}
	return next
}

// findMsg runs cmd, flattening batches, and returns the first T produced.
func findMsg[T tea.Msg](cmd tea.Cmd) (T, bool) {
	var zero T
	if cmd == nil {
		return zero, false
	}
	switch msg := cmd().(type) {
	case T:
		return msg, true
	case tea.BatchMsg:
		for _, c := range msg {
			if found, ok := findMsg[T](c); ok {
				return found, true
			}
		}
	}
	return zero, false
}

func TestModelLoadsDocument(t *testing.T) {
	r := &fakeReader{}
	m := newTestModel(t, r)

	if m.state != stateDocument {
		t.Fatalf("state = %s", m.state)
	}
	if len(m.chunks) != 2 {
		t.Errorf("chunks = %v", m.chunks)
	}
	if r.text != "First chunk. | Second chunk." {
		t.Errorf("reader text = %q", r.text)
	}
	view := m.View()
	if !strings.Contains(view, "Second chunk.") {
		t.Errorf("document not rendered:\n%s", view)
	}
	if !strings.Contains(view, "Press r to read aloud") {
		t.Errorf("status bar missing hint:\n%s", view)
	}
}

func TestReaderKeys(t *testing.T) {
	tests := []struct {
		key   string
		state playback.State
		want  string
	}{
		{"r", playback.StateIdle, "read"},
		{"j", playback.StatePlaying, "pause"},
		{"f", playback.StatePaused, "resume"},
		{"s", playback.StatePlaying, "stop"},
		{" ", playback.StatePlaying, "pause"},
		{" ", playback.StatePaused, "resume"},
		{" ", playback.StateStopped, "read"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"/"+tt.state.String(), func(t *testing.T) {
			r := &fakeReader{}
			m := newTestModel(t, r)
			r.status = playback.Status{State: tt.state, Total: 2}
			m.status = r.status

			press(t, m, tt.key)
			if got := r.last(); got != tt.want {
				t.Errorf("key %q called %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestReaderErrorShowsStatusMessage(t *testing.T) {
	r := &fakeReader{}
	m := newTestModel(t, r)
	r.err = errors.New("device busy")

	m = press(t, m, "r")
	if !m.statusIsError || !strings.Contains(m.statusMessage, "device busy") {
		t.Errorf("status message = %q (error %v)", m.statusMessage, m.statusIsError)
	}
}

func TestSummaryToggle(t *testing.T) {
	r := &fakeReader{}
	m := newTestModel(t, r)

	m = press(t, m, "u")
	if !m.showSummary || m.summary != "Short." {
		t.Fatalf("summary not shown: %+v", m.summary)
	}
	if r.text != "Short." {
		t.Errorf("reader text = %q, want the summary", r.text)
	}
	if !strings.Contains(m.View(), "Summary") {
		t.Error("header does not mention the summary")
	}

	m = press(t, m, "u")
	if m.showSummary {
		t.Error("summary still shown")
	}
	if r.text != "First chunk. | Second chunk." {
		t.Errorf("reader text = %q, want the full text", r.text)
	}
	if len(m.chunks) != 2 {
		t.Errorf("chunks = %v", m.chunks)
	}
}

func TestStatusChangedHighlightsChunk(t *testing.T) {
	r := &fakeReader{}
	m := newTestModel(t, r)

	r.status = playback.Status{State: playback.StatePlaying, Index: 1, Total: 2, Backend: "system"}
	next, _ := m.Update(statusChangedMsg{})
	m = next.(model)

	if m.status.Index != 1 {
		t.Errorf("status not refreshed: %+v", m.status)
	}
	bar := m.readerNote()
	for _, want := range []string{"2/2", "system"} {
		if !strings.Contains(bar, want) {
			t.Errorf("status %q missing %q", bar, want)
		}
	}
}

func TestAutoReadAndSummarize(t *testing.T) {
	r := &fakeReader{}
	deps := Deps{
		Reader:     r,
		Extractor:  fakeExtractor{text: "Body."},
		Summarizer: fakeSummarizer{summary: "Gist."},
	}
	m := newModel(Config{Path: "a.pdf", Summarize: true, AutoRead: true}, deps)

	next, cmd := m.Update(extractCmd(deps, "a.pdf")())
	m = next.(model)
	if !m.summarizing || cmd == nil {
		t.Fatal("expected summarizing to start")
	}
	next, cmd = m.Update(summarizeCmd(deps, m.text)())
	m = next.(model)
	if !m.showSummary {
		t.Fatal("summary not shown")
	}
	if cmd == nil {
		t.Fatal("expected read aloud after the summary")
	}
	if msg, ok := findMsg[readerDoneMsg](cmd); !ok || msg.action != "Read aloud" {
		t.Errorf("unexpected command result %#v", msg)
	}
	if r.last() != "read" {
		t.Errorf("last call = %q", r.last())
	}
}

func TestExtractFailureIsFatalOnStart(t *testing.T) {
	deps := Deps{Reader: &fakeReader{}, Extractor: fakeExtractor{err: errors.New("no readable text")}}
	m := newModel(Config{Path: "scan.pdf"}, deps)

	next, _ := m.Update(extractCmd(deps, "scan.pdf")())
	m = next.(model)
	if m.fatalErr == nil {
		t.Fatal("expected a fatal error")
	}
	if !strings.Contains(m.View(), "no readable text") {
		t.Error("error not shown")
	}
	if _, cmd := m.Update(keyMsg("x")); cmd == nil {
		t.Error("any key should quit after a fatal error")
	}
}

func TestStatusMessageTimeout(t *testing.T) {
	m := newTestModel(t, &fakeReader{})
	_ = m.showStatusMessage("Copied text", false)
	seq := m.statusSeq
	_ = m.showStatusMessage("Copied again", false)

	next, _ := m.Update(statusMessageTimeoutMsg(seq))
	m = next.(model)
	if m.statusMessage != "Copied again" {
		t.Error("stale timeout cleared a newer message")
	}
	next, _ = m.Update(statusMessageTimeoutMsg(m.statusSeq))
	m = next.(model)
	if m.statusMessage != "" {
		t.Error("message not cleared")
	}
}

func TestStatusFeedCoalesces(t *testing.T) {
	f := NewStatusFeed()
	for range 5 {
		f.OnChange(playback.Status{})
	}
	if _, ok := f.wait()().(statusChangedMsg); !ok {
		t.Fatal("expected a status change")
	}
	select {
	case <-f.ch:
		t.Error("changes were not coalesced")
	default:
	}
}

func TestOpenKeyShowsPicker(t *testing.T) {
	m := newTestModel(t, &fakeReader{})
	next, _, _ := m.handleDocumentKey(keyMsg("o"))
	if next.state != statePicker {
		t.Fatalf("state = %s", next.state)
	}
	updated, _ := next.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if updated.(model).state != stateDocument {
		t.Error("esc should return to the open document")
	}
}
