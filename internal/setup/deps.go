package setup

import (
	"context"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/mailreader/internal/proc"
	"github.com/dgnsrekt/mailreader/internal/tts"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// Tool is an external program used outside of a single backend.
type Tool struct {
	Name         string
	Purpose      string
	VersionArgs  []string
	Required     bool
	Instructions string
}

// ToolStatus is the result of looking up a Tool.
type ToolStatus struct {
	Tool
	Installed bool
	Path      string
	Version   string
}

// Tools lists the programs checked by the dependency report.
var Tools = []Tool{
	{
		Name:         "pdftoppm",
		Purpose:      "OCR page rendering",
		VersionArgs:  []string{"-v"},
		Instructions: "Install poppler-utils (apt install poppler-utils, brew install poppler).",
	},
	{
		Name:         "tesseract",
		Purpose:      "OCR text recognition",
		VersionArgs:  []string{"--version"},
		Instructions: "Install tesseract (apt install tesseract-ocr, brew install tesseract).",
	},
	{
		Name:         "ffmpeg",
		Purpose:      "gTTS audio conversion",
		VersionArgs:  []string{"-version"},
		Instructions: "Install ffmpeg (apt install ffmpeg, brew install ffmpeg).",
	},
}

// Report is the result of a dependency check.
type Report struct {
	Backends   []tts.Status
	Tools      []ToolStatus
	Python     ToolStatus
	CacheDir   string
	CacheBytes uint64
	FirstRun   bool
	Took       time.Duration
}

// Available returns the IDs of the usable backends.
func (r Report) Available() []string {
	var ids []string
	for _, b := range r.Backends {
		if b.Available {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

// Checker builds dependency reports.
type Checker struct {
	Registry *tts.Registry
	Python   string
	Paths    Paths
	Store    *Store
}

// Check probes every backend and tool concurrently.
func (c *Checker) Check(ctx context.Context) Report {
	start := time.Now()
	rep := Report{
		Tools:    make([]ToolStatus, len(Tools)),
		CacheDir: c.Paths.Cache,
	}

	var g errgroup.Group
	g.Go(func() error {
		rep.Backends = c.Registry.Availability(ctx)
		return nil
	})
	for i, t := range Tools {
		g.Go(func() error {
			rep.Tools[i] = checkTool(ctx, t)
			return nil
		})
	}
	g.Go(func() error {
		rep.Python = checkTool(ctx, Tool{
			Name:         c.Python,
			Purpose:      "package installer",
			VersionArgs:  []string{"--version"},
			Required:     true,
			Instructions: "Install Python 3.9 or newer from https://www.python.org/downloads/",
		})
		return nil
	})
	g.Go(func() error {
		rep.CacheBytes = dirSize(c.Paths.Cache)
		return nil
	})
	_ = g.Wait()

	if c.Store != nil {
		rep.FirstRun = c.Store.IsFirstRun()
	}
	rep.Took = time.Since(start)
	log.Debug("Dependency check finished", "duration", rep.Took, "available", rep.Available())
	return rep
}

func checkTool(ctx context.Context, t Tool) ToolStatus {
	st := ToolStatus{Tool: t}
	path, err := exec.LookPath(t.Name)
	if err != nil {
		return st
	}
	st.Installed = true
	st.Path = path

	res, err := proc.Run(ctx, proc.Command{Name: path, Args: t.VersionArgs, Timeout: 5 * time.Second})
	if err != nil {
		log.Debug("Could not read tool version", "tool", t.Name, "error", err)
	}
	// pdftoppm prints its version on stderr
	out := string(res.Stdout)
	if strings.TrimSpace(out) == "" {
		out = string(res.Stderr)
	}
	st.Version = firstLine(out)
	return st
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func dirSize(dir string) uint64 {
	var total uint64
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				total += uint64(info.Size()) //nolint:gosec
			}
		}
		return nil
	})
	return total
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginBottom(1)
	headingStyle   = lipgloss.NewStyle().Bold(true)
	installedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	missingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	optionalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	faintStyle     = lipgloss.NewStyle().Faint(true)
	guidanceStyle  = lipgloss.NewStyle().PaddingLeft(4)
)

// Render formats the report for the terminal. verbose adds install
// instructions for everything missing.
func (r Report) Render(verbose bool) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Dependency Check Report"))
	b.WriteString("\n")

	b.WriteString(headingStyle.Render("Speech backends") + "\n")
	for _, s := range r.Backends {
		if s.Available {
			fmt.Fprintf(&b, "%s %s\n", installedStyle.Render("  ✓ "+s.ID+":"), s.Name)
			continue
		}
		fmt.Fprintf(&b, "%s %s\n", optionalStyle.Render("  ○ "+s.ID+":"), faintStyle.Render(reason(s.Err)))
		if verbose {
			b.WriteString(guidanceStyle.Render(tts.Guidance(s.ID)) + "\n")
		}
	}

	b.WriteString("\n" + headingStyle.Render("Tools") + "\n")
	for _, t := range append([]ToolStatus{r.Python}, r.Tools...) {
		b.WriteString(renderTool(t, verbose))
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Audio cache: %s (%s)\n", r.CacheDir, humanize.Bytes(r.CacheBytes))
	if r.FirstRun {
		b.WriteString(optionalStyle.Render("Setup has not been completed yet.") + "\n")
	}
	b.WriteString(faintStyle.Render(fmt.Sprintf("Checked in %s", r.Took.Round(time.Millisecond))) + "\n")
	return b.String()
}

func renderTool(t ToolStatus, verbose bool) string {
	switch {
	case t.Installed:
		desc := t.Path
		if t.Version != "" {
			desc += " " + faintStyle.Render(t.Version)
		}
		return fmt.Sprintf("%s %s\n", installedStyle.Render("  ✓ "+t.Name+":"), desc)
	case t.Required:
		s := fmt.Sprintf("%s not installed (%s)\n", missingStyle.Render("  ✗ "+t.Name+":"), t.Purpose)
		return s + guidanceStyle.Render(t.Instructions) + "\n"
	default:
		s := fmt.Sprintf("%s not installed (optional, %s)\n", optionalStyle.Render("  ○ "+t.Name+":"), t.Purpose)
		if verbose {
			s += guidanceStyle.Render(t.Instructions) + "\n"
		}
		return s
	}
}

func reason(err error) string {
	if err == nil {
		return "unavailable"
	}
	return err.Error()
}
