package setup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/mailreader/internal/proc"
)

const (
	// DefaultPackageTimeout bounds a single pip install.
	DefaultPackageTimeout = 10 * time.Minute
	// DefaultInstallTimeout bounds a whole installer run.
	DefaultInstallTimeout = 30 * time.Minute

	verifyTimeout = time.Minute
)

var (
	ErrUnknownGroup  = errors.New("unknown package group")
	ErrInstallFailed = errors.New("installation failed")
)

// Package is a Python package and the module it provides.
type Package struct {
	Name   string // pip requirement
	Module string // import name
}

// Groups lists the installable package groups.
var Groups = map[string][]Package{
	"core": {
		{Name: "gTTS", Module: "gtts"},
		{Name: "piper-tts", Module: "piper"},
	},
	"kokoro": {
		{Name: "numpy", Module: "numpy"},
		{Name: "soundfile", Module: "soundfile"},
		{Name: "phonemizer", Module: "phonemizer"},
		{Name: "kokoro>=0.9.2", Module: "kokoro"},
	},
	"xtts": {
		{Name: "TTS", Module: "TTS"},
	},
}

// GroupNames returns the group names in install order.
func GroupNames() []string { return []string{"core", "kokoro", "xtts"} }

// Packages returns the packages of the named groups, in order and without
// duplicates.
func Packages(groups []string) ([]Package, error) {
	seen := map[string]bool{}
	var pkgs []Package
	for _, g := range groups {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		list, ok := Groups[g]
		if !ok {
			names := GroupNames()
			sort.Strings(names)
			return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownGroup, g, strings.Join(names, ", "))
		}
		for _, p := range list {
			if seen[p.Name] {
				continue
			}
			seen[p.Name] = true
			pkgs = append(pkgs, p)
		}
	}
	return pkgs, nil
}

// Result is the outcome of installing one package.
type Result struct {
	Success  bool    `json:"success"`
	Message  string  `json:"message,omitempty"`
	Error    string  `json:"error,omitempty"`
	Duration float64 `json:"duration_seconds"`
}

// Installer installs Python packages with pip, one process per package.
type Installer struct {
	Python         string
	DataDir        string // installation_results.json is written here
	PackageTimeout time.Duration
	Timeout        time.Duration

	// Progress, if set, is called before and after each package. res is nil
	// before the install starts.
	Progress func(pkg Package, res *Result)
}

// NewInstaller returns an Installer with the default timeouts.
func NewInstaller(python, dataDir string) *Installer {
	return &Installer{
		Python:         python,
		DataDir:        dataDir,
		PackageTimeout: DefaultPackageTimeout,
		Timeout:        DefaultInstallTimeout,
	}
}

// ResultsPath returns where results are written.
func (i *Installer) ResultsPath() string {
	return filepath.Join(i.DataDir, resultsFile)
}

// Install installs pkgs in order and stops at the first failure. Results
// of every attempted package are written to ResultsPath, also on failure.
func (i *Installer) Install(ctx context.Context, pkgs []Package) (map[string]Result, error) {
	if i.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.Timeout)
		defer cancel()
	}

	results := make(map[string]Result, len(pkgs))
	var failed error
	for _, p := range pkgs {
		if i.Progress != nil {
			i.Progress(p, nil)
		}
		res := i.install(ctx, p)
		results[p.Name] = res
		if i.Progress != nil {
			i.Progress(p, &res)
		}
		if !res.Success {
			failed = fmt.Errorf("%w: %s: %s", ErrInstallFailed, p.Name, res.Error)
			break
		}
	}

	if err := writeJSON(i.ResultsPath(), results); err != nil {
		log.Error("Could not write installation results", "error", err)
		if failed == nil {
			return results, err
		}
	}
	return results, failed
}

func (i *Installer) install(ctx context.Context, p Package) Result {
	start := time.Now()
	log.Info("Installing package", "package", p.Name)

	_, err := proc.Run(ctx, proc.Command{
		Name:    i.Python,
		Args:    []string{"-m", "pip", "install", "--upgrade", p.Name},
		Timeout: i.PackageTimeout,
	})
	if err != nil {
		log.Warn("Package install failed", "package", p.Name, "error", err)
		return Result{Error: err.Error(), Duration: time.Since(start).Seconds()}
	}

	if err := i.verify(ctx, p); err != nil {
		log.Warn("Package import failed", "package", p.Name, "module", p.Module, "error", err)
		return Result{
			Error:    fmt.Sprintf("installed but import %s failed: %v", p.Module, err),
			Duration: time.Since(start).Seconds(),
		}
	}

	d := time.Since(start)
	log.Info("Package installed", "package", p.Name, "duration", d)
	return Result{
		Success:  true,
		Message:  fmt.Sprintf("%s installed successfully", p.Name),
		Duration: d.Seconds(),
	}
}

func (i *Installer) verify(ctx context.Context, p Package) error {
	_, err := proc.Run(ctx, proc.Command{
		Name:    i.Python,
		Args:    []string{"-c", "import " + p.Module},
		Timeout: verifyTimeout,
	})
	return err
}
