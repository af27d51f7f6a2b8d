package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/mailreader/internal/setup"
	"github.com/dgnsrekt/mailreader/internal/tts"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Engines in order of preference when setup picks one.
var enginePreference = []string{"kokoro", "piper", "xtts", "gtts", tts.DefaultBackend}

var (
	setupGroups  []string
	setupYes     bool
	setupVerbose bool
	resetClean   bool

	setupCmd = &cobra.Command{
		Use:   "setup",
		Short: "Check dependencies and install speech backends",
		Long: paragraph(fmt.Sprintf("\n%s the speech backends and tools, then %s the Python packages of the chosen groups (%s).",
			keyword("Check"), keyword("install"), strings.Join(setup.GroupNames(), ", "))),
		Example: paragraph("mailreader setup\nmailreader setup --group core,kokoro --yes"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			return runSetup(cmd.Context(), a, setupGroups, setupYes, os.Stdin, os.Stdout)
		},
	}

	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Mark setup as not done so it runs again",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			paths, err := setup.DefaultPaths()
			if err != nil {
				return err
			}
			cleaned, err := setup.Reset(setup.NewStore(paths.Data), paths, resetClean)
			for _, c := range cleaned {
				fmt.Printf("Removed %s entries from %s\n", humanize.Comma(int64(c.Removed)), c.Dir)
			}
			if err != nil {
				return err
			}
			fmt.Println("Setup will run again the next time mailreader starts.")
			return nil
		},
	}
)

// firstRun runs the setup wizard on a terminal. Elsewhere it only logs the
// dependency report and marks setup complete.
func firstRun(ctx context.Context, a *app) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		rep := checker(a).Check(ctx)
		log.Info("First run", "available", rep.Available())
		return a.store.MarkSetupComplete(pickEngine(rep.Available()), a.paths)
	}
	fmt.Println(paragraph(fmt.Sprintf("\nWelcome to %s! Let's check what is installed.\n", keyword(setup.AppName))))
	return runSetup(ctx, a, nil, false, os.Stdin, os.Stdout)
}

func checker(a *app) *setup.Checker {
	return &setup.Checker{
		Registry: a.registry,
		Python:   a.python,
		Paths:    a.paths,
		Store:    a.store,
	}
}

// runSetup prints the dependency report, installs the requested package
// groups and records the best engine available afterwards. Without groups
// the user is asked; with yes nothing is asked.
func runSetup(ctx context.Context, a *app, groups []string, yes bool, in io.Reader, out io.Writer) error {
	rep := checker(a).Check(ctx)
	fmt.Fprintln(out, rep.Render(setupVerbose))

	prompt := bufio.NewReader(in)
	if len(groups) == 0 && !yes {
		answer := ask(prompt, out, fmt.Sprintf("Install Python packages? Groups: %s [none]: ", strings.Join(setup.GroupNames(), ", ")))
		for _, g := range strings.Split(answer, ",") {
			if g = strings.TrimSpace(g); g != "" && g != "none" {
				groups = append(groups, g)
			}
		}
	}

	if len(groups) > 0 {
		pkgs, err := setup.Packages(groups)
		if err != nil {
			return err
		}
		if !yes && !confirm(prompt, out, fmt.Sprintf("Install %d packages with %s?", len(pkgs), a.python)) {
			fmt.Fprintln(out, "Skipping installation.")
		} else if err := install(ctx, a, pkgs, out); err != nil {
			return err
		}
		rep = checker(a).Check(ctx)
	}

	engine := pickEngine(rep.Available())
	if err := a.store.MarkSetupComplete(engine, a.paths); err != nil {
		return fmt.Errorf("unable to save setup state: %w", err)
	}
	fmt.Fprintf(out, "\nSetup complete. Speech backend: %s\n", keyword(engine))
	return nil
}

func install(ctx context.Context, a *app, pkgs []setup.Package, out io.Writer) error {
	inst := setup.NewInstaller(a.python, a.paths.Data)
	inst.Progress = func(p setup.Package, res *setup.Result) {
		switch {
		case res == nil:
			fmt.Fprintf(out, "%s %s...\n", subtle("Installing"), p.Name)
		case res.Success:
			fmt.Fprintf(out, "  %s %s (%.1fs)\n", keyword("✓"), p.Name, res.Duration)
		default:
			fmt.Fprintf(out, "  %s %s: %s\n", failure("✗"), p.Name, res.Error)
		}
	}
	if _, err := inst.Install(ctx, pkgs); err != nil {
		fmt.Fprintf(out, "Results written to %s\n", inst.ResultsPath())
		return err
	}
	return nil
}

// pickEngine returns the most preferred of the available backends.
func pickEngine(available []string) string {
	for _, id := range enginePreference {
		if slices.Contains(available, id) {
			return id
		}
	}
	return tts.DefaultBackend
}

func ask(r *bufio.Reader, out io.Writer, question string) string {
	fmt.Fprint(out, question)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

func confirm(r *bufio.Reader, out io.Writer, question string) bool {
	switch strings.ToLower(ask(r, out, question+" [y/N]: ")) {
	case "y", "yes":
		return true
	}
	return false
}

func init() {
	setupCmd.Flags().StringSliceVarP(&setupGroups, "group", "g", nil, "package groups to install ("+strings.Join(setup.GroupNames(), ", ")+")")
	setupCmd.Flags().BoolVarP(&setupYes, "yes", "y", false, "do not ask for confirmation")
	setupCmd.Flags().BoolVarP(&setupVerbose, "verbose", "v", false, "show install instructions for everything missing")
	resetCmd.Flags().BoolVar(&resetClean, "clean", false, "also empty the log, output and audio cache directories")
}
