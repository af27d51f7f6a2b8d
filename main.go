// Package main provides the entry point for the mailreader CLI application.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/mailreader/internal/pdf"
	"github.com/dgnsrekt/mailreader/internal/setup"
	"github.com/dgnsrekt/mailreader/ui"
	"github.com/joho/godotenv"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	style      string
	width      uint
	mouse      bool
	noTUI      bool
	autoRead   bool
	summary    bool
	debug      bool
	skipSetup  bool
	ttsEngine  string

	rootCmd = &cobra.Command{
		Use:   "mailreader [file.pdf]",
		Short: "Read PDF mail aloud",
		Long: paragraph(
			fmt.Sprintf("\nExtract the text of a PDF, %s it and %s.", keyword("summarize"), keyword("read it aloud")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{"pdf"}, cobra.ShellCompDirectiveFilterFileExt
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// validateStyle checks if the style is a default style, if not, checks that
// the custom style exists.
func validateStyle(style string) error {
	if style != styles.AutoStyle && styles.DefaultStyles[style] == nil {
		style = expandPath(style)
		if _, err := os.Stat(style); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("specified style does not exist: %s", style)
		} else if err != nil {
			return fmt.Errorf("unable to stat file: %w", err)
		}
	}
	return nil
}

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(expandPath(configFile))
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	// grab config values from Viper
	width = viper.GetUint("width")
	mouse = viper.GetBool("mouse")
	debug = viper.GetBool("debug")
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	// CLI flag takes precedence over the config file
	if ttsEngine != "" {
		viper.Set("tts.engine", ttsEngine)
	}
	if size := viper.GetInt("tts.chunk_size"); size < 0 {
		return fmt.Errorf("tts.chunk_size must not be negative, got %d", size)
	}

	style = viper.GetString("style")
	if err := validateStyle(style); err != nil {
		return err
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	if !isTerminal && !cmd.Flags().Changed("style") {
		style = styles.NoTTYStyle
	}
	if width == 0 && !cmd.Flags().Changed("width") {
		width = terminalWidth(isTerminal)
	}
	return nil
}

// terminalWidth returns the width to wrap at when none is configured.
func terminalWidth(isTerminal bool) uint {
	const (
		fallback = 80
		maxWidth = 120
	)
	if !isTerminal {
		return fallback
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return uint(min(w, maxWidth)) //nolint:gosec
}

func execute(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if !skipSetup && a.store.IsFirstRun() {
		if err := firstRun(ctx, a); err != nil {
			return err
		}
	}

	var path string
	if len(args) == 1 {
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("unable to get absolute path: %w", err)
		}
		if err := pdf.Validate(path); err != nil {
			return err
		}
	}

	if noTUI {
		if path == "" {
			return errors.New("a PDF is required with --no-tui")
		}
		return readDocument(ctx, a, path, summary)
	}
	return runTUI(a, path)
}

func runTUI(a *app, path string) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	// use style set in env, or auto if unset
	if err := validateStyle(cfg.GlamourStyle); err != nil {
		cfg.GlamourStyle = style
	}

	cfg.Path = path
	cfg.GlamourMaxWidth = width
	cfg.EnableMouse = mouse
	cfg.Summarize = summary
	cfg.AutoRead = autoRead
	if cfg.StartDir, err = os.Getwd(); err != nil {
		cfg.StartDir = cfg.HomeDir
	}

	feed := ui.NewStatusFeed()
	reader, closeReader, err := a.newReader(feed.OnChange)
	if err != nil {
		return err
	}
	defer closeReader()
	cfg.Backend = reader.Status().Backend

	deps := ui.Deps{
		Reader:     reader,
		Extractor:  a.extractor,
		Summarizer: a.summarizer,
		Feed:       feed,
	}

	// Run Bubble Tea program
	if _, err := ui.NewProgram(cfg, deps).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	loadEnvFiles()
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = setup.AppVersion + " (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().StringVarP(&ttsEngine, "tts", "t", "", "speech backend (system, kokoro, xtts, piper, gtts)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log debug messages")
	rootCmd.Flags().StringVarP(&style, "style", "s", styles.AutoStyle, "style name or JSON path")
	rootCmd.Flags().UintVarP(&width, "width", "w", 0, "word-wrap at width (set to 0 to detect)")
	rootCmd.Flags().BoolVarP(&summary, "summarize", "S", false, "summarize the document before reading")
	rootCmd.Flags().BoolVarP(&autoRead, "read", "r", false, "start reading as soon as the document is loaded")
	rootCmd.Flags().BoolVar(&noTUI, "no-tui", false, "read aloud without the terminal interface")
	rootCmd.Flags().BoolVar(&skipSetup, "skip-setup", false, "do not run first-run setup")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel (TUI-mode only)")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("style", rootCmd.Flags().Lookup("style"))
	_ = viper.BindPFlag("width", rootCmd.Flags().Lookup("width"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	viper.SetDefault("style", styles.AutoStyle)
	viper.SetDefault("width", 0)

	viper.SetDefault("python", "")
	viper.SetDefault("tts.engine", "")
	viper.SetDefault("tts.chunk_size", 0)
	viper.SetDefault("tts.temp_dir", "")
	viper.SetDefault("tts.kokoro.url", "")
	viper.SetDefault("tts.kokoro.voice", "af_heart")
	viper.SetDefault("tts.kokoro.speed", 1.0)
	viper.SetDefault("tts.xtts.model", "")
	viper.SetDefault("tts.xtts.speaker", "")
	viper.SetDefault("tts.xtts.language", "en")
	viper.SetDefault("tts.piper.model", "")
	viper.SetDefault("tts.gtts.language", "en")
	viper.SetDefault("tts.gtts.slow", false)
	viper.SetDefault("tts.gtts.requests_per_minute", 50)
	viper.SetDefault("tts.cache.dir", "")
	viper.SetDefault("tts.cache.max_size", 100)
	viper.SetDefault("summary.model", "")
	viper.SetDefault("summary.base_url", "")
	viper.SetDefault("summary.api_key", "")
	viper.SetDefault("summary.max_length", 100)
	viper.SetDefault("summary.min_length", 50)
	viper.SetDefault("pdf.ocr", true)

	rootCmd.AddCommand(
		configCmd,
		manCmd,
		summarizeCmd,
		backendsCmd,
		setupCmd,
		resetCmd,
		watchCmd,
	)
}

func configDirs() []string {
	scope := gap.NewScope(gap.User, setup.AppName)
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, setup.AppName)}, dirs...)
	}

	if c := os.Getenv("MAILREADER_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}
	return dirs
}

// loadEnvFiles loads API keys from .env files in the working directory and
// the config directory. Variables already set win.
func loadEnvFiles() {
	files := []string{".env"}
	if dirs := configDirs(); len(dirs) > 0 {
		files = append(files, filepath.Join(dirs[0], ".env"))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Warn("Could not load environment file", "path", f, "error", err)
		}
	}
}

// tryLoadConfigFromDefaultPlaces reads mailreader.yml from the first config
// dir that has one, writing the default config when none exists.
func tryLoadConfigFromDefaultPlaces() {
	dirs := configDirs()
	for _, dir := range dirs {
		viper.AddConfigPath(dir)
	}
	viper.SetConfigName(setup.AppName)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix(setup.AppName)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	case !errors.As(err, &notFound):
		log.Warn("Could not parse configuration file", "err", err)
		return
	}

	configFile = filepath.Join(dirs[0], setup.AppName+".yml")
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
