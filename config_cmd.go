package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/editor"
	"github.com/dgnsrekt/mailreader/internal/setup"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# style name or JSON path (default "auto")
style: "auto"
# mouse support (TUI-mode only)
mouse: false
# word-wrap at width (0 detects the terminal width)
width: 0
# Python interpreter used for setup and the Python backends
# python: "python3"

tts:
  # system, kokoro, xtts, piper or gtts. Empty uses the backend picked
  # during setup.
  engine: ""
  # characters per chunk; 0 uses the backend's own size
  chunk_size: 0
  # temp_dir: "~/.local/share/mailreader/output/temp"
  kokoro:
    # OpenAI-compatible Kokoro server, e.g. http://localhost:8880/v1
    url: ""
    voice: "af_heart"
    speed: 1.0
  xtts:
    # model: "tts_models/multilingual/multi-dataset/xtts_v2"
    speaker: "Ana Florence"
    language: "en"
  piper:
    # path to an .onnx voice
    model: ""
  gtts:
    language: "en"
    slow: false
    requests_per_minute: 50
  cache:
    # dir: "~/.cache/mailreader/audio"
    # megabytes
    max_size: 100

summary:
  # OpenAI-compatible endpoint; OPENAI_API_KEY is read from the
  # environment or a .env file
  base_url: ""
  model: "gpt-4o-mini"
  max_length: 100
  min_length: 50

pdf:
  # fall back to OCR for scanned documents
  ocr: true
`

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Edit the mailreader config file",
	Long: paragraph(fmt.Sprintf("\n%s the mailreader config file in $EDITOR. A commented default is written first if the file does not exist.",
		keyword("Edit"))),
	Example: paragraph("mailreader config\nmailreader config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd(setup.AppName, configFile)
		if err != nil {
			return fmt.Errorf("unable to open editor: %w", err)
		}
		c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("editor exited: %w", err)
		}

		fmt.Println("Config file:", keyword(configFile))
		return nil
	},
}

// ensureConfigFile writes defaultConfig to configFile unless the file
// already exists. An empty configFile means the one viper loaded.
func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.ConfigFileUsed()
	}
	if configFile == "" {
		return errors.New("no config file location found")
	}
	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".yaml", ".yml":
	default:
		return fmt.Errorf("%q is not a YAML file: use .yaml or .yml", configFile)
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
		return fmt.Errorf("unable to create config directory: %w", err)
	}
	f, err := os.OpenFile(configFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("unable to create config file: %w", err)
	}
	if _, err := f.WriteString(defaultConfig); err != nil {
		_ = f.Close()
		return fmt.Errorf("unable to write config file: %w", err)
	}
	log.Debug("Wrote default config", "path", configFile)
	return f.Close()
}
