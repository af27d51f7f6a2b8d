package ui

// Config contains TUI-specific configuration.
type Config struct {
	HomeDir         string `env:"HOME"`
	GlamourMaxWidth uint
	GlamourStyle    string `env:"GLAMOUR_STYLE"`
	EnableMouse     bool

	// PDF to open on start. Empty opens the file picker in StartDir.
	Path     string
	StartDir string

	Backend   string
	Summarize bool // summarize a document as soon as it is extracted
	AutoRead  bool // start reading as soon as a document is ready

	// For debugging the UI
	GlamourEnabled bool `env:"MAILREADER_ENABLE_GLAMOUR" envDefault:"true"`
}
