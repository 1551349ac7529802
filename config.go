package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config is read from WOODENFISH_* variables first; flags override.
type Config struct {
	DataDir string `env:"WOODENFISH_DATA_DIR"`
	Sound   string `env:"WOODENFISH_SOUND"`
	Hotkey  bool   `env:"WOODENFISH_HOTKEY"`

	LogPath   string
	Ephemeral bool
	TUI       bool
	GUI       bool
	Doctor    bool
	Test      bool
	Version   bool
}

func parseConfig(args []string, environ map[string]string, stderr io.Writer) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}

	fs := flag.NewFlagSet("woodenfish", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Sound, "sound", cfg.Sound, "Sound file to play (.mp3, .wav, .flac); empty uses the built-in knock")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "Settings directory (default: OS config dir)")
	fs.StringVar(&cfg.LogPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	fs.BoolVar(&cfg.Ephemeral, "ephemeral", false, "Keep settings in memory only")
	fs.BoolVar(&cfg.Hotkey, "hotkey", cfg.Hotkey, "Tap with the global Ctrl+Shift+Space hotkey")
	fs.BoolVar(&cfg.TUI, "tui", true, "Run with terminal UI")
	fs.BoolVar(&cfg.GUI, "gui", false, "Run the desktop UI (needs a build with -tags gui)")
	fs.BoolVar(&cfg.Doctor, "doctor", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.Test, "test", false, "Test mode (headless, stdin-driven)")
	fs.BoolVar(&cfg.Version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	if cfg.DataDir == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return cfg, err
		}
		cfg.DataDir = dir
	}
	if cfg.Sound != "" {
		abs, err := filepath.Abs(cfg.Sound)
		if err != nil {
			return cfg, err
		}
		cfg.Sound = abs
	}
	return cfg, nil
}

func defaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve data dir: %w", err)
	}
	return filepath.Join(base, "woodenfish", "settings"), nil
}

func (c Config) storageName() string {
	if c.Ephemeral {
		return "memory"
	}
	return c.DataDir
}

func (c Config) uiName() string {
	switch {
	case c.Test:
		return "test"
	case c.GUI:
		return "gui"
	case c.TUI:
		return "tui"
	}
	return "headless"
}
