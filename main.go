package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"golang.org/x/term"

	"woodenfish/doctor"
	"woodenfish/hotkey"
	"woodenfish/log"
	"woodenfish/playback"
	"woodenfish/settings"
	"woodenfish/shutdown"
	"woodenfish/sound"
)

var version = "dev"

// wantsGUI spots -gui before flag parsing; the GUI must own the main
// thread from the start.
func wantsGUI(args []string) bool {
	for _, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "gui" {
			continue
		}
		if !hasValue {
			return true
		}
		on, err := strconv.ParseBool(value)
		return err == nil && on
	}
	return false
}

// headlessSink reports errors on stderr when no UI is attached.
type headlessSink struct{}

func (headlessSink) SettingsChanged(settings.Settings)   {}
func (headlessSink) PlaybackState(playback.State, int64) {}

func (headlessSink) PlaybackError(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}

func run() {
	cfg, err := parseConfig(os.Args[1:], env.ToMap(os.Environ()), os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if cfg.GUI && !guiMode {
		initGUI()
		return
	}

	if cfg.Version {
		fmt.Printf("woodenfish %s\n", version)
		os.Exit(0)
	}

	logPath, err := log.ResolveDir(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	if err := log.CaptureCrashes(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open crash log: %v\n", err)
	}

	if cfg.Doctor {
		os.Exit(doctor.Run(doctor.Options{
			SoundPath: cfg.Sound,
			DataDir:   cfg.DataDir,
			Hotkey:    cfg.Hotkey,
		}))
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	if cfg.Test {
		code := runTestMode(cfg, os.Stdin, os.Stdout)
		log.Close()
		os.Exit(code)
	}

	if cfg.TUI && !cfg.GUI && !term.IsTerminal(int(os.Stdin.Fd())) {
		log.Warn("stdin is not a terminal, running headless")
		cfg.TUI = false
	}

	store, err := openKV(cfg)
	if err != nil {
		log.Errorf("storage init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error opening settings in %s: %v\n", cfg.DataDir, err)
		log.Close()
		os.Exit(1)
	}

	var sink EventSink = headlessSink{}
	switch {
	case cfg.GUI:
		sink = guiSink()
	case cfg.TUI:
		sink = tuiSink{}
	}

	player := sound.NewPlayer()
	a := newApp(cfg, store, player, sink)
	log.SessionStart(cfg.uiName(), sound.AssetName(cfg.Sound), cfg.storageName())

	if cfg.Hotkey {
		if err := a.enableHotkey(hotkey.New()); err != nil {
			log.Warnf("%v", err)
			sink.PlaybackError(err)
		}
	}

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	switch {
	case cfg.GUI:
		guiAttach(a)
		select {
		case <-ctx.Done():
			guiQuit()
		case <-guiDone():
		}

	case cfg.TUI:
		p := NewTUIProgram(a)
		tuiMu.Lock()
		tuiProgram = p
		tuiMu.Unlock()

		go func() {
			<-a.Loaded()
			tuiSend(settingsMsg{Settings: a.Settings()})
		}()
		go func() {
			<-ctx.Done()
			p.Quit()
		}()
		if _, err := p.Run(); err != nil {
			log.Errorf("TUI error: %v", err)
		}
		tuiMu.Lock()
		tuiProgram = nil
		tuiMu.Unlock()

	default:
		fmt.Fprintf(os.Stderr, "woodenfish %s running headless (Ctrl+C to quit)\n", version)
		<-ctx.Done()
	}

	if err := a.Close(); err != nil {
		log.Errorf("shutdown: %v", err)
	}
	log.Close()
	runFinished()
}
