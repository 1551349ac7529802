// Package doctor runs interactive checks for the pieces woodenfish needs
// from the machine: an audio output, a writable settings store and,
// optionally, the global hotkey.
package doctor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"woodenfish/hotkey"
	"woodenfish/kv"
	"woodenfish/shutdown"
	"woodenfish/sound"
)

type Options struct {
	SoundPath string
	DataDir   string
	Hotkey    bool
}

type session struct {
	opts Options
	in   *bufio.Reader
	out  io.Writer

	backend  sound.Backend
	newHK    func() hotkey.Hotkey
	hkWait   time.Duration
	openKV   func(dir string) (kv.Store, error)
	listenAt time.Duration
}

type check struct {
	name string
	run  func(*session) bool
}

// Run executes the checks and returns an exit code (0 all pass, 1 any fail).
func Run(opts Options) int {
	resetTerminal()
	stopOnInterrupt()

	player := sound.NewPlayer()
	defer player.Close()

	s := &session{
		opts:     opts,
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		backend:  player,
		newHK:    hotkey.New,
		hkWait:   10 * time.Second,
		listenAt: 600 * time.Millisecond,
		openKV: func(dir string) (kv.Store, error) {
			return kv.OpenBadger(dir)
		},
	}
	return s.runAll()
}

func (s *session) checks() []check {
	cs := []check{
		{"Settings storage", (*session).checkStorage},
		{"Sound asset", (*session).checkAsset},
		{"Audio output", (*session).checkOutput},
	}
	if s.opts.Hotkey {
		cs = append(cs, check{"Hotkey detection", (*session).checkHotkey})
	}
	return cs
}

func (s *session) runAll() int {
	fmt.Fprintln(s.out, "woodenfish doctor - interactive system diagnostics")
	fmt.Fprintln(s.out, "==================================================")

	cs := s.checks()
	failed := 0
	for i, c := range cs {
		fmt.Fprintf(s.out, "\n[%d/%d] %s\n", i+1, len(cs), c.name)
		if !c.run(s) {
			failed++
		}
	}

	fmt.Fprintln(s.out)
	if failed == 0 {
		fmt.Fprintln(s.out, "All checks passed!")
		return 0
	}
	fmt.Fprintf(s.out, "%d check(s) failed. See details above.\n", failed)
	return 1
}

func (s *session) pass(format string, args ...any) bool {
	fmt.Fprintf(s.out, "  PASS: "+format+"\n", args...)
	return true
}

func (s *session) fail(format string, args ...any) bool {
	fmt.Fprintf(s.out, "  FAIL: "+format+"\n", args...)
	return false
}

// confirm asks a yes/no question; anything but y or yes is no.
func (s *session) confirm(question string) bool {
	fmt.Fprintf(s.out, "%s [y/n]: ", question)
	answer, _ := s.in.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

func (s *session) checkStorage() bool {
	if s.opts.DataDir == "" {
		return s.fail("no data directory configured")
	}
	store, err := s.openKV(s.opts.DataDir)
	if err != nil {
		return s.fail("cannot open %s: %v", s.opts.DataDir, err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const key = "doctor_probe"
	want := time.Now().UTC().Format(time.RFC3339Nano)
	if err := store.Set(ctx, key, want); err != nil {
		return s.fail("write: %v", err)
	}
	got, err := store.Get(ctx, key)
	if err != nil {
		return s.fail("read back: %v", err)
	}
	if got != want {
		return s.fail("read back %q, wrote %q", got, want)
	}
	return s.pass("read/write in %s", s.opts.DataDir)
}

func (s *session) checkAsset() bool {
	buf, err := sound.Decode(s.opts.SoundPath, 44100)
	switch {
	case errors.Is(err, sound.ErrUnsupportedFormat):
		return s.fail("%v (use .mp3, .wav or .flac)", err)
	case err != nil:
		return s.fail("%v", err)
	}
	return s.pass("%s, %s", sound.AssetName(s.opts.SoundPath), buf.Format().SampleRate.D(buf.Len()).Round(time.Millisecond))
}

func (s *session) checkOutput() bool {
	h, err := s.backend.Load(s.opts.SoundPath, 1)
	if err != nil {
		return s.fail("cannot load sound: %v", err)
	}
	defer h.Unload()

	fmt.Fprintln(s.out, "Playing three knocks...")
	for range 3 {
		if err := h.Replay(); err != nil {
			return s.fail("play: %v", err)
		}
		time.Sleep(s.listenAt)
	}
	if !s.confirm("Did you hear the knocks?") {
		return s.fail("playback not confirmed (check the output device and volume)")
	}
	return s.pass("playback verified by user")
}

func (s *session) checkHotkey() bool {
	info, err := hotkey.Diagnose()
	if err != nil {
		return s.fail("%v", err)
	}
	fmt.Fprintf(s.out, "  %s\n", info)

	fmt.Fprintf(s.out, "Press %s...\n", hotkey.Combo)
	hk := s.newHK()
	if err := hk.Register(); err != nil {
		return s.fail("could not register hotkey: %v", err)
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		// evdev reads can leave the terminal in raw mode
		resetTerminal()
		return s.pass("hotkey detected")
	case <-time.After(s.hkWait):
		return s.fail("timeout waiting for hotkey")
	}
}

func stopOnInterrupt() {
	ch := make(chan os.Signal, 1)
	shutdown.Notify(ch)
	go func() {
		<-ch
		fmt.Fprintln(os.Stderr, "\nInterrupted")
		os.Exit(1)
	}()
}
