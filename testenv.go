package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"woodenfish/log"
	"woodenfish/playback"
	"woodenfish/settings"
	"woodenfish/sound"
)

// printSink reports events as plain lines for the stdin-driven test mode.
type printSink struct {
	out chan<- string
}

func (p printSink) SettingsChanged(settings.Settings) {}

func (p printSink) PlaybackState(state playback.State, plays int64) {
	p.emit(fmt.Sprintf("EVENT state=%s plays=%d", state, plays))
}

func (p printSink) PlaybackError(err error) {
	p.emit("EVENT error=" + err.Error())
}

// emit drops the line when the buffer is full so the controller never
// blocks on a slow script.
func (p printSink) emit(line string) {
	select {
	case p.out <- line:
	default:
	}
}

// testBackend is the silent fake with real asset validation, so a bad
// -sound path fails the same way it would with the audio device.
type testBackend struct {
	*sound.FakeBackend
}

func newTestBackend() testBackend {
	return testBackend{sound.NewFakeBackend()}
}

func (b testBackend) Load(path string, volume float64) (sound.Handle, error) {
	if path != "" {
		if _, err := sound.Decode(path, 44100); err != nil {
			return nil, err
		}
	}
	return b.FakeBackend.Load(path, volume)
}

// runScript executes test-mode commands from in until QUIT or EOF. Pending
// events are written to out before and after each command's reply.
func runScript(a *app, in io.Reader, out io.Writer, events <-chan string) error {
	<-a.Loaded()

	write := func(s string) { fmt.Fprintln(out, s) }
	drain := func() {
		for {
			select {
			case l := <-events:
				write(l)
			default:
				return
			}
		}
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		drain()
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, arg := strings.ToUpper(fields[0]), ""
		if len(fields) > 1 {
			arg = fields[1]
		}

		switch cmd {
		case "TAP":
			a.Tap()
		case "STOP":
			a.Stop()
		case "AUTOPLAY":
			switch strings.ToLower(arg) {
			case "on", "true", "1":
				a.SetAutoPlay(true)
			case "off", "false", "0":
				a.SetAutoPlay(false)
			default:
				write("ERR autoplay wants on|off")
			}
		case "SPEED", "VOLUME":
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				write(fmt.Sprintf("ERR %s: %v", strings.ToLower(cmd), err))
				continue
			}
			if cmd == "SPEED" {
				a.SetSpeed(v)
			} else {
				a.SetVolume(v)
			}
		case "THEME":
			t, err := settings.ParseTheme(arg)
			if err != nil {
				write("ERR " + err.Error())
				continue
			}
			a.SetTheme(t)
		case "SLEEP":
			ms, err := strconv.Atoi(arg)
			if err != nil {
				write("ERR sleep: " + err.Error())
				continue
			}
			time.Sleep(time.Duration(ms) * time.Millisecond)
		case "STATE":
			// let queued taps reach the controller first
			time.Sleep(20 * time.Millisecond)
			write(fmt.Sprintf("STATE %s plays=%d", a.State(), a.Plays()))
		case "SETTINGS":
			b, err := json.Marshal(a.Settings())
			if err != nil {
				return err
			}
			write("SETTINGS " + string(b))
		case "QUIT":
			drain()
			ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
			defer cancel()
			return a.Flush(ctx)
		default:
			write("ERR unknown command " + cmd)
		}
		drain()
	}
	drain()
	return scanner.Err()
}

// runTestMode drives the app from stdin with a silent backend and the
// configured settings storage.
func runTestMode(cfg Config, in io.Reader, out io.Writer) int {
	store, err := openKV(cfg)
	if err != nil {
		fmt.Fprintf(out, "ERR storage: %v\n", err)
		return 1
	}

	backend := newTestBackend()
	events := make(chan string, 64)
	a := newApp(cfg, store, backend, printSink{out: events})
	log.SessionStart(cfg.uiName(), sound.AssetName(cfg.Sound), cfg.storageName())

	err = runScript(a, in, out, events)
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(out, "ERR %v\n", err)
		return 1
	}
	fmt.Fprintln(out, "BYE")
	return 0
}
