package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"woodenfish/hotkey"
	"woodenfish/kv"
	"woodenfish/log"
	"woodenfish/playback"
	"woodenfish/settings"
	"woodenfish/sound"
)

const (
	loadTimeout  = 5 * time.Second
	closeTimeout = 3 * time.Second
	tapGap       = 80 * time.Millisecond
)

// app wires the settings store, the playback controller and whatever
// display layer is attached through sink.
type app struct {
	cfg     Config
	kv      kv.Store
	store   *settings.Store
	backend sound.Backend
	ctl     *playback.Controller
	sink    EventSink
	sub     *settings.Subscription

	actions chan playback.Action
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	hk     hotkey.Hotkey
	tapper *hotkey.Tapper

	closeOnce sync.Once
}

func openKV(cfg Config) (kv.Store, error) {
	if cfg.Ephemeral {
		return kv.NewMemory(nil), nil
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return kv.OpenBadger(cfg.DataDir)
}

func newApp(cfg Config, store kv.Store, backend sound.Backend, sink EventSink) *app {
	if sink == nil {
		sink = nopSink{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &app{
		cfg:     cfg,
		kv:      store,
		store:   settings.NewStore(store),
		backend: backend,
		sink:    sink,
		actions: make(chan playback.Action, 16),
		ctx:     ctx,
		cancel:  cancel,
	}
	a.sub = a.store.Subscribe()

	// Both listeners run on the controller goroutine. A knock that also
	// changes the state is reported once.
	var (
		ctl       *playback.Controller
		lastState playback.State
		lastPlays int64
	)
	notify := func() {
		st, n := ctl.State(), ctl.Plays()
		if st == lastState && n == lastPlays {
			return
		}
		lastState, lastPlays = st, n
		sink.PlaybackState(st, n)
	}
	ctl = playback.New(a.store, backend, cfg.Sound,
		playback.WithStateListener(func(playback.State) { notify() }),
		playback.WithPlayListener(func(int64) { notify() }),
		playback.WithErrorListener(sink.PlaybackError),
	)
	a.ctl = ctl

	a.wg.Add(3)
	go a.dispatch()
	go a.forwardSettings()
	go a.load()
	return a
}

func (a *app) load() {
	defer a.wg.Done()
	ctx, cancel := context.WithTimeout(a.ctx, loadTimeout)
	defer cancel()
	if err := a.store.Load(ctx); err != nil {
		log.Warnf("settings load: %v", err)
	}
}

// dispatch hands taps and stops to the controller in the order the user
// made them. It only waits for the controller to take each one, so a stop
// pressed while the sound is loading still cancels the pending start.
func (a *app) dispatch() {
	defer a.wg.Done()
	for {
		select {
		case <-a.ctx.Done():
			return
		case act := <-a.actions:
			reply, err := a.ctl.Submit(a.ctx, act)
			if err != nil {
				a.report(err)
				continue
			}
			a.wg.Add(1)
			go func() {
				defer a.wg.Done()
				select {
				case err := <-reply:
					a.report(err)
				case <-a.ctx.Done():
				}
			}()
		}
	}
}

func (a *app) report(err error) {
	switch {
	case err == nil, errors.Is(err, playback.ErrClosed), errors.Is(err, context.Canceled):
	default:
		log.Errorf("playback: %v", err)
		a.sink.PlaybackError(err)
	}
}

func (a *app) forwardSettings() {
	defer a.wg.Done()
	for {
		select {
		case <-a.ctx.Done():
			return
		case ch := <-a.sub.C():
			a.sink.SettingsChanged(ch.Settings)
		}
	}
}

func (a *app) enqueue(name string, act playback.Action) {
	select {
	case a.actions <- act:
	default:
		log.Warnf("dropped %s: too many pending requests", name)
	}
}

func (a *app) Tap()  { a.enqueue("tap", playback.ActionTap) }
func (a *app) Stop() { a.enqueue("stop", playback.ActionStop) }

func (a *app) Settings() settings.Settings     { return a.store.Get() }
func (a *app) SetSpeed(v float64)              { a.store.SetSpeed(v) }
func (a *app) SetVolume(v float64)             { a.store.SetVolume(v) }
func (a *app) SetTheme(t settings.Theme)       { a.store.SetTheme(t) }
func (a *app) SetAutoPlay(on bool)             { a.store.SetAutoPlay(on) }
func (a *app) State() playback.State           { return a.ctl.State() }
func (a *app) Plays() int64                    { return a.ctl.Plays() }
func (a *app) Loaded() <-chan struct{}         { return a.store.Loaded() }
func (a *app) Flush(ctx context.Context) error { return a.store.Flush(ctx) }

// enableHotkey taps the fish on the global combo. Failure is reported and
// the app keeps running without it.
func (a *app) enableHotkey(hk hotkey.Hotkey) error {
	if err := hk.Register(); err != nil {
		return fmt.Errorf("hotkey: %w", err)
	}
	a.hk = hk
	a.tapper = hotkey.NewTapper(hk, tapGap)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-a.ctx.Done():
				return
			case <-a.tapper.Taps():
				log.Info("hotkey_tap")
				a.Tap()
			}
		}
	}()
	return nil
}

// Close tears down in dependency order: input, controller, settings,
// storage, audio device.
func (a *app) Close() error {
	var errs []error
	a.closeOnce.Do(func() {
		if a.tapper != nil {
			a.tapper.Close()
			a.hk.Unregister()
		}
		a.cancel()
		a.wg.Wait()

		plays := a.ctl.Plays()
		errs = append(errs, a.ctl.Close())
		a.sub.Close()

		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		errs = append(errs, a.store.Close(ctx), a.kv.Close())
		if c, ok := a.backend.(interface{ Close() error }); ok {
			errs = append(errs, c.Close())
		}
		log.SessionEnd(plays)
	})
	return errors.Join(errs...)
}
