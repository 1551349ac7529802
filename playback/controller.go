package playback

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"woodenfish/log"
	"woodenfish/settings"
	"woodenfish/sound"
)

// Settings is the part of settings.Store the controller reads.
type Settings interface {
	Get() settings.Settings
	Subscribe() *settings.Subscription
}

type Option func(*Controller)

func WithClock(c Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithStateListener registers fn to run on every state change. It runs on
// the controller goroutine and must not call back into the controller.
func WithStateListener(fn func(State)) Option {
	return func(ctl *Controller) { ctl.onState = fn }
}

// WithPlayListener registers fn to run after every knock, including each
// loop tick, with the play count so far. Same rules as WithStateListener.
func WithPlayListener(fn func(plays int64)) Option {
	return func(ctl *Controller) { ctl.onPlay = fn }
}

// WithErrorListener registers fn for errors the controller recovers from
// on its own (failed play or stop on a live handle).
func WithErrorListener(fn func(error)) Option {
	return func(ctl *Controller) { ctl.onError = fn }
}

// Action is a request the controller serves in arrival order.
type Action int

const (
	ActionTap Action = iota
	ActionStop
)

type request struct {
	action Action
	reply  chan error
}

type loadResult struct {
	handle sound.Handle
	err    error
}

// Controller owns the sound handle and the loop timer. Every transition
// runs on one goroutine; the exported methods only send it requests.
type Controller struct {
	settings Settings
	backend  sound.Backend
	path     string
	clock    Clock
	onState  func(State)
	onPlay   func(int64)
	onError  func(error)

	sub     *settings.Subscription
	reqs    chan request
	closing chan struct{}
	done    chan struct{}
	once    sync.Once

	state atomic.Int32
	plays atomic.Int64

	// Owned by run.
	handle   sound.Handle
	started  bool
	volume   float64
	loading  chan loadResult
	waiters  []request
	canceled bool
	loop     slot
	finish   slot
}

// New starts a controller for the asset at path (empty for the built-in
// knock). The asset is loaded on the first Activate.
func New(s Settings, backend sound.Backend, path string, opts ...Option) *Controller {
	c := &Controller{
		settings: s,
		backend:  backend,
		path:     path,
		clock:    realClock{},
		reqs:     make(chan request),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	c.sub = s.Subscribe()
	go c.run()
	return c
}

// Activate handles a tap: with autoplay on it starts the loop or, when
// already looping, stops it; otherwise it plays the sound once.
func (c *Controller) Activate(ctx context.Context) error {
	return c.do(ctx, ActionTap)
}

// Stop cancels the loop and silences the handle.
func (c *Controller) Stop(ctx context.Context) error {
	return c.do(ctx, ActionStop)
}

func (c *Controller) State() State { return State(c.state.Load()) }

// Plays counts playback starts since New.
func (c *Controller) Plays() int64 { return c.plays.Load() }

// Close cancels timers, unloads the handle and stops the controller
// goroutine. Safe to call more than once.
func (c *Controller) Close() error {
	c.once.Do(func() { close(c.closing) })
	<-c.done
	return nil
}

// Submit hands act to the controller and returns once it has been taken,
// without waiting for a load to finish. The outcome arrives on the
// returned channel, which always receives exactly one value.
func (c *Controller) Submit(ctx context.Context, act Action) (<-chan error, error) {
	r := request{action: act, reply: make(chan error, 1)}
	select {
	case c.reqs <- r:
		return r.reply, nil
	case <-c.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Controller) do(ctx context.Context, act Action) error {
	reply, err := c.Submit(ctx, act)
	if err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) run() {
	defer close(c.done)
	for {
		select {
		case r := <-c.reqs:
			c.handleRequest(r)
		case res := <-c.loading:
			c.loaded(res)
		case ch := <-c.sub.C():
			c.settingsChanged(ch.Settings)
		case <-c.loop.C():
			c.loop.fired()
			c.tick()
		case <-c.finish.C():
			c.finish.fired()
			if c.State() == PlayingOnce {
				c.setState(Idle, "finished")
			}
		case <-c.closing:
			c.teardown()
			return
		}
	}
}

func (c *Controller) handleRequest(r request) {
	switch r.action {
	case ActionTap:
		if c.handle == nil {
			c.waiters = append(c.waiters, r)
			c.canceled = false
			if c.loading == nil {
				c.startLoad()
			}
			return
		}
		c.activate()
		r.reply <- nil
	case ActionStop:
		if c.loading != nil {
			c.canceled = true
		}
		c.stop("stop")
		r.reply <- nil
	}
}

func (c *Controller) startLoad() {
	ch := make(chan loadResult, 1)
	c.loading = ch
	c.volume = c.settings.Get().Volume
	go func(path string, volume float64) {
		h, err := c.backend.Load(path, volume)
		ch <- loadResult{handle: h, err: err}
	}(c.path, c.volume)
	log.Playback("load", c.State().String())
}

// loaded runs one transition for every activation that waited on the load.
func (c *Controller) loaded(res loadResult) {
	c.loading = nil
	waiters := c.waiters
	c.waiters = nil

	var err error
	if res.err != nil {
		err = &LoadError{Path: c.path, Err: res.err}
		log.Errorf("playback: %v", err)
	} else {
		c.handle = res.handle
		c.started = false
		c.syncVolume(c.settings.Get().Volume)
		if !c.canceled {
			c.activate()
		}
	}
	c.canceled = false
	for _, w := range waiters {
		w.reply <- err
	}
}

func (c *Controller) activate() {
	s := c.settings.Get()
	if s.AutoPlay {
		if c.State() == Looping {
			c.stop("toggle")
			return
		}
		c.finish.cancel()
		if !c.strike() {
			return
		}
		c.setState(Looping, "loop")
		c.played()
		c.loop.arm(c.clock, s.Interval())
		return
	}

	c.loop.cancel()
	c.finish.cancel()
	if !c.strike() {
		return
	}
	c.setState(PlayingOnce, "play")
	c.played()
	c.finish.arm(c.clock, c.handle.Duration())
}

// tick continues the loop with the interval current at this moment.
func (c *Controller) tick() {
	if c.State() != Looping {
		return
	}
	s := c.settings.Get()
	if !s.AutoPlay {
		c.stop("autoplay off")
		return
	}
	if !c.strike() {
		return
	}
	c.played()
	c.loop.arm(c.clock, s.Interval())
}

// strike plays the handle from the start. A failure drops the controller
// to Idle and reports the error to the listener.
func (c *Controller) strike() bool {
	op := "replay"
	fn := c.handle.Replay
	if !c.started {
		op, fn = "play", c.handle.Play
	}
	if err := fn(); err != nil {
		c.fail(op, err)
		return false
	}
	c.started = true
	c.plays.Add(1)
	return true
}

// played runs after the state for a knock has been set, so listeners see
// both the new state and the new count.
func (c *Controller) played() {
	if c.onPlay != nil {
		c.onPlay(c.plays.Load())
	}
}

func (c *Controller) stop(reason string) {
	armed := c.loop.armed() || c.finish.armed()
	c.loop.cancel()
	c.finish.cancel()
	if c.State() == Idle && !armed {
		return
	}
	if c.handle != nil {
		if err := c.handle.Stop(); err != nil {
			c.fail("stop", err)
			return
		}
	}
	c.setState(Idle, reason)
}

func (c *Controller) fail(op string, err error) {
	c.loop.cancel()
	c.finish.cancel()
	opErr := &OperationError{Op: op, Err: err}
	log.Errorf("playback: %v", opErr)
	c.setState(Idle, "error")
	if c.onError != nil {
		c.onError(opErr)
	}
}

func (c *Controller) settingsChanged(s settings.Settings) {
	c.syncVolume(s.Volume)
	if !s.AutoPlay && c.State() == Looping {
		c.stop("autoplay off")
	}
}

func (c *Controller) syncVolume(v float64) {
	if c.handle == nil || v == c.volume {
		return
	}
	if err := c.handle.SetVolume(v); err != nil {
		opErr := &OperationError{Op: "volume", Err: err}
		log.Errorf("playback: %v", opErr)
		if c.onError != nil {
			c.onError(opErr)
		}
		return
	}
	c.volume = v
}

func (c *Controller) teardown() {
	c.loop.cancel()
	c.finish.cancel()
	c.sub.Close()

	if c.handle != nil {
		if err := c.handle.Unload(); err != nil && !errors.Is(err, sound.ErrUnloaded) {
			log.Errorf("playback: unload: %v", err)
		}
		c.handle = nil
	}
	if c.loading != nil {
		// The load outlives us; release whatever it produces.
		go func(ch <-chan loadResult) {
			if res := <-ch; res.handle != nil {
				res.handle.Unload()
			}
		}(c.loading)
		c.loading = nil
	}
	for _, w := range c.waiters {
		w.reply <- ErrClosed
	}
	c.waiters = nil
	c.setState(Idle, "close")
}

func (c *Controller) setState(s State, event string) {
	prev := State(c.state.Swap(int32(s)))
	if prev == s {
		return
	}
	log.Playback(event, s.String())
	if c.onState != nil {
		c.onState(s)
	}
}
