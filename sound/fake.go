package sound

import (
	"sync"
	"time"
)

// FakeBackend is an in-memory Backend for tests and the -test mode. It
// records every Load and can hold loads open to simulate a slow decoder.
type FakeBackend struct {
	mu       sync.Mutex
	duration time.Duration
	loadErr  error
	gate     chan struct{}
	pending  int
	loads    []string
	handles  []*FakeHandle
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{duration: 250 * time.Millisecond}
}

func (b *FakeBackend) Load(path string, volume float64) (Handle, error) {
	b.mu.Lock()
	b.loads = append(b.loads, path)
	gate := b.gate
	b.pending++
	b.mu.Unlock()

	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending--
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	h := &FakeHandle{duration: b.duration, volume: volume}
	b.handles = append(b.handles, h)
	return h, nil
}

// Hold makes subsequent loads block until Release.
func (b *FakeBackend) Hold() {
	b.mu.Lock()
	if b.gate == nil {
		b.gate = make(chan struct{})
	}
	b.mu.Unlock()
}

func (b *FakeBackend) Release() {
	b.mu.Lock()
	if b.gate != nil {
		close(b.gate)
		b.gate = nil
	}
	b.mu.Unlock()
}

// Pending reports loads currently blocked in Hold.
func (b *FakeBackend) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

func (b *FakeBackend) SetLoadErr(err error) {
	b.mu.Lock()
	b.loadErr = err
	b.mu.Unlock()
}

// SetDuration sets the length reported by handles created afterwards.
func (b *FakeBackend) SetDuration(d time.Duration) {
	b.mu.Lock()
	b.duration = d
	b.mu.Unlock()
}

func (b *FakeBackend) Loads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.loads)
}

func (b *FakeBackend) Handles() []*FakeHandle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*FakeHandle(nil), b.handles...)
}

// Last returns the most recently created handle, or nil.
func (b *FakeBackend) Last() *FakeHandle {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.handles) == 0 {
		return nil
	}
	return b.handles[len(b.handles)-1]
}

// Live counts handles that have not been unloaded.
func (b *FakeBackend) Live() int {
	b.mu.Lock()
	hs := append([]*FakeHandle(nil), b.handles...)
	b.mu.Unlock()
	n := 0
	for _, h := range hs {
		if !h.Unloaded() {
			n++
		}
	}
	return n
}

// FakeHandle records the operations applied to it.
type FakeHandle struct {
	mu       sync.Mutex
	duration time.Duration
	volume   float64
	calls    []string
	plays    int
	unloaded bool
	fail     map[string]error
}

func (h *FakeHandle) record(op string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, op)
	if err := h.fail[op]; err != nil {
		return err
	}
	if h.unloaded {
		return ErrUnloaded
	}
	switch op {
	case "play", "replay":
		h.plays++
	case "unload":
		h.unloaded = true
	}
	return nil
}

func (h *FakeHandle) Play() error   { return h.record("play") }
func (h *FakeHandle) Replay() error { return h.record("replay") }
func (h *FakeHandle) Stop() error   { return h.record("stop") }
func (h *FakeHandle) Unload() error { return h.record("unload") }

func (h *FakeHandle) SetVolume(v float64) error {
	if err := h.record("volume"); err != nil {
		return err
	}
	h.mu.Lock()
	h.volume = v
	h.mu.Unlock()
	return nil
}

func (h *FakeHandle) Duration() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.duration
}

// Fail makes op ("play", "replay", "stop", "volume", "unload") return err.
// A nil err clears it.
func (h *FakeHandle) Fail(op string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fail == nil {
		h.fail = make(map[string]error)
	}
	h.fail[op] = err
}

func (h *FakeHandle) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

func (h *FakeHandle) Plays() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.plays
}

func (h *FakeHandle) Volume() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.volume
}

func (h *FakeHandle) Unloaded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.unloaded
}
