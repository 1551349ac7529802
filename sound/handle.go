package sound

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

// voice is one in-flight play of a buffer.
type voice struct {
	pos  beep.StreamSeeker
	vol  *effects.Volume
	ctrl *beep.Ctrl
}

func (v *voice) done() bool {
	return v.ctrl.Streamer == nil || v.pos.Position() >= v.pos.Len()
}

// bufferHandle plays a decoded buffer. Each Play mixes a fresh voice so
// rapid taps overlap the way a struck block rings over itself.
type bufferHandle struct {
	out output
	buf *beep.Buffer

	mu       sync.Mutex
	volume   float64
	voices   []*voice
	unloaded bool
}

func newBufferHandle(out output, buf *beep.Buffer, volume float64) *bufferHandle {
	return &bufferHandle{out: out, buf: buf, volume: clampVolume(volume)}
}

func (h *bufferHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unloaded {
		return ErrUnloaded
	}

	pos := h.buf.Streamer(0, h.buf.Len())
	vol := &effects.Volume{Streamer: pos, Base: 2}
	applyVolume(vol, h.volume)
	v := &voice{pos: pos, vol: vol, ctrl: &beep.Ctrl{Streamer: vol}}

	h.out.lock()
	h.prune()
	h.out.unlock()
	h.voices = append(h.voices, v)
	h.out.play(v.ctrl)
	return nil
}

// Replay silences whatever is still ringing and strikes again from the top.
func (h *bufferHandle) Replay() error {
	if err := h.Stop(); err != nil {
		return err
	}
	return h.Play()
}

func (h *bufferHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unloaded {
		return ErrUnloaded
	}
	h.stopVoices()
	return nil
}

func (h *bufferHandle) SetVolume(v float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unloaded {
		return ErrUnloaded
	}
	h.volume = clampVolume(v)

	h.out.lock()
	h.prune()
	for _, vc := range h.voices {
		applyVolume(vc.vol, h.volume)
	}
	h.out.unlock()
	return nil
}

func (h *bufferHandle) Unload() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.unloaded {
		return ErrUnloaded
	}
	h.stopVoices()
	h.unloaded = true
	h.buf = nil
	return nil
}

func (h *bufferHandle) Duration() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.buf == nil {
		return 0
	}
	return h.buf.Format().SampleRate.D(h.buf.Len())
}

// stopVoices must be called with h.mu held.
func (h *bufferHandle) stopVoices() {
	h.out.lock()
	for _, vc := range h.voices {
		vc.ctrl.Streamer = nil
	}
	h.out.unlock()
	h.voices = h.voices[:0]
}

// prune drops finished voices. Caller holds h.mu and the output lock.
func (h *bufferHandle) prune() {
	live := h.voices[:0]
	for _, vc := range h.voices {
		if !vc.done() {
			live = append(live, vc)
		}
	}
	for i := len(live); i < len(h.voices); i++ {
		h.voices[i] = nil
	}
	h.voices = live
}

// applyVolume maps a linear 0..1 level onto effects.Volume's log scale.
func applyVolume(vol *effects.Volume, v float64) {
	if v <= 0 {
		vol.Silent = true
		vol.Volume = 0
		return
	}
	vol.Silent = false
	vol.Volume = math.Log2(v)
}

func clampVolume(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
