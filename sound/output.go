package sound

import (
	"sync"

	"github.com/gopxl/beep/v2"
)

// output is a device sink. Every platform implementation pulls from a
// shared mixer through fill on its own callback goroutine.
type output interface {
	play(s beep.Streamer)
	lock()
	unlock()
	close() error
}

// mixer is the part every output shares: a beep.Mixer guarded by the
// lock that handles take when they change a playing voice.
type mixer struct {
	mu sync.Mutex
	m  beep.Mixer
}

func (x *mixer) play(s beep.Streamer) {
	x.mu.Lock()
	x.m.Add(s)
	x.mu.Unlock()
}

func (x *mixer) lock()   { x.mu.Lock() }
func (x *mixer) unlock() { x.mu.Unlock() }

// fill writes the next len(frames) frames, silence when nothing plays.
func (x *mixer) fill(frames [][2]float64) {
	x.mu.Lock()
	n, _ := x.m.Stream(frames)
	x.mu.Unlock()
	for i := n; i < len(frames); i++ {
		frames[i] = [2]float64{}
	}
}

func (x *mixer) clear() {
	x.mu.Lock()
	x.m.Clear()
	x.mu.Unlock()
}
