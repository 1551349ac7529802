package hotkey

import "time"

// Tapper turns key presses into taps. Presses closer together than
// minGap are one tap, which absorbs keyboard bounce and auto-repeat from
// backends that report it.
type Tapper struct {
	taps chan struct{}
	stop chan struct{}
	done chan struct{}
}

func NewTapper(hk Hotkey, minGap time.Duration) *Tapper {
	t := &Tapper{
		taps: make(chan struct{}, 8),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go t.run(hk, minGap)
	return t
}

func (t *Tapper) Taps() <-chan struct{} { return t.taps }

// Close stops forwarding. It does not unregister the hotkey.
func (t *Tapper) Close() {
	select {
	case <-t.stop:
	default:
		close(t.stop)
	}
	<-t.done
}

func (t *Tapper) run(hk Hotkey, minGap time.Duration) {
	defer close(t.done)
	var last time.Time
	for {
		select {
		case <-t.stop:
			return
		case <-hk.Keyup():
		case <-hk.Keydown():
			now := time.Now()
			if !last.IsZero() && now.Sub(last) < minGap {
				continue
			}
			last = now
			notify(t.taps)
		}
	}
}
