package playback

import "time"

// Clock makes timers. Tests swap in a clock they advance by hand.
type Clock interface {
	NewTimer(d time.Duration) Timer
}

type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

type realClock struct{}

func (realClock) NewTimer(d time.Duration) Timer { return realTimer{time.NewTimer(d)} }

type realTimer struct{ t *time.Timer }

func (t realTimer) C() <-chan time.Time { return t.t.C }
func (t realTimer) Stop() bool          { return t.t.Stop() }

// slot holds at most one armed timer. Cancel drops the channel so a
// stopped timer can never be observed by the select loop.
type slot struct {
	t Timer
}

func (s *slot) arm(c Clock, d time.Duration) {
	s.cancel()
	s.t = c.NewTimer(d)
}

func (s *slot) cancel() {
	if s.t != nil {
		s.t.Stop()
		s.t = nil
	}
}

func (s *slot) armed() bool { return s.t != nil }

// C is nil when nothing is armed, which blocks forever in a select.
func (s *slot) C() <-chan time.Time {
	if s.t == nil {
		return nil
	}
	return s.t.C()
}

// fired clears the slot after its timer delivered.
func (s *slot) fired() { s.t = nil }
