package settings

import "sync"

const subscriptionBuffer = 16

// Subscription delivers every Change published after it was created.
// When the consumer falls behind, the oldest undelivered change is dropped;
// each Change carries a full snapshot so the latest state always arrives.
type Subscription struct {
	store *Store
	ch    chan Change
	once  sync.Once
}

// Subscribe registers a new subscriber. Call Close to unregister.
func (s *Store) Subscribe() *Subscription {
	sub := &Subscription{store: s, ch: make(chan Change, subscriptionBuffer)}
	s.subsMu.Lock()
	s.subs[sub] = struct{}{}
	s.subsMu.Unlock()
	return sub
}

func (sub *Subscription) C() <-chan Change {
	return sub.ch
}

// Close unregisters the subscription. The channel is not closed, so a
// consumer selecting on it simply stops receiving.
func (sub *Subscription) Close() {
	sub.once.Do(func() {
		sub.store.subsMu.Lock()
		delete(sub.store.subs, sub)
		sub.store.subsMu.Unlock()
	})
}

func (s *Store) publish(c Change) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for sub := range s.subs {
		sub.deliver(c)
	}
}

func (sub *Subscription) deliver(c Change) {
	for {
		select {
		case sub.ch <- c:
			return
		default:
		}
		select {
		case <-sub.ch:
		default:
		}
	}
}
