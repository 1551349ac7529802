package settings

import (
	"context"
	"slices"
	"sync"

	"woodenfish/kv"
	"woodenfish/log"
)

// writer persists values on a single goroutine in the order they were
// enqueued. A newer value for a key replaces an older one that has not been
// written yet and moves the key to the back of the queue.
type writer struct {
	kv kv.Store

	mu      sync.Mutex
	pending map[string]string
	order   []string
	busy    bool
	idle    chan struct{} // closed and replaced each time the queue drains

	wake      chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newWriter(store kv.Store) *writer {
	w := &writer{
		kv:      store,
		pending: make(map[string]string),
		idle:    make(chan struct{}),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *writer) enqueue(key, value string) {
	w.mu.Lock()
	if _, ok := w.pending[key]; ok {
		w.order = slices.DeleteFunc(w.order, func(k string) bool { return k == key })
	}
	w.pending[key] = value
	w.order = append(w.order, key)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

func (w *writer) drain() {
	for {
		w.mu.Lock()
		if len(w.pending) == 0 {
			w.busy = false
			close(w.idle)
			w.idle = make(chan struct{})
			w.mu.Unlock()
			return
		}
		batch, order := w.pending, w.order
		w.pending = make(map[string]string)
		w.order = nil
		w.busy = true
		w.mu.Unlock()

		for _, k := range order {
			if err := w.kv.Set(context.Background(), k, batch[k]); err != nil {
				perr := &PersistenceError{Op: "write", Key: k, Err: err}
				log.Warnf("%v", perr)
			}
		}
	}
}

func (w *writer) flush(ctx context.Context) error {
	w.mu.Lock()
	if len(w.pending) == 0 && !w.busy {
		w.mu.Unlock()
		return nil
	}
	idle := w.idle
	w.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *writer) close() {
	w.closeOnce.Do(func() { close(w.stop) })
	<-w.done
}
