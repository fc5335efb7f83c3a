package fifo

import "sync/atomic"

// waitSet parks callers until the next edge in one direction.
//
// gen is a generation channel: every caller that parks while the predicate
// is false takes the current channel, and the edge that makes the predicate
// true detaches it and closes it, waking every parked caller at once.
// Woken callers must re-test the predicate. Wakeups are not FIFO-fair and a
// caller can lose the race to a newcomer repeatedly; starvation is not
// prevented.
//
// gen is guarded by FIFO.mu. parked is read without the lock for stats.
type waitSet struct {
	gen    chan struct{}
	parked atomic.Int64
}

// channel returns the channel to park on. FIFO.mu must be held.
func (w *waitSet) channel() <-chan struct{} {
	if w.gen == nil {
		w.gen = make(chan struct{})
	}
	return w.gen
}

// detach takes the current generation so it can be released after FIFO.mu
// is dropped. FIFO.mu must be held.
func (w *waitSet) detach() chan struct{} {
	g := w.gen
	w.gen = nil
	return g
}

// wake releases a detached generation.
func wake(g chan struct{}) {
	if g != nil {
		close(g)
	}
}
