package fifo

import (
	"log/slog"
	"sync"

	"github.com/haivivi/gfifo/pkg/buffer"
)

// Listener receives readiness events. It runs on a goroutine owned by its
// registration, never under the FIFO lock, so it may call back into the
// FIFO, including to unsubscribe itself.
type Listener func(Event)

// broadcaster fans readiness edges out to registered listeners.
//
// Each listener owns an unbounded mailbox drained by its own goroutine, so
// notify never blocks and a slow listener delays nobody else. Delivery is
// at-least-once per edge and in order per listener; order across listeners
// is unspecified.
type broadcaster struct {
	logger *slog.Logger

	mu        sync.Mutex
	closed    bool
	listeners map[string]*listener
}

type listener struct {
	id      string
	fn      Listener
	mailbox *buffer.Queue[Event]
}

func newBroadcaster(logger *slog.Logger) *broadcaster {
	return &broadcaster{
		logger:    logger,
		listeners: make(map[string]*listener),
	}
}

// register adds fn under id. Registering an existing id keeps the first
// listener. Returns ErrClosed once the broadcaster is closed.
func (b *broadcaster) register(id string, fn Listener) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if _, ok := b.listeners[id]; ok {
		return nil
	}
	l := &listener{
		id:      id,
		fn:      fn,
		mailbox: buffer.NewQueue[Event](4),
	}
	b.listeners[id] = l
	go l.run()
	b.logger.Debug("fifo: listener registered", "id", id)
	return nil
}

// deregister removes id. Pending undelivered events are dropped. It reports
// whether id was registered.
func (b *broadcaster) deregister(id string) bool {
	b.mu.Lock()
	l, ok := b.listeners[id]
	delete(b.listeners, id)
	b.mu.Unlock()
	if !ok {
		return false
	}
	l.mailbox.Close()
	b.logger.Debug("fifo: listener deregistered", "id", id)
	return true
}

// notify queues ev for every registered listener and returns how many
// listeners it was queued for. It must not be called with FIFO.mu held.
func (b *broadcaster) notify(ev Event) int {
	b.mu.Lock()
	targets := make([]*listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		targets = append(targets, l)
	}
	b.mu.Unlock()

	n := 0
	for _, l := range targets {
		// A listener deregistered since the snapshot rejects the event.
		if err := l.mailbox.Add(ev); err == nil {
			n++
		}
	}
	return n
}

// close deregisters every listener.
func (b *broadcaster) close() {
	b.mu.Lock()
	b.closed = true
	ls := b.listeners
	b.listeners = make(map[string]*listener)
	b.mu.Unlock()
	for _, l := range ls {
		l.mailbox.Close()
	}
}

func (b *broadcaster) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

func (l *listener) run() {
	for {
		ev, err := l.mailbox.Next()
		if err != nil {
			return
		}
		l.fn(ev)
	}
}
