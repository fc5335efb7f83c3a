package fifo

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/haivivi/gfifo/pkg/buffer"
)

// DefaultCapacity is the capacity used when Config.Capacity is zero.
const DefaultCapacity = 0x1000

// Config configures a FIFO.
type Config struct {
	// Capacity is the fixed number of bytes the FIFO can hold.
	// Zero means DefaultCapacity.
	Capacity int

	// Logger is optional. If nil, uses slog.Default().
	Logger *slog.Logger
}

// FIFO is a fixed-capacity byte buffer shared by concurrent readers and
// writers.
//
// All state is guarded by one mutex held only for a state check plus the
// mutation. The mutex is never held while a caller is suspended or while
// listeners are notified. Blocked callers are woken on edges only: readers
// when the FIFO goes from empty to non-empty, writers when it goes from full
// to non-full. A woken caller re-tests its predicate and parks again if
// another caller got there first; wakeups are not fair and starvation is not
// prevented.
type FIFO struct {
	logger *slog.Logger
	bcast  *broadcaster

	mu      sync.Mutex
	store   *buffer.Compact
	closed  bool
	readers waitSet // data available
	writers waitSet // space available

	bytesRead      atomic.Int64
	bytesWritten   atomic.Int64
	resets         atomic.Int64
	readableEvents atomic.Int64
	writableEvents atomic.Int64
}

// New creates an empty FIFO.
//
// Returns ErrInvalidArgument if cfg.Capacity is negative.
func New(cfg Config) (*FIFO, error) {
	if cfg.Capacity < 0 {
		return nil, fmt.Errorf("fifo: capacity %d: %w", cfg.Capacity, ErrInvalidArgument)
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = DefaultCapacity
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FIFO{
		logger: logger,
		bcast:  newBroadcaster(logger),
		store:  buffer.CompactN(cfg.Capacity),
	}, nil
}

// Read consumes up to len(p) bytes into p.
//
// If the FIFO is empty, Read returns ErrWouldBlock when nonblock is set, and
// otherwise suspends until data arrives, ctx is done (ErrInterrupted), or the
// FIFO is closed (ErrClosed). A successful blocking Read always returns at
// least one byte. An empty p returns 0, nil immediately.
func (f *FIFO) Read(ctx context.Context, p []byte, nonblock bool) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	f.mu.Lock()
	for {
		if f.closed {
			f.mu.Unlock()
			return 0, fmt.Errorf("fifo: read: %w", ErrClosed)
		}
		if !f.store.Empty() {
			break
		}
		if nonblock {
			f.mu.Unlock()
			return 0, fmt.Errorf("fifo: read: %w", ErrWouldBlock)
		}
		if err := f.suspend(ctx, &f.readers, nil); err != nil {
			f.logger.Debug("fifo: read interrupted", "error", err)
			return 0, fmt.Errorf("fifo: read: %w", err)
		}
	}

	wasFull := f.store.Full()
	n := min(len(p), f.store.Len())
	f.store.Consume(p[:n])
	remaining := f.store.Len()
	var gen chan struct{}
	if wasFull {
		gen = f.writers.detach()
	}
	f.mu.Unlock()

	f.bytesRead.Add(int64(n))
	f.logger.Debug("fifo: read", "bytes", n, "len", remaining)
	if wasFull {
		wake(gen)
		f.emit(EventWritable)
	}
	return n, nil
}

// Write stores up to len(p) bytes from p and returns how many were stored.
//
// If the FIFO is full, Write returns ErrWouldBlock when nonblock is set, and
// otherwise suspends until space is freed, ctx is done (ErrInterrupted), or
// the FIFO is closed (ErrClosed). Writes are short when p does not fit; the
// caller decides whether to write the rest. An empty p returns 0, nil
// immediately, even on a full FIFO.
func (f *FIFO) Write(ctx context.Context, p []byte, nonblock bool) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	f.mu.Lock()
	for {
		if f.closed {
			f.mu.Unlock()
			return 0, fmt.Errorf("fifo: write: %w", ErrClosed)
		}
		if !f.store.Full() {
			break
		}
		if nonblock {
			f.mu.Unlock()
			return 0, fmt.Errorf("fifo: write: %w", ErrWouldBlock)
		}
		if err := f.suspend(ctx, nil, &f.writers); err != nil {
			f.logger.Debug("fifo: write interrupted", "error", err)
			return 0, fmt.Errorf("fifo: write: %w", err)
		}
	}

	wasEmpty := f.store.Empty()
	n := min(len(p), f.store.Free())
	f.store.Append(p[:n])
	current := f.store.Len()
	var gen chan struct{}
	if wasEmpty {
		gen = f.readers.detach()
	}
	f.mu.Unlock()

	f.bytesWritten.Add(int64(n))
	f.logger.Debug("fifo: written", "bytes", n, "len", current)
	if wasEmpty {
		wake(gen)
		f.emit(EventReadable)
	}
	return n, nil
}

// Reset discards all buffered bytes. If the FIFO was full, blocked writers
// are woken and EventWritable is emitted. Reset is idempotent and is a no-op
// on a closed FIFO.
func (f *FIFO) Reset() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	wasFull := f.store.Full()
	dropped := f.store.Len()
	f.store.Clear()
	var gen chan struct{}
	if wasFull {
		gen = f.writers.detach()
	}
	f.mu.Unlock()

	f.resets.Add(1)
	f.logger.Info("fifo: reset", "dropped", dropped)
	if wasFull {
		wake(gen)
		f.emit(EventWritable)
	}
}

// Poll returns the subset of interest that is currently satisfied. It never
// blocks and has no side effects. On a closed FIFO every interested
// direction is reported ready, since operations fail without blocking.
func (f *FIFO) Poll(interest Mask) Mask {
	interest &= All
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return interest
	}
	return interest & readiness(f.store.Len(), f.store.Cap())
}

// Wait blocks until at least one direction in interest is ready and returns
// the ready subset. It returns ErrInvalidArgument for an empty interest,
// ErrInterrupted when ctx is done first, and ErrClosed once the FIFO is
// closed. Readiness can be lost again before the caller acts on it.
func (f *FIFO) Wait(ctx context.Context, interest Mask) (Mask, error) {
	interest &= All
	if interest == 0 {
		return 0, fmt.Errorf("fifo: wait: empty interest: %w", ErrInvalidArgument)
	}

	f.mu.Lock()
	for {
		if f.closed {
			f.mu.Unlock()
			return 0, fmt.Errorf("fifo: wait: %w", ErrClosed)
		}
		if ready := interest & readiness(f.store.Len(), f.store.Cap()); ready != 0 {
			f.mu.Unlock()
			return ready, nil
		}
		var rd, wr *waitSet
		if interest&Readable != 0 {
			rd = &f.readers
		}
		if interest&Writable != 0 {
			wr = &f.writers
		}
		if err := f.suspend(ctx, rd, wr); err != nil {
			return 0, fmt.Errorf("fifo: wait: %w", err)
		}
	}
}

// suspend parks the caller on the given wait sets (either may be nil).
//
// f.mu must be held on entry and is released before parking. On wakeup f.mu
// is re-acquired and nil is returned; the caller must re-test its predicate.
// If ctx is done first, suspend returns an ErrInterrupted error with f.mu
// released.
func (f *FIFO) suspend(ctx context.Context, rd, wr *waitSet) error {
	var rch, wch <-chan struct{}
	if rd != nil {
		rch = rd.channel()
		rd.parked.Add(1)
	}
	if wr != nil {
		wch = wr.channel()
		wr.parked.Add(1)
	}
	f.mu.Unlock()

	var err error
	select {
	case <-rch:
	case <-wch:
	case <-ctx.Done():
		err = interrupted(ctx)
	}

	if rd != nil {
		rd.parked.Add(-1)
	}
	if wr != nil {
		wr.parked.Add(-1)
	}
	if err != nil {
		return err
	}
	f.mu.Lock()
	return nil
}

func (f *FIFO) emit(ev Event) {
	switch ev {
	case EventReadable:
		f.readableEvents.Add(1)
	case EventWritable:
		f.writableEvents.Add(1)
	}
	n := f.bcast.notify(ev)
	f.logger.Debug("fifo: event", "event", ev.String(), "listeners", n)
}

// Close wakes every blocked caller with ErrClosed and deregisters all
// listeners. Buffered bytes are discarded. Close is idempotent.
func (f *FIFO) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.store.Clear()
	rgen := f.readers.detach()
	wgen := f.writers.detach()
	f.mu.Unlock()

	wake(rgen)
	wake(wgen)
	f.bcast.close()
	return nil
}

// Len returns the number of buffered bytes.
func (f *FIFO) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store.Len()
}

// Cap returns the fixed capacity.
func (f *FIFO) Cap() int {
	return f.store.Cap()
}

// Stats is a point-in-time snapshot of a FIFO.
type Stats struct {
	Len            int   `json:"len" yaml:"len"`
	Cap            int   `json:"cap" yaml:"cap"`
	Closed         bool  `json:"closed" yaml:"closed"`
	ReadWaiters    int64 `json:"read_waiters" yaml:"read_waiters"`
	WriteWaiters   int64 `json:"write_waiters" yaml:"write_waiters"`
	Listeners      int   `json:"listeners" yaml:"listeners"`
	BytesRead      int64 `json:"bytes_read" yaml:"bytes_read"`
	BytesWritten   int64 `json:"bytes_written" yaml:"bytes_written"`
	Resets         int64 `json:"resets" yaml:"resets"`
	ReadableEvents int64 `json:"readable_events" yaml:"readable_events"`
	WritableEvents int64 `json:"writable_events" yaml:"writable_events"`
}

// Stats returns a snapshot of occupancy and cumulative counters.
func (f *FIFO) Stats() Stats {
	f.mu.Lock()
	s := Stats{
		Len:    f.store.Len(),
		Cap:    f.store.Cap(),
		Closed: f.closed,
	}
	f.mu.Unlock()

	s.ReadWaiters = f.readers.parked.Load()
	s.WriteWaiters = f.writers.parked.Load()
	s.Listeners = f.bcast.len()
	s.BytesRead = f.bytesRead.Load()
	s.BytesWritten = f.bytesWritten.Load()
	s.Resets = f.resets.Load()
	s.ReadableEvents = f.readableEvents.Load()
	s.WritableEvents = f.writableEvents.Load()
	return s
}
