package fifo

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Cmd is a control command accepted by Session.Control.
type Cmd uint32

// CmdReset drains the FIFO to empty.
const CmdReset Cmd = 0x01

func (c Cmd) String() string {
	switch c {
	case CmdReset:
		return "RESET"
	default:
		return fmt.Sprintf("Cmd(%#x)", uint32(c))
	}
}

// Session is a caller's handle to a FIFO, the analogue of an open file
// descriptor. It carries the non-blocking flag used by Read and Write and at
// most one notification subscription.
//
// A Session is safe for concurrent use.
type Session struct {
	id   string
	fifo *FIFO

	nonblock atomic.Bool
	closed   atomic.Bool
}

// Open returns a new blocking Session on f. It always succeeds.
func (f *FIFO) Open() *Session {
	s := &Session{
		id:   uuid.NewString(),
		fifo: f,
	}
	f.logger.Debug("fifo: session opened", "session", s.id)
	return s
}

// ID returns the session identity used for notification registration.
func (s *Session) ID() string {
	return s.id
}

// FIFO returns the FIFO the session is bound to.
func (s *Session) FIFO() *FIFO {
	return s.fifo
}

// SetNonblock sets whether Read and Write return ErrWouldBlock instead of
// suspending.
func (s *Session) SetNonblock(nonblock bool) {
	s.nonblock.Store(nonblock)
}

// Nonblock reports the session's non-blocking flag.
func (s *Session) Nonblock() bool {
	return s.nonblock.Load()
}

// Read reads into p honoring the session's non-blocking flag.
func (s *Session) Read(ctx context.Context, p []byte) (int, error) {
	if s.closed.Load() {
		return 0, fmt.Errorf("fifo: read: session %s: %w", s.id, ErrClosed)
	}
	return s.fifo.Read(ctx, p, s.nonblock.Load())
}

// Write writes p honoring the session's non-blocking flag.
func (s *Session) Write(ctx context.Context, p []byte) (int, error) {
	if s.closed.Load() {
		return 0, fmt.Errorf("fifo: write: session %s: %w", s.id, ErrClosed)
	}
	return s.fifo.Write(ctx, p, s.nonblock.Load())
}

// Control executes an administrative command. Unknown commands return
// ErrInvalidArgument.
func (s *Session) Control(cmd Cmd) error {
	if s.closed.Load() {
		return fmt.Errorf("fifo: control: session %s: %w", s.id, ErrClosed)
	}
	switch cmd {
	case CmdReset:
		s.fifo.Reset()
		return nil
	default:
		return fmt.Errorf("fifo: control %v: %w", cmd, ErrInvalidArgument)
	}
}

// Poll returns the subset of interest that is ready now.
func (s *Session) Poll(interest Mask) Mask {
	return s.fifo.Poll(interest)
}

// Wait blocks until a direction in interest is ready.
func (s *Session) Wait(ctx context.Context, interest Mask) (Mask, error) {
	if s.closed.Load() {
		return 0, fmt.Errorf("fifo: wait: session %s: %w", s.id, ErrClosed)
	}
	return s.fifo.Wait(ctx, interest)
}

// Subscribe registers fn for readiness events. Subscribing an already
// subscribed session keeps the existing listener and returns nil.
func (s *Session) Subscribe(fn Listener) error {
	if fn == nil {
		return fmt.Errorf("fifo: subscribe: nil listener: %w", ErrInvalidArgument)
	}
	if s.closed.Load() {
		return fmt.Errorf("fifo: subscribe: session %s: %w", s.id, ErrClosed)
	}
	if err := s.fifo.bcast.register(s.id, fn); err != nil {
		return fmt.Errorf("fifo: subscribe: %w", err)
	}
	return nil
}

// Unsubscribe removes the session's listener. It is idempotent and may be
// called from inside the listener.
func (s *Session) Unsubscribe() {
	s.fifo.bcast.deregister(s.id)
}

// Close unsubscribes the session. Buffered bytes are left untouched. Close
// is idempotent.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.fifo.bcast.deregister(s.id)
	s.fifo.logger.Debug("fifo: session closed", "session", s.id)
	return nil
}
