package fifo

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrWouldBlock is returned by non-blocking operations that cannot make
	// progress. It is expected and recoverable: retry later or wait for
	// readiness.
	ErrWouldBlock = errors.New("fifo: operation would block")

	// ErrInterrupted is returned when a suspended operation is cancelled
	// through its context. Nothing was consumed or written.
	ErrInterrupted = errors.New("fifo: interrupted")

	// ErrInvalidArgument is returned for malformed requests such as an
	// unknown control command or an empty interest mask.
	ErrInvalidArgument = errors.New("fifo: invalid argument")

	// ErrClosed is returned by operations on a closed FIFO or Session.
	ErrClosed = errors.New("fifo: closed")
)

func interrupted(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx))
}
