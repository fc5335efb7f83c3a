package buffer

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrIteratorDone is returned by Next when the queue is closed for writing
// and drained.
var ErrIteratorDone = errors.New("iterator done")

// Queue is a thread-safe growable FIFO. Add never blocks; Next blocks until
// a value is available or the queue is closed.
//
// The queue uses a write notification channel with a buffer of one, so Next
// is meant to be drained by a single consumer goroutine. Any number of
// goroutines may call Add.
//
// The queue supports graceful shutdown through CloseWrite() (Next keeps
// returning queued values, then ErrIteratorDone) or CloseWithError() (queued
// values are dropped and Next fails immediately).
type Queue[T any] struct {
	writeNotify chan struct{}

	mu         sync.Mutex
	closeWrite bool
	closeErr   error
	buf        []T
}

// NewQueue creates a Queue with the specified initial capacity. The queue
// grows beyond it as needed.
func NewQueue[T any](n int) *Queue[T] {
	return &Queue[T]{
		writeNotify: make(chan struct{}, 1),
		buf:         make([]T, 0, n),
	}
}

// Add appends t to the tail of the queue and wakes the consumer.
//
// Returns an error if the queue is closed for writing or has been closed
// with an error.
func (q *Queue[T]) Add(t T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closeErr != nil {
		return fmt.Errorf("buffer: add to closed queue: %w", q.closeErr)
	}
	if q.closeWrite {
		return fmt.Errorf("buffer: add to closed queue: %w", io.ErrClosedPipe)
	}
	q.buf = append(q.buf, t)
	select {
	case q.writeNotify <- struct{}{}:
	default:
	}
	return nil
}

// Next removes and returns the value at the head of the queue.
//
// It blocks until a value is available or the queue is closed. The mutex is
// released while waiting and the emptiness check is repeated after every
// wakeup. Returns ErrIteratorDone once the queue is closed for writing and
// empty.
func (q *Queue[T]) Next() (t T, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closeErr != nil {
		err = fmt.Errorf("buffer: next from closed queue: %w", q.closeErr)
		return
	}
	for len(q.buf) == 0 {
		if q.closeWrite {
			err = ErrIteratorDone
			return
		}
		q.mu.Unlock()
		<-q.writeNotify
		q.mu.Lock()
		if q.closeErr != nil {
			err = fmt.Errorf("buffer: next from closed queue: %w", q.closeErr)
			return
		}
	}
	var zero T
	t = q.buf[0]
	q.buf[0] = zero
	q.buf = q.buf[1:]
	return t, nil
}

// CloseWrite prevents further Adds. Queued values can still be taken with
// Next. Returns nil if the write side was already closed.
func (q *Queue[T]) CloseWrite() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closeWrite {
		return nil
	}
	q.closeWrite = true
	close(q.writeNotify)
	return nil
}

// CloseWithError closes both ends of the queue and drops queued values. If
// err is nil, io.ErrClosedPipe is used. Only the first error is retained.
func (q *Queue[T]) CloseWithError(err error) error {
	if err == nil {
		err = io.ErrClosedPipe
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closeErr != nil {
		return nil
	}
	q.closeErr = err
	q.buf = nil
	if !q.closeWrite {
		q.closeWrite = true
		close(q.writeNotify)
	}
	return nil
}

// Close is equivalent to CloseWithError(io.ErrClosedPipe).
func (q *Queue[T]) Close() error {
	return q.CloseWithError(io.ErrClosedPipe)
}

// Error returns the error the queue was closed with, if any.
func (q *Queue[T]) Error() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closeErr
}

// Len returns the number of queued values.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}
