package fifonet

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/gfifo/pkg/fifo"
)

// Op names a request operation.
type Op string

const (
	OpRead        Op = "read"
	OpWrite       Op = "write"
	OpControl     Op = "control"
	OpPoll        Op = "poll"
	OpWait        Op = "wait"
	OpSubscribe   Op = "subscribe"
	OpUnsubscribe Op = "unsubscribe"
	OpStat        Op = "stat"
	OpCancel      Op = "cancel"
)

// Request is a client to server frame.
type Request struct {
	ID       uint64    `msgpack:"id"`
	Op       Op        `msgpack:"op"`
	Data     []byte    `msgpack:"data,omitempty"`
	Max      int       `msgpack:"max,omitempty"`
	Nonblock bool      `msgpack:"nonblock,omitempty"`
	Mask     fifo.Mask `msgpack:"mask,omitempty"`
	Cmd      fifo.Cmd  `msgpack:"cmd,omitempty"`

	// Target is the ID of the request an OpCancel interrupts.
	Target uint64 `msgpack:"target,omitempty"`
}

// Code is a response status.
type Code string

const (
	CodeOK              Code = "ok"
	CodeWouldBlock      Code = "would_block"
	CodeInterrupted     Code = "interrupted"
	CodeInvalidArgument Code = "invalid_argument"
	CodeClosed          Code = "closed"
	CodeInternal        Code = "internal"
)

// Response answers the Request with the same ID.
type Response struct {
	ID      uint64      `msgpack:"id"`
	Code    Code        `msgpack:"code"`
	Message string      `msgpack:"message,omitempty"`
	N       int         `msgpack:"n,omitempty"`
	Data    []byte      `msgpack:"data,omitempty"`
	Mask    fifo.Mask   `msgpack:"mask,omitempty"`
	Stats   *fifo.Stats `msgpack:"stats,omitempty"`
}

// Notice is a readiness event pushed to a subscribed session.
type Notice struct {
	Event fifo.Event `msgpack:"event"`
}

// Kind tells which payload an Envelope carries.
type Kind string

const (
	KindResponse Kind = "response"
	KindEvent    Kind = "event"
)

// Envelope is a server to client frame.
type Envelope struct {
	Kind     Kind      `msgpack:"kind"`
	Response *Response `msgpack:"response,omitempty"`
	Notice   *Notice   `msgpack:"notice,omitempty"`
}

func encode(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("fifonet: encode: %w", err)
	}
	return data, nil
}

func decode(data []byte, v any) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("fifonet: decode: %w", err)
	}
	return nil
}

// codeOf maps an operation error to its wire code.
func codeOf(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, fifo.ErrWouldBlock):
		return CodeWouldBlock
	case errors.Is(err, fifo.ErrInterrupted):
		return CodeInterrupted
	case errors.Is(err, fifo.ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, fifo.ErrClosed):
		return CodeClosed
	default:
		return CodeInternal
	}
}

// RemoteError is an error reported by the server. It unwraps to the
// matching fifo sentinel so errors.Is works across the connection.
type RemoteError struct {
	Code    Code
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("fifonet: remote %s", e.Code)
	}
	return fmt.Sprintf("fifonet: remote %s: %s", e.Code, e.Message)
}

func (e *RemoteError) Unwrap() error {
	switch e.Code {
	case CodeWouldBlock:
		return fifo.ErrWouldBlock
	case CodeInterrupted:
		return fifo.ErrInterrupted
	case CodeInvalidArgument:
		return fifo.ErrInvalidArgument
	case CodeClosed:
		return fifo.ErrClosed
	default:
		return nil
	}
}

// Err returns nil for CodeOK and a *RemoteError otherwise.
func (r *Response) Err() error {
	if r.Code == CodeOK || r.Code == "" {
		return nil
	}
	return &RemoteError{Code: r.Code, Message: r.Message}
}
