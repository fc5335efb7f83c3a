package fifonet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/haivivi/gfifo/pkg/buffer"
	"github.com/haivivi/gfifo/pkg/fifo"
)

// cancelGrace bounds how long a cancelled call waits for the server to
// report the outcome of the interrupted request.
const cancelGrace = 2 * time.Second

// ErrClientClosed is returned by calls on a closed or disconnected Client.
var ErrClientClosed = errors.New("fifonet: client closed")

// DialConfig configures Dial.
type DialConfig struct {
	// Header is sent with the WebSocket handshake.
	Header http.Header

	// Logger is optional. If nil, uses slog.Default().
	Logger *slog.Logger
}

// Client is a remote fifo session. It is safe for concurrent use; calls
// are multiplexed over one connection.
type Client struct {
	ws     *websocket.Conn
	logger *slog.Logger

	nextID atomic.Uint64
	wmu    sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan *Response

	mailbox *buffer.Queue[fifo.Event]
	events  chan fifo.Event

	done      chan struct{}
	closeOnce sync.Once
	err       error
}

// Dial connects to a server endpoint such as ws://127.0.0.1:7070/fifo.
func Dial(ctx context.Context, url string) (*Client, error) {
	return DialWithConfig(ctx, url, DialConfig{})
}

// DialWithConfig is Dial with options.
func DialWithConfig(ctx context.Context, url string, cfg DialConfig) (*Client, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
		Subprotocols:     []string{Subprotocol},
	}
	ws, _, err := dialer.DialContext(ctx, url, cfg.Header)
	if err != nil {
		return nil, fmt.Errorf("fifonet: dial %s: %w", url, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		ws:      ws,
		logger:  logger,
		pending: make(map[uint64]chan *Response),
		mailbox: buffer.NewQueue[fifo.Event](16),
		events:  make(chan fifo.Event),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	go c.pumpEvents()
	return c, nil
}

// Read reads up to max bytes. With nonblock set it returns fifo.ErrWouldBlock
// on an empty buffer; otherwise it waits for data. Cancelling ctx interrupts
// the remote read.
func (c *Client) Read(ctx context.Context, max int, nonblock bool) ([]byte, error) {
	resp, err := c.call(ctx, &Request{Op: OpRead, Max: max, Nonblock: nonblock})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Write writes p and returns how many bytes were stored; short writes are
// normal. With nonblock set it returns fifo.ErrWouldBlock on a full buffer.
func (c *Client) Write(ctx context.Context, p []byte, nonblock bool) (int, error) {
	resp, err := c.call(ctx, &Request{Op: OpWrite, Data: p, Nonblock: nonblock})
	if err != nil {
		return 0, err
	}
	return resp.N, nil
}

// Control sends an administrative command.
func (c *Client) Control(ctx context.Context, cmd fifo.Cmd) error {
	_, err := c.call(ctx, &Request{Op: OpControl, Cmd: cmd})
	return err
}

// Reset drains the remote buffer.
func (c *Client) Reset(ctx context.Context) error {
	return c.Control(ctx, fifo.CmdReset)
}

// Poll returns the ready subset of interest without blocking on the server.
func (c *Client) Poll(ctx context.Context, interest fifo.Mask) (fifo.Mask, error) {
	resp, err := c.call(ctx, &Request{Op: OpPoll, Mask: interest})
	if err != nil {
		return 0, err
	}
	return resp.Mask, nil
}

// Wait blocks until a direction in interest is ready.
func (c *Client) Wait(ctx context.Context, interest fifo.Mask) (fifo.Mask, error) {
	resp, err := c.call(ctx, &Request{Op: OpWait, Mask: interest})
	if err != nil {
		return 0, err
	}
	return resp.Mask, nil
}

// Stat returns the remote buffer stats.
func (c *Client) Stat(ctx context.Context) (fifo.Stats, error) {
	resp, err := c.call(ctx, &Request{Op: OpStat})
	if err != nil {
		return fifo.Stats{}, err
	}
	if resp.Stats == nil {
		return fifo.Stats{}, fmt.Errorf("fifonet: stat: empty response")
	}
	return *resp.Stats, nil
}

// Subscribe asks the server to push readiness events, received on Events.
func (c *Client) Subscribe(ctx context.Context) error {
	_, err := c.call(ctx, &Request{Op: OpSubscribe})
	return err
}

// Unsubscribe stops event delivery.
func (c *Client) Unsubscribe(ctx context.Context) error {
	_, err := c.call(ctx, &Request{Op: OpUnsubscribe})
	return err
}

// Events returns the channel of pushed readiness events. It is closed when
// the client is closed or disconnected.
func (c *Client) Events() <-chan fifo.Event {
	return c.events
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection. In-flight calls fail with ErrClientClosed.
func (c *Client) Close() error {
	c.wmu.Lock()
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.wmu.Unlock()
	c.shutdown(ErrClientClosed)
	return nil
}

func (c *Client) call(ctx context.Context, req *Request) (*Response, error) {
	req.ID = c.nextID.Add(1)
	ch := make(chan *Response, 1)

	c.mu.Lock()
	c.pending[req.ID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
	}()

	if err := c.send(req); err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		return resp, resp.Err()
	case <-c.done:
		return nil, c.closeErr()
	case <-ctx.Done():
	}

	// Ask the server to interrupt the request, then wait for its verdict:
	// the request may have completed before the cancel arrived, in which
	// case its result must not be lost.
	cancel := &Request{ID: c.nextID.Add(1), Op: OpCancel, Target: req.ID}
	if err := c.send(cancel); err != nil {
		return nil, fmt.Errorf("fifonet: %s: %w: %w", req.Op, fifo.ErrInterrupted, context.Cause(ctx))
	}
	select {
	case resp := <-ch:
		if err := resp.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", err, context.Cause(ctx))
		}
		return resp, nil
	case <-c.done:
		return nil, c.closeErr()
	case <-time.After(cancelGrace):
		return nil, fmt.Errorf("fifonet: %s: %w: %w", req.Op, fifo.ErrInterrupted, context.Cause(ctx))
	}
}

func (c *Client) send(req *Request) error {
	data, err := encode(req)
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	select {
	case <-c.done:
		return c.closeErr()
	default:
	}
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("fifonet: send %s: %w", req.Op, err)
	}
	return nil
}

func (c *Client) readLoop() {
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			c.shutdown(fmt.Errorf("%w: %w", ErrClientClosed, err))
			return
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		var env Envelope
		if err := decode(data, &env); err != nil {
			c.logger.Warn("fifonet: bad server frame", "error", err)
			continue
		}
		switch env.Kind {
		case KindResponse:
			if env.Response == nil {
				continue
			}
			c.mu.Lock()
			ch, ok := c.pending[env.Response.ID]
			c.mu.Unlock()
			if ok {
				ch <- env.Response
			}
		case KindEvent:
			if env.Notice != nil {
				c.mailbox.Add(env.Notice.Event)
			}
		}
	}
}

// pumpEvents moves events from the unbounded mailbox to the Events channel
// so that a slow consumer never stalls the read loop.
func (c *Client) pumpEvents() {
	defer close(c.events)
	for {
		ev, err := c.mailbox.Next()
		if err != nil {
			return
		}
		select {
		case c.events <- ev:
		case <-c.done:
			return
		}
	}
}

func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
		c.ws.Close()
		c.mailbox.CloseWrite()
	})
}

func (c *Client) closeErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
