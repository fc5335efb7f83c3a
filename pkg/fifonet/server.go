package fifonet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/haivivi/gfifo/pkg/fifo"
)

const (
	// DefaultPath is the WebSocket endpoint path.
	DefaultPath = "/fifo"

	// Subprotocol is negotiated on the WebSocket upgrade.
	Subprotocol = "gfifo.v1"

	writeTimeout    = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// ServerConfig configures a Server.
type ServerConfig struct {
	// FIFO is the shared buffer every session is bound to. Required.
	FIFO *fifo.FIFO

	// Path is the WebSocket endpoint. Defaults to DefaultPath.
	Path string

	// Registry receives the server metrics and is served on /metrics.
	// If nil, metrics are disabled.
	Registry *prometheus.Registry

	// Logger is optional. If nil, uses slog.Default().
	Logger *slog.Logger
}

// Server serves a FIFO to WebSocket clients.
type Server struct {
	fifo     *fifo.FIFO
	path     string
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *Metrics
	upgrader websocket.Upgrader
}

// NewServer creates a Server. It returns an error if the metrics cannot be
// registered.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.FIFO == nil {
		return nil, fmt.Errorf("fifonet: server requires a fifo: %w", fifo.ErrInvalidArgument)
	}
	s := &Server{
		fifo:     cfg.FIFO,
		path:     cfg.Path,
		logger:   cfg.Logger,
		registry: cfg.Registry,
		upgrader: websocket.Upgrader{
			Subprotocols: []string{Subprotocol},
			CheckOrigin:  func(r *http.Request) bool { return true },
		},
	}
	if s.path == "" {
		s.path = DefaultPath
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.registry != nil {
		m, err := NewMetrics(s.registry, s.fifo)
		if err != nil {
			return nil, fmt.Errorf("fifonet: register metrics: %w", err)
		}
		s.metrics = m
	}
	return s, nil
}

// Handler returns the HTTP handler: the WebSocket endpoint, /healthz with
// the FIFO stats as JSON, and /metrics when a registry is configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return mux
}

// Serve accepts connections on ln until ctx is cancelled, then shuts the
// HTTP server down gracefully. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("fifonet: serving", "addr", ln.Addr().String(), "path", s.path, "capacity", s.fifo.Cap())
		if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("fifonet: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Hijacked WebSocket connections are not tracked by Shutdown; they
		// end when their request context (derived from ctx) is cancelled.
		if err := hs.Shutdown(sctx); err != nil {
			return fmt.Errorf("fifonet: shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.fifo.Stats()); err != nil {
		s.logger.Error("fifonet: encode health", "error", err)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("fifonet: upgrade failed", "error", err)
		return
	}
	c := newConn(s, ws, r.Context())
	c.serve()
}

// conn is the server side of one WebSocket connection.
type conn struct {
	srv    *Server
	ws     *websocket.Conn
	sess   *fifo.Session
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	wmu sync.Mutex // serializes frame writes

	mu       sync.Mutex
	inflight map[uint64]context.CancelFunc
	wg       sync.WaitGroup
}

func newConn(s *Server, ws *websocket.Conn, parent context.Context) *conn {
	ctx, cancel := context.WithCancel(parent)
	sess := s.fifo.Open()
	return &conn{
		srv:      s,
		ws:       ws,
		sess:     sess,
		logger:   s.logger.With("session", sess.ID(), "remote", ws.RemoteAddr().String()),
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[uint64]context.CancelFunc),
	}
}

func (c *conn) serve() {
	c.srv.metrics.sessionOpened()
	c.logger.Info("fifonet: session opened")

	// The read loop blocks in ReadMessage; closing the socket on ctx
	// cancellation unblocks it during server shutdown.
	stop := context.AfterFunc(c.ctx, func() { c.ws.Close() })

	defer func() {
		stop()
		c.cancel()
		c.wg.Wait()
		c.sess.Close()
		c.ws.Close()
		c.srv.metrics.sessionClosed()
		c.logger.Info("fifonet: session closed")
	}()

	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && c.ctx.Err() == nil {
				c.logger.Debug("fifonet: read frame", "error", err)
			}
			return
		}
		if mt != websocket.BinaryMessage {
			c.logger.Warn("fifonet: ignoring non-binary frame", "type", mt)
			continue
		}
		var req Request
		if err := decode(data, &req); err != nil {
			c.logger.Warn("fifonet: bad request frame", "error", err)
			continue
		}
		c.dispatch(req)
	}
}

func (c *conn) dispatch(req Request) {
	switch req.Op {
	case OpRead, OpWrite, OpWait:
		ctx, cancel := context.WithCancel(c.ctx)
		c.mu.Lock()
		if _, dup := c.inflight[req.ID]; dup {
			c.mu.Unlock()
			cancel()
			c.reply(req.Op, &Response{ID: req.ID, Code: CodeInvalidArgument, Message: "duplicate request id"})
			return
		}
		c.inflight[req.ID] = cancel
		c.mu.Unlock()

		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			resp := c.handleBlocking(ctx, req)
			c.mu.Lock()
			delete(c.inflight, req.ID)
			c.mu.Unlock()
			cancel()
			c.reply(req.Op, resp)
		}()

	case OpCancel:
		c.mu.Lock()
		cancel, ok := c.inflight[req.Target]
		c.mu.Unlock()
		if ok {
			cancel()
		}
		c.reply(req.Op, &Response{ID: req.ID, Code: CodeOK})

	default:
		c.reply(req.Op, c.handleImmediate(req))
	}
}

func (c *conn) handleBlocking(ctx context.Context, req Request) *Response {
	f := c.sess.FIFO()
	resp := &Response{ID: req.ID}
	var err error

	switch req.Op {
	case OpRead:
		if req.Max < 0 {
			err = fmt.Errorf("read max %d: %w", req.Max, fifo.ErrInvalidArgument)
			break
		}
		buf := make([]byte, min(req.Max, f.Cap()))
		resp.N, err = f.Read(ctx, buf, req.Nonblock)
		resp.Data = buf[:resp.N]
		c.srv.metrics.read(resp.N)
	case OpWrite:
		resp.N, err = f.Write(ctx, req.Data, req.Nonblock)
		c.srv.metrics.written(resp.N)
	case OpWait:
		resp.Mask, err = f.Wait(ctx, req.Mask)
	}

	resp.Code = codeOf(err)
	if err != nil {
		resp.Message = err.Error()
	}
	return resp
}

func (c *conn) handleImmediate(req Request) *Response {
	resp := &Response{ID: req.ID}
	var err error

	switch req.Op {
	case OpControl:
		err = c.sess.Control(req.Cmd)
	case OpPoll:
		resp.Mask = c.sess.Poll(req.Mask)
	case OpStat:
		st := c.sess.FIFO().Stats()
		resp.Stats = &st
	case OpSubscribe:
		err = c.sess.Subscribe(c.pushEvent)
	case OpUnsubscribe:
		c.sess.Unsubscribe()
	default:
		err = fmt.Errorf("unknown op %q: %w", req.Op, fifo.ErrInvalidArgument)
	}

	resp.Code = codeOf(err)
	if err != nil {
		resp.Message = err.Error()
	}
	return resp
}

// pushEvent runs on the session's listener goroutine.
func (c *conn) pushEvent(ev fifo.Event) {
	if err := c.send(&Envelope{Kind: KindEvent, Notice: &Notice{Event: ev}}); err != nil {
		c.logger.Debug("fifonet: push event", "event", ev.String(), "error", err)
		return
	}
	c.srv.metrics.event(ev)
}

func (c *conn) reply(op Op, resp *Response) {
	c.srv.metrics.observe(op, resp.Code)
	if resp.Code == CodeInternal {
		c.logger.Error("fifonet: request failed", "op", op, "id", resp.ID, "error", resp.Message)
	}
	if err := c.send(&Envelope{Kind: KindResponse, Response: resp}); err != nil {
		c.logger.Debug("fifonet: send response", "op", op, "id", resp.ID, "error", err)
	}
}

func (c *conn) send(env *Envelope) error {
	data, err := encode(env)
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.BinaryMessage, data)
}
