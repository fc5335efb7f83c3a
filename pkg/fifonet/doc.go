// Package fifonet exposes a fifo.FIFO over WebSocket.
//
// Each WebSocket connection is one fifo.Session. Messages are msgpack-encoded
// binary frames: the client sends Request values and the server answers with
// Envelope values carrying either a Response (matched to the request by ID)
// or a Notice (an edge-triggered readiness event for subscribed sessions).
//
// Blocking requests run concurrently on the server, so one connection may
// have a blocked read and a write in flight at the same time. A blocked
// request is interrupted by sending OpCancel with its ID; the client does
// this automatically when the caller's context is cancelled. Dropping the
// connection interrupts every in-flight request and closes the session.
//
// # Example - Server
//
//	f, _ := fifo.New(fifo.Config{Capacity: 4096})
//	srv, _ := fifonet.NewServer(fifonet.ServerConfig{FIFO: f})
//	ln, _ := net.Listen("tcp", ":7070")
//	log.Fatal(srv.Serve(ctx, ln))
//
// # Example - Client
//
//	c, err := fifonet.Dial(ctx, "ws://127.0.0.1:7070/fifo")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	c.Write(ctx, []byte("hello"), false)
//	data, err := c.Read(ctx, 1024, true)
//	if errors.Is(err, fifo.ErrWouldBlock) {
//	    // empty
//	}
package fifonet
