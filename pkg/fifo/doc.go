// Package fifo implements a bounded byte-stream exchange point shared by
// independent producers and consumers.
//
// A FIFO holds at most Cap() bytes. Writers append, readers consume from the
// head, and both sides may either block until progress is possible or ask
// for ErrWouldBlock instead. Short reads and writes are normal: a read
// returns whatever is held up to len(p), and a write stores as much as fits.
//
// Readiness can be observed three ways:
//
//   - Poll returns the currently satisfied subset of an interest mask
//     without blocking.
//   - Wait blocks until at least one interested direction is ready.
//   - Subscribe registers a listener that is pushed EventReadable on every
//     empty to non-empty transition and EventWritable on every full to
//     non-full transition. Events are edge-triggered: a second write into a
//     non-empty FIFO emits nothing.
//
// Callers normally hold a Session, the analogue of an open file handle,
// obtained from FIFO.Open:
//
//	f, _ := fifo.New(fifo.Config{Capacity: 4096})
//	s := f.Open()
//	defer s.Close()
//
//	s.Subscribe(func(ev fifo.Event) { log.Println(ev) })
//	s.Write(ctx, []byte("hello"))
//
//	s.SetNonblock(true)
//	n, err := s.Read(ctx, buf)
//	if errors.Is(err, fifo.ErrWouldBlock) {
//	    // nothing buffered yet
//	}
//
// Blocking operations are interrupted by cancelling their context; the
// returned error matches both ErrInterrupted and the context's cause.
package fifo
