package fifo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// collect returns a listener that forwards events to a channel.
func collect() (Listener, <-chan Event) {
	ch := make(chan Event, 64)
	return func(ev Event) { ch <- ev }, ch
}

func expectEvent(t *testing.T, ch <-chan Event, want Event) {
	t.Helper()
	select {
	case ev := <-ch:
		if ev != want {
			t.Fatalf("event=%v, want %v", ev, want)
		}
	case <-time.After(time.Second):
		t.Fatalf("no %v event", want)
	}
}

func expectNoEvent(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotify_EdgeTriggered(t *testing.T) {
	ctx := context.Background()
	f := newFIFO(t, 4)
	s := f.Open()
	defer s.Close()

	fn, events := collect()
	if err := s.Subscribe(fn); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	f.Write(ctx, []byte{1}, false)
	expectEvent(t, events, EventReadable)

	f.Write(ctx, []byte{2}, false)
	expectNoEvent(t, events)

	// Filling up and draining one byte is a full to non-full edge.
	f.Write(ctx, []byte{3, 4}, false)
	f.Read(ctx, make([]byte, 1), false)
	expectEvent(t, events, EventWritable)

	// Not full any more, so draining further is silent.
	f.Read(ctx, make([]byte, 3), false)
	expectNoEvent(t, events)

	if got := f.Stats(); got.ReadableEvents != 1 || got.WritableEvents != 1 {
		t.Fatalf("stats events readable=%d writable=%d", got.ReadableEvents, got.WritableEvents)
	}
}

func TestNotify_Reset(t *testing.T) {
	ctx := context.Background()

	t.Run("not_full", func(t *testing.T) {
		f := newFIFO(t, 16)
		s := f.Open()
		f.Write(ctx, make([]byte, 10), false)

		fn, events := collect()
		s.Subscribe(fn)
		f.Reset()
		if f.Len() != 0 {
			t.Fatalf("len=%d", f.Len())
		}
		expectNoEvent(t, events)
	})

	t.Run("full", func(t *testing.T) {
		f := newFIFO(t, 10)
		s := f.Open()
		f.Write(ctx, make([]byte, 10), false)

		fn, events := collect()
		s.Subscribe(fn)
		if err := s.Control(CmdReset); err != nil {
			t.Fatalf("control: %v", err)
		}
		if f.Len() != 0 {
			t.Fatalf("len=%d", f.Len())
		}
		expectEvent(t, events, EventWritable)

		// Idempotent: a second reset on an empty FIFO is silent.
		s.Control(CmdReset)
		expectNoEvent(t, events)
	})

	t.Run("wakes_writer", func(t *testing.T) {
		f := newFIFO(t, 2)
		f.Write(ctx, []byte{1, 2}, false)
		done := make(chan error, 1)
		go func() {
			_, err := f.Write(ctx, []byte{3}, false)
			done <- err
		}()
		waitParked(t, f, 0, 1)
		f.Reset()
		select {
		case err := <-done:
			if err != nil {
				t.Fatal(err)
			}
		case <-time.After(time.Second):
			t.Fatal("reset did not wake writer")
		}
		if f.Len() != 1 {
			t.Fatalf("len=%d", f.Len())
		}
	})
}

func TestNotify_MultipleListeners(t *testing.T) {
	f := newFIFO(t, 4)

	var chans []<-chan Event
	for i := 0; i < 5; i++ {
		fn, ch := collect()
		if err := f.Open().Subscribe(fn); err != nil {
			t.Fatal(err)
		}
		chans = append(chans, ch)
	}

	f.Write(context.Background(), []byte{1}, false)
	for _, ch := range chans {
		expectEvent(t, ch, EventReadable)
	}
}

func TestNotify_SubscribeIdempotent(t *testing.T) {
	f := newFIFO(t, 4)
	s := f.Open()

	fn1, ch1 := collect()
	fn2, ch2 := collect()
	s.Subscribe(fn1)
	s.Subscribe(fn2)
	if got := f.Stats().Listeners; got != 1 {
		t.Fatalf("listeners=%d", got)
	}

	f.Write(context.Background(), []byte{1}, false)
	expectEvent(t, ch1, EventReadable)
	expectNoEvent(t, ch2)

	if err := s.Subscribe(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("nil listener: %v", err)
	}
}

func TestNotify_UnsubscribeFromListener(t *testing.T) {
	ctx := context.Background()
	f := newFIFO(t, 1)
	s := f.Open()

	var mu sync.Mutex
	calls := 0
	delivered := make(chan struct{}, 4)
	s.Subscribe(func(ev Event) {
		mu.Lock()
		calls++
		mu.Unlock()
		// Re-entering the FIFO from a listener must not deadlock.
		f.Poll(All)
		s.Unsubscribe()
		delivered <- struct{}{}
	})

	f.Write(ctx, []byte{1}, false)
	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("no delivery")
	}

	f.Read(ctx, make([]byte, 1), false)
	f.Write(ctx, []byte{1}, false)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("calls=%d, want 1", calls)
	}
	if got := f.Stats().Listeners; got != 0 {
		t.Fatalf("listeners=%d", got)
	}
}

func TestNotify_ListenerCallsBack(t *testing.T) {
	ctx := context.Background()
	f := newFIFO(t, 8)
	s := f.Open()

	drained := make(chan []byte, 1)
	s.Subscribe(func(ev Event) {
		if ev != EventReadable {
			return
		}
		buf := make([]byte, 8)
		n, err := f.Read(ctx, buf, true)
		if err != nil {
			return
		}
		drained <- buf[:n]
	})

	f.Write(ctx, []byte("ping"), false)
	select {
	case got := <-drained:
		if string(got) != "ping" {
			t.Fatalf("got=%q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("listener did not drain")
	}
}

func TestNotify_CloseDeregisters(t *testing.T) {
	f, _ := New(Config{Capacity: 4})
	s := f.Open()
	fn, events := collect()
	s.Subscribe(fn)

	f.Close()
	if got := f.Stats().Listeners; got != 0 {
		t.Fatalf("listeners=%d", got)
	}
	expectNoEvent(t, events)

	if err := f.Open().Subscribe(fn); !errors.Is(err, ErrClosed) {
		t.Fatalf("subscribe after close: %v", err)
	}
}
