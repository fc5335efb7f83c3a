package buffer

import (
	"bytes"
	"testing"
)

func TestCompact(t *testing.T) {
	t.Run("append_consume", func(t *testing.T) {
		c := CompactN(8)
		c.Append([]byte{1, 2, 3, 4, 5})
		if c.Len() != 5 {
			t.Fatalf("len=%d", c.Len())
		}
		if c.Free() != 3 {
			t.Fatalf("free=%d", c.Free())
		}

		got := make([]byte, 2)
		c.Consume(got)
		if !bytes.Equal(got, []byte{1, 2}) {
			t.Fatalf("got=%v", got)
		}
		if !bytes.Equal(c.Bytes(), []byte{3, 4, 5}) {
			t.Fatalf("remaining=%v", c.Bytes())
		}
	})

	t.Run("shift_keeps_order", func(t *testing.T) {
		c := CompactN(4)
		c.Append([]byte{1, 2, 3, 4})
		if !c.Full() {
			t.Fatal("expected full")
		}
		one := make([]byte, 1)
		c.Consume(one)
		c.Append([]byte{5})
		all := make([]byte, 4)
		c.Consume(all)
		if !bytes.Equal(all, []byte{2, 3, 4, 5}) {
			t.Fatalf("got=%v", all)
		}
		if !c.Empty() {
			t.Fatalf("len=%d", c.Len())
		}
	})

	t.Run("clear", func(t *testing.T) {
		c := CompactN(4)
		c.Append([]byte{1, 2})
		c.Clear()
		if c.Len() != 0 || c.Free() != 4 {
			t.Fatalf("len=%d free=%d", c.Len(), c.Free())
		}
		c.Clear()
		if c.Len() != 0 {
			t.Fatalf("len=%d", c.Len())
		}
	})

	t.Run("zero_length", func(t *testing.T) {
		c := CompactN(2)
		c.Append(nil)
		c.Consume(nil)
		if c.Len() != 0 {
			t.Fatalf("len=%d", c.Len())
		}
	})
}

func TestCompactPreconditions(t *testing.T) {
	mustPanic := func(t *testing.T, name string, fn func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected panic", name)
			}
		}()
		fn()
	}

	mustPanic(t, "overflow", func() {
		c := CompactN(2)
		c.Append([]byte{1, 2, 3})
	})
	mustPanic(t, "underflow", func() {
		c := CompactN(2)
		c.Append([]byte{1})
		c.Consume(make([]byte, 2))
	})
	mustPanic(t, "zero capacity", func() {
		CompactN(0)
	})
	mustPanic(t, "empty storage", func() {
		NewCompact(nil)
	})
}
