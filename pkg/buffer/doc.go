// Package buffer provides the storage primitives used by the fifo device.
//
// The package offers two types:
//
//   - Compact: a fixed-capacity byte region that keeps its valid bytes at
//     offset 0. Consuming bytes left-shifts the remainder instead of
//     advancing a circular index. Compact has no locking; callers serialize
//     access themselves.
//
//   - Queue: a thread-safe growable FIFO of values with blocking Next.
//     It is used as a per-listener mailbox so that producers never block
//     when handing off notifications.
//
// Example usage:
//
//	// A 4KB device store
//	c := buffer.CompactN(4096)
//	c.Append([]byte("hello"))
//
//	out := make([]byte, 5)
//	c.Consume(out)
//
//	// A mailbox drained by one goroutine
//	q := buffer.NewQueue[int](8)
//	q.Add(1)
//	v, err := q.Next()
package buffer
