package fifo

import "strings"

// Mask is a set of readiness directions.
type Mask uint8

const (
	// Readable is set when a read would return at least one byte.
	Readable Mask = 1 << iota
	// Writable is set when a write would store at least one byte.
	Writable

	// All is the union of every direction.
	All = Readable | Writable
)

func (m Mask) String() string {
	var parts []string
	if m&Readable != 0 {
		parts = append(parts, "readable")
	}
	if m&Writable != 0 {
		parts = append(parts, "writable")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Event is an edge-triggered readiness notification.
type Event uint8

const (
	// EventReadable fires when the FIFO goes from empty to non-empty.
	EventReadable Event = iota + 1
	// EventWritable fires when the FIFO goes from full to non-full.
	EventWritable
)

func (e Event) String() string {
	switch e {
	case EventReadable:
		return "READABLE"
	case EventWritable:
		return "WRITABLE"
	default:
		return "UNKNOWN"
	}
}

// Mask returns the direction that became ready.
func (e Event) Mask() Mask {
	switch e {
	case EventReadable:
		return Readable
	case EventWritable:
		return Writable
	default:
		return 0
	}
}

// readiness evaluates which directions would currently make progress.
func readiness(occupied, capacity int) Mask {
	var m Mask
	if occupied > 0 {
		m |= Readable
	}
	if occupied < capacity {
		m |= Writable
	}
	return m
}
