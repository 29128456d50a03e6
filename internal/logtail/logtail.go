package logtail

import (
	"sync"
	"time"
)

// DefaultCapacity is used when a Buffer is created with a non-positive size.
const DefaultCapacity = 500

// Line is one entry of the on-screen event log.
type Line struct {
	Text  string
	Class string
	At    time.Time
}

// Buffer keeps the most recent lines, dropping the oldest when full. The zero
// value holds DefaultCapacity lines.
type Buffer struct {
	mu    sync.Mutex
	ring  []Line
	idx   int
	count int
	total uint64
}

// New returns a Buffer holding at most capacity lines.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{ring: make([]Line, capacity)}
}

// Append adds a line, evicting the oldest one when the buffer is full.
func (b *Buffer) Append(line Line) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ring == nil {
		b.ring = make([]Line, DefaultCapacity)
	}
	b.ring[b.idx] = line
	b.idx = (b.idx + 1) % len(b.ring)
	if b.count < len(b.ring) {
		b.count++
	}
	b.total++
}

// Lines returns a copy of the buffered lines, oldest first.
func (b *Buffer) Lines() []Line {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == 0 {
		return nil
	}
	lines := make([]Line, b.count)
	if b.count == len(b.ring) {
		for i := 0; i < b.count; i++ {
			lines[i] = b.ring[(b.idx+i)%len(b.ring)]
		}
	} else {
		copy(lines, b.ring[:b.count])
	}
	return lines
}

// Len returns the number of buffered lines.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Total returns how many lines were ever appended, including evicted ones.
func (b *Buffer) Total() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}
