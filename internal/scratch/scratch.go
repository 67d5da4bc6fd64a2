// Package scratch provides the grow-only staging buffer used while
// converting texture mips into native texel formats.
package scratch

import (
	"context"
	"log/slog"
)

// Buffer is a reusable byte buffer that only ever grows.
//
// Growing discards the previous contents. Buffer is not safe for concurrent
// use; it belongs to the render thread that owns the device.
type Buffer struct {
	buf    []byte
	grows  int
	logger func() *slog.Logger
}

// New creates a buffer with the given initial capacity. A zero size defers
// allocation to the first EnsureCapacity. The logger function is consulted on growth; nil disables logging.
func New(size int, logger func() *slog.Logger) *Buffer {
	if size < 0 {
		size = 0
	}
	b := &Buffer{logger: logger}
	if size > 0 {
		b.buf = make([]byte, size)
	}
	return b
}

// EnsureCapacity returns a slice of exactly n bytes backed by the buffer.
//
// If the current capacity is below n, the old storage is dropped and a new
// buffer of exactly n bytes is allocated. The buffer never shrinks, so a
// smaller request reuses the larger storage.
func (b *Buffer) EnsureCapacity(n int) []byte {
	if n <= len(b.buf) {
		return b.buf[:n]
	}

	old := len(b.buf)
	b.buf = make([]byte, n)
	b.grows++

	if b.logger != nil {
		if l := b.logger(); l.Enabled(context.Background(), slog.LevelDebug) {
			l.Debug("scratch size increased", "from", old, "to", n)
		}
	}
	return b.buf
}

// Bytes returns the whole backing storage.
func (b *Buffer) Bytes() []byte { return b.buf }

// Cap returns the current capacity in bytes.
func (b *Buffer) Cap() int { return len(b.buf) }

// Grows returns how many times the buffer has been reallocated.
func (b *Buffer) Grows() int { return b.grows }

// Release frees the backing storage. The buffer may be reused afterwards;
// the next EnsureCapacity allocates again.
func (b *Buffer) Release() {
	b.buf = nil
}
