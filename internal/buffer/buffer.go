// Package buffer implements a growable byte container with independent read
// and write cursors, used by the Hessian codec to build and consume wire
// payloads without repeated reallocation.
package buffer

import (
	"errors"
	"io"
)

// EOF is returned by ReadByte when the unread region is empty.
const EOF = -1

// Buffer is a growable byte sequence with a write cursor (wpos) and a read
// cursor (rpos). Invariant: 0 <= rpos <= wpos <= len(data). It is not safe
// for concurrent use.
type Buffer struct {
	data []byte
	wpos int
	rpos int
}

// New creates a Buffer with the given initial capacity.
func New(initialCapacity int) *Buffer {
	if initialCapacity < 0 {
		initialCapacity = 0
	}
	return &Buffer{data: make([]byte, initialCapacity)}
}

// NewFromBytes creates a Buffer whose unread region is a copy of src.
func NewFromBytes(src []byte) *Buffer {
	b := New(len(src))
	b.AppendBytes(src)
	return b
}

// Len returns the number of unread bytes (wpos - rpos).
func (b *Buffer) Len() int {
	return b.wpos - b.rpos
}

// Cap returns the total backing capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// grow ensures at least `needed` additional bytes can be appended past wpos
// without reallocating again immediately. Growth never shrinks and targets
// amortized O(1) append: new capacity >= max(needed, old + old/2 + 1).
func (b *Buffer) grow(needed int) {
	if b.wpos+needed <= len(b.data) {
		return
	}
	want := b.wpos + needed
	grown := len(b.data) + len(b.data)/2 + 1
	if grown > want {
		want = grown
	}
	next := make([]byte, want)
	copy(next, b.data[:b.wpos])
	b.data = next
}

// AppendByte appends a single byte, growing the buffer if needed.
func (b *Buffer) AppendByte(v byte) {
	b.grow(1)
	b.data[b.wpos] = v
	b.wpos++
}

// AppendBytes appends all of src, growing the buffer if needed.
func (b *Buffer) AppendBytes(src []byte) {
	n := len(src)
	b.grow(n)
	copy(b.data[b.wpos:], src[:n])
	b.wpos += n
}

// ConsumeByte returns the next unread byte and advances rpos, or EOF if the
// unread region is empty.
func (b *Buffer) ConsumeByte() int {
	if b.rpos >= b.wpos {
		return EOF
	}
	v := b.data[b.rpos]
	b.rpos++
	return int(v)
}

// ConsumeBytes copies up to len(dst) unread bytes into dst and returns the
// number actually copied, which may be less than len(dst) on under-run.
func (b *Buffer) ConsumeBytes(dst []byte) int {
	n := copy(dst, b.data[b.rpos:b.wpos])
	b.rpos += n
	return n
}

// Skip advances rpos by n, clamped to wpos. It is used by callers that have
// already copied out the unread region via Bytes and only need the cursor
// to catch up.
func (b *Buffer) Skip(n int) {
	b.rpos += n
	if b.rpos > b.wpos {
		b.rpos = b.wpos
	}
}

// Peek returns the next unread byte without advancing rpos, or EOF.
func (b *Buffer) Peek() int {
	if b.rpos >= b.wpos {
		return EOF
	}
	return int(b.data[b.rpos])
}

// PushBack makes v the next byte to be consumed. If rpos == 0 the unread
// region is shifted right by one (growing the backing array if needed) to
// make room; otherwise the byte is written one position behind rpos.
func (b *Buffer) PushBack(v byte) {
	if b.rpos == 0 {
		b.grow(1)
		copy(b.data[1:b.wpos+1], b.data[:b.wpos])
		b.data[0] = v
		b.wpos++
		return
	}
	b.rpos--
	b.data[b.rpos] = v
}

// Rewind resets the read cursor to the start of the buffer without touching
// written data, so the full contents can be re-consumed.
func (b *Buffer) Rewind() {
	b.rpos = 0
}

// Reset resets both cursors to zero, logically emptying the buffer while
// keeping the backing array for reuse.
func (b *Buffer) Reset() {
	b.rpos = 0
	b.wpos = 0
}

// Bytes returns the unread region. The returned slice aliases the Buffer's
// backing array and is only valid until the next mutating call.
func (b *Buffer) Bytes() []byte {
	return b.data[b.rpos:b.wpos]
}

// WriteTo writes the unread region into dst, matching io.WriterTo, and
// advances rpos past everything written.
func (b *Buffer) WriteTo(dst io.Writer) (int64, error) {
	n, err := dst.Write(b.Bytes())
	b.rpos += n
	return int64(n), err
}

// ReadFrom appends from src until EOF, matching io.ReaderFrom.
func (b *Buffer) ReadFrom(src io.Reader) (int64, error) {
	var total int64
	chunk := make([]byte, 4096)
	for {
		n, err := src.Read(chunk)
		if n > 0 {
			b.AppendBytes(chunk[:n])
			total += int64(n)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			return total, err
		}
	}
}
