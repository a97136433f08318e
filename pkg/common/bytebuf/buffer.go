// Copyright 2022 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bytebuf accumulates serialized output whose final size is not
// known up front. Bytes are written into a chain of chunks allocated on
// demand; previously written bytes are never moved until an explicit
// Linearize. That stability is what makes deferred-write placeholders safe.
//
// A Buffer is owned by a single goroutine; it does no internal locking.
package bytebuf

import (
	"math"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/exp/constraints"

	"github.com/matrixorigin/bytestream/pkg/common/fragment"
	"github.com/matrixorigin/bytestream/pkg/common/moerr"
	"github.com/matrixorigin/bytestream/pkg/logutil"
)

const (
	// ChunkSize is the standard allocation unit, header included.
	ChunkSize = 512
	// chunkOverhead models the per-chunk header of the underlying
	// allocation (next link plus offset bookkeeping).
	chunkOverhead   = 16
	usableChunkSize = ChunkSize - chunkOverhead

	// Single requests at or above this size get a dedicated chunk anyway;
	// the warning exists to surface callers that defeat the chunking.
	largeAllocThreshold = 1 << 20
)

// chunk is one fixed-capacity block of the chain. len(data) is the number
// of bytes written so far; once next is set the chunk is closed and its
// length never changes again.
type chunk struct {
	next *chunk
	data []byte
}

func (c *chunk) spaceLeft() int {
	return cap(c.data) - len(c.data)
}

// Buffer owns the head of a singly-linked chunk chain and tracks the tail
// for O(1) append. The zero value is an empty buffer ready for use.
type Buffer struct {
	head *chunk
	tail *chunk
	size int
}

func New() *Buffer {
	return new(Buffer)
}

// alloc makes room for a contiguous region of n bytes and accounts for it
// as already written. A request larger than the standard usable chunk size
// gets a chunk sized exactly for it, so a single alloc is never split.
func (b *Buffer) alloc(n int) []byte {
	if n <= 0 {
		panic(moerr.NewInternalErrorNoCtx("bytebuf alloc with non-positive size %d", n))
	}
	if c := b.tail; c != nil && n <= c.spaceLeft() {
		off := len(c.data)
		c.data = c.data[:off+n]
		b.size += n
		return c.data[off : off+n : off+n]
	}
	capacity := usableChunkSize
	if n > capacity {
		capacity = n
		if n >= largeAllocThreshold {
			logutil.Warn("bytebuf: oversized chunk",
				zap.Int("size", n),
				zap.Int("buffer size", b.size))
		}
	}
	c := &chunk{data: make([]byte, n, capacity)}
	if b.tail != nil {
		b.tail.next = c
	} else {
		b.head = c
	}
	b.tail = c
	b.size += n
	return c.data
}

// Write appends v in big-endian byte order.
func Write[T constraints.Integer](b *Buffer, v T) {
	putUint(b.alloc(int(unsafe.Sizeof(v))), v)
}

// PlaceHolder is space reserved by WritePlaceHolder for a value filled in
// later. It aliases the buffer's own storage: Linearize invalidates every
// outstanding placeholder, and Set through a stale one is a caller contract
// violation that is not detected at runtime.
type PlaceHolder[T constraints.Integer] struct {
	dst []byte
}

// WritePlaceHolder reserves space for a value of type T to be written later
// via Set.
func WritePlaceHolder[T constraints.Integer](b *Buffer) PlaceHolder[T] {
	var v T
	return PlaceHolder[T]{dst: b.alloc(int(unsafe.Sizeof(v)))}
}

// Set writes v into the reserved space in big-endian byte order.
func (ph PlaceHolder[T]) Set(v T) {
	putUint(ph.dst, v)
}

func putUint[T constraints.Integer](dst []byte, v T) {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
}

// WriteBytes appends p. Unlike a single alloc, the copy may be split
// between the tail chunk's remaining space and a fresh chunk.
func (b *Buffer) WriteBytes(p []byte) {
	if len(p) == 0 {
		return
	}
	var spaceLeft int
	if b.tail != nil {
		spaceLeft = b.tail.spaceLeft()
	}
	if len(p) <= spaceLeft {
		copy(b.alloc(len(p)), p)
		return
	}
	if spaceLeft > 0 {
		copy(b.alloc(spaceLeft), p[:spaceLeft])
		p = p[spaceLeft:]
	}
	copy(b.alloc(len(p)), p)
}

// WriteString appends s without an intermediate []byte conversion.
func (b *Buffer) WriteString(s string) {
	if len(s) == 0 {
		return
	}
	var spaceLeft int
	if b.tail != nil {
		spaceLeft = b.tail.spaceLeft()
	}
	if len(s) <= spaceLeft {
		copy(b.alloc(len(s)), s)
		return
	}
	if spaceLeft > 0 {
		copy(b.alloc(spaceLeft), s[:spaceLeft])
		s = s[spaceLeft:]
	}
	copy(b.alloc(len(s)), s)
}

// WriteBlob appends a big-endian uint32 length prefix followed by p.
func (b *Buffer) WriteBlob(p []byte) {
	if uint64(len(p)) > math.MaxUint32 {
		panic(moerr.NewInternalErrorNoCtx("blob length %d exceeds length prefix width", len(p)))
	}
	Write(b, uint32(len(p)))
	b.WriteBytes(p)
}

// Size returns the number of bytes written so far.
func (b *Buffer) Size() int {
	return b.size
}

func (b *Buffer) Empty() bool {
	return b.size == 0
}

// IsLinearized returns true if the chain has at most one chunk.
func (b *Buffer) IsLinearized() bool {
	return b.head == nil || b.head.next == nil
}

// View returns a zero-copy view of the contents. Call only when
// IsLinearized; the view is valid until the next Linearize or Reset.
func (b *Buffer) View() []byte {
	if !b.IsLinearized() {
		panic(moerr.NewInvalidStateNoCtx("view of a non-linearized buffer"))
	}
	if b.tail == nil {
		return nil
	}
	return b.tail.data
}

// Linearize makes the underlying storage contiguous and returns a view of
// it. Invalidates all previously created placeholders. Idempotent.
func (b *Buffer) Linearize() []byte {
	if b.IsLinearized() {
		return b.View()
	}
	c := &chunk{data: make([]byte, 0, b.size)}
	for r := b.head; r != nil; r = r.next {
		c.data = append(c.data, r.data...)
	}
	b.head = c
	b.tail = c
	return c.data
}

// Append deep-copies o's contents onto the end of b. o is not mutated.
func (b *Buffer) Append(o *Buffer) {
	if o.size == 0 {
		return
	}
	dst := b.alloc(o.size)
	for r := o.head; r != nil; r = r.next {
		n := copy(dst, r.data)
		dst = dst[n:]
	}
}

// Clone returns an independent deep copy of b.
func (b *Buffer) Clone() *Buffer {
	nb := New()
	nb.Append(b)
	return nb
}

// Reset drops the chunk chain, leaving an empty buffer.
func (b *Buffer) Reset() {
	b.head = nil
	b.tail = nil
	b.size = 0
}

type chunkIter struct {
	c *chunk
}

func (it *chunkIter) Next() ([]byte, bool) {
	if it.c == nil {
		return nil, false
	}
	p := it.c.data
	it.c = it.c.next
	return p, true
}

// Fragments exposes the buffer's storage as a fragment sequence, one
// fragment per chunk's used region, without linearizing. The fragments are
// views; they are valid until the next Linearize or Reset.
func (b *Buffer) Fragments() fragment.Iter {
	return &chunkIter{c: b.head}
}
