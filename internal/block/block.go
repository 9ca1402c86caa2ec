// Package block implements the byte-sequence substrate used throughout
// scicore: an immutable, cheaply-cloneable, range-addressable handle
// onto bytes that may live in memory, in a file, or be derived from
// another block. It follows the shape of an `io.ReaderAt`
// wrapped with lazy, O(1) sub-ranging via `io.NewSectionReader`,
// generalized to also cover in-memory and generated sources.
package block

import (
	"fmt"
	"io"
)

// source is the pluggable backend a Block delegates to. Every method
// takes byte offsets relative to the *source*, not the Block — Block
// itself carries the [start,end) window into the source.
type source interface {
	// size returns the total size of the underlying source, in bytes.
	size() uint64
	// openMem materializes [start,end) into memory.
	openMem(start, end uint64) ([]byte, error)
	// openReader returns a streaming, position-ordered reader over
	// [start,end).
	openReader(start, end uint64) (io.Reader, error)
}

// Block is the core byte-sequence abstraction. Every Block
// exposes the same bytes on every open; sub-ranging is always O(1) and
// never performs I/O.
type Block struct {
	src        source
	start, end uint64
}

// Size returns the block's length in bytes. Always known, never
// requires I/O.
func (b Block) Size() uint64 { return b.end - b.start }

// OpenMem materializes the block's full contents into memory.
func (b Block) OpenMem() (MemBlock, error) {
	data, err := b.src.openMem(b.start, b.end)
	if err != nil {
		return MemBlock{}, fmt.Errorf("opening block [%d..%d]: %w", b.start, b.end, err)
	}
	return MemBlock{data: data}, nil
}

// OpenReader returns a streaming, non-seekable reader over the block's
// full range.
func (b Block) OpenReader() (io.Reader, error) {
	r, err := b.src.openReader(b.start, b.end)
	if err != nil {
		return nil, fmt.Errorf("opening block reader [%d..%d]: %w", b.start, b.end, err)
	}
	return r, nil
}

// Sub returns the lazy sub-block covering [start,end) relative to b,
// without performing any I/O. It panics if the requested range escapes
// b's own range; an out-of-range request is a programmer error, not a
// recoverable condition.
func (b Block) Sub(start, end uint64) Block {
	if start > end || end > b.Size() {
		panic(fmt.Sprintf("block: sub-range [%d..%d) escapes parent range of size %d", start, end, b.Size()))
	}
	return Block{src: b.src, start: b.start + start, end: b.start + end}
}

// SubFrom returns the sub-block covering [start, b.Size()).
func (b Block) SubFrom(start uint64) Block { return b.Sub(start, b.Size()) }

// ToLazy wraps b as a LazyBlock, deferring the open until LazyBlock.Open
// is called.
func (b Block) ToLazy() LazyBlock {
	return LazyBlock{open: b.OpenMem}
}

// FromMemBlock wraps already-materialized bytes as a Block.
func FromMemBlock(m MemBlock) Block {
	return Block{src: &memSource{data: m.data}, start: 0, end: uint64(len(m.data))}
}

// FromBytes wraps a byte slice as a Block. The slice must not be
// mutated after this call; Block contents are assumed stable.
func FromBytes(data []byte) Block {
	return FromMemBlock(MemBlock{data: data})
}
