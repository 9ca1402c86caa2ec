package block

// MemBlock is a fully materialized, immutable run of bytes. Cloning a
// MemBlock is cheap: it shares the backing array with its parent.
type MemBlock struct {
	data []byte
}

// NewMemBlock wraps data as a MemBlock. data must not be mutated by the
// caller afterwards.
func NewMemBlock(data []byte) MemBlock { return MemBlock{data: data} }

// Bytes returns the block's contents. The returned slice must be
// treated as read-only.
func (m MemBlock) Bytes() []byte { return m.data }

// Len returns the number of bytes in the block.
func (m MemBlock) Len() int { return len(m.data) }

// Sub returns the sub-slice [start,end) as a MemBlock, sharing the
// backing array. Panics if the range escapes m.
func (m MemBlock) Sub(start, end int) MemBlock {
	if start < 0 || start > end || end > len(m.data) {
		panic("memblock: sub-range escapes parent")
	}
	return MemBlock{data: m.data[start:end]}
}
