package block

// LazyBlock is the opening-deferred counterpart to Block: it is not
// split-addressable, but composes transforms that run once the bytes
// are actually opened. scicore chains DCL decompression this
// way: a volume's compressed Block becomes a LazyBlock that, on Open,
// reads the compressed bytes and decompresses them.
type LazyBlock struct {
	open func() (MemBlock, error)
}

// NewLazyBlock wraps an open function directly.
func NewLazyBlock(open func() (MemBlock, error)) LazyBlock {
	return LazyBlock{open: open}
}

// Map composes a transform to run on the fully opened bytes, returning
// a new LazyBlock. The receiver's open function is not invoked until
// the returned LazyBlock itself is opened.
func (l LazyBlock) Map(f func(MemBlock) (MemBlock, error)) LazyBlock {
	prev := l.open
	return LazyBlock{open: func() (MemBlock, error) {
		m, err := prev()
		if err != nil {
			return MemBlock{}, err
		}
		return f(m)
	}}
}

// Open runs the accumulated chain of opens/transforms and returns the
// resulting bytes.
func (l LazyBlock) Open() (MemBlock, error) {
	return l.open()
}
