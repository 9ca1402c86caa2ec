package block

import (
	"io"
)

// ReaderFactory produces a fresh, from-the-start reader each time it is
// called. It lets a Block wrap a generated stream (e.g. a decompression
// pipeline) whose size is known ahead of time but which cannot be
// opened as a ReaderAt.
type ReaderFactory func() (io.Reader, error)

// readerSource serves a Block from a ReaderFactory of known total size.
// Opening a sub-range skips leading bytes by discarding them.
type readerSource struct {
	factory ReaderFactory
	total   uint64
}

// FromReaderFactory builds a Block of the given total size backed by
// factory. Each open calls factory again from the start.
func FromReaderFactory(factory ReaderFactory, size uint64) Block {
	return Block{src: &readerSource{factory: factory, total: size}, start: 0, end: size}
}

func (s *readerSource) size() uint64 { return s.total }

func (s *readerSource) openMem(start, end uint64) ([]byte, error) {
	r, err := s.openReader(start, end)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, end-start)
	for uint64(len(buf)) < end-start {
		chunk := make([]byte, end-start-uint64(len(buf)))
		n, err := r.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
	}
	return buf, nil
}

func (s *readerSource) openReader(start, end uint64) (io.Reader, error) {
	r, err := s.factory()
	if err != nil {
		return nil, err
	}
	if start > 0 {
		if _, err := io.CopyN(io.Discard, r, int64(start)); err != nil {
			return nil, err
		}
	}
	return io.LimitReader(r, int64(end-start)), nil
}
