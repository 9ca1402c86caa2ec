package block

import (
	"io"

	"golang.org/x/exp/mmap"
)

// fileSource serves a Block's bytes from a memory-mapped file rather
// than repeated seek+read. A mapped file supports concurrent
// sub-range reads without any internal mutex, unlike a shared *os.File
// position.
type fileSource struct {
	ra   *mmap.ReaderAt
	path string
}

// OpenFile memory-maps path and returns a Block covering its entire
// contents. The returned Block (and any sub-blocks derived from it)
// remain valid until Close is called; Close should be deferred by
// whatever owns the Block's lifetime. A ResourceSet does not call Close
// on its volume and patch files, because the resources it hands out
// read from them lazily.
func OpenFile(path string) (Block, io.Closer, error) {
	ra, err := mmap.Open(path)
	if err != nil {
		return Block{}, nil, err
	}
	src := &fileSource{ra: ra, path: path}
	return Block{src: src, start: 0, end: uint64(ra.Len())}, ra, nil
}

func (s *fileSource) size() uint64 { return uint64(s.ra.Len()) }

func (s *fileSource) openMem(start, end uint64) ([]byte, error) {
	buf := make([]byte, end-start)
	if _, err := s.ra.ReadAt(buf, int64(start)); err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}

func (s *fileSource) openReader(start, end uint64) (io.Reader, error) {
	return io.NewSectionReader(s.ra, int64(start), int64(end-start)), nil
}
