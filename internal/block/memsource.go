package block

import (
	"bytes"
	"io"
)

// memSource serves a Block's bytes out of an in-memory buffer.
type memSource struct {
	data []byte
}

func (s *memSource) size() uint64 { return uint64(len(s.data)) }

func (s *memSource) openMem(start, end uint64) ([]byte, error) {
	return s.data[start:end], nil
}

func (s *memSource) openReader(start, end uint64) (io.Reader, error) {
	return bytes.NewReader(s.data[start:end]), nil
}
