// Package resourcestore implements the Resource Store: discovery,
// decoding, and patch-overlay of SCI 1.1 map+volume archives, exposing
// resources as lazily-openable Blocks. Fixed-width container records
// are parsed with binary.Read over bytes opened from a Block.
package resourcestore

import (
	"io"

	"github.com/opensierra/scicore/internal/block"
	"github.com/opensierra/scicore/internal/restype"
)

// Provenance records where a Resource's bytes came from.
type Provenance int

const (
	// FromVolume means the resource was read out of a map+volume pair.
	FromVolume Provenance = iota
	// FromPatch means the resource was read from a loose patch file.
	FromPatch
	// FromNew means the resource was constructed in memory, not read
	// from either archive form.
	FromNew
)

func (p Provenance) String() string {
	switch p {
	case FromVolume:
		return "Volume"
	case FromPatch:
		return "Patch"
	case FromNew:
		return "New"
	default:
		return "Unknown"
	}
}

// ExtraData preserves a patch file's variable-length header verbatim so
// a resource read from a patch can be written back byte-identically.
// Exactly one of Simple or Composite is populated.
type ExtraData struct {
	// Simple holds the h header bytes for the common case (h <= 127).
	// A zero-length, non-nil slice represents h == 0.
	Simple []byte
	// Composite holds the extended header form (h == 128): a 24-byte
	// extended header followed by 22+h' extra bytes, where h' is the
	// extended header's second byte. Neither field is interpreted
	// further than "preserve verbatim".
	Composite *CompositeExtraData
}

// CompositeExtraData is the h==128 extended patch header form.
type CompositeExtraData struct {
	ExtHeader  []byte // exactly 24 bytes
	ExtraBytes []byte // 22+h' bytes, h' = ExtHeader[1]
}

// IsSimple reports whether e holds the simple (h != 128) header form.
func (e *ExtraData) IsSimple() bool { return e != nil && e.Simple != nil }

// ResourceContents is the byte payload of a Resource plus where it came
// from and, for volume-sourced resources, its compression bookkeeping.
type ResourceContents struct {
	Provenance Provenance

	// Source is the resource's decoded (if compressed, decompressed)
	// bytes, opened lazily.
	Source block.LazyBlock

	// Compressed, CompressionType, and CompressedSource are only
	// meaningful when Provenance == FromVolume: they record whether
	// the volume stored this resource packed, the compression-type
	// code it used, and a handle onto the still-packed bytes.
	Compressed       bool
	CompressionType  uint16
	CompressedSource block.Block

	// Extra preserves a patch file's header bytes verbatim; nil unless
	// Provenance == FromPatch.
	Extra *ExtraData
}

// Resource is the universally exported unit of the store: an id paired
// with its contents.
type Resource struct {
	ID       restype.Id
	Contents ResourceContents
}

// Data opens the resource's (decompressed, if applicable) bytes.
func (r Resource) Data() (block.MemBlock, error) {
	return r.Contents.Source.Open()
}

// WritePatch serializes r in the on-disk patch-file format: a
// resource-type byte, a header-length byte (plus extended header for
// the Composite case), then the payload. A resource whose Extra is nil
// is written with an empty (h==0) header.
func (r Resource) WritePatch(w io.Writer) error {
	data, err := r.Data()
	if err != nil {
		return err
	}

	if _, err := w.Write([]byte{r.ID.Type.Byte()}); err != nil {
		return err
	}

	extra := r.Contents.Extra
	switch {
	case extra == nil || extra.IsSimple():
		header := []byte{}
		if extra != nil {
			header = extra.Simple
		}
		if _, err := w.Write([]byte{byte(len(header))}); err != nil {
			return err
		}
		if _, err := w.Write(header); err != nil {
			return err
		}
	default:
		if _, err := w.Write([]byte{128}); err != nil {
			return err
		}
		if _, err := w.Write(extra.Composite.ExtHeader); err != nil {
			return err
		}
		if _, err := w.Write(extra.Composite.ExtraBytes); err != nil {
			return err
		}
	}

	_, err = w.Write(data.Bytes())
	return err
}
