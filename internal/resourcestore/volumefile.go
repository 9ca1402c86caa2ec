package resourcestore

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/opensierra/scicore/internal/block"
	"github.com/opensierra/scicore/internal/dcl"
	"github.com/opensierra/scicore/internal/restype"
	"github.com/opensierra/scicore/internal/scierr"
)

// Compression-type codes a volume resource header may carry. Any other
// code is a hard error on open.
const (
	compressionNone       = 0
	compressionDCLImplode = 1
)

// volumeHeaderWire is the fixed-width resource header preceding a
// resource's packed bytes inside a volume file.
type volumeHeaderWire struct {
	Type            uint8
	Num             uint16
	PackedSize      uint32
	UnpackedSize    uint32
	CompressionType uint16
}

const volumeHeaderSize = 1 + 2 + 4 + 4 + 2

// readVolumeResource reads the resource header and packed bytes at
// loc.FileOffset within the volume block vol, returning the resource's
// contents: the raw packed bytes plus a lazily decompressed view.
func readVolumeResource(vol block.Block, loc mapLocation) (ResourceContents, error) {
	scope := scierr.RootScope(vol.Size()).Push(uint64(loc.FileOffset), vol.Size(), fmt.Sprintf("volume resource %v", loc.ID))

	if uint64(loc.FileOffset)+volumeHeaderSize > vol.Size() {
		return ResourceContents{}, scope.NewInvalidDataError(uint64(loc.FileOffset), fmt.Errorf("resource header runs past end of volume"))
	}

	headerBlock, err := vol.Sub(uint64(loc.FileOffset), uint64(loc.FileOffset)+volumeHeaderSize).OpenMem()
	if err != nil {
		return ResourceContents{}, scope.NewInvalidDataError(uint64(loc.FileOffset), err)
	}

	var hdr volumeHeaderWire
	if err := binary.Read(bytes.NewReader(headerBlock.Bytes()), binary.LittleEndian, &hdr); err != nil {
		return ResourceContents{}, scope.NewInvalidDataError(uint64(loc.FileOffset), fmt.Errorf("reading resource header: %w", err))
	}

	t, err := restype.FromByte(hdr.Type)
	if err != nil {
		return ResourceContents{}, scope.NewInvalidDataError(uint64(loc.FileOffset), err)
	}
	if t != loc.ID.Type || hdr.Num != loc.ID.Num {
		return ResourceContents{}, scope.NewInvalidDataError(uint64(loc.FileOffset),
			fmt.Errorf("volume header id %v:%d does not match map entry %v", t, hdr.Num, loc.ID))
	}

	packedStart := uint64(loc.FileOffset) + volumeHeaderSize
	packedEnd := packedStart + uint64(hdr.PackedSize)
	if packedEnd > vol.Size() {
		return ResourceContents{}, scope.NewInvalidDataError(packedStart, fmt.Errorf("packed resource body runs past end of volume"))
	}
	packed := vol.Sub(packedStart, packedEnd)

	switch hdr.CompressionType {
	case compressionNone:
		if uint64(hdr.UnpackedSize) != uint64(hdr.PackedSize) {
			return ResourceContents{}, scope.NewInvalidDataError(packedStart,
				fmt.Errorf("uncompressed resource declares unpacked size %d, packed size %d", hdr.UnpackedSize, hdr.PackedSize))
		}
		return ResourceContents{
			Provenance: FromVolume,
			Source:     packed.ToLazy(),
		}, nil

	case compressionDCLImplode:
		unpackedSize := hdr.UnpackedSize
		lazy := packed.ToLazy().Map(func(m block.MemBlock) (block.MemBlock, error) {
			out, err := dcl.Decompress(m.Bytes())
			if err != nil {
				return block.MemBlock{}, err
			}
			if uint32(len(out)) != unpackedSize {
				return block.MemBlock{}, fmt.Errorf("DCL decompression produced %d bytes, header declared %d", len(out), unpackedSize)
			}
			return block.NewMemBlock(out), nil
		})
		return ResourceContents{
			Provenance:       FromVolume,
			Source:           lazy,
			Compressed:       true,
			CompressionType:  hdr.CompressionType,
			CompressedSource: packed,
		}, nil

	default:
		return ResourceContents{}, scope.NewInvalidDataError(packedStart, fmt.Errorf("unknown compression type code %d", hdr.CompressionType))
	}
}
