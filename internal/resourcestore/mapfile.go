package resourcestore

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/opensierra/scicore/internal/block"
	"github.com/opensierra/scicore/internal/restype"
	"github.com/opensierra/scicore/internal/scierr"
)

// mapEntryWire is one fixed-width entry of a main (non-audio36) map
// file: an id, the archive (volume) number it lives in, and
// the byte offset into that archive's volume file.
type mapEntryWire struct {
	Type       uint8
	Num        uint16
	ArchiveNum uint8
	FileOffset uint32
}

const mapEntrySize = 1 + 2 + 1 + 4

// mapEntrySentinel marks the end of the entry stream: an all-0xFF row
// of the same width as a real entry.
var mapEntrySentinel = bytes.Repeat([]byte{0xFF}, mapEntrySize)

// mapLocation is one resolved map entry: where to find a resource's
// packed bytes in its volume file.
type mapLocation struct {
	ID         restype.Id
	ArchiveNum uint8
	FileOffset uint32
}

// parseMapFile reads every entry out of a main map file's bytes, in
// file order, stopping at the sentinel row. Entries are consumed in
// order; within a single file offsets need not be monotonic.
func parseMapFile(data block.MemBlock) ([]mapLocation, error) {
	scope := scierr.RootScope(uint64(data.Len())).Push(0, uint64(data.Len()), "map file")
	buf := data.Bytes()

	var locations []mapLocation
	for off := 0; ; off += mapEntrySize {
		if off+mapEntrySize > len(buf) {
			return nil, scope.NewInvalidDataError(uint64(off), fmt.Errorf("map file ended without a sentinel entry"))
		}
		row := buf[off : off+mapEntrySize]
		if bytes.Equal(row, mapEntrySentinel) {
			return locations, nil
		}

		var entry mapEntryWire
		if err := binary.Read(bytes.NewReader(row), binary.LittleEndian, &entry); err != nil {
			return nil, scope.NewInvalidDataError(uint64(off), fmt.Errorf("reading map entry: %w", err))
		}
		t, err := restype.FromByte(entry.Type)
		if err != nil {
			return nil, scope.NewInvalidDataError(uint64(off), err)
		}
		locations = append(locations, mapLocation{
			ID:         restype.New(t, entry.Num),
			ArchiveNum: entry.ArchiveNum,
			FileOffset: entry.FileOffset,
		})
	}
}

// audio36EntryWire is one fixed-width row of an audio36 map: a
// 4-byte message id, a 4-byte volume offset, and a 2-byte sync-data
// size. 10 bytes total, matching the 10-byte terminator row.
type audio36EntryWire struct {
	Noun      uint8
	Verb      uint8
	Condition uint8
	Sequence  uint8
	Offset    uint32
	SyncSize  uint16
}

const audio36EntrySize = 1 + 1 + 1 + 1 + 4 + 2

// audio36Terminator is the canonical 10-byte, all-0xFF terminator row
// ending an audio36 map's entry list.
var audio36Terminator = bytes.Repeat([]byte{0xFF}, audio36EntrySize)

// audio36Location resolves one audio36 map row to its message id and
// volume position.
type audio36Location struct {
	Noun, Verb, Condition, Sequence uint8
	Offset                          uint32
	SyncSize                        uint16
}

// parseAudio36MapFile reads an audio36-dialect map, stopping
// at the row whose noun byte is 0xFF.
func parseAudio36MapFile(data block.MemBlock) ([]audio36Location, error) {
	scope := scierr.RootScope(uint64(data.Len())).Push(0, uint64(data.Len()), "audio36 map file")
	buf := data.Bytes()

	var locations []audio36Location
	for off := 0; ; off += audio36EntrySize {
		if off+audio36EntrySize > len(buf) {
			return nil, scope.NewInvalidDataError(uint64(off), fmt.Errorf("audio36 map file ended without a terminator"))
		}
		row := buf[off : off+audio36EntrySize]
		if row[0] == 0xFF {
			return locations, nil
		}

		var entry audio36EntryWire
		if err := binary.Read(bytes.NewReader(row), binary.LittleEndian, &entry); err != nil {
			return nil, scope.NewInvalidDataError(uint64(off), fmt.Errorf("reading audio36 map entry: %w", err))
		}
		locations = append(locations, audio36Location{
			Noun: entry.Noun, Verb: entry.Verb, Condition: entry.Condition, Sequence: entry.Sequence,
			Offset: entry.Offset, SyncSize: entry.SyncSize,
		})
	}
}
