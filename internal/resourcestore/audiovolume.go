package resourcestore

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/opensierra/scicore/internal/block"
	"github.com/opensierra/scicore/internal/scierr"
)

// AudioFormat identifies one of the tagged audio volume container
// formats. WAV volumes carry no tag or index and are read as a single
// raw stream.
type AudioFormat int

const (
	AudioMP3 AudioFormat = iota
	AudioFLAC
	AudioOGG
	AudioWAV
)

var audioTags = map[string]AudioFormat{
	"MP3 ": AudioMP3,
	"FLAC": AudioFLAC,
	"OGG ": AudioOGG,
}

// audioEntryWire is one tagged-format index record: the logical offset
// callers address entries by, and the byte offset of this entry's data
// relative to the start of the payload region (i.e. right after the
// index).
type audioEntryWire struct {
	LogicalOffset uint32
	DataOffset    uint32
}

const audioEntrySize = 4 + 4

// AudioEntry is one resolved entry of a tagged audio volume.
type AudioEntry struct {
	LogicalOffset uint32
	DataOffset    uint32
}

// AudioVolume is a parsed MP3/FLAC/OGG/WAV resource volume, built on the
// same Block substrate as the main map/volume reader. A volume whose
// first four bytes are not a known tag is not an error: it is read as a
// raw WAV volume.
type AudioVolume struct {
	Format  AudioFormat
	entries []AudioEntry
	data    block.Block // the volume's payload region, after any header/index
}

// OpenAudioVolume detects the container format from b's leading bytes
// and parses its index, if any.
func OpenAudioVolume(b block.Block) (*AudioVolume, error) {
	scope := scierr.RootScope(b.Size()).Push(0, b.Size(), "audio volume")

	if b.Size() < 4 {
		return &AudioVolume{Format: AudioWAV, data: b}, nil
	}
	tagBlock, err := b.Sub(0, 4).OpenMem()
	if err != nil {
		return nil, scope.NewInvalidDataError(0, err)
	}
	tag := string(tagBlock.Bytes())

	format, ok := audioTags[tag]
	if !ok {
		// No recognized tag: treat as a raw WAV concatenation.
		return &AudioVolume{Format: AudioWAV, data: b}, nil
	}

	if b.Size() < 8 {
		return nil, scope.NewInvalidDataError(4, fmt.Errorf("tagged audio volume too short for entry count"))
	}
	countBlock, err := b.Sub(4, 8).OpenMem()
	if err != nil {
		return nil, scope.NewInvalidDataError(4, err)
	}
	count := binary.LittleEndian.Uint32(countBlock.Bytes())

	indexStart := uint64(8)
	indexEnd := indexStart + uint64(count)*audioEntrySize
	if indexEnd > b.Size() {
		return nil, scope.NewInvalidDataError(indexStart, fmt.Errorf("tagged audio volume too short for %d index entries", count))
	}
	indexMem, err := b.Sub(indexStart, indexEnd).OpenMem()
	if err != nil {
		return nil, scope.NewInvalidDataError(indexStart, err)
	}

	entries := make([]AudioEntry, count)
	r := bytes.NewReader(indexMem.Bytes())
	for i := range entries {
		var e audioEntryWire
		if err := binary.Read(r, binary.LittleEndian, &e); err != nil {
			return nil, scope.NewInvalidDataError(indexStart, fmt.Errorf("reading audio entry %d: %w", i, err))
		}
		entries[i] = AudioEntry{LogicalOffset: e.LogicalOffset, DataOffset: e.DataOffset}
	}

	return &AudioVolume{
		Format:  format,
		entries: entries,
		data:    b.SubFrom(indexEnd),
	}, nil
}

// Entries returns the tagged format's index; empty for WAV volumes.
func (v *AudioVolume) Entries() []AudioEntry { return v.entries }

// ReadEntry returns the Block covering entry i's data, running up to
// the next entry's data offset (or the volume's end, for the last
// entry). Only valid for tagged formats.
func (v *AudioVolume) ReadEntry(i int) (block.Block, error) {
	if i < 0 || i >= len(v.entries) {
		return block.Block{}, fmt.Errorf("audio volume entry index %d out of range [0,%d)", i, len(v.entries))
	}
	start := uint64(v.entries[i].DataOffset)
	end := v.data.Size()
	if i+1 < len(v.entries) {
		end = uint64(v.entries[i+1].DataOffset)
	}
	if start > v.data.Size() || end > v.data.Size() || start > end {
		return block.Block{}, fmt.Errorf("audio volume entry %d has an out-of-range data range [%d,%d)", i, start, end)
	}
	return v.data.Sub(start, end), nil
}

// Raw returns the whole payload region for a WAV volume, which has no
// index to slice by entry.
func (v *AudioVolume) Raw() block.Block { return v.data }
