package resourcestore

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/opensierra/scicore/internal/block"
	"github.com/opensierra/scicore/internal/dcl"
	"github.com/opensierra/scicore/internal/restype"
)

func buildMapFile(entries []mapEntryWire) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		buf.WriteByte(e.Type)
		writeU32LE16(&buf, e.Num)
		buf.WriteByte(e.ArchiveNum)
		writeU32LE(&buf, e.FileOffset)
	}
	buf.Write(mapEntrySentinel)
	return buf.Bytes()
}

func writeU32LE16(buf *bytes.Buffer, v uint16) {
	buf.WriteByte(byte(v))
	buf.WriteByte(byte(v >> 8))
}

func TestParseMapFileStopsAtSentinel(t *testing.T) {
	data := buildMapFile([]mapEntryWire{
		{Type: byte(restype.Script), Num: 12, ArchiveNum: 0, FileOffset: 0},
		{Type: byte(restype.Heap), Num: 12, ArchiveNum: 0, FileOffset: 40},
	})
	mem, err := block.FromBytes(data).OpenMem()
	if err != nil {
		t.Fatal(err)
	}
	locs, err := parseMapFile(mem)
	if err != nil {
		t.Fatalf("parseMapFile: %v", err)
	}
	want := []mapLocation{
		{ID: restype.New(restype.Script, 12), FileOffset: 0},
		{ID: restype.New(restype.Heap, 12), FileOffset: 40},
	}
	if diff := cmp.Diff(want, locs); diff != "" {
		t.Errorf("parseMapFile mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAudio36MapFileStopsAtTerminator(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{1, 2, 3, 4}) // noun, verb, condition, sequence
	writeU32LE(&buf, 0x1000)
	writeU32LE16(&buf, 0x20)
	buf.Write(audio36Terminator)

	mem, err := block.FromBytes(buf.Bytes()).OpenMem()
	if err != nil {
		t.Fatal(err)
	}
	locs, err := parseAudio36MapFile(mem)
	if err != nil {
		t.Fatalf("parseAudio36MapFile: %v", err)
	}
	want := []audio36Location{
		{Noun: 1, Verb: 2, Condition: 3, Sequence: 4, Offset: 0x1000, SyncSize: 0x20},
	}
	if diff := cmp.Diff(want, locs); diff != "" {
		t.Errorf("parseAudio36MapFile mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAudio36MapFileMissingTerminatorIsError(t *testing.T) {
	mem, err := block.FromBytes([]byte{1, 2, 3, 4, 0, 0, 0, 0, 0, 0}).OpenMem()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parseAudio36MapFile(mem); err == nil {
		t.Fatal("expected an error for an audio36 map with no terminator row")
	}
}

func buildVolumeResource(t restype.Type, num uint16, compressionType uint16, packed []byte, unpackedSize uint32) []byte {
	var buf bytes.Buffer
	buf.WriteByte(t.Byte())
	writeU32LE16(&buf, num)
	writeU32LE(&buf, uint32(len(packed)))
	writeU32LE(&buf, unpackedSize)
	writeU32LE16(&buf, compressionType)
	buf.Write(packed)
	return buf.Bytes()
}

func TestReadVolumeResourceUncompressed(t *testing.T) {
	payload := []byte("hello, sierra")
	vol := buildVolumeResource(restype.Script, 12, compressionNone, payload, uint32(len(payload)))
	loc := mapLocation{ID: restype.New(restype.Script, 12), FileOffset: 0}

	contents, err := readVolumeResource(block.FromBytes(vol), loc)
	if err != nil {
		t.Fatalf("readVolumeResource: %v", err)
	}
	got, err := contents.Source.Open()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Bytes(), payload) {
		t.Errorf("payload = %q, want %q", got.Bytes(), payload)
	}
}

func TestReadVolumeResourceDCL(t *testing.T) {
	original := bytes.Repeat([]byte("the quick brown fox "), 30)
	packed, err := dcl.Compress(original, dcl.CompressOptions{})
	if err != nil {
		t.Fatalf("dcl.Compress: %v", err)
	}
	vol := buildVolumeResource(restype.Script, 5, compressionDCLImplode, packed, uint32(len(original)))
	loc := mapLocation{ID: restype.New(restype.Script, 5), FileOffset: 0}

	contents, err := readVolumeResource(block.FromBytes(vol), loc)
	if err != nil {
		t.Fatalf("readVolumeResource: %v", err)
	}
	if !contents.Compressed {
		t.Fatal("expected Compressed == true")
	}
	got, err := contents.Source.Open()
	if err != nil {
		t.Fatalf("decompressing on open: %v", err)
	}
	if !bytes.Equal(got.Bytes(), original) {
		t.Errorf("decompressed payload mismatch: got %d bytes, want %d", got.Len(), len(original))
	}
}

func TestReadVolumeResourceUnknownCompressionIsHardError(t *testing.T) {
	vol := buildVolumeResource(restype.Script, 1, 99, []byte("x"), 1)
	loc := mapLocation{ID: restype.New(restype.Script, 1), FileOffset: 0}
	if _, err := readVolumeResource(block.FromBytes(vol), loc); err == nil {
		t.Fatal("expected an error for an unknown compression type code")
	}
}
