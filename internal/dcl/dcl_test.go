package dcl

import (
	"bytes"
	"testing"
)

func TestRoundTripLiteralOnly(t *testing.T) {
	input := []byte("ABCD")
	packed, err := Compress(input, CompressOptions{})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	got, err := Decompress(packed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, input) {
		t.Fatalf("round trip = %q, want %q", got, input)
	}
}

func TestRoundTripOverlappingCopy(t *testing.T) {
	// "AAAAAA" forces the compressor to consider a back-reference with
	// length greater than its distance: after emitting the leading
	// "A" literal, a length-5 copy at offset 1 reproduces the
	// remaining five bytes by reading its own freshly written output.
	input := []byte("AAAAAA")
	packed, err := Compress(input, CompressOptions{})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	got, err := Decompress(packed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, input) {
		t.Fatalf("round trip = %q, want %q", got, input)
	}
}

func TestRoundTripProperty(t *testing.T) {
	samples := [][]byte{
		[]byte(""),
		[]byte("a"),
		bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 40),
		bytes.Repeat([]byte{0x00, 0xff, 0x10, 0x10, 0x10}, 200),
		bytes.Repeat([]byte("ab"), 1000),
	}
	for _, ascii := range []bool{false, true} {
		for _, dictType := range []byte{4, 5, 6} {
			for i, s := range samples {
				packed, err := Compress(s, CompressOptions{DictType: dictType, ASCII: ascii})
				if err != nil {
					t.Fatalf("sample %d Compress: %v", i, err)
				}
				got, err := Decompress(packed)
				if err != nil {
					t.Fatalf("sample %d Decompress: %v", i, err)
				}
				if !bytes.Equal(got, s) {
					t.Fatalf("sample %d round trip mismatch: got %d bytes, want %d", i, len(got), len(s))
				}
			}
		}
	}
}

func TestDecompressOverlappingCopyStream(t *testing.T) {
	// Hand-built stream: one literal 'A', then a length-5 copy at
	// offset 1, which must re-read its own freshly written output.
	w := newBitWriter()
	w.writeBits(0, 8) // mode: binary
	w.writeBits(4, 8) // dictType 4
	w.writeBit(0)
	w.writeBits('A', 8)
	w.writeBit(1)
	lengthTree.encode(w, 3)   // length 5
	distanceTree.encode(w, 0) // offset 1
	w.writeBits(0, 4)
	w.writeBit(1)
	lengthTree.encode(w, 15) // terminator: 8 + 256 + 255
	w.writeBits(255, 8)

	got, err := Decompress(w.flush())
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if want := []byte("AAAAAA"); !bytes.Equal(got, want) {
		t.Fatalf("Decompress = %q, want %q", got, want)
	}
}

func TestDecompressRejectsUnknownMode(t *testing.T) {
	_, err := Decompress([]byte{2, 4, 0, 0})
	if err == nil {
		t.Fatal("expected an error for an unrecognized mode byte")
	}
}

func TestDecompressRejectsUnknownDictType(t *testing.T) {
	_, err := Decompress([]byte{0, 9, 0, 0})
	if err == nil {
		t.Fatal("expected an error for an out-of-range dictionary type")
	}
}

func TestDecompressRejectsOffsetBeforeStart(t *testing.T) {
	w := newBitWriter()
	w.writeBits(0, 8) // mode: binary
	w.writeBits(4, 8) // dictType 4
	w.writeBit(1)     // entry token
	lengthTree.encode(w, 0)
	distanceTree.encode(w, 63)
	w.writeBits(0xf, 4)
	packed := w.flush()

	if _, err := Decompress(packed); err == nil {
		t.Fatal("expected an error for a back-reference before any output was written")
	}
}
