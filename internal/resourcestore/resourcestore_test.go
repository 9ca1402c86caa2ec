package resourcestore

import (
	"bytes"
	"testing"

	"github.com/opensierra/scicore/internal/block"
	"github.com/opensierra/scicore/internal/restype"
)

func TestPatchFileParseScenario(t *testing.T) {
	// A file "12.scr" beginning with [0x82, 0x00, 0x10,
	// 0x20, 0x30] yields Resource{id=(Script,12), extra=Simple([]),
	// data=[0x10,0x20,0x30]}.
	raw := []byte{0x82, 0x00, 0x10, 0x20, 0x30}
	id, ok := patchCandidate("12.scr")
	if !ok {
		t.Fatal("expected 12.scr to be recognized as a patch candidate")
	}
	if want := restype.New(restype.Script, 12); id != want {
		t.Fatalf("patchCandidate id = %v, want %v", id, want)
	}

	res, err := parsePatchFile(id, block.FromBytes(raw))
	if err != nil {
		t.Fatalf("parsePatchFile: %v", err)
	}
	if res.ID != id {
		t.Errorf("ID = %v, want %v", res.ID, id)
	}
	if res.Contents.Extra == nil || !res.Contents.Extra.IsSimple() || len(res.Contents.Extra.Simple) != 0 {
		t.Errorf("Extra = %+v, want Simple([])", res.Contents.Extra)
	}
	data, err := res.Data()
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x10, 0x20, 0x30}; !bytes.Equal(data.Bytes(), want) {
		t.Errorf("data = %v, want %v", data.Bytes(), want)
	}
}

func TestPatchFileWriteRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
	}{
		{"7.scr", []byte{0x82, 0x00, 0x10, 0x20, 0x30}},
		{"7.msg", append([]byte{0x8f, 0x03, 0xAA, 0xBB, 0xCC}, []byte("payload")...)},
	}
	for _, tc := range cases {
		id, ok := patchCandidate(tc.name)
		if !ok {
			t.Fatal("patchCandidate failed")
		}
		raw := tc.raw
		res, err := parsePatchFile(id, block.FromBytes(raw))
		if err != nil {
			t.Fatalf("parsePatchFile: %v", err)
		}
		var out bytes.Buffer
		if err := res.WritePatch(&out); err != nil {
			t.Fatalf("WritePatch: %v", err)
		}
		if !bytes.Equal(out.Bytes(), raw) {
			t.Errorf("round trip = %v, want %v", out.Bytes(), raw)
		}
	}
}

func TestPatchFileCompositeHeaderRoundTrip(t *testing.T) {
	var raw bytes.Buffer
	raw.WriteByte(0x82)  // Script
	raw.WriteByte(128)   // extended header marker
	extHeader := bytes.Repeat([]byte{0x01}, 24)
	extHeader[1] = 3 // real_header_size = 3
	raw.Write(extHeader)
	raw.Write(bytes.Repeat([]byte{0x02}, 22+3))
	raw.Write([]byte("the payload"))

	id := restype.New(restype.Script, 99)
	res, err := parsePatchFile(id, block.FromBytes(raw.Bytes()))
	if err != nil {
		t.Fatalf("parsePatchFile: %v", err)
	}
	if res.Contents.Extra == nil || res.Contents.Extra.Composite == nil {
		t.Fatalf("expected a Composite extra data, got %+v", res.Contents.Extra)
	}

	var out bytes.Buffer
	if err := res.WritePatch(&out); err != nil {
		t.Fatalf("WritePatch: %v", err)
	}
	if !bytes.Equal(out.Bytes(), raw.Bytes()) {
		t.Errorf("round trip = %v, want %v", out.Bytes(), raw.Bytes())
	}
}

func TestAudioVolumeTaggedFormat(t *testing.T) {
	var raw bytes.Buffer
	raw.WriteString("MP3 ")
	writeU32LE(&raw, 2)
	writeU32LE(&raw, 0) // entry 0 logical offset
	writeU32LE(&raw, 0) // entry 0 data offset, relative to the payload region
	writeU32LE(&raw, 100)
	writeU32LE(&raw, 4) // entry 1 data offset
	raw.WriteString("AAAABBBB")

	vol, err := OpenAudioVolume(block.FromBytes(raw.Bytes()))
	if err != nil {
		t.Fatalf("OpenAudioVolume: %v", err)
	}
	if vol.Format != AudioMP3 {
		t.Fatalf("Format = %v, want AudioMP3", vol.Format)
	}
	if len(vol.Entries()) != 2 {
		t.Fatalf("len(Entries()) = %d, want 2", len(vol.Entries()))
	}
	b0, err := vol.ReadEntry(0)
	if err != nil {
		t.Fatal(err)
	}
	m0, _ := b0.OpenMem()
	if string(m0.Bytes()) != "AAAA" {
		t.Errorf("entry 0 = %q, want AAAA", m0.Bytes())
	}
}

func writeU32LE(buf *bytes.Buffer, v uint32) {
	buf.WriteByte(byte(v))
	buf.WriteByte(byte(v >> 8))
	buf.WriteByte(byte(v >> 16))
	buf.WriteByte(byte(v >> 24))
}
