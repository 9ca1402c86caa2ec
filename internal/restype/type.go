// Package restype defines the closed set of SCI 1.1 resource type tags,
// their stable byte encodings, canonical file extensions, and the
// ResourceId key used throughout scicore.
package restype

import (
	"strings"

	"github.com/opensierra/scicore/internal/scierr"
)

// Type is one of the 22 resource type tags SCI 1.1 recognizes. Its
// numeric value is the on-disk byte encoding used in map entries,
// volume headers, and patch file headers.
type Type byte

// The defined resource types, with their stable byte encodings starting
// at 0x80.
const (
	View Type = 0x80 + iota
	Pic
	Script
	Text
	Sound
	Memory
	Vocab
	Font
	Cursor
	Patch
	Bitmap
	Palette
	CdAudio
	Audio
	Sync
	Message
	Map
	Heap
	Audio36
	Sync36
	Translation
	Rave
)

const (
	minType = View
	maxType = Rave
)

var typeNames = map[Type]string{
	View:        "View",
	Pic:         "Pic",
	Script:      "Script",
	Text:        "Text",
	Sound:       "Sound",
	Memory:      "Memory",
	Vocab:       "Vocab",
	Font:        "Font",
	Cursor:      "Cursor",
	Patch:       "Patch",
	Bitmap:      "Bitmap",
	Palette:     "Palette",
	CdAudio:     "CdAudio",
	Audio:       "Audio",
	Sync:        "Sync",
	Message:     "Message",
	Map:         "Map",
	Heap:        "Heap",
	Audio36:     "Audio36",
	Sync36:      "Sync36",
	Translation: "Translation",
	Rave:        "Rave",
}

// extensions gives the canonical lowercase patch-file extension for
// each resource type. The mapping follows the conventional SCI1.1
// patch extensions ("scr", "hep", "msg", ...).
var extensions = map[Type]string{
	View:        "v56",
	Pic:         "p56",
	Script:      "scr",
	Text:        "tex",
	Sound:       "snd",
	Memory:      "mem",
	Vocab:       "voc",
	Font:        "fon",
	Cursor:      "cur",
	Patch:       "pat",
	Bitmap:      "bit",
	Palette:     "pal",
	CdAudio:     "cda",
	Audio:       "aud",
	Sync:        "syn",
	Message:     "msg",
	Map:         "map",
	Heap:        "hep",
	Audio36:     "aud36",
	Sync36:      "syn36",
	Translation: "trn",
	Rave:        "rav",
}

var extToType map[string]Type

func init() {
	extToType = make(map[string]Type, len(extensions))
	for t, ext := range extensions {
		extToType[ext] = t
	}
}

// String returns the type's name (e.g. "Script").
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether t is one of the 22 defined resource types.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// Byte returns the stable 1-byte on-disk encoding of t.
func (t Type) Byte() byte { return byte(t) }

// Ext returns the canonical lowercase file extension for t.
func (t Type) Ext() (string, error) {
	ext, ok := extensions[t]
	if !ok {
		return "", scierr.NewConversionError("ResourceType", t)
	}
	return ext, nil
}

// FromByte converts a raw resource-type byte into a Type. Bytes outside
// the defined 0x80..0x95 set are a conversion error.
func FromByte(b byte) (Type, error) {
	t := Type(b)
	if !t.Valid() {
		return 0, scierr.NewConversionError("ResourceType byte", b)
	}
	return t, nil
}

// FromExt converts a file extension (case-insensitive, with or without
// a leading dot) into a Type.
func FromExt(ext string) (Type, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	t, ok := extToType[ext]
	if !ok {
		return 0, scierr.NewConversionError("resource file extension", ext)
	}
	return t, nil
}

// MinType and MaxType bound the defined byte range, inclusive.
func MinType() Type { return minType }
func MaxType() Type { return maxType }

// Id is the unique key of a resource within a store: a resource type
// paired with a 16-bit resource number. Ids order lexicographically by
// (Type, Num).
type Id struct {
	Type Type
	Num  uint16
}

// New builds an Id.
func New(t Type, num uint16) Id { return Id{Type: t, Num: num} }

// Less reports whether id sorts before other in (Type, Num) order.
func (id Id) Less(other Id) bool {
	if id.Type != other.Type {
		return id.Type < other.Type
	}
	return id.Num < other.Num
}
