package scriptloader

import (
	"encoding/binary"
	"fmt"
)

const objectMagic = 0x1234

// parseHeap walks heapData (the heap segment of image, up to its own
// relocation block) and decodes the local variable table, the object
// list, and the trailing string table. image is the full
// relocated script+heap image; absolute pointers (method record
// offsets, object name pointers) index into it.
func parseHeap(selectors *SelectorTable, image, heapData []byte, heapOffset int) ([]*Object, error) {
	if len(heapData) < 4 {
		return nil, fmt.Errorf("heap segment shorter than its relocation offset and locals count fields")
	}
	// heapData[0:2] is this segment's own leading relocation-offset
	// field, already consumed by readRelocationBlock; skip it here.
	numLocals := int(binary.LittleEndian.Uint16(heapData[2:4]))
	pos := 4 + numLocals*2
	if pos > len(heapData) {
		return nil, fmt.Errorf("heap segment too short for %d locals", numLocals)
	}

	var objects []*Object
	for {
		if pos+2 > len(heapData) {
			return nil, fmt.Errorf("heap segment truncated before an object magic or string terminator")
		}
		magic := binary.LittleEndian.Uint16(heapData[pos : pos+2])
		if magic == 0 {
			// Rewind so the zero byte is read again as the first byte
			// of the string area.
			break
		}
		if magic != objectMagic {
			return nil, fmt.Errorf("invalid object magic number 0x%04x at heap offset %d", magic, pos)
		}
		if pos+4 > len(heapData) {
			return nil, fmt.Errorf("heap segment truncated before an object field count")
		}
		fieldCount := int(binary.LittleEndian.Uint16(heapData[pos+2 : pos+4]))
		objSize := fieldCount * 2
		if pos+objSize > len(heapData) {
			return nil, fmt.Errorf("object at heap offset %d declares %d fields past the heap segment's end", pos, fieldCount)
		}
		objData := heapData[pos : pos+objSize]
		obj, err := decodeObject(selectors, image, objData, heapOffset+pos)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
		pos += objSize
	}

	// The remainder of the segment (from pos, the rewound zero byte
	// onward) is a concatenation of NUL-terminated strings that object
	// name pointers index into directly; nothing further to parse here.
	return objects, nil
}
