package scriptloader

import "encoding/binary"

func newEmptySelectorTable() *SelectorTable {
	return &SelectorTable{
		byID:   make(map[uint16]Selector),
		byName: make(map[string]Selector),
	}
}

func putU16(buf []byte, at int, v uint16) {
	binary.LittleEndian.PutUint16(buf[at:at+2], v)
}

// buildObjectImage lays out a single self-contained object image: the
// fixed header+property fields, followed by the property selector id
// table, the method record table, and the name string, each referenced
// by an absolute pointer field exactly as decodeObject expects.
// It returns the image; the object's fixed part starts at byte 0.
func buildObjectImage(species, superClass, info uint16, name string, extraPropIDs, extraPropVals []uint16, methodSelectorIDs []uint16) []byte {
	fieldCount := 10 + len(extraPropVals)
	varSelOff := fieldCount * 2
	propIDsLen := fieldCount * 2
	methodRecOff := varSelOff + propIDsLen
	methodTableLen := 2 + len(methodSelectorIDs)*4
	nameOff := methodRecOff + methodTableLen

	image := make([]byte, nameOff+len(name)+1)

	fields := []uint16{
		objectMagic,
		uint16(fieldCount),
		uint16(varSelOff),
		uint16(methodRecOff),
		0, // padding
		0, // classScript
		species,
		superClass,
		info,
		uint16(nameOff),
	}
	fields = append(fields, extraPropVals...)
	for i, v := range fields {
		putU16(image, i*2, v)
	}

	propertyIDs := []uint16{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	propertyIDs = append(propertyIDs, extraPropIDs...)
	for i, id := range propertyIDs {
		putU16(image, varSelOff+i*2, id)
	}

	putU16(image, methodRecOff, uint16(len(methodSelectorIDs)))
	for i, sel := range methodSelectorIDs {
		putU16(image, methodRecOff+2+i*4, sel)
		putU16(image, methodRecOff+2+i*4+2, 0)
	}

	copy(image[nameOff:], name)
	image[nameOff+len(name)] = 0

	return image
}
