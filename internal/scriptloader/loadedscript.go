package scriptloader

import (
	"encoding/binary"
	"fmt"

	"github.com/opensierra/scicore/internal/block"
	"github.com/opensierra/scicore/internal/scierr"
)

// LoadedScript is a Script resource and its paired Heap resource after
// concatenation and relocation, decoded into its object list.
type LoadedScript struct {
	image   []byte
	objects []*Object
}

// Objects returns every Object found on the heap, in declaration order.
func (s *LoadedScript) Objects() []*Object { return s.objects }

// LoadScript applies in-place address relocation to scriptData and
// heapData and decodes the resulting heap into its object list.
func LoadScript(selectors *SelectorTable, scriptData, heapData block.MemBlock) (*LoadedScript, error) {
	script := scriptData.Bytes()
	heap := heapData.Bytes()

	scope := scierr.RootScope(uint64(len(script) + len(heap))).Push(0, uint64(len(script)+len(heap)), "script load")

	if len(script)%2 != 0 {
		return nil, scope.NewInvalidDataError(0, fmt.Errorf("script segment length %d is not 2-byte aligned", len(script)))
	}
	heapOffset := len(script)

	image := make([]byte, len(script)+len(heap))
	copy(image, script)
	copy(image[heapOffset:], heap)

	_, scriptRelocs, err := readRelocationBlock(script)
	if err != nil {
		return nil, scope.NewInvalidDataError(0, fmt.Errorf("script relocation block: %w", err))
	}
	heapRelocOff, heapRelocs, err := readRelocationBlock(heap)
	if err != nil {
		return nil, scope.NewInvalidDataError(uint64(heapOffset), fmt.Errorf("heap relocation block: %w", err))
	}

	if err := applyRelocations(image[:heapOffset], scriptRelocs, uint16(heapOffset)); err != nil {
		return nil, scope.NewInvalidDataError(0, err)
	}
	if err := applyRelocations(image[heapOffset:], heapRelocs, uint16(heapOffset)); err != nil {
		return nil, scope.NewInvalidDataError(uint64(heapOffset), err)
	}

	// The heap segment proper ends where its own relocation block
	// begins; anything past that was already consumed above.
	heapEnd := heapOffset + heapRelocOff
	if heapRelocOff > len(heap) {
		return nil, scope.NewInvalidDataError(uint64(heapOffset), fmt.Errorf("heap relocation offset %d exceeds heap size %d", heapRelocOff, len(heap)))
	}

	objects, err := parseHeap(selectors, image, image[heapOffset:heapEnd], heapOffset)
	if err != nil {
		return nil, scope.NewInvalidDataError(uint64(heapOffset), err)
	}

	return &LoadedScript{image: image, objects: objects}, nil
}

// readRelocationBlock reads the leading u16 relocation offset and the
// length-prefixed u16 relocation list it points to.
func readRelocationBlock(data []byte) (int, []uint16, error) {
	if len(data) < 2 {
		return 0, nil, fmt.Errorf("segment shorter than its relocation offset field")
	}
	relocOffset := int(binary.LittleEndian.Uint16(data[0:2]))
	if relocOffset > len(data) {
		return 0, nil, fmt.Errorf("relocation offset %d exceeds segment size %d", relocOffset, len(data))
	}
	relocData := data[relocOffset:]
	if len(relocData) < 2 {
		return relocOffset, nil, fmt.Errorf("relocation block shorter than its count field")
	}
	count := int(binary.LittleEndian.Uint16(relocData[0:2]))
	need := 2 + count*2
	if need != len(relocData) {
		return relocOffset, nil, fmt.Errorf("relocation block size %d does not match %d entries", len(relocData), count)
	}
	entries := make([]uint16, count)
	for i := 0; i < count; i++ {
		entries[i] = binary.LittleEndian.Uint16(relocData[2+i*2 : 4+i*2])
	}
	return relocOffset, entries, nil
}

// applyRelocations adds offset to the u16 found at each relocation
// entry's position within buffer.
func applyRelocations(buffer []byte, relocs []uint16, offset uint16) error {
	for _, at := range relocs {
		if int(at)+2 > len(buffer) {
			return fmt.Errorf("relocation entry at %d is out of range for a %d-byte segment", at, len(buffer))
		}
		v := binary.LittleEndian.Uint16(buffer[at : at+2])
		binary.LittleEndian.PutUint16(buffer[at:at+2], v+offset)
	}
	return nil
}
