// Package scriptloader turns paired Script and Heap resources into a
// navigable object graph, then aggregates classes across every loaded
// script into a queryable declaration set.
package scriptloader

import (
	"encoding/binary"
	"fmt"

	"github.com/opensierra/scicore/internal/block"
	"github.com/opensierra/scicore/internal/scierr"
)

// Selector is a name/id pair loaded from the Vocab:997 resource.
// Selectors are comparable by value and are shared across an entire
// SelectorTable; callers should treat a Selector as a handle, not
// something to mutate.
type Selector struct {
	Name string
	ID   uint16
}

// SelectorTable maps both directions between a selector's id and its
// name, loaded once per game from Vocab:997.
type SelectorTable struct {
	byID   map[uint16]Selector
	byName map[string]Selector
}

// ByID returns the selector registered under id, if any. Every id the
// table was built from resolves here, even one whose name collided
// with another id's name.
func (t *SelectorTable) ByID(id uint16) (Selector, bool) {
	s, ok := t.byID[id]
	return s, ok
}

// ByName returns the selector registered under name, if any. Names
// that resolved to more than one distinct id are absent here even
// though each of those ids is still reachable through ByID.
func (t *SelectorTable) ByName(name string) (Selector, bool) {
	s, ok := t.byName[name]
	return s, ok
}

// LoadSelectorTable parses the Vocab:997 resource contents into a
// SelectorTable.
//
// Layout: a little-endian u16 count stored as N-1, followed by
// N little-endian u16 entry offsets; each offset points to a u16
// length-prefixed UTF-8 string. An offset may be shared by more than
// one entry, in which case both ids resolve to the identical name
// string.
func LoadSelectorTable(vocab997 block.MemBlock) (*SelectorTable, error) {
	data := vocab997.Bytes()
	scope := scierr.RootScope(uint64(len(data))).Push(0, uint64(len(data)), "selector table")

	if len(data) < 2 {
		return nil, scope.NewInvalidDataError(0, fmt.Errorf("selector table shorter than its count field"))
	}
	count := int(binary.LittleEndian.Uint16(data[0:2])) + 1

	offsetsEnd := 2 + count*2
	if offsetsEnd > len(data) {
		return nil, scope.NewInvalidDataError(2, fmt.Errorf("selector table too short for %d entry offsets", count))
	}

	// Cache resolved names by offset so entries that share an offset
	// share one interned string.
	nameCache := make(map[uint16]string)
	names := make([]string, count)
	for i := 0; i < count; i++ {
		off := binary.LittleEndian.Uint16(data[2+i*2 : 4+i*2])
		if cached, ok := nameCache[off]; ok {
			names[i] = cached
			continue
		}
		name, err := readSelectorName(data, off)
		if err != nil {
			return nil, scope.NewInvalidDataError(uint64(2+i*2), err)
		}
		nameCache[off] = name
		names[i] = name
	}

	byName := make(map[string][]uint16, count)
	for i, name := range names {
		id := uint16(i)
		byName[name] = append(byName[name], id)
	}

	t := &SelectorTable{
		byID:   make(map[uint16]Selector, count),
		byName: make(map[string]Selector, count),
	}
	for i, name := range names {
		id := uint16(i)
		t.byID[id] = Selector{Name: name, ID: id}
	}
	for name, ids := range byName {
		if len(ids) != 1 {
			continue
		}
		t.byName[name] = Selector{Name: name, ID: ids[0]}
	}
	return t, nil
}

func readSelectorName(data []byte, offset uint16) (string, error) {
	off := int(offset)
	if off+2 > len(data) {
		return "", fmt.Errorf("selector name offset %d out of range", off)
	}
	strLen := int(binary.LittleEndian.Uint16(data[off : off+2]))
	start := off + 2
	end := start + strLen
	if end > len(data) {
		return "", fmt.Errorf("selector name at offset %d exceeds table bounds", off)
	}
	return string(data[start:end]), nil
}
