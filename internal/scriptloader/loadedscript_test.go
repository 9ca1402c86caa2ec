package scriptloader

import (
	"testing"

	"github.com/opensierra/scicore/internal/block"
)

// buildScriptAndHeap constructs a minimal, self-consistent Script/Heap
// resource pair: an empty script segment, and a heap segment with no
// locals and a single class object whose var selector table, method
// table, and name string sit after the fixed object fields and are
// reached only through the relocated pointer fields.
func buildScriptAndHeap() (script, heap []byte) {
	script = []byte{2, 0, 0, 0} // relocOffset=2, 0 relocation entries

	const heapOffset = 4

	// Heap-relative layout, pre-relocation:
	//   0:  own relocation offset field
	//   2:  num locals (0)
	//   4:  object (10 fields, magic..name)
	//  24:  property id table (10 entries)
	//  44:  method record count (0)
	//  46:  name string "MyClass\0" (8 bytes)
	//  54:  zero word (the object walk already stops at 24, where
	//       property id 0 reads as a zero magic)
	//  56:  relocation block (count=3, entries=[8,10,22])
	const (
		objStart       = 4
		varSelOffHeap  = 24
		methodOffHeap  = 44
		nameOffHeap    = 46
		terminatorHeap = 54
		relocBlockHeap = 56
	)

	heap = make([]byte, relocBlockHeap+2+3*2)
	putU16(heap, 2, 0) // num locals

	fields := []uint16{
		objectMagic, 10, varSelOffHeap, methodOffHeap, 0,
		0, 1, notAClass, 0x8000, nameOffHeap,
	}
	for i, v := range fields {
		putU16(heap, objStart+i*2, v)
	}

	propertyIDs := []uint16{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	for i, id := range propertyIDs {
		putU16(heap, varSelOffHeap+i*2, id)
	}

	putU16(heap, methodOffHeap, 0) // no methods
	copy(heap[nameOffHeap:], "MyClass")
	heap[nameOffHeap+7] = 0
	putU16(heap, terminatorHeap, 0)

	putU16(heap, relocBlockHeap, 3)
	relocEntries := []uint16{8, 10, 22} // var sel offset, method offset, name pointer fields
	for i, e := range relocEntries {
		putU16(heap, relocBlockHeap+2+i*2, e)
	}
	putU16(heap, 0, relocBlockHeap) // heap's own leading relocation-offset field

	return script, heap
}

func TestLoadScriptAppliesRelocationsAndDecodesObject(t *testing.T) {
	script, heap := buildScriptAndHeap()
	scriptMem, err := block.FromBytes(script).OpenMem()
	if err != nil {
		t.Fatal(err)
	}
	heapMem, err := block.FromBytes(heap).OpenMem()
	if err != nil {
		t.Fatal(err)
	}

	ls, err := LoadScript(newEmptySelectorTable(), scriptMem, heapMem)
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	objects := ls.Objects()
	if len(objects) != 1 {
		t.Fatalf("len(Objects()) = %d, want 1", len(objects))
	}
	obj := objects[0]
	if !obj.IsClass() {
		t.Error("expected IsClass() true")
	}
	if obj.Species() != 1 {
		t.Errorf("Species() = %d, want 1", obj.Species())
	}
	if obj.SuperClass != notAClass {
		t.Errorf("SuperClass = %d, want notAClass", obj.SuperClass)
	}
	if obj.Name != "MyClass" {
		t.Errorf("Name = %q, want MyClass", obj.Name)
	}
	if v, ok := obj.PropertyByID(6); !ok || v != 1 {
		t.Errorf("PropertyByID(6) (species) = (%d,%v), want (1,true)", v, ok)
	}
}

func TestLoadScriptRejectsUnalignedScript(t *testing.T) {
	script := []byte{2, 0, 0} // odd length
	heap := []byte{0, 0, 0, 0}
	scriptMem, _ := block.FromBytes(script).OpenMem()
	heapMem, _ := block.FromBytes(heap).OpenMem()
	if _, err := LoadScript(newEmptySelectorTable(), scriptMem, heapMem); err == nil {
		t.Fatal("expected an error for an unaligned script segment length")
	}
}
