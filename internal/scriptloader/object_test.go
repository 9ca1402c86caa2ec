package scriptloader

import "testing"

func TestDecodeObjectRoundTrip(t *testing.T) {
	image := buildObjectImage(1, notAClass, 0x8000, "MyClass",
		[]uint16{100}, []uint16{42},
		[]uint16{10})

	obj, err := decodeObject(newEmptySelectorTable(), image, image[:22], 0)
	if err != nil {
		t.Fatalf("decodeObject: %v", err)
	}
	if !obj.IsClass() {
		t.Error("expected IsClass() to be true for info 0x8000")
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
	v, ok := obj.PropertyByID(100)
	if !ok || v != 42 {
		t.Errorf("PropertyByID(100) = (%d,%v), want (42,true)", v, ok)
	}
	methods := obj.Methods()
	if len(methods) != 1 || methods[0].ID != 10 {
		t.Errorf("Methods() = %+v, want one selector with ID 10", methods)
	}
}

func TestDecodeObjectPropertyFieldMismatchIsError(t *testing.T) {
	image := buildObjectImage(1, notAClass, 0x8000, "Bad", []uint16{100}, []uint16{42}, nil)
	// Species != notAClass here, so shrinking the var selector table by
	// one entry disagrees with the object's field count and must be
	// rejected, one way or another, as malformed.
	putU16(image, 3*2, 42) // methodRecordOffset now truncates the property id table by one entry
	if _, err := decodeObject(newEmptySelectorTable(), image, image[:22], 0); err == nil {
		t.Fatal("expected an error from the corrupted var selector table")
	}
}
