package scriptloader

import (
	"encoding/binary"
	"fmt"
)

// Standard object header field indices (index 4 is the padding word).
// Name is usually found at index 9, but nothing guarantees that; it is
// read opportunistically rather than treated as load-bearing.
const (
	classScriptIndex = 5
	scriptIndex      = 6
	superClassIndex  = 7
	infoIndex        = 8
	nameIndex        = 9
)

// notAClass is the species value a script segment uses to mark an
// object that isn't a real class.
const notAClass = 0xFFFF

// MethodRecord is one entry of an object's method table: the selector
// it implements and the method's code offset.
type MethodRecord struct {
	SelectorID   uint16
	MethodOffset uint16
}

// Object is the decoded heap representation of a class or instance.
type Object struct {
	fields      []uint16
	propertyIDs []uint16
	methods     []MethodRecord
	selectors   *SelectorTable

	ClassScript uint16
	Script      uint16
	SuperClass  uint16
	Info        uint16
	Name        string
}

// IsClass reports whether this object is a class declaration rather
// than an instance (the high bit of Info).
func (o *Object) IsClass() bool { return o.Info&0x8000 != 0 }

// Species is this object's class identity, used to index ClassDeclSet
// and to walk the super-class chain.
func (o *Object) Species() uint16 { return o.Script }

// NumFields reports the object's total field count, magic and size
// words included.
func (o *Object) NumFields() int { return len(o.fields) }

// PropertyByID returns the value stored for the property with the
// given selector id.
func (o *Object) PropertyByID(id uint16) (uint16, bool) {
	for i, pid := range o.propertyIDs {
		if pid == id {
			return o.fields[i], true
		}
	}
	return 0, false
}

// PropertyByName resolves name through the selector table before
// looking up the value; it fails to resolve for ambiguous names even
// if the underlying id is present on this object.
func (o *Object) PropertyByName(name string) (uint16, bool) {
	sel, ok := o.selectors.ByName(name)
	if !ok {
		return 0, false
	}
	return o.PropertyByID(sel.ID)
}

// Properties iterates (Selector, value) pairs in declared order.
func (o *Object) Properties() []PropertyValue {
	out := make([]PropertyValue, 0, len(o.propertyIDs))
	for i, id := range o.propertyIDs {
		sel, ok := o.selectors.ByID(id)
		if !ok {
			sel = Selector{ID: id}
		}
		out = append(out, PropertyValue{Selector: sel, Value: o.fields[i]})
	}
	return out
}

// PropertyValue pairs a resolved Selector with the value an object
// stores for it.
type PropertyValue struct {
	Selector Selector
	Value    uint16
}

// Methods returns the selectors this object implements, in declared
// order.
func (o *Object) Methods() []Selector {
	out := make([]Selector, 0, len(o.methods))
	for _, m := range o.methods {
		sel, ok := o.selectors.ByID(m.SelectorID)
		if !ok {
			sel = Selector{ID: m.SelectorID}
		}
		out = append(out, sel)
	}
	return out
}

// decodeObject parses one object's field data (objData, starting at
// the magic word) given image, the full relocated script+heap image
// that absolute pointers within the object (the var selector table,
// the method record table, the name string) index into. objOffset is
// objData's absolute position within image, used only for error
// messages.
func decodeObject(selectors *SelectorTable, image, objData []byte, objOffset int) (obj *Object, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("object at image offset %d: %w", objOffset, err)
		}
	}()

	fields := make([]uint16, len(objData)/2)
	for i := range fields {
		fields[i] = binary.LittleEndian.Uint16(objData[i*2 : i*2+2])
	}
	if len(fields) <= nameIndex {
		return nil, fmt.Errorf("object has only %d fields, fewer than the fixed header requires", len(fields))
	}

	varSelectorOffset := int(fields[2])
	methodRecordOffset := int(fields[3])
	padding := fields[4]
	if padding != 0 {
		return nil, fmt.Errorf("object has non-zero padding field %d", padding)
	}

	if varSelectorOffset > methodRecordOffset || methodRecordOffset > len(image) {
		return nil, fmt.Errorf("object var selector/method record offsets [%d,%d) out of range for a %d-byte image", varSelectorOffset, methodRecordOffset, len(image))
	}
	varSelectorBytes := image[varSelectorOffset:methodRecordOffset]
	if len(varSelectorBytes)%2 != 0 {
		return nil, fmt.Errorf("var selector table size %d is not a whole number of u16s", len(varSelectorBytes))
	}
	propertyIDs := make([]uint16, len(varSelectorBytes)/2)
	for i := range propertyIDs {
		propertyIDs[i] = binary.LittleEndian.Uint16(varSelectorBytes[i*2 : i*2+2])
	}

	methods, err := readMethodRecords(image, methodRecordOffset)
	if err != nil {
		return nil, fmt.Errorf("method records: %w", err)
	}

	classScript := fields[classScriptIndex]
	script := fields[scriptIndex]
	superClass := fields[superClassIndex]
	info := fields[infoIndex]

	var name string
	if namePtr := fields[nameIndex]; namePtr != 0 {
		n, err := readNullTerminatedString(image, int(namePtr))
		if err != nil {
			return nil, fmt.Errorf("object name string: %w", err)
		}
		name = n
	}

	if script != notAClass && len(propertyIDs) != len(fields) {
		return nil, fmt.Errorf("property/field count mismatch: %d properties, %d fields", len(propertyIDs), len(fields))
	}

	return &Object{
		fields:      fields,
		propertyIDs: propertyIDs,
		methods:     methods,
		selectors:   selectors,
		ClassScript: classScript,
		Script:      script,
		SuperClass:  superClass,
		Info:        info,
		Name:        name,
	}, nil
}

func readMethodRecords(image []byte, offset int) ([]MethodRecord, error) {
	if offset+2 > len(image) {
		return nil, fmt.Errorf("offset %d out of range for a method record count", offset)
	}
	count := int(binary.LittleEndian.Uint16(image[offset : offset+2]))
	start := offset + 2
	need := count * 4
	if start+need > len(image) {
		return nil, fmt.Errorf("%d method records at offset %d exceed the image bounds", count, offset)
	}
	records := make([]MethodRecord, count)
	for i := 0; i < count; i++ {
		rec := image[start+i*4 : start+i*4+4]
		records[i] = MethodRecord{
			SelectorID:   binary.LittleEndian.Uint16(rec[0:2]),
			MethodOffset: binary.LittleEndian.Uint16(rec[2:4]),
		}
	}
	return records, nil
}

func readNullTerminatedString(data []byte, offset int) (string, error) {
	if offset > len(data) {
		return "", fmt.Errorf("string offset %d out of range", offset)
	}
	rest := data[offset:]
	for i, b := range rest {
		if b == 0 {
			return string(rest[:i]), nil
		}
	}
	return "", fmt.Errorf("no null terminator found starting at offset %d", offset)
}
