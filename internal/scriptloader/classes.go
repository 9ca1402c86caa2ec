package scriptloader

import "sort"

// ClassDeclSet aggregates every class-declaring Object across all
// loaded scripts, indexed by species, and exposes them in a
// superclass-before-subclass topological order.
type ClassDeclSet struct {
	byIndex   []*Class
	bySpecies map[uint16]*Class
}

// Class is a view over one class-declaring Object, with its super
// pointer resolved against the rest of the set.
type Class struct {
	ScriptID   uint16
	Species    uint16
	SuperClass uint16
	Name       string

	obj   *Object
	super *Class // nil if SuperClass == notAClass or unresolved
}

// Methods returns this class's method selectors in declared order.
func (c *Class) Methods() []Selector { return c.obj.Methods() }

// Properties returns this class's (Selector, value) pairs in declared
// order.
func (c *Class) Properties() []PropertyValue { return c.obj.Properties() }

// NewMethods returns the selectors this class implements that its
// super-class either does not implement or does not declare at all.
func (c *Class) NewMethods() []Selector {
	inherited := make(map[uint16]bool)
	if c.super != nil {
		for _, m := range c.super.Methods() {
			inherited[m.ID] = true
		}
	}
	var out []Selector
	for _, m := range c.Methods() {
		if !inherited[m.ID] {
			out = append(out, m)
		}
	}
	return out
}

// NewProperties returns the properties this class declares whose value
// differs from the super-class's same-id property, or that the super
// does not define at all.
func (c *Class) NewProperties() []PropertyValue {
	var superProps map[uint16]uint16
	if c.super != nil {
		superProps = make(map[uint16]uint16)
		for _, p := range c.super.Properties() {
			superProps[p.Selector.ID] = p.Value
		}
	}
	var out []PropertyValue
	for _, p := range c.Properties() {
		if v, ok := superProps[p.Selector.ID]; !ok || v != p.Value {
			out = append(out, p)
		}
	}
	return out
}

// Classes returns every class in topological order: every super-class
// strictly before its subclasses, ties broken by species number
// ascending.
func (s *ClassDeclSet) Classes() []*Class { return s.byIndex }

// ClassBySpecies looks up a class by its species value.
func (s *ClassDeclSet) ClassBySpecies(species uint16) (*Class, bool) {
	c, ok := s.bySpecies[species]
	return c, ok
}

// newClassDeclSet builds a ClassDeclSet from the class-declaring
// objects found across scripts (scriptID -> objects).
func newClassDeclSet(scriptObjects map[uint16][]*Object) *ClassDeclSet {
	bySpecies := make(map[uint16]*Class)
	var unordered []*Class

	for scriptID, objects := range scriptObjects {
		for _, obj := range objects {
			if !obj.IsClass() {
				continue
			}
			c := &Class{
				ScriptID:   scriptID,
				Species:    obj.Species(),
				SuperClass: obj.SuperClass,
				Name:       obj.Name,
				obj:        obj,
			}
			bySpecies[c.Species] = c
			unordered = append(unordered, c)
		}
	}

	for _, c := range unordered {
		if c.SuperClass != notAClass {
			c.super = bySpecies[c.SuperClass]
		}
	}

	return &ClassDeclSet{
		byIndex:   topoSortClasses(unordered),
		bySpecies: bySpecies,
	}
}

// topoSortClasses orders classes so every super-class appears before
// its subclasses, breaking ties by species ascending.
func topoSortClasses(classes []*Class) []*Class {
	depth := make(map[uint16]int, len(classes))
	var depthOf func(c *Class, seen map[uint16]bool) int
	depthOf = func(c *Class, seen map[uint16]bool) int {
		if d, ok := depth[c.Species]; ok {
			return d
		}
		if seen[c.Species] {
			// A cycle in super_class links; treat as a root rather
			// than looping forever.
			depth[c.Species] = 0
			return 0
		}
		seen[c.Species] = true
		d := 0
		if c.super != nil {
			d = depthOf(c.super, seen) + 1
		}
		depth[c.Species] = d
		return d
	}
	for _, c := range classes {
		depthOf(c, map[uint16]bool{})
	}

	out := make([]*Class, len(classes))
	copy(out, classes)
	sort.Slice(out, func(i, j int) bool {
		di, dj := depth[out[i].Species], depth[out[j].Species]
		if di != dj {
			return di < dj
		}
		return out[i].Species < out[j].Species
	})
	return out
}
