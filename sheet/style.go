package sheet

import (
	"github.com/elliotchance/orderedmap/v3"
)

// Value is a declared property value: either raw CSS text or a nested block
// of declarations.
type Value struct {
	Raw    string
	Nested *Style
}

// Raw creates scalar value.
func Raw(s string) Value {
	return Value{Raw: s}
}

// Nested creates block value.
func Nested(st *Style) Value {
	return Value{Nested: st}
}

// IsNested returns true if value holds a block of declarations.
func (v Value) IsNested() bool {
	return v.Nested != nil
}

// Style is an ordered mapping of property names to values. Declaration order
// is significant and preserved.
type Style struct {
	props *orderedmap.OrderedMap[string, Value]
}

// NewStyle creates empty style.
func NewStyle() *Style {
	return &Style{props: orderedmap.NewOrderedMap[string, Value]()}
}

// Set adds or replaces prop. A replaced property keeps its original position.
func (s *Style) Set(prop string, v Value) *Style {
	s.props.Set(prop, v)
	return s
}

// SetRaw is a shortcut for Set(prop, Raw(raw)).
func (s *Style) SetRaw(prop, raw string) *Style {
	return s.Set(prop, Raw(raw))
}

// Nest is a shortcut for Set(prop, Nested(nested)).
func (s *Style) Nest(prop string, nested *Style) *Style {
	return s.Set(prop, Nested(nested))
}

// Get returns value of prop.
func (s *Style) Get(prop string) (Value, bool) {
	if s == nil {
		return Value{}, false
	}
	return s.props.Get(prop)
}

// Delete removes prop and reports if it was present.
func (s *Style) Delete(prop string) bool {
	if s == nil {
		return false
	}
	return s.props.Delete(prop)
}

// Len returns number of declared properties.
func (s *Style) Len() int {
	if s == nil {
		return 0
	}
	return s.props.Len()
}

// Props returns a snapshot of property names in declaration order. It is safe
// to modify the style while iterating over the result.
func (s *Style) Props() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, s.props.Len())
	for el := s.props.Front(); el != nil; el = el.Next() {
		names = append(names, el.Key)
	}
	return names
}

// Clone returns a deep copy.
func (s *Style) Clone() *Style {
	if s == nil {
		return nil
	}
	c := NewStyle()
	for el := s.props.Front(); el != nil; el = el.Next() {
		v := el.Value
		if v.IsNested() {
			v = Nested(v.Nested.Clone())
		}
		c.props.Set(el.Key, v)
	}
	return c
}
