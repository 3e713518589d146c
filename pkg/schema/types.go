// Package schema describes the expected shape of a YAML document: beans with
// named properties, maps, sequences and atomic values checked by a parser.
package schema

import (
	"slices"
	"sort"
)

// Type is one of *Bean, *Map, *Sequence or *Atomic.
type Type interface {
	// ID returns the stable identity of the type.
	ID() string

	// String returns a short human readable name.
	String() string

	isType()
}

// Property is a named, typed entry of a Bean.
type Property struct {
	Name        string
	Type        Type
	Description string
	Required    bool

	// Deprecated marks a property that should no longer be used. Replacement,
	// when set, is the dotted path of the property that supersedes it.
	Deprecated         bool
	DeprecationMessage string
	Replacement        string
}

// Bean is an object type with a fixed set of properties.
type Bean struct {
	Name  string
	props map[string]*Property
}

// NewBean creates a bean type with the given properties.
func NewBean(name string, props ...*Property) *Bean {
	b := &Bean{Name: name, props: make(map[string]*Property, len(props))}
	for _, p := range props {
		b.props[p.Name] = p
	}
	return b
}

// AddProperty adds or replaces a property.
func (b *Bean) AddProperty(p *Property) {
	b.props[p.Name] = p
}

// Property looks up a property by name.
func (b *Bean) Property(name string) (*Property, bool) {
	p, ok := b.props[name]
	return p, ok
}

// Properties returns all properties sorted by name.
func (b *Bean) Properties() []*Property {
	out := make([]*Property, 0, len(b.props))
	for _, p := range b.props {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PropertyNames returns the property names sorted.
func (b *Bean) PropertyNames() []string {
	names := make([]string, 0, len(b.props))
	for name := range b.props {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ID implements Type.
func (b *Bean) ID() string { return b.Name }

// String implements Type.
func (b *Bean) String() string { return b.Name }

func (*Bean) isType() {}

// Map is a mapping whose keys and values all share one type.
type Map struct {
	Key   Type
	Value Type
}

// ID implements Type.
func (m *Map) ID() string { return "map[" + m.Key.ID() + "]" + m.Value.ID() }

// String implements Type.
func (m *Map) String() string { return "Map<" + m.Key.String() + ", " + m.Value.String() + ">" }

func (*Map) isType() {}

// Sequence is a list of elements of one type.
type Sequence struct {
	Element Type
}

// ID implements Type.
func (s *Sequence) ID() string { return "[]" + s.Element.ID() }

// String implements Type.
func (s *Sequence) String() string { return "List<" + s.Element.String() + ">" }

func (*Sequence) isType() {}

// Atomic is a scalar type validated by a ValueParser.
type Atomic struct {
	Name   string
	Parser ValueParser

	// Values lists the accepted values of an enumeration, if any.
	Values []string
}

// ID implements Type.
func (a *Atomic) ID() string { return a.Name }

// String implements Type.
func (a *Atomic) String() string { return a.Name }

func (*Atomic) isType() {}

// Parse runs the atomic parser, accepting anything when none is set.
func (a *Atomic) Parse(text string) (any, error) {
	if a.Parser == nil {
		return text, nil
	}
	return a.Parser.Parse(text)
}

// Schema is the root description of a file.
type Schema struct {
	Name string

	// Top is the type every document in the file must match.
	Top Type

	// MinDocuments and MaxDocuments bound the number of documents. Zero
	// means no bound.
	MinDocuments int
	MaxDocuments int

	// Types indexes named types by ID.
	Types map[string]Type
}

// Lookup returns a named type.
func (s *Schema) Lookup(id string) (Type, bool) {
	t, ok := s.Types[id]
	return t, ok
}
