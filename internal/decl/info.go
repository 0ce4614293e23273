package decl

// Type is one type reference as written in the source. Name is set when the
// referenced type is identified by name (struct tags, typedef names, enum
// tags); builtin keyword types carry only their Spelling.
type Type struct {
	Spelling string `json:"spelling"`
	Name     Name   `json:"name,omitempty"`
	Pointers int    `json:"pointers,omitempty"`
}

// ByValue reports whether the reference embeds the named type directly
// rather than through a pointer.
func (t Type) ByValue() bool { return t.Pointers == 0 }

// Param is one function or method parameter.
type Param struct {
	Name string `json:"name,omitempty"`
	Type Type   `json:"type"`
}

// Field is one struct or union member.
type Field struct {
	Name     string `json:"name"`
	Type     Type   `json:"type"`
	Bitfield bool   `json:"bitfield,omitempty"`
}

// EnumValue is one enumerator.
type EnumValue struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// Info carries what discovery saw of a declaration: enough for emission.
// Which fields are set depends on the declaration's Kind. Ident is the
// declaration's own name as written, which for methods differs from the
// owning identity the Decl is keyed under.
type Info struct {
	Ident      string      `json:"ident"`
	Fields     []Field     `json:"fields,omitempty"`
	Params     []Param     `json:"params,omitempty"`
	Result     *Type       `json:"result,omitempty"`
	Values     []EnumValue `json:"values,omitempty"`
	Target     *Type       `json:"target,omitempty"`
	Variadic   bool        `json:"variadic,omitempty"`
	NoTag      bool        `json:"no_tag,omitempty"` // identity comes from a typedef, not a tag
	Unbindable string      `json:"unbindable,omitempty"`
}

// DepNames collects the named type references of an Info in declaration
// order, first appearance only.
func (in Info) DepNames() []Name {
	var (
		names []Name
		seen  = make(map[Name]bool)
	)
	add := func(t Type) {
		if t.Name == "" || seen[t.Name] {
			return
		}
		seen[t.Name] = true
		names = append(names, t.Name)
	}
	for _, f := range in.Fields {
		add(f.Type)
	}
	for _, p := range in.Params {
		add(p.Type)
	}
	if in.Result != nil {
		add(*in.Result)
	}
	if in.Target != nil {
		add(*in.Target)
	}
	return names
}
