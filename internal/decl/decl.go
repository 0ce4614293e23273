package decl

import "fmt"

// Name is the mapping identity of a declaration. Dependency edges point at
// Names, and a Name may be shared by several declarations that travel as one
// unit: a typedef and the struct it names, or a type and its methods.
type Name string

// Kind classifies a declaration.
type Kind string

const (
	KindStruct   Kind = "struct"
	KindUnion    Kind = "union"
	KindEnum     Kind = "enum"
	KindTypedef  Kind = "typedef"
	KindFunction Kind = "function"
	KindMethod   Kind = "method"
	KindField    Kind = "field"
	KindVar      Kind = "var"
	KindConst    Kind = "const"
)

// Pos records where a declaration was discovered.
type Pos struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

// String returns "file:line", or "" when the origin is unknown.
func (p Pos) String() string {
	if p.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Decl is one discovered declaration. AllowName is the form users write in
// directive files; members carry their owner type's AllowName, so allowing a
// type pulls its methods and fields along. Deps lists the identities this
// declaration needs, in source order, after any upstream stripping. The
// Analysis payload belongs to whichever pass produced the batch.
type Decl[P any] struct {
	Kind      Kind   `json:"kind"`
	Name      Name   `json:"name"`
	AllowName string `json:"allow_name"`
	Deps      []Name `json:"deps,omitempty"`
	Pos       Pos    `json:"pos,omitempty"`
	Analysis  P      `json:"analysis,omitempty"`
}

// Index groups a batch by identity, preserving batch order within each group.
func Index[P any](decls []Decl[P]) map[Name][]Decl[P] {
	idx := make(map[Name][]Decl[P], len(decls))
	for _, d := range decls {
		idx[d.Name] = append(idx[d.Name], d)
	}
	return idx
}

// Names returns the distinct identities of a batch in first-appearance order.
func Names[P any](decls []Decl[P]) []Name {
	seen := make(map[Name]bool, len(decls))
	var names []Name
	for _, d := range decls {
		if !seen[d.Name] {
			seen[d.Name] = true
			names = append(names, d.Name)
		}
	}
	return names
}

// Edges flattens a batch to identity-level dependency edges, deduplicated,
// in first-appearance order per identity.
func Edges[P any](decls []Decl[P]) map[Name][]Name {
	edges := make(map[Name][]Name)
	seen := make(map[Name]map[Name]bool)
	for _, d := range decls {
		if seen[d.Name] == nil {
			seen[d.Name] = make(map[Name]bool)
			if _, ok := edges[d.Name]; !ok {
				edges[d.Name] = nil
			}
		}
		for _, dep := range d.Deps {
			if !seen[d.Name][dep] {
				seen[d.Name][dep] = true
				edges[d.Name] = append(edges[d.Name], dep)
			}
		}
	}
	return edges
}

// ReverseEdges inverts Edges: for each identity, the identities that depend
// on it, in batch order.
func ReverseEdges[P any](decls []Decl[P]) map[Name][]Name {
	rev := make(map[Name][]Name)
	seen := make(map[Name]map[Name]bool)
	for _, d := range decls {
		for _, dep := range d.Deps {
			if seen[dep] == nil {
				seen[dep] = make(map[Name]bool)
			}
			if !seen[dep][d.Name] {
				seen[dep][d.Name] = true
				rev[dep] = append(rev[dep], d.Name)
			}
		}
	}
	return rev
}
