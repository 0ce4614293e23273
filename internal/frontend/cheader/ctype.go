package cheader

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"cgogen/internal/decl"
)

// baseType resolves a type specifier node to a Type. Named references
// (typedef names, struct/union/enum tags) carry a Name so they become
// dependency edges; keyword types carry only their spelling. Anonymous
// specifiers cannot be referenced and report ok = false.
func (e *extractor) baseType(n *sitter.Node) (decl.Type, bool) {
	if n == nil {
		return decl.Type{}, false
	}
	switch n.Type() {
	case "struct_specifier", "union_specifier", "enum_specifier":
		tag := n.ChildByFieldName("name")
		if tag == nil {
			return decl.Type{}, false
		}
		name := e.text(tag)
		kw := strings.TrimSuffix(n.Type(), "_specifier")
		return decl.Type{Spelling: kw + " " + name, Name: decl.Name(name)}, true
	case "type_identifier":
		s := e.text(n)
		return decl.Type{Spelling: s, Name: decl.Name(s)}, true
	case "primitive_type", "sized_type_specifier":
		return decl.Type{Spelling: e.text(n)}, true
	default:
		return decl.Type{}, false
	}
}

// unwrap peels pointer, array, and parenthesis wrappers off a declarator,
// returning the core node (an identifier, field_identifier, type_identifier,
// or function_declarator) and the pointer depth collected on the way. Array
// members stay by-value. A fully abstract declarator (unnamed pointer
// parameter) returns a nil core.
func unwrap(n *sitter.Node) (*sitter.Node, int) {
	pointers := 0
	for n != nil {
		switch n.Type() {
		case "pointer_declarator", "abstract_pointer_declarator":
			pointers++
			n = n.ChildByFieldName("declarator")
		case "array_declarator", "attributed_declarator":
			n = n.ChildByFieldName("declarator")
		case "parenthesized_declarator":
			if n.NamedChildCount() == 0 {
				return nil, pointers
			}
			n = n.NamedChild(0)
		case "init_declarator":
			n = n.ChildByFieldName("declarator")
		default:
			return n, pointers
		}
	}
	return nil, pointers
}

// findChild returns the first descendant of type want, searching declarator
// chains one level at a time. Used to spot prototypes inside declarations.
func findChild(n *sitter.Node, want string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.Type() == want {
			return child
		}
		switch child.Type() {
		case "pointer_declarator", "parenthesized_declarator", "init_declarator", "attributed_declarator":
			if found := findChild(child, want); found != nil {
				return found
			}
		}
	}
	return nil
}

func specifierKind(n *sitter.Node) decl.Kind {
	switch n.Type() {
	case "union_specifier":
		return decl.KindUnion
	case "enum_specifier":
		return decl.KindEnum
	}
	return decl.KindStruct
}
