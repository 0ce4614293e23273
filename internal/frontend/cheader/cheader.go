package cheader

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"cgogen/internal/decl"
)

// Frontend discovers declarations in a C header using tree-sitter.
// Preprocessor directives are not resolved: types pulled in via #include
// surface as dependency edges on names this batch never defines, which the
// pruning pass treats as intrinsic.
type Frontend struct{}

func (f *Frontend) Name() string { return "cheader" }

func (f *Frontend) Discover(ctx context.Context, input string) ([]decl.Decl[decl.Info], error) {
	content, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	return Parse(ctx, content, input)
}

// Parse extracts declarations from header content. Exposed separately so
// tests can parse without touching the filesystem.
func Parse(ctx context.Context, content []byte, path string) ([]decl.Decl[decl.Info], error) {
	parser := sitter.NewParser()
	parser.SetLanguage(c.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	e := &extractor{content: content, path: path}
	e.walk(tree.RootNode())
	return dropShadowedForwards(e.decls), nil
}

type extractor struct {
	content []byte
	path    string
	decls   []decl.Decl[decl.Info]
}

func (e *extractor) text(n *sitter.Node) string {
	return string(e.content[n.StartByte():n.EndByte()])
}

func (e *extractor) pos(n *sitter.Node) decl.Pos {
	return decl.Pos{File: e.path, Line: int(n.StartPoint().Row) + 1}
}

func (e *extractor) record(d decl.Decl[decl.Info]) {
	d.Deps = d.Analysis.DepNames()
	e.decls = append(e.decls, d)
}

// walk visits top-level items, descending into preprocessor conditionals
// (header guards wrap everything) and extern "C" blocks.
func (e *extractor) walk(n *sitter.Node) {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "preproc_ifdef", "preproc_if", "preproc_else", "preproc_elif",
			"linkage_specification", "declaration_list":
			e.walk(child)
		case "struct_specifier":
			e.typeSpecifier(child, decl.KindStruct, "")
		case "union_specifier":
			e.typeSpecifier(child, decl.KindUnion, "")
		case "enum_specifier":
			e.typeSpecifier(child, decl.KindEnum, "")
		case "type_definition":
			e.typedef(child)
		case "declaration":
			e.declaration(child)
		case "function_definition":
			e.callable(child)
		case "preproc_def":
			e.define(child)
		}
	}
}

// typeSpecifier records a struct, union, or enum. name overrides the tag for
// the anonymous-specifier-in-typedef case. A bodyless specifier is a forward
// declaration and is recorded as an incomplete type; dropShadowedForwards
// removes it again if a definition follows.
func (e *extractor) typeSpecifier(n *sitter.Node, kind decl.Kind, name string) {
	adopted := name != ""
	if !adopted {
		tag := n.ChildByFieldName("name")
		if tag == nil {
			return // anonymous and unnamed by a typedef, unreferencable
		}
		name = e.text(tag)
	}

	d := decl.Decl[decl.Info]{
		Kind:      kind,
		Name:      decl.Name(name),
		AllowName: name,
		Pos:       e.pos(n),
		Analysis:  decl.Info{Ident: name, NoTag: adopted},
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		d.Analysis.Unbindable = "incomplete type"
		e.record(d)
		return
	}

	switch kind {
	case decl.KindEnum:
		d.Analysis.Values = e.enumValues(body)
	case decl.KindUnion:
		d.Analysis.Fields = e.fields(body)
		d.Analysis.Unbindable = "union layout"
	default:
		d.Analysis.Fields = e.fields(body)
		for _, f := range d.Analysis.Fields {
			if f.Bitfield {
				d.Analysis.Unbindable = "bitfield members"
				break
			}
		}
	}
	e.record(d)
}

func (e *extractor) fields(body *sitter.Node) []decl.Field {
	var fields []decl.Field
	for i := 0; i < int(body.ChildCount()); i++ {
		fd := body.Child(i)
		if fd.Type() != "field_declaration" {
			continue
		}
		base, ok := e.baseType(fd.ChildByFieldName("type"))
		if !ok {
			continue
		}
		bitfield := false
		for j := 0; j < int(fd.ChildCount()); j++ {
			if fd.Child(j).Type() == "bitfield_clause" {
				bitfield = true
			}
		}
		for j := 0; j < int(fd.ChildCount()); j++ {
			if fd.FieldNameForChild(j) != "declarator" {
				continue
			}
			core, pointers := unwrap(fd.Child(j))
			if core == nil {
				continue
			}
			t := base
			t.Pointers = pointers
			if core.Type() == "function_declarator" {
				// Function pointer member: keep the spelling, no edge.
				inner, _ := unwrap(core.ChildByFieldName("declarator"))
				if inner == nil {
					continue
				}
				fields = append(fields, decl.Field{
					Name: e.text(inner),
					Type: decl.Type{Spelling: e.text(fd)},
				})
				continue
			}
			fields = append(fields, decl.Field{Name: e.text(core), Type: t, Bitfield: bitfield})
		}
	}
	return fields
}

func (e *extractor) enumValues(body *sitter.Node) []decl.EnumValue {
	var values []decl.EnumValue
	next := int64(0)
	for i := 0; i < int(body.ChildCount()); i++ {
		en := body.Child(i)
		if en.Type() != "enumerator" {
			continue
		}
		name := en.ChildByFieldName("name")
		if name == nil {
			continue
		}
		if v := en.ChildByFieldName("value"); v != nil {
			if parsed, err := strconv.ParseInt(e.text(v), 0, 64); err == nil {
				next = parsed
			}
		}
		values = append(values, decl.EnumValue{Name: e.text(name), Value: next})
		next++
	}
	return values
}

// typedef handles type_definition nodes. An anonymous specifier named only
// by its typedef becomes the type itself; everything else is an alias.
func (e *extractor) typedef(n *sitter.Node) {
	typeNode := n.ChildByFieldName("type")
	declr := n.ChildByFieldName("declarator")
	if typeNode == nil || declr == nil {
		return
	}
	core, pointers := unwrap(declr)
	if core == nil {
		return
	}

	if core.Type() == "function_declarator" {
		// Callback typedef: typedef int (*cb)(int). Usable behind a
		// pointer only, so it goes through as an opaque alias.
		inner, _ := unwrap(core.ChildByFieldName("declarator"))
		if inner == nil {
			return
		}
		name := e.text(inner)
		e.record(decl.Decl[decl.Info]{
			Kind:      decl.KindTypedef,
			Name:      decl.Name(name),
			AllowName: name,
			Pos:       e.pos(n),
			Analysis:  decl.Info{Ident: name, Unbindable: "function pointer"},
		})
		return
	}

	name := e.text(core)
	switch typeNode.Type() {
	case "struct_specifier", "union_specifier", "enum_specifier":
		kind := specifierKind(typeNode)
		tag := typeNode.ChildByFieldName("name")
		if tag == nil && pointers == 0 {
			// typedef struct { ... } name;
			e.typeSpecifier(typeNode, kind, name)
			return
		}
		if typeNode.ChildByFieldName("body") != nil {
			// typedef struct tag { ... } name; defines the tag too.
			e.typeSpecifier(typeNode, kind, "")
		}
	}

	base, ok := e.baseType(typeNode)
	if !ok {
		return
	}
	base.Pointers = pointers
	e.record(decl.Decl[decl.Info]{
		Kind:      decl.KindTypedef,
		Name:      decl.Name(name),
		AllowName: name,
		Pos:       e.pos(n),
		Analysis:  decl.Info{Ident: name, Target: &base},
	})
}

// declaration handles prototypes and extern variables. A declaration may
// carry several declarators: extern int a, b;
func (e *extractor) declaration(n *sitter.Node) {
	if fn := findChild(n, "function_declarator"); fn != nil {
		e.callable(n)
		return
	}
	base, ok := e.baseType(n.ChildByFieldName("type"))
	if !ok {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) != "declarator" {
			continue
		}
		core, pointers := unwrap(n.Child(i))
		if core == nil || core.Type() != "identifier" {
			continue
		}
		t := base
		t.Pointers = pointers
		name := e.text(core)
		e.record(decl.Decl[decl.Info]{
			Kind:      decl.KindVar,
			Name:      decl.Name(name),
			AllowName: name,
			Pos:       e.pos(n),
			Analysis:  decl.Info{Ident: name, Target: &t},
		})
	}
}

// callable extracts a function prototype or definition; bodies are skipped.
func (e *extractor) callable(n *sitter.Node) {
	base, ok := e.baseType(n.ChildByFieldName("type"))
	if !ok {
		return
	}
	declr := n.ChildByFieldName("declarator")
	if declr == nil {
		return
	}
	core, resultPointers := unwrap(declr)
	if core == nil || core.Type() != "function_declarator" {
		return
	}
	nameNode, namePointers := unwrap(core.ChildByFieldName("declarator"))
	if nameNode == nil {
		return
	}
	name := e.text(nameNode)
	if namePointers > 0 {
		// int (*handler)(int); is a variable of function-pointer type,
		// not a callable.
		e.record(decl.Decl[decl.Info]{
			Kind:      decl.KindVar,
			Name:      decl.Name(name),
			AllowName: name,
			Pos:       e.pos(n),
			Analysis:  decl.Info{Ident: name, Unbindable: "function pointer"},
		})
		return
	}

	info := decl.Info{Ident: name}
	base.Pointers = resultPointers
	if !(base.Spelling == "void" && resultPointers == 0) {
		info.Result = &base
	}

	params := core.ChildByFieldName("parameters")
	if params != nil {
		for i := 0; i < int(params.ChildCount()); i++ {
			p := params.Child(i)
			switch p.Type() {
			case "variadic_parameter":
				info.Variadic = true
				info.Unbindable = "variadic"
			case "parameter_declaration":
				pt, ok := e.baseType(p.ChildByFieldName("type"))
				if !ok {
					continue
				}
				pname := ""
				if d := p.ChildByFieldName("declarator"); d != nil {
					pcore, pointers := unwrap(d)
					pt.Pointers = pointers
					if pcore != nil && pcore.Type() == "identifier" {
						pname = e.text(pcore)
					}
				}
				if pt.Spelling == "void" && pt.Pointers == 0 {
					continue // int f(void)
				}
				info.Params = append(info.Params, decl.Param{Name: pname, Type: pt})
			}
		}
	}

	e.record(decl.Decl[decl.Info]{
		Kind:      decl.KindFunction,
		Name:      decl.Name(name),
		AllowName: name,
		Pos:       e.pos(n),
		Analysis:  info,
	})
}

// define records #define NAME <integer literal> as a constant. Macros with
// arguments or non-numeric bodies are preprocessor logic, not declarations,
// and are skipped.
func (e *extractor) define(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	valueNode := n.ChildByFieldName("value")
	if nameNode == nil || valueNode == nil {
		return
	}
	v, err := strconv.ParseInt(strings.TrimSpace(e.text(valueNode)), 0, 64)
	if err != nil {
		return
	}
	name := e.text(nameNode)
	e.record(decl.Decl[decl.Info]{
		Kind:      decl.KindConst,
		Name:      decl.Name(name),
		AllowName: name,
		Pos:       e.pos(n),
		Analysis:  decl.Info{Ident: name, Values: []decl.EnumValue{{Name: name, Value: v}}},
	})
}

// dropShadowedForwards removes incomplete-type records whose identity also
// has a full definition in the batch, so a forward declaration above the
// real struct does not force the type opaque.
func dropShadowedForwards(decls []decl.Decl[decl.Info]) []decl.Decl[decl.Info] {
	defined := make(map[decl.Name]bool)
	for _, d := range decls {
		if d.Analysis.Unbindable != "incomplete type" {
			defined[d.Name] = true
		}
	}
	out := decls[:0]
	for _, d := range decls {
		if d.Analysis.Unbindable == "incomplete type" && defined[d.Name] {
			continue
		}
		out = append(out, d)
	}
	return out
}
