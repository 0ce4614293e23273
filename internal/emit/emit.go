// Package emit renders pruned declaration sets as source code: a cgo Go
// file for C inputs, a C export header for Go inputs. It runs strictly
// after pruning and ordering, so everything it sees is reachable and every
// named dependency is either in the batch or a builtin. Anything else is a
// hard error here rather than a broken build later.
package emit

import (
	"bytes"
	"fmt"
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/tools/imports"

	"cgogen/internal/analysis"
	"cgogen/internal/decl"
)

// Options configure generation.
type Options struct {
	Package string // Go package name for generated output
	Header  string // header path for the cgo preamble
	Typemap *Typemap
}

// Bindings renders one Go source file binding the given declarations, which
// must already be in emission order (dependencies first).
func Bindings(decls []decl.Decl[analysis.Facts], opt Options) ([]byte, error) {
	g := &generator{opt: opt, present: make(map[decl.Name]bool), goNames: make(map[string]string)}
	for _, d := range decls {
		g.present[d.Name] = true
	}
	if err := g.checkDeps(decls); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "// Code generated by cgogen. DO NOT EDIT.\n\n")
	fmt.Fprintf(buf, "package %s\n\n", opt.Package)
	fmt.Fprintf(buf, "/*\n#include \"%s\"\n*/\nimport \"C\"\n\n", opt.Header)

	for _, d := range decls {
		if err := g.decl(buf, d); err != nil {
			return nil, err
		}
	}

	out, err := imports.Process("bindings.go", buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("format generated code: %w", err)
	}
	return out, nil
}

type generator struct {
	opt     Options
	present map[decl.Name]bool
	goNames map[string]string // Go name → C ident that claimed it
}

// checkDeps verifies every dependency resolves inside the batch or through
// the builtin tables. Opaque types had their edges stripped upstream, so
// their former dependencies are exempt by construction.
func (g *generator) checkDeps(decls []decl.Decl[analysis.Facts]) error {
	for _, d := range decls {
		for _, dep := range d.Deps {
			if g.present[dep] || g.opt.Typemap.Intrinsic(dep) {
				continue
			}
			return fmt.Errorf("%s: %s depends on %q, which is neither in the pruned set nor a builtin", d.Pos, d.Analysis.Ident, dep)
		}
	}
	return nil
}

func (g *generator) decl(buf *bytes.Buffer, d decl.Decl[analysis.Facts]) error {
	switch d.Kind {
	case decl.KindStruct, decl.KindUnion, decl.KindEnum, decl.KindTypedef:
		return g.typeAlias(buf, d)
	case decl.KindFunction:
		return g.wrapper(buf, d)
	case decl.KindConst:
		for _, v := range d.Analysis.Values {
			gn, err := g.claim(v.Name, d.Pos)
			if err != nil {
				return err
			}
			fmt.Fprintf(buf, "const %s = C.%s\n\n", gn, v.Name)
		}
		return nil
	case decl.KindVar:
		gn, err := g.claim(d.Analysis.Ident, d.Pos)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "var %s = &C.%s\n\n", gn, d.Analysis.Ident)
		return nil
	default:
		return fmt.Errorf("%s: cannot emit %s %s", d.Pos, d.Kind, d.Analysis.Ident)
	}
}

func (g *generator) typeAlias(buf *bytes.Buffer, d decl.Decl[analysis.Facts]) error {
	cref := cTypeRef(d)
	gn, err := g.claim(d.Analysis.Ident, d.Pos)
	if err != nil {
		return err
	}

	if d.Analysis.Opaque {
		fmt.Fprintf(buf, "// %s aliases the C type %s. Opaque: %s.\n", gn, cref.c, d.Analysis.Reason)
	} else {
		fmt.Fprintf(buf, "// %s aliases the C type %s.\n", gn, cref.c)
	}
	fmt.Fprintf(buf, "type %s = %s\n\n", gn, cref.cgo)

	if d.Kind == decl.KindEnum && !d.Analysis.Opaque && len(d.Analysis.Values) > 0 {
		fmt.Fprintf(buf, "const (\n")
		for _, v := range d.Analysis.Values {
			vn, err := g.claim(v.Name, d.Pos)
			if err != nil {
				return err
			}
			fmt.Fprintf(buf, "\t%s = C.%s\n", vn, v.Name)
		}
		fmt.Fprintf(buf, ")\n\n")
	}
	return nil
}

func (g *generator) wrapper(buf *bytes.Buffer, d decl.Decl[analysis.Facts]) error {
	ident := d.Analysis.Ident
	gn, err := g.claim(ident, d.Pos)
	if err != nil {
		return err
	}

	var params, args []string
	for i, p := range d.Analysis.Params {
		name := paramName(p.Name, i)
		pt, err := g.typeRef(d, p.Type)
		if err != nil {
			return err
		}
		params = append(params, name+" "+pt.goType)
		args = append(args, pt.pass(name))
	}

	call := fmt.Sprintf("C.%s(%s)", ident, strings.Join(args, ", "))
	fmt.Fprintf(buf, "// %s calls the C function %s.\n", gn, ident)
	if d.Analysis.Result == nil {
		fmt.Fprintf(buf, "func %s(%s) {\n\t%s\n}\n\n", gn, strings.Join(params, ", "), call)
		return nil
	}

	rt, err := g.typeRef(d, *d.Analysis.Result)
	if err != nil {
		return err
	}
	fmt.Fprintf(buf, "func %s(%s) %s {\n\treturn %s\n}\n\n",
		gn, strings.Join(params, ", "), rt.goType, rt.ret(call))
	return nil
}

// cRef describes how a type declaration is spelled on each side of cgo.
type cRef struct {
	c   string // as written in C
	cgo string // as referenced through the C pseudo-package
}

func cTypeRef(d decl.Decl[analysis.Facts]) cRef {
	name := string(d.Name)
	if d.Analysis.NoTag || d.Kind == decl.KindTypedef {
		return cRef{c: name, cgo: "C." + name}
	}
	switch d.Kind {
	case decl.KindUnion:
		return cRef{c: "union " + name, cgo: "C.union_" + name}
	case decl.KindEnum:
		return cRef{c: "enum " + name, cgo: "C.enum_" + name}
	default:
		return cRef{c: "struct " + name, cgo: "C.struct_" + name}
	}
}

// typeUse describes how one parameter or result type crosses the boundary:
// the Go-side type and the conversions in each direction.
type typeUse struct {
	goType  string
	convert string // C-side constructor, empty for pass-through
}

func (u typeUse) pass(name string) string {
	if u.convert == "" {
		return name
	}
	return u.convert + "(" + name + ")"
}

func (u typeUse) ret(call string) string {
	if u.convert == "" {
		return call
	}
	return u.goType + "(" + call + ")"
}

func (g *generator) typeRef(d decl.Decl[analysis.Facts], t decl.Type) (typeUse, error) {
	stars := strings.Repeat("*", t.Pointers)

	if t.Name != "" && g.present[t.Name] {
		return typeUse{goType: stars + exportName(string(t.Name))}, nil
	}
	key := t.Spelling
	if t.Name != "" {
		key = string(t.Name)
	}
	m, ok := g.opt.Typemap.Builtin(key)
	if !ok {
		return typeUse{}, fmt.Errorf("%s: %s uses unmappable type %q", d.Pos, d.Analysis.Ident, t.Spelling)
	}
	if t.Pointers > 0 {
		// Pointers to builtins stay cgo-typed so no unsafe juggling is needed.
		return typeUse{goType: stars + m.Cgo}, nil
	}
	return typeUse{goType: m.Go, convert: m.Cgo}, nil
}

// claim maps a C identifier to its exported Go name, remembering the claim
// so collisions surface as errors instead of shadowed definitions.
func (g *generator) claim(ident string, pos decl.Pos) (string, error) {
	gn := exportName(ident)
	if prev, taken := g.goNames[gn]; taken && prev != ident {
		return "", fmt.Errorf("%s: Go name %s for %s already taken by %s", pos, gn, ident, prev)
	}
	g.goNames[gn] = ident
	return gn, nil
}

// exportName uppercases the first rune; identifiers that cannot start a Go
// exported name get an X prefix.
func exportName(ident string) string {
	r, size := utf8.DecodeRuneInString(ident)
	if !unicode.IsLetter(r) {
		return "X" + ident
	}
	return string(unicode.ToUpper(r)) + ident[size:]
}

func paramName(name string, i int) string {
	if name == "" {
		return fmt.Sprintf("arg%d", i)
	}
	if token.IsKeyword(name) {
		return name + "_"
	}
	return name
}
