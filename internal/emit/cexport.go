package emit

import (
	"bytes"
	"fmt"
	"strings"

	"cgogen/internal/analysis"
	"cgogen/internal/decl"
)

// goScalars maps Go builtin spellings to the C spelling used in export
// headers. Slices of these expand to a pointer plus a length parameter.
var goScalars = map[string]string{
	"int8":           "int8_t",
	"int16":          "int16_t",
	"int32":          "int32_t",
	"int64":          "int64_t",
	"uint8":          "uint8_t",
	"uint16":         "uint16_t",
	"uint32":         "uint32_t",
	"uint64":         "uint64_t",
	"int":            "intptr_t",
	"uint":           "uintptr_t",
	"uintptr":        "uintptr_t",
	"float32":        "float",
	"float64":        "double",
	"bool":           "bool",
	"byte":           "uint8_t",
	"rune":           "int32_t",
	"string":         "const char *",
	"unsafe.Pointer": "void *",
}

// ExportHeader renders a C header describing an exported Go surface. The
// declarations must already be in emission order. Structs whose fields have
// no C representation come out as incomplete handle types; package-level
// variables do not cross at all.
func ExportHeader(decls []decl.Decl[analysis.Facts], opt Options) ([]byte, error) {
	x := &exporter{present: make(map[decl.Name]bool)}
	for _, d := range decls {
		x.present[d.Name] = true
	}

	buf := &bytes.Buffer{}
	guard := "CGOGEN_" + strings.ToUpper(cSanitize(opt.Package)) + "_H"
	fmt.Fprintf(buf, "/* Code generated by cgogen. DO NOT EDIT. */\n\n")
	fmt.Fprintf(buf, "#ifndef %s\n#define %s\n\n", guard, guard)
	fmt.Fprintf(buf, "#include <stdbool.h>\n#include <stddef.h>\n#include <stdint.h>\n\n")
	fmt.Fprintf(buf, "#ifdef __cplusplus\nextern \"C\" {\n#endif\n\n")

	for _, d := range decls {
		if err := x.decl(buf, d); err != nil {
			return nil, err
		}
	}

	fmt.Fprintf(buf, "#ifdef __cplusplus\n}\n#endif\n\n")
	fmt.Fprintf(buf, "#endif /* %s */\n", guard)
	return buf.Bytes(), nil
}

type exporter struct {
	present map[decl.Name]bool
}

func (x *exporter) decl(buf *bytes.Buffer, d decl.Decl[analysis.Facts]) error {
	switch d.Kind {
	case decl.KindStruct:
		x.structType(buf, d)
		return nil
	case decl.KindTypedef:
		return x.typedef(buf, d)
	case decl.KindFunction, decl.KindMethod:
		return x.prototype(buf, d)
	case decl.KindConst:
		for _, v := range d.Analysis.Values {
			fmt.Fprintf(buf, "#define %s %d\n\n", cIdent(d.Name), v.Value)
		}
		return nil
	case decl.KindVar:
		return nil // package-level variables have no C surface
	default:
		return fmt.Errorf("%s: cannot export %s %s", d.Pos, d.Kind, d.Analysis.Ident)
	}
}

func (x *exporter) structType(buf *bytes.Buffer, d decl.Decl[analysis.Facts]) {
	name := cIdent(d.Name)
	if d.Analysis.Opaque {
		fmt.Fprintf(buf, "/* opaque: %s */\ntypedef struct %s %s;\n\n", d.Analysis.Reason, name, name)
		return
	}

	var fields []string
	for _, f := range d.Analysis.Fields {
		ct, err := x.cType(f.Type)
		if err != nil {
			// One untranslatable field turns the whole struct into a handle.
			fmt.Fprintf(buf, "/* opaque: field %s */\ntypedef struct %s %s;\n\n", f.Name, name, name)
			return
		}
		fields = append(fields, "\t"+cDecl(ct, f.Name)+";")
	}
	fmt.Fprintf(buf, "typedef struct %s {\n%s\n} %s;\n\n", name, strings.Join(fields, "\n"), name)
}

func (x *exporter) typedef(buf *bytes.Buffer, d decl.Decl[analysis.Facts]) error {
	name := cIdent(d.Name)
	if d.Analysis.Opaque || d.Analysis.Target == nil {
		fmt.Fprintf(buf, "/* opaque: %s */\ntypedef struct %s %s;\n\n", d.Analysis.Reason, name, name)
		return nil
	}
	ct, err := x.cType(*d.Analysis.Target)
	if err != nil {
		return fmt.Errorf("%s: typedef %s: %w", d.Pos, d.Analysis.Ident, err)
	}
	fmt.Fprintf(buf, "typedef %s;\n\n", cDecl(ct, name))
	return nil
}

func (x *exporter) prototype(buf *bytes.Buffer, d decl.Decl[analysis.Facts]) error {
	fnName := cIdent(d.Name)
	var params []string

	// Methods ride on their receiver type's identity; the receiver becomes
	// the first parameter.
	if d.Kind == decl.KindMethod {
		fnName = cIdent(d.Name) + "_" + d.Analysis.Ident
		recv, err := x.cType(decl.Type{Name: d.Name, Pointers: 1})
		if err != nil {
			return fmt.Errorf("%s: method %s: %w", d.Pos, d.Analysis.Ident, err)
		}
		params = append(params, cDecl(recv, "self"))
	}

	for i, p := range d.Analysis.Params {
		name := paramName(p.Name, i)
		if elem, ok := sliceScalar(p.Type); ok {
			params = append(params, fmt.Sprintf("%s, size_t %s_len", cDecl(elem+" *", name), name))
			continue
		}
		ct, err := x.cType(p.Type)
		if err != nil {
			return fmt.Errorf("%s: %s parameter %s: %w", d.Pos, d.Analysis.Ident, name, err)
		}
		params = append(params, cDecl(ct, name))
	}
	if len(params) == 0 {
		params = append(params, "void")
	}

	ret := "void"
	if d.Analysis.Result != nil {
		ct, err := x.cType(*d.Analysis.Result)
		if err != nil {
			return fmt.Errorf("%s: %s result: %w", d.Pos, d.Analysis.Ident, err)
		}
		ret = ct
	}
	fmt.Fprintf(buf, "extern %s(%s);\n\n", cDecl(ret, fnName), strings.Join(params, ", "))
	return nil
}

// cType renders one type reference to its C spelling. Named types must be
// in the batch; everything else goes through the scalar table.
func (x *exporter) cType(t decl.Type) (string, error) {
	var base string
	if t.Name != "" {
		if !x.present[t.Name] {
			return "", fmt.Errorf("type %q did not survive pruning", t.Name)
		}
		base = cIdent(t.Name)
	} else {
		ct, ok := goScalars[t.Spelling]
		if !ok {
			return "", fmt.Errorf("no C representation for %q", t.Spelling)
		}
		base = ct
	}
	if t.Pointers == 0 {
		return base, nil
	}
	if !strings.HasSuffix(base, "*") {
		base += " "
	}
	return base + strings.Repeat("*", t.Pointers), nil
}

// cDecl joins a C type spelling and an identifier the way C wants them:
// stars bind to the identifier.
func cDecl(ct, name string) string {
	if strings.HasSuffix(ct, "*") {
		return ct + name
	}
	return ct + " " + name
}

// sliceScalar reports whether t is a slice of a scalar type, returning the
// element's C spelling.
func sliceScalar(t decl.Type) (string, bool) {
	if t.Pointers != 0 || !strings.HasPrefix(t.Spelling, "[]") {
		return "", false
	}
	elem, ok := goScalars[t.Spelling[2:]]
	if !ok || strings.HasSuffix(elem, "*") {
		return "", false
	}
	return elem, true
}

// cIdent flattens a package-qualified identity into a C identifier:
// "example.com/grid.Point" becomes "grid_Point".
func cIdent(name decl.Name) string {
	s := string(name)
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}
	return cSanitize(s)
}

func cSanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
