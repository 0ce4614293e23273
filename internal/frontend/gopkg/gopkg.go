package gopkg

import (
	"context"
	"fmt"
	"go/constant"
	"go/types"
	"strings"

	"golang.org/x/tools/go/packages"

	"cgogen/internal/decl"
)

// Frontend discovers the exported surface of Go packages so a C export
// header can be generated for it. Identities are package-qualified
// ("example.com/grid.Grid"), which keeps same-named types from different
// packages apart. Methods share their receiver type's identity; the method
// name itself lives in Info.Ident.
type Frontend struct{}

func (f *Frontend) Name() string { return "gopkg" }

func (f *Frontend) Discover(ctx context.Context, input string) ([]decl.Decl[decl.Info], error) {
	cfg := &packages.Config{
		Mode:    packages.NeedName | packages.NeedFiles | packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedImports,
		Context: ctx,
	}
	pattern := input
	if strings.HasSuffix(input, "...") {
		cfg.Dir = strings.TrimSuffix(strings.TrimSuffix(input, "..."), "/")
		pattern = "./..."
	} else {
		cfg.Dir = input
		pattern = "."
	}
	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}
	if n := packages.PrintErrors(pkgs); n > 0 {
		return nil, fmt.Errorf("%d packages contain errors", n)
	}

	var decls []decl.Decl[decl.Info]
	for _, pkg := range pkgs {
		decls = append(decls, FromPackage(pkg)...)
	}
	return decls, nil
}

// FromPackage extracts declarations for every exported name in pkg's scope,
// in the scope's own (sorted) order.
func FromPackage(pkg *packages.Package) []decl.Decl[decl.Info] {
	e := &extractor{pkg: pkg}
	scope := pkg.Types.Scope()
	for _, name := range scope.Names() {
		obj := scope.Lookup(name)
		if !obj.Exported() {
			continue
		}
		switch obj := obj.(type) {
		case *types.TypeName:
			e.typeName(obj)
		case *types.Func:
			allow := qualify(pkg.PkgPath, obj.Name())
			e.fn(decl.KindFunction, obj.Name(), obj, allow, decl.Name(allow))
		case *types.Const:
			e.constant(obj)
		case *types.Var:
			e.variable(obj)
		}
	}
	return e.decls
}

type extractor struct {
	pkg   *packages.Package
	decls []decl.Decl[decl.Info]
}

func qualify(pkgPath, ident string) string { return pkgPath + "." + ident }

func (e *extractor) pos(obj types.Object) decl.Pos {
	p := e.pkg.Fset.Position(obj.Pos())
	return decl.Pos{File: p.Filename, Line: p.Line}
}

func (e *extractor) record(d decl.Decl[decl.Info]) {
	d.Deps = d.Analysis.DepNames()
	e.decls = append(e.decls, d)
}

func (e *extractor) typeName(obj *types.TypeName) {
	allow := qualify(e.pkg.PkgPath, obj.Name())
	name := decl.Name(allow)

	if obj.IsAlias() {
		target := e.typeOf(obj.Type())
		e.record(decl.Decl[decl.Info]{
			Kind:      decl.KindTypedef,
			Name:      name,
			AllowName: allow,
			Pos:       e.pos(obj),
			Analysis:  decl.Info{Ident: obj.Name(), Target: &target},
		})
		return
	}

	named, ok := obj.Type().(*types.Named)
	if !ok {
		return
	}

	if st, ok := named.Underlying().(*types.Struct); ok {
		e.structType(obj, name, allow, st)
	} else {
		target := e.typeOf(named.Underlying())
		info := decl.Info{Ident: obj.Name(), Target: &target}
		if reason := unmappable(named.Underlying()); reason != "" {
			info.Unbindable = reason
		}
		e.record(decl.Decl[decl.Info]{
			Kind:      decl.KindTypedef,
			Name:      name,
			AllowName: allow,
			Pos:       e.pos(obj),
			Analysis:  info,
		})
	}

	for i := 0; i < named.NumMethods(); i++ {
		m := named.Method(i)
		if !m.Exported() {
			continue
		}
		// Methods ride on the receiver type's identity.
		e.fn(decl.KindMethod, m.Name(), m, allow, name)
	}
}

func (e *extractor) structType(obj *types.TypeName, name decl.Name, allow string, st *types.Struct) {
	info := decl.Info{Ident: obj.Name()}
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Exported() {
			continue
		}
		ft := e.typeOf(f.Type())
		info.Fields = append(info.Fields, decl.Field{Name: f.Name(), Type: ft})
		if reason := unmappable(f.Type()); reason != "" && info.Unbindable == "" {
			info.Unbindable = reason
		}
	}
	e.record(decl.Decl[decl.Info]{
		Kind:      decl.KindStruct,
		Name:      name,
		AllowName: allow,
		Pos:       e.pos(obj),
		Analysis:  info,
	})
}

func (e *extractor) fn(kind decl.Kind, ident string, obj *types.Func, allow string, name decl.Name) {
	sig, ok := obj.Type().(*types.Signature)
	if !ok {
		return
	}
	info := decl.Info{Ident: ident}
	if sig.Variadic() {
		info.Variadic = true
		info.Unbindable = "variadic"
	}
	for i := 0; i < sig.Params().Len(); i++ {
		p := sig.Params().At(i)
		pt := e.typeOf(p.Type())
		info.Params = append(info.Params, decl.Param{Name: p.Name(), Type: pt})
		if reason := unmappable(p.Type()); reason != "" && info.Unbindable == "" {
			info.Unbindable = reason
		}
	}
	switch sig.Results().Len() {
	case 0:
	case 1:
		rt := e.typeOf(sig.Results().At(0).Type())
		info.Result = &rt
		if reason := unmappable(sig.Results().At(0).Type()); reason != "" && info.Unbindable == "" {
			info.Unbindable = reason
		}
	default:
		if info.Unbindable == "" {
			info.Unbindable = "multiple results"
		}
	}
	e.record(decl.Decl[decl.Info]{
		Kind:      kind,
		Name:      name,
		AllowName: allow,
		Pos:       e.pos(obj),
		Analysis:  info,
	})
}

func (e *extractor) constant(obj *types.Const) {
	v, ok := constant.Int64Val(constant.ToInt(obj.Val()))
	if !ok {
		return // only integer constants cross the boundary
	}
	allow := qualify(e.pkg.PkgPath, obj.Name())
	e.record(decl.Decl[decl.Info]{
		Kind:      decl.KindConst,
		Name:      decl.Name(allow),
		AllowName: allow,
		Pos:       e.pos(obj),
		Analysis: decl.Info{
			Ident:  obj.Name(),
			Values: []decl.EnumValue{{Name: obj.Name(), Value: v}},
		},
	})
}

func (e *extractor) variable(obj *types.Var) {
	target := e.typeOf(obj.Type())
	allow := qualify(e.pkg.PkgPath, obj.Name())
	e.record(decl.Decl[decl.Info]{
		Kind:      decl.KindVar,
		Name:      decl.Name(allow),
		AllowName: allow,
		Pos:       e.pos(obj),
		Analysis:  decl.Info{Ident: obj.Name(), Target: &target},
	})
}

// typeOf maps a Go type to the shared type shape: pointer depth peeled off,
// named types keeping their qualified identity, everything else spelling only.
func (e *extractor) typeOf(t types.Type) decl.Type {
	out := decl.Type{}
	for {
		ptr, ok := t.(*types.Pointer)
		if !ok {
			break
		}
		out.Pointers++
		t = ptr.Elem()
	}
	out.Spelling = types.TypeString(t, types.RelativeTo(e.pkg.Types))
	if named, ok := t.(*types.Named); ok {
		if tn := named.Obj(); tn.Pkg() != nil {
			out.Name = decl.Name(qualify(tn.Pkg().Path(), tn.Name()))
		} else {
			out.Spelling = tn.Name() // universe scope: error
		}
	}
	return out
}

// unmappable reports why a Go type cannot appear in a C signature or layout.
func unmappable(t types.Type) string {
	switch t.Underlying().(type) {
	case *types.Chan:
		return "channel type"
	case *types.Signature:
		return "function pointer"
	case *types.Interface:
		return "interface type"
	case *types.Map:
		return "map type"
	}
	return ""
}
