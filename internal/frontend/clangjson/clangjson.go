package clangjson

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"cgogen/internal/decl"
)

// Frontend discovers C declarations from clang's JSON AST dump. Inputs may
// be a pre-dumped .json file or a header, in which case clang is executed.
// The dump includes everything the header transitively includes; that suits
// eager discovery, and the pruning pass drops the bulk of it again.
type Frontend struct{}

func (f *Frontend) Name() string { return "clangjson" }

func (f *Frontend) Discover(ctx context.Context, input string) ([]decl.Decl[decl.Info], error) {
	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(input), ".json") {
		data, err = os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("read dump: %w", err)
		}
	} else {
		cmd := exec.CommandContext(ctx, "clang", "-Xclang", "-ast-dump=json", "-fsyntax-only", input)
		data, err = cmd.Output()
		if err != nil {
			return nil, fmt.Errorf("clang ast-dump: %w", err)
		}
	}
	return Parse(data)
}

// astNode mirrors the clang JSON node fields this frontend reads.
type astNode struct {
	Kind               string    `json:"kind"`
	Name               string    `json:"name"`
	TagUsed            string    `json:"tagUsed"`
	CompleteDefinition bool      `json:"completeDefinition"`
	IsImplicit         bool      `json:"isImplicit"`
	IsBitfield         bool      `json:"isBitfield"`
	Variadic           bool      `json:"variadic"`
	Value              string    `json:"value"`
	Type               *astType  `json:"type"`
	Loc                *astLoc   `json:"loc"`
	Inner              []astNode `json:"inner"`
}

type astType struct {
	QualType string `json:"qualType"`
}

type astLoc struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// Parse extracts declarations from a clang AST dump.
func Parse(data []byte) ([]decl.Decl[decl.Info], error) {
	var root astNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode clang dump: %w", err)
	}
	if root.Kind != "TranslationUnitDecl" {
		return nil, fmt.Errorf("unexpected root node %q", root.Kind)
	}

	p := &parser{}
	for i := range root.Inner {
		p.top(&root.Inner[i])
	}
	return dropShadowedForwards(p.decls), nil
}

type parser struct {
	decls []decl.Decl[decl.Info]
	file  string // clang omits repeated file names; carry the last seen
}

func (p *parser) pos(n *astNode) decl.Pos {
	if n.Loc != nil && n.Loc.File != "" {
		p.file = n.Loc.File
	}
	if n.Loc == nil {
		return decl.Pos{File: p.file}
	}
	return decl.Pos{File: p.file, Line: n.Loc.Line}
}

func (p *parser) record(d decl.Decl[decl.Info]) {
	d.Deps = d.Analysis.DepNames()
	p.decls = append(p.decls, d)
}

func (p *parser) top(n *astNode) {
	if n.IsImplicit {
		return
	}
	switch n.Kind {
	case "RecordDecl":
		p.recordDecl(n)
	case "EnumDecl":
		p.enumDecl(n)
	case "TypedefDecl":
		p.typedefDecl(n)
	case "FunctionDecl":
		p.functionDecl(n)
	case "VarDecl":
		p.varDecl(n)
	}
}

func (p *parser) recordDecl(n *astNode) {
	if n.Name == "" {
		return // anonymous, only reachable through a typedef alias
	}
	kind := decl.KindStruct
	if n.TagUsed == "union" {
		kind = decl.KindUnion
	}
	d := decl.Decl[decl.Info]{
		Kind:      kind,
		Name:      decl.Name(n.Name),
		AllowName: n.Name,
		Pos:       p.pos(n),
		Analysis:  decl.Info{Ident: n.Name},
	}
	if !n.CompleteDefinition {
		d.Analysis.Unbindable = "incomplete type"
		p.record(d)
		return
	}
	for i := range n.Inner {
		f := &n.Inner[i]
		if f.Kind != "FieldDecl" || f.Type == nil {
			continue
		}
		field := decl.Field{
			Name:     f.Name,
			Type:     parseQualType(f.Type.QualType),
			Bitfield: f.IsBitfield,
		}
		d.Analysis.Fields = append(d.Analysis.Fields, field)
		if f.IsBitfield {
			d.Analysis.Unbindable = "bitfield members"
		}
	}
	if kind == decl.KindUnion {
		d.Analysis.Unbindable = "union layout"
	}
	p.record(d)
}

func (p *parser) enumDecl(n *astNode) {
	if n.Name == "" {
		return
	}
	d := decl.Decl[decl.Info]{
		Kind:      decl.KindEnum,
		Name:      decl.Name(n.Name),
		AllowName: n.Name,
		Pos:       p.pos(n),
		Analysis:  decl.Info{Ident: n.Name},
	}
	next := int64(0)
	for i := range n.Inner {
		c := &n.Inner[i]
		if c.Kind != "EnumConstantDecl" {
			continue
		}
		if v, ok := constantValue(c); ok {
			next = v
		}
		d.Analysis.Values = append(d.Analysis.Values, decl.EnumValue{Name: c.Name, Value: next})
		next++
	}
	p.record(d)
}

// constantValue digs the evaluated value out of an enumerator's initializer.
func constantValue(n *astNode) (int64, bool) {
	for i := range n.Inner {
		c := &n.Inner[i]
		if c.Kind == "ConstantExpr" && c.Value != "" {
			if v, err := strconv.ParseInt(c.Value, 10, 64); err == nil {
				return v, true
			}
		}
		if v, ok := constantValue(c); ok {
			return v, true
		}
	}
	return 0, false
}

func (p *parser) typedefDecl(n *astNode) {
	if n.Name == "" || n.Type == nil {
		return
	}
	target := parseQualType(n.Type.QualType)
	info := decl.Info{Ident: n.Name, Target: &target}
	if strings.Contains(n.Type.QualType, "(") {
		info = decl.Info{Ident: n.Name, Unbindable: "function pointer"}
	}
	p.record(decl.Decl[decl.Info]{
		Kind:      decl.KindTypedef,
		Name:      decl.Name(n.Name),
		AllowName: n.Name,
		Pos:       p.pos(n),
		Analysis:  info,
	})
}

func (p *parser) functionDecl(n *astNode) {
	if n.Name == "" || n.Type == nil {
		return
	}
	info := decl.Info{Ident: n.Name, Variadic: n.Variadic}
	if n.Variadic {
		info.Unbindable = "variadic"
	}

	// qualType reads "result (params)"; the parameter detail comes from
	// the ParmVarDecl children instead.
	qt := n.Type.QualType
	if i := strings.IndexByte(qt, '('); i >= 0 {
		if rt := parseQualType(strings.TrimSpace(qt[:i])); rt.Spelling != "void" || rt.Pointers > 0 {
			info.Result = &rt
		}
	}
	for i := range n.Inner {
		c := &n.Inner[i]
		if c.Kind != "ParmVarDecl" || c.Type == nil {
			continue
		}
		info.Params = append(info.Params, decl.Param{
			Name: c.Name,
			Type: parseQualType(c.Type.QualType),
		})
	}
	p.record(decl.Decl[decl.Info]{
		Kind:      decl.KindFunction,
		Name:      decl.Name(n.Name),
		AllowName: n.Name,
		Pos:       p.pos(n),
		Analysis:  info,
	})
}

func (p *parser) varDecl(n *astNode) {
	if n.Name == "" || n.Type == nil {
		return
	}
	target := parseQualType(n.Type.QualType)
	p.record(decl.Decl[decl.Info]{
		Kind:      decl.KindVar,
		Name:      decl.Name(n.Name),
		AllowName: n.Name,
		Pos:       p.pos(n),
		Analysis:  decl.Info{Ident: n.Name, Target: &target},
	})
}

// cKeywords covers the builtin type words that never form identities.
var cKeywords = map[string]bool{
	"void": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true,
	"_Bool": true, "bool": true,
}

// parseQualType turns a clang type spelling into a Type: trailing stars
// become pointer depth, const/volatile and array suffixes are shed, and a
// remaining identifier or tag reference becomes the Name.
func parseQualType(s string) decl.Type {
	t := decl.Type{}
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '['); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	for strings.HasSuffix(s, "*") {
		t.Pointers++
		s = strings.TrimSpace(strings.TrimSuffix(s, "*"))
	}
	for _, q := range []string{"const ", "volatile ", "restrict "} {
		s = strings.TrimPrefix(s, q)
	}
	t.Spelling = s

	switch {
	case strings.HasPrefix(s, "struct "), strings.HasPrefix(s, "union "), strings.HasPrefix(s, "enum "):
		_, tag, _ := strings.Cut(s, " ")
		if !strings.Contains(tag, "(") { // "(unnamed struct at ...)"
			t.Name = decl.Name(tag)
		}
	case strings.Contains(s, "(") || strings.Contains(s, " "):
		// Function types and multiword keywords keep spelling only.
	default:
		if !cKeywords[s] && s != "" {
			t.Name = decl.Name(s)
		}
	}
	return t
}

// dropShadowedForwards removes incomplete-type records whose identity also
// has a full definition in the batch.
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
