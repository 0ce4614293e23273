package emit

import (
	"strings"
	"testing"

	"cgogen/internal/analysis"
	"cgogen/internal/decl"
)

func exportFacts(kind decl.Kind, name string, info decl.Info) decl.Decl[analysis.Facts] {
	d := decl.Decl[analysis.Facts]{
		Kind:      kind,
		Name:      decl.Name(name),
		AllowName: name,
		Analysis:  analysis.Facts{Info: info},
	}
	d.Deps = d.Analysis.DepNames()
	return d
}

func renderHeader(t *testing.T, decls ...decl.Decl[analysis.Facts]) string {
	t.Helper()
	out, err := ExportHeader(decls, testOptions(t))
	if err != nil {
		t.Fatalf("ExportHeader: %v", err)
	}
	return string(out)
}

func TestExportHeaderGuardAndLinkage(t *testing.T) {
	out := renderHeader(t)
	wantContains(t, out,
		"#ifndef CGOGEN_GRIDCLIENT_H",
		"#define CGOGEN_GRIDCLIENT_H",
		`extern "C" {`,
		"#endif /* CGOGEN_GRIDCLIENT_H */",
	)
}

func TestExportHeaderStruct(t *testing.T) {
	out := renderHeader(t,
		exportFacts(decl.KindStruct, "example.com/grid.Point", decl.Info{
			Ident: "Point",
			Fields: []decl.Field{
				{Name: "X", Type: decl.Type{Spelling: "int32"}},
				{Name: "Y", Type: decl.Type{Spelling: "int32"}},
			},
		}),
	)
	wantContains(t, out,
		"typedef struct grid_Point {",
		"\tint32_t X;",
		"\tint32_t Y;",
		"} grid_Point;",
	)
}

func TestExportHeaderNestedStructField(t *testing.T) {
	out := renderHeader(t,
		exportFacts(decl.KindStruct, "example.com/grid.Point", decl.Info{Ident: "Point"}),
		exportFacts(decl.KindStruct, "example.com/grid.Grid", decl.Info{
			Ident: "Grid",
			Fields: []decl.Field{
				{Name: "Origin", Type: decl.Type{Spelling: "Point", Name: "example.com/grid.Point"}},
				{Name: "Cells", Type: decl.Type{Spelling: "float64", Pointers: 1}},
			},
		}),
	)
	wantContains(t, out, "\tgrid_Point Origin;", "\tdouble *Cells;")
}

func TestExportHeaderOpaqueStruct(t *testing.T) {
	d := exportFacts(decl.KindStruct, "example.com/grid.Tracker", decl.Info{Ident: "Tracker"})
	d.Analysis.Opaque = true
	d.Analysis.Reason = "interface type"
	out := renderHeader(t, d)
	wantContains(t, out,
		"/* opaque: interface type */",
		"typedef struct grid_Tracker grid_Tracker;",
	)
}

func TestExportHeaderUnmappableFieldMakesHandle(t *testing.T) {
	out := renderHeader(t,
		exportFacts(decl.KindStruct, "example.com/grid.Grid", decl.Info{
			Ident: "Grid",
			Fields: []decl.Field{
				{Name: "Cache", Type: decl.Type{Spelling: "[]float64"}},
			},
		}),
	)
	wantContains(t, out, "/* opaque: field Cache */", "typedef struct grid_Grid grid_Grid;")
}

func TestExportHeaderFreeFunction(t *testing.T) {
	result := decl.Type{Spelling: "Grid", Name: "example.com/grid.Grid", Pointers: 1}
	out := renderHeader(t,
		exportFacts(decl.KindStruct, "example.com/grid.Grid", decl.Info{Ident: "Grid"}),
		exportFacts(decl.KindFunction, "example.com/grid.NewGrid", decl.Info{
			Ident:  "NewGrid",
			Result: &result,
			Params: []decl.Param{
				{Name: "width", Type: decl.Type{Spelling: "uint32"}},
				{Name: "height", Type: decl.Type{Spelling: "uint32"}},
			},
		}),
	)
	wantContains(t, out, "extern grid_Grid *grid_NewGrid(uint32_t width, uint32_t height);")
}

func TestExportHeaderMethodGetsReceiverParam(t *testing.T) {
	result := decl.Type{Spelling: "float64"}
	out := renderHeader(t,
		exportFacts(decl.KindStruct, "example.com/grid.Point", decl.Info{Ident: "Point"}),
		exportFacts(decl.KindStruct, "example.com/grid.Grid", decl.Info{Ident: "Grid"}),
		exportFacts(decl.KindMethod, "example.com/grid.Grid", decl.Info{
			Ident:  "Get",
			Result: &result,
			Params: []decl.Param{
				{Name: "at", Type: decl.Type{Spelling: "Point", Name: "example.com/grid.Point"}},
			},
		}),
	)
	wantContains(t, out, "extern double grid_Grid_Get(grid_Grid *self, grid_Point at);")
}

func TestExportHeaderNoParamsBecomesVoid(t *testing.T) {
	result := decl.Type{Spelling: "int32"}
	out := renderHeader(t,
		exportFacts(decl.KindFunction, "example.com/grid.Version", decl.Info{
			Ident:  "Version",
			Result: &result,
		}),
	)
	wantContains(t, out, "extern int32_t grid_Version(void);")
}

func TestExportHeaderStringParam(t *testing.T) {
	out := renderHeader(t,
		exportFacts(decl.KindFunction, "example.com/grid.SetName", decl.Info{
			Ident:  "SetName",
			Params: []decl.Param{{Name: "name", Type: decl.Type{Spelling: "string"}}},
		}),
	)
	wantContains(t, out, "extern void grid_SetName(const char *name);")
}

func TestExportHeaderSliceParamExpands(t *testing.T) {
	out := renderHeader(t,
		exportFacts(decl.KindFunction, "example.com/grid.Fill", decl.Info{
			Ident:  "Fill",
			Params: []decl.Param{{Name: "cells", Type: decl.Type{Spelling: "[]float64"}}},
		}),
	)
	wantContains(t, out, "extern void grid_Fill(double *cells, size_t cells_len);")
}

func TestExportHeaderConstant(t *testing.T) {
	out := renderHeader(t,
		exportFacts(decl.KindConst, "example.com/grid.ModeWrap", decl.Info{
			Ident:  "ModeWrap",
			Values: []decl.EnumValue{{Name: "ModeWrap", Value: 4}},
		}),
	)
	wantContains(t, out, "#define grid_ModeWrap 4")
}

func TestExportHeaderTypedef(t *testing.T) {
	target := decl.Type{Spelling: "int32"}
	out := renderHeader(t,
		exportFacts(decl.KindTypedef, "example.com/grid.Mode", decl.Info{
			Ident:  "Mode",
			Target: &target,
		}),
	)
	wantContains(t, out, "typedef int32_t grid_Mode;")
}

func TestExportHeaderVariableSkipped(t *testing.T) {
	target := decl.Type{Spelling: "int32"}
	out := renderHeader(t,
		exportFacts(decl.KindVar, "example.com/grid.DebugLevel", decl.Info{
			Ident:  "DebugLevel",
			Target: &target,
		}),
	)
	if strings.Contains(out, "DebugLevel") {
		t.Error("package-level variables must not appear in the header")
	}
}

func TestExportHeaderPrunedTypeReferenceFails(t *testing.T) {
	_, err := ExportHeader([]decl.Decl[analysis.Facts]{
		exportFacts(decl.KindFunction, "example.com/grid.Use", decl.Info{
			Ident:  "Use",
			Params: []decl.Param{{Name: "g", Type: decl.Type{Spelling: "Gone", Name: "example.com/grid.Gone", Pointers: 1}}},
		}),
	}, testOptions(t))
	if err == nil {
		t.Fatal("want error for reference to pruned type")
	}
	if !strings.Contains(err.Error(), "Gone") {
		t.Errorf("error %q does not name the pruned type", err)
	}
}
