package order

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"cgogen/internal/decl"
)

func node(name string, deps ...string) decl.Decl[struct{}] {
	d := decl.Decl[struct{}]{Kind: decl.KindStruct, Name: decl.Name(name), AllowName: name}
	for _, dep := range deps {
		d.Deps = append(d.Deps, decl.Name(dep))
	}
	return d
}

func position(t *testing.T, names []decl.Name, n decl.Name) int {
	t.Helper()
	for i, x := range names {
		if x == n {
			return i
		}
	}
	t.Fatalf("%s missing from plan %v", n, names)
	return -1
}

func TestEmissionDependenciesFirst(t *testing.T) {
	in := []decl.Decl[struct{}]{
		node("grid_new", "Grid"),
		node("Grid", "Point"),
		node("Point"),
	}
	plan := Emission(in)

	want := []decl.Name{"Point", "Grid", "grid_new"}
	if diff := cmp.Diff(want, plan.Names); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
	if len(plan.Cyclic) != 0 {
		t.Errorf("acyclic batch flagged cyclic members: %v", plan.Cyclic)
	}
}

func TestEmissionDiamond(t *testing.T) {
	in := []decl.Decl[struct{}]{
		node("A", "B", "C"),
		node("B", "D"),
		node("C", "D"),
		node("D"),
	}
	plan := Emission(in)

	for _, d := range in {
		for _, dep := range d.Deps {
			if position(t, plan.Names, dep) > position(t, plan.Names, d.Name) {
				t.Errorf("%s emitted before its dependency %s", d.Name, dep)
			}
		}
	}
}

func TestEmissionCycleFlagged(t *testing.T) {
	in := []decl.Decl[struct{}]{
		node("A", "B"),
		node("B", "A"),
		node("C"),
	}
	plan := Emission(in)

	if !plan.Cyclic["A"] || !plan.Cyclic["B"] {
		t.Errorf("cycle members not flagged: %v", plan.Cyclic)
	}
	if plan.Cyclic["C"] {
		t.Errorf("acyclic member flagged")
	}
	// Cycle members stay adjacent in the plan.
	if pa, pb := position(t, plan.Names, "A"), position(t, plan.Names, "B"); pb-pa != 1 && pa-pb != 1 {
		t.Errorf("cycle members separated in plan: %v", plan.Names)
	}
}

func TestEmissionSelfLoopFlagged(t *testing.T) {
	in := []decl.Decl[struct{}]{node("Node", "Node")}
	plan := Emission(in)

	if !plan.Cyclic["Node"] {
		t.Errorf("self-referential identity not flagged cyclic")
	}
}

func TestEmissionIgnoresIntrinsicEdges(t *testing.T) {
	in := []decl.Decl[struct{}]{node("X", "uint32_t", "Y"), node("Y")}
	plan := Emission(in)

	want := []decl.Name{"Y", "X"}
	if diff := cmp.Diff(want, plan.Names); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestEmissionDeterministic(t *testing.T) {
	in := []decl.Decl[struct{}]{
		node("A", "B"),
		node("B", "C", "D"),
		node("C", "A"),
		node("D"),
		node("E"),
	}
	p1 := Emission(in)
	p2 := Emission(in)
	if diff := cmp.Diff(p1.Names, p2.Names); diff != "" {
		t.Errorf("plan order not deterministic:\n%s", diff)
	}
}

func TestEmissionSharedIdentitySingleSlot(t *testing.T) {
	typ := decl.Decl[struct{}]{Kind: decl.KindStruct, Name: "Grid", AllowName: "Grid"}
	method := decl.Decl[struct{}]{Kind: decl.KindMethod, Name: "Grid", AllowName: "Grid", Deps: []decl.Name{"Point"}}
	in := []decl.Decl[struct{}]{typ, method, node("Point")}

	plan := Emission(in)
	want := []decl.Name{"Point", "Grid"}
	if diff := cmp.Diff(want, plan.Names); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}
