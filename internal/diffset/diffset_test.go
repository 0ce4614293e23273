package diffset

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cgogen/internal/manifest"
)

func mf(entries ...manifest.Entry) manifest.Manifest {
	return manifest.Manifest{SchemaVersion: manifest.SchemaVersion, Entries: entries}
}

func TestDiffAddedAndRemoved(t *testing.T) {
	oldM := mf(
		manifest.Entry{Name: "grid", Kind: "struct"},
		manifest.Entry{Name: "grid_free", Kind: "function"},
	)
	newM := mf(
		manifest.Entry{Name: "grid", Kind: "struct"},
		manifest.Entry{Name: "grid_new", Kind: "function"},
	)

	r := Diff("old.json", "new.json", oldM, newM)

	if diff := cmp.Diff([]string{"grid_new"}, r.Added); diff != "" {
		t.Errorf("added mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"grid_free"}, r.Removed); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
	if len(r.Changed) != 0 {
		t.Errorf("changed = %+v, want none", r.Changed)
	}
}

func TestDiffChangedDeps(t *testing.T) {
	oldM := mf(manifest.Entry{Name: "grid", Kind: "struct", Deps: []string{"point"}})
	newM := mf(manifest.Entry{Name: "grid", Kind: "struct", Deps: []string{"point", "uint32_t"}})

	r := Diff("a", "b", oldM, newM)

	if len(r.Changed) != 1 || r.Changed[0].Name != "grid" {
		t.Fatalf("changed = %+v, want grid", r.Changed)
	}
	detail := strings.Join(r.Changed[0].Details, "; ")
	if !strings.Contains(detail, "deps [point] → [point uint32_t]") {
		t.Errorf("details %q do not describe the dep change", detail)
	}
}

func TestDiffChangedKindAndOpacity(t *testing.T) {
	oldM := mf(manifest.Entry{Name: "cell", Kind: "struct"})
	newM := mf(manifest.Entry{Name: "cell", Kind: "union", Opaque: true})

	r := Diff("a", "b", oldM, newM)

	if len(r.Changed) != 1 {
		t.Fatalf("changed = %+v, want one group", r.Changed)
	}
	detail := strings.Join(r.Changed[0].Details, "; ")
	if !strings.Contains(detail, "kind struct → union") {
		t.Errorf("details %q do not describe the kind change", detail)
	}
	if !strings.Contains(detail, "opaque false → true") {
		t.Errorf("details %q do not describe the opacity change", detail)
	}
}

func TestDiffChangedGroupSize(t *testing.T) {
	oldM := mf(manifest.Entry{Name: "grid", Kind: "struct"})
	newM := mf(
		manifest.Entry{Name: "grid", Kind: "struct"},
		manifest.Entry{Name: "grid", Kind: "method", Ident: "Get"},
	)

	r := Diff("a", "b", oldM, newM)

	if len(r.Changed) != 1 {
		t.Fatalf("changed = %+v, want one group", r.Changed)
	}
	if !strings.Contains(strings.Join(r.Changed[0].Details, "; "), "members 1 → 2") {
		t.Errorf("details %+v do not describe the member change", r.Changed[0].Details)
	}
}

func TestDiffIdenticalSurfacesEmpty(t *testing.T) {
	m := mf(
		manifest.Entry{Name: "grid", Kind: "struct", Deps: []string{"point"}},
		manifest.Entry{Name: "point", Kind: "struct"},
	)
	if r := Diff("a", "b", m, m); !r.Empty() {
		t.Errorf("diff of identical manifests = %+v, want empty", r)
	}
}
