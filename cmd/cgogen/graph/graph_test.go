package graph

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const gridHeader = `#ifndef GRID_H
#define GRID_H

typedef struct {
	uint32_t x;
	uint32_t y;
} point;

struct grid {
	point origin;
	double *cells;
};

enum grid_mode {
	GRID_MODE_FLAT = 0,
	GRID_MODE_WRAP = 4
};

struct grid *grid_new(uint32_t width, uint32_t height);
void grid_free(struct grid *g);
double grid_get(const struct grid *g, point at);

#endif
`

const gridDirectives = `package: grid
generate:
  - grid_new
  - grid_get
block:
  - grid_free
`

func writeFixture(t *testing.T) (dir, header string) {
	t.Helper()
	dir = t.TempDir()
	header = filepath.Join(dir, "grid.h")
	if err := os.WriteFile(header, []byte(gridHeader), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cgogen.yaml"), []byte(gridDirectives), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, header
}

func TestRunWritesDOT(t *testing.T) {
	dir, header := writeFixture(t)
	outPath := filepath.Join(dir, "grid.dot")

	if exitCode := Run([]string{"-o", outPath, header}); exitCode != 0 {
		t.Fatalf("expected exit 0, got %d", exitCode)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	dot := string(data)

	for _, want := range []string{
		"digraph cgogen {",
		`grid [label="grid\nstruct", fillcolor="#74b9ff"];`,
		`grid_new [label="grid_new\nfunction", fillcolor="#ffd93d"];`,
		`uint32_t [label="uint32_t", shape=ellipse`,
		"grid_new -> grid;",
		"grid -> point;",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}
	for _, reject := range []string{"grid_free", "grid_mode"} {
		if strings.Contains(dot, reject) {
			t.Errorf("DOT output should not mention %q:\n%s", reject, dot)
		}
	}
}

func TestRunAllIncludesDropped(t *testing.T) {
	dir, header := writeFixture(t)
	outPath := filepath.Join(dir, "grid.dot")

	if exitCode := Run([]string{"--all", "-o", outPath, header}); exitCode != 0 {
		t.Fatalf("expected exit 0, got %d", exitCode)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	dot := string(data)

	if !strings.Contains(dot, `grid_mode [label="grid_mode\nenum", fillcolor="#dfe6e9", style="filled,dashed"];`) {
		t.Errorf("dropped identity not drawn grey and dashed:\n%s", dot)
	}
	// Banned declarations are gone before pruning and never drawn.
	if strings.Contains(dot, "grid_free") {
		t.Errorf("banned identity should not be drawn:\n%s", dot)
	}
}

func TestRunNoArgs(t *testing.T) {
	if exitCode := Run(nil); exitCode != 2 {
		t.Errorf("expected exit 2, got %d", exitCode)
	}
}

func TestSanitizeDOTID(t *testing.T) {
	cases := map[string]string{
		"grid_new":        "grid_new",
		"ns::grid":        "ns__grid",
		"3dgrid":          "n3dgrid",
		"pkg.Type":        "pkg_Type",
		"example.com/a.T": "example_com_a_T",
	}
	for in, want := range cases {
		if got := sanitizeDOTID(in); got != want {
			t.Errorf("sanitizeDOTID(%q) = %q, want %q", in, got, want)
		}
	}
}
