package check

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cgogen/internal/pipeline"
)

const gridHeader = `#ifndef GRID_H
#define GRID_H

#define GRID_MAX_DIM 4096

typedef struct {
	uint32_t x;
	uint32_t y;
} point;

struct grid {
	point origin;
	double *cells;
};

struct grid *grid_new(uint32_t width, uint32_t height);
double grid_get(const struct grid *g, point at);

#endif
`

const gridDirectives = `package: grid
generate:
  - grid_new
  - grid_get
  - GRID_MAX_DIM
`

const strictDirectives = `package: grid
generate:
  - grid_new
  - grid_get
  - GRID_MAX_DIM
  - grid_resize
`

func writeFixture(t *testing.T, directives string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "grid.h"), []byte(gridHeader), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cgogen.yaml"), []byte(directives), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CGOGEN_CACHE_DIR", filepath.Join(dir, "cache"))
	return dir
}

// commitOutputs writes the bindings and manifest the way generate would.
func commitOutputs(t *testing.T, dir string) {
	t.Helper()
	r, err := pipeline.Run(context.Background(), pipeline.Options{
		Inputs: []string{filepath.Join(dir, "grid.h")},
	})
	if err != nil {
		t.Fatal(err)
	}
	art, err := r.Emit()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, r.OutputName()), art.Bindings, 0o644); err != nil {
		t.Fatal(err)
	}
	m := r.Manifest("dev")
	data, err := m.Encode()
	if err != nil {
		t.Fatal(err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(filepath.Join(dir, "cgogen.manifest.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunUpToDate(t *testing.T) {
	dir := writeFixture(t, gridDirectives)
	commitOutputs(t, dir)
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(dir)

	if exitCode := Run([]string{"grid.h"}); exitCode != 0 {
		t.Errorf("expected exit 0 for committed output, got %d", exitCode)
	}
}

func TestRunStaleWhenMissing(t *testing.T) {
	dir := writeFixture(t, gridDirectives)
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(dir)

	if exitCode := Run([]string{"grid.h"}); exitCode != 1 {
		t.Errorf("expected exit 1 when output is missing, got %d", exitCode)
	}
}

func TestRunStaleAfterEdit(t *testing.T) {
	dir := writeFixture(t, gridDirectives)
	commitOutputs(t, dir)
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(dir)

	f, err := os.OpenFile("grid_bindings.go", os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("\n// drifted\n")
	f.Close()

	if exitCode := Run([]string{"grid.h"}); exitCode != 1 {
		t.Errorf("expected exit 1 after the output drifted, got %d", exitCode)
	}
}

func TestRunStrictUnmatched(t *testing.T) {
	dir := writeFixture(t, strictDirectives)
	commitOutputs(t, dir)
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(dir)

	if exitCode := Run([]string{"grid.h"}); exitCode != 0 {
		t.Fatalf("expected exit 0 without --strict, got %d", exitCode)
	}
	if exitCode := Run([]string{"--strict", "grid.h"}); exitCode != 1 {
		t.Errorf("expected exit 1 with --strict and an unmatched entry, got %d", exitCode)
	}
}

func TestRunNoArgs(t *testing.T) {
	if exitCode := Run(nil); exitCode != 2 {
		t.Errorf("expected exit 2, got %d", exitCode)
	}
}
