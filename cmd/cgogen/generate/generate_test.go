package generate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cgogen/internal/history"
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
void grid_free(struct grid *g);
double grid_get(const struct grid *g, point at);

#endif
`

const gridDirectives = `package: grid
generate:
  - grid_new
  - grid_get
  - GRID_MAX_DIM
  - grid_resize
block:
  - grid_free
`

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "grid.h"), []byte(gridHeader), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cgogen.yaml"), []byte(gridDirectives), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CGOGEN_CACHE_DIR", filepath.Join(dir, "cache"))
	return dir
}

func TestRunGeneratesBindings(t *testing.T) {
	dir := writeFixture(t)
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(dir)

	exitCode := Run([]string{"--no-history", "grid.h"})
	if exitCode != 0 {
		t.Fatalf("expected exit 0, got %d", exitCode)
	}

	data, err := os.ReadFile("grid_bindings.go")
	if err != nil {
		t.Fatalf("bindings not written: %v", err)
	}
	if !strings.Contains(string(data), "package grid") {
		t.Errorf("bindings missing package clause:\n%s", data)
	}
	if _, err := os.Stat("cgogen.manifest.json"); err != nil {
		t.Errorf("manifest not written: %v", err)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	dir := writeFixture(t)
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(dir)

	exitCode := Run([]string{"--dry-run", "grid.h"})
	if exitCode != 0 {
		t.Fatalf("expected exit 0, got %d", exitCode)
	}
	if _, err := os.Stat("grid_bindings.go"); !os.IsNotExist(err) {
		t.Error("dry run wrote bindings")
	}
	if _, err := os.Stat("cgogen.manifest.json"); !os.IsNotExist(err) {
		t.Error("dry run wrote a manifest")
	}
	if _, err := os.Stat(".cgogen-history.json"); !os.IsNotExist(err) {
		t.Error("dry run recorded history")
	}
}

func TestRunRecordsHistory(t *testing.T) {
	dir := writeFixture(t)
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(dir)

	exitCode := Run([]string{"grid.h"})
	if exitCode != 0 {
		t.Fatalf("expected exit 0, got %d", exitCode)
	}

	h, err := history.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Snapshots) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(h.Snapshots))
	}
	snap := h.Snapshots[0]
	if snap.Kept == 0 || snap.Discovered == 0 {
		t.Errorf("snapshot not filled in: %+v", snap)
	}
	if snap.Frontend != "cheader" {
		t.Errorf("snapshot frontend = %q, want cheader", snap.Frontend)
	}
}

func TestRunJSONReport(t *testing.T) {
	dir := writeFixture(t)
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(dir)

	exitCode := Run([]string{"--json", "--no-history", "--dry-run", "grid.h"})
	if exitCode != 0 {
		t.Errorf("expected exit 0, got %d", exitCode)
	}
}

func TestRunOutputOverride(t *testing.T) {
	dir := writeFixture(t)
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(dir)

	exitCode := Run([]string{"--no-history", "-o", "custom.go", "grid.h"})
	if exitCode != 0 {
		t.Fatalf("expected exit 0, got %d", exitCode)
	}
	if _, err := os.Stat("custom.go"); err != nil {
		t.Errorf("custom output not written: %v", err)
	}
}

func TestRunNoArgs(t *testing.T) {
	if exitCode := Run(nil); exitCode != 2 {
		t.Errorf("expected exit 2, got %d", exitCode)
	}
}

func TestRunMissingDirectives(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "grid.h"), []byte(gridHeader), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CGOGEN_CACHE_DIR", filepath.Join(dir, "cache"))
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(dir)

	if exitCode := Run([]string{"--no-history", "grid.h"}); exitCode != 2 {
		t.Errorf("expected exit 2 without a directive file, got %d", exitCode)
	}
}
