package prune

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cgogen/internal/manifest"
	"cgogen/internal/pipeline"
)

const ptHeader = `#ifndef PT_H
#define PT_H

typedef struct {
	uint32_t x;
	uint32_t y;
} point;

point *point_new(uint32_t x, uint32_t y);
void point_free(point *p);

#endif
`

const ptDirectives = `package: pt
generate:
  - point_new
`

// writeDump discovers the fixture header and writes the batch as a dump,
// the way the discover command would.
func writeDump(t *testing.T) (dir, dumpPath string) {
	t.Helper()
	dir = t.TempDir()
	header := filepath.Join(dir, "pt.h")
	if err := os.WriteFile(header, []byte(ptHeader), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cgogen.yaml"), []byte(ptDirectives), 0o644); err != nil {
		t.Fatal(err)
	}

	decls, frontends, err := pipeline.Discover(context.Background(), pipeline.Options{Inputs: []string{header}})
	if err != nil {
		t.Fatal(err)
	}
	d := pipeline.NewDump(frontends, []string{header}, decls)
	data, err := d.Encode()
	if err != nil {
		t.Fatal(err)
	}
	dumpPath = filepath.Join(dir, "decls.json")
	if err := os.WriteFile(dumpPath, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, dumpPath
}

func TestRunPrintsReport(t *testing.T) {
	_, dumpPath := writeDump(t)

	if exitCode := Run([]string{dumpPath}); exitCode != 0 {
		t.Errorf("expected exit 0, got %d", exitCode)
	}
}

func TestRunWritesSurvivingSet(t *testing.T) {
	dir, dumpPath := writeDump(t)
	outPath := filepath.Join(dir, "pruned.json")

	if exitCode := Run([]string{"-o", outPath, dumpPath}); exitCode != 0 {
		t.Fatalf("expected exit 0, got %d", exitCode)
	}

	m, err := manifest.Read(outPath)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range m.Entries {
		names = append(names, e.Name)
	}
	want := []string{"point", "point_new"}
	if len(names) != len(want) {
		t.Fatalf("surviving set = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("surviving set = %v, want %v", names, want)
		}
	}
}

func TestRunJSONReport(t *testing.T) {
	_, dumpPath := writeDump(t)

	if exitCode := Run([]string{"--json", dumpPath}); exitCode != 0 {
		t.Errorf("expected exit 0, got %d", exitCode)
	}
}

func TestRunMissingDump(t *testing.T) {
	dir := t.TempDir()
	if exitCode := Run([]string{filepath.Join(dir, "absent.json")}); exitCode != 2 {
		t.Errorf("expected exit 2, got %d", exitCode)
	}
}

func TestRunNoArgs(t *testing.T) {
	if exitCode := Run(nil); exitCode != 2 {
		t.Errorf("expected exit 2, got %d", exitCode)
	}
}
