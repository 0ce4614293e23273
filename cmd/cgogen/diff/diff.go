package diff

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"cgogen/internal/diffset"
	"cgogen/internal/manifest"
	"cgogen/internal/pipeline"
	"cgogen/internal/report"
)

func Run(args []string) int {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "JSON output")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: cgogen diff [--json] <old.json> <new.json>")
		return 2
	}

	oldM, err := loadSurface(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	newM, err := loadSurface(fs.Arg(1))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	r := diffset.Diff(filepath.Base(fs.Arg(0)), filepath.Base(fs.Arg(1)), oldM, newM)

	if *jsonOut {
		if err := report.WriteSurfaceDiffJSON(os.Stdout, r); err != nil {
			fmt.Fprintln(os.Stderr, "write output:", err)
			return 2
		}
	} else {
		report.WriteSurfaceDiff(os.Stdout, r)
	}

	if !r.Empty() {
		return 1
	}
	return 0
}

// loadSurface accepts either a manifest or a discovery dump; a dump is
// flattened to manifest entries so both sides diff the same way.
func loadSurface(path string) (manifest.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return manifest.Manifest{}, fmt.Errorf("read %s: %w", path, err)
	}
	var probe struct {
		Decls json.RawMessage `json:"decls"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return manifest.Manifest{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if probe.Decls == nil {
		return manifest.Read(path)
	}
	d, err := pipeline.ReadDump(path)
	if err != nil {
		return manifest.Manifest{}, err
	}
	return dumpSurface(d), nil
}

func dumpSurface(d pipeline.Dump) manifest.Manifest {
	m := manifest.Manifest{
		SchemaVersion: manifest.SchemaVersion,
		Inputs:        d.Inputs,
	}
	for _, dc := range d.Decls {
		e := manifest.Entry{
			Kind:  string(dc.Kind),
			Name:  string(dc.Name),
			Allow: dc.AllowName,
		}
		for _, dep := range dc.Deps {
			e.Deps = append(e.Deps, string(dep))
		}
		if dc.Pos.File != "" {
			e.Pos = dc.Pos.String()
		}
		m.Entries = append(m.Entries, e)
	}
	return m
}
