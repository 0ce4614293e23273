// Package manifest builds the machine-readable inventory of an emitted
// binding surface. Downstream commands (diff, check) consume it instead of
// re-deriving facts from generated source.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"cgogen/internal/analysis"
	"cgogen/internal/decl"
)

// SchemaVersion is bumped whenever the manifest layout changes shape.
const SchemaVersion = 1

type Tool struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Entry is one surviving declaration.
type Entry struct {
	Kind   string   `json:"kind"`
	Name   string   `json:"name"`
	Allow  string   `json:"allow_name"`
	Ident  string   `json:"ident,omitempty"` // set when it differs from the identity
	Deps   []string `json:"deps,omitempty"`
	Depth  int      `json:"depth"`
	Opaque bool     `json:"opaque,omitempty"`
	Pos    string   `json:"pos,omitempty"`
}

type Manifest struct {
	SchemaVersion int      `json:"schema_version"`
	Tool          Tool     `json:"tool"`
	Timestamp     string   `json:"timestamp"`
	Inputs        []string `json:"inputs"`
	Directives    string   `json:"directives_digest,omitempty"`
	Entries       []Entry  `json:"entries"`
}

// Generate builds a manifest for a pruned declaration set in its emission
// order. depths carries the seed distance per identity as computed during
// pruning; identities missing from it report depth 0.
func Generate(decls []decl.Decl[analysis.Facts], depths map[decl.Name]int, inputs []string, digest, version string) Manifest {
	entries := make([]Entry, 0, len(decls))
	for _, d := range decls {
		e := Entry{
			Kind:   string(d.Kind),
			Name:   string(d.Name),
			Allow:  d.AllowName,
			Depth:  depths[d.Name],
			Opaque: d.Analysis.Opaque,
		}
		if d.Analysis.Ident != string(d.Name) {
			e.Ident = d.Analysis.Ident
		}
		for _, dep := range d.Deps {
			e.Deps = append(e.Deps, string(dep))
		}
		if d.Pos.File != "" {
			e.Pos = d.Pos.String()
		}
		entries = append(entries, e)
	}

	if inputs == nil {
		inputs = []string{}
	}
	return Manifest{
		SchemaVersion: SchemaVersion,
		Tool:          Tool{Name: "cgogen", Version: version},
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Inputs:        inputs,
		Directives:    digest,
		Entries:       entries,
	}
}

// Encode renders the manifest as indented JSON.
func (m Manifest) Encode() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// Read loads a manifest file, rejecting versions this build does not know.
func Read(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.SchemaVersion > SchemaVersion {
		return Manifest{}, fmt.Errorf("manifest %s has schema_version %d, this build understands up to %d", path, m.SchemaVersion, SchemaVersion)
	}
	return m, nil
}

// Index groups entries by identity, preserving order within a group.
func (m Manifest) Index() map[string][]Entry {
	idx := make(map[string][]Entry)
	for _, e := range m.Entries {
		idx[e.Name] = append(idx[e.Name], e)
	}
	return idx
}
