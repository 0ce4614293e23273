package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"cgogen/internal/decl"
)

// DumpSchemaVersion versions the discovery dump format.
const DumpSchemaVersion = 1

// Dump is the JSON form of a raw discovery batch. The discover command
// writes one; prune-family commands accept it back in place of rerunning
// the frontends.
type Dump struct {
	SchemaVersion int                    `json:"schema_version"`
	Frontend      string                 `json:"frontend"`
	Inputs        []string               `json:"inputs,omitempty"`
	Decls         []decl.Decl[decl.Info] `json:"decls"`
}

// NewDump wraps a batch for serialization.
func NewDump(frontendName string, inputs []string, decls []decl.Decl[decl.Info]) Dump {
	if decls == nil {
		decls = []decl.Decl[decl.Info]{}
	}
	return Dump{
		SchemaVersion: DumpSchemaVersion,
		Frontend:      frontendName,
		Inputs:        inputs,
		Decls:         decls,
	}
}

func (d Dump) Encode() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// ReadDump loads and validates a dump file. Dumps from newer tool versions
// are rejected rather than half-understood.
func ReadDump(path string) (Dump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dump{}, fmt.Errorf("read dump: %w", err)
	}
	var d Dump
	if err := json.Unmarshal(data, &d); err != nil {
		return Dump{}, fmt.Errorf("parse dump %s: %w", path, err)
	}
	if d.SchemaVersion > DumpSchemaVersion {
		return Dump{}, fmt.Errorf("dump %s: schema_version %d is newer than this tool supports (%d)", path, d.SchemaVersion, DumpSchemaVersion)
	}
	return d, nil
}
