package directive

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the directive file name looked up next to the input.
const DefaultFile = "cgogen.yaml"

// Directives holds the resolved contents of a cgogen.yaml file: which
// declarations to generate bindings for, which to ban, and which types to
// keep opaque. Entry strings are exact names unless they end in '*', which
// matches any suffix.
type Directives struct {
	Package    string
	ImportPath string
	Generate   *Set
	Block      *Set
	Opaque     *Set
}

// rawDirectives mirrors the YAML structure before entries are compiled.
type rawDirectives struct {
	Package    string   `yaml:"package"`
	ImportPath string   `yaml:"import_path"`
	Generate   []string `yaml:"generate"`
	Block      []string `yaml:"block"`
	Opaque     []string `yaml:"opaque"`
}

// Load reads and validates a directive file.
func Load(path string) (*Directives, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load directives: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return d, nil
}

// Parse validates raw YAML directive content. Entry strings are checked for
// shape here so a bad file fails before any discovery work starts.
func Parse(data []byte) (*Directives, error) {
	var raw rawDirectives
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	d := &Directives{
		Package:    raw.Package,
		ImportPath: raw.ImportPath,
	}

	if d.Package != "" && !validPackageName(d.Package) {
		return nil, fmt.Errorf("package %q is not a valid Go package name", d.Package)
	}
	if d.ImportPath != "" {
		if err := module.CheckImportPath(d.ImportPath); err != nil {
			return nil, fmt.Errorf("import_path: %w", err)
		}
	}

	var err error
	if d.Generate, err = NewSet(raw.Generate); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	if d.Block, err = NewSet(raw.Block); err != nil {
		return nil, fmt.Errorf("block: %w", err)
	}
	if d.Opaque, err = NewSet(raw.Opaque); err != nil {
		return nil, fmt.Errorf("opaque: %w", err)
	}
	return d, nil
}

func validPackageName(name string) bool {
	for i, r := range name {
		if unicode.IsLetter(r) || r == '_' {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return name != ""
}

// Set is a compiled name matcher: exact entries plus trailing-'*' prefixes.
// The zero-entry Set matches nothing, which is a valid (if unusual)
// allowlist and simply yields an empty generation surface.
type Set struct {
	entries  []string
	exact    map[string]bool
	prefixes []string
}

// NewSet compiles entry strings. '*' may only appear as the final rune.
func NewSet(entries []string) (*Set, error) {
	s := &Set{
		entries: entries,
		exact:   make(map[string]bool, len(entries)),
	}
	for i, e := range entries {
		if e == "" {
			return nil, fmt.Errorf("entry %d is empty", i)
		}
		if j := strings.IndexByte(e, '*'); j >= 0 && j != len(e)-1 {
			return nil, fmt.Errorf("entry %q: '*' may only end an entry", e)
		}
		if strings.HasSuffix(e, "*") {
			s.prefixes = append(s.prefixes, strings.TrimSuffix(e, "*"))
		} else {
			s.exact[e] = true
		}
	}
	return s, nil
}

// MustNewSet is like NewSet but panics on error. For fixed entry lists.
func MustNewSet(entries []string) *Set {
	s, err := NewSet(entries)
	if err != nil {
		panic(fmt.Sprintf("cgogen: %v", err))
	}
	return s
}

// Contains reports whether name matches any entry.
func (s *Set) Contains(name string) bool {
	if s.exact[name] {
		return true
	}
	for _, p := range s.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Len returns the number of entries the set was compiled from.
func (s *Set) Len() int { return len(s.entries) }

// Entries returns the original entry strings.
func (s *Set) Entries() []string { return s.entries }

// Unmatched returns the entries that match none of the given names, in entry
// order. Used by strict checks to flag allowlist lines that no discovered
// declaration satisfies.
func (s *Set) Unmatched(names []string) []string {
	var unmatched []string
	for _, e := range s.entries {
		prefix, isPrefix := strings.CutSuffix(e, "*")
		hit := false
		for _, n := range names {
			if isPrefix && strings.HasPrefix(n, prefix) {
				hit = true
				break
			}
			if !isPrefix && n == e {
				hit = true
				break
			}
		}
		if !hit {
			unmatched = append(unmatched, e)
		}
	}
	return unmatched
}
