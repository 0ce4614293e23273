package emit

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"cgogen/builtins"
	"cgogen/internal/decl"
)

// Mapping pairs the cgo and plain-Go spellings of one builtin type.
type Mapping struct {
	Cgo string
	Go  string
}

// Typemap holds the resolved builtin type tables for a language.
// It is loaded from a builtins/*.yaml file via LoadTypemap.
type Typemap struct {
	Name     string
	Keywords map[string]Mapping // keyword spelling → mapping
	Typedefs map[string]Mapping // intrinsic typedef  → mapping
}

// rawTypemap mirrors the YAML structure before validation.
type rawTypemap struct {
	Name     string                `yaml:"name"`
	Keywords map[string]rawMapping `yaml:"keywords"`
	Typedefs map[string]rawMapping `yaml:"typedefs"`
}

type rawMapping struct {
	Cgo string `yaml:"cgo"`
	Go  string `yaml:"go"`
}

// LoadTypemap reads and validates builtins/<lang>.yaml from the embedded FS.
// Every entry must name both a cgo and a Go equivalent — a half-filled
// mapping causes an early error.
func LoadTypemap(lang string) (*Typemap, error) {
	data, err := builtins.FS.ReadFile(lang + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("load builtins for %q: %w", lang, err)
	}

	var raw rawTypemap
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s.yaml: %w", lang, err)
	}

	tm := &Typemap{
		Name:     raw.Name,
		Keywords: make(map[string]Mapping, len(raw.Keywords)),
		Typedefs: make(map[string]Mapping, len(raw.Typedefs)),
	}
	for spelling, m := range raw.Keywords {
		if m.Cgo == "" || m.Go == "" {
			return nil, fmt.Errorf("incomplete mapping for %q in %s.yaml keywords", spelling, lang)
		}
		tm.Keywords[normalizeSpelling(spelling)] = Mapping(m)
	}
	for name, m := range raw.Typedefs {
		if m.Cgo == "" || m.Go == "" {
			return nil, fmt.Errorf("incomplete mapping for %q in %s.yaml typedefs", name, lang)
		}
		tm.Typedefs[name] = Mapping(m)
	}
	return tm, nil
}

// MustLoadTypemap is like LoadTypemap but panics on error.
// Safe to call at package-init time since the YAML is embedded at compile time.
func MustLoadTypemap(lang string) *Typemap {
	tm, err := LoadTypemap(lang)
	if err != nil {
		panic(fmt.Sprintf("cgogen: %v", err))
	}
	return tm
}

// Intrinsic reports whether name resolves through the builtin tables alone,
// without having been discovered in the input.
func (tm *Typemap) Intrinsic(name decl.Name) bool {
	_, ok := tm.Typedefs[string(name)]
	return ok
}

// Builtin looks up the mapping for a builtin spelling or intrinsic typedef.
func (tm *Typemap) Builtin(spelling string) (Mapping, bool) {
	s := normalizeSpelling(spelling)
	if m, ok := tm.Keywords[s]; ok {
		return m, true
	}
	m, ok := tm.Typedefs[s]
	return m, ok
}

// normalizeSpelling collapses whitespace so "unsigned   long int" and
// "unsigned long int" hit the same table entry.
func normalizeSpelling(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
