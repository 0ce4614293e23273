package frontend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cgogen/internal/decl"
	"cgogen/internal/frontend/cheader"
	"cgogen/internal/frontend/clangjson"
	"cgogen/internal/frontend/gopkg"
)

// Frontend discovers every declaration syntactically present in one input.
// Discovery is eager: frontends do not filter, that happens later.
type Frontend interface {
	Name() string
	Discover(ctx context.Context, input string) ([]decl.Decl[decl.Info], error)
}

// ForInput returns a Frontend for the given language specifier.
// lang may be "auto", "cheader", "clangjson", or "gopkg".
// "auto" detects from the input's extension and shape.
func ForInput(lang, input string) (Frontend, error) {
	if lang == "auto" {
		lang = detect(input)
	}
	switch lang {
	case "cheader":
		return &cheader.Frontend{}, nil
	case "clangjson":
		return &clangjson.Frontend{}, nil
	case "gopkg":
		return &gopkg.Frontend{}, nil
	default:
		return nil, fmt.Errorf("unknown language %q; choose auto|cheader|clangjson|gopkg", lang)
	}
}

func detect(input string) string {
	switch strings.ToLower(filepath.Ext(input)) {
	case ".h", ".hh":
		return "cheader"
	case ".json":
		return "clangjson"
	}
	if strings.Contains(input, "...") || dirExists(input) {
		return "gopkg"
	}
	return "cheader"
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Merge concatenates discovery batches in input order, dropping exact
// re-declarations: the same identity, kind, and own name seen again (a
// prototype repeated across headers) keeps its first occurrence only.
func Merge(batches ...[]decl.Decl[decl.Info]) []decl.Decl[decl.Info] {
	type key struct {
		name  decl.Name
		kind  decl.Kind
		ident string
	}
	seen := make(map[key]bool)
	var merged []decl.Decl[decl.Info]
	for _, batch := range batches {
		for _, d := range batch {
			k := key{d.Name, d.Kind, d.Analysis.Ident}
			if seen[k] {
				continue
			}
			seen[k] = true
			merged = append(merged, d)
		}
	}
	return merged
}
