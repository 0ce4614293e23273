package graph

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"cgogen/internal/decl"
	"cgogen/internal/pipeline"
)

func Run(args []string) int {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	all := fs.Bool("all", false, "include declarations the prune dropped (grey, dashed)")
	lang := fs.String("lang", "auto", "frontend: auto|cheader|clangjson|gopkg")
	directives := fs.String("directives", "", "directive file (default: cgogen.yaml next to the first input)")
	out := fs.String("o", "", "write DOT to a file instead of stdout")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: cgogen graph [flags] <input>...")
		return 2
	}

	opt := pipeline.Options{
		Inputs:     fs.Args(),
		Lang:       *lang,
		Directives: *directives,
	}

	r, err := pipeline.Run(context.Background(), opt)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	dot := renderDOT(r, *all)
	if *out == "" {
		os.Stdout.WriteString(dot)
		return 0
	}
	if err := os.WriteFile(*out, []byte(dot), 0644); err != nil {
		fmt.Fprintln(os.Stderr, "write graph:", err)
		return 2
	}
	fmt.Printf("wrote %s\n", *out)
	return 0
}

// renderDOT draws the identity graph in Graphviz DOT form. Allowlist roots
// are yellow, reached identities blue, pruned-away ones (with all set) grey
// and dashed. Identities that only exist as dependency edges get an ellipse.
func renderDOT(r *pipeline.Result, all bool) string {
	decls := r.Pruned
	if all {
		decls = r.Analyzed
	}

	kept := make(map[decl.Name]bool, len(r.Pruned))
	for _, d := range r.Pruned {
		kept[d.Name] = true
	}

	names := decl.Names(decls)
	idx := decl.Index(decls)
	edges := decl.Edges(decls)
	allow := r.Directives.Generate

	var sb strings.Builder
	sb.WriteString("digraph cgogen {\n")
	sb.WriteString("    rankdir=LR;\n")
	sb.WriteString("    node [shape=box, style=filled];\n")
	sb.WriteString("\n")

	for _, n := range names {
		group := idx[n]
		label := escapeDOTLabel(string(n))
		if len(group) == 1 {
			label += "\\n" + string(group[0].Kind)
		} else {
			label += fmt.Sprintf("\\n%d decls", len(group))
		}

		seed := false
		for _, d := range group {
			if allow.Contains(d.AllowName) {
				seed = true
				break
			}
		}

		id := sanitizeDOTID(string(n))
		switch {
		case seed && kept[n]:
			sb.WriteString(fmt.Sprintf("    %s [label=\"%s\", fillcolor=\"#ffd93d\"];\n", id, label))
		case kept[n]:
			sb.WriteString(fmt.Sprintf("    %s [label=\"%s\", fillcolor=\"#74b9ff\"];\n", id, label))
		default:
			sb.WriteString(fmt.Sprintf("    %s [label=\"%s\", fillcolor=\"#dfe6e9\", style=\"filled,dashed\"];\n", id, label))
		}
	}

	// Identities referenced by edges but never defined in the batch.
	defined := make(map[decl.Name]bool, len(names))
	for _, n := range names {
		defined[n] = true
	}
	intrinsicDrawn := make(map[decl.Name]bool)
	for _, n := range names {
		for _, dep := range edges[n] {
			if defined[dep] || intrinsicDrawn[dep] {
				continue
			}
			intrinsicDrawn[dep] = true
			sb.WriteString(fmt.Sprintf("    %s [label=\"%s\", shape=ellipse, fillcolor=\"#f5f6fa\"];\n",
				sanitizeDOTID(string(dep)), escapeDOTLabel(string(dep))))
		}
	}

	sb.WriteString("\n")
	for _, n := range names {
		from := sanitizeDOTID(string(n))
		for _, dep := range edges[n] {
			sb.WriteString(fmt.Sprintf("    %s -> %s;\n", from, sanitizeDOTID(string(dep))))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// sanitizeDOTID turns an identity into a bare DOT node ID.
func sanitizeDOTID(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	out := sb.String()
	if out == "" {
		return "_"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "n" + out
	}
	return out
}

func escapeDOTLabel(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
