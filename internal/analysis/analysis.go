package analysis

import (
	"cgogen/internal/decl"
	"cgogen/internal/directive"
)

// Facts is the per-declaration outcome of the passes that run between
// discovery and pruning. The embedded Info is carried through from discovery
// unchanged; Stripped lists the dependency edges removed because the
// declaration went opaque.
type Facts struct {
	decl.Info
	Opaque   bool        `json:"opaque,omitempty"`
	Reason   string      `json:"reason,omitempty"`
	Stripped []decl.Name `json:"stripped,omitempty"`
}

// Summary reports what the passes changed.
type Summary struct {
	Blocked []string    // names removed by block directives
	Skipped []string    // callables discovery could not bind, with reasons
	Opaqued []decl.Name // identities forced opaque, in marking order
}

// Run applies block directives and opaque propagation to a discovery batch.
// Blocked declarations leave the batch entirely, as do callables discovery
// flagged unbindable (variadic functions and the like). Opaque types stay
// but lose their dependency edges, so anything only their fields needed
// becomes unreachable for the pruning pass that follows.
func Run(decls []decl.Decl[decl.Info], dir *directive.Directives) ([]decl.Decl[Facts], Summary) {
	var sum Summary

	kept := make([]decl.Decl[decl.Info], 0, len(decls))
	for _, d := range decls {
		if name, hit := blocked(d, dir.Block); hit {
			sum.Blocked = append(sum.Blocked, name)
			continue
		}
		if r := d.Analysis.Unbindable; r != "" && !isType(d.Kind) {
			sum.Skipped = append(sum.Skipped, d.Analysis.Ident+": "+r)
			continue
		}
		kept = append(kept, d)
	}

	reasons, order := markOpaque(kept, dir.Opaque)
	sum.Opaqued = order

	out := make([]decl.Decl[Facts], 0, len(kept))
	for _, d := range kept {
		nd := decl.Decl[Facts]{
			Kind:      d.Kind,
			Name:      d.Name,
			AllowName: d.AllowName,
			Deps:      d.Deps,
			Pos:       d.Pos,
			Analysis:  Facts{Info: d.Analysis},
		}
		if reason, opaque := reasons[d.Name]; opaque && isType(d.Kind) {
			nd.Analysis.Opaque = true
			nd.Analysis.Reason = reason
			nd.Analysis.Stripped = d.Deps
			nd.Deps = nil
		}
		out = append(out, nd)
	}
	return out, sum
}

// blocked reports whether a block entry matches the declaration, either by
// its allowlist-form name (which bans a type together with its members) or
// by the qualified member form "Owner.member".
func blocked(d decl.Decl[decl.Info], block *directive.Set) (string, bool) {
	if block.Contains(d.AllowName) {
		return d.AllowName, true
	}
	if d.Kind == decl.KindMethod || d.Kind == decl.KindField {
		if q := d.AllowName + "." + d.Analysis.Ident; block.Contains(q) {
			return q, true
		}
	}
	return "", false
}

func isType(k decl.Kind) bool {
	switch k {
	case decl.KindStruct, decl.KindUnion, decl.KindEnum, decl.KindTypedef:
		return true
	}
	return false
}
