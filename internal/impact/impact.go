// Package impact answers the inverse of pruning: which survivors would be
// dragged down if one identity became unbindable.
package impact

import (
	"cgogen/internal/decl"
	"cgogen/internal/gc"
	"cgogen/internal/report"
)

// Compute walks the reverse dependency edges of a pruned batch starting at
// target and collects every identity that reaches it. Those are the
// declarations that would lose their bindings if target were banned, forced
// opaque without fields, or dropped from the input. Roots are the affected
// identities the allowlist named directly; losing one of those is what a
// user notices first. Lost and Roots come back in batch order.
func Compute[P any](decls []decl.Decl[P], allow gc.Oracle, target decl.Name) report.ImpactReport {
	r := report.ImpactReport{Target: string(target)}

	byName := decl.Index(decls)
	if _, ok := byName[target]; !ok {
		return r
	}
	r.Present = true

	rev := decl.ReverseEdges(decls)

	affected := make(map[decl.Name]int)
	queue := []decl.Name{target}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, parent := range rev[cur] {
			if parent == target {
				continue
			}
			if _, seen := affected[parent]; !seen {
				depth := affected[cur] + 1
				affected[parent] = depth
				if depth > r.Depth {
					r.Depth = depth
				}
				queue = append(queue, parent)
			}
		}
	}

	for _, name := range decl.Names(decls) {
		if _, ok := affected[name]; !ok {
			continue
		}
		r.Lost = append(r.Lost, string(name))
		group := byName[name]
		r.DeclsTouched += len(group)
		for _, d := range group {
			if allow.Contains(d.AllowName) {
				r.Roots = append(r.Roots, string(name))
				break
			}
		}
	}
	return r
}
