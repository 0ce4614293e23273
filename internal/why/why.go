// Package why explains reachability: given a pruned declaration batch, it
// finds the shortest dependency chain from the allowlist to one identity.
package why

import (
	"cgogen/internal/decl"
	"cgogen/internal/gc"
	"cgogen/internal/report"
)

// Explain runs a breadth-first search from the allowlisted identities over
// the batch's dependency edges and returns the first chain that lands on
// target. Ties are broken by batch order, so the answer is stable. The
// target may be an intrinsic: an identity the batch never defines but some
// surviving declaration depends on. Found is false when no chain exists,
// which for a pruned batch means the identity did not survive.
func Explain[P any](decls []decl.Decl[P], allow gc.Oracle, target decl.Name) report.WhyReport {
	r := report.WhyReport{Target: string(target)}

	byName := decl.Index(decls)
	edges := decl.Edges(decls)

	// Parents are recorded at enqueue time, so the first route found is the
	// shortest one.
	parent := make(map[decl.Name]decl.Name)
	visited := make(map[decl.Name]bool)
	var queue []decl.Name
	for _, d := range decls {
		if allow.Contains(d.AllowName) && !visited[d.Name] {
			visited[d.Name] = true
			queue = append(queue, d.Name)
		}
	}

	found := false
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == target {
			found = true
			break
		}
		for _, dep := range edges[cur] {
			if !visited[dep] {
				visited[dep] = true
				parent[dep] = cur
				queue = append(queue, dep)
			}
		}
	}
	if !found {
		return r
	}
	r.Found = true

	var chain []decl.Name
	for cur := target; ; {
		chain = append(chain, cur)
		p, ok := parent[cur]
		if !ok {
			break
		}
		cur = p
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	for _, name := range chain {
		step := report.ChainStep{Name: string(name)}
		if group, ok := byName[name]; ok {
			step.Kind = string(group[0].Kind)
			step.Pos = group[0].Pos.String()
			step.Members = len(group)
		} else {
			step.Intrinsic = true
		}
		r.Chain = append(r.Chain, step)
	}
	return r
}
