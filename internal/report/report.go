package report

import (
	"cgogen/internal/analysis"
	"cgogen/internal/decl"
)

// PruneReport summarizes one run of the pipeline: what discovery found,
// what the directives and analyses removed, and what survived pruning.
type PruneReport struct {
	Inputs     []string
	Frontend   string
	Discovered int
	Kept       int
	Dropped    int
	Seeds      int
	ByKind     []KindCount
	Intrinsics []string // referenced identities the batch never defined
	Blocked    []string
	Skipped    []string
	Opaqued    []string
	Unmatched  []string // generate entries that matched nothing
}

type KindCount struct {
	Kind    string
	Kept    int
	Dropped int
}

// WhyReport is the answer to "why did this identity survive pruning": the
// shortest dependency chain from an allowlisted declaration down to the
// target. Chain[0] is the allowlist root, the last step is the target.
type WhyReport struct {
	Target string
	Found  bool
	Chain  []ChainStep
}

// ChainStep is one identity along a reachability chain. Intrinsic steps
// were never in the batch; they only exist as dependency edges.
type ChainStep struct {
	Name      string
	Kind      string `json:",omitempty"`
	Pos       string `json:",omitempty"`
	Members   int    `json:",omitempty"`
	Intrinsic bool   `json:",omitempty"`
}

// ImpactReport describes what the pruned surface would lose if the target
// identity stopped being bindable: every surviving identity that reaches it,
// and the allowlist roots among them.
type ImpactReport struct {
	Target       string
	Present      bool
	Lost         []string
	Roots        []string
	DeclsTouched int
	Depth        int
}

// kindOrder fixes the reporting order of declaration kinds.
var kindOrder = []decl.Kind{
	decl.KindStruct, decl.KindUnion, decl.KindEnum, decl.KindTypedef,
	decl.KindFunction, decl.KindMethod, decl.KindConst, decl.KindVar,
}

// Build assembles a PruneReport from the declaration set before pruning,
// the pruned survivors, and the analysis summary.
func Build(before, after []decl.Decl[analysis.Facts], seeds int, sum analysis.Summary, unmatched []string, frontend string, inputs []string) PruneReport {
	r := PruneReport{
		Inputs:     inputs,
		Frontend:   frontend,
		Discovered: len(before),
		Kept:       len(after),
		Dropped:    len(before) - len(after),
		Seeds:      seeds,
		Unmatched:  unmatched,
		Blocked:    sum.Blocked,
		Skipped:    sum.Skipped,
	}
	for _, n := range sum.Opaqued {
		r.Opaqued = append(r.Opaqued, string(n))
	}

	keptByKind := make(map[decl.Kind]int)
	for _, d := range after {
		keptByKind[d.Kind]++
	}
	totalByKind := make(map[decl.Kind]int)
	for _, d := range before {
		totalByKind[d.Kind]++
	}
	for _, k := range kindOrder {
		total := totalByKind[k]
		if total == 0 {
			continue
		}
		kept := keptByKind[k]
		r.ByKind = append(r.ByKind, KindCount{Kind: string(k), Kept: kept, Dropped: total - kept})
	}

	present := make(map[decl.Name]bool, len(after))
	for _, d := range after {
		present[d.Name] = true
	}
	seen := make(map[decl.Name]bool)
	for _, d := range after {
		for _, dep := range d.Deps {
			if present[dep] || seen[dep] {
				continue
			}
			seen[dep] = true
			r.Intrinsics = append(r.Intrinsics, string(dep))
		}
	}
	return r
}
