package analysis

import (
	"cgogen/internal/decl"
	"cgogen/internal/directive"
)

// markOpaque finds every type that must be treated as opaque: those the user
// marked, those discovery flagged as unbindable, and transitively every type
// holding an opaque type by value. A by-value member of an opaque type makes
// the holder's layout unexpressable too; behind a pointer it stays a plain
// handle. Propagation is a worklist over reverse containment edges and
// terminates because each identity is marked at most once.
func markOpaque(decls []decl.Decl[decl.Info], opaqueDir *directive.Set) (map[decl.Name]string, []decl.Name) {
	reasons := make(map[decl.Name]string)
	var order []decl.Name
	mark := func(n decl.Name, reason string) bool {
		if _, done := reasons[n]; done {
			return false
		}
		reasons[n] = reason
		order = append(order, n)
		return true
	}

	// holders[T] lists the types that hold T by value.
	holders := make(map[decl.Name][]decl.Name)
	for _, d := range decls {
		if !isType(d.Kind) {
			continue
		}
		for _, f := range d.Analysis.Fields {
			if f.Type.Name != "" && f.Type.ByValue() {
				holders[f.Type.Name] = append(holders[f.Type.Name], d.Name)
			}
		}
		if t := d.Analysis.Target; t != nil && t.Name != "" && t.ByValue() {
			holders[t.Name] = append(holders[t.Name], d.Name)
		}
	}

	var queue []decl.Name
	for _, d := range decls {
		if !isType(d.Kind) {
			continue
		}
		if r := d.Analysis.Unbindable; r != "" && mark(d.Name, r) {
			queue = append(queue, d.Name)
		}
		if opaqueDir.Contains(d.AllowName) && mark(d.Name, "opaque directive") {
			queue = append(queue, d.Name)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, h := range holders[cur] {
			if mark(h, "holds opaque "+string(cur)+" by value") {
				queue = append(queue, h)
			}
		}
	}
	return reasons, order
}
