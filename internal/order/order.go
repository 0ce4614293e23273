package order

import "cgogen/internal/decl"

// Plan is the emission order for a pruned batch: identities listed
// dependencies-first, with members of dependency cycles flagged so emission
// can forward-declare them.
type Plan struct {
	Names  []decl.Name
	Cyclic map[decl.Name]bool
}

// sccState holds Tarjan's algorithm state for a single identity.
type sccState struct {
	index   int
	lowlink int
	onStack bool
}

// Emission computes the Plan for a batch using Tarjan's algorithm. SCCs
// complete in reverse topological order, which is exactly
// dependencies-before-dependents, so the plan falls out of the component
// pops. Identities are visited in batch order and edge lists are already
// deterministic, so no sorting is needed. Edges to identities outside the
// batch are intrinsics and do not constrain the order.
func Emission[P any](decls []decl.Decl[P]) Plan {
	names := decl.Names(decls)
	edges := decl.Edges(decls)
	present := make(map[decl.Name]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	var (
		index int
		stack []decl.Name
		state = make(map[decl.Name]*sccState, len(names))
		plan  = Plan{Cyclic: make(map[decl.Name]bool)}
	)

	var strongConnect func(decl.Name)
	strongConnect = func(v decl.Name) {
		state[v] = &sccState{index: index, lowlink: index, onStack: true}
		index++
		stack = append(stack, v)

		for _, w := range edges[v] {
			if !present[w] {
				continue
			}
			ws := state[w]
			if ws == nil {
				strongConnect(w)
				if state[w].lowlink < state[v].lowlink {
					state[v].lowlink = state[w].lowlink
				}
			} else if ws.onStack {
				if ws.index < state[v].lowlink {
					state[v].lowlink = ws.index
				}
			}
		}

		if state[v].lowlink == state[v].index {
			var members []decl.Name
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				state[w].onStack = false
				members = append(members, w)
				if w == v {
					break
				}
			}
			// Members pop in reverse discovery order.
			for i, j := 0, len(members)-1; i < j; i, j = i+1, j-1 {
				members[i], members[j] = members[j], members[i]
			}
			cyclic := len(members) > 1 || selfLoop(edges, v)
			for _, m := range members {
				if cyclic {
					plan.Cyclic[m] = true
				}
				plan.Names = append(plan.Names, m)
			}
		}
	}

	for _, n := range names {
		if state[n] == nil {
			strongConnect(n)
		}
	}
	return plan
}

func selfLoop(edges map[decl.Name][]decl.Name, n decl.Name) bool {
	for _, w := range edges[n] {
		if w == n {
			return true
		}
	}
	return false
}
