package gc

import "cgogen/internal/decl"

// Oracle reports whether an allowlist-form name was requested by the user.
// Implementations must be pure: the same name gets the same answer for the
// whole of a call into this package.
type Oracle interface {
	Contains(allowName string) bool
}

// Filter is mark-and-sweep over a discovered declaration batch: it returns
// the declarations reachable from the allowlist by following dependency
// edges. Discovery is eager, so a batch holds far more than the user asked
// for, and earlier passes strip edges on top of that. A type forced opaque
// loses its field edges, so field types nothing else needs become garbage; a
// blocked function leaves its parameter types orphaned the same way. None of
// that may reach emission.
//
// Dependency edges may point at identities absent from the batch. Those are
// taken to be intrinsics (uint32_t, size_t) and skipped without error. A
// Name shared by several declarations keeps or drops them as one unit, in
// batch order. The result is closed under Deps.
func Filter[P any](decls []decl.Decl[P], allow Oracle) []decl.Decl[P] {
	var todo []decl.Name
	for _, d := range decls {
		if allow.Contains(d.AllowName) {
			todo = append(todo, d.Name)
		}
	}

	byName := make(map[decl.Name][]decl.Decl[P], len(decls))
	for _, d := range decls {
		byName[d.Name] = append(byName[d.Name], d)
	}

	done := make(map[decl.Name]bool, len(todo))
	var output []decl.Decl[P]
	for len(todo) > 0 {
		name := todo[0]
		todo = todo[1:]
		if done[name] {
			continue
		}
		group, ok := byName[name]
		if !ok {
			// Unknown identity, so an intrinsic. Nothing to pull in.
			done[name] = true
			continue
		}
		delete(byName, name)
		for _, d := range group {
			todo = append(todo, d.Deps...)
		}
		output = append(output, group...)
		done[name] = true
	}
	return output
}
