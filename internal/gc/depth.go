package gc

import "cgogen/internal/decl"

// Depths returns, for every identity Filter would keep, its distance in
// hops from the nearest allowlisted declaration. Seeds are depth 0.
// Identities absent from the batch get no entry.
func Depths[P any](decls []decl.Decl[P], allow Oracle) map[decl.Name]int {
	byName := decl.Index(decls)
	depths := make(map[decl.Name]int)
	visited := make(map[decl.Name]bool)
	queue := []struct {
		name  decl.Name
		depth int
	}{}
	for _, d := range decls {
		if allow.Contains(d.AllowName) {
			queue = append(queue, struct {
				name  decl.Name
				depth int
			}{d.Name, 0})
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur.name] {
			continue
		}
		visited[cur.name] = true
		group, ok := byName[cur.name]
		if !ok {
			continue
		}
		depths[cur.name] = cur.depth
		for _, d := range group {
			for _, dep := range d.Deps {
				if !visited[dep] {
					queue = append(queue, struct {
						name  decl.Name
						depth int
					}{dep, cur.depth + 1})
				}
			}
		}
	}
	return depths
}
