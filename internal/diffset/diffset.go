// Package diffset compares the binding surfaces recorded by two manifests.
package diffset

import (
	"fmt"
	"strings"

	"cgogen/internal/manifest"
	"cgogen/internal/report"
)

// Diff reports identity groups that were added, removed, or changed shape
// between two manifests. Order follows the manifests themselves: additions
// and changes in new-manifest order, removals in old-manifest order.
func Diff(oldLabel, newLabel string, oldM, newM manifest.Manifest) report.SurfaceDiffReport {
	r := report.SurfaceDiffReport{Old: oldLabel, New: newLabel}
	oldIdx := oldM.Index()
	newIdx := newM.Index()

	for _, name := range groupOrder(newM) {
		if _, ok := oldIdx[name]; !ok {
			r.Added = append(r.Added, name)
		}
	}
	for _, name := range groupOrder(oldM) {
		if _, ok := newIdx[name]; !ok {
			r.Removed = append(r.Removed, name)
		}
	}
	for _, name := range groupOrder(newM) {
		before, ok := oldIdx[name]
		if !ok {
			continue
		}
		if details := compare(before, newIdx[name]); len(details) > 0 {
			r.Changed = append(r.Changed, report.GroupChange{Name: name, Details: details})
		}
	}
	return r
}

// groupOrder lists a manifest's identities in first-appearance order.
func groupOrder(m manifest.Manifest) []string {
	var names []string
	seen := make(map[string]bool)
	for _, e := range m.Entries {
		if seen[e.Name] {
			continue
		}
		seen[e.Name] = true
		names = append(names, e.Name)
	}
	return names
}

// compare describes shape differences between two versions of one identity
// group. An empty result means the group is unchanged.
func compare(before, after []manifest.Entry) []string {
	var details []string

	if len(before) != len(after) {
		details = append(details, fmt.Sprintf("members %d → %d", len(before), len(after)))
	}
	if bk, ak := kinds(before), kinds(after); bk != ak {
		details = append(details, fmt.Sprintf("kind %s → %s", bk, ak))
	}
	if bd, ad := deps(before), deps(after); bd != ad {
		details = append(details, fmt.Sprintf("deps [%s] → [%s]", bd, ad))
	}
	if bo, ao := opaque(before), opaque(after); bo != ao {
		details = append(details, fmt.Sprintf("opaque %v → %v", bo, ao))
	}
	return details
}

func kinds(group []manifest.Entry) string {
	parts := make([]string, len(group))
	for i, e := range group {
		parts[i] = e.Kind
	}
	return strings.Join(parts, "+")
}

func deps(group []manifest.Entry) string {
	var all []string
	seen := make(map[string]bool)
	for _, e := range group {
		for _, d := range e.Deps {
			if seen[d] {
				continue
			}
			seen[d] = true
			all = append(all, d)
		}
	}
	return strings.Join(all, " ")
}

func opaque(group []manifest.Entry) bool {
	for _, e := range group {
		if e.Opaque {
			return true
		}
	}
	return false
}
