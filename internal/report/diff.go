package report

import (
	"encoding/json"
	"fmt"
	"io"
)

// SurfaceDiffReport describes how a binding surface moved between two runs.
type SurfaceDiffReport struct {
	Old     string
	New     string
	Added   []string
	Removed []string
	Changed []GroupChange
}

// GroupChange is one identity whose declaration group changed shape.
type GroupChange struct {
	Name    string
	Details []string
}

// Empty reports whether the two surfaces are identical.
func (r SurfaceDiffReport) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Changed) == 0
}

func WriteSurfaceDiff(w io.Writer, r SurfaceDiffReport) {
	fmt.Fprintf(w, "%s%s=== Surface Diff ===%s\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(w, "%s → %s\n\n", r.Old, r.New)

	if r.Empty() {
		fmt.Fprintf(w, "%sNo surface changes.%s\n", colorGreen, colorReset)
		return
	}

	for _, a := range r.Added {
		fmt.Fprintf(w, "  %s+ %s%s\n", colorGreen, a, colorReset)
	}
	for _, rm := range r.Removed {
		fmt.Fprintf(w, "  %s- %s%s\n", colorRed, rm, colorReset)
	}
	for _, c := range r.Changed {
		fmt.Fprintf(w, "  %s~ %s%s\n", colorYellow, c.Name, colorReset)
		for _, d := range c.Details {
			fmt.Fprintf(w, "      %s\n", d)
		}
	}

	if len(r.Removed) > 0 {
		fmt.Fprintf(w, "\n%s%s%d identities removed — downstream callers may break%s\n",
			colorBold, colorRed, len(r.Removed), colorReset)
	}
}

func WriteSurfaceDiffJSON(w io.Writer, r SurfaceDiffReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
