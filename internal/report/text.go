package report

import (
	"fmt"
	"io"
	"strings"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[36m"
)

// WritePrune renders the prune report for terminals.
func WritePrune(w io.Writer, r PruneReport) {
	fmt.Fprintf(w, "%s%s=== Prune Report ===%s\n\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(w, "Inputs:     %s\n", strings.Join(r.Inputs, ", "))
	fmt.Fprintf(w, "Frontend:   %s\n", r.Frontend)
	fmt.Fprintf(w, "Seeds:      %d\n", r.Seeds)
	fmt.Fprintf(w, "Kept:       %s%d%s of %d discovered (%s%d dropped%s)\n",
		colorGreen, r.Kept, colorReset, r.Discovered, colorYellow, r.Dropped, colorReset)

	if len(r.ByKind) > 0 {
		fmt.Fprintf(w, "\n%sBy kind:%s\n", colorBold, colorReset)
		for _, kc := range r.ByKind {
			fmt.Fprintf(w, "  %-10s %s%d kept%s, %d dropped\n", kc.Kind, colorGreen, kc.Kept, colorReset, kc.Dropped)
		}
	}

	if len(r.Intrinsics) > 0 {
		fmt.Fprintf(w, "\n%sIntrinsics:%s %s\n", colorBold, colorReset, strings.Join(r.Intrinsics, ", "))
	}
	if len(r.Blocked) > 0 {
		fmt.Fprintf(w, "\n%sBlocked:%s\n", colorBold, colorReset)
		for _, b := range r.Blocked {
			fmt.Fprintf(w, "  %s-%s %s\n", colorRed, colorReset, b)
		}
	}
	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "\n%sSkipped (unbindable):%s\n", colorBold, colorReset)
		for _, s := range r.Skipped {
			fmt.Fprintf(w, "  %s-%s %s\n", colorYellow, colorReset, s)
		}
	}
	if len(r.Opaqued) > 0 {
		fmt.Fprintf(w, "\n%sOpaque:%s %s\n", colorBold, colorReset, strings.Join(r.Opaqued, ", "))
	}
	if len(r.Unmatched) > 0 {
		fmt.Fprintf(w, "\n%sUnmatched generate entries:%s\n", colorBold, colorReset)
		for _, u := range r.Unmatched {
			fmt.Fprintf(w, "  %s?%s %s\n", colorYellow, colorReset, u)
		}
	}
}

// WriteWhy renders a reachability chain, one step per line, indented by
// distance from the allowlist root.
func WriteWhy(w io.Writer, r WhyReport) {
	fmt.Fprintf(w, "%s%s=== Reachability Chain ===%s\n\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(w, "Target: %s\n", r.Target)
	if !r.Found {
		fmt.Fprintf(w, "\n%snot reachable from the allowlist%s\n", colorRed, colorReset)
		return
	}
	fmt.Fprintln(w)
	for i, s := range r.Chain {
		label := s.Name
		switch {
		case s.Intrinsic:
			label += " (intrinsic)"
		case s.Pos != "":
			label += fmt.Sprintf(" (%s, %s)", s.Kind, s.Pos)
		case s.Kind != "":
			label += fmt.Sprintf(" (%s)", s.Kind)
		}
		if s.Members > 1 {
			label += fmt.Sprintf(" [%d decls]", s.Members)
		}
		indent := strings.Repeat("  ", i+1)
		if i == 0 {
			fmt.Fprintf(w, "%s%s%s%s (allowlisted)\n", indent, colorGreen, label, colorReset)
		} else {
			fmt.Fprintf(w, "%s%s\n", indent, label)
		}
	}
}

// WriteImpact renders what removing one identity would take down with it.
func WriteImpact(w io.Writer, r ImpactReport) {
	fmt.Fprintf(w, "%s%s=== Removal Impact ===%s\n\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(w, "Target:          %s\n", r.Target)
	if !r.Present {
		fmt.Fprintf(w, "\n%snot in the pruned set; removing it changes nothing%s\n", colorYellow, colorReset)
		return
	}
	fmt.Fprintf(w, "Lost identities: %d\n", len(r.Lost))
	fmt.Fprintf(w, "Lost roots:      %d\n", len(r.Roots))
	fmt.Fprintf(w, "Decls touched:   %d\n", r.DeclsTouched)
	fmt.Fprintf(w, "Max chain depth: %d\n", r.Depth)

	if len(r.Lost) > 0 {
		fmt.Fprintf(w, "\n%sLost:%s\n", colorBold, colorReset)
		for _, n := range r.Lost {
			fmt.Fprintf(w, "  %s\n", n)
		}
	}
	if len(r.Roots) > 0 {
		fmt.Fprintf(w, "\n%sAllowlist roots losing bindings:%s\n", colorBold, colorReset)
		for _, n := range r.Roots {
			fmt.Fprintf(w, "  %s%s%s\n", colorRed, n, colorReset)
		}
	}
}
