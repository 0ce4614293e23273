package history

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"cgogen/internal/history"
	"cgogen/internal/pipeline"
)

func Run(args []string) int {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "JSON output")
	lang := fs.String("lang", "auto", "frontend: auto|cheader|clangjson|gopkg")
	directives := fs.String("directives", "", "directive file (default: cgogen.yaml next to the first input)")
	fs.Parse(args)

	rest := fs.Args()
	sub := ""
	if len(rest) > 0 {
		sub = rest[0]
	}

	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	switch sub {
	case "record":
		return runRecord(dir, *lang, *directives, rest[1:])
	case "show":
		return runShow(dir, *jsonOut)
	case "", "diff":
		var diffArgs []string
		if len(rest) > 1 {
			diffArgs = rest[1:]
		}
		return runDiff(dir, *jsonOut, diffArgs...)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n", sub)
		fmt.Fprintln(os.Stderr, "usage: cgogen history [record|show|diff] [--json] [N [M]]")
		return 2
	}
}

func runRecord(dir, lang, directives string, inputs []string) int {
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: cgogen history record <input>...")
		return 2
	}

	opt := pipeline.Options{
		Inputs:     inputs,
		Lang:       lang,
		Directives: directives,
	}
	r, err := pipeline.Run(context.Background(), opt)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	rep := r.Report()

	snap := history.Snapshot{
		Commit:           currentCommit(),
		Inputs:           rep.Inputs,
		Frontend:         rep.Frontend,
		DirectivesDigest: r.Digest,
		Discovered:       rep.Discovered,
		Kept:             rep.Kept,
		Dropped:          rep.Dropped,
		Seeds:            rep.Seeds,
	}

	h, err := history.Load(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load history:", err)
		return 2
	}
	h.Record(snap)
	if err := h.Save(dir); err != nil {
		fmt.Fprintln(os.Stderr, "save history:", err)
		return 2
	}

	last := h.Snapshots[len(h.Snapshots)-1]
	fmt.Printf("recorded snapshot at %s  kept=%d/%d  commit=%s\n",
		last.Timestamp, snap.Kept, snap.Discovered, snap.Commit)
	return 0
}

func runShow(dir string, jsonOut bool) int {
	h, err := history.Load(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load history:", err)
		return 2
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(h.Snapshots)
		return 0
	}

	if len(h.Snapshots) == 0 {
		fmt.Println("no history recorded; run: cgogen history record <input>...")
		return 0
	}

	const (
		bold  = "\033[1m"
		reset = "\033[0m"
		red   = "\033[31m"
		green = "\033[32m"
		gray  = "\033[90m"
	)

	fmt.Printf("%s%-4s  %-25s  %-12s  %10s  %6s  %5s  %-10s%s\n",
		bold, "#", "TIMESTAMP", "COMMIT", "DISCOVERED", "KEPT", "SEEDS", "TREND", reset)
	fmt.Println(strings.Repeat("─", 85))

	for i, snap := range h.Snapshots {
		commit := snap.Commit
		if commit == "" {
			commit = "—"
		}

		trend := gray + "—" + reset
		if i > 0 {
			delta := snap.Kept - h.Snapshots[i-1].Kept
			switch {
			case delta > 0:
				trend = fmt.Sprintf("%s↑ +%d%s", green, delta, reset)
			case delta < 0:
				trend = fmt.Sprintf("%s↓ %d%s", red, delta, reset)
			default:
				trend = gray + "→" + reset
			}
		}

		fmt.Printf("%-4d  %-25s  %-12s  %10d  %6d  %5d  %s\n",
			i+1, snap.Timestamp, commit, snap.Discovered, snap.Kept, snap.Seeds, trend)
	}

	const maxSpark = 30
	snaps := h.Snapshots
	if len(snaps) > maxSpark {
		snaps = snaps[len(snaps)-maxSpark:]
	}
	maxKept := 0
	for _, s := range snaps {
		if s.Kept > maxKept {
			maxKept = s.Kept
		}
	}
	if maxKept > 0 {
		vals := make([]int, 0, len(snaps))
		for _, s := range snaps {
			vals = append(vals, s.Kept*100/maxKept)
		}
		fmt.Printf("\nkept trend (last %d): %s\n", len(snaps), buildSparkline(vals))
	}
	return 0
}

func runDiff(dir string, jsonOut bool, indices ...string) int {
	h, err := history.Load(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load history:", err)
		return 2
	}
	n := len(h.Snapshots)
	if n < 2 {
		fmt.Fprintln(os.Stderr, "need at least 2 snapshots; run: cgogen history record <input>...")
		return 1
	}

	parseIdx := func(s string) (int, bool) {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > n {
			fmt.Fprintf(os.Stderr, "snapshot index %q out of range 1..%d\n", s, n)
			return 0, false
		}
		return v - 1, true
	}

	oldIdx, curIdx := n-2, n-1
	switch len(indices) {
	case 1:
		i, ok := parseIdx(indices[0])
		if !ok {
			return 2
		}
		oldIdx = i
	case 2:
		i, ok := parseIdx(indices[0])
		if !ok {
			return 2
		}
		j, ok := parseIdx(indices[1])
		if !ok {
			return 2
		}
		oldIdx, curIdx = i, j
	}

	old := h.Snapshots[oldIdx]
	cur := h.Snapshots[curIdx]
	delta := history.Diff(old, cur)

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(delta)
		return 0
	}

	printDelta(old, cur, delta)
	return 0
}

func printDelta(old, cur history.Snapshot, d history.Delta) {
	const (
		red   = "\033[31m"
		green = "\033[32m"
		gray  = "\033[90m"
		bold  = "\033[1m"
		reset = "\033[0m"
	)

	fmt.Printf("%sdrift  %s → %s%s\n\n", bold, old.Timestamp, cur.Timestamp, reset)

	col := gray
	switch d.Change {
	case "grew":
		col = green
	case "shrank":
		col = red
	}
	fmt.Printf("  %-12s  %4d → %-4d  %s%+d (%s)%s\n", "kept", old.Kept, cur.Kept, col, d.KeptChange, d.Change, reset)
	fmt.Printf("  %-12s  %4d → %-4d  %+d\n", "discovered", old.Discovered, cur.Discovered, d.DiscoveredChange)
	fmt.Printf("  %-12s  %4d → %-4d  %+d\n", "seeds", old.Seeds, cur.Seeds, d.SeedsChange)
	if d.DirectivesChanged {
		fmt.Printf("  %-12s  %schanged%s\n", "directives", red, reset)
	}
}

// buildSparkline converts a slice of values (0–100) into a unicode block sparkline.
func buildSparkline(vals []int) string {
	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	var sb strings.Builder
	for _, v := range vals {
		if v < 0 {
			v = 0
		}
		if v > 100 {
			v = 100
		}
		idx := v * (len(blocks) - 1) / 100
		sb.WriteRune(blocks[idx])
	}
	return sb.String()
}

func currentCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
