package generate

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"cgogen/internal/history"
	"cgogen/internal/pipeline"
	"cgogen/internal/report"
)

var version = "dev"

func Run(args []string) int {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "JSON report output")
	sarifOut := fs.Bool("sarif", false, "SARIF 2.1.0 report output")
	lang := fs.String("lang", "auto", "frontend: auto|cheader|clangjson|gopkg")
	directives := fs.String("directives", "", "directive file (default: cgogen.yaml next to the first input)")
	pkg := fs.String("package", "", "override the emitted package name")
	header := fs.String("header", "", "override the #include target in the cgo preamble")
	out := fs.String("o", "", "output file (default: derived from the package name)")
	manifestPath := fs.String("manifest", "cgogen.manifest.json", "manifest output file")
	jobs := fs.Int("jobs", 0, "concurrent discovery workers (0 = default)")
	dryRun := fs.Bool("dry-run", false, "run the pipeline but write nothing")
	noHistory := fs.Bool("no-history", false, "do not append a history snapshot")
	noCache := fs.Bool("no-cache", false, "bypass the discovery cache")
	timings := fs.Bool("timings", false, "print per-phase timing breakdown after output")
	verbose := fs.Bool("verbose", false, "enable verbose debug logging")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: cgogen generate [flags] <input>...")
		return 2
	}

	if *verbose {
		pipeline.SetVerbose(true)
	}

	cache := pipeline.NewCache()
	if *noCache {
		cache = pipeline.NewCacheDisabled()
	}

	opt := pipeline.Options{
		Inputs:     fs.Args(),
		Lang:       *lang,
		Directives: *directives,
		Package:    *pkg,
		Header:     *header,
		Jobs:       *jobs,
		Cache:      cache,
	}

	// Phase: discover, analyze, prune, order
	t0 := time.Now()
	r, err := pipeline.Run(context.Background(), opt)
	runDur := time.Since(t0)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	// Phase: emit
	t1 := time.Now()
	art, err := r.Emit()
	emitDur := time.Since(t1)
	if err != nil {
		fmt.Fprintln(os.Stderr, "emit:", err)
		return 2
	}

	rep := r.Report()

	// Phase: write artifacts
	t2 := time.Now()
	outPath := *out
	if outPath == "" {
		outPath = r.OutputName()
	}
	if !*dryRun {
		if err := os.WriteFile(outPath, artifactBytes(art), 0644); err != nil {
			fmt.Fprintln(os.Stderr, "write output:", err)
			return 2
		}
		m := r.Manifest(version)
		data, err := m.Encode()
		if err != nil {
			fmt.Fprintln(os.Stderr, "encode manifest:", err)
			return 2
		}
		if err := os.WriteFile(*manifestPath, append(data, '\n'), 0644); err != nil {
			fmt.Fprintln(os.Stderr, "write manifest:", err)
			return 2
		}
	}
	writeDur := time.Since(t2)

	var writeErr error
	switch {
	case *sarifOut:
		writeErr = report.WritePruneSARIF(os.Stdout, rep, version)
	case *jsonOut:
		writeErr = report.WritePruneJSON(os.Stdout, rep)
	default:
		report.WritePrune(os.Stdout, rep)
		if !*dryRun {
			fmt.Fprintf(os.Stdout, "\nwrote %s (%d bindings)\n", outPath, rep.Kept)
		}
	}
	if writeErr != nil {
		fmt.Fprintln(os.Stderr, "write output:", writeErr)
		return 2
	}

	if !*dryRun && !*noHistory {
		recordSnapshot(r, rep)
	}

	if *timings {
		hits, misses := cache.Stats()
		total := runDur + emitDur + writeDur
		fmt.Fprintln(os.Stdout)
		fmt.Fprintln(os.Stdout, "=== Timings ===")
		fmt.Fprintf(os.Stdout, "%-25s  %s\n", "discover+prune", fmtDur(runDur))
		fmt.Fprintf(os.Stdout, "  %-23s  %d hits, %d misses\n", "discovery cache", hits, misses)
		fmt.Fprintf(os.Stdout, "%-25s  %s\n", "emit", fmtDur(emitDur))
		fmt.Fprintf(os.Stdout, "%-25s  %s\n", "write artifacts", fmtDur(writeDur))
		fmt.Fprintln(os.Stdout, strings.Repeat("─", 40))
		fmt.Fprintf(os.Stdout, "%-25s  %s\n", "total", fmtDur(total))
	}

	return 0
}

func artifactBytes(a pipeline.Artifacts) []byte {
	if len(a.Export) > 0 {
		return a.Export
	}
	return a.Bindings
}

// recordSnapshot appends this run's totals to the history file. History is
// best-effort: a failure warns and never fails the run.
func recordSnapshot(r *pipeline.Result, rep report.PruneReport) {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	h, err := history.Load(dir)
	if err != nil {
		pipeline.Warnf("load history: %v", err)
		return
	}
	h.Record(history.Snapshot{
		Commit:           currentCommit(),
		Inputs:           rep.Inputs,
		Frontend:         rep.Frontend,
		DirectivesDigest: r.Digest,
		Discovered:       rep.Discovered,
		Kept:             rep.Kept,
		Dropped:          rep.Dropped,
		Seeds:            rep.Seeds,
	})
	if err := h.Save(dir); err != nil {
		pipeline.Warnf("save history: %v", err)
	}
}

func currentCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
