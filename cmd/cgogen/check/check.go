package check

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"cgogen/internal/diffset"
	"cgogen/internal/manifest"
	"cgogen/internal/pipeline"
	"cgogen/internal/report"
)

func Run(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	lang := fs.String("lang", "auto", "frontend: auto|cheader|clangjson|gopkg")
	directives := fs.String("directives", "", "directive file (default: cgogen.yaml next to the first input)")
	pkg := fs.String("package", "", "override the emitted package name")
	header := fs.String("header", "", "override the #include target in the cgo preamble")
	out := fs.String("o", "", "committed output file (default: derived from the package name)")
	manifestPath := fs.String("manifest", "cgogen.manifest.json", "committed manifest file")
	strict := fs.Bool("strict", false, "also fail on generate entries that matched nothing")
	jobs := fs.Int("jobs", 0, "concurrent discovery workers (0 = default)")
	noCache := fs.Bool("no-cache", false, "bypass the discovery cache")
	verbose := fs.Bool("verbose", false, "enable verbose debug logging")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: cgogen check [flags] <input>...")
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

	r, err := pipeline.Run(context.Background(), opt)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	art, err := r.Emit()
	if err != nil {
		fmt.Fprintln(os.Stderr, "emit:", err)
		return 2
	}

	outPath := *out
	if outPath == "" {
		outPath = r.OutputName()
	}

	var stale []string
	want := artifactBytes(art)
	got, err := os.ReadFile(outPath)
	switch {
	case os.IsNotExist(err):
		stale = append(stale, outPath+" (missing)")
	case err != nil:
		fmt.Fprintln(os.Stderr, "read output:", err)
		return 2
	case !bytes.Equal(got, want):
		stale = append(stale, outPath)
	}

	var surface report.SurfaceDiffReport
	if _, err := os.Stat(*manifestPath); err == nil {
		committed, err := manifest.Read(*manifestPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		surface = diffset.Diff("committed", "regenerated", committed, r.Manifest("dev"))
		if !surface.Empty() {
			stale = append(stale, *manifestPath)
		}
	}

	const (
		red   = "\033[31m"
		green = "\033[32m"
		reset = "\033[0m"
	)

	rep := r.Report()
	failed := false

	if len(stale) > 0 {
		failed = true
		for _, s := range stale {
			fmt.Printf("%sstale: %s%s\n", red, s, reset)
		}
		if !surface.Empty() {
			fmt.Println()
			report.WriteSurfaceDiff(os.Stdout, surface)
		}
		fmt.Printf("\nrun: cgogen generate %s\n", strings.Join(fs.Args(), " "))
	}

	if *strict && len(rep.Unmatched) > 0 {
		failed = true
		fmt.Printf("%sgenerate entries that matched nothing:%s\n", red, reset)
		for _, u := range rep.Unmatched {
			fmt.Printf("  %s\n", u)
		}
	}

	if failed {
		return 1
	}
	fmt.Printf("%sup to date%s  (%d bindings)\n", green, reset, rep.Kept)
	return 0
}

func artifactBytes(a pipeline.Artifacts) []byte {
	if len(a.Export) > 0 {
		return a.Export
	}
	return a.Bindings
}
