// Package pipeline runs the generation stages end to end: discovery across
// inputs, directive analysis, reachability pruning, emission ordering, and
// the artifacts derived from the survivors.
package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"cgogen/internal/analysis"
	"cgogen/internal/decl"
	"cgogen/internal/directive"
	"cgogen/internal/emit"
	"cgogen/internal/frontend"
	"cgogen/internal/gc"
	"cgogen/internal/manifest"
	"cgogen/internal/order"
	"cgogen/internal/report"
)

// Options configure a pipeline run.
type Options struct {
	Inputs     []string // header files, clang AST dumps, or Go package patterns
	Lang       string   // frontend selector; "auto" sniffs per input
	Directives string   // directive file path; defaults to cgogen.yaml next to the first input
	Package    string   // overrides the directive file's package name
	Header     string   // include path written into the cgo preamble
	Jobs       int      // discovery parallelism; <=0 means 4
	Cache      *Cache   // nil disables caching
}

// Result is everything the stages computed, ready for rendering or emission.
type Result struct {
	opt        Options
	Directives *directive.Directives
	Frontend   string
	Analyzed   []decl.Decl[analysis.Facts] // post-directive batch, before pruning
	Pruned     []decl.Decl[analysis.Facts] // survivors, in emission order
	Plan       order.Plan
	Depths     map[decl.Name]int
	Seeds      int
	Summary    analysis.Summary
	Unmatched  []string
	Digest     string // directive file content digest
}

// Run discovers every input and takes the merged batch through analysis,
// pruning, and ordering. The directive file is loaded up front so a broken
// one fails before any discovery work starts.
func Run(ctx context.Context, opt Options) (*Result, error) {
	if len(opt.Inputs) == 0 {
		return nil, fmt.Errorf("no inputs")
	}

	dir, digest, err := loadDirectives(opt, opt.Inputs)
	if err != nil {
		return nil, err
	}

	discovered, frontends, err := Discover(ctx, opt)
	if err != nil {
		return nil, err
	}
	Infof("discovered %d declarations from %d inputs", len(discovered), len(opt.Inputs))

	return process(opt, opt.Inputs, dir, digest, discovered, frontends), nil
}

// RunFromDump runs the post-discovery stages over a previously written
// discovery dump, bypassing the frontends entirely.
func RunFromDump(d Dump, opt Options) (*Result, error) {
	inputs := opt.Inputs
	if len(inputs) == 0 {
		inputs = d.Inputs
	}
	dir, digest, err := loadDirectives(opt, inputs)
	if err != nil {
		return nil, err
	}
	return process(opt, inputs, dir, digest, d.Decls, d.Frontend), nil
}

func loadDirectives(opt Options, inputs []string) (*directive.Directives, string, error) {
	path, err := directivePath(opt, inputs)
	if err != nil {
		return nil, "", err
	}
	dir, err := directive.Load(path)
	if err != nil {
		return nil, "", err
	}
	digest, err := digestFile(path)
	if err != nil {
		return nil, "", err
	}
	return dir, digest, nil
}

func process(opt Options, inputs []string, dir *directive.Directives, digest string, discovered []decl.Decl[decl.Info], frontends string) *Result {
	analyzed, sum := analysis.Run(discovered, dir)
	pruned := gc.Filter(analyzed, dir.Generate)
	plan := order.Emission(pruned)
	Infof("kept %d of %d declarations", len(pruned), len(analyzed))

	r := &Result{
		opt:        opt,
		Directives: dir,
		Frontend:   frontends,
		Analyzed:   analyzed,
		Pruned:     arrange(pruned, plan),
		Plan:       plan,
		Depths:     gc.Depths(analyzed, dir.Generate),
		Seeds:      countSeeds(analyzed, dir.Generate),
		Summary:    sum,
		Unmatched:  dir.Generate.Unmatched(allowNames(discovered)),
		Digest:     digest,
	}
	r.opt.Inputs = inputs
	return r
}

// Discover runs every input through its frontend, concurrently, and merges
// the batches in input order so the result is independent of scheduling.
func Discover(ctx context.Context, opt Options) ([]decl.Decl[decl.Info], string, error) {
	lang := opt.Lang
	if lang == "" {
		lang = "auto"
	}
	cache := opt.Cache
	if cache == nil {
		cache = NewCacheDisabled()
	}
	jobs := opt.Jobs
	if jobs <= 0 {
		jobs = 4
	}

	batches := make([][]decl.Decl[decl.Info], len(opt.Inputs))
	names := make([]string, len(opt.Inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, input := range opt.Inputs {
		g.Go(func() error {
			fe, err := frontend.ForInput(lang, input)
			if err != nil {
				return err
			}
			names[i] = fe.Name()

			// Package patterns are not plain files; those skip the cache.
			key := ""
			if content, err := os.ReadFile(input); err == nil {
				key = cacheKey(content, fe.Name())
				if decls, ok := cache.Get(key, fe.Name()); ok {
					batches[i] = decls
					return nil
				}
			}

			decls, err := fe.Discover(gctx, input)
			if err != nil {
				return fmt.Errorf("discover %s: %w", input, err)
			}
			Debugf("%s: %d declarations", input, len(decls))
			if key != "" {
				cache.Put(key, fe.Name(), decls)
			}
			batches[i] = decls
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, "", err
	}
	return frontend.Merge(batches...), frontendLabel(names), nil
}

// Report summarizes the run for terminals and CI.
func (r *Result) Report() report.PruneReport {
	return report.Build(r.Analyzed, r.Pruned, r.Seeds, r.Summary, r.Unmatched, r.Frontend, r.opt.Inputs)
}

// Manifest captures the pruned surface for diffing and drift checks.
func (r *Result) Manifest(version string) manifest.Manifest {
	return manifest.Generate(r.Pruned, r.Depths, r.opt.Inputs, r.Digest, version)
}

// Artifacts are the generated sources. Bindings is set for C-family inputs
// (the Go side of the bridge); Export is set for Go inputs (the C header a
// downstream C caller includes).
type Artifacts struct {
	Bindings []byte
	Export   []byte
}

// Emit renders the surviving declarations in their emission order.
func (r *Result) Emit() (Artifacts, error) {
	tm, err := emit.LoadTypemap("c")
	if err != nil {
		return Artifacts{}, err
	}
	opt := emit.Options{
		Package: r.PackageName(),
		Header:  r.opt.Header,
		Typemap: tm,
	}
	if opt.Header == "" {
		opt.Header = filepath.Base(r.opt.Inputs[0])
	}

	var out Artifacts
	if r.Frontend == "gopkg" {
		out.Export, err = emit.ExportHeader(r.Pruned, opt)
	} else {
		out.Bindings, err = emit.Bindings(r.Pruned, opt)
	}
	return out, err
}

// PackageName resolves the emitted package name: flag override first, then
// the directive file, then a generic fallback.
func (r *Result) PackageName() string {
	if r.opt.Package != "" {
		return r.opt.Package
	}
	if r.Directives.Package != "" {
		return r.Directives.Package
	}
	return "bindings"
}

// OutputName is the default artifact filename for this run: the package name
// plus a suffix for the emission direction.
func (r *Result) OutputName() string {
	if r.Frontend == "gopkg" {
		return r.PackageName() + "_export.h"
	}
	return r.PackageName() + "_bindings.go"
}

// arrange reorders a pruned batch to the plan, keeping group order within
// each identity.
func arrange(decls []decl.Decl[analysis.Facts], plan order.Plan) []decl.Decl[analysis.Facts] {
	byName := decl.Index(decls)
	out := make([]decl.Decl[analysis.Facts], 0, len(decls))
	for _, n := range plan.Names {
		out = append(out, byName[n]...)
	}
	return out
}

func countSeeds[P any](decls []decl.Decl[P], allow gc.Oracle) int {
	seen := make(map[decl.Name]bool)
	for _, d := range decls {
		if allow.Contains(d.AllowName) {
			seen[d.Name] = true
		}
	}
	return len(seen)
}

func allowNames(decls []decl.Decl[decl.Info]) []string {
	seen := make(map[string]bool)
	var names []string
	for _, d := range decls {
		if !seen[d.AllowName] {
			seen[d.AllowName] = true
			names = append(names, d.AllowName)
		}
	}
	return names
}

func frontendLabel(names []string) string {
	seen := make(map[string]bool)
	var distinct []string
	for _, n := range names {
		if n != "" && !seen[n] {
			seen[n] = true
			distinct = append(distinct, n)
		}
	}
	return strings.Join(distinct, ",")
}

func directivePath(opt Options, inputs []string) (string, error) {
	if opt.Directives != "" {
		return opt.Directives, nil
	}
	if len(inputs) == 0 {
		return "", fmt.Errorf("no directive file given and no input to search next to")
	}
	return filepath.Join(filepath.Dir(inputs[0]), directive.DefaultFile), nil
}

func digestFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("sha256:%x", sum[:8]), nil
}
