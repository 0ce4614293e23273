package impact

import (
	"context"
	"flag"
	"fmt"
	"os"

	"cgogen/internal/decl"
	impactlib "cgogen/internal/impact"
	"cgogen/internal/pipeline"
	"cgogen/internal/report"
)

func Run(args []string) int {
	fs := flag.NewFlagSet("impact", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "JSON output")
	lang := fs.String("lang", "auto", "frontend: auto|cheader|clangjson|gopkg")
	directives := fs.String("directives", "", "directive file (default: cgogen.yaml next to the first input)")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: cgogen impact [--json] <identity> <input>...")
		return 2
	}

	target := decl.Name(fs.Arg(0))
	opt := pipeline.Options{
		Inputs:     fs.Args()[1:],
		Lang:       *lang,
		Directives: *directives,
	}

	r, err := pipeline.Run(context.Background(), opt)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	rep := impactlib.Compute(r.Pruned, r.Directives.Generate, target)

	if *jsonOut {
		if err := report.WriteImpactJSON(os.Stdout, rep); err != nil {
			fmt.Fprintln(os.Stderr, "write output:", err)
			return 2
		}
	} else {
		report.WriteImpact(os.Stdout, rep)
	}

	if len(rep.Roots) > 0 {
		return 1
	}
	return 0
}
