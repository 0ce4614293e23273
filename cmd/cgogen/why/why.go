package why

import (
	"context"
	"flag"
	"fmt"
	"os"

	"cgogen/internal/decl"
	"cgogen/internal/pipeline"
	"cgogen/internal/report"
	whylib "cgogen/internal/why"
)

func Run(args []string) int {
	fs := flag.NewFlagSet("why", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "JSON output")
	lang := fs.String("lang", "auto", "frontend: auto|cheader|clangjson|gopkg")
	directives := fs.String("directives", "", "directive file (default: cgogen.yaml next to the first input)")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: cgogen why [--json] <identity> <input>...")
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

	w := whylib.Explain(r.Pruned, r.Directives.Generate, target)

	if *jsonOut {
		if err := report.WriteWhyJSON(os.Stdout, w); err != nil {
			fmt.Fprintln(os.Stderr, "write output:", err)
			return 2
		}
	} else {
		report.WriteWhy(os.Stdout, w)
	}

	if !w.Found {
		return 1
	}
	return 0
}
