package prune

import (
	"flag"
	"fmt"
	"os"

	"cgogen/internal/pipeline"
	"cgogen/internal/report"
)

func Run(args []string) int {
	fs := flag.NewFlagSet("prune", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "JSON report output")
	directives := fs.String("directives", "", "directive file (default: cgogen.yaml next to the dump's first input)")
	out := fs.String("o", "", "write the surviving set as a manifest ('-' for stdout)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: cgogen prune [flags] <dump.json>")
		return 2
	}

	d, err := pipeline.ReadDump(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	r, err := pipeline.RunFromDump(d, pipeline.Options{Directives: *directives})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if *out != "" {
		m := r.Manifest("dev")
		data, err := m.Encode()
		if err != nil {
			fmt.Fprintln(os.Stderr, "encode manifest:", err)
			return 2
		}
		data = append(data, '\n')
		if *out == "-" {
			os.Stdout.Write(data)
			return 0
		}
		if err := os.WriteFile(*out, data, 0644); err != nil {
			fmt.Fprintln(os.Stderr, "write manifest:", err)
			return 2
		}
	}

	rep := r.Report()
	if *jsonOut {
		if err := report.WritePruneJSON(os.Stdout, rep); err != nil {
			fmt.Fprintln(os.Stderr, "write output:", err)
			return 2
		}
	} else {
		report.WritePrune(os.Stdout, rep)
	}
	return 0
}
