package main

import (
	"fmt"
	"os"

	"cgogen/cmd/cgogen/check"
	"cgogen/cmd/cgogen/diff"
	"cgogen/cmd/cgogen/discover"
	"cgogen/cmd/cgogen/generate"
	"cgogen/cmd/cgogen/graph"
	"cgogen/cmd/cgogen/history"
	"cgogen/cmd/cgogen/impact"
	"cgogen/cmd/cgogen/prune"
	"cgogen/cmd/cgogen/why"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "generate":
		os.Exit(generate.Run(os.Args[2:]))
	case "discover":
		os.Exit(discover.Run(os.Args[2:]))
	case "prune":
		os.Exit(prune.Run(os.Args[2:]))
	case "why":
		os.Exit(why.Run(os.Args[2:]))
	case "impact":
		os.Exit(impact.Run(os.Args[2:]))
	case "graph":
		os.Exit(graph.Run(os.Args[2:]))
	case "diff":
		os.Exit(diff.Run(os.Args[2:]))
	case "history":
		os.Exit(history.Run(os.Args[2:]))
	case "check":
		os.Exit(check.Run(os.Args[2:]))
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `cgogen — FFI binding generator with allowlist pruning

Usage:
  cgogen generate [--json] [--sarif] [--dry-run] [--directives file] [-o file] <input>...
  cgogen discover [--lang auto|cheader|clangjson|gopkg] [-o file] <input>...
  cgogen prune    [--json] [--directives file] [-o file|-] <dump.json>
  cgogen why      [--json] <identity> <input>...
  cgogen impact   [--json] <identity> <input>...
  cgogen graph    [--all] [-o file] <input>...
  cgogen diff     [--json] <old.json> <new.json>
  cgogen history  [record|show|diff] [--json] [N [M]]
  cgogen check    [--strict] [-o file] <input>...
  cgogen version`)
}
