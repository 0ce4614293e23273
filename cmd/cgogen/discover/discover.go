package discover

import (
	"context"
	"flag"
	"fmt"
	"os"

	"cgogen/internal/pipeline"
)

func Run(args []string) int {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	lang := fs.String("lang", "auto", "frontend: auto|cheader|clangjson|gopkg")
	out := fs.String("o", "", "write the dump to a file instead of stdout")
	jobs := fs.Int("jobs", 0, "concurrent discovery workers (0 = default)")
	noCache := fs.Bool("no-cache", false, "bypass the discovery cache")
	verbose := fs.Bool("verbose", false, "enable verbose debug logging")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: cgogen discover [flags] <input>...")
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
		Inputs: fs.Args(),
		Lang:   *lang,
		Jobs:   *jobs,
		Cache:  cache,
	}

	decls, frontends, err := pipeline.Discover(context.Background(), opt)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	d := pipeline.NewDump(frontends, fs.Args(), decls)
	data, err := d.Encode()
	if err != nil {
		fmt.Fprintln(os.Stderr, "encode dump:", err)
		return 2
	}
	data = append(data, '\n')

	if *out == "" {
		os.Stdout.Write(data)
		return 0
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		fmt.Fprintln(os.Stderr, "write dump:", err)
		return 2
	}
	fmt.Printf("wrote %s  declarations=%d  frontend=%s\n", *out, len(decls), frontends)
	return 0
}
