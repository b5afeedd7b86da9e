package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/wildwinter/storydeck/internal/replay"
)

// #region main

func main() {
	verbose := flag.Bool("v", false, "print fixture descriptions")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: replay [-v] fixture.json [fixture.json ...]")
		os.Exit(2)
	}

	failures := 0
	for _, path := range flag.Args() {
		if err := runOne(path, *verbose); err != nil {
			fmt.Printf("FAIL  %s: %v\n", path, err)
			failures++
			continue
		}
		fmt.Printf("PASS  %s\n", path)
	}
	if failures > 0 {
		os.Exit(1)
	}
}

func runOne(path string, verbose bool) error {
	fixture, err := replay.LoadFixture(path)
	if err != nil {
		return err
	}
	if verbose && fixture.Description != "" {
		fmt.Printf("      %s\n", fixture.Description)
	}
	h, err := replay.NewHarness(fixture)
	if err != nil {
		return err
	}
	defer h.Close()
	return h.Run()
}

// #endregion main
