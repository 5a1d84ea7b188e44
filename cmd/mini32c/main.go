// Command mini32c compiles a Mini32 source file to EASM.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/coldvane/easm8/compiler"
)

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		outPath     = flag.String("o", "", "Output file (default: input with .easm extension)")
		noPeephole  = flag.Bool("no-peephole", false, "Skip the peephole pass (for comparing emitted code)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("mini32c %s (%s, %s)\n", Version, Commit, Date)
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: mini32c [flags] program.m32")
		flag.PrintDefaults()
		os.Exit(2)
	}

	inPath := flag.Arg(0)
	source, err := os.ReadFile(inPath) // #nosec G304 -- user-supplied source path
	if err != nil {
		fmt.Fprintf(os.Stderr, "mini32c: %v\n", err)
		os.Exit(1)
	}

	prog, err := compiler.Parse(string(source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", inPath, err)
		os.Exit(1)
	}

	var easm string
	if *noPeephole {
		easm, err = compiler.GenerateRaw(prog)
	} else {
		easm, err = compiler.Generate(prog)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", inPath, err)
		os.Exit(1)
	}

	out := *outPath
	if out == "" {
		out = strings.TrimSuffix(inPath, filepath.Ext(inPath)) + ".easm"
	}
	if err := os.WriteFile(out, []byte(easm), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "mini32c: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("compiled %s -> %s\n", inPath, out)
}
