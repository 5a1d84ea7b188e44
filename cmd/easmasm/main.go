// Command easmasm assembles a single EASM module and writes its word image
// and symbol tables as JSON, for inspection and for tests that want the
// assembler's output without a full link.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/coldvane/easm8/asm"
	"github.com/coldvane/easm8/vm"
)

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// assembleOutput is the JSON shape written to stdout or -o.
type assembleOutput struct {
	Length      int                `json:"length"`
	Words       []vm.Word          `json:"words"`
	Labels      map[string]vm.Word `json:"labels"`
	PointerVars map[string]int     `json:"pointer_vars"`
}

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		wordBits    = flag.Uint("bits", 8, "CPU word size in bits")
		spBits      = flag.Uint("sp-bits", 4, "Stack pointer size in bits")
		outPath     = flag.String("o", "", "Output file (default: stdout)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("easmasm %s (%s, %s)\n", Version, Commit, Date)
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: easmasm [flags] module.easm")
		flag.PrintDefaults()
		os.Exit(2)
	}

	filename := flag.Arg(0)
	source, err := os.ReadFile(filename) // #nosec G304 -- user-supplied source path
	if err != nil {
		fmt.Fprintf(os.Stderr, "easmasm: %v\n", err)
		os.Exit(1)
	}

	cfg := vm.Config{WordBits: *wordBits, StackBits: *spBits}
	prog, errs := asm.Assemble(filename, string(source), cfg)
	for _, w := range errs.Warnings {
		fmt.Fprintln(os.Stderr, w.String())
	}
	if errs.HasErrors() {
		fmt.Fprintln(os.Stderr, errs.Error())
		os.Exit(1)
	}

	// Trim the full memory image down to the occupied prefix; everything
	// past the last instruction or data write is zero.
	length := 0
	for i, w := range prog.Words {
		if w != 0 {
			length = i + 1
		}
	}

	out := assembleOutput{
		Length:      length,
		Words:       prog.Words[:length],
		Labels:      prog.Labels,
		PointerVars: prog.PointerVars,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "easmasm: %v\n", err)
		os.Exit(1)
	}
	data = append(data, '\n')

	if *outPath == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "easmasm: %v\n", err)
		os.Exit(1)
	}
}
