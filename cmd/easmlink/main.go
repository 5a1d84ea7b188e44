// Command easmlink links a directory of EASM modules against an OS source:
// it assembles and places every module, resolves extern symbols, emits the
// JSON memory image and layout reports, and rewrites the OS source with the
// patched dispatch addresses.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/coldvane/easm8/link"
	"github.com/coldvane/easm8/vm"
)

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		wordBits    = flag.Uint("bits", 17, "CPU word size in bits")
		spBits      = flag.Uint("sp-bits", 8, "Stack pointer size in bits")
		osPath      = flag.String("os", "", "OS source file to patch (optional)")
		outDir      = flag.String("out", ".", "Output directory for image and reports")
		patchOS     = flag.Bool("patch-os", true, "Rewrite the OS source in place with patched addresses")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("easmlink %s (%s, %s)\n", Version, Commit, Date)
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: easmlink [flags] module-dir")
		flag.PrintDefaults()
		os.Exit(2)
	}

	sources, err := readModuleDir(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "easmlink: %v\n", err)
		os.Exit(1)
	}
	if len(sources) == 0 {
		fmt.Fprintf(os.Stderr, "easmlink: no .easm modules in %s\n", flag.Arg(0))
		os.Exit(1)
	}

	var osSource string
	if *osPath != "" {
		data, err := os.ReadFile(*osPath) // #nosec G304 -- user-supplied source path
		if err != nil {
			fmt.Fprintf(os.Stderr, "easmlink: %v\n", err)
			os.Exit(1)
		}
		osSource = string(data)
	}

	cfg := vm.Config{WordBits: *wordBits, StackBits: *spBits}
	result, err := link.Link(sources, osSource, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	outputs := map[string]string{
		"compiled_routines.json": mustJSON(result.Image),
		"memory_map.txt":         result.MemoryMap,
		"free_gaps.txt":          result.FreeGaps,
		"bss_map.txt":            result.BSSMap,
	}
	for name, content := range outputs {
		path := filepath.Join(*outDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "easmlink: writing %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	if *osPath != "" && *patchOS {
		if err := os.WriteFile(*osPath, []byte(result.PatchedOS), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "easmlink: patching %s: %v\n", *osPath, err)
			os.Exit(1)
		}
	}

	fmt.Printf("linked %d modules -> %s\n", len(sources), filepath.Join(*outDir, "compiled_routines.json"))
}

// readModuleDir collects every .easm (and legacy .txt) module source in
// dir, sorted by name for reproducible layout.
func readModuleDir(dir string) ([]link.ModuleSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var sources []link.ModuleSource
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".easm" && ext != ".txt" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name())) // #nosec G304 -- listed directory entry
		if err != nil {
			return nil, err
		}
		stem := strings.TrimSuffix(e.Name(), ext)
		sources = append(sources, link.ModuleSource{Stem: stem, Source: string(data)})
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Stem < sources[j].Stem })
	return sources, nil
}

func mustJSON(image link.Image) string {
	data, err := image.MarshalIndented()
	if err != nil {
		fmt.Fprintf(os.Stderr, "easmlink: encoding image: %v\n", err)
		os.Exit(1)
	}
	return string(data)
}
