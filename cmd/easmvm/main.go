// Command easmvm runs an assembled EASM program on the virtual machine,
// optionally overlaying linked JSON memory images and dropping into the
// interactive debugger.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/coldvane/easm8/config"
	"github.com/coldvane/easm8/debugger"
	"github.com/coldvane/easm8/loader"
	"github.com/coldvane/easm8/vm"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
	Date    = "unknown" // Build date
)

// jsonImages collects repeatable --json flags.
type jsonImages []string

func (j *jsonImages) String() string     { return strings.Join(*j, ",") }
func (j *jsonImages) Set(v string) error { *j = append(*j, v); return nil }

func main() {
	var images jsonImages
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		debugMode   = flag.Bool("debug", false, "Start in command-line debugger mode")
		tuiMode     = flag.Bool("tui", false, "Use TUI (Text User Interface) debugger")
		maxCycles   = flag.Uint64("max-cycles", 0, "Maximum CPU cycles before stopping (0 = config default)")
		wordBits    = flag.Uint("bits", 0, "CPU word size in bits (0 = config default)")
		spBits      = flag.Uint("sp-bits", 0, "Stack pointer size in bits (0 = config default)")
		monitor     = flag.Bool("monitor", false, "Attach the 40x20 monitor peripheral")
		targetHz    = flag.Uint("hz", 0, "Pace execution at this clock rate (0 = config default, config 0 = unpaced)")
		targetFPS   = flag.Uint("fps", 0, "Pacing frame rate (0 = config default)")
		lcd         = flag.Bool("lcd", true, "Print the LCD/monitor contents after the run")
		configPath  = flag.String("config", "", "Config file path (default: platform config dir)")
	)
	flag.Var(&images, "json", "JSON memory image to overlay after load (repeatable)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("easmvm %s (%s, %s)\n", Version, Commit, Date)
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: easmvm [flags] program.easm")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "easmvm: %v\n", err)
		os.Exit(1)
	}
	if *wordBits != 0 {
		cfg.Machine.WordBits = *wordBits
	}
	if *spBits != 0 {
		cfg.Machine.StackPointerBits = *spBits
	}
	cycles := cfg.Execution.MaxCycles
	if *maxCycles != 0 {
		cycles = *maxCycles
	}

	machine := vm.NewMachine(cfg.VMConfig())
	if *monitor {
		machine.AttachMonitor()
	}

	prog, err := loader.LoadSourceFile(machine, flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, path := range images {
		if err := loader.OverlayImageFile(machine, path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	if *debugMode || *tuiMode {
		dbg := debugger.NewDebugger(machine)
		dbg.LoadSymbols(prog.Labels)
		dbg.LoadSourceMap(loader.SourceMap(prog))
		if *tuiMode {
			if err := debugger.NewTUI(dbg).Run(); err != nil {
				fmt.Fprintf(os.Stderr, "easmvm: TUI: %v\n", err)
				os.Exit(1)
			}
			return
		}
		if err := debugger.RunCLI(dbg); err != nil {
			fmt.Fprintf(os.Stderr, "easmvm: debugger: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *targetHz != 0 {
		cfg.Machine.TargetHz = *targetHz
	}
	if *targetFPS != 0 {
		cfg.Machine.TargetFPS = *targetFPS
	}

	ran := run(machine, cycles, cfg.Machine.TargetHz, cfg.Machine.TargetFPS)
	fmt.Printf("%s\n", machine.DumpState())
	if *lcd && cfg.Machine.LCDEnabled {
		printScreen(machine)
	}
	if machine.CPU.State != vm.Halted {
		fmt.Fprintf(os.Stderr, "easmvm: stopped after %d cycles without halting\n", ran)
		os.Exit(1)
	}
}

// run steps the machine to halt or the cycle bound. A non-zero hz paces
// execution in frame-sized batches of hz/fps cycles, which is also the
// cadence an interactive front-end would poll the keyboard register at.
func run(machine *vm.Machine, maxCycles uint64, hz, fps uint) uint64 {
	if hz == 0 {
		return machine.CPU.Run(maxCycles)
	}
	if fps == 0 {
		fps = 30
	}
	batch := uint64(hz / fps)
	if batch == 0 {
		batch = 1
	}

	var ran uint64
	frame := time.Second / time.Duration(fps)
	for machine.CPU.State != vm.Halted && (maxCycles == 0 || ran < maxCycles) {
		start := time.Now()
		n := batch
		if maxCycles != 0 && ran+n > maxCycles {
			n = maxCycles - ran
		}
		ran += machine.CPU.Run(n)
		if rest := frame - time.Since(start); rest > 0 {
			time.Sleep(rest)
		}
	}
	return ran
}

// printScreen renders the LCD (or monitor, when attached) as a framed
// character grid.
func printScreen(machine *vm.Machine) {
	var rows []string
	if machine.CPU.Monitor != nil {
		rows = machine.CPU.Monitor.Text()
	} else {
		rows = machine.CPU.LCD.Text()
	}
	for _, row := range rows {
		clean := strings.Map(func(r rune) rune {
			if r < 32 || r >= 127 {
				return ' '
			}
			return r
		}, row)
		fmt.Printf("|%s|\n", clean)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}
