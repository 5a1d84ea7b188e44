// Package loader populates a machine's RAM from assembled programs and
// linked JSON memory images, and prepares the symbol/source metadata the
// debugger consumes. The CPU is never stepping while the loader mutates
// memory.
package loader

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/coldvane/easm8/asm"
	"github.com/coldvane/easm8/link"
	"github.com/coldvane/easm8/vm"
)

// LoadProgramIntoVM copies an assembled program's full memory image into
// the machine's RAM. The assembler has already executed every
// variable-into-memory write at its absolute address, so the image is
// copied wholesale rather than instruction by instruction.
func LoadProgramIntoVM(machine *vm.Machine, prog *asm.Program) error {
	if len(prog.Words) > machine.Mem.Size() {
		return fmt.Errorf("loader: program image of %d words exceeds memory size %d",
			len(prog.Words), machine.Mem.Size())
	}
	return machine.Mem.LoadImage(0, prog.Words)
}

// LoadSourceFile reads, assembles, and loads one EASM source file. The
// returned program carries the label table and tokens callers hand to the
// debugger.
func LoadSourceFile(machine *vm.Machine, filename string) (*asm.Program, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("loader: reading %s: %w", filename, err)
	}

	prog, errs := asm.Assemble(filename, string(data), machine.Cfg)
	if errs.HasErrors() {
		return nil, fmt.Errorf("loader: assembling %s:\n%s", filename, errs.Error())
	}
	for _, w := range errs.Warnings {
		fmt.Fprintln(os.Stderr, w.String())
	}

	if err := LoadProgramIntoVM(machine, prog); err != nil {
		return nil, err
	}
	return prog, nil
}

// ReadImageFile parses a linked JSON memory image (compiled_routines.json).
func ReadImageFile(filename string) (link.Image, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("loader: reading %s: %w", filename, err)
	}
	var image link.Image
	if err := json.Unmarshal(data, &image); err != nil {
		return nil, fmt.Errorf("loader: parsing %s: %w", filename, err)
	}
	return image, nil
}

// OverlayImage writes every module of a linked image into RAM at its
// placed base address, over whatever the initial OS load put there.
func OverlayImage(machine *vm.Machine, image link.Image) error {
	for name, mod := range image {
		if len(mod.Words) != mod.Length {
			return fmt.Errorf("loader: module %q image has %d words but declares length %d",
				name, len(mod.Words), mod.Length)
		}
		if err := machine.Mem.LoadImage(mod.Base, mod.Words); err != nil {
			return fmt.Errorf("loader: module %q: %w", name, err)
		}
	}
	return nil
}

// OverlayImageFile is ReadImageFile followed by OverlayImage, the `--json`
// overlay step the launchers perform after the initial OS load.
func OverlayImageFile(machine *vm.Machine, filename string) error {
	image, err := ReadImageFile(filename)
	if err != nil {
		return err
	}
	return OverlayImage(machine, image)
}

// Symbols flattens a program's labels and a linked image's module bases
// into the single symbol table the debugger resolves names against.
// Module bases win on collision since they are what a user steps into.
func Symbols(prog *asm.Program, image link.Image) map[string]vm.Word {
	symbols := map[string]vm.Word{}
	if prog != nil {
		for name, addr := range prog.Labels {
			symbols[name] = addr
		}
	}
	for name, mod := range image {
		symbols[name] = vm.Word(mod.Base)
	}
	return symbols
}

// SourceMap builds the address -> source-line map the debugger's source
// panel renders, one entry per instruction token.
func SourceMap(prog *asm.Program) map[vm.Word]string {
	m := map[vm.Word]string{}
	for _, tok := range prog.Tokens {
		if tok.Kind != asm.LineInstruction {
			continue
		}
		text := tok.Mnemonic
		if tok.Operand != "" {
			text += " " + tok.Operand
		}
		m[tok.Address] = text
	}
	return m
}
