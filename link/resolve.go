package link

import (
	"fmt"

	"github.com/coldvane/easm8/vm"
)

// ExternCall is one `JSR @name` call site awaiting resolution: the
// module's relocated words, the index of the operand word within them,
// and the symbol name it must resolve to.
type ExternCall struct {
	Module       string
	OperandIndex int
	Symbol       string
}

// ResolveExterns patches every extern call site's `0` operand placeholder
// with the resolved base address of its target symbol, against the global
// symbol table (module name or entry label -> base address). A symbol
// with no entry is a fatal linker error.
func ResolveExterns(images map[string][]vm.Word, calls []ExternCall, symbols map[string]vm.Word) error {
	for _, c := range calls {
		base, ok := symbols[c.Symbol]
		if !ok {
			return fmt.Errorf("link: unresolved extern symbol %q (referenced from module %q)", c.Symbol, c.Module)
		}
		words := images[c.Module]
		if c.OperandIndex < 0 || c.OperandIndex >= len(words) {
			return fmt.Errorf("link: extern call site in %q has an out-of-range operand index %d", c.Module, c.OperandIndex)
		}
		words[c.OperandIndex] = base
	}
	return nil
}
