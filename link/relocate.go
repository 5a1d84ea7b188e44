package link

import (
	"github.com/coldvane/easm8/asm"
	"github.com/coldvane/easm8/vm"
)

// Relocate adds base to the operand of every JMP/JPZ/JPC token in
// prog.Tokens, and to JSR operands only when the operand index is not a
// known extern call site (externOperands) and the pre-relocation operand
// is still less than codeLength — meaning it targets a local label, not
// the yet-unpatched `0` extern placeholder written by rewriteExternCalls.
// The externOperands set takes precedence over the length heuristic: it
// comes from the textual `JSR @name` rewrite itself, so it is exact where
// the heuristic is only a good approximation.
func Relocate(words []vm.Word, prog *asm.Program, base vm.Word, codeLength int, externOperands map[int]bool) {
	for _, tok := range prog.Tokens {
		if tok.Kind != asm.LineInstruction {
			continue
		}
		info, known := asm.Opcodes[tok.Mnemonic]
		if !known || info.Operands == 0 {
			continue
		}
		operandAddr := int(tok.Address) + 1
		if operandAddr >= len(words) {
			continue
		}

		switch tok.Mnemonic {
		case "JMP", "JPZ", "JPC":
			words[operandAddr] = base + words[operandAddr]
		case "JSR":
			if externOperands[operandAddr] {
				continue
			}
			if int(words[operandAddr]) < codeLength {
				words[operandAddr] = base + words[operandAddr]
			}
		}
	}
}
