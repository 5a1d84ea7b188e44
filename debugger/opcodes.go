package debugger

import "github.com/coldvane/easm8/asm"

// jsrOpcode is the call instruction's opcode byte, used to detect call
// sites for step-over without any knowledge of microcode internals.
const jsrOpcode = 16

// mnemonicByOpcode and arityByOpcode are built once from asm.Opcodes so the
// debugger can disassemble and measure instructions without duplicating the
// assembler's opcode table.
var mnemonicByOpcode = buildMnemonicTable()
var arityByOpcode = buildArityTable()

func buildMnemonicTable() map[byte]string {
	m := make(map[byte]string, len(asm.Opcodes))
	for name, info := range asm.Opcodes {
		m[info.Opcode] = name
	}
	return m
}

func buildArityTable() map[byte]int {
	m := make(map[byte]int, len(asm.Opcodes))
	for _, info := range asm.Opcodes {
		m[info.Opcode] = info.Operands
	}
	return m
}

// instructionLength returns the word count (opcode plus operands) of the
// instruction whose opcode byte is given. Unknown opcodes are treated as
// zero-operand so stepping never runs off the end of a word.
func instructionLength(opcode byte) int {
	return 1 + arityByOpcode[opcode]
}

// mnemonicFor returns the mnemonic for opcode, or a hex fallback for data
// words that don't decode as an instruction.
func mnemonicFor(opcode byte) string {
	if name, ok := mnemonicByOpcode[opcode]; ok {
		return name
	}
	return "???"
}
