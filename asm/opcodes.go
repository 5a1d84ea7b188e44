package asm

// OpcodeInfo is one mnemonic's opcode byte and fixed operand arity.
type OpcodeInfo struct {
	Opcode   byte
	Operands int
}

// Opcodes is the canonical EASM instruction set.
var Opcodes = map[string]OpcodeInfo{
	"NOP":   {0, 0},
	"LDA":   {1, 1},
	"ADD":   {2, 1},
	"SUB":   {3, 1},
	"STA":   {4, 1},
	"LDI":   {5, 1},
	"JMP":   {6, 1},
	"JPC":   {7, 1},
	"JPZ":   {8, 1},
	"KEI":   {9, 0},
	"ADI":   {10, 1},
	"SUI":   {11, 1},
	"CMP":   {12, 1},
	"PHA":   {13, 0},
	"PLA":   {14, 0},
	"LDS":   {15, 0},
	"JSR":   {16, 1},
	"RET":   {17, 0},
	"SAS":   {18, 0},
	"LAS":   {19, 0},
	"LDB":   {20, 1},
	"CPI":   {21, 1},
	"RSA":   {22, 0},
	"LSA":   {23, 0},
	"DIS":   {24, 1},
	"DIC":   {25, 1},
	"LDD":   {26, 1},
	"JNZ":   {27, 1},
	"STB":   {28, 1},
	"MOVBA": {29, 0},
	"MOVAB": {30, 0},
	"LSP":   {31, 0},
	"MVASP": {32, 0},
	"MVBSP": {33, 0},
	"SUM":   {34, 0},
	"LAP":   {35, 0},
	"LPA":   {36, 1},
	"DIA":   {37, 0},
	"OUT":   {254, 0},
	"HLT":   {255, 0},
}

// controlFlowOpcodes is the set whose single operand is a jump/call target
// (a label, or a #N literal target), resolved against the label table
// rather than the pointer-variable expression evaluator.
var controlFlowOpcodes = map[byte]bool{
	6: true, 7: true, 8: true, // JMP, JPC, JPZ
	16: true, // JSR
	27: true, // JNZ
}

// IsControlFlow reports whether opcode's operand is a jump/call target.
func IsControlFlow(opcode byte) bool {
	return controlFlowOpcodes[opcode]
}
