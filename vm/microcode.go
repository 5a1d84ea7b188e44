package vm

// MicrocodeTable maps an opcode byte to its ordered body of control words,
// executed from timestep 2 onward (the global fetch prologue occupies
// timesteps 0 and 1 for every opcode; see cpu.go). Bodies below are
// transcribed from the reference interpreter's literal microcode array for
// opcodes 0-26; JNZ (27) and the extended register/pointer ops (28-37) are
// not present in the reference source (it stops at LDD) and are designed
// here in the same idiom, using the same fetch-then-dereference pattern the
// reference uses for LDA/JMP/LDI. Each body's effect is noted beside it
// below; DESIGN.md records why these opcodes are designed here.
type MicrocodeTable [256][]ControlWord

// NewMicrocodeTable builds the canonical table.
func NewMicrocodeTable() *MicrocodeTable {
	var t MicrocodeTable

	t[0x00] = []ControlWord{ORE} // NOP

	t[0x01] = []ControlWord{CO | MI, RO | MI | CE, RO | AI | ORE}                             // LDA
	t[0x02] = []ControlWord{CO | MI, RO | MI | CE, RO | BI, EO | AI | FI | ORE}               // ADD
	t[0x03] = []ControlWord{CO | MI, RO | MI | CE, RO | BI, EO | AI | FI | SU | ORE}          // SUB
	t[0x04] = []ControlWord{CO | MI, RO | MI | CE, AO | RI | ORE}                             // STA
	t[0x05] = []ControlWord{CO | MI, RO | AI | CE | ORE}                                      // LDI
	t[0x06] = []ControlWord{CO | MI, RO | JMP | CE | ORE}                                     // JMP
	t[0x07] = []ControlWord{CO | MI, RO | JC | CE | ORE}                                      // JPC
	t[0x08] = []ControlWord{CO | MI, RO | JZ | CE | ORE}                                      // JPZ
	t[0x09] = []ControlWord{KEO | AI | ORE}                                                   // KEI
	t[0x0A] = []ControlWord{CO | MI, RO | BI | CE, EO | AI | FI | ORE}                        // ADI
	t[0x0B] = []ControlWord{CO | MI, RO | BI | CE, EO | AI | FI | SU | ORE}                   // SUI
	t[0x0C] = []ControlWord{CO | MI, RO | MI | CE, RO | BI, FI | SU | ORE}                    // CMP
	t[0x0D] = []ControlWord{STO | MI, AO | RI | INS | ORE}                                    // PHA
	t[0x0E] = []ControlWord{DES, STO | MI, AI | RO | ORE}                                     // PLA
	t[0x0F] = []ControlWord{STO | AI | ORE}                                                   // LDS
	t[0x10] = []ControlWord{CO | MI, RO | IBI | CE, STO | MI, CO | RI | INS, IBO | JMP | ORE} // JSR
	t[0x11] = []ControlWord{DES, STO | MI, RO | JMP | ORE}                                    // RET
	t[0x12] = []ControlWord{DES, STO | MI, RO | MI, AO | RI | ORE}                            // SAS
	t[0x13] = []ControlWord{DES, STO | MI, RO | MI, AI | RO | ORE}                            // LAS
	t[0x14] = []ControlWord{CO | MI, RO | MI | CE, RO | BI | ORE}                             // LDB
	t[0x15] = []ControlWord{CO | MI, RO | BI | CE, FI | SU | ORE}                             // CPI
	t[0x16] = []ControlWord{RSA | ORE}                                                        // RSA
	t[0x17] = []ControlWord{AO | BI, EO | AI | FI | ORE}                                      // LSA
	t[0x18] = []ControlWord{CO | MI, RO | IBI | CE, IBO | DDI | ORE}                          // DIS
	t[0x19] = []ControlWord{CO | MI, RO | IBI | CE, IBO | DCI | ORE}                          // DIC
	t[0x1A] = []ControlWord{CO | MI, RO | IBI | CE, IBO | MI, RO | DDI | ORE}                 // LDD

	t[0x1B] = []ControlWord{CO | MI, RO | JNZ | CE | ORE} // JNZ, 27

	// Extended register/pointer ops, 28-37. Designed in the reference's own
	// idiom (see package doc above); not present in the original interpreter.
	t[0x1C] = []ControlWord{CO | MI, RO | MI | CE, BO | RI | ORE}          // STB: mem[op] <- B
	t[0x1D] = []ControlWord{BO | AI | ORE}                                 // MOVBA: A <- B
	t[0x1E] = []ControlWord{AO | BI | ORE}                                 // MOVAB: B <- A
	t[0x1F] = []ControlWord{STO | MI, RO | AI | ORE}                       // LSP: A <- mem[SP] (peek, no pop)
	t[0x20] = []ControlWord{AO | SPI | ORE}                                // MVASP: SP <- A
	t[0x21] = []ControlWord{BO | SPI | ORE}                                // MVBSP: SP <- B
	t[0x22] = []ControlWord{EO | AI | FI | ORE}                            // SUM: A <- A + B (register-register)
	t[0x23] = []ControlWord{AO | MI, RO | AI | ORE}                        // LAP: A <- mem[A]
	t[0x24] = []ControlWord{CO | MI, RO | MI | CE, RO | MI, RO | AI | ORE} // LPA op: A <- mem[mem[op]]
	t[0x25] = []ControlWord{AO | DDI | ORE}                                // DIA: ScreenData <- A

	t[0xFE] = []ControlWord{AO | OI | ORE} // OUT, 254
	t[0xFF] = []ControlWord{HLT | ORE}     // HLT, 255

	// Every other opcode byte is left as a nil (zero-length) body: after the
	// two-step fetch, update() synthesizes an all-zero control word for
	// every subsequent timestep until the 8-step safety cap in clock_low
	// forces a re-fetch. This is deliberate, not an oversight: undefined
	// opcodes must be non-fatal.

	return &t
}

// Body returns the microcode body for opcode, or nil if undefined.
func (t *MicrocodeTable) Body(opcode Word) []ControlWord {
	return t[byte(opcode)]
}
