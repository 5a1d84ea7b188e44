package vm

import "testing"

func newTestMachine() *Machine {
	return NewMachine(DefaultConfig())
}

func TestFetchPrologueIsFixedForEveryOpcode(t *testing.T) {
	m := newTestMachine()
	for op := 0; op < 256; op++ {
		m.CPU.Reg.Reset()
		m.CPU.Reg.IRA = Word(op)
		m.CPU.Reg.Timestep = 0
		got := m.CPU.currentControlWord()
		if got != CO|MI {
			t.Fatalf("opcode %d: T0 = %x, want CO|MI", op, got)
		}
		m.CPU.Reg.Timestep = 1
		got = m.CPU.currentControlWord()
		if got != RO|IAI|CE {
			t.Fatalf("opcode %d: T1 = %x, want RO|IAI|CE", op, got)
		}
	}
}

func TestEveryDefinedOpcodeBodyEndsWithORE(t *testing.T) {
	table := NewMicrocodeTable()
	for op := 0; op < 256; op++ {
		body := table.Body(Word(op))
		if len(body) == 0 {
			continue
		}
		last := body[len(body)-1]
		if last&ORE == 0 {
			t.Errorf("opcode %d: last control word %x does not assert ORE", op, last)
		}
	}
}

func TestALUAddCarry(t *testing.T) {
	cfg := DefaultConfig()
	var alu ALU
	alu.Eval(cfg, 200, 100, false)
	if !alu.Carry {
		t.Fatalf("expected carry for 200+100 over 8 bits")
	}
	if alu.Sum != Word((200+100)%256) {
		t.Fatalf("sum = %d, want %d", alu.Sum, (200+100)%256)
	}
}

func TestALUSubtractBorrowPattern(t *testing.T) {
	cfg := DefaultConfig()
	var alu ALU
	alu.Eval(cfg, 5, 5, true)
	if !alu.Carry {
		t.Fatalf("carry should be set when A >= B in subtraction (no borrow)")
	}
	if !alu.Zero {
		t.Fatalf("5-5 should be zero")
	}

	alu.Eval(cfg, 3, 5, true)
	if alu.Carry {
		t.Fatalf("carry should be clear when A < B in subtraction (borrow occurred)")
	}
}

func TestUndefinedOpcodeIsNonFatal(t *testing.T) {
	m := newTestMachine()
	m.Mem.Write(0, 200) // opcode 200 is undefined
	for i := 0; i < 20; i++ {
		m.CPU.Step()
		if m.CPU.State == Halted {
			t.Fatalf("undefined opcode should not halt the machine at step %d", i)
		}
	}
}

func TestPCOverflowHalts(t *testing.T) {
	m := newTestMachine()
	// All-NOP memory: the PC walks off the end and the machine halts
	// rather than wrapping around.
	m.CPU.Reg.PC = Word(m.Mem.Size() - 1)
	for i := 0; i < 64 && m.CPU.State != Halted; i++ {
		m.CPU.Step()
	}
	if m.CPU.State != Halted {
		t.Fatal("PC overflow should halt the machine")
	}
	if m.CPU.Reg.ControlWord&HLT != 0 {
		t.Fatal("halt reason should be PC overflow, not HLT")
	}

	// Reset is the only way out of Halted.
	m.CPU.Step()
	if m.CPU.State != Halted {
		t.Fatal("stepping a halted machine must stay halted")
	}
	m.Reset()
	if m.CPU.State != Running {
		t.Fatal("reset should return the machine to Running")
	}
}

func TestArithmeticScenario(t *testing.T) {
	// LDI 7; ADD k; OUT; HLT, with k=7 somewhere harmless.
	m := newTestMachine()
	k := 40
	m.Mem.Write(k, 7)
	prog := []Word{
		5, 7, // LDI 7
		2, Word(k), // ADD k
		254, // OUT
		255, // HLT
	}
	if err := m.Mem.LoadImage(0, prog); err != nil {
		t.Fatal(err)
	}
	m.CPU.Run(0)
	if m.CPU.State != Halted {
		t.Fatalf("expected halted")
	}
	if m.CPU.Reg.Output != 14 {
		t.Fatalf("Output = %d, want 14", m.CPU.Reg.Output)
	}
	if m.CPU.Reg.A != 14 {
		t.Fatalf("A = %d, want 14", m.CPU.Reg.A)
	}
	if m.CPU.Reg.Flags.Carry || m.CPU.Reg.Flags.Zero {
		t.Fatalf("flags should be clear: %+v", m.CPU.Reg.Flags)
	}
}

func TestSubtractionBorrowScenario(t *testing.T) {
	m := newTestMachine()
	k := 40
	m.Mem.Write(k, 5)
	prog := []Word{
		5, 5, // LDI 5
		20, Word(k), // LDB k
		3, Word(k), // SUB k
		255, // HLT
	}
	if err := m.Mem.LoadImage(0, prog); err != nil {
		t.Fatal(err)
	}
	m.CPU.Run(0)
	if m.CPU.Reg.A != 0 {
		t.Fatalf("A = %d, want 0", m.CPU.Reg.A)
	}
	if !m.CPU.Reg.FlagReg.Zero {
		t.Fatalf("zero flag should be set")
	}
	if !m.CPU.Reg.FlagReg.Carry {
		t.Fatalf("carry flag should be set (5 >= 5)")
	}
}

func TestSubroutineAndStack(t *testing.T) {
	m := newTestMachine()
	initialSP := m.CPU.Reg.SP
	// JSR add2; HLT
	// add2: LDI 1; ADI 1; RET
	prog := []Word{
		16, 5, // JSR add2 (address 5)
		255,  // HLT
		0, 0, // padding to reach address 5
		5, 1, // add2: LDI 1
		10, 1, // ADI 1
		17, // RET
	}
	if err := m.Mem.LoadImage(0, prog); err != nil {
		t.Fatal(err)
	}
	m.CPU.Run(1000)
	if m.CPU.Reg.A != 2 {
		t.Fatalf("A = %d, want 2", m.CPU.Reg.A)
	}
	if m.CPU.Reg.SP != initialSP {
		t.Fatalf("SP = %d, want %d (back to initial)", m.CPU.Reg.SP, initialSP)
	}
}

func TestLoopStoresSequentialValues(t *testing.T) {
	// A hand-assembled backward-jump loop: for i in 0..9: mem[base+i] = i.
	// The store target is advanced each iteration by patching the operand
	// word of the STA at address 10, the same self-modifying idiom the
	// reference programs use for indexed stores.
	m := newTestMachine()
	const base = 64
	const tgt = 58 // holds the next store target address
	const cnt = 59 // holds i

	m.Mem.Write(tgt, base)
	m.Mem.Write(cnt, 0)

	prog := []Word{
		1, tgt, //  0: LDA tgt
		4, 11, //   2: STA 11   (patch the STA operand below)
		10, 1, //   4: ADI 1
		4, tgt, //  6: STA tgt
		1, cnt, //  8: LDA cnt
		4, 0, //   10: STA <patched>
		10, 1, //  12: ADI 1
		4, cnt, // 14: STA cnt
		11, 10, // 16: SUI 10
		8, 22, //  18: JPZ done
		6, 0, //   20: JMP 0
		255, //    22: done: HLT
	}
	if err := m.Mem.LoadImage(0, prog); err != nil {
		t.Fatal(err)
	}

	m.CPU.Run(10000)
	if m.CPU.State != Halted {
		t.Fatal("loop did not halt")
	}
	for i := 0; i < 10; i++ {
		got := m.Mem.Read(base + i)
		if got != Word(i) {
			t.Fatalf("mem[%d] = %d, want %d", base+i, got, i)
		}
	}
}
