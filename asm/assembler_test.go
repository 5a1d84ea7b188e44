package asm

import (
	"testing"

	"github.com/coldvane/easm8/vm"
)

func assembleOK(t *testing.T, source string) *Program {
	t.Helper()
	prog, errs := Assemble("test.easm", source, vm.DefaultConfig())
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %s", errs.Error())
	}
	return prog
}

func TestAssembleArithmeticProgram(t *testing.T) {
	source := "" +
		"k = 100\n" +
		".k = 7\n" +
		"  LDI 7\n" +
		"  ADD .k\n" +
		"  OUT\n" +
		"  HLT\n"
	prog := assembleOK(t, source)

	if prog.Words[100] != 7 {
		t.Fatalf("mem[100] = %d, want 7", prog.Words[100])
	}
	if prog.Words[0] != 5 || prog.Words[1] != 7 {
		t.Fatalf("LDI encoding = %v, want [5 7]", prog.Words[0:2])
	}
	if prog.Words[2] != 2 || prog.Words[3] != 100 {
		t.Fatalf("ADD .k encoding = %v, want opcode 2 operand 100", prog.Words[2:4])
	}
	if prog.Words[4] != 254 {
		t.Fatalf("OUT opcode = %d, want 254", prog.Words[4])
	}
	if prog.Words[5] != 255 {
		t.Fatalf("HLT opcode = %d, want 255", prog.Words[5])
	}
}

func TestAssembleLabelsAndJumps(t *testing.T) {
	source := "" +
		"  JMP loop\n" +
		"loop:\n" +
		"  LDI 1\n" +
		"  JMP loop\n"
	prog := assembleOK(t, source)

	if prog.Labels["loop"] != 2 {
		t.Fatalf("loop label = %d, want 2", prog.Labels["loop"])
	}
	if prog.Words[0] != 6 || prog.Words[1] != 2 {
		t.Fatalf("JMP loop encoding = %v, want opcode 6 operand 2", prog.Words[0:2])
	}
	if prog.Words[4] != 6 || prog.Words[5] != 2 {
		t.Fatalf("second JMP loop encoding = %v, want opcode 6 operand 2", prog.Words[4:6])
	}
}

func TestAssembleLiteralJumpTarget(t *testing.T) {
	source := "  JMP #10\n"
	prog := assembleOK(t, source)
	if prog.Words[1] != 10 {
		t.Fatalf("JMP #10 operand = %d, want 10", prog.Words[1])
	}
}

func TestPointerVariableExpression(t *testing.T) {
	source := "" +
		"base = 100\n" +
		"buf = base + 4\n" +
		"  LDA .buf\n" +
		"  LDA buf - 1\n" +
		"  HLT\n"
	prog := assembleOK(t, source)
	if prog.PointerVars["buf"] != 104 {
		t.Fatalf("buf = %d, want 104", prog.PointerVars["buf"])
	}
	if prog.Words[1] != 104 {
		t.Fatalf("LDA .buf operand = %d, want 104", prog.Words[1])
	}
	if prog.Words[3] != 103 {
		t.Fatalf("LDA buf - 1 operand = %d, want 103", prog.Words[3])
	}
}

func TestStringMemWrite(t *testing.T) {
	source := "120 = \"Hi\"\n"
	prog := assembleOK(t, source)
	if prog.Words[120] != 'H' || prog.Words[121] != 'i' {
		t.Fatalf("string write = %v, want [72 105]", prog.Words[120:122])
	}
}

func TestMemWriteOutOfRangeIsFatal(t *testing.T) {
	// Default config is 8-bit: memory is 256 words.
	_, errs := Assemble("test.easm", "400 = 1\n", vm.DefaultConfig())
	if !errs.HasErrors() {
		t.Fatalf("expected a fatal error for an out-of-range write")
	}
	if errs.Errors[0].Kind != ErrOutOfRange {
		t.Fatalf("kind = %v, want ErrOutOfRange", errs.Errors[0].Kind)
	}
}

func TestUnresolvedPointerVariableWarns(t *testing.T) {
	source := "" +
		"  LDA .missing\n" +
		"  HLT\n"
	_, errs := Assemble("test.easm", source, vm.DefaultConfig())
	if errs.HasErrors() {
		t.Fatalf("unresolved pointer variable should warn, not fail: %s", errs.Error())
	}
	if len(errs.Warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %d", len(errs.Warnings))
	}
}

func TestUnusedPointerVariableWarns(t *testing.T) {
	_, errs := Assemble("test.easm", "ghost = 42\n  HLT\n", vm.DefaultConfig())
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %s", errs.Error())
	}
	if len(errs.Warnings) != 1 {
		t.Fatalf("expected a defined-but-unused warning, got %d warnings", len(errs.Warnings))
	}
}

func TestUnknownMnemonicIsFatal(t *testing.T) {
	_, errs := Assemble("test.easm", "  FROB 1\n", vm.DefaultConfig())
	if !errs.HasErrors() {
		t.Fatalf("expected a fatal error for an unknown mnemonic")
	}
	if errs.Errors[0].Kind != ErrUnknownMnemonic {
		t.Fatalf("kind = %v, want ErrUnknownMnemonic", errs.Errors[0].Kind)
	}
}

func TestOperandCountMismatchIsFatal(t *testing.T) {
	cases := []string{"  HLT 1\n", "  LDA\n"}
	for _, src := range cases {
		_, errs := Assemble("test.easm", src, vm.DefaultConfig())
		if !errs.HasErrors() {
			t.Fatalf("source %q: expected an operand-count error", src)
		}
		if errs.Errors[0].Kind != ErrOperandCount {
			t.Fatalf("source %q: kind = %v, want ErrOperandCount", src, errs.Errors[0].Kind)
		}
	}
}

func TestUndefinedLabelIsFatal(t *testing.T) {
	_, errs := Assemble("test.easm", "  JMP nowhere\n", vm.DefaultConfig())
	if !errs.HasErrors() {
		t.Fatalf("expected a fatal error for an undefined label")
	}
	if errs.Errors[0].Kind != ErrUndefinedLabel {
		t.Fatalf("kind = %v, want ErrUndefinedLabel", errs.Errors[0].Kind)
	}
}

func TestCorrectionTracksTwoWordInstructions(t *testing.T) {
	source := "" +
		"  LDI 1\n" + // program line 0, address 0
		"  OUT\n" + //   program line 1, address 2
		"  HLT\n" //     program line 2, address 3
	prog := assembleOK(t, source)

	var instr []Token
	for _, tok := range prog.Tokens {
		if tok.Kind == LineInstruction {
			instr = append(instr, tok)
		}
	}
	wantCorrection := []int{0, 1, 1}
	for i, want := range wantCorrection {
		if instr[i].Correction != want {
			t.Fatalf("instruction %d correction = %d, want %d", i, instr[i].Correction, want)
		}
	}
}

func TestForwardLabelReference(t *testing.T) {
	source := "" +
		"  JMP end\n" +
		"  LDI 1\n" +
		"end:\n" +
		"  HLT\n"
	prog := assembleOK(t, source)
	if prog.Words[1] != 4 {
		t.Fatalf("forward JMP end operand = %d, want 4", prog.Words[1])
	}
}
