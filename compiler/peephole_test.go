package compiler

import (
	"strings"
	"testing"
)

func TestPeepholeStaLda(t *testing.T) {
	in := "  STA .bss+1\n  LDA .bss+1\n"
	out := Peephole(in)
	if out != "  STA .bss+1\n" {
		t.Fatalf("STA/LDA pair not folded: %q", out)
	}
}

func TestPeepholeStaLdaDifferentOperandsKept(t *testing.T) {
	in := "  STA .bss+1\n  LDA .bss+2\n"
	if out := Peephole(in); out != in {
		t.Fatalf("unrelated STA/LDA must be kept: %q", out)
	}
}

func TestPeepholeStaLpaToLap(t *testing.T) {
	in := "  STA .__tmp_addr\n  LPA .__tmp_addr\n"
	out := Peephole(in)
	if out != "  STA .__tmp_addr\n  LAP\n" {
		t.Fatalf("STA/LPA pair not rewritten to LAP: %q", out)
	}
}

func TestPeepholeLdiZeroAdiFolds(t *testing.T) {
	in := "  LDI 0\n  ADI 7\n"
	out := Peephole(in)
	if out != "  LDI 7\n" {
		t.Fatalf("LDI 0; ADI 7 not folded: %q", out)
	}
}

func TestPeepholeRemovesAddSubZero(t *testing.T) {
	in := "  LDI 3\n  ADI 0\n  SUI 0\n  OUT\n"
	out := Peephole(in)
	if strings.Contains(out, "ADI 0") || strings.Contains(out, "SUI 0") {
		t.Fatalf("no-op immediates survived: %q", out)
	}
	if !strings.Contains(out, "LDI 3") || !strings.Contains(out, "OUT") {
		t.Fatalf("live instructions removed: %q", out)
	}
}

func TestPeepholeNeverTouchesLabels(t *testing.T) {
	in := "loop:\n  STA .x\nelse_1:\n  LDA .x\n  JMP loop\n"
	out := Peephole(in)
	for _, label := range []string{"loop:", "else_1:"} {
		if !strings.Contains(out, label) {
			t.Fatalf("label %q removed: %q", label, out)
		}
	}
	// The STA/LDA pair straddles a label, so it must not fold.
	if !strings.Contains(out, "LDA .x") {
		t.Fatalf("fold across a label boundary: %q", out)
	}
}

func TestCompiledIfElseHasNoRedundancies(t *testing.T) {
	source := "" +
		"func main:\n" +
		"    let x = 3\n" +
		"    if x == 3:\n" +
		"        let r = 1\n" +
		"    else:\n" +
		"        let r = 0\n" +
		"    return r\n"
	prog, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := Generate(prog)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	lines := strings.Split(out, "\n")
	for i := 0; i+1 < len(lines); i++ {
		op1, arg1, ok1 := splitInstr(lines[i])
		op2, arg2, ok2 := splitInstr(lines[i+1])
		if ok1 && ok2 && op1 == "STA" && op2 == "LDA" && arg1 == arg2 {
			t.Fatalf("STA/LDA redundancy at line %d:\n%s", i, out)
		}
	}
	if strings.Contains(out, "ADI 0") || strings.Contains(out, "SUI 0") {
		t.Fatalf("no-op immediate in output:\n%s", out)
	}
}
