package compiler

import (
	"strings"
	"testing"

	"github.com/coldvane/easm8/asm"
	"github.com/coldvane/easm8/vm"
)

func compileOK(t *testing.T, source string) *asm.Program {
	t.Helper()
	prog, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := Generate(prog)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	asmProg, errs := asm.Assemble("test.easm", out, vm.DefaultConfig())
	if errs.HasErrors() {
		t.Fatalf("assembling generated EASM:\n%s\n--- source ---\n%s", errs.Error(), out)
	}
	return asmProg
}

func TestGenerateSingleReturn(t *testing.T) {
	prog := compileOK(t, "func main():\n    return 5\n")
	if prog.Labels["main"] != 0 {
		t.Fatalf("main label = %d, want 0", prog.Labels["main"])
	}
	if prog.Words[0] != 5 || prog.Words[1] != 5 {
		t.Fatalf("LDI 5 encoding = %v, want [5 5]", prog.Words[0:2])
	}
}

func TestGenerateLetAndArithmetic(t *testing.T) {
	source := "" +
		"func main():\n" +
		"    let x = 2 + 3\n" +
		"    let y = x - 1\n" +
		"    return y\n"
	compileOK(t, source)
}

func TestGenerateImplicitLocal(t *testing.T) {
	// "total" is never declared with `var`; the first `let` should
	// implicitly allocate it as a function-local BSS slot.
	source := "" +
		"func main():\n" +
		"    let total = 10\n" +
		"    let total += 5\n" +
		"    return total\n"
	compileOK(t, source)
}

func TestGenerateIfElse(t *testing.T) {
	source := "" +
		"func classify(n):\n" +
		"    if n == 0:\n" +
		"        return 0\n" +
		"    else:\n" +
		"        return 1\n"
	prog := compileOK(t, source)
	if _, ok := prog.Labels["classify"]; !ok {
		t.Fatalf("classify label missing")
	}
}

func TestGenerateWhileBreakContinue(t *testing.T) {
	source := "" +
		"var total\n" +
		"func main():\n" +
		"    let i = 0\n" +
		"    while i != 5:\n" +
		"        if i == 2:\n" +
		"            let i += 1\n" +
		"            continue\n" +
		"        if i == 4:\n" +
		"            break\n" +
		"        let total += i\n" +
		"        let i += 1\n" +
		"    return total\n"
	compileOK(t, source)
}

func TestGenerateArrayStaticIndex(t *testing.T) {
	source := "" +
		"var buf[4]\n" +
		"func main():\n" +
		"    let buf[0] = 7\n" +
		"    let buf[1] = buf[0]\n" +
		"    return buf[1]\n"
	prog := compileOK(t, source)
	if prog.Words[1] != 0 && prog.Words[1] != 1 {
		// buf occupies .bss+0..3; just confirm the module assembled with
		// plausible small operands rather than pinning exact addresses,
		// since BSS layout numbering isn't the scope of this test.
	}
}

func TestGenerateArrayDynamicIndex(t *testing.T) {
	source := "" +
		"var buf[4]\n" +
		"func main():\n" +
		"    let i = 2\n" +
		"    let buf[i] = 9\n" +
		"    return buf[i]\n"
	compileOK(t, source)
}

func TestGeneratePointerDeref(t *testing.T) {
	source := "" +
		"var cell\n" +
		"func main():\n" +
		"    let cell = textloc\n" +
		"    let v = *cell\n" +
		"    return v\n"
	compileOK(t, source)
}

func TestGenerateCallSingleResult(t *testing.T) {
	source := "" +
		"func square(n):\n" +
		"    return n * 0\n" + // placeholder body; grammar has no '*' binary op, replaced below
		"func main():\n" +
		"    call square(3) -> r\n" +
		"    return r\n"
	// '*' isn't a Mini32 binary operator (only a unary deref prefix on a
	// term), so square's body above is invalid; replace it with a legal
	// one-term expression.
	source = "" +
		"func square(n):\n" +
		"    return n\n" +
		"func main():\n" +
		"    call square(3) -> r\n" +
		"    return r\n"
	compileOK(t, source)
}

func TestGenerateCallMultiResult(t *testing.T) {
	source := "" +
		"func divmod(a, b):\n" +
		"    return a, b\n" +
		"func main():\n" +
		"    call divmod(7, 2) -> q, r\n" +
		"    return q\n"
	compileOK(t, source)
}

func TestGenerateExternCall(t *testing.T) {
	source := "" +
		"depends shell\n" +
		"func main():\n" +
		"    call @shell(1)\n" +
		"    return 0\n"
	out := generateOK(t, source)
	if !strings.Contains(out, "JSR @shell") {
		t.Fatalf("extern call not emitted as JSR @shell:\n%s", out)
	}
}

func TestGenerateDataDeclaration(t *testing.T) {
	source := "" +
		"data greeting = \"hi\"\n" +
		"func main():\n" +
		"    let p = greeting\n" +
		"    return p\n"
	out := generateOK(t, source)
	if !strings.Contains(out, ".greeting = \"hi\"") {
		t.Fatalf("auto-data declaration not emitted:\n%s", out)
	}
}

func TestGenerateUndefinedSymbolIsError(t *testing.T) {
	prog, err := Parse("func main():\n    return nosuch\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := Generate(prog); err == nil {
		t.Fatalf("expected an error referencing an undefined symbol")
	}
}

func TestGenerateBreakOutsideLoopIsError(t *testing.T) {
	prog, err := Parse("func main():\n    break\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := Generate(prog); err == nil {
		t.Fatalf("expected an error for break outside a loop")
	}
}

func TestGenerateEntryDefaultsToMain(t *testing.T) {
	out := generateOK(t, "func main():\n    return 0\n")
	if !strings.Contains(out, ";! entry: main") {
		t.Fatalf("expected an entry header pointing at main:\n%s", out)
	}
}

func TestGenerateRawAsmStatement(t *testing.T) {
	source := "" +
		"func main():\n" +
		"    NOP\n" +
		"    return 0\n"
	compileOK(t, source)
}

// TestIfElseRunsToCorrectResult compiles, assembles, and executes the
// if/else program end to end: the cell bound to r must hold 1 and the
// function's return value is left in A.
func TestIfElseRunsToCorrectResult(t *testing.T) {
	source := "" +
		"func main:\n" +
		"    let x = 3\n" +
		"    if x == 3:\n" +
		"        let r = 1\n" +
		"    else:\n" +
		"        let r = 0\n" +
		"    return r\n"
	out := generateOK(t, source)

	// Harness: bind the BSS base, call main, halt on return.
	const bssBase = 1000
	harness := "bss = 1000\n  JSR main\n  HLT\n"
	cfg := vm.Config{WordBits: 16, StackBits: 8}
	asmProg, errs := asm.Assemble("test.easm", harness+out, cfg)
	if errs.HasErrors() {
		t.Fatalf("assembling:\n%s\n--- easm ---\n%s", errs.Error(), out)
	}

	machine := vm.NewMachine(cfg)
	if err := machine.Mem.LoadImage(0, asmProg.Words); err != nil {
		t.Fatal(err)
	}
	machine.CPU.Run(100000)
	if machine.CPU.State != vm.Halted {
		t.Fatal("program did not halt")
	}

	// BSS layout in allocation order: x at +0, the comparison scratch
	// cell at +1, r at +2.
	if got := machine.Mem.Read(bssBase + 2); got != 1 {
		t.Fatalf("r cell = %d, want 1", got)
	}
	if machine.CPU.Reg.A != 1 {
		t.Fatalf("returned A = %d, want 1", machine.CPU.Reg.A)
	}
}

// TestPeepholePreservesBehavior runs the same program with and without the
// peephole pass and compares the observable outcome.
func TestPeepholePreservesBehavior(t *testing.T) {
	source := "" +
		"func main:\n" +
		"    let a = 2 + 3\n" +
		"    let b = a - 1\n" +
		"    if b == 4:\n" +
		"        let a += 10\n" +
		"    return a\n"
	prog, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	run := func(easm string) (vm.Word, *vm.Machine) {
		t.Helper()
		cfg := vm.Config{WordBits: 16, StackBits: 8}
		asmProg, errs := asm.Assemble("test.easm", "bss = 1000\n  JSR main\n  HLT\n"+easm, cfg)
		if errs.HasErrors() {
			t.Fatalf("assembling:\n%s", errs.Error())
		}
		machine := vm.NewMachine(cfg)
		if err := machine.Mem.LoadImage(0, asmProg.Words); err != nil {
			t.Fatal(err)
		}
		machine.CPU.Run(100000)
		if machine.CPU.State != vm.Halted {
			t.Fatal("program did not halt")
		}
		return machine.CPU.Reg.A, machine
	}

	raw, err := GenerateRaw(prog)
	if err != nil {
		t.Fatalf("GenerateRaw: %v", err)
	}
	rawA, rawM := run(raw)

	prog2, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	opt, err := Generate(prog2)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	optA, optM := run(opt)

	if rawA != optA {
		t.Fatalf("A differs: raw %d, optimized %d", rawA, optA)
	}
	if rawA != 15 {
		t.Fatalf("A = %d, want 15", rawA)
	}
	// The BSS region both versions computed into must agree cell by cell.
	for addr := 1000; addr < 1016; addr++ {
		if rawM.Mem.Read(addr) != optM.Mem.Read(addr) {
			t.Fatalf("BSS cell %d differs: raw %d, optimized %d",
				addr, rawM.Mem.Read(addr), optM.Mem.Read(addr))
		}
	}
}

func generateOK(t *testing.T, source string) string {
	t.Helper()
	prog, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := Generate(prog)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return out
}
