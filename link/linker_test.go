package link

import (
	"strings"
	"testing"

	"github.com/coldvane/easm8/vm"
)

func TestParseHeaderDefaults(t *testing.T) {
	h, body := ParseHeader("Multiply", "  LDI 1\n  HLT\n")
	if h.Name != "multiply" {
		t.Fatalf("name = %q, want %q", h.Name, "multiply")
	}
	if h.Entry != "start" || h.Align != 100 || h.ABI != "none" || h.BSS != "auto" {
		t.Fatalf("unexpected defaults: %+v", h)
	}
	if !strings.Contains(body, "LDI 1") {
		t.Fatalf("body lost its instructions: %q", body)
	}
}

func TestParseHeaderOverrides(t *testing.T) {
	source := ";! name: mul\n;! entry: multiply\n;! align: 16\n;! deps: divide\n;! abi: os\n  LDI 1\n"
	h, body := ParseHeader("anything", source)
	if h.Name != "mul" || h.Entry != "multiply" || h.Align != 16 || h.ABI != "os" {
		t.Fatalf("header not applied: %+v", h)
	}
	if len(h.Deps) != 1 || h.Deps[0] != "divide" {
		t.Fatalf("deps = %v, want [divide]", h.Deps)
	}
	if strings.Contains(body, ";!") {
		t.Fatalf("header lines leaked into body: %q", body)
	}
}

func TestRewriteExternCalls(t *testing.T) {
	body, names := rewriteExternCalls("  JSR @divide\n  HLT\n")
	if len(names) != 1 || names[0] != "divide" {
		t.Fatalf("names = %v, want [divide]", names)
	}
	if !strings.Contains(body, "JSR #0") {
		t.Fatalf("extern call not rewritten: %q", body)
	}
}

func TestExtractAutoData(t *testing.T) {
	body, items := extractAutoData(".greeting = \"hi\"\n  LDA .greeting\n", map[string]bool{"bss": true})
	if len(items) != 1 || items[0].Name != "greeting" {
		t.Fatalf("items = %+v", items)
	}
	want := []vm.Word{'h', 'i', 0}
	for i, w := range want {
		if items[0].Words[i] != w {
			t.Fatalf("greeting word %d = %d, want %d", i, items[0].Words[i], w)
		}
	}
	if strings.Contains(body, ".greeting = ") {
		t.Fatalf("auto-data line not stripped: %q", body)
	}
}

func TestExtractAutoDataSkipsDefinedNames(t *testing.T) {
	src := "tick = 200\n.tick = 1\n.banner = \"ok\"\n"
	body, items := extractAutoData(src, map[string]bool{"bss": true})
	if len(items) != 1 || items[0].Name != "banner" {
		t.Fatalf("items = %+v, want only the banner auto-data entry", items)
	}
	if !strings.Contains(body, ".tick = 1") {
		t.Fatalf("write to a defined pointer variable was wrongly extracted: %q", body)
	}
}

func TestBSSRequired(t *testing.T) {
	if bssRequired("  LDA .bss\n") != 1 {
		t.Fatalf("bare .bss mention should require 1 word")
	}
	if bssRequired("  LDA .bss+9\n") != 10 {
		t.Fatalf(".bss+9 should require 10 words")
	}
	if bssRequired("  LDA x\n") != 0 {
		t.Fatalf("no .bss reference should require 0 words")
	}
}

func TestLayoutPlaceAvoidsOverlap(t *testing.T) {
	l := NewLayout(1000)
	a := l.Place(50, 100)
	b := l.Place(10, 100)
	if a.overlaps(b) {
		t.Fatalf("placed ranges overlap: %+v %+v", a, b)
	}
	if b.Start < a.End {
		t.Fatalf("second range %+v should start at or after first range's end %d", b, a.End)
	}
}

func TestLinkTwoModulesWithExternCall(t *testing.T) {
	cfg := vm.Config{WordBits: 16, StackBits: 8}

	divide := ModuleSource{Stem: "divide", Source: "" +
		"divide:\n" +
		"  LDI 1\n" +
		"  RET\n",
	}
	caller := ModuleSource{Stem: "caller", Source: ";! deps: \n" +
		"caller:\n" +
		"  JSR @divide\n" +
		"  HLT\n",
	}

	result, err := Link([]ModuleSource{divide, caller}, "CALL_STUB = 10\nos_api[0] = dispatch_program\n", cfg)
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}

	divImg, ok := result.Image["divide"]
	if !ok {
		t.Fatalf("divide module missing from image")
	}
	callerImg, ok := result.Image["caller"]
	if !ok {
		t.Fatalf("caller module missing from image")
	}

	// caller's JSR @divide operand (word 1) should resolve to divide's base.
	if callerImg.Words[1] != vm.Word(divImg.Base) {
		t.Fatalf("JSR @divide operand = %d, want divide base %d", callerImg.Words[1], divImg.Base)
	}
	if _, _, found := Overlaps(map[string]Range{
		"divide": {Start: divImg.Base, End: divImg.Base + divImg.Length},
		"caller": {Start: callerImg.Base, End: callerImg.Base + callerImg.Length},
	}); found {
		t.Fatalf("modules overlap")
	}
}

func TestLinkRejectsOverlappingExplicitBases(t *testing.T) {
	cfg := vm.Config{WordBits: 16, StackBits: 8}

	// 16 two-word LDI instructions: 32 words of code each, so bases 100
	// and 120 produce [100,132) overlapping [120,152).
	var body strings.Builder
	for i := 0; i < 16; i++ {
		body.WriteString("  LDI 1\n")
	}

	first := ModuleSource{Stem: "first", Source: ";! base: 100\n;! bss: none\n" + body.String()}
	second := ModuleSource{Stem: "second", Source: ";! base: 120\n;! bss: none\n" + body.String()}

	_, err := Link([]ModuleSource{first, second}, "", cfg)
	if err == nil {
		t.Fatal("expected an overlap error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "first") || !strings.Contains(msg, "second") {
		t.Fatalf("overlap error should name both modules: %v", err)
	}
}

func TestLinkDetectsDependencyCycle(t *testing.T) {
	a := ModuleSource{Stem: "a", Source: ";! deps: b\nstart:\n  HLT\n"}
	b := ModuleSource{Stem: "b", Source: ";! deps: a\nstart:\n  HLT\n"}

	_, err := Link([]ModuleSource{a, b}, "CALL_STUB = 0\n", vm.DefaultConfig())
	if err == nil {
		t.Fatalf("expected a dependency-cycle error")
	}
}

func TestProgramTableTerminatesWithZero(t *testing.T) {
	words := BuildProgramTable(map[string]int{"shell": 100, "echon": 50})
	if len(words) != 2*entryWords+1 {
		t.Fatalf("len = %d, want %d", len(words), 2*entryWords+1)
	}
	if words[len(words)-1] != 0 {
		t.Fatalf("table must terminate with a zero word")
	}
	// echon (base 50) sorts before shell (base 100).
	if words[0] != 'E' {
		t.Fatalf("first entry should be echon (lower base), got byte %d", words[0])
	}
}
