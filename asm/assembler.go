package asm

import (
	"strconv"
	"strings"

	"github.com/coldvane/easm8/vm"
)

// Token is one assembled line's UI-facing record: its source position, the
// address(es) it occupies, and enough of the original text to re-render or
// highlight it.
type Token struct {
	Pos     Position
	Address vm.Word
	Length  int
	Kind    LineKind

	// Correction is code_address - program_line_index for instruction
	// tokens: the number of extra words earlier two-word instructions
	// consumed, letting a UI map the executing address back to its source
	// line.
	Correction int

	Mnemonic string
	Operand  string
	Name     string
}

// Program is the output of a successful assemble: the memory image plus
// enough metadata for a debugger or assembler UI to map source lines to
// addresses and back.
type Program struct {
	Words       []vm.Word
	Tokens      []Token
	Labels      map[string]vm.Word
	PointerVars map[string]int
}

// Assembler holds the mutable state of one assemble pass: the symbol tables
// built in pass one and consulted in pass two, and the accumulated
// diagnostics.
type Assembler struct {
	Cfg vm.Config

	labels      map[string]vm.Word
	pointerVars map[string]int
	unusedVars  map[string]Position

	words []vm.Word
	errs  *ErrorList
}

// Assemble runs the two-pass algorithm over source, producing a Program on
// success. Fatal errors are returned via the
// *ErrorList's Errors slice; a non-empty Errors means prog is nil.
// Non-fatal diagnostics (unresolved pointer variables, variables defined
// but never used) are returned via Warnings regardless of success.
func Assemble(filename, source string, cfg vm.Config) (*Program, *ErrorList) {
	a := &Assembler{
		Cfg:         cfg,
		labels:      map[string]vm.Word{},
		pointerVars: map[string]int{},
		unusedVars:  map[string]Position{},
		words:       make([]vm.Word, cfg.Size()),
		errs:        &ErrorList{},
	}

	lines := Lex(filename, source)
	layout := a.firstPass(lines)
	if a.errs.HasErrors() {
		return nil, a.errs
	}

	prog := a.secondPass(lines, layout)
	if a.errs.HasErrors() {
		return nil, a.errs
	}
	return prog, a.errs
}

// lineLayout records, for one line, the code address it was assigned, how
// many words it occupies, and its program-line index (instructions only).
type lineLayout struct {
	address  vm.Word
	length   int
	progline int
}

// firstPass walks the source once, assigning every instruction its code
// address, recording labels and pointer-variable aliases, and executing
// variable-into-memory writes immediately with whatever pointer variables
// are known so far.
func (a *Assembler) firstPass(lines []*Line) []lineLayout {
	layout := make([]lineLayout, len(lines))
	addr := 0
	progline := 0

	for i, l := range lines {
		switch l.Kind {
		case LineLabel:
			a.labels[l.Label] = vm.Word(addr)

		case LinePointerVar:
			a.pointerVars[l.Name] = evalExpr(l.Value, a.pointerVars, nil)
			a.unusedVars[l.Name] = l.Pos

		case LineMemWrite:
			a.execMemWrite(l)

		case LineInstruction:
			info, known := Opcodes[l.Mnemonic]
			if !known {
				a.errs.AddError(NewError(l.Pos, ErrUnknownMnemonic, l.Raw, "unknown mnemonic %q", l.Mnemonic))
				continue
			}
			got := 0
			if l.Operand != "" {
				got = 1
			}
			if got != info.Operands {
				a.errs.AddError(NewError(l.Pos, ErrOperandCount, l.Raw,
					"%s expects %d operand(s), got %d", l.Mnemonic, info.Operands, got))
				continue
			}
			layout[i] = lineLayout{address: vm.Word(addr), length: 1 + got, progline: progline}
			addr += 1 + got
			progline++
			if addr > a.Cfg.Size() {
				a.errs.AddError(NewError(l.Pos, ErrOutOfRange, l.Raw, "program exceeds memory size (%d words)", a.Cfg.Size()))
			}
		}
	}

	return layout
}

// execMemWrite performs one `ADDR_EXPR = VALUE` line: the address
// expression is evaluated against the pointer variables known so far, and
// the right-hand side is either a quoted ASCII string (written byte by
// byte from that address) or a single decimal integer word.
func (a *Assembler) execMemWrite(l *Line) {
	addr := evalExpr(l.Name, a.pointerVars, nil)

	var values []vm.Word
	if s, ok := unquote(l.Value); ok {
		values = make([]vm.Word, len(s))
		for i := 0; i < len(s); i++ {
			values[i] = vm.Word(s[i])
		}
	} else {
		n, err := strconv.Atoi(l.Value)
		if err != nil {
			a.errs.AddError(NewError(l.Pos, ErrMalformedExpr, l.Raw, "malformed value %q", l.Value))
			return
		}
		values = []vm.Word{vm.Word(n)}
	}

	if addr < 0 || addr+len(values) > a.Cfg.Size() {
		a.errs.AddError(NewError(l.Pos, ErrOutOfRange, l.Raw,
			"write of %d word(s) at address %d is outside memory [0, %d)", len(values), addr, a.Cfg.Size()))
		return
	}
	for i, v := range values {
		a.words[addr+i] = a.Cfg.Clamp(v)
	}
}

// unquote strips matching double or single quotes around s, reporting
// whether s was a quoted string at all.
func unquote(s string) (string, bool) {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], true
	}
	return "", false
}

// secondPass re-walks the source, now with every label and pointer variable
// known, emitting opcode bytes and resolved operands into the memory image.
func (a *Assembler) secondPass(lines []*Line, layout []lineLayout) *Program {
	tokens := make([]Token, 0, len(lines))

	for i, l := range lines {
		switch l.Kind {
		case LineInstruction:
			ll := layout[i]
			info := Opcodes[l.Mnemonic] // arity and existence already checked in pass one

			a.words[ll.address] = vm.Word(info.Opcode)
			if info.Operands == 1 {
				var operand vm.Word
				var ok bool
				if IsControlFlow(info.Opcode) {
					operand, ok = a.resolveJumpTarget(l.Pos, l.Operand)
				} else {
					operand, ok = a.evalOperand(l.Pos, l.Operand)
				}
				if ok {
					a.words[int(ll.address)+1] = operand
				}
			}
			tokens = append(tokens, Token{
				Pos: l.Pos, Address: ll.address, Length: ll.length, Kind: l.Kind,
				Correction: int(ll.address) - ll.progline,
				Mnemonic:   l.Mnemonic, Operand: l.Operand,
			})

		case LineLabel:
			tokens = append(tokens, Token{Pos: l.Pos, Address: a.labels[l.Label], Kind: l.Kind, Name: l.Label})

		case LinePointerVar, LineMemWrite:
			tokens = append(tokens, Token{Pos: l.Pos, Kind: l.Kind, Name: l.Name})
		}
	}

	for name, pos := range a.unusedVars {
		a.errs.AddWarning(&Warning{Pos: pos, Message: "variable \"" + name + "\" defined but not used"})
	}

	return &Program{
		Words:       a.words,
		Tokens:      tokens,
		Labels:      a.labels,
		PointerVars: a.pointerVars,
	}
}

// resolveJumpTarget resolves a control-flow operand: "#N" is an absolute
// literal target, otherwise the text must name a label.
func (a *Assembler) resolveJumpTarget(pos Position, text string) (vm.Word, bool) {
	if len(text) > 0 && text[0] == '#' {
		n, err := strconv.Atoi(text[1:])
		if err != nil {
			a.errs.AddError(NewError(pos, ErrMalformedExpr, text, "malformed jump literal %q", text))
			return 0, false
		}
		return a.Cfg.Clamp(vm.Word(n)), true
	}
	addr, ok := a.labels[text]
	if !ok {
		a.errs.AddError(NewError(pos, ErrUndefinedLabel, text, "undefined label %q", text))
		return 0, false
	}
	return addr, true
}

// evalOperand resolves a non-jump operand expression. Undefined pointer
// variables warn and evaluate to 0.
func (a *Assembler) evalOperand(pos Position, expr string) (vm.Word, bool) {
	v := evalExpr(expr, a.pointerVars, func(name string) {
		a.errs.AddWarning(&Warning{Pos: pos, Message: "undefined pointer variable \"" + name + "\", defaulting to 0"})
	})
	a.markUsed(expr)
	return a.Cfg.Clamp(vm.Word(v)), true
}

// markUsed clears the defined-but-unused flag for every name expr mentions.
func (a *Assembler) markUsed(expr string) {
	expr = strings.ReplaceAll(expr, " ", "")
	for _, positive := range strings.Split(expr, "+") {
		for _, term := range strings.Split(positive, "-") {
			name := strings.TrimPrefix(term, ".")
			delete(a.unusedVars, name)
		}
	}
}
