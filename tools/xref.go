package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/coldvane/easm8/asm"
)

// ReferenceType classifies how a symbol is used
type ReferenceType int

const (
	RefJump   ReferenceType = iota // JMP/JPZ/JPC/JNZ target
	RefCall                        // JSR target
	RefData                        // pointer-variable use in a data operand
	RefExtern                      // @name extern call site
)

func (r ReferenceType) String() string {
	switch r {
	case RefJump:
		return "jump"
	case RefCall:
		return "call"
	case RefData:
		return "data"
	case RefExtern:
		return "extern"
	default:
		return "unknown"
	}
}

// Reference is one use of a symbol
type Reference struct {
	Type ReferenceType
	Line int
}

// Symbol is one label or pointer variable with its definition site and
// every reference to it.
type Symbol struct {
	Name       string
	IsLabel    bool // label vs pointer variable
	DefLine    int  // 0 if undefined (referenced only)
	References []Reference
	Callers    []string // labels whose region JSRs into this symbol
}

// XRefGenerator builds a cross-reference table for one EASM source file.
type XRefGenerator struct {
	filename string
	lines    []*asm.Line
	symbols  map[string]*Symbol
}

// NewXRefGenerator creates a new cross-reference generator
func NewXRefGenerator() *XRefGenerator {
	return &XRefGenerator{symbols: map[string]*Symbol{}}
}

// Generate builds the symbol table for input and returns it keyed by name.
func (x *XRefGenerator) Generate(input, filename string) (map[string]*Symbol, error) {
	x.filename = filename
	x.lines = asm.Lex(filename, input)
	x.symbols = map[string]*Symbol{}

	x.collectDefinitions()
	x.collectReferences()
	return x.symbols, nil
}

func (x *XRefGenerator) symbol(name string, isLabel bool) *Symbol {
	s, ok := x.symbols[name]
	if !ok {
		s = &Symbol{Name: name, IsLabel: isLabel}
		x.symbols[name] = s
	}
	return s
}

func (x *XRefGenerator) collectDefinitions() {
	for _, line := range x.lines {
		switch line.Kind {
		case asm.LineLabel:
			x.symbol(line.Label, true).DefLine = line.Pos.Line
		case asm.LinePointerVar:
			x.symbol(line.Name, false).DefLine = line.Pos.Line
		}
	}
}

func (x *XRefGenerator) collectReferences() {
	region := "" // innermost label preceding the current instruction
	for _, line := range x.lines {
		switch line.Kind {
		case asm.LineLabel:
			region = line.Label

		case asm.LineInstruction:
			info, known := asm.Opcodes[line.Mnemonic]
			if !known || info.Operands == 0 || line.Operand == "" {
				continue
			}
			switch {
			case strings.HasPrefix(line.Operand, "@"):
				s := x.symbol(strings.TrimPrefix(line.Operand, "@"), true)
				s.References = append(s.References, Reference{Type: RefExtern, Line: line.Pos.Line})
			case asm.IsControlFlow(info.Opcode):
				if strings.HasPrefix(line.Operand, "#") {
					continue // literal target, no symbol
				}
				refType := RefJump
				if line.Mnemonic == "JSR" {
					refType = RefCall
				}
				s := x.symbol(line.Operand, true)
				s.References = append(s.References, Reference{Type: refType, Line: line.Pos.Line})
				if refType == RefCall && region != "" {
					s.Callers = appendUnique(s.Callers, region)
				}
			default:
				x.addDataRefs(line.Operand, line.Pos.Line)
			}

		case asm.LinePointerVar:
			x.addDataRefs(line.Value, line.Pos.Line)
		case asm.LineMemWrite:
			x.addDataRefs(line.Name, line.Pos.Line)
		}
	}
}

// addDataRefs records every pointer-variable name a +/- expression uses.
func (x *XRefGenerator) addDataRefs(expr string, lineNo int) {
	expr = strings.ReplaceAll(expr, " ", "")
	for _, pos := range strings.Split(expr, "+") {
		for _, term := range strings.Split(pos, "-") {
			name := strings.TrimPrefix(term, ".")
			if name == "" || isNumeric(name) || strings.HasPrefix(name, "\"") || strings.HasPrefix(name, "'") {
				continue
			}
			s := x.symbol(name, false)
			s.References = append(s.References, Reference{Type: RefData, Line: lineNo})
		}
	}
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

// GetSymbols returns the full symbol table from the last Generate call.
func (x *XRefGenerator) GetSymbols() map[string]*Symbol {
	return x.symbols
}

// GetSymbol looks up one symbol by name.
func (x *XRefGenerator) GetSymbol(name string) (*Symbol, bool) {
	s, ok := x.symbols[name]
	return s, ok
}

// GetUndefinedSymbols returns symbols that are referenced but never
// defined in this file (extern targets land here by construction).
func (x *XRefGenerator) GetUndefinedSymbols() []*Symbol {
	var out []*Symbol
	for _, s := range x.symbols {
		if s.DefLine == 0 {
			out = append(out, s)
		}
	}
	sortSymbols(out)
	return out
}

// GetUnusedSymbols returns symbols defined but never referenced.
func (x *XRefGenerator) GetUnusedSymbols() []*Symbol {
	var out []*Symbol
	for _, s := range x.symbols {
		if s.DefLine != 0 && len(s.References) == 0 && !isEntryLabel(s.Name) {
			out = append(out, s)
		}
	}
	sortSymbols(out)
	return out
}

func sortSymbols(syms []*Symbol) {
	sort.Slice(syms, func(i, j int) bool { return syms[i].Name < syms[j].Name })
}

// XRefReport renders a symbol table as a readable listing.
type XRefReport struct {
	symbols []*Symbol
}

// NewXRefReport creates a report over the given symbol table.
func NewXRefReport(symbols map[string]*Symbol) *XRefReport {
	list := make([]*Symbol, 0, len(symbols))
	for _, s := range symbols {
		list = append(list, s)
	}
	sortSymbols(list)
	return &XRefReport{symbols: list}
}

func (r *XRefReport) String() string {
	var sb strings.Builder
	sb.WriteString("Cross-reference\n\n")
	for _, s := range r.symbols {
		kind := "var"
		if s.IsLabel {
			kind = "label"
		}
		def := "undefined"
		if s.DefLine != 0 {
			def = fmt.Sprintf("line %d", s.DefLine)
		}
		fmt.Fprintf(&sb, "%-20s %-6s %s\n", s.Name, kind, def)
		for _, ref := range s.References {
			fmt.Fprintf(&sb, "    %-6s line %d\n", ref.Type, ref.Line)
		}
		if len(s.Callers) > 0 {
			fmt.Fprintf(&sb, "    called from: %s\n", strings.Join(s.Callers, ", "))
		}
	}
	return sb.String()
}

// GenerateXRef is a convenience wrapper producing the rendered report.
func GenerateXRef(input, filename string) (string, error) {
	gen := NewXRefGenerator()
	symbols, err := gen.Generate(input, filename)
	if err != nil {
		return "", err
	}
	return NewXRefReport(symbols).String(), nil
}
