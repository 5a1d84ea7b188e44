package asm

import "strings"

// LineKind classifies one physical line of EASM source: instructions are
// indented exactly two spaces, everything else starts in column 0.
type LineKind int

const (
	LineBlank LineKind = iota
	LineComment
	LineInstruction
	LineLabel
	LineMemWrite
	LinePointerVar
)

// Line is one tokenized physical line, carrying enough of the original text
// for error context and for the Program descriptor's UI highlighting.
type Line struct {
	Pos     Position
	Kind    LineKind
	Raw     string
	Comment string // trailing comment text, without the leading ';'

	// LineInstruction
	Mnemonic string
	Operand  string // operand text with internal spaces removed, "" if none

	// LineLabel
	Label string

	// LineMemWrite: "ADDR_EXPR = VALUE"; Name is the address expression.
	// LinePointerVar: "NAME = EXPR"; Name is the variable name.
	Name  string
	Value string // right-hand side, raw (may be a quoted string)
}

// stripComment splits off a trailing ";..." comment, returning the code
// portion (not yet trimmed) and the comment text.
func stripComment(s string) (code, comment string) {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

// Lex tokenizes EASM source into Lines. It never returns an error itself;
// malformed lines are reported as Lines the assembler's passes reject with
// positioned *Error values, keeping scanning separate from semantic
// validation.
func Lex(filename, source string) []*Line {
	rawLines := strings.Split(source, "\n")
	lines := make([]*Line, 0, len(rawLines))

	for i, raw := range rawLines {
		pos := Position{Filename: filename, Line: i + 1}
		code, comment := stripComment(raw)
		trimmed := strings.TrimRight(code, " \t\r")

		if strings.TrimSpace(trimmed) == "" {
			kind := LineBlank
			if comment != "" {
				kind = LineComment
			}
			lines = append(lines, &Line{Pos: pos, Kind: kind, Raw: raw, Comment: comment})
			continue
		}

		if strings.HasPrefix(trimmed, "  ") && trimmed[2] != ' ' {
			fields := strings.Fields(trimmed)
			l := &Line{Pos: pos, Kind: LineInstruction, Raw: raw, Comment: comment, Mnemonic: strings.ToUpper(fields[0])}
			if len(fields) > 1 {
				// A spaced expression like "bss + 2" is one operand.
				l.Operand = strings.Join(fields[1:], "")
			}
			lines = append(lines, l)
			continue
		}

		// Column 0: pointer variable, variable-into-memory, or label.
		body := strings.TrimSpace(trimmed)
		if eq := strings.IndexByte(body, '='); eq >= 0 {
			lhs := strings.TrimSpace(body[:eq])
			rhs := strings.TrimSpace(body[eq+1:])
			kind := LinePointerVar
			if isMemWriteTarget(lhs) {
				kind = LineMemWrite
			}
			lines = append(lines, &Line{Pos: pos, Kind: kind, Raw: raw, Comment: comment, Name: lhs, Value: rhs})
			continue
		}
		if colon := strings.IndexByte(body, ':'); colon >= 0 {
			lines = append(lines, &Line{Pos: pos, Kind: LineLabel, Raw: raw, Comment: comment, Label: strings.TrimSpace(body[:colon])})
			continue
		}

		// Anything else in column 0 is inert, like the reference assembler.
		lines = append(lines, &Line{Pos: pos, Kind: LineBlank, Raw: raw, Comment: comment})
	}

	return lines
}

// isMemWriteTarget reports whether an assignment's left-hand side is a
// memory address expression rather than a pointer-variable name: address
// expressions start with '.' (a pointer-variable dereference) or a digit.
func isMemWriteTarget(lhs string) bool {
	if lhs == "" {
		return false
	}
	return lhs[0] == '.' || (lhs[0] >= '0' && lhs[0] <= '9')
}
