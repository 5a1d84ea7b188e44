// Package tools provides source-level developer utilities for EASM:
// a formatter, a linter, and a cross-reference generator. All three work
// on raw source text via the assembler's lexer, never on assembled output,
// so they run on code that does not (yet) assemble.
package tools

import (
	"fmt"
	"strings"

	"github.com/coldvane/easm8/asm"
)

// FormatStyle defines formatting options
type FormatStyle int

const (
	FormatDefault  FormatStyle = iota // Standard formatting
	FormatCompact                     // Minimal whitespace
	FormatExpanded                    // Extra whitespace for readability
)

// FormatOptions controls formatter behavior
type FormatOptions struct {
	Style              FormatStyle
	CommentColumn      int  // Column trailing comments are aligned to
	AlignComments      bool // Align trailing comments in a column
	PreserveEmptyLines bool // Keep empty lines
}

// DefaultFormatOptions returns default formatter options
func DefaultFormatOptions() *FormatOptions {
	return &FormatOptions{
		Style:              FormatDefault,
		CommentColumn:      24,
		AlignComments:      true,
		PreserveEmptyLines: true,
	}
}

// CompactFormatOptions returns options for minimal whitespace
func CompactFormatOptions() *FormatOptions {
	return &FormatOptions{
		Style:              FormatCompact,
		AlignComments:      false,
		PreserveEmptyLines: false,
	}
}

// ExpandedFormatOptions returns options with extra whitespace around labels
func ExpandedFormatOptions() *FormatOptions {
	return &FormatOptions{
		Style:              FormatExpanded,
		CommentColumn:      32,
		AlignComments:      true,
		PreserveEmptyLines: true,
	}
}

// Formatter normalizes EASM source layout: instructions at exactly two
// spaces of indent, uppercase mnemonics, single spaces inside assignments,
// and optionally column-aligned trailing comments. It never changes what a
// line means; the column-sensitive grammar is the one thing it must not
// break.
type Formatter struct {
	options *FormatOptions
}

// NewFormatter creates a formatter with the given options (nil for defaults)
func NewFormatter(options *FormatOptions) *Formatter {
	if options == nil {
		options = DefaultFormatOptions()
	}
	return &Formatter{options: options}
}

// Format formats EASM source text and returns the result
func (f *Formatter) Format(input, filename string) (string, error) {
	lines := asm.Lex(filename, input)

	var out []string
	for _, l := range lines {
		formatted, keep := f.formatLine(l)
		if keep {
			out = append(out, formatted)
		}
	}

	// Drop trailing blank lines, keep exactly one final newline.
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n") + "\n", nil
}

func (f *Formatter) formatLine(l *asm.Line) (string, bool) {
	switch l.Kind {
	case asm.LineBlank:
		if strings.TrimSpace(l.Raw) != "" {
			// Inert column-0 text the lexer didn't recognize; preserved as-is.
			return l.Raw, true
		}
		return "", f.options.PreserveEmptyLines

	case asm.LineComment:
		return "; " + l.Comment, true

	case asm.LineInstruction:
		code := "  " + strings.ToUpper(l.Mnemonic)
		if l.Operand != "" {
			code += " " + l.Operand
		}
		return f.attachComment(code, l.Comment), true

	case asm.LineLabel:
		line := l.Label + ":"
		if f.options.Style == FormatExpanded {
			line = "\n" + line
		}
		return f.attachComment(line, l.Comment), true

	case asm.LinePointerVar, asm.LineMemWrite:
		return f.attachComment(l.Name+" = "+l.Value, l.Comment), true
	}
	return l.Raw, true
}

// attachComment re-appends a trailing comment, aligned to CommentColumn
// when requested.
func (f *Formatter) attachComment(code, comment string) string {
	if comment == "" {
		return code
	}
	if !f.options.AlignComments {
		return code + " ; " + comment
	}
	pad := f.options.CommentColumn - len(code)
	if pad < 1 {
		pad = 1
	}
	return code + strings.Repeat(" ", pad) + "; " + comment
}

// FormatFile is a convenience wrapper that formats source with default
// options.
func FormatFile(input, filename string) (string, error) {
	return NewFormatter(nil).Format(input, filename)
}

// Diff returns a unified-style listing of lines that would change, for
// format --check modes. Empty output means the source is already clean.
func Diff(input, formatted string) string {
	inLines := strings.Split(input, "\n")
	outLines := strings.Split(formatted, "\n")

	var sb strings.Builder
	max := len(inLines)
	if len(outLines) > max {
		max = len(outLines)
	}
	for i := 0; i < max; i++ {
		var a, b string
		if i < len(inLines) {
			a = inLines[i]
		}
		if i < len(outLines) {
			b = outLines[i]
		}
		if a != b {
			fmt.Fprintf(&sb, "-%d: %s\n+%d: %s\n", i+1, a, i+1, b)
		}
	}
	return sb.String()
}
