package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/coldvane/easm8/asm"
)

// LintLevel is the severity of a lint issue
type LintLevel int

const (
	LintError LintLevel = iota
	LintWarning
	LintInfo
)

func (l LintLevel) String() string {
	switch l {
	case LintError:
		return "error"
	case LintWarning:
		return "warning"
	case LintInfo:
		return "info"
	default:
		return "unknown"
	}
}

// LintIssue is one finding, with enough position info to print
// file:line: level: message lines.
type LintIssue struct {
	Level    LintLevel
	Line     int
	Message  string
	Filename string
}

func (i *LintIssue) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", i.Filename, i.Line, i.Level, i.Message)
}

// LintOptions controls which checks run
type LintOptions struct {
	CheckUnusedLabels    bool
	CheckUnusedVariables bool
	CheckUnreachableCode bool
	CheckIndentation     bool
	SuggestSimilarLabels bool
}

// DefaultLintOptions enables every check
func DefaultLintOptions() *LintOptions {
	return &LintOptions{
		CheckUnusedLabels:    true,
		CheckUnusedVariables: true,
		CheckUnreachableCode: true,
		CheckIndentation:     true,
		SuggestSimilarLabels: true,
	}
}

// Linter runs static checks over EASM source: unknown mnemonics, operand
// arity, undefined or unused labels and pointer variables, unreachable
// code, and indentation that silently demotes an instruction to an inert
// line (the most common real mistake in column-sensitive source).
type Linter struct {
	options  *LintOptions
	filename string
	lines    []*asm.Line

	labels     map[string]int // name -> defining line
	labelUses  map[string]bool
	vars       map[string]int
	varUses    map[string]bool
	jumpLabels []labelRef

	issues []*LintIssue
}

type labelRef struct {
	name string
	line int
}

// NewLinter creates a linter with the given options (nil for defaults)
func NewLinter(options *LintOptions) *Linter {
	if options == nil {
		options = DefaultLintOptions()
	}
	return &Linter{options: options}
}

// Lint checks EASM source and returns all issues found, in line order.
func (l *Linter) Lint(input, filename string) []*LintIssue {
	l.filename = filename
	l.lines = asm.Lex(filename, input)
	l.labels = map[string]int{}
	l.labelUses = map[string]bool{}
	l.vars = map[string]int{}
	l.varUses = map[string]bool{}
	l.jumpLabels = nil
	l.issues = nil

	l.collectDefinitions()
	l.checkInstructions()
	l.checkUndefinedLabels()
	if l.options.CheckUnusedLabels {
		l.checkUnusedLabels()
	}
	if l.options.CheckUnusedVariables {
		l.checkUnusedVariables()
	}
	if l.options.CheckUnreachableCode {
		l.checkUnreachableCode()
	}
	if l.options.CheckIndentation {
		l.checkIndentation()
	}

	sort.SliceStable(l.issues, func(i, j int) bool { return l.issues[i].Line < l.issues[j].Line })
	return l.issues
}

func (l *Linter) addIssue(level LintLevel, line int, format string, args ...any) {
	l.issues = append(l.issues, &LintIssue{
		Level: level, Line: line, Filename: l.filename,
		Message: fmt.Sprintf(format, args...),
	})
}

func (l *Linter) collectDefinitions() {
	for _, line := range l.lines {
		switch line.Kind {
		case asm.LineLabel:
			if prev, dup := l.labels[line.Label]; dup {
				l.addIssue(LintError, line.Pos.Line, "label %q already defined on line %d", line.Label, prev)
			}
			l.labels[line.Label] = line.Pos.Line
		case asm.LinePointerVar:
			l.vars[line.Name] = line.Pos.Line
			l.markExprUses(line.Value)
		case asm.LineMemWrite:
			l.markExprUses(line.Name)
		}
	}
}

func (l *Linter) checkInstructions() {
	for _, line := range l.lines {
		if line.Kind != asm.LineInstruction {
			continue
		}
		info, known := asm.Opcodes[line.Mnemonic]
		if !known {
			l.addIssue(LintError, line.Pos.Line, "unknown mnemonic %q", line.Mnemonic)
			continue
		}
		got := 0
		if line.Operand != "" {
			got = 1
		}
		if got != info.Operands {
			l.addIssue(LintError, line.Pos.Line, "%s expects %d operand(s), got %d", line.Mnemonic, info.Operands, got)
			continue
		}
		if got == 0 {
			continue
		}
		if asm.IsControlFlow(info.Opcode) {
			// "#N" literal targets and "@name" extern sites (resolved by the
			// loader, not this file) are not label references.
			if !strings.HasPrefix(line.Operand, "#") && !strings.HasPrefix(line.Operand, "@") {
				l.jumpLabels = append(l.jumpLabels, labelRef{name: line.Operand, line: line.Pos.Line})
			}
		} else {
			l.markExprUses(line.Operand)
		}
	}
}

// markExprUses records every pointer-variable name mentioned in a
// +/- expression, for the unused-variable check.
func (l *Linter) markExprUses(expr string) {
	expr = strings.ReplaceAll(expr, " ", "")
	for _, pos := range strings.Split(expr, "+") {
		for _, term := range strings.Split(pos, "-") {
			name := strings.TrimPrefix(term, ".")
			if name != "" && !isNumeric(name) {
				l.varUses[name] = true
			}
		}
	}
}

func (l *Linter) checkUndefinedLabels() {
	for _, ref := range l.jumpLabels {
		if _, ok := l.labels[ref.name]; ok {
			l.labelUses[ref.name] = true
			continue
		}
		msg := fmt.Sprintf("undefined label %q", ref.name)
		if l.options.SuggestSimilarLabels {
			if similar := l.findSimilarLabel(ref.name); similar != "" {
				msg += fmt.Sprintf(" (did you mean %q?)", similar)
			}
		}
		l.addIssue(LintError, ref.line, "%s", msg)
	}
}

func (l *Linter) checkUnusedLabels() {
	for name, defLine := range l.labels {
		if !l.labelUses[name] && !isEntryLabel(name) {
			l.addIssue(LintWarning, defLine, "label %q defined but never referenced", name)
		}
	}
}

func (l *Linter) checkUnusedVariables() {
	for name, defLine := range l.vars {
		if !l.varUses[name] {
			l.addIssue(LintWarning, defLine, "pointer variable %q defined but never used", name)
		}
	}
}

// checkUnreachableCode flags instructions that directly follow an
// unconditional control transfer with no intervening label.
func (l *Linter) checkUnreachableCode() {
	unreachable := false
	for _, line := range l.lines {
		switch line.Kind {
		case asm.LineLabel:
			unreachable = false
		case asm.LineInstruction:
			if unreachable {
				l.addIssue(LintWarning, line.Pos.Line, "unreachable code after unconditional jump/halt")
				unreachable = false // one report per region
			}
			switch line.Mnemonic {
			case "JMP", "RET", "HLT":
				unreachable = true
			}
		}
	}
}

// checkIndentation catches lines that look like instructions but have the
// wrong leading whitespace, which the column-sensitive grammar silently
// ignores.
func (l *Linter) checkIndentation() {
	for _, line := range l.lines {
		if line.Kind != asm.LineBlank {
			continue
		}
		trimmed := strings.TrimLeft(line.Raw, " \t")
		if trimmed == "" || strings.HasPrefix(trimmed, ";") {
			continue
		}
		indent := line.Raw[:len(line.Raw)-len(trimmed)]
		word := strings.ToUpper(strings.Fields(trimmed)[0])
		if _, isOp := asm.Opcodes[word]; !isOp {
			continue
		}
		switch {
		case strings.Contains(indent, "\t"):
			l.addIssue(LintWarning, line.Pos.Line, "instruction indented with a tab is ignored; use exactly two spaces")
		case len(indent) != 2:
			l.addIssue(LintWarning, line.Pos.Line, "instruction indented with %d space(s) is ignored; use exactly two", len(indent))
		}
	}
}

// findSimilarLabel suggests the closest defined label within edit
// distance 2.
func (l *Linter) findSimilarLabel(target string) string {
	best := ""
	bestDist := 3
	for name := range l.labels {
		if d := levenshteinDistance(target, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = minOf(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}

// isEntryLabel reports whether a label is a conventional entry point other
// code reaches from outside the file (module entries, OS handler labels).
func isEntryLabel(label string) bool {
	return label == "start" || label == "main"
}

func isNumeric(s string) bool {
	if strings.HasPrefix(s, "#") {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func minOf(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// LintSource is a convenience wrapper using default options.
func LintSource(input, filename string) []*LintIssue {
	return NewLinter(nil).Lint(input, filename)
}
