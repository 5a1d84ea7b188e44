package link

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/coldvane/easm8/vm"
)

// AutoDataItem is one `.NAME = VALUE` declaration collected from a module's
// body during preprocessing: a name, its word offset within
// the module's shared auto-data block, and its encoded words.
type AutoDataItem struct {
	Name   string
	Offset int
	Words  []vm.Word
}

var externCallRe = regexp.MustCompile(`(?m)^(\s*)JSR\s+@(\S+)\s*$`)

// rewriteExternCalls replaces `  JSR @name` call sites with `  JSR #0`,
// returning the rewritten body and the externed symbol names in the
// textual order they appear.
func rewriteExternCalls(body string) (string, []string) {
	var names []string
	out := externCallRe.ReplaceAllStringFunc(body, func(m string) string {
		sub := externCallRe.FindStringSubmatch(m)
		names = append(names, sub[2])
		return sub[1] + "JSR #0"
	})
	return out, names
}

var autoDataLineRe = regexp.MustCompile(`^\.([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.+?)\s*$`)
var pointerVarLineRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=`)

// extractAutoData removes every auto-data line from body,
// returning the cleaned body and the collected items with their
// module-local word offsets assigned in order of appearance. A line
// `.NAME = VALUE` is auto data only when NAME has not been defined as a
// pointer variable earlier in the body and is not in predefined (ABI
// aliases, dep names, "bss") — otherwise it is an ordinary
// variable-into-memory write the assembler executes itself.
func extractAutoData(body string, predefined map[string]bool) (string, []AutoDataItem) {
	defined := map[string]bool{}
	for name := range predefined {
		defined[name] = true
	}

	var items []AutoDataItem
	offset := 0

	lines := strings.Split(body, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if m := pointerVarLineRe.FindStringSubmatch(trimmed); m != nil && !strings.HasPrefix(trimmed, ".") {
			defined[m[1]] = true
			kept = append(kept, line)
			continue
		}
		m := autoDataLineRe.FindStringSubmatch(trimmed)
		if m == nil || defined[m[1]] {
			kept = append(kept, line)
			continue
		}
		words := encodeAutoDataValue(m[2])
		items = append(items, AutoDataItem{Name: m[1], Offset: offset, Words: words})
		offset += len(words)
	}

	return strings.Join(kept, "\n"), items
}

// encodeAutoDataValue turns a VALUE token into its in-memory word
// encoding: a quoted string becomes its ASCII bytes plus a null
// terminator, otherwise it is a single decimal integer word.
func encodeAutoDataValue(raw string) []vm.Word {
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[len(raw)-1] == raw[0] {
		s := raw[1 : len(raw)-1]
		words := make([]vm.Word, 0, len(s)+1)
		for _, r := range s {
			words = append(words, vm.Word(r))
		}
		return append(words, 0)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return []vm.Word{0}
	}
	return []vm.Word{vm.Word(n)}
}

var bssRefRe = regexp.MustCompile(`\.bss(?:\s*\+\s*(\d+))?`)

// bssRequired computes the minimum BSS size a module needs: one past the
// largest `.bss + N` offset the source references (a bare `.bss` counts
// as one word).
func bssRequired(body string) int {
	required := 0
	for _, m := range bssRefRe.FindAllStringSubmatch(body, -1) {
		n := 1
		if m[1] != "" {
			if v, err := strconv.Atoi(m[1]); err == nil {
				n = v + 1
			}
		}
		if n > required {
			required = n
		}
	}
	return required
}

// abiAliasLines renders `abi: os` pointer-variable aliases as EASM
// pointer-variable declarations (`name = value`), in the stable order
// given by abiOrder, so module code refers
// to them the normal way, e.g. "LDA .char".
func abiAliasLines() []string {
	lines := make([]string, 0, len(abiOrder))
	for _, name := range abiOrder {
		lines = append(lines, name+" = "+strconv.Itoa(ABIPointers[name]))
	}
	return lines
}

// prependLines inserts lines before body, one EASM statement per line.
func prependLines(lines []string, body string) string {
	if len(lines) == 0 {
		return body
	}
	return strings.Join(lines, "\n") + "\n" + body
}
