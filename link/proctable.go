package link

import (
	"sort"
	"strings"

	"github.com/coldvane/easm8/vm"
)

// entryWords is 10 words/entry: 8 zero-padded uppercase ASCII name bytes,
// the module's base address, and one reserved word.
const entryWords = 10

// BuildProgramTable synthesizes the `program_table` module: one 10-word
// entry per callable module (name → base), sorted by base address and
// terminated by a zero sentinel.
func BuildProgramTable(callable map[string]int) []vm.Word {
	names := make([]string, 0, len(callable))
	for name := range callable {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return callable[names[i]] < callable[names[j]] })

	words := make([]vm.Word, 0, (len(names)+1)*entryWords)
	for _, name := range names {
		words = append(words, encodeTableName(name)...)
		words = append(words, vm.Word(callable[name]), 0)
	}
	words = append(words, 0) // zero name-byte sentinel terminates the table
	return words
}

// encodeTableName renders name as 8 uppercase ASCII bytes, zero-padded or
// truncated to fit.
func encodeTableName(name string) []vm.Word {
	upper := strings.ToUpper(name)
	out := make([]vm.Word, 8)
	for i := 0; i < 8 && i < len(upper); i++ {
		out[i] = vm.Word(upper[i])
	}
	return out
}
