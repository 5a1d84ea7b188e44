package link

import (
	"strings"

	"github.com/coldvane/easm8/asm"
)

// stripComment splits off a trailing ";..." comment, mirroring the
// assembler's own lexer rule so the OS-patching scanner agrees with it on
// where code ends.
func stripComment(s string) (code, comment string) {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

// opcodeArity looks up mnemonic's operand count from the canonical
// instruction set.
func opcodeArity(mnemonic string) (int, bool) {
	info, ok := asm.Opcodes[strings.ToUpper(mnemonic)]
	if !ok {
		return 0, false
	}
	return info.Operands, true
}
