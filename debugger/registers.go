package debugger

import (
	"strings"

	"github.com/coldvane/easm8/vm"
)

// registerNames lists every name the expression evaluator and TUI recognize
// as a register or register-like pseudo-register (the carry/zero flags).
var registerNames = []string{
	"pc", "a", "b", "sp", "sum",
	"out", "in", "mar", "mdr", "ira", "irb",
	"carry", "zero",
}

// isRegisterName reports whether s names a register or flag pseudo-register.
func isRegisterName(s string) bool {
	s = strings.ToLower(s)
	for _, n := range registerNames {
		if n == s {
			return true
		}
	}
	return false
}

// registerValue reads a named register or flag out of the machine. ok is
// false for an unrecognized name.
func registerValue(m *vm.Machine, name string) (vm.Word, bool) {
	r := &m.CPU.Reg
	switch strings.ToLower(name) {
	case "pc":
		return r.PC, true
	case "a":
		return r.A, true
	case "b":
		return r.B, true
	case "sp":
		return r.SP, true
	case "sum":
		return r.Sum, true
	case "out":
		return r.Output, true
	case "in":
		return r.Input, true
	case "mar":
		return r.MAR, true
	case "mdr":
		return r.MDR, true
	case "ira":
		return r.IRA, true
	case "irb":
		return r.IRB, true
	case "carry":
		if r.FlagReg.Carry {
			return 1, true
		}
		return 0, true
	case "zero":
		if r.FlagReg.Zero {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// setRegisterValue writes a named register, ignoring the read-only flag
// pseudo-registers. ok is false for an unrecognized or read-only name.
func setRegisterValue(m *vm.Machine, name string, value vm.Word) bool {
	r := &m.CPU.Reg
	switch strings.ToLower(name) {
	case "pc":
		r.PC = value
	case "a":
		r.A = value
	case "b":
		r.B = value
	case "sp":
		r.SP = value
	case "out":
		r.Output = value
	case "in":
		r.Input = value
	case "mar":
		r.MAR = value
	case "mdr":
		r.MDR = value
	case "ira":
		r.IRA = value
	case "irb":
		r.IRB = value
	default:
		return false
	}
	return true
}
