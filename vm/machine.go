package vm

import "fmt"

// Machine bundles a CPU with its backing memory under one config, the unit
// the loader populates and the debugger inspects.
type Machine struct {
	Cfg Config
	Mem *Memory
	CPU *CPU
}

// NewMachine builds a fresh, zeroed machine for cfg.
func NewMachine(cfg Config) *Machine {
	mem := NewMemory(cfg)
	return &Machine{Cfg: cfg, Mem: mem, CPU: NewCPU(cfg, mem)}
}

// AttachMonitor wires an optional 40x20 monitor peripheral in place of (in
// addition to) the default LCD.
func (m *Machine) AttachMonitor() {
	m.CPU.Monitor = NewMonitor()
}

// Reset reinitializes the CPU to state Running with all registers zeroed.
// Memory is untouched; call Mem.Reset() separately to clear RAM.
func (m *Machine) Reset() {
	m.CPU.Reset()
}

// DumpState renders a human-readable snapshot of registers and run state,
// for CLI/debugger display.
func (m *Machine) DumpState() string {
	r := &m.CPU.Reg
	reason := "running"
	if m.CPU.State == Halted {
		if r.ControlWord&HLT != 0 {
			reason = "halted (HLT)"
		} else {
			reason = "halted (PC overflow)"
		}
	}
	return fmt.Sprintf(
		"PC=%d A=%d B=%d SUM=%d SP=%d OUT=%d FLAGS(C=%v,Z=%v) state=%s cycles=%d",
		r.PC, r.A, r.B, r.Sum, r.SP, r.Output, r.Flags.Carry, r.Flags.Zero, reason, m.CPU.Cycles,
	)
}
