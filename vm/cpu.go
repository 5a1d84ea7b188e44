package vm

// State is the CPU's run state.
type State int

const (
	Running State = iota
	Halted
)

// StackPointerStart is the absolute memory offset the stack pointer is
// added to when driven onto the bus (STO) or loaded from it (MVASP/MVBSP),
// keeping the stack at a constant offset in absolute memory regardless of
// the configured stack-pointer width.
const StackPointerStart = Word(224)

// CPU is the microcoded core: registers, ALU, memory, peripherals, and the
// two-phase clock state machine.
type CPU struct {
	Cfg   Config
	Reg   Registers
	ALU   ALU
	Mem   *Memory
	Micro *MicrocodeTable

	StackBase Word

	State State

	Keyboard *Keyboard
	LCD      *LCD
	Monitor  *Monitor // optional; nil if not attached

	Cycles uint64
}

// NewCPU builds a CPU with the given config, sharing mem (so a loader can
// populate it before the machine runs) and a canonical microcode table.
func NewCPU(cfg Config, mem *Memory) *CPU {
	return &CPU{
		Cfg:       cfg,
		Mem:       mem,
		Micro:     NewMicrocodeTable(),
		StackBase: StackPointerStart,
		Keyboard:  &Keyboard{},
		LCD:       NewLCD(),
	}
}

// Reset zeroes registers and clears halted state. Memory is untouched:
// it is loaded once and retained across resets; only an explicit reload
// clears it.
func (c *CPU) Reset() {
	c.Reg.Reset()
	c.State = Running
	c.Cycles = 0
}

// currentControlWord computes the control word for the current timestep,
// per the fixed fetch prologue (T0, T1) and the per-opcode microcode body
// (T2+).
func (c *CPU) currentControlWord() ControlWord {
	switch c.Reg.Timestep {
	case 0:
		return CO | MI
	case 1:
		return RO | IAI | CE
	default:
		body := c.Micro.Body(c.Reg.IRA)
		idx := c.Reg.Timestep - 2
		if idx < 0 || idx >= len(body) {
			return 0
		}
		return body[idx]
	}
}

// update drives the bus and recomputes the ALU and control word. It is
// idempotent with respect to registers: it only mutates Bus, ALU, Flags,
// ControlWord and the MAR-driven MDR view used by peripherals. RAM is read
// here only to resolve the bus value for RO; the MAR/MDR register write
// itself happens in clock_high.
func (c *CPU) update() {
	cw := c.currentControlWord()
	c.Reg.ControlWord = cw

	c.ALU.Eval(c.Cfg, c.Reg.A, c.Reg.B, cw&SU != 0)
	c.Reg.Flags = Flags{Carry: c.ALU.Carry, Zero: c.ALU.Zero}
	c.Reg.Sum = c.ALU.Sum
	c.Reg.Bus = busValue(cw, &c.Reg, &c.ALU, c.Mem, c.Cfg, c.StackBase)
}

// clockHigh applies every asserted input-enable bit, reading pre-cycle
// register state via the bus so that application order within one cycle is
// irrelevant.
func (c *CPU) clockHigh() {
	cw := c.Reg.ControlWord
	bus := c.Reg.Bus

	if cw&HLT != 0 {
		c.State = Halted
	}
	if cw&FI != 0 {
		c.Reg.FlagReg = c.Reg.Flags
	}
	if cw&MI != 0 {
		c.Reg.MAR = bus
		c.Reg.MDR = c.Mem.Read(int(c.Reg.MAR))
	}
	if cw&RI != 0 {
		c.Reg.MDR = bus
		c.Mem.Write(int(c.Reg.MAR), bus)
	}
	if cw&IAI != 0 {
		c.Reg.IRA = bus
	}
	if cw&IBI != 0 {
		c.Reg.IRB = bus
	}
	if cw&AI != 0 {
		c.Reg.A = bus
	}
	if cw&RSA != 0 {
		c.Reg.A = c.Cfg.Clamp(c.Reg.A >> 1)
	}
	if cw&BI != 0 {
		c.Reg.B = bus
	}
	if cw&OI != 0 {
		c.Reg.Output = bus
	}
	if cw&SPI != 0 {
		c.Reg.SP = c.Cfg.StackMask(bus)
	}
	if cw&DDI != 0 {
		c.Reg.ScreenData = bus
		c.latchLCD()
	}
	if cw&DCI != 0 {
		c.Reg.ScreenCtrl = c.Cfg.Clamp(bus) >> (c.Cfg.WordBits - 3)
		c.latchLCD()
	}
	if cw&CE != 0 {
		// Deliberately unclamped: running past the last cell is how the
		// PC-overflow halt in clockLow is reached.
		c.Reg.PC++
	}
	if cw&JMP != 0 {
		c.Reg.PC = bus
	}
	if cw&JC != 0 && c.Reg.FlagReg.Carry {
		c.Reg.PC = bus
	}
	if cw&JZ != 0 && c.Reg.FlagReg.Zero {
		c.Reg.PC = bus
	}
	if cw&JNZ != 0 && !c.Reg.FlagReg.Zero {
		c.Reg.PC = bus
	}
	if cw&INS != 0 {
		c.Reg.SP = c.Cfg.StackMask(c.Reg.SP + 1)
	}
	if cw&DES != 0 {
		c.Reg.SP = c.Cfg.StackMask(c.Reg.SP - 1)
	}
}

// latchLCD drives the character LCD (and optional monitor) from the current
// ScreenData/ScreenCtrl registers on a rising E edge.
func (c *CPU) latchLCD() {
	e := c.Reg.ScreenCtrl&0b100 != 0
	rw := c.Reg.ScreenCtrl&0b010 != 0
	rs := c.Reg.ScreenCtrl&0b001 != 0

	if c.Monitor != nil {
		c.Monitor.Latch(e, rw, rs, byte(c.Reg.ScreenData))
	}
	c.LCD.Latch(e, rw, rs, byte(c.Reg.ScreenData))
}

// clockLow advances the timestep and enforces the ORE/timestep-cap reset
// and the PC-overflow halt.
func (c *CPU) clockLow() {
	if c.State == Halted {
		return
	}
	c.Reg.Timestep++
	if c.Reg.Timestep >= 8 || c.Reg.ControlWord&ORE != 0 {
		c.Reg.Timestep = 0
	}
	if int(c.Reg.PC) >= c.Cfg.Size() {
		c.State = Halted
	}
}

// Step runs one full cycle: update, clock_high, update, clock_low. It is a
// no-op once Halted; Reset is the only way back to Running.
func (c *CPU) Step() {
	if c.State == Halted {
		return
	}
	c.update()
	c.clockHigh()
	c.update()
	c.clockLow()
	c.Cycles++
}

// Run steps the CPU until it halts or maxCycles is exceeded (0 means
// unbounded). It returns the number of cycles actually executed.
func (c *CPU) Run(maxCycles uint64) uint64 {
	var n uint64
	for c.State != Halted && (maxCycles == 0 || n < maxCycles) {
		c.Step()
		n++
	}
	return n
}
