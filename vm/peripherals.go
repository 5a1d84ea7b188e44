package vm

// Keyboard is the single-Word keyboard input register. The host UI writes
// Value before each CPU step; the bus is driven from it whenever the
// current control word asserts KEO. Single producer (UI), single consumer
// (CPU); no synchronization is needed because the core is single-threaded.
type Keyboard struct {
	Value Word
}

// CursorDir is the LCD's auto-increment direction, set by the entry-mode
// command.
type CursorDir int

const (
	CursorRight CursorDir = iota
	CursorLeft
)

// LCD models a Hitachi-style character display driven by two registers,
// ScreenData (8-bit data lines) and ScreenCtrl (3-bit E/RW/RS). A
// rising edge of E latches a command or data byte.
type LCD struct {
	Width, Height int
	Cells         []byte
	Cursor        int

	CursorDirection CursorDir
	AutoShift       bool
	CursorVisible   bool
	CursorBlink     bool
	DisplayOn       bool

	prevE bool
}

// NewLCD creates a 16x2 character LCD (the common default for this class of
// machine), cleared and homed.
func NewLCD() *LCD {
	l := &LCD{Width: 16, Height: 2, DisplayOn: true}
	l.Cells = make([]byte, l.Width*l.Height)
	return l
}

// Latch processes one E/RW/RS transition. Only a rising edge of E (E went
// from false to true since the previous call) does anything; RW write
// cycles are the only ones this machine drives (RW=1 read-back is not
// modeled).
func (l *LCD) Latch(e, rw, rs bool, data byte) {
	rising := e && !l.prevE
	l.prevE = e
	if !rising || rw {
		return
	}
	if rs {
		l.writeData(data)
		return
	}
	l.command(data)
}

func (l *LCD) writeData(data byte) {
	if l.Cursor >= 0 && l.Cursor < len(l.Cells) {
		l.Cells[l.Cursor] = data
	}
	if l.CursorDirection == CursorRight {
		l.Cursor++
	} else {
		l.Cursor--
	}
	// AutoShift moves the viewport, not the cell buffer; the renderer that
	// owns the viewport is outside this model.
}

func (l *LCD) command(cmd byte) {
	switch {
	case cmd == 0b00000001: // clear display
		for i := range l.Cells {
			l.Cells[i] = 0
		}
		l.Cursor = 0
		l.CursorDirection = CursorRight
	case cmd == 0b00000010: // return home
		l.Cursor = 0
	case cmd&0b11111100 == 0b00000100: // entry mode set
		if cmd&0b10 != 0 {
			l.CursorDirection = CursorRight
		} else {
			l.CursorDirection = CursorLeft
		}
		l.AutoShift = cmd&0b01 != 0
	case cmd&0b11111000 == 0b00001000: // display on/off control
		l.DisplayOn = true
		l.CursorVisible = cmd&0b10 != 0
		l.CursorBlink = cmd&0b01 != 0
	case cmd&0b11110000 == 0b00010000: // cursor/shift control
		// bit 3 selects display-shift vs cursor-move; cursor-move-only is
		// modeled since viewport shifting belongs to the renderer.
	}
}

// Text renders the LCD's cell buffer as Height lines of Width bytes, for
// inspection/debugging.
func (l *LCD) Text() []string {
	lines := make([]string, l.Height)
	for row := 0; row < l.Height; row++ {
		start := row * l.Width
		lines[row] = string(l.Cells[start : start+l.Width])
	}
	return lines
}

// Monitor is the optional 40x20 variant with a custom newline command and
// scroll-up behavior.
type Monitor struct {
	Width, Height int
	Cells         []byte
	Row, Col      int

	prevE bool
}

// NewMonitor creates the canonical 40x20 monitor.
func NewMonitor() *Monitor {
	return &Monitor{Width: 40, Height: 20, Cells: make([]byte, 40*20)}
}

// Latch mirrors LCD.Latch but recognizes the monitor-specific newline
// command (0b00100000) and scrolls the grid up when the cursor passes the
// last row.
func (m *Monitor) Latch(e, rw, rs bool, data byte) {
	rising := e && !m.prevE
	m.prevE = e
	if !rising || rw {
		return
	}
	if rs {
		m.writeData(data)
		return
	}
	m.command(data)
}

func (m *Monitor) writeData(data byte) {
	idx := m.Row*m.Width + m.Col
	if idx >= 0 && idx < len(m.Cells) {
		m.Cells[idx] = data
	}
	m.Col++
	if m.Col >= m.Width {
		m.Col = 0
		m.newline()
	}
}

func (m *Monitor) command(cmd byte) {
	switch cmd {
	case 0b00000001: // clear
		for i := range m.Cells {
			m.Cells[i] = 0
		}
		m.Row, m.Col = 0, 0
	case 0b00000010: // home
		m.Row, m.Col = 0, 0
	case 0b00100000: // newline
		m.Col = 0
		m.newline()
	}
}

func (m *Monitor) newline() {
	m.Row++
	if m.Row >= m.Height {
		m.scrollUp()
		m.Row = m.Height - 1
	}
}

func (m *Monitor) scrollUp() {
	copy(m.Cells, m.Cells[m.Width:])
	for i := len(m.Cells) - m.Width; i < len(m.Cells); i++ {
		m.Cells[i] = 0
	}
}

// Text renders the monitor grid as Height lines of Width bytes.
func (m *Monitor) Text() []string {
	lines := make([]string, m.Height)
	for row := 0; row < m.Height; row++ {
		start := row * m.Width
		lines[row] = string(m.Cells[start : start+m.Width])
	}
	return lines
}
