package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/coldvane/easm8/vm"
)

// TUI represents the text user interface for the debugger
type TUI struct {
	// Core components
	Debugger *Debugger
	App      *tview.Application
	Pages    *tview.Pages

	// Layout containers
	MainLayout *tview.Flex
	LeftPanel  *tview.Flex
	RightPanel *tview.Flex

	// View panels
	SourceView      *tview.TextView
	RegisterView    *tview.TextView
	MemoryView      *tview.TextView
	StackView       *tview.TextView
	DisassemblyView *tview.TextView
	LCDView         *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField

	// State
	MemoryAddress vm.Word
	Running       bool

	// Source code cache
	SourceLines []string
	SourceFile  string
}

// NewTUI creates a new text user interface
func NewTUI(debugger *Debugger) *TUI {
	tui := &TUI{
		Debugger: debugger,
		App:      tview.NewApplication(),
	}

	tui.initializeViews()
	tui.buildLayout()
	tui.setupKeyBindings()

	return tui
}

// NewTUIWithScreen creates a TUI bound to an explicit tcell screen, for
// tests that drive the interface against a simulation screen.
func NewTUIWithScreen(debugger *Debugger, screen tcell.Screen) *TUI {
	tui := NewTUI(debugger)
	tui.App.SetScreen(screen)
	return tui
}

// initializeViews creates all the view panels
func (t *TUI) initializeViews() {
	// Source View
	t.SourceView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.SourceView.SetBorder(true).SetTitle(" Source ")

	// Register View
	t.RegisterView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	// Memory View
	t.MemoryView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.MemoryView.SetBorder(true).SetTitle(" Memory ")

	// Stack View
	t.StackView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.StackView.SetBorder(true).SetTitle(" Stack ")

	// Disassembly View
	t.DisassemblyView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.DisassemblyView.SetBorder(true).SetTitle(" Disassembly ")

	// LCD View
	t.LCDView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false).
		SetWrap(false)
	t.LCDView.SetBorder(true).SetTitle(" LCD ")

	// Breakpoints View
	t.BreakpointsView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints/Watchpoints ")

	// Output View
	t.OutputView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	// Command Input
	t.CommandInput = tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

// buildLayout constructs the TUI layout
func (t *TUI) buildLayout() {
	// Left panel: Source and Disassembly
	t.LeftPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.SourceView, 0, 3, false).
		AddItem(t.DisassemblyView, 0, 2, false)

	// Right panel top: Registers, Memory, Stack, LCD
	rightTop := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, RegisterViewRows, 0, false).
		AddItem(t.MemoryView, 0, 1, false).
		AddItem(t.StackView, 0, 1, false).
		AddItem(t.LCDView, 5, 0, false)

	// Right panel: Top + Breakpoints
	t.RightPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(rightTop, 0, 3, false).
		AddItem(t.BreakpointsView, 8, 0, false)

	// Main content: Left and Right panels
	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.LeftPanel, 0, 2, false).
		AddItem(t.RightPanel, 0, 1, false)

	// Main layout: Content + Output + Command
	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	// Create pages for potential dialogs/modals
	t.Pages = tview.NewPages().
		AddPage("main", t.MainLayout, true, true)
}

// setupKeyBindings sets up keyboard shortcuts
func (t *TUI) setupKeyBindings() {
	// Global key handler
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			t.executeCommand("help")
			return nil
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF9:
			t.executeCommand("break")
			return nil
		case tcell.KeyF10:
			t.executeCommand("next")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

// handleCommand processes command input
func (t *TUI) handleCommand(key tcell.Key) {
	if key == tcell.KeyEnter {
		cmd := t.CommandInput.GetText()
		if cmd != "" {
			t.executeCommand(cmd)
			t.CommandInput.SetText("")
		}
	}
}

// executeCommand executes a debugger command
func (t *TUI) executeCommand(cmd string) {
	// Clear previous output
	t.Debugger.Output.Reset()

	// Execute command
	err := t.Debugger.ExecuteCommand(cmd)

	// Get output
	output := t.Debugger.GetOutput()

	// Display output
	if err != nil {
		t.WriteOutput(fmt.Sprintf("[red]Error:[white] %v\n", err))
	}
	if output != "" {
		t.WriteOutput(output)
	}

	// Refresh all views
	t.RefreshAll()
}

// WriteOutput writes to the output view
func (t *TUI) WriteOutput(text string) {
	_, _ = t.OutputView.Write([]byte(text)) // Ignore write errors in TUI
	t.OutputView.ScrollToEnd()
}

// RefreshAll refreshes all view panels
func (t *TUI) RefreshAll() {
	t.UpdateSourceView()
	t.UpdateRegisterView()
	t.UpdateMemoryView()
	t.UpdateStackView()
	t.UpdateDisassemblyView()
	t.UpdateLCDView()
	t.UpdateBreakpointsView()
	t.App.Draw()
}

// UpdateSourceView updates the source code view
func (t *TUI) UpdateSourceView() {
	t.SourceView.Clear()

	// If no source map, show message
	if len(t.Debugger.SourceMap) == 0 {
		t.SourceView.SetText("[yellow]No source code available[white]")
		return
	}

	// Get current PC
	pc := t.Debugger.VM.CPU.Reg.PC

	// Find source lines around current PC
	var lines []string
	var startAddr vm.Word
	if pc > CodeContextLinesBefore {
		startAddr = pc - CodeContextLinesBefore
	}

	for addr := startAddr; addr < pc+CodeContextLinesAfter; addr++ {
		sourceLine, exists := t.Debugger.SourceMap[addr]
		if !exists {
			continue
		}

		// Highlight current line
		marker := "  "
		color := "white"
		if addr == pc {
			marker = "->"
			color = "yellow"
		}

		// Check for breakpoint
		if t.Debugger.Breakpoints.GetBreakpoint(addr) != nil {
			marker = "* "
		}

		line := fmt.Sprintf("[%s]%s %5d: %s[white]", color, marker, addr, sourceLine)
		lines = append(lines, line)
	}

	t.SourceView.SetText(strings.Join(lines, "\n"))
}

// UpdateRegisterView updates the register view
func (t *TUI) UpdateRegisterView() {
	t.RegisterView.Clear()

	r := &t.Debugger.VM.CPU.Reg
	var lines []string

	lines = append(lines, fmt.Sprintf("PC : %6d  A  : %6d  B  : %6d  SUM: %6d", r.PC, r.A, r.B, r.Sum))
	lines = append(lines, fmt.Sprintf("MAR: %6d  MDR: %6d  IRA: %6d  IRB: %6d", r.MAR, r.MDR, r.IRA, r.IRB))
	lines = append(lines, fmt.Sprintf("SP : %6d  OUT: %6d  IN : %6d  T  : %6d", r.SP, r.Output, r.Input, r.Timestep))

	lines = append(lines, "")

	// Latched flags
	flags := ""
	if r.FlagReg.Carry {
		flags += "[green]C[white]"
	} else {
		flags += "c"
	}
	if r.FlagReg.Zero {
		flags += "[blue]Z[white]"
	} else {
		flags += "z"
	}

	state := "running"
	if t.Debugger.VM.CPU.State == vm.Halted {
		state = "[red]halted[white]"
	}

	lines = append(lines, fmt.Sprintf("Flags: %s  CW: %s", flags, r.ControlWord))
	lines = append(lines, fmt.Sprintf("Cycles: %d  State: %s", t.Debugger.VM.CPU.Cycles, state))

	t.RegisterView.SetText(strings.Join(lines, "\n"))
}

// UpdateMemoryView updates the memory view
func (t *TUI) UpdateMemoryView() {
	t.MemoryView.Clear()

	// Use current memory address or PC if not set
	addr := t.MemoryAddress
	if addr == 0 {
		addr = t.Debugger.VM.CPU.Reg.PC
	}

	mem := t.Debugger.VM.Mem
	var lines []string
	lines = append(lines, fmt.Sprintf("[yellow]Address: %d[white]", addr))

	// Rows of words with an ASCII gutter
	for row := 0; row < MemoryDisplayRows; row++ {
		rowAddr := int(addr) + row*MemoryDisplayColumns
		if rowAddr >= mem.Size() {
			break
		}

		line := fmt.Sprintf("%6d: ", rowAddr)
		var cells []string
		var ascii []byte

		for col := 0; col < MemoryDisplayColumns; col++ {
			cellAddr := rowAddr + col
			if cellAddr >= mem.Size() {
				break
			}
			w := mem.Read(cellAddr)
			cells = append(cells, fmt.Sprintf("%6d", w))
			if w >= 32 && w < 127 {
				ascii = append(ascii, byte(w))
			} else {
				ascii = append(ascii, '.')
			}
		}

		line += strings.Join(cells, " ") + "  " + string(ascii)
		lines = append(lines, line)
	}

	t.MemoryView.SetText(strings.Join(lines, "\n"))
}

// UpdateStackView updates the stack view
func (t *TUI) UpdateStackView() {
	t.StackView.Clear()

	cpu := t.Debugger.VM.CPU
	sp := cpu.Reg.SP
	base := cpu.StackBase

	var lines []string
	lines = append(lines, fmt.Sprintf("[yellow]SP: %d (absolute %d)[white]", sp, base+sp))

	// Show the stack region from its base up; the word SP points at is the
	// next free slot.
	for i := 0; i < StackDisplayWords; i++ {
		addr := int(base) + i
		if addr >= t.Debugger.VM.Mem.Size() {
			break
		}
		word := t.Debugger.VM.Mem.Read(addr)

		marker := "  "
		if vm.Word(i) == sp {
			marker = "->"
		}

		line := fmt.Sprintf("%s %6d: %6d", marker, addr, word)

		// Try to resolve as symbol (return addresses mostly)
		if sym := t.findSymbolForAddress(word); sym != "" {
			line += fmt.Sprintf(" <%s>", sym)
		}

		lines = append(lines, line)
	}

	t.StackView.SetText(strings.Join(lines, "\n"))
}

// UpdateDisassemblyView updates the disassembly view
func (t *TUI) UpdateDisassemblyView() {
	t.DisassemblyView.Clear()

	pc := t.Debugger.VM.CPU.Reg.PC
	mem := t.Debugger.VM.Mem

	var lines []string

	// Walk instruction-by-instruction from a little before PC. Instructions
	// are one or two words, so backing up by a fixed word count and walking
	// forward resynchronizes on instruction boundaries the same way the
	// code was laid out.
	var addr vm.Word
	if pc > CodeContextLinesBeforeCompact*2 {
		addr = pc - CodeContextLinesBeforeCompact*2
	}

	for len(lines) < MemoryDisplayRows && int(addr) < mem.Size() {
		opcode := mem.Read(int(addr))
		length := instructionLength(byte(opcode))

		// Highlight current instruction
		marker := "  "
		color := "white"
		if addr == pc {
			marker = "->"
			color = "yellow"
		}

		// Check for breakpoint
		if t.Debugger.Breakpoints.GetBreakpoint(addr) != nil {
			marker = "* "
		}

		text := mnemonicFor(byte(opcode))
		if length == 2 && int(addr)+1 < mem.Size() {
			text += fmt.Sprintf(" %d", mem.Read(int(addr)+1))
		}

		line := fmt.Sprintf("[%s]%s %5d: %s[white]", color, marker, addr, text)

		// Try to add symbol
		if sym := t.findSymbolForAddress(addr); sym != "" {
			line = fmt.Sprintf("[%s]%s %5d: %s  <%s>[white]", color, marker, addr, text, sym)
		}

		lines = append(lines, line)
		addr += vm.Word(length)
	}

	t.DisassemblyView.SetText(strings.Join(lines, "\n"))
}

// UpdateLCDView updates the LCD (or monitor) glyph grid
func (t *TUI) UpdateLCDView() {
	t.LCDView.Clear()

	cpu := t.Debugger.VM.CPU
	var rows []string
	if cpu.Monitor != nil {
		rows = cpu.Monitor.Text()
	} else {
		rows = cpu.LCD.Text()
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		// Null cells render as spaces
		lines[i] = strings.Map(func(r rune) rune {
			if r < 32 || r >= 127 {
				return ' '
			}
			return r
		}, row)
	}

	t.LCDView.SetText(strings.Join(lines, "\n"))
}

// UpdateBreakpointsView updates the breakpoints and watchpoints view
func (t *TUI) UpdateBreakpointsView() {
	t.BreakpointsView.Clear()

	var lines []string

	// Breakpoints
	bps := t.Debugger.Breakpoints.GetAllBreakpoints()
	if len(bps) > 0 {
		lines = append(lines, "[yellow]Breakpoints:[white]")
		for _, bp := range bps {
			status := "enabled"
			color := "green"
			if !bp.Enabled {
				status = "disabled"
				color = "red"
			}

			line := fmt.Sprintf("  %d: [%s]%s[white] %d", bp.ID, color, status, bp.Address)

			// Add symbol if available
			if sym := t.findSymbolForAddress(bp.Address); sym != "" {
				line += fmt.Sprintf(" <%s>", sym)
			}

			// Add condition if present
			if bp.Condition != "" {
				line += fmt.Sprintf(" if %s", bp.Condition)
			}

			// Add hit count
			line += fmt.Sprintf(" (hits: %d)", bp.HitCount)

			lines = append(lines, line)
		}
	} else {
		lines = append(lines, "[yellow]No breakpoints set[white]")
	}

	lines = append(lines, "")

	// Watchpoints
	wps := t.Debugger.Watchpoints.GetAllWatchpoints()
	if len(wps) > 0 {
		lines = append(lines, "[yellow]Watchpoints:[white]")
		for _, wp := range wps {
			typeStr := "watch"
			if wp.Type == WatchRead {
				typeStr = "rwatch"
			} else if wp.Type == WatchReadWrite {
				typeStr = "awatch"
			}

			line := fmt.Sprintf("  %d: %s %s = %d", wp.ID, typeStr, wp.Expression, wp.LastValue)
			lines = append(lines, line)
		}
	}

	t.BreakpointsView.SetText(strings.Join(lines, "\n"))
}

// findSymbolForAddress finds a symbol name for an address
func (t *TUI) findSymbolForAddress(addr vm.Word) string {
	for sym, symAddr := range t.Debugger.Symbols {
		if symAddr == addr {
			return sym
		}
	}
	return ""
}

// Run starts the TUI application
func (t *TUI) Run() error {
	// Initial refresh
	t.RefreshAll()

	// Show welcome message
	t.WriteOutput("[green]EASM Machine Debugger TUI[white]\n")
	t.WriteOutput("Press F1 for help, F5 to continue, F10 to step over, F11 to step\n")
	t.WriteOutput("Type 'help' for command list\n\n")

	// Run the application
	return t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput).Run()
}

// Stop stops the TUI application
func (t *TUI) Stop() {
	t.App.Stop()
}

// LoadSource loads source code for display
func (t *TUI) LoadSource(filename string, lines []string) {
	t.SourceFile = filename
	t.SourceLines = lines
	t.UpdateSourceView()
}
