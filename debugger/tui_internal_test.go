package debugger

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/coldvane/easm8/vm"
)

func simulationTUI(t *testing.T) *TUI {
	t.Helper()
	machine := vm.NewMachine(vm.Config{WordBits: 16, StackBits: 8})
	dbg := NewDebugger(machine)
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("failed to init simulation screen: %v", err)
	}
	t.Cleanup(screen.Fini)
	return NewTUIWithScreen(dbg, screen)
}

// TestExecuteCommandHelp drives a command through the full TUI path and
// checks the output panel received the help text.
func TestExecuteCommandHelp(t *testing.T) {
	tui := simulationTUI(t)

	tui.executeCommand("help")

	text := tui.OutputView.GetText(true)
	if !strings.Contains(text, "step") {
		t.Errorf("help output missing command list, got %q", text)
	}
}

// TestRegisterViewShowsMachineState checks the register panel renders the
// machine's actual register values.
func TestRegisterViewShowsMachineState(t *testing.T) {
	tui := simulationTUI(t)

	tui.Debugger.VM.CPU.Reg.A = 123
	tui.UpdateRegisterView()

	text := tui.RegisterView.GetText(true)
	if !strings.Contains(text, "123") {
		t.Errorf("register view missing A value, got %q", text)
	}
}

// TestDisassemblyViewDecodesInstructions checks the disassembly panel walks
// one- and two-word instructions on their real boundaries.
func TestDisassemblyViewDecodesInstructions(t *testing.T) {
	tui := simulationTUI(t)

	mem := tui.Debugger.VM.Mem
	mem.Write(0, 5)   // LDI
	mem.Write(1, 42)  //   operand
	mem.Write(2, 254) // OUT
	mem.Write(3, 255) // HLT

	tui.UpdateDisassemblyView()

	text := tui.DisassemblyView.GetText(true)
	if !strings.Contains(text, "LDI 42") {
		t.Errorf("disassembly missing 'LDI 42', got %q", text)
	}
	if !strings.Contains(text, "OUT") || !strings.Contains(text, "HLT") {
		t.Errorf("disassembly missing OUT/HLT, got %q", text)
	}
}

// TestLCDViewRendersCells checks the LCD panel shows data bytes written via
// the peripheral state machine.
func TestLCDViewRendersCells(t *testing.T) {
	tui := simulationTUI(t)

	lcd := tui.Debugger.VM.CPU.LCD
	lcd.Latch(true, false, true, 'H') // rising E, RS=1: data write
	lcd.Latch(false, false, true, 'H')
	lcd.Latch(true, false, true, 'i')

	tui.UpdateLCDView()

	text := tui.LCDView.GetText(true)
	if !strings.Contains(text, "Hi") {
		t.Errorf("LCD view missing written text, got %q", text)
	}
}
