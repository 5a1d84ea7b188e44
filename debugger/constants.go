package debugger

// TUI Display Update Constants
const (
	// DisplayUpdateFrequency controls how often the TUI display updates during continuous execution
	// (every N cycles to keep display responsive without overwhelming the terminal)
	DisplayUpdateFrequency = 100
)

// Code View Context Constants
const (
	// CodeContextLinesBefore is the default number of words to show before PC in the full code view
	CodeContextLinesBefore = 20

	// CodeContextLinesAfter is the default number of words to show after PC in the full code view
	CodeContextLinesAfter = 80

	// CodeContextLinesBeforeCompact is the number of instructions to show before PC in compact views
	CodeContextLinesBeforeCompact = 5

	// CodeContextLinesAfterCompact is the number of instructions to show after PC in compact views
	CodeContextLinesAfterCompact = 10
)

// Memory Display Constants
const (
	// MemoryDisplayRows is the number of rows to show in the memory dump view
	MemoryDisplayRows = 16

	// MemoryDisplayColumns is the number of words per row in the memory dump view
	MemoryDisplayColumns = 8
)

// Stack Display Constants
const (
	// StackDisplayWords is the number of stack words to show in the stack view
	StackDisplayWords = 16
)

// Register Display Constants
const (
	// RegisterViewRows is the fixed height of the register view panel
	// (3 rows of registers + blank line + flag/status lines + borders)
	RegisterViewRows = 9
)
