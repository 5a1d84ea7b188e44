package vm

import "fmt"

// Memory is a flat, dense array of 2^WordBits Words, indexed [0, size).
// There is no allocator and no segmentation: code, data, BSS, the stack, and
// every MMIO-backed register alias live in the same address space, exactly
// as real memory does on the hardware this machine models. Out-of-range
// addresses are a programming error and fail fast rather than being
// silently clamped or wrapped.
type Memory struct {
	cfg   Config
	cells []Word

	AccessCount uint64
	ReadCount   uint64
	WriteCount  uint64
}

// NewMemory allocates a zeroed memory of the size implied by cfg.
func NewMemory(cfg Config) *Memory {
	return &Memory{
		cfg:   cfg,
		cells: make([]Word, cfg.Size()),
	}
}

// Size returns the number of addressable cells.
func (m *Memory) Size() int {
	return len(m.cells)
}

func (m *Memory) checkBounds(addr int) {
	if addr < 0 || addr >= len(m.cells) {
		panic(fmt.Sprintf("vm: memory address %d out of range [0, %d)", addr, len(m.cells)))
	}
}

// Read returns the word stored at addr.
func (m *Memory) Read(addr int) Word {
	m.checkBounds(addr)
	m.AccessCount++
	m.ReadCount++
	return m.cells[addr]
}

// Write stores value & mask at addr.
func (m *Memory) Write(addr int, value Word) {
	m.checkBounds(addr)
	m.AccessCount++
	m.WriteCount++
	m.cells[addr] = m.cfg.Clamp(value)
}

// View returns a read-only snapshot of the full address space, for UI
// rendering and JSON image emission. Callers must not mutate it.
func (m *Memory) View() []Word {
	out := make([]Word, len(m.cells))
	copy(out, m.cells)
	return out
}

// Reset zeroes every cell.
func (m *Memory) Reset() {
	for i := range m.cells {
		m.cells[i] = 0
	}
	m.AccessCount, m.ReadCount, m.WriteCount = 0, 0, 0
}

// LoadImage writes words starting at base, one cell per word, with no
// bounds relaxation: an image that runs past the end of memory is a
// configuration error, reported immediately rather than wrapping.
func (m *Memory) LoadImage(base int, words []Word) error {
	if base < 0 || base+len(words) > len(m.cells) {
		return fmt.Errorf("vm: image of %d words at base %d exceeds memory size %d", len(words), base, len(m.cells))
	}
	for i, w := range words {
		m.cells[base+i] = m.cfg.Clamp(w)
	}
	return nil
}
