package link

import (
	"fmt"
	"sort"
	"strings"
)

// Segment is one labeled range in the human-readable memory map, modeled
// on gen_memory_map.py's Segment record.
type Segment struct {
	Start int
	End   int
	Kind  string
	Name  string
	Notes string
}

func (s Segment) length() int { return s.End - s.Start }

func (s Segment) asLine() string {
	return fmt.Sprintf("[%d,%d)  %-12s  %-20s len=%d  %s", s.Start, s.End, s.Kind, s.Name, s.length(), s.Notes)
}

// MemoryMapText renders segs (sorted by start address) plus the free gaps
// between them, in the format emitted by memory_map.txt.
func MemoryMapText(segs []Segment) string {
	sorted := append([]Segment(nil), segs...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	var sb strings.Builder
	sb.WriteString("Memory Map Overview (sorted by start address)\n\n")
	sb.WriteString("Segments:\n")
	for _, s := range sorted {
		sb.WriteString("  " + s.asLine() + "\n")
	}

	gaps := gapsBetween(sorted)
	if len(gaps) > 0 {
		sb.WriteString("\nFree gaps between segments:\n")
		for _, g := range gaps {
			sb.WriteString(fmt.Sprintf("  [%d,%d)  words=%d  (free)\n", g.Start, g.End, g.End-g.Start))
		}
	}
	return sb.String()
}

func gapsBetween(sorted []Segment) []Range {
	var gaps []Range
	for i := 0; i+1 < len(sorted); i++ {
		if sorted[i+1].Start > sorted[i].End {
			gaps = append(gaps, Range{Start: sorted[i].End, End: sorted[i+1].Start})
		}
	}
	return gaps
}

// FreeGapsText renders gaps in the machine-readable form written to
// free_gaps.txt: one "start end length" line per gap.
func FreeGapsText(gaps []Range) string {
	var sb strings.Builder
	for _, g := range gaps {
		fmt.Fprintf(&sb, "%d %d %d\n", g.Start, g.End, g.End-g.Start)
	}
	return sb.String()
}

// BSSMapText renders each module's BSS region, one line per module, sorted
// by name for reproducible output.
func BSSMapText(bss map[string]BSSRegion) string {
	names := make([]string, 0, len(bss))
	for name := range bss {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		r := bss[name]
		fmt.Fprintf(&sb, "%-20s base=%d size=%d\n", name, r.Base, r.Size)
	}
	return sb.String()
}
