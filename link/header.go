// Package link implements the module linker and loader: header-comment
// metadata, automatic base-address layout, BSS/DATA allocation, extern
// symbol resolution, and JSON image emission.
package link

import (
	"strconv"
	"strings"
)

// Header is a module's `;! key: value` metadata block, consumed by the
// loader only (never by the assembler).
type Header struct {
	Name     string
	Entry    string
	Align    int
	Base     *int
	Deps     []string
	ABI      string // "os" or "none"
	BSS      string // "auto", "none", or a decimal integer
	BSSAlign int
}

// defaultHeader returns a Header with every field defaulted, before any
// `;!` lines are applied.
func defaultHeader(stem string) Header {
	return Header{
		Name:     strings.ToLower(stem),
		Entry:    "start",
		Align:    100,
		ABI:      "none",
		BSS:      "auto",
		BSSAlign: 16,
	}
}

// ParseHeader consumes the leading run of `;!` (and blank) lines from
// source, applying recognized keys over stem's defaults, and returns the
// resulting Header plus the remaining body with the header lines stripped.
func ParseHeader(stem, source string) (Header, string) {
	h := defaultHeader(stem)
	lines := strings.Split(source, "\n")

	i := 0
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, ";!") {
			break
		}
		applyHeaderLine(&h, strings.TrimPrefix(trimmed, ";!"))
	}

	return h, strings.Join(lines[i:], "\n")
}

func applyHeaderLine(h *Header, kv string) {
	parts := strings.SplitN(kv, ":", 2)
	if len(parts) != 2 {
		return
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])

	switch key {
	case "name":
		h.Name = value
	case "entry":
		h.Entry = value
	case "align":
		if n, err := strconv.Atoi(value); err == nil {
			h.Align = n
		}
	case "base":
		if n, err := strconv.Atoi(value); err == nil {
			h.Base = &n
		}
	case "deps":
		h.Deps = nil
		for _, d := range strings.Split(value, ",") {
			d = strings.TrimSpace(d)
			if d != "" {
				h.Deps = append(h.Deps, d)
			}
		}
	case "abi":
		h.ABI = value
	case "bss":
		h.BSS = value
	case "bss_align":
		if n, err := strconv.Atoi(value); err == nil {
			h.BSSAlign = n
		}
	}
}
