package link

import (
	"encoding/json"

	"github.com/coldvane/easm8/vm"
)

// BSSRegion is a module's reserved-but-uninitialized scratch range.
type BSSRegion struct {
	Base int `json:"base"`
	Size int `json:"size"`
}

// ModuleImage is one module's entry in the linked JSON image:
// its placed base address, word count, the assembled (and relocated)
// words themselves, and optional metadata for callable modules.
type ModuleImage struct {
	Base   int            `json:"base"`
	Length int            `json:"length"`
	Words  []vm.Word      `json:"words"`
	Deps   map[string]int `json:"deps,omitempty"`
	Entry  string         `json:"entry,omitempty"`
	BSS    *BSSRegion     `json:"bss,omitempty"`
}

// Image is the full linked output: every module keyed by name, including
// the synthetic "program_table" module.
type Image map[string]ModuleImage

// MarshalIndented renders the image as the compiled_routines.json wire
// format, indented for diff-friendly output.
func (img Image) MarshalIndented() ([]byte, error) {
	data, err := json.MarshalIndent(img, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
