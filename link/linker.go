package link

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/coldvane/easm8/asm"
	"github.com/coldvane/easm8/vm"
)

// defaultLayoutBase is where the module/BSS/DATA cursor starts: well clear
// of the OS's fixed low-memory ABI pointers and the program table.
const defaultLayoutBase = 50000

// ModuleSource is one EASM module file handed to Link: its filename stem
// (used for the default module name) and raw source text.
type ModuleSource struct {
	Stem   string
	Source string
}

// Result is everything a successful Link call produces.
type Result struct {
	Image     Image
	MemoryMap string
	FreeGaps  string
	BSSMap    string
	PatchedOS string
}

type moduleState struct {
	header   Header
	body     string
	externs  []string
	autoData []AutoDataItem
}

// Link assembles, places, relocates, and resolves every module in sources
// against cfg's memory size, then patches osSource in place.
func Link(sources []ModuleSource, osSource string, cfg vm.Config) (*Result, error) {
	states := make(map[string]*moduleState, len(sources))

	for _, src := range sources {
		header, body := ParseHeader(src.Stem, src.Source)
		body, externs := rewriteExternCalls(body)
		body, autoData := extractAutoData(body, predefinedNames(header))
		states[header.Name] = &moduleState{header: header, body: body, externs: externs, autoData: autoData}
	}

	depOrder, err := topoSort(states)
	if err != nil {
		return nil, err
	}

	layout := NewLayout(defaultLayoutBase)
	images := map[string]ModuleImage{}
	words := map[string][]vm.Word{}
	symbols := map[string]vm.Word{}
	var externCalls []ExternCall
	var segments []Segment
	bssRegions := map[string]BSSRegion{}

	for _, name := range depOrder {
		st := states[name]
		body := st.body

		for _, dep := range st.header.Deps {
			depBase, ok := symbols[dep]
			if !ok {
				return nil, fmt.Errorf("link: module %q depends on %q, which has not been placed", name, dep)
			}
			body = prependLines([]string{dep + " = " + strconv.Itoa(int(depBase))}, body)
		}

		if st.header.ABI == "os" {
			body = prependLines(abiAliasLines(), body)
		}

		if st.header.BSS != "none" {
			size := bssSizeFor(st.header.BSS, body)
			r := layout.Place(size, st.header.BSSAlign)
			body = prependLines([]string{"bss = " + strconv.Itoa(r.Start)}, body)
			bssRegions[name] = BSSRegion{Base: r.Start, Size: size}
			segments = append(segments, Segment{Start: r.Start, End: r.End, Kind: "bss", Name: name})
		}

		var dataImage *ModuleImage
		if len(st.autoData) > 0 {
			total := 0
			for _, item := range st.autoData {
				total += len(item.Words)
			}
			r := layout.Place(total, 16)
			dataWords := make([]vm.Word, total)
			var aliases []string
			for _, item := range st.autoData {
				copy(dataWords[item.Offset:], item.Words)
				aliases = append(aliases, item.Name+" = "+strconv.Itoa(r.Start+item.Offset))
			}
			body = prependLines(aliases, body)
			img := ModuleImage{Base: r.Start, Length: total, Words: dataWords}
			dataImage = &img
			segments = append(segments, Segment{Start: r.Start, End: r.End, Kind: "data", Name: name + "_data"})
		}

		prog, errs := asm.Assemble(name+".easm", body, cfg)
		if errs.HasErrors() {
			return nil, fmt.Errorf("link: assembling module %q:\n%s", name, errs.Error())
		}

		codeLength := codeLengthOf(prog)
		wordsOut := append([]vm.Word(nil), prog.Words[:codeLength]...)

		var base vm.Word
		if st.header.Base != nil {
			base = vm.Word(*st.header.Base)
			layout.Reserve(Range{Start: *st.header.Base, End: *st.header.Base + codeLength})
		} else {
			r := layout.Place(codeLength, st.header.Align)
			base = vm.Word(r.Start)
		}

		moduleExterns := matchExternCallSites(prog, st.externs, name)
		externOperands := make(map[int]bool, len(moduleExterns))
		for _, call := range moduleExterns {
			externOperands[call.OperandIndex] = true
		}
		Relocate(wordsOut, prog, base, codeLength, externOperands)
		externCalls = append(externCalls, moduleExterns...)

		words[name] = wordsOut
		symbols[name] = base
		if _, hasEntry := prog.Labels[st.header.Entry]; hasEntry {
			symbols[st.header.Entry] = base
		}

		img := ModuleImage{Base: int(base), Length: codeLength, Words: wordsOut}
		if _, hasEntry := prog.Labels[st.header.Entry]; hasEntry {
			img.Entry = st.header.Entry
		}
		if len(st.header.Deps) > 0 {
			img.Deps = map[string]int{}
			for _, dep := range st.header.Deps {
				img.Deps[dep] = int(symbols[dep])
			}
		}
		if r, ok := bssRegions[name]; ok {
			img.BSS = &r
		}
		images[name] = img
		segments = append(segments, Segment{Start: int(base), End: int(base) + codeLength, Kind: "code", Name: name})
		if dataImage != nil {
			images[name+"_data"] = *dataImage
		}
	}

	// ResolveExterns mutates each module's word slice in place; since every
	// ModuleImage.Words above shares that same backing array, the patched
	// operands are already visible through images without copying back.
	if err := ResolveExterns(words, externCalls, symbols); err != nil {
		return nil, err
	}

	callable := map[string]int{}
	for name, img := range images {
		if img.Entry != "" {
			callable[name] = img.Base
		}
	}
	ptWords := BuildProgramTable(callable)
	ptBase := ABIPointers["prog_table"]
	images["program_table"] = ModuleImage{Base: ptBase, Length: len(ptWords), Words: ptWords}
	segments = append(segments, Segment{Start: ptBase, End: ptBase + len(ptWords), Kind: "prog_table", Name: "program_table"})

	ranges := map[string]Range{}
	for name, img := range images {
		ranges[name] = Range{Start: img.Base, End: img.Base + img.Length}
	}
	if a, b, found := Overlaps(ranges); found {
		return nil, fmt.Errorf("link: module %q overlaps module %q in the final layout", a, b)
	}

	shellBase, ok := images["shell"]
	var patchedOS string
	if ok {
		echonBase := images["echon"].Base
		patched, err := PatchOS(osSource, shellBase.Base, echonBase)
		if err != nil {
			return nil, err
		}
		patchedOS = patched
	} else {
		patchedOS = osSource
	}

	rs := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		rs = append(rs, r)
	}

	return &Result{
		Image:     images,
		MemoryMap: MemoryMapText(segments),
		FreeGaps:  FreeGapsText(Gaps(rs)),
		BSSMap:    BSSMapText(bssRegions),
		PatchedOS: patchedOS,
	}, nil
}

// bssSizeFor resolves header.BSS ("auto", "none" handled by the caller, or
// a decimal integer) to a concrete word count.
func bssSizeFor(spec string, body string) int {
	required := bssRequired(body)
	if n, err := strconv.Atoi(spec); err == nil {
		if n > required {
			return n
		}
		return required
	}
	const defaultBSSSize = 512
	if defaultBSSSize > required {
		return defaultBSSSize
	}
	return required
}

// codeLengthOf returns the highest address+length reached by any
// instruction token, i.e. the module's own code footprint before
// placement. Variable-into-memory writes land at absolute addresses and
// are not part of the relocatable code range.
func codeLengthOf(prog *asm.Program) int {
	length := 0
	for _, tok := range prog.Tokens {
		if tok.Kind != asm.LineInstruction {
			continue
		}
		if end := int(tok.Address) + tok.Length; end > length {
			length = end
		}
	}
	return length
}

// predefinedNames collects the pointer-variable names the loader itself
// will inject ahead of a module's body, so auto-data extraction never
// captures a write to one of them.
func predefinedNames(h Header) map[string]bool {
	names := map[string]bool{"bss": true}
	for _, dep := range h.Deps {
		names[dep] = true
	}
	if h.ABI == "os" {
		for name := range ABIPointers {
			names[name] = true
		}
	}
	return names
}

// matchExternCallSites pairs each `JSR #0` token, in textual order, with
// the corresponding extern symbol name recorded by rewriteExternCalls.
func matchExternCallSites(prog *asm.Program, externs []string, module string) []ExternCall {
	var calls []ExternCall
	i := 0
	for _, tok := range prog.Tokens {
		if tok.Kind != asm.LineInstruction || tok.Mnemonic != "JSR" || tok.Operand != "#0" {
			continue
		}
		if i >= len(externs) {
			break
		}
		calls = append(calls, ExternCall{Module: module, OperandIndex: int(tok.Address) + 1, Symbol: externs[i]})
		i++
	}
	return calls
}

// topoSort orders modules so every dependency is assembled and placed
// before its dependents, per the `deps` header key.
func topoSort(states map[string]*moduleState) ([]string, error) {
	visited := map[string]int{} // 0=unvisited, 1=visiting, 2=done
	var order []string

	var visit func(name string) error
	visit = func(name string) error {
		switch visited[name] {
		case 2:
			return nil
		case 1:
			return fmt.Errorf("link: dependency cycle involving module %q", name)
		}
		visited[name] = 1
		st, ok := states[name]
		if !ok {
			return fmt.Errorf("link: unknown module %q referenced in a deps header", name)
		}
		deps := append([]string(nil), st.header.Deps...)
		sort.Strings(deps)
		for _, dep := range deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		visited[name] = 2
		order = append(order, name)
		return nil
	}

	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}
