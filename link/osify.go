package link

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var callStubRe = regexp.MustCompile(`(?m)^\s*CALL_STUB\s*=\s*(\d+)`)

// osAPILabels is the fixed label -> os_api table slot mapping patched by
// PatchOS.
var osAPILabels = []string{
	"dispatch_program", "build_argv", "parse_number", "skip_spaces",
	"write_char", "newline", "ret_home", "cursor_left", "enter", "print_prompt",
}

// PatchOS performs the in-place OS-source edits: the
// CALL_STUB trampoline's target, the ECHON call site, and the os_api
// handler-address table. It edits osSource textually (not an assembled
// image) so the next assemble of the OS picks up the changes.
func PatchOS(osSource string, shellBase, echonBase int) (string, error) {
	out := osSource

	m := callStubRe.FindStringSubmatchIndex(out)
	if m == nil {
		return "", fmt.Errorf("link: OS source has no CALL_STUB declaration")
	}
	stubBase, _ := strconv.Atoi(out[m[2]:m[3]])
	out, err := patchOperandAtAddress(out, stubBase+1, shellBase)
	if err != nil {
		return "", fmt.Errorf("link: patching CALL_STUB: %w", err)
	}

	out, err = patchECHONCallSite(out, echonBase)
	if err != nil {
		return "", fmt.Errorf("link: patching ECHON call site: %w", err)
	}

	out, err = patchOSAPITable(out)
	if err != nil {
		return "", fmt.Errorf("link: patching os_api table: %w", err)
	}

	return out, nil
}

var echonRe = regexp.MustCompile(`(?m)^(\s*JSR\s+)#\d+(\s*;.*ECHON.*)$`)

// patchECHONCallSite rewrites the `JSR #<N>  ; ... ECHON ...` call site's
// operand to echonBase.
func patchECHONCallSite(source string, echonBase int) (string, error) {
	if !echonRe.MatchString(source) {
		return "", fmt.Errorf("no call site labeled ECHON found")
	}
	return echonRe.ReplaceAllString(source, fmt.Sprintf("${1}#%d${2}", echonBase)), nil
}

var osAPIAssignRe = regexp.MustCompile(`(?m)^(\s*)os_api\[(\d+)\]\s*=\s*\S+\s*$`)

// patchOSAPITable walks source linearly (the same code-address accounting
// the assembler uses) to build a label table, then rewrites each
// `os_api[N] = <label>` assignment to the resolved address of its handler
// label from osAPILabels.
func patchOSAPITable(source string) (string, error) {
	labels, err := scanLabelAddresses(source)
	if err != nil {
		return "", err
	}

	var patchErr error
	out := osAPIAssignRe.ReplaceAllStringFunc(source, func(m string) string {
		sub := osAPIAssignRe.FindStringSubmatch(m)
		slot, _ := strconv.Atoi(sub[2])
		if slot < 0 || slot >= len(osAPILabels) {
			patchErr = fmt.Errorf("os_api slot %d has no defined handler label", slot)
			return m
		}
		addr, ok := labels[osAPILabels[slot]]
		if !ok {
			patchErr = fmt.Errorf("os_api handler label %q not found", osAPILabels[slot])
			return m
		}
		return fmt.Sprintf("%sos_api[%d] = %d", sub[1], slot, addr)
	})
	if patchErr != nil {
		return "", patchErr
	}
	return out, nil
}

// scanLabelAddresses walks source line by line tracking the running code
// address with the same instruction-width rules the assembler's first pass
// uses, recording each label's resulting address.
func scanLabelAddresses(source string) (map[string]int, error) {
	labels := map[string]int{}
	addr := 0
	for _, raw := range strings.Split(source, "\n") {
		code, _ := stripComment(raw)
		trimmed := strings.TrimRight(code, " \t\r")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "  ") && trimmed[2] != ' ' {
			fields := strings.Fields(trimmed)
			info, known := opcodeArity(fields[0])
			if !known {
				continue // unknown mnemonics are reported by the assembler proper
			}
			addr += 1 + info
			continue
		}
		body := strings.TrimSpace(trimmed)
		if strings.HasSuffix(body, ":") && !strings.ContainsAny(body, " \t") {
			labels[strings.TrimSuffix(body, ":")] = addr
		}
	}
	return labels, nil
}

// patchOperandAtAddress walks source to find the instruction whose operand
// word lives at wordAddr and rewrites that operand to newValue. Used for
// CALL_STUB + 1, a fixed-offset operand rather than a named call site.
func patchOperandAtAddress(source string, wordAddr, newValue int) (string, error) {
	lines := strings.Split(source, "\n")
	addr := 0
	for i, raw := range lines {
		code, comment := stripComment(raw)
		trimmed := strings.TrimRight(code, " \t\r")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "  ") && trimmed[2] != ' ' {
			fields := strings.Fields(trimmed)
			info, known := opcodeArity(fields[0])
			if !known {
				continue
			}
			operandAddr := addr + 1
			if info == 1 && operandAddr == wordAddr {
				newLine := "  " + fields[0] + " " + strconv.Itoa(newValue)
				if comment != "" {
					newLine += " ; " + comment
				}
				lines[i] = newLine
				return strings.Join(lines, "\n"), nil
			}
			addr += 1 + info
			continue
		}
	}
	return "", fmt.Errorf("no instruction operand at address %d", wordAddr)
}
