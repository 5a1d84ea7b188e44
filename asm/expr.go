package asm

import (
	"strconv"
	"strings"
)

// evalExpr evaluates a `+`/`-` expression over integer literals and pointer
// variables (`name` or `.name`). Undefined names resolve to 0; when warn is
// non-nil it is called once per undefined name so operand evaluation can
// emit its diagnostic while address expressions stay silent.
func evalExpr(expr string, vars map[string]int, warn func(name string)) int {
	expr = strings.ReplaceAll(expr, " ", "")

	total := 0
	for _, positive := range strings.Split(expr, "+") {
		negParts := strings.Split(positive, "-")
		total += evalTerm(negParts[0], vars, warn)
		for _, t := range negParts[1:] {
			total -= evalTerm(t, vars, warn)
		}
	}
	return total
}

func evalTerm(term string, vars map[string]int, warn func(name string)) int {
	if term == "" {
		return 0
	}
	name := term
	if term[0] == '.' {
		name = term[1:]
	} else if n, err := strconv.Atoi(term); err == nil {
		return n
	}
	v, ok := vars[name]
	if !ok && warn != nil {
		warn(name)
	}
	return v
}
