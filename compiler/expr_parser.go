package compiler

import (
	"strconv"
	"strings"
)

// exprScanner is a minimal rune scanner over one expression's source text,
// used to parse the `expr := [+|-] term { (+|-) term }` grammar.
type exprScanner struct {
	s    string
	i    int
	line int
}

func (sc *exprScanner) skipSpace() {
	for sc.i < len(sc.s) && sc.s[sc.i] == ' ' {
		sc.i++
	}
}

func (sc *exprScanner) peek() byte {
	if sc.i >= len(sc.s) {
		return 0
	}
	return sc.s[sc.i]
}

// parseExpression parses text as a full Expression.
func parseExpression(text string, lineNo int) (*Expression, error) {
	sc := &exprScanner{s: strings.TrimSpace(text), line: lineNo}
	expr := &Expression{}

	sc.skipSpace()
	sign := byte('+')
	if sc.peek() == '+' || sc.peek() == '-' {
		sign = sc.peek()
		sc.i++
	}
	term, err := sc.parseTerm()
	if err != nil {
		return nil, err
	}
	term.Negative = sign == '-'
	expr.Terms = append(expr.Terms, term)

	for {
		sc.skipSpace()
		if sc.peek() != '+' && sc.peek() != '-' {
			break
		}
		op := sc.peek()
		sc.i++
		sc.skipSpace()
		t, err := sc.parseTerm()
		if err != nil {
			return nil, err
		}
		t.Sign = rune(op)
		expr.Terms = append(expr.Terms, t)
	}

	sc.skipSpace()
	if sc.i != len(sc.s) {
		return nil, newError(lineNo, "unexpected trailing text in expression: %q", sc.s[sc.i:])
	}
	return expr, nil
}

// parseTerm parses `{*} ( IDENT [ '[' index_expr ']' ] | INT )`.
func (sc *exprScanner) parseTerm() (ExprTerm, error) {
	var t ExprTerm
	for sc.peek() == '*' {
		t.Derefs++
		sc.i++
	}

	start := sc.i
	if isDigit(sc.peek()) {
		for isDigit(sc.peek()) {
			sc.i++
		}
		n, err := strconv.Atoi(sc.s[start:sc.i])
		if err != nil {
			return t, newError(sc.line, "malformed integer literal %q", sc.s[start:sc.i])
		}
		t.IsLiteral = true
		t.Literal = n
		return t, nil
	}

	if !isIdentStart(sc.peek()) {
		return t, newError(sc.line, "expected identifier or integer in expression %q", sc.s)
	}
	for isIdentRune(sc.peek()) {
		sc.i++
	}
	t.Ident = sc.s[start:sc.i]

	if sc.peek() == '[' {
		sc.i++
		idxStart := sc.i
		depth := 1
		for sc.i < len(sc.s) && depth > 0 {
			switch sc.s[sc.i] {
			case '[':
				depth++
			case ']':
				depth--
			}
			if depth > 0 {
				sc.i++
			}
		}
		if depth != 0 {
			return t, newError(sc.line, "unterminated index expression in %q", sc.s)
		}
		idxExpr, err := parseExpression(sc.s[idxStart:sc.i], sc.line)
		if err != nil {
			return t, err
		}
		t.HasIndex = true
		t.IndexExpr = idxExpr
		sc.i++ // consume ']'
	}

	return t, nil
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentRune(c byte) bool  { return isIdentStart(c) || isDigit(c) }
