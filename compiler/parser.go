package compiler

import (
	"strconv"
	"strings"
)

// Parser turns preprocessed Mini32 lines into a Program AST.
type Parser struct {
	lines []sourceLine
	pos   int
}

// Parse compiles source's text into a Program AST.
func Parse(source string) (*Program, error) {
	lines, err := preprocessLines(source)
	if err != nil {
		return nil, err
	}
	p := &Parser{lines: lines}
	return p.parseProgram()
}

func (p *Parser) done() bool      { return p.pos >= len(p.lines) }
func (p *Parser) cur() sourceLine { return p.lines[p.pos] }

func (p *Parser) parseProgram() (*Program, error) {
	prog := &Program{Meta: map[string]string{}}

	for !p.done() {
		line := p.cur()
		if line.Indent != 0 {
			return nil, newError(line.No, "unexpected indentation at top level")
		}
		word, rest := firstWord(line.Text)

		var err error
		switch word {
		case "meta":
			err = p.parseMeta(prog, rest, line.No)
		case "depends":
			err = p.parseDepends(prog, rest, line.No)
		case "const":
			err = p.parseConst(prog, rest, line.No)
		case "var":
			err = p.parseVar(prog, rest, line.No)
		case "data":
			err = p.parseData(prog, rest, line.No)
		case "func":
			err = p.parseFunc(prog, rest, line.No)
		default:
			return nil, newError(line.No, "unexpected top-level statement %q", word)
		}
		if err != nil {
			return nil, err
		}
	}

	return prog, nil
}

func (p *Parser) parseMeta(prog *Program, rest string, lineNo int) error {
	p.pos++
	name, value, ok := strings.Cut(rest, "=")
	if !ok {
		return newError(lineNo, "malformed meta declaration %q", rest)
	}
	prog.Meta[strings.TrimSpace(name)] = strings.TrimSpace(value)
	return nil
}

func (p *Parser) parseDepends(prog *Program, rest string, lineNo int) error {
	p.pos++
	for _, d := range strings.Split(rest, ",") {
		d = strings.TrimSpace(d)
		if d != "" {
			prog.Depends = append(prog.Depends, d)
		}
	}
	return nil
}

func (p *Parser) parseConst(prog *Program, rest string, lineNo int) error {
	p.pos++
	name, value, ok := strings.Cut(rest, "=")
	if !ok {
		return newError(lineNo, "malformed const declaration %q", rest)
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return newError(lineNo, "const value must be an integer: %q", value)
	}
	prog.Consts = append(prog.Consts, ConstDef{Name: strings.TrimSpace(name), Value: n})
	return nil
}

func (p *Parser) parseVar(prog *Program, rest string, lineNo int) error {
	p.pos++
	rest = strings.TrimSpace(rest)
	name := rest
	size := 1
	if i := strings.IndexByte(rest, '['); i >= 0 {
		if !strings.HasSuffix(rest, "]") {
			return newError(lineNo, "malformed var declaration %q", rest)
		}
		name = strings.TrimSpace(rest[:i])
		n, err := strconv.Atoi(strings.TrimSpace(rest[i+1 : len(rest)-1]))
		if err != nil {
			return newError(lineNo, "var array size must be an integer: %q", rest)
		}
		size = n
	}
	prog.Vars = append(prog.Vars, VarDef{Name: name, Size: size})
	return nil
}

func (p *Parser) parseData(prog *Program, rest string, lineNo int) error {
	p.pos++
	name, value, ok := strings.Cut(rest, "=")
	if !ok {
		return newError(lineNo, "malformed data declaration %q", rest)
	}
	s, err := unquote(strings.TrimSpace(value))
	if err != nil {
		return newError(lineNo, "malformed data string: %v", err)
	}
	prog.Data = append(prog.Data, DataDef{Name: strings.TrimSpace(name), Value: s})
	return nil
}

func (p *Parser) parseFunc(prog *Program, rest string, lineNo int) error {
	header := strings.TrimSuffix(strings.TrimSpace(rest), ":")
	if !strings.HasSuffix(strings.TrimSpace(rest), ":") {
		return newError(lineNo, "func declaration must end with ':'")
	}
	name := header
	var params []string
	if i := strings.IndexByte(header, '('); i >= 0 {
		if !strings.HasSuffix(header, ")") {
			return newError(lineNo, "malformed func parameter list %q", header)
		}
		name = strings.TrimSpace(header[:i])
		argList := strings.TrimSpace(header[i+1 : len(header)-1])
		if argList != "" {
			for _, a := range strings.Split(argList, ",") {
				params = append(params, strings.TrimSpace(a))
			}
		}
	}
	p.pos++

	body, err := p.parseBlock(1)
	if err != nil {
		return err
	}
	prog.Funcs = append(prog.Funcs, FunctionDef{Name: name, Params: params, Body: body})
	return nil
}

// parseBlock consumes every consecutive line at exactly indent level base,
// recursing into if/while for their nested bodies at base+1.
func (p *Parser) parseBlock(base int) ([]Statement, error) {
	var stmts []Statement
	for !p.done() && p.cur().Indent >= base {
		line := p.cur()
		if line.Indent != base {
			return nil, newError(line.No, "unexpected indentation")
		}
		stmt, err := p.parseStatement(base)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (p *Parser) parseStatement(base int) (Statement, error) {
	line := p.cur()
	word, rest := firstWord(line.Text)

	switch word {
	case "let":
		p.pos++
		return parseLet(rest, line.No)
	case "call":
		p.pos++
		return parseCall(rest, line.No)
	case "return":
		p.pos++
		return parseReturn(rest, line.No)
	case "break":
		p.pos++
		return BreakStmt{}, nil
	case "continue":
		p.pos++
		return ContinueStmt{}, nil
	case "asm":
		p.pos++
		return AsmStmt{Line: unquoteAsm(strings.TrimSpace(rest))}, nil
	case "if":
		return p.parseIf(rest, line.No, base)
	case "while":
		return p.parseWhile(rest, line.No, base)
	default:
		if isMnemonicWord(word) {
			p.pos++
			return AsmStmt{Line: strings.TrimSpace(line.Text)}, nil
		}
		return nil, newError(line.No, "unexpected statement %q", word)
	}
}

// unquoteAsm strips the quotes around an `asm "..."` literal; a bare
// (unquoted) line is passed through untouched.
func unquoteAsm(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// isMnemonicWord reports whether word looks like a bare EASM mnemonic
// (all-uppercase letters), which lets a statement body drop into raw
// assembly without the explicit "asm" keyword.
func isMnemonicWord(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func (p *Parser) parseIf(rest string, lineNo, base int) (Statement, error) {
	cond, op, rhs, err := parseCond(rest, lineNo)
	if err != nil {
		return nil, err
	}
	p.pos++
	thenBody, err := p.parseBlock(base + 1)
	if err != nil {
		return nil, err
	}
	var elseBody []Statement
	if !p.done() && p.cur().Indent == base && strings.TrimSpace(p.cur().Text) == "else:" {
		p.pos++
		elseBody, err = p.parseBlock(base + 1)
		if err != nil {
			return nil, err
		}
	}
	return IfStmt{Cond: cond, CmpOp: op, CmpRHS: rhs, Then: thenBody, Else: elseBody}, nil
}

func (p *Parser) parseWhile(rest string, lineNo, base int) (Statement, error) {
	cond, op, rhs, err := parseCond(rest, lineNo)
	if err != nil {
		return nil, err
	}
	p.pos++
	body, err := p.parseBlock(base + 1)
	if err != nil {
		return nil, err
	}
	return WhileStmt{Cond: cond, CmpOp: op, CmpRHS: rhs, Body: body}, nil
}

// parseCond parses `cond := expr | expr "==" expr | expr "!=" expr` followed
// by a trailing ':'.
func parseCond(rest string, lineNo int) (*Expression, string, *Expression, error) {
	rest = strings.TrimSpace(rest)
	if !strings.HasSuffix(rest, ":") {
		return nil, "", nil, newError(lineNo, "expected ':' at end of condition")
	}
	rest = strings.TrimSuffix(rest, ":")

	for _, op := range []string{"==", "!="} {
		if i := strings.Index(rest, op); i >= 0 {
			lhs, err := parseExpression(rest[:i], lineNo)
			if err != nil {
				return nil, "", nil, err
			}
			rhs, err := parseExpression(rest[i+len(op):], lineNo)
			if err != nil {
				return nil, "", nil, err
			}
			return lhs, op, rhs, nil
		}
	}
	expr, err := parseExpression(rest, lineNo)
	if err != nil {
		return nil, "", nil, err
	}
	return expr, "", nil, nil
}

func parseLet(rest string, lineNo int) (Statement, error) {
	for _, op := range []string{"+=", "-=", "="} {
		if i := strings.Index(rest, op); i >= 0 {
			target, err := parseTarget(rest[:i], lineNo)
			if err != nil {
				return nil, err
			}
			value, err := parseExpression(rest[i+len(op):], lineNo)
			if err != nil {
				return nil, err
			}
			return LetStmt{Target: target, Op: op, Value: value}, nil
		}
	}
	return nil, newError(lineNo, "malformed let statement %q", rest)
}

func parseTarget(text string, lineNo int) (TargetRef, error) {
	text = strings.TrimSpace(text)
	name := text
	var ref TargetRef
	if i := strings.IndexByte(text, '['); i >= 0 {
		if !strings.HasSuffix(text, "]") {
			return ref, newError(lineNo, "malformed indexed target %q", text)
		}
		name = strings.TrimSpace(text[:i])
		idxExpr, err := parseExpression(text[i+1:len(text)-1], lineNo)
		if err != nil {
			return ref, err
		}
		ref.HasIndex = true
		ref.IndexExpr = idxExpr
	}
	ref.Ident = name
	return ref, nil
}

func parseCall(rest string, lineNo int) (Statement, error) {
	rest = strings.TrimSpace(rest)
	callee := rest
	var argsText string
	var resultsText string

	if i := strings.Index(rest, "->"); i >= 0 {
		resultsText = strings.TrimSpace(rest[i+2:])
		rest = strings.TrimSpace(rest[:i])
		callee = rest
	}
	if i := strings.IndexByte(callee, '('); i >= 0 {
		if !strings.HasSuffix(callee, ")") {
			return nil, newError(lineNo, "malformed call argument list %q", callee)
		}
		argsText = callee[i+1 : len(callee)-1]
		callee = strings.TrimSpace(callee[:i])
	}

	stmt := CallStmt{Callee: strings.TrimPrefix(callee, "@"), Extern: strings.HasPrefix(callee, "@")}
	if strings.TrimSpace(argsText) != "" {
		for _, a := range strings.Split(argsText, ",") {
			expr, err := parseExpression(a, lineNo)
			if err != nil {
				return nil, err
			}
			stmt.Args = append(stmt.Args, expr)
		}
	}
	if resultsText != "" {
		for _, r := range strings.Split(resultsText, ",") {
			stmt.Results = append(stmt.Results, strings.TrimSpace(r))
		}
	}
	return stmt, nil
}

func parseReturn(rest string, lineNo int) (Statement, error) {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return ReturnStmt{}, nil
	}
	var stmt ReturnStmt
	for _, part := range strings.Split(rest, ",") {
		expr, err := parseExpression(part, lineNo)
		if err != nil {
			return nil, err
		}
		stmt.Values = append(stmt.Values, expr)
	}
	return stmt, nil
}

// firstWord splits text into its leading keyword and the remainder.
func firstWord(text string) (string, string) {
	text = strings.TrimSpace(text)
	i := strings.IndexByte(text, ' ')
	if i < 0 {
		return text, ""
	}
	return text[:i], text[i+1:]
}

// unquote strips a single layer of matching double or single quotes.
func unquote(s string) (string, error) {
	if len(s) < 2 || s[0] != s[len(s)-1] || (s[0] != '"' && s[0] != '\'') {
		return "", newError(0, "value is not a quoted string: %q", s)
	}
	return s[1 : len(s)-1], nil
}
