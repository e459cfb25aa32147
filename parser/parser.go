package parser

import (
	"fmt"
	"strconv"

	"github.com/sorinm/empirical-lang/syntax/ast"
)

type parser struct {
	toks []token
	pos  int
	errs []error
}

func (p *parser) cur() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if p.toks[p.pos].kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) peekTok(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) atOp(text string) bool {
	return p.cur().kind == tokOp && p.cur().text == text
}

func (p *parser) atKeyword(text string) bool {
	return p.cur().kind == tokKeyword && p.cur().text == text
}

func (p *parser) acceptOp(text string) bool {
	if p.atOp(text) {
		p.next()
		return true
	}
	return false
}

func (p *parser) acceptKeyword(text string) bool {
	if p.atKeyword(text) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectOp(text string) {
	if !p.acceptOp(text) {
		p.errorf("expected '%s', found %s", text, p.cur())
	}
}

func (p *parser) expectKeyword(text string) {
	if !p.acceptKeyword(text) {
		p.errorf("expected '%s', found %s", text, p.cur())
	}
}

func (p *parser) errorf(format string, args ...any) {
	t := p.cur()
	p.errs = append(p.errs, fmt.Errorf("%d:%d: %s", t.line, t.col, fmt.Sprintf(format, args...)))
}

// sync skips to the next statement boundary after a parse error.
func (p *parser) sync() {
	for p.cur().kind != tokEOF && p.cur().kind != tokNewline {
		p.next()
	}
}

func (p *parser) skipSeparators() {
	for p.cur().kind == tokNewline || p.atOp(";") {
		p.next()
	}
}

func (p *parser) endOfStmt() {
	if p.cur().kind == tokNewline || p.atOp(";") || p.cur().kind == tokEOF {
		p.skipSeparators()
		return
	}
	p.errorf("unexpected %s after statement", p.cur())
	p.sync()
}

/* module */

func (p *parser) parseModule() *ast.Module {
	body, docstring := p.parseBody(nil)
	if p.cur().kind != tokEOF {
		p.errorf("unexpected %s", p.cur())
	}
	return &ast.Module{Body: body, Docstring: docstring}
}

// parseBlock parses statements until one of the stop keywords (or EOF).
func (p *parser) parseBlock(stop map[string]bool) (body []ast.Stmt) {
	p.skipSeparators()
	for p.cur().kind != tokEOF {
		if p.cur().kind == tokKeyword && stop[p.cur().text] {
			break
		}
		before := len(p.errs)
		s := p.parseStmt()
		if s != nil {
			body = append(body, s)
		} else if len(p.errs) > before {
			p.sync()
		}
		p.skipSeparators()
	}
	return body
}

// parseBody is parseBlock for modules and function bodies, which pull a
// leading bare string literal out as the docstring.
func (p *parser) parseBody(stop map[string]bool) (body []ast.Stmt, docstring string) {
	body = p.parseBlock(stop)
	if len(body) > 0 {
		if es, ok := body[0].(*ast.ExprStmt); ok {
			if str, ok := es.Value.(*ast.Str); ok {
				docstring = str.Val
				body = body[1:]
			}
		}
	}
	return body, docstring
}

var blockEnd = map[string]bool{"end": true}
var blockEndOrElse = map[string]bool{"end": true, "else": true}

func (p *parser) parseStmt() ast.Stmt {
	if p.cur().kind == tokKeyword {
		switch p.cur().text {
		case "func":
			return p.parseFunctionDef()
		case "data":
			return p.parseDataDef()
		case "return":
			p.next()
			var value ast.Expr
			if p.cur().kind != tokNewline && !p.atOp(";") && p.cur().kind != tokEOF {
				value = p.parseExpr()
			}
			p.endOfStmt()
			return &ast.Return{Value: value}
		case "if":
			return p.parseIf()
		case "while":
			return p.parseWhile()
		case "let":
			return p.parseDeclStmt(ast.DeclLet)
		case "var":
			return p.parseDeclStmt(ast.DeclVar)
		case "del":
			p.next()
			targets := []ast.Expr{p.parseExpr()}
			for p.acceptOp(",") {
				targets = append(targets, p.parseExpr())
			}
			p.endOfStmt()
			return &ast.Del{Targets: targets}
		case "import":
			p.next()
			names := p.parseNameList()
			p.endOfStmt()
			return &ast.Import{Names: names}
		case "from":
			if p.fromIsImport() {
				return p.parseImportFrom()
			}
		}
	}
	return p.parseSimpleStmt()
}

// fromIsImport distinguishes `from m import x` from a query expression by
// scanning ahead for the import keyword before the end of the line.
func (p *parser) fromIsImport() bool {
	for i := 0; ; i++ {
		t := p.peekTok(i)
		if t.kind == tokEOF || t.kind == tokNewline {
			return false
		}
		if t.kind == tokKeyword && t.text == "import" {
			return true
		}
	}
}

func (p *parser) parseImportFrom() ast.Stmt {
	p.expectKeyword("from")
	module := ""
	if p.cur().kind == tokIdent {
		module = p.next().text
	} else {
		p.errorf("expected module name, found %s", p.cur())
	}
	p.expectKeyword("import")
	names := p.parseNameList()
	p.endOfStmt()
	return &ast.ImportFrom{Module: module, Names: names}
}

func (p *parser) parseNameList() []string {
	var names []string
	for {
		if p.cur().kind != tokIdent {
			p.errorf("expected name, found %s", p.cur())
			return names
		}
		names = append(names, p.next().text)
		if !p.acceptOp(",") {
			return names
		}
	}
}

func (p *parser) parseSimpleStmt() ast.Stmt {
	target := p.parseExpr()
	if target == nil {
		return nil
	}
	switch {
	case p.acceptOp(":="):
		id, ok := target.(*ast.Id)
		if !ok {
			p.errorf("':=' requires a name on the left-hand side")
		}
		value := p.parseExpr()
		p.endOfStmt()
		name := ""
		if ok {
			name = id.Sym
		}
		return &ast.Decl{Dt: ast.DeclLet, Decls: []*ast.Declaration{{Name: name, Value: value}}}
	case p.acceptOp("="):
		value := p.parseExpr()
		p.endOfStmt()
		return &ast.Assign{Target: target, Value: value}
	default:
		p.endOfStmt()
		return &ast.ExprStmt{Value: target}
	}
}

func (p *parser) parseDeclStmt(dt ast.Decltype) ast.Stmt {
	p.next() // let / var
	var decls []*ast.Declaration
	for {
		decls = append(decls, p.parseDeclaration())
		if !p.acceptOp(",") {
			break
		}
	}
	p.endOfStmt()
	return &ast.Decl{Dt: dt, Decls: decls}
}

func (p *parser) parseDeclaration() *ast.Declaration {
	d := &ast.Declaration{}
	if p.cur().kind == tokIdent {
		d.Name = p.next().text
	} else {
		p.errorf("expected name, found %s", p.cur())
	}
	if p.acceptOp(":") {
		d.ExplicitType = p.parseExpr()
	}
	if p.acceptOp("=") {
		d.Value = p.parseExpr()
	}
	return d
}

func (p *parser) parseFunctionDef() ast.Stmt {
	p.expectKeyword("func")
	fd := &ast.FunctionDef{}
	switch p.cur().kind {
	case tokIdent:
		fd.Name = p.next().text
	case tokOp:
		// operator overloads: func +(...), func ==(...), ...
		fd.Name = p.next().text
	default:
		p.errorf("expected function name, found %s", p.cur())
	}
	p.expectOp("(")
	if !p.atOp(")") {
		for {
			arg := &ast.Declaration{}
			if p.cur().kind == tokIdent {
				arg.Name = p.next().text
			} else {
				p.errorf("expected argument name, found %s", p.cur())
			}
			if p.acceptOp(":") {
				arg.ExplicitType = p.parseExpr()
			}
			if p.acceptOp("=") {
				arg.Value = p.parseExpr()
			}
			fd.Args = append(fd.Args, arg)
			if !p.acceptOp(",") {
				break
			}
		}
	}
	p.expectOp(")")
	if p.acceptOp("->") {
		fd.ExplicitRettype = p.parseExpr()
	}
	p.expectOp(":")
	fd.Body, fd.Docstring = p.parseBody(blockEnd)
	p.expectKeyword("end")
	p.endOfStmt()
	return fd
}

func (p *parser) parseDataDef() ast.Stmt {
	p.expectKeyword("data")
	dd := &ast.DataDef{}
	if p.cur().kind == tokIdent {
		dd.Name = p.next().text
	} else {
		p.errorf("expected type name, found %s", p.cur())
	}
	p.expectOp(":")
	p.skipSeparators()
	for !p.atKeyword("end") && p.cur().kind != tokEOF {
		field := &ast.Declaration{}
		if p.cur().kind == tokIdent {
			field.Name = p.next().text
		} else {
			p.errorf("expected field name, found %s", p.cur())
			p.sync()
			p.skipSeparators()
			continue
		}
		p.expectOp(":")
		field.ExplicitType = p.parseExpr()
		dd.Body = append(dd.Body, field)
		p.acceptOp(",")
		p.skipSeparators()
	}
	p.expectKeyword("end")
	p.endOfStmt()
	return dd
}

func (p *parser) parseIf() ast.Stmt {
	p.expectKeyword("if")
	n := &ast.If{Test: p.parseExpr()}
	p.expectOp(":")
	n.Body = p.parseBlock(blockEndOrElse)
	if p.acceptKeyword("else") {
		p.expectOp(":")
		n.Orelse = p.parseBlock(blockEnd)
	}
	p.expectKeyword("end")
	p.endOfStmt()
	return n
}

func (p *parser) parseWhile() ast.Stmt {
	p.expectKeyword("while")
	n := &ast.While{Test: p.parseExpr()}
	p.expectOp(":")
	n.Body = p.parseBlock(blockEnd)
	p.expectKeyword("end")
	p.endOfStmt()
	return n
}

/* expressions */

func (p *parser) parseExpr() ast.Expr {
	return p.parseOr()
}

func (p *parser) parseOr() ast.Expr {
	left := p.parseAnd()
	for p.atKeyword("or") {
		p.next()
		left = &ast.BinOp{Left: left, Op: "or", Right: p.parseAnd()}
	}
	return left
}

func (p *parser) parseAnd() ast.Expr {
	left := p.parseNot()
	for p.atKeyword("and") {
		p.next()
		left = &ast.BinOp{Left: left, Op: "and", Right: p.parseNot()}
	}
	return left
}

func (p *parser) parseNot() ast.Expr {
	if p.atKeyword("not") {
		p.next()
		return &ast.UnaryOp{Op: "not", Operand: p.parseNot()}
	}
	return p.parseComparison()
}

var comparisonOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	for p.cur().kind == tokOp && comparisonOps[p.cur().text] {
		op := p.next().text
		left = &ast.BinOp{Left: left, Op: op, Right: p.parseAdditive()}
	}
	return left
}

func (p *parser) parseAdditive() ast.Expr {
	left := p.parseTerm()
	for p.atOp("+") || p.atOp("-") {
		op := p.next().text
		left = &ast.BinOp{Left: left, Op: op, Right: p.parseTerm()}
	}
	return left
}

func (p *parser) parseTerm() ast.Expr {
	left := p.parseUnary()
	for p.atOp("*") || p.atOp("/") || p.atOp("%") {
		op := p.next().text
		left = &ast.BinOp{Left: left, Op: op, Right: p.parseUnary()}
	}
	return left
}

func (p *parser) parseUnary() ast.Expr {
	if p.atOp("-") || p.atOp("!") {
		op := p.next().text
		return &ast.UnaryOp{Op: op, Operand: p.parseUnary()}
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		switch {
		case p.atOp("("):
			args := p.parseArgs()
			// load(...) is a compile-time template instantiation
			if id, ok := e.(*ast.Id); ok && id.Sym == "load" {
				e = &ast.TemplateInst{Func: e, Args: args}
			} else {
				e = &ast.FunctionCall{Func: e, Args: args}
			}
		case p.atOp("$"):
			p.next()
			if !p.atOp("(") {
				p.errorf("expected '(' after '$', found %s", p.cur())
				return e
			}
			e = &ast.TemplateInst{Func: e, Args: p.parseArgs()}
		case p.atOp("."):
			p.next()
			if p.cur().kind != tokIdent {
				p.errorf("expected member name, found %s", p.cur())
				return e
			}
			e = &ast.Member{Value: e, Attr: p.next().text}
		case p.atOp("["):
			p.next()
			slice := p.parseSlice()
			p.expectOp("]")
			e = &ast.Subscript{Value: e, Slice: slice}
		default:
			return e
		}
	}
}

func (p *parser) parseArgs() []ast.Expr {
	p.expectOp("(")
	var args []ast.Expr
	if !p.atOp(")") {
		args = append(args, p.parseExpr())
		for p.acceptOp(",") {
			args = append(args, p.parseExpr())
		}
	}
	p.expectOp(")")
	return args
}

func (p *parser) parseSlice() ast.SliceNode {
	var lower, upper, step ast.Expr
	if !p.atOp(":") {
		lower = p.parseExpr()
		if !p.atOp(":") {
			return &ast.Index{Value: lower}
		}
	}
	p.expectOp(":")
	if !p.atOp(":") && !p.atOp("]") {
		upper = p.parseExpr()
	}
	if p.acceptOp(":") {
		if !p.atOp("]") {
			step = p.parseExpr()
		}
	}
	return &ast.Slice{Lower: lower, Upper: upper, Step: step}
}

func (p *parser) parsePrimary() ast.Expr {
	t := p.cur()
	switch t.kind {
	case tokInt:
		p.next()
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			p.errorf("bad integer literal %q", t.text)
		}
		lit := ast.Expr(&ast.IntegerLiteral{Val: n})
		if t.suffix != "" {
			lit = &ast.UserDefinedLiteral{Literal: lit, Suffix: t.suffix}
		}
		return lit
	case tokFloat:
		p.next()
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			p.errorf("bad floating literal %q", t.text)
		}
		lit := ast.Expr(&ast.FloatingLiteral{Val: f})
		if t.suffix != "" {
			lit = &ast.UserDefinedLiteral{Literal: lit, Suffix: t.suffix}
		}
		return lit
	case tokString:
		p.next()
		return &ast.Str{Val: t.text}
	case tokChar:
		p.next()
		return &ast.Char{Val: rune(t.text[0])}
	case tokIdent:
		p.next()
		return &ast.Id{Sym: t.text}
	case tokKeyword:
		switch t.text {
		case "true":
			p.next()
			return &ast.BoolLiteral{Val: true}
		case "false":
			p.next()
			return &ast.BoolLiteral{Val: false}
		case "from":
			return p.parseQuery()
		case "sort":
			return p.parseSortExpr()
		case "join":
			return p.parseJoin()
		}
	case tokOp:
		switch t.text {
		case "(":
			p.next()
			sub := p.parseExpr()
			p.expectOp(")")
			return &ast.Paren{Sub: sub}
		case "[":
			p.next()
			var values []ast.Expr
			if !p.atOp("]") {
				values = append(values, p.parseExpr())
				for p.acceptOp(",") {
					values = append(values, p.parseExpr())
				}
			}
			p.expectOp("]")
			return &ast.List{Values: values}
		}
	}
	p.errorf("unexpected %s in expression", t)
	p.next()
	return nil
}

/* relational constructs */

func (p *parser) parseAlias() *ast.Alias {
	a := &ast.Alias{}
	if p.cur().kind == tokIdent && p.peekTok(1).kind == tokOp && p.peekTok(1).text == "=" {
		a.Name = p.next().text
		p.next() // '='
	}
	a.Value = p.parseOr()
	return a
}

func (p *parser) parseAliasList() []*ast.Alias {
	var aliases []*ast.Alias
	aliases = append(aliases, p.parseAlias())
	for p.acceptOp(",") {
		aliases = append(aliases, p.parseAlias())
	}
	return aliases
}

func (p *parser) parseQuery() ast.Expr {
	p.expectKeyword("from")
	q := &ast.Query{Table: p.parseOr(), Qt: ast.QuerySelect}
	if p.acceptKeyword("exec") {
		q.Qt = ast.QueryExec
	} else {
		p.expectKeyword("select")
	}
	if !p.atKeyword("by") && !p.atKeyword("where") && p.cur().kind != tokNewline &&
		p.cur().kind != tokEOF && !p.atOp(")") && !p.atOp(";") {
		q.Cols = p.parseAliasList()
	}
	if p.acceptKeyword("by") {
		q.By = p.parseAliasList()
	}
	if p.acceptKeyword("where") {
		q.Where = p.parseOr()
	}
	return q
}

func (p *parser) parseSortExpr() ast.Expr {
	p.expectKeyword("sort")
	s := &ast.Sort{Table: p.parseOr()}
	p.expectKeyword("by")
	s.By = p.parseAliasList()
	return s
}

func (p *parser) parseJoin() ast.Expr {
	p.expectKeyword("join")
	j := &ast.Join{Direction: ast.DirectionBackward}
	j.Left = p.parseOr()
	p.expectOp(",")
	j.Right = p.parseOr()
	if p.acceptKeyword("on") {
		j.On = p.parseAliasList()
	}
	if p.acceptKeyword("asof") {
		j.Asof = p.parseAlias()
		for {
			switch {
			case p.acceptKeyword("strict"):
				j.Strict = true
			case p.acceptKeyword("nearest"):
				j.Direction = ast.DirectionNearest
			case p.acceptKeyword("backward"):
				j.Direction = ast.DirectionBackward
			case p.acceptKeyword("forward"):
				j.Direction = ast.DirectionForward
			case p.acceptKeyword("within"):
				j.Within = p.parseOr()
			default:
				return j
			}
		}
	}
	return j
}
