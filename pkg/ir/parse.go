/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: parse.go
Description: Recursive-descent parser for the textual program form printed by this package.
Compilation goes through text so that every candidate's printed form is exactly what runs.
*/

package ir

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/kleascm/akaylee-mimic/pkg/value"
)

const (
	tokEq     = -100 - iota // ==
	tokPlusEq               // +=
)

type token struct {
	kind rune
	text string
	line int
}

// SyntaxError reports malformed program text
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

type parser struct {
	toks []token
	pos  int
}

// Parse reads program text back into IR
func Parse(src string) (*Program, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	var stmts []Stmt
	for !p.at(scanner.EOF) {
		s, err := p.stmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return NewProgram(&Seq{Stmts: stmts}), nil
}

func tokenize(src string) ([]token, error) {
	var s scanner.Scanner
	s.Init(strings.NewReader(src))
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings |
		scanner.ScanComments | scanner.SkipComments
	var scanErr error
	s.Error = func(s *scanner.Scanner, msg string) {
		if scanErr == nil {
			scanErr = &SyntaxError{Line: s.Pos().Line, Msg: msg}
		}
	}

	var toks []token
	lastOffset := -2
	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		t := token{kind: tok, text: s.TokenText(), line: s.Position.Line}
		adjacent := s.Position.Offset == lastOffset+1
		lastOffset = s.Position.Offset
		if tok == '=' && adjacent && len(toks) > 0 {
			switch toks[len(toks)-1].kind {
			case '=':
				toks[len(toks)-1] = token{kind: tokEq, text: "==", line: t.line}
				continue
			case '+':
				toks[len(toks)-1] = token{kind: tokPlusEq, text: "+=", line: t.line}
				continue
			}
		}
		toks = append(toks, t)
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return append(toks, token{kind: scanner.EOF, line: s.Pos().Line}), nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) at(kind rune) bool { return p.toks[p.pos].kind == kind }

func (p *parser) atIdent(name string) bool {
	t := p.toks[p.pos]
	return t.kind == scanner.Ident && t.text == name
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != scanner.EOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Line: p.peek().line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(kind rune) error {
	if !p.at(kind) {
		return p.errorf("expected %s, found %q", scanner.TokenString(kind), p.peek().text)
	}
	p.next()
	return nil
}

func (p *parser) expectIdent(name string) error {
	if !p.atIdent(name) {
		return p.errorf("expected %q, found %q", name, p.peek().text)
	}
	p.next()
	return nil
}

func (p *parser) ident() (string, error) {
	if !p.at(scanner.Ident) {
		return "", p.errorf("expected identifier, found %q", p.peek().text)
	}
	return p.next().text, nil
}

func (p *parser) block() (Stmt, error) {
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	var stmts []Stmt
	for !p.at('}') {
		if p.at(scanner.EOF) {
			return nil, p.errorf("unterminated block")
		}
		s, err := p.stmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	p.next()
	return &Seq{Stmts: stmts}, nil
}

func (p *parser) stmt() (Stmt, error) {
	switch {
	case p.atIdent("var"):
		p.next()
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		lhs := NewVar(name)
		if !p.at('=') {
			return &Assign{LHS: lhs, Decl: true}, nil
		}
		p.next()
		return p.assignment(lhs, true)
	case p.atIdent("return"):
		p.next()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &Return{Value: e}, nil
	case p.atIdent("throw"):
		p.next()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &Throw{Value: e}, nil
	case p.atIdent("delete"):
		p.next()
		e, call, err := p.postfix()
		if err != nil {
			return nil, err
		}
		f, ok := e.(*Field)
		if !ok || call != nil {
			return nil, p.errorf("delete requires a field access")
		}
		return &DeleteProp{Obj: f.Obj, Name: f.Name}, nil
	case p.atIdent("break"):
		p.next()
		return &Break{}, nil
	case p.atIdent("if"):
		return p.ifStmt()
	case p.atIdent("for"):
		return p.forStmt()
	case p.atIdent("Object"):
		return p.defineStmt()
	}

	lhs, call, err := p.postfix()
	if err != nil {
		return nil, err
	}
	if call != nil {
		return nil, p.errorf("call result must be assigned")
	}
	switch lhs.(type) {
	case *Var, *Field:
	default:
		return nil, p.errorf("invalid assignment target")
	}
	if err := p.expect('='); err != nil {
		return nil, err
	}
	return p.assignment(lhs, false)
}

func (p *parser) assignment(lhs Expr, decl bool) (Stmt, error) {
	rhs, call, err := p.exprOrCall()
	if err != nil {
		return nil, err
	}
	if call == nil {
		return &Assign{LHS: lhs, RHS: rhs, Decl: decl}, nil
	}
	v, ok := lhs.(*Var)
	if !ok {
		return nil, p.errorf("call result must be stored in a variable")
	}
	return &FuncCall{Result: v, Target: call.target, Args: call.args, Receiver: call.receiver, Decl: decl}, nil
}

func (p *parser) ifStmt() (Stmt, error) {
	p.next()
	if err := p.expect('('); err != nil {
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	thn, err := p.block()
	if err != nil {
		return nil, err
	}
	var els Stmt = &Seq{}
	if p.atIdent("else") {
		p.next()
		if els, err = p.block(); err != nil {
			return nil, err
		}
	}
	return &If{Cond: cond, Then: thn, Else: els}, nil
}

func (p *parser) forStmt() (Stmt, error) {
	p.next()
	if err := p.expect('('); err != nil {
		return nil, err
	}
	if err := p.expectIdent("var"); err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	if err := p.expect('='); err != nil {
		return nil, err
	}
	start, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(';'); err != nil {
		return nil, err
	}
	if err := p.expectIdent(name); err != nil {
		return nil, err
	}
	if err := p.expect('<'); err != nil {
		return nil, err
	}
	end, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(';'); err != nil {
		return nil, err
	}
	if err := p.expectIdent(name); err != nil {
		return nil, err
	}
	if err := p.expect(tokPlusEq); err != nil {
		return nil, err
	}
	step, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &For{Start: start, End: end, Step: step, Body: body, Var: NewVar(name)}, nil
}

func (p *parser) defineStmt() (Stmt, error) {
	p.next()
	if err := p.expect('.'); err != nil {
		return nil, err
	}
	if err := p.expectIdent("defineProperty"); err != nil {
		return nil, err
	}
	if err := p.expect('('); err != nil {
		return nil, err
	}
	obj, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(','); err != nil {
		return nil, err
	}
	name, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(','); err != nil {
		return nil, err
	}
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	if err := p.expectIdent("value"); err != nil {
		return nil, err
	}
	if err := p.expect(':'); err != nil {
		return nil, err
	}
	val, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expect('}'); err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return &DefineProp{Obj: obj, Name: name, Value: val}, nil
}

type callExpr struct {
	target   Expr
	receiver Expr
	args     []Expr
}

// exprOrCall parses a right-hand side, which may be a call
func (p *parser) exprOrCall() (Expr, *callExpr, error) {
	start := p.pos
	e, call, err := p.postfix()
	if err == nil && call != nil {
		return nil, call, nil
	}
	p.pos = start
	e, err = p.expr()
	return e, nil, err
}

func (p *parser) expr() (Expr, error) {
	a, err := p.additive()
	if err != nil {
		return nil, err
	}
	for p.at(tokEq) {
		p.next()
		b, err := p.additive()
		if err != nil {
			return nil, err
		}
		a = NewBinary(OpEq, a, b)
	}
	return a, nil
}

func (p *parser) additive() (Expr, error) {
	a, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.at('+') || p.at('-') {
		op := p.next()
		b, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op.kind == '-' {
			c, ok := b.(*Const)
			if !ok || c.Value.Kind() != value.KindNumber {
				return nil, p.errorf("subtraction is only supported for numeric literals")
			}
			b = NewConst(value.Number(-c.Value.AsNumber()))
		}
		a = NewBinary(OpAdd, a, b)
	}
	return a, nil
}

func (p *parser) unary() (Expr, error) {
	switch {
	case p.at('!'):
		p.next()
		e, err := p.unary()
		if err != nil {
			return nil, err
		}
		return NewNot(e), nil
	case p.at('-'):
		p.next()
		e, err := p.unary()
		if err != nil {
			return nil, err
		}
		c, ok := e.(*Const)
		if !ok || c.Value.Kind() != value.KindNumber {
			return nil, p.errorf("negation is only supported for numeric literals")
		}
		return NewConst(value.Number(-c.Value.AsNumber())), nil
	}
	e, call, err := p.postfix()
	if err != nil {
		return nil, err
	}
	if call != nil {
		return nil, p.errorf("call is not allowed inside an expression")
	}
	return e, nil
}

// postfix parses a primary expression followed by field accesses on the same line
// A trailing .apply(recv, [args]) is returned as a call.
func (p *parser) postfix() (Expr, *callExpr, error) {
	e, err := p.primary()
	if err != nil {
		return nil, nil, err
	}
	for {
		line := p.toks[p.pos-1].line
		switch {
		case p.at('.'):
			p.next()
			name, err := p.ident()
			if err != nil {
				return nil, nil, err
			}
			if name == "apply" && p.at('(') {
				call, err := p.callArgs(e)
				return nil, call, err
			}
			e = NewField(e, NewConst(value.String(name)))
		case p.at('[') && p.peek().line == line:
			p.next()
			name, err := p.expr()
			if err != nil {
				return nil, nil, err
			}
			if err := p.expect(']'); err != nil {
				return nil, nil, err
			}
			e = NewField(e, name)
		default:
			return e, nil, nil
		}
	}
}

func (p *parser) callArgs(target Expr) (*callExpr, error) {
	p.next()
	call := &callExpr{target: target}
	if p.atIdent("global") {
		p.next()
	} else {
		recv, err := p.expr()
		if err != nil {
			return nil, err
		}
		call.receiver = recv
	}
	if err := p.expect(','); err != nil {
		return nil, err
	}
	if err := p.expect('['); err != nil {
		return nil, err
	}
	for !p.at(']') {
		if len(call.args) > 0 {
			if err := p.expect(','); err != nil {
				return nil, err
			}
		}
		a, err := p.expr()
		if err != nil {
			return nil, err
		}
		call.args = append(call.args, a)
	}
	p.next()
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *parser) primary() (Expr, error) {
	t := p.peek()
	switch t.kind {
	case scanner.Int, scanner.Float:
		p.next()
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, p.errorf("invalid number %q", t.text)
		}
		return NewConst(value.Number(f)), nil
	case scanner.String:
		p.next()
		s, err := strconv.Unquote(t.text)
		if err != nil {
			return nil, p.errorf("invalid string %s", t.text)
		}
		return NewConst(value.String(s)), nil
	case '(':
		p.next()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		return e, p.expect(')')
	case '{':
		p.next()
		return &Alloc{}, p.expect('}')
	case '[':
		p.next()
		return &Alloc{Array: true}, p.expect(']')
	case scanner.Ident:
		p.next()
		return p.identExpr(t.text)
	}
	return nil, p.errorf("unexpected %q", t.text)
}

func (p *parser) identExpr(name string) (Expr, error) {
	switch name {
	case "true":
		return NewConst(value.Bool(true)), nil
	case "false":
		return NewConst(value.Bool(false)), nil
	case "null":
		return NewConst(value.Null()), nil
	case "undefined":
		return NewConst(value.Undefined()), nil
	case "NaN":
		return NewConst(value.Number(math.NaN())), nil
	case "Infinity":
		return NewConst(value.Number(math.Inf(1))), nil
	case "arguments":
		if err := p.expect('['); err != nil {
			return nil, err
		}
		idx, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &Argument{Index: idx}, p.expect(']')
	}
	if strings.HasPrefix(name, "arg") {
		if i, err := strconv.Atoi(name[3:]); err == nil && i >= 0 && strconv.Itoa(i) == name[3:] {
			return Arg(i), nil
		}
	}
	return NewVar(name), nil
}
