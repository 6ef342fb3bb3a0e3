/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: program.go
Description: Program wrapper around a root statement. The textual form produced by String
is deterministic and is the source that compilation parses back.
*/

package ir

// Program is a candidate model of the target function
type Program struct {
	Body Stmt
}

// NewProgram wraps a root statement
func NewProgram(body Stmt) *Program {
	return &Program{Body: body}
}

// NumStmts counts the addressable statements
func (p *Program) NumStmts() int {
	return NumStmts(p.Body)
}

// Stmts lists the addressable statements in pre-order
func (p *Program) Stmts() []Stmt {
	return AllStmts(p.Body)
}

// Replace returns a new program with statement i replaced
func (p *Program) Replace(i int, news Stmt) (*Program, error) {
	body, err := Replace(p.Body, i, news)
	if err != nil {
		return nil, err
	}
	return &Program{Body: orEmpty(body)}, nil
}

// Variables lists declared variables
func (p *Program) Variables() []VarDef {
	return Variables(p.Body)
}

// Size counts nodes
func (p *Program) Size() int {
	return Size(p.Body)
}

// Equal compares programs structurally
func (p *Program) Equal(o *Program) bool {
	return StmtEqual(p.Body, o.Body)
}

// String pretty-prints the program
func (p *Program) String() string {
	if p.NumStmts() == 0 {
		return "// <empty program>"
	}
	return StmtString(p.Body)
}
