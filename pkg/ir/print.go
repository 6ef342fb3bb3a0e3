/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: print.go
Description: Pretty printer for the Mimic IR. Produces JavaScript-like text that Parse reads
back into an equal tree.
*/

package ir

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kleascm/akaylee-mimic/pkg/fault"
	"github.com/kleascm/akaylee-mimic/pkg/value"
)

const indentUnit = "  "

var identPattern = regexp.MustCompile(`^[a-zA-Z_][_a-zA-Z0-9]*$`)

// ExprString prints an expression in statement position (no outer parentheses)
func ExprString(e Expr) string {
	return exprString(e, true)
}

func exprString(e Expr, top bool) string {
	switch e := e.(type) {
	case *Const:
		return constString(e.Value)
	case *Var:
		return e.Name
	case *Alloc:
		if e.Array {
			return "[]"
		}
		return "{}"
	case *Argument:
		if i, ok := ArgIndex(e); ok {
			return "arg" + strconv.Itoa(i)
		}
		return "arguments[" + exprString(e.Index, true) + "]"
	case *Field:
		obj := operandString(e.Obj)
		if c, ok := e.Name.(*Const); ok && c.Value.Kind() == value.KindString && identPattern.MatchString(c.Value.AsString()) {
			return obj + "." + c.Value.AsString()
		}
		return obj + "[" + exprString(e.Name, true) + "]"
	case *Binary:
		var body string
		if c, ok := e.B.(*Const); ok && e.Op == OpAdd && c.Value.Kind() == value.KindNumber && c.Value.AsNumber() < 0 {
			body = exprString(e.A, false) + " - " + value.FormatNumber(-c.Value.AsNumber())
		} else {
			body = exprString(e.A, false) + " " + string(e.Op) + " " + exprString(e.B, false)
		}
		if top {
			return body
		}
		return "(" + body + ")"
	case *Unary:
		return string(e.Op) + exprString(e.E, false)
	default:
		panic(fault.Invariantf("unknown expression %T", e))
	}
}

// operandString prints the object of a field access or call target
func operandString(e Expr) string {
	switch e := e.(type) {
	case *Binary:
		return exprString(e, false)
	case *Unary:
		return "(" + exprString(e, true) + ")"
	case *Const:
		if e.Value.Kind() == value.KindNumber {
			return "(" + exprString(e, true) + ")"
		}
	}
	return exprString(e, true)
}

func constString(v value.Value) string {
	if v.Kind() == value.KindString {
		return strconv.Quote(v.AsString())
	}
	return v.ToString()
}

// StmtString prints a statement at zero indentation
func StmtString(s Stmt) string {
	var lines []string
	writeStmt(&lines, s, "")
	return strings.Join(lines, "\n")
}

func writeStmt(lines *[]string, s Stmt, indent string) {
	emit := func(line string) { *lines = append(*lines, indent+line) }
	switch s := s.(type) {
	case *Seq:
		for _, c := range s.Stmts {
			writeStmt(lines, c, indent)
		}
	case *Assign:
		line := exprString(s.LHS, true)
		if s.Decl {
			line = "var " + line
		}
		if s.RHS != nil {
			line += " = " + exprString(s.RHS, true)
		}
		emit(line)
	case *Return:
		emit("return " + exprString(s.Value, true))
	case *Throw:
		emit("throw " + exprString(s.Value, true))
	case *DeleteProp:
		emit("delete " + exprString(NewField(s.Obj, s.Name), true))
	case *DefineProp:
		emit("Object.defineProperty(" + exprString(s.Obj, true) + ", " + exprString(s.Name, true) +
			", {value: " + exprString(s.Value, true) + "})")
	case *If:
		emit("if (" + exprString(s.Cond, true) + ") {")
		writeStmt(lines, s.Then, indent+indentUnit)
		emit("} else {")
		writeStmt(lines, s.Else, indent+indentUnit)
		emit("}")
	case *For:
		v := s.Var.Name
		emit("for (var " + v + " = " + exprString(s.Start, true) + "; " + v + " < " + exprString(s.End, true) +
			"; " + v + " += " + exprString(s.Step, true) + ") {")
		writeStmt(lines, s.Body, indent+indentUnit)
		emit("}")
	case *FuncCall:
		recv := "global"
		if s.Receiver != nil {
			recv = exprString(s.Receiver, true)
		}
		args := make([]string, len(s.Args))
		for i, a := range s.Args {
			args[i] = exprString(a, true)
		}
		line := s.Result.Name + " = " + operandString(s.Target) + ".apply(" + recv + ", [" + strings.Join(args, ", ") + "])"
		if s.Decl {
			line = "var " + line
		}
		emit(line)
	case *Break:
		emit("break")
	default:
		panic(fault.Invariantf("unknown statement %T", s))
	}
}
