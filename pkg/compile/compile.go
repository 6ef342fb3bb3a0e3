/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: compile.go
Description: Program compilation for the Mimic synthesis engine. A candidate is compiled from
its printed text so every scored program is guaranteed to survive the print/parse round trip.
*/

package compile

import (
	"github.com/kleascm/akaylee-mimic/pkg/fault"
	"github.com/kleascm/akaylee-mimic/pkg/interp"
	"github.com/kleascm/akaylee-mimic/pkg/ir"
	"github.com/kleascm/akaylee-mimic/pkg/value"
)

// Compile turns p into a target function through its text form
// A text that does not parse is a *fault.CompileError carrying the program text.
func Compile(p *ir.Program) (value.Function, error) {
	src := p.String()
	parsed, err := ir.Parse(src)
	if err != nil {
		return nil, &fault.CompileError{Program: src, Err: err}
	}
	return interp.Function(parsed), nil
}
