/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: fault.go
Description: Error taxonomy for the Mimic synthesis engine. Budget exhaustion and target
faults are recoverable and become trace outcomes; invariant violations and malformed
candidate programs are fatal and propagate to the caller unchanged.
*/

package fault

import (
	"errors"
	"fmt"

	"github.com/kleascm/akaylee-mimic/pkg/value"
)

// ErrBudgetExhausted signals that a recording ran past its event budget
var ErrBudgetExhausted = errors.New("computational budget exhausted")

// Thrown carries a value thrown by a target or candidate
type Thrown struct {
	Value value.Value
}

func (t *Thrown) Error() string {
	return "uncaught exception: " + t.Value.String()
}

// RuntimeError is a fault raised by the runtime itself, e.g. reading a field of undefined
type RuntimeError struct {
	Name    string // TypeError, ReferenceError, RangeError
	Message string
}

func (e *RuntimeError) Error() string {
	return e.Name + ": " + e.Message
}

// TypeErrorf builds a TypeError
func TypeErrorf(format string, args ...interface{}) error {
	return &RuntimeError{Name: "TypeError", Message: fmt.Sprintf(format, args...)}
}

// ReferenceErrorf builds a ReferenceError
func ReferenceErrorf(format string, args ...interface{}) error {
	return &RuntimeError{Name: "ReferenceError", Message: fmt.Sprintf(format, args...)}
}

// RangeErrorf builds a RangeError
func RangeErrorf(format string, args ...interface{}) error {
	return &RuntimeError{Name: "RangeError", Message: fmt.Sprintf(format, args...)}
}

// InvariantError reports an internal consistency failure
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return "invariant violation: " + e.Message
}

// Invariantf builds an InvariantError
func Invariantf(format string, args ...interface{}) error {
	return &InvariantError{Message: fmt.Sprintf(format, args...)}
}

// CompileError reports a candidate program whose text could not be parsed
type CompileError struct {
	Program string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile candidate program: %v\n%s", e.Err, e.Program)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err must abort the search
func IsFatal(err error) bool {
	var inv *InvariantError
	var ce *CompileError
	return errors.As(err, &inv) || errors.As(err, &ce)
}

// Message extracts the traced value of a recoverable target fault
// ok is false for errors that are not target faults.
func Message(err error) (v value.Value, ok bool) {
	var thrown *Thrown
	if errors.As(err, &thrown) {
		return thrown.Value, true
	}
	var rte *RuntimeError
	if errors.As(err, &rte) {
		return value.String(rte.Message), true
	}
	return value.Undefined(), false
}
