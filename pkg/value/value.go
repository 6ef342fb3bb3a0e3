/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: value.go
Description: Tagged value representation for the Mimic synthesis engine. A Value is either a
primitive (undefined, null, boolean, number, string) or a reference into a shadow heap.
Provides JavaScript-style conversions used by the interpreter and the built-in targets.
*/

package value

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindRef
)

// Ref is an opaque identity token for a heap object
// The zero Ref never names an object.
type Ref uint32

// Value is a primitive or a reference into a Heap
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	ref  Ref
}

// Undefined returns the undefined primitive
func Undefined() Value { return Value{kind: KindUndefined} }

// Null returns the null primitive
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float64
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Int is a convenience for integral numbers
func Int(n int) Value { return Number(float64(n)) }

// String wraps a string
func String(s string) Value { return Value{kind: KindString, s: s} }

// Reference wraps a heap reference
func Reference(r Ref) Value { return Value{kind: KindRef, ref: r} }

// Kind returns the variant tag
func (v Value) Kind() Kind { return v.kind }

// IsPrimitive reports whether v is not a reference
func (v Value) IsPrimitive() bool { return v.kind != KindRef }

// IsNullish reports whether v is null or undefined
func (v Value) IsNullish() bool { return v.kind == KindUndefined || v.kind == KindNull }

// AsBool returns the boolean payload
func (v Value) AsBool() bool { return v.b }

// AsNumber returns the numeric payload
func (v Value) AsNumber() float64 { return v.n }

// AsString returns the string payload
func (v Value) AsString() string { return v.s }

// AsRef returns the reference payload
func (v Value) AsRef() Ref { return v.ref }

// StrictEquals implements ===, NaN is not equal to itself
func (v Value) StrictEquals(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	default:
		return v.ref == o.ref
	}
}

// SameValue is StrictEquals except that NaN equals NaN
func (v Value) SameValue(o Value) bool {
	if v.kind == KindNumber && o.kind == KindNumber && math.IsNaN(v.n) && math.IsNaN(o.n) {
		return true
	}
	return v.StrictEquals(o)
}

// Truthy implements ToBoolean
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n != 0 && !math.IsNaN(v.n)
	case KindString:
		return v.s != ""
	case KindRef:
		return true
	default:
		return false
	}
}

// TypeOf returns the typeof name of a primitive
// References report "object"; use Heap.TypeOf to tell functions apart.
func (v Value) TypeOf() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "object"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "object"
	}
}

// ToNumber implements the numeric conversion of primitives
func (v Value) ToNumber() float64 {
	switch v.kind {
	case KindNull:
		return 0
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindNumber:
		return v.n
	case KindString:
		s := strings.TrimSpace(v.s)
		if s == "" {
			return 0
		}
		switch s {
		case "Infinity", "+Infinity":
			return math.Inf(1)
		case "-Infinity":
			return math.Inf(-1)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// ToString implements the string conversion of primitives
func (v Value) ToString() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return FormatNumber(v.n)
	case KindString:
		return v.s
	default:
		return "[object Object]"
	}
}

// String renders the value as a literal: strings quoted, references by token
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.s)
	case KindRef:
		return "#" + strconv.FormatUint(uint64(v.ref), 10)
	default:
		return v.ToString()
	}
}

// FormatNumber prints a number the way a JavaScript engine would
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// ArrayIndex reports whether key is a canonical array index
func ArrayIndex(key string) (int, bool) {
	if key == "" || len(key) > 10 {
		return 0, false
	}
	if key != "0" && key[0] == '0' {
		return 0, false
	}
	n, err := strconv.Atoi(key)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// PropertyKey converts a primitive to the string key used for property access
func PropertyKey(v Value) string {
	return v.ToString()
}

// LooseEquals implements == for primitives and references
func LooseEquals(a, b Value) bool {
	if a.kind == b.kind {
		return a.StrictEquals(b)
	}
	if a.IsNullish() && b.IsNullish() {
		return true
	}
	if a.IsNullish() || b.IsNullish() || a.kind == KindRef || b.kind == KindRef {
		return false
	}
	return a.ToNumber() == b.ToNumber()
}

// Add implements the + operator on primitives
func Add(a, b Value) Value {
	if a.kind == KindString || b.kind == KindString || a.kind == KindRef || b.kind == KindRef {
		return String(a.ToString() + b.ToString())
	}
	return Number(a.ToNumber() + b.ToNumber())
}

// Less implements the < operator on primitives
func Less(a, b Value) bool {
	if a.kind == KindString && b.kind == KindString {
		return a.s < b.s
	}
	x, y := a.ToNumber(), b.ToNumber()
	return x < y
}
