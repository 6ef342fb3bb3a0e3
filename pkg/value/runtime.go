/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: runtime.go
Description: Host capability handed to black-box targets and compiled candidates. Every
heap operation a function performs goes through a Runtime so that the recorder can observe
operations on values that crossed the call boundary.
*/

package value

// Runtime is the host a Function executes against
// Implementations must return errors from every operation unchanged to the caller.
type Runtime interface {
	Get(obj, key Value) (Value, error)
	Set(obj, key, val Value) error
	Delete(obj, key Value) error
	Define(obj, key, val Value) error
	Call(fn, this Value, args []Value) (Value, error)

	// Alloc creates a fresh object or array owned by the function
	Alloc(array bool) Value
	// Tick charges one unit of work, used by loops
	Tick() error

	TypeOf(v Value) string
	IsArray(v Value) bool
}

// Function is the calling convention shared by targets and compiled programs
type Function func(rt Runtime, args []Value) (Value, error)

// Arg returns args[i] or undefined when i is out of range
func Arg(args []Value, i int) Value {
	if i < 0 || i >= len(args) {
		return Undefined()
	}
	return args[i]
}

// ToLength clamps a length-like value to a non-negative integer
func ToLength(v Value) int {
	n := v.ToNumber()
	if n != n || n <= 0 {
		return 0
	}
	if n > 1<<31 {
		return 1 << 31
	}
	return int(n)
}
