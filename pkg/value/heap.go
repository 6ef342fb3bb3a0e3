/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: heap.go
Description: Shadow heap for the Mimic synthesis engine. Maps reference identities to plain
objects, arrays and native functions. Arrays follow JavaScript length semantics: index
writes grow the array and length writes truncate it.
*/

package value

import (
	"errors"
	"math"
	"sort"
	"strconv"
)

// ErrInvalidArrayLength is returned when length is set to a non-integral or negative value
var ErrInvalidArrayLength = errors.New("Invalid array length")

// ObjectKind distinguishes the heap object variants
type ObjectKind uint8

const (
	ObjectPlain ObjectKind = iota
	ObjectArray
	ObjectFunction
)

// NativeFunc is the Go implementation behind a function object
type NativeFunc func(rt Runtime, this Value, args []Value) (Value, error)

// Object is one heap cell
type Object struct {
	Kind   ObjectKind
	Name   string     // Function name, informational only
	Native NativeFunc // Set for ObjectFunction

	props  map[string]Value
	order  []string // Insertion order of non-index keys
	length int      // Arrays only
}

// Heap owns every object reachable from one argument vector
type Heap struct {
	objects []*Object
}

// NewHeap creates an empty heap
func NewHeap() *Heap {
	return &Heap{}
}

func (h *Heap) alloc(obj *Object) Value {
	obj.props = make(map[string]Value)
	h.objects = append(h.objects, obj)
	return Reference(Ref(len(h.objects)))
}

// NewObject allocates an empty plain object
func (h *Heap) NewObject() Value {
	return h.alloc(&Object{Kind: ObjectPlain})
}

// NewArray allocates an array holding elems
func (h *Heap) NewArray(elems ...Value) Value {
	v := h.alloc(&Object{Kind: ObjectArray})
	obj := h.objects[len(h.objects)-1]
	for i, e := range elems {
		obj.props[strconv.Itoa(i)] = e
	}
	obj.length = len(elems)
	return v
}

// NewFunction allocates a function object backed by fn
func (h *Heap) NewFunction(name string, fn NativeFunc) Value {
	return h.alloc(&Object{Kind: ObjectFunction, Name: name, Native: fn})
}

// Object resolves a reference, nil when v is not a live reference
func (h *Heap) Object(v Value) *Object {
	if v.kind != KindRef || v.ref == 0 || int(v.ref) > len(h.objects) {
		return nil
	}
	return h.objects[v.ref-1]
}

// TypeOf returns the typeof name of v
func (h *Heap) TypeOf(v Value) string {
	if obj := h.Object(v); obj != nil && obj.Kind == ObjectFunction {
		return "function"
	}
	return v.TypeOf()
}

// IsArray reports whether v references an array
func (h *Heap) IsArray(v Value) bool {
	obj := h.Object(v)
	return obj != nil && obj.Kind == ObjectArray
}

// Len returns the number of objects allocated so far
func (h *Heap) Len() int {
	return len(h.objects)
}

// Has reports whether key is an own property of the object
func (o *Object) Has(key string) bool {
	if o.Kind == ObjectArray && key == "length" {
		return true
	}
	_, ok := o.props[key]
	return ok
}

// Get reads an own property, undefined when absent
func (o *Object) Get(key string) Value {
	if o.Kind == ObjectArray && key == "length" {
		return Int(o.length)
	}
	if v, ok := o.props[key]; ok {
		return v
	}
	return Undefined()
}

// Length returns the array length, or zero for other objects
func (o *Object) Length() int {
	return o.length
}

// Set writes an own property
func (o *Object) Set(key string, v Value) error {
	if o.Kind == ObjectArray {
		if key == "length" {
			return o.setLength(v)
		}
		if idx, ok := ArrayIndex(key); ok {
			o.props[key] = v
			if idx >= o.length {
				o.length = idx + 1
			}
			return nil
		}
	}
	if _, ok := o.props[key]; !ok {
		if _, isIndex := ArrayIndex(key); !isIndex {
			o.order = append(o.order, key)
		}
	}
	o.props[key] = v
	return nil
}

func (o *Object) setLength(v Value) error {
	n := v.ToNumber()
	if v.kind == KindRef || n < 0 || n != math.Trunc(n) || n > math.MaxInt32 {
		return ErrInvalidArrayLength
	}
	newLen := int(n)
	for key := range o.props {
		if idx, ok := ArrayIndex(key); ok && idx >= newLen {
			delete(o.props, key)
		}
	}
	o.length = newLen
	return nil
}

// Delete removes an own property, false when it cannot be removed
func (o *Object) Delete(key string) bool {
	if o.Kind == ObjectArray && key == "length" {
		return false
	}
	if _, ok := o.props[key]; !ok {
		return true
	}
	delete(o.props, key)
	for i, k := range o.order {
		if k == key {
			o.order = append(o.order[:i:i], o.order[i+1:]...)
			break
		}
	}
	return true
}

// Keys lists own keys: indices ascending, then other keys in insertion order
func (o *Object) Keys() []string {
	var indices []int
	for key := range o.props {
		if idx, ok := ArrayIndex(key); ok {
			indices = append(indices, idx)
		}
	}
	sort.Ints(indices)
	keys := make([]string, 0, len(o.props)+1)
	for _, idx := range indices {
		keys = append(keys, strconv.Itoa(idx))
	}
	keys = append(keys, o.order...)
	return keys
}

func (o *Object) clone() *Object {
	c := &Object{
		Kind:   o.Kind,
		Name:   o.Name,
		Native: o.Native,
		props:  make(map[string]Value, len(o.props)),
		order:  append([]string(nil), o.order...),
		length: o.length,
	}
	for k, v := range o.props {
		c.props[k] = v
	}
	return c
}

// Clone deep-copies the heap, reference identities are preserved
func (h *Heap) Clone() *Heap {
	c := &Heap{objects: make([]*Object, len(h.objects))}
	for i, obj := range h.objects {
		c.objects[i] = obj.clone()
	}
	return c
}
