/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: input.go
Description: Argument vectors for the Mimic synthesis engine. An Input owns its heap so
that every recording works on an independent clone. Supports structural comparison,
deterministic rendering and parsing from YAML/JSON flow literals.
*/

package value

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Input is one argument vector together with the heap its references live in
type Input struct {
	Heap *Heap
	Args []Value
}

// NewInput creates an empty input with a fresh heap
func NewInput() *Input {
	return &Input{Heap: NewHeap()}
}

// Clone deep-copies the heap and the argument list
func (in *Input) Clone() *Input {
	return &Input{
		Heap: in.Heap.Clone(),
		Args: append([]Value(nil), in.Args...),
	}
}

// Equal reports structural equality of two inputs
func (in *Input) Equal(other *Input) bool {
	if len(in.Args) != len(other.Args) {
		return false
	}
	seen := make(map[[2]Ref]bool)
	for i := range in.Args {
		if !structEqual(in.Heap, in.Args[i], other.Heap, other.Args[i], seen) {
			return false
		}
	}
	return true
}

// StructEqual compares two values that may live in different heaps
func StructEqual(ha *Heap, a Value, hb *Heap, b Value) bool {
	return structEqual(ha, a, hb, b, make(map[[2]Ref]bool))
}

func structEqual(ha *Heap, a Value, hb *Heap, b Value, seen map[[2]Ref]bool) bool {
	if a.kind != b.kind {
		return false
	}
	if a.kind != KindRef {
		return a.SameValue(b)
	}
	pair := [2]Ref{a.ref, b.ref}
	if seen[pair] {
		return true
	}
	seen[pair] = true

	oa, ob := ha.Object(a), hb.Object(b)
	if oa == nil || ob == nil {
		return oa == ob
	}
	if oa.Kind != ob.Kind || oa.length != ob.length || oa.Name != ob.Name {
		return false
	}
	ka, kb := oa.Keys(), ob.Keys()
	if len(ka) != len(kb) {
		return false
	}
	for i, key := range ka {
		if kb[i] != key {
			return false
		}
		if !structEqual(ha, oa.props[key], hb, ob.props[key], seen) {
			return false
		}
	}
	return true
}

// String renders the argument list, e.g. ["a", "b"], 2
func (in *Input) String() string {
	parts := make([]string, len(in.Args))
	for i, arg := range in.Args {
		parts[i] = in.Heap.Describe(arg)
	}
	return strings.Join(parts, ", ")
}

// Describe renders a value with its heap contents
func (h *Heap) Describe(v Value) string {
	var b strings.Builder
	h.describe(&b, v, make(map[Ref]bool))
	return b.String()
}

func (h *Heap) describe(b *strings.Builder, v Value, visiting map[Ref]bool) {
	obj := h.Object(v)
	if obj == nil {
		b.WriteString(v.String())
		return
	}
	if visiting[v.ref] {
		b.WriteString("<cycle>")
		return
	}
	visiting[v.ref] = true
	defer delete(visiting, v.ref)

	switch obj.Kind {
	case ObjectFunction:
		b.WriteString("function " + obj.Name)
	case ObjectArray:
		b.WriteString("[")
		for i := 0; i < obj.length; i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			if e, ok := obj.props[strconv.Itoa(i)]; ok {
				h.describe(b, e, visiting)
			}
		}
		b.WriteString("]")
	default:
		b.WriteString("{")
		for i, key := range obj.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(key + ": ")
			h.describe(b, obj.props[key], visiting)
		}
		b.WriteString("}")
	}
}

// ParseInput builds an input from a YAML or JSON sequence literal
// Each element of the top-level sequence becomes one argument.
func ParseInput(literal string) (*Input, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(literal), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse input literal: %w", err)
	}
	in := NewInput()
	if len(doc.Content) == 0 {
		return in, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("input literal must be a sequence of arguments, got %s", root.Tag)
	}
	for _, node := range root.Content {
		v, err := in.Heap.fromNode(node)
		if err != nil {
			return nil, err
		}
		in.Args = append(in.Args, v)
	}
	return in, nil
}

func (h *Heap) fromNode(node *yaml.Node) (Value, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return h.fromNode(node.Alias)
	case yaml.SequenceNode:
		elems := make([]Value, 0, len(node.Content))
		for _, child := range node.Content {
			e, err := h.fromNode(child)
			if err != nil {
				return Undefined(), err
			}
			elems = append(elems, e)
		}
		return h.NewArray(elems...), nil
	case yaml.MappingNode:
		obj := h.NewObject()
		for i := 0; i+1 < len(node.Content); i += 2 {
			v, err := h.fromNode(node.Content[i+1])
			if err != nil {
				return Undefined(), err
			}
			if err := h.Object(obj).Set(node.Content[i].Value, v); err != nil {
				return Undefined(), err
			}
		}
		return obj, nil
	case yaml.ScalarNode:
		return scalarValue(node)
	default:
		return Undefined(), fmt.Errorf("unsupported input node at line %d", node.Line)
	}
}

func scalarValue(node *yaml.Node) (Value, error) {
	switch node.Tag {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return Undefined(), fmt.Errorf("invalid boolean %q: %w", node.Value, err)
		}
		return Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return Undefined(), fmt.Errorf("invalid number %q: %w", node.Value, err)
		}
		return Number(f), nil
	default:
		if node.Value == "undefined" && node.Style == 0 {
			return Undefined(), nil
		}
		return String(node.Value), nil
	}
}
