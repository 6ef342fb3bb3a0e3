/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: recorder.go
Description: Trace recorder for the Mimic synthesis engine. Acts as the Runtime of one call:
operations on references that crossed the call boundary are recorded as events with aliasing
information, everything else runs directly against the cloned heap.
*/

package recorder

import (
	"errors"
	"strconv"

	"github.com/kleascm/akaylee-mimic/pkg/fault"
	"github.com/kleascm/akaylee-mimic/pkg/ir"
	"github.com/kleascm/akaylee-mimic/pkg/value"
)

// aliases are the expressions known to denote one tracked reference
type aliases struct {
	pre []ir.Expr
	cur []ir.Expr
}

// recording is the state of a single Record call
type recording struct {
	heap      *value.Heap
	budget    int
	trace     *ir.Trace
	active    bool
	exhausted bool
	ticks     int
	nextVar   int
	tracked   map[value.Ref]*aliases
}

// Record runs f on a clone of in and returns the observed trace
// Budget exhaustion and target faults become the trace outcome; only invariant and
// compile errors are returned.
func Record(f value.Function, in *value.Input, budget int) (*ir.Trace, error) {
	clone := in.Clone()
	r := &recording{
		heap:    clone.Heap,
		budget:  budget,
		trace:   &ir.Trace{},
		tracked: make(map[value.Ref]*aliases),
	}
	for i, arg := range clone.Args {
		e := ir.Arg(i)
		r.trace.Prestates = append(r.trace.Prestates, e)
		if !arg.IsPrimitive() {
			a := r.track(arg)
			a.pre = append(a.pre, e)
			a.cur = append(a.cur, e)
		}
	}

	r.active = true
	res, err := f(r, clone.Args)
	r.active = false
	return r.finish(res, err)
}

func (r *recording) finish(res value.Value, err error) (*ir.Trace, error) {
	switch {
	case r.exhausted || errors.Is(err, fault.ErrBudgetExhausted):
		r.trace.Outcome = ir.Outcome{Kind: ir.BudgetExhausted}
	case err != nil:
		msg, ok := fault.Message(err)
		if !ok {
			return nil, err
		}
		r.trace.Outcome = ir.Outcome{Kind: ir.ExceptionReturn, Value: r.texpr(msg)}
	default:
		r.trace.Outcome = ir.Outcome{Kind: ir.NormalReturn, Value: r.texpr(res)}
	}
	return r.trace, nil
}

func (r *recording) track(v value.Value) *aliases {
	a, ok := r.tracked[v.AsRef()]
	if !ok {
		a = &aliases{}
		r.tracked[v.AsRef()] = a
	}
	return a
}

// recorded reports whether operations on v are observed right now
func (r *recording) recorded(v value.Value) bool {
	if !r.active || v.IsPrimitive() {
		return false
	}
	_, ok := r.tracked[v.AsRef()]
	return ok
}

// suspend turns interception off until the returned function runs
func (r *recording) suspend() func() {
	prev := r.active
	r.active = false
	return func() { r.active = prev }
}

func (r *recording) freshVar() *ir.Var {
	v := ir.NewVar("n" + strconv.Itoa(r.nextVar))
	r.nextVar++
	return v
}

func (r *recording) record(ev *ir.Event) error {
	if r.exhausted {
		return fault.ErrBudgetExhausted
	}
	r.trace.Events = append(r.trace.Events, ev)
	if len(r.trace.Events) > r.budget {
		r.exhausted = true
		return fault.ErrBudgetExhausted
	}
	return nil
}

// texpr resolves the TraceExpr denoting v at this point of the trace
func (r *recording) texpr(v value.Value) *ir.TraceExpr {
	if v.IsPrimitive() {
		c := ir.NewConst(v)
		r.trace.Constants = append(r.trace.Constants, c)
		return ir.NewTraceConst(c)
	}
	if a, ok := r.tracked[v.AsRef()]; ok && len(a.pre) > 0 && len(a.cur) > 0 {
		return ir.NewTraceExpr(a.pre, a.cur)
	}
	return r.snapshot(v)
}

func (r *recording) snapshot(v value.Value) *ir.TraceExpr {
	obj := r.heap.Object(v)
	if obj == nil {
		return ir.NewTraceAlloc(false, nil)
	}
	fields := make(map[string]string)
	for _, key := range obj.Keys() {
		field := obj.Get(key)
		if field.IsPrimitive() {
			fields[key] = field.String()
		} else {
			fields[key] = "<" + r.heap.TypeOf(field) + ">"
		}
	}
	if obj.Kind == value.ObjectArray {
		fields["length"] = strconv.Itoa(obj.Length())
	}
	return ir.NewTraceAlloc(obj.Kind == value.ObjectArray, fields)
}

// keyExpr is the constant naming a property: numbers for array indices, strings otherwise
func (r *recording) keyExpr(obj *value.Object, key string) *ir.TraceExpr {
	if obj.Kind == value.ObjectArray {
		if idx, ok := value.ArrayIndex(key); ok {
			return r.texpr(value.Int(idx))
		}
	}
	return r.texpr(value.String(key))
}

// addPreState registers field prestates of a get result
func (r *recording) addPreState(v value.Value, exprs []ir.Expr) {
	r.trace.Prestates = append(r.trace.Prestates, exprs...)
	if v.IsPrimitive() {
		return
	}
	a := r.track(v)
	a.pre = append(a.pre, exprs...)
}

func (r *recording) addCurState(v value.Value, e ir.Expr) {
	if v.IsPrimitive() {
		return
	}
	a := r.track(v)
	a.cur = append(a.cur, e)
}

func (r *recording) object(obj value.Value, key value.Value, verb string) (*value.Object, string, error) {
	k := value.PropertyKey(key)
	if obj.IsNullish() {
		return nil, k, fault.TypeErrorf("Cannot %s property '%s' of %s", verb, k, obj.ToString())
	}
	return r.heap.Object(obj), k, nil
}

// Get reads obj[key]
func (r *recording) Get(obj, key value.Value) (value.Value, error) {
	o, k, err := r.object(obj, key, "read")
	if err != nil {
		return value.Undefined(), err
	}
	if o == nil {
		return primitiveGet(obj, k), nil
	}
	val := o.Get(k)
	if !r.recorded(obj) {
		return val, nil
	}

	target := r.texpr(obj)
	name := r.keyExpr(o, k)
	ev := &ir.Event{Kind: ir.EventGet, Target: target, Name: name, Variable: r.freshVar()}
	if err := r.record(ev); err != nil {
		return value.Undefined(), err
	}
	pre := make([]ir.Expr, len(target.PreState))
	for i, p := range target.PreState {
		pre[i] = ir.NewField(p, name.Const())
	}
	r.addPreState(val, pre)
	r.addCurState(val, ev.Variable)
	return val, nil
}

func primitiveGet(obj value.Value, key string) value.Value {
	if obj.Kind() != value.KindString {
		return value.Undefined()
	}
	s := obj.AsString()
	if key == "length" {
		return value.Int(len(s))
	}
	if idx, ok := value.ArrayIndex(key); ok && idx < len(s) {
		return value.String(s[idx : idx+1])
	}
	return value.Undefined()
}

// Set writes obj[key] = val
func (r *recording) Set(obj, key, val value.Value) error {
	return r.write(obj, key, val, "set")
}

// Define defines obj[key]; observed like a write
func (r *recording) Define(obj, key, val value.Value) error {
	return r.write(obj, key, val, "define")
}

func (r *recording) write(obj, key, val value.Value, verb string) error {
	o, k, err := r.object(obj, key, verb)
	if err != nil {
		return err
	}
	if o == nil {
		return nil
	}
	if r.recorded(obj) {
		ev := &ir.Event{Kind: ir.EventSet, Target: r.texpr(obj), Name: r.keyExpr(o, k), Value: r.texpr(val)}
		if err := r.record(ev); err != nil {
			return err
		}
	}
	if err := o.Set(k, val); err != nil {
		return fault.RangeErrorf("%s", err.Error())
	}
	return nil
}

// Delete removes obj[key]
func (r *recording) Delete(obj, key value.Value) error {
	o, k, err := r.object(obj, key, "delete")
	if err != nil {
		return err
	}
	if o == nil {
		return nil
	}
	if r.recorded(obj) {
		ev := &ir.Event{Kind: ir.EventDelete, Target: r.texpr(obj), Name: r.keyExpr(o, k)}
		if err := r.record(ev); err != nil {
			return err
		}
	}
	if !o.Delete(k) {
		return fault.TypeErrorf("Cannot delete property '%s' of %s", k, r.heap.Describe(obj))
	}
	return nil
}

// Call invokes fn with this and args
// Calls on recorded functions are observed; the callee itself runs unobserved.
func (r *recording) Call(fn, this value.Value, args []value.Value) (value.Value, error) {
	o := r.heap.Object(fn)
	if o == nil || o.Kind != value.ObjectFunction {
		return value.Undefined(), fault.TypeErrorf("%s is not a function", fn.ToString())
	}
	if !r.recorded(fn) {
		return o.Native(r, this, args)
	}

	ev := &ir.Event{Kind: ir.EventApply, Target: r.texpr(fn), Variable: r.freshVar()}
	if !this.IsNullish() {
		ev.Receiver = r.texpr(this)
	}
	ev.Args = make([]*ir.TraceExpr, len(args))
	for i, a := range args {
		ev.Args[i] = r.texpr(a)
	}
	if err := r.record(ev); err != nil {
		return value.Undefined(), err
	}

	res, err := r.callSuspended(o, this, args)
	if err != nil {
		return value.Undefined(), err
	}
	if r.recorded(res) {
		r.addCurState(res, ev.Variable)
	}
	return res, nil
}

func (r *recording) callSuspended(o *value.Object, this value.Value, args []value.Value) (value.Value, error) {
	restore := r.suspend()
	defer restore()
	return o.Native(r, this, args)
}

// Alloc creates an unobserved object owned by the running function
func (r *recording) Alloc(array bool) value.Value {
	if array {
		return r.heap.NewArray()
	}
	return r.heap.NewObject()
}

// Tick charges one loop iteration against the budget
func (r *recording) Tick() error {
	if r.exhausted {
		return fault.ErrBudgetExhausted
	}
	r.ticks++
	if r.ticks > r.budget {
		r.exhausted = true
		return fault.ErrBudgetExhausted
	}
	return nil
}

// TypeOf reports the typeof name of v
func (r *recording) TypeOf(v value.Value) string {
	return r.heap.TypeOf(v)
}

// IsArray reports whether v is an array
func (r *recording) IsArray(v value.Value) bool {
	return r.heap.IsArray(v)
}
