package vm

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/funvibe/xcvm/internal/check"
	"github.com/funvibe/xcvm/internal/tensor"
)

// Kind identifies which variant a register value holds
type Kind uint8

const (
	KindArray Kind = iota
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindArray:
		return "Array"
	case KindSequence:
		return "Sequence"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// SigilOf returns the character prefixed to registers of kind k in
// disassembly and traces.
func SigilOf(k Kind) byte {
	switch k {
	case KindArray:
		return '@'
	case KindSequence:
		return '$'
	}
	check.Unreachable(func(s *check.Sink) { s.Add(uint8(k)) })
	return 0
}

// Value is the content of one register. It is a closed sum:
// *ArrayValue or *SequenceValue.
type Value interface {
	Kind() Kind
	Sigil() byte
	// TotalSize is the number of bytes held by the value's arrays.
	TotalSize() uint64
	// String summarizes shapes only and is safe for routine logging.
	String() string
	// DebugString renders full array contents.
	DebugString() string

	sealed()
}

// ArrayValue holds exactly one array.
type ArrayValue struct {
	arr tensor.Array
}

// SequenceValue holds an ordered list of slots. A nil slot is absent.
type SequenceValue struct {
	elems []tensor.Array
}

// Constructors

// FromKind returns an empty value of kind k. Array values always carry
// data, so k must not be KindArray.
func FromKind(k Kind) Value {
	check.True(k != KindArray, "kind != Array", func(s *check.Sink) { s.Add(uint8(k)) })
	switch k {
	case KindSequence:
		return &SequenceValue{}
	}
	check.Unreachable(func(s *check.Sink) { s.Add(uint8(k)) })
	return nil
}

// FromArray wraps a. The array is shared, not copied. A nil interface
// and a typed nil pointer are both rejected.
func FromArray(a tensor.Array) *ArrayValue {
	check.True(!isNilArray(a), "array != nil")
	return &ArrayValue{arr: a}
}

func isNilArray(a tensor.Array) bool {
	if a == nil {
		return true
	}
	switch rv := reflect.ValueOf(a); rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// NewSequence returns an empty sequence value.
func NewSequence() *SequenceValue {
	return &SequenceValue{}
}

// Accessors

// AsArray returns the array held by v. v must be an array value.
func AsArray(v Value) tensor.Array {
	av, ok := v.(*ArrayValue)
	if !ok {
		check.Fail("kind == Array").Add(kindOf(v)).Abort()
	}
	return av.arr
}

// AsSequence returns v's sequence for in-place updates. v must be a
// sequence value.
func AsSequence(v Value) *SequenceValue {
	sv, ok := v.(*SequenceValue)
	if !ok {
		check.Fail("kind == Sequence").Add(kindOf(v)).Abort()
	}
	return sv
}

// kindOf reports the numeric kind for diagnostics; nil values report -1.
func kindOf(v Value) int {
	if v == nil {
		return -1
	}
	return int(v.Kind())
}

func (v *ArrayValue) Kind() Kind          { return KindArray }
func (v *ArrayValue) Sigil() byte         { return SigilOf(KindArray) }
func (v *ArrayValue) TotalSize() uint64   { return v.arr.NumBytes() }
func (v *ArrayValue) String() string      { return v.arr.ShapeString() }
func (v *ArrayValue) DebugString() string { return v.arr.ContentsString() }
func (v *ArrayValue) sealed()             {}

// Array returns the wrapped array.
func (v *ArrayValue) Array() tensor.Array { return v.arr }

func (v *SequenceValue) Kind() Kind  { return KindSequence }
func (v *SequenceValue) Sigil() byte { return SigilOf(KindSequence) }
func (v *SequenceValue) sealed()     {}

func (v *SequenceValue) TotalSize() uint64 {
	var size uint64
	for _, a := range v.elems {
		if a != nil {
			size += a.NumBytes()
		}
	}
	return size
}

func (v *SequenceValue) String() string {
	return v.render(tensor.Array.ShapeString)
}

func (v *SequenceValue) DebugString() string {
	return v.render(tensor.Array.ContentsString)
}

func (v *SequenceValue) render(elem func(tensor.Array) string) string {
	parts := make([]string, len(v.elems))
	for i, a := range v.elems {
		if a == nil {
			parts[i] = "(null)"
		} else {
			parts[i] = elem(a)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Sequence operations

// Len returns the number of slots, absent ones included.
func (v *SequenceValue) Len() int {
	return len(v.elems)
}

// At returns slot i and whether it holds an array.
func (v *SequenceValue) At(i int) (tensor.Array, bool) {
	v.checkIndex(i)
	a := v.elems[i]
	return a, a != nil
}

// Append adds a slot. A nil array, typed or not, appends an absent slot.
func (v *SequenceValue) Append(a tensor.Array) {
	if isNilArray(a) {
		a = nil
	}
	v.elems = append(v.elems, a)
}

// AppendAbsent adds an absent slot.
func (v *SequenceValue) AppendAbsent() {
	v.elems = append(v.elems, nil)
}

// Set overwrites slot i; nil makes it absent.
func (v *SequenceValue) Set(i int, a tensor.Array) {
	v.checkIndex(i)
	if isNilArray(a) {
		a = nil
	}
	v.elems[i] = a
}

// Pop removes and returns the last slot.
func (v *SequenceValue) Pop() tensor.Array {
	check.GT(len(v.elems), 0, func(s *check.Sink) { s.Add(" pop from empty sequence") })
	last := len(v.elems) - 1
	a := v.elems[last]
	v.elems[last] = nil
	v.elems = v.elems[:last]
	return a
}

// Clear drops every slot.
func (v *SequenceValue) Clear() {
	clear(v.elems)
	v.elems = v.elems[:0]
}

// Elems exposes the slots. Writes through the slice are visible to v
// until the next Append.
func (v *SequenceValue) Elems() []tensor.Array {
	return v.elems
}

// Copy returns a new sequence sharing v's arrays.
func (v *SequenceValue) Copy() *SequenceValue {
	return &SequenceValue{elems: append([]tensor.Array(nil), v.elems...)}
}

func (v *SequenceValue) checkIndex(i int) {
	check.GE(i, 0)
	check.LT(i, len(v.elems))
}
