// Package tensor provides the array type held by runtime registers.
//
// The runtime only relies on the Array interface. Dense is the in-process
// implementation used by the loader, the CLI and the tests; it stores
// every element as a float64 and reports byte sizes for its dtype.
package tensor

import (
	"math"
	"strconv"
	"strings"

	"github.com/funvibe/xcvm/internal/check"
)

// Array is the view of a tensor the runtime needs: byte size for memory
// accounting and two renderings for logs and crash reports.
type Array interface {
	NumBytes() uint64
	ShapeString() string
	ContentsString() string
}

// Dense is a contiguous row-major array.
type Dense struct {
	dtype DType
	shape Shape
	data  []float64
}

// New wraps data, which must hold exactly shape.Size() elements.
func New(dtype DType, shape Shape, data []float64) *Dense {
	for i, d := range shape {
		check.GE(d, int64(0), func(s *check.Sink) { s.Add(" dim ", i) })
	}
	size, ok := shape.SizeChecked()
	check.True(ok, "shape size fits", func(s *check.Sink) { s.Add(shape) })
	check.EQ(int64(len(data)), size, func(s *check.Sink) { s.Add(" for shape ", shape) })
	return &Dense{
		dtype: dtype,
		shape: append(Shape(nil), shape...),
		data:  data,
	}
}

// Zeros returns a zero-filled array.
func Zeros(dtype DType, shape ...int64) *Dense {
	size, ok := Shape(shape).SizeChecked()
	check.True(ok, "shape size fits", func(s *check.Sink) { s.Add(Shape(shape)) })
	return New(dtype, Shape(shape), make([]float64, size))
}

// Scalar returns a rank-0 array.
func Scalar(dtype DType, v float64) *Dense {
	return New(dtype, Shape{}, []float64{v})
}

// FromInt64s returns a rank-1 int64 array.
func FromInt64s(vs ...int64) *Dense {
	data := make([]float64, len(vs))
	for i, v := range vs {
		data[i] = float64(v)
	}
	return New(Int64, Shape{int64(len(vs))}, data)
}

func (a *Dense) DType() DType { return a.dtype }
func (a *Dense) Shape() Shape { return a.shape }

// Data returns the backing elements. Callers must not resize it.
func (a *Dense) Data() []float64 { return a.data }

func (a *Dense) NumBytes() uint64 {
	return uint64(len(a.data)) * a.dtype.Size()
}

func (a *Dense) ShapeString() string {
	return a.shape.String()
}

// ContentsString renders every element:
// array([[0., 1.], [2., 3.]], shape=(2, 2), dtype=float32)
func (a *Dense) ContentsString() string {
	var sb strings.Builder
	sb.WriteString("array(")
	a.writeElems(&sb, 0, 0)
	sb.WriteString(", shape=")
	sb.WriteString(a.shape.String())
	sb.WriteString(", dtype=")
	sb.WriteString(a.dtype.String())
	sb.WriteByte(')')
	return sb.String()
}

// writeElems writes dimension dim starting at flat offset off and returns
// the offset after it.
func (a *Dense) writeElems(sb *strings.Builder, dim int, off int) int {
	if dim == len(a.shape) {
		sb.WriteString(a.formatElem(a.data[off]))
		return off + 1
	}
	sb.WriteByte('[')
	if a.shape[dim] == 0 {
		sb.WriteByte(']')
		return off
	}
	for i := int64(0); i < a.shape[dim]; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		off = a.writeElems(sb, dim+1, off)
	}
	sb.WriteByte(']')
	return off
}

func (a *Dense) formatElem(v float64) string {
	switch {
	case a.dtype == Bool:
		if v != 0 {
			return "True"
		}
		return "False"
	case a.dtype.IsFloat():
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !math.IsInf(v, 0) && !math.IsNaN(v) && v == math.Trunc(v) && !strings.ContainsAny(s, "e") {
			s += "."
		}
		return s
	default:
		return strconv.FormatInt(int64(v), 10)
	}
}
