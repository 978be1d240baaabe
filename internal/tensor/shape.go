package tensor

import (
	"math/bits"
	"strconv"
	"strings"
)

// MaxElements bounds the element count of a Dense array.
const MaxElements = 1 << 32

// Shape lists the extent of each dimension. An empty shape is a scalar.
type Shape []int64

// Size returns the number of elements. Shapes that fail SizeChecked
// have no meaningful size.
func (s Shape) Size() int64 {
	n, _ := s.SizeChecked()
	return n
}

// SizeChecked returns the number of elements and false when a dimension
// is negative or the product exceeds MaxElements.
func (s Shape) SizeChecked() (int64, bool) {
	n := uint64(1)
	for _, d := range s {
		if d < 0 {
			return 0, false
		}
		hi, lo := bits.Mul64(n, uint64(d))
		if hi != 0 || lo > MaxElements {
			return 0, false
		}
		n = lo
	}
	return int64(n), true
}

// String renders the shape as a tuple: (), (1,), (2, 3).
func (s Shape) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, d := range s {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatInt(d, 10))
	}
	if len(s) == 1 {
		sb.WriteByte(',')
	}
	sb.WriteByte(')')
	return sb.String()
}

// Equal reports whether both shapes have the same dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}
