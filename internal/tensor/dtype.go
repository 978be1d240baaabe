package tensor

import "fmt"

// DType is the element type of an array.
type DType uint8

const (
	Bool DType = iota
	Int8
	Int16
	Int32
	Int64
	UInt8
	Float16
	Float32
	Float64
)

var dtypeNames = [...]string{
	Bool:    "bool",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	UInt8:   "uint8",
	Float16: "float16",
	Float32: "float32",
	Float64: "float64",
}

// Size returns the number of bytes one element occupies.
func (d DType) Size() uint64 {
	switch d {
	case Bool, Int8, UInt8:
		return 1
	case Int16, Float16:
		return 2
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	default:
		return 0
	}
}

func (d DType) String() string {
	if int(d) < len(dtypeNames) {
		return dtypeNames[d]
	}
	return fmt.Sprintf("DType(%d)", uint8(d))
}

// IsFloat reports whether d is a floating point type.
func (d DType) IsFloat() bool {
	return d == Float16 || d == Float32 || d == Float64
}

// ParseDType resolves a dtype name such as "float32".
func ParseDType(name string) (DType, error) {
	for i, n := range dtypeNames {
		if n == name {
			return DType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown dtype %q", name)
}
