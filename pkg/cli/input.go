package cli

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/funvibe/xcvm/internal/tensor"
)

// InputSpec describes a parsed --input value: a zero-filled array that
// replaces the program's default input of the same name.
type InputSpec struct {
	DType tensor.DType
	Shape tensor.Shape
}

// parseInputSpec parses the value half of --input name=<spec>.
//
// Format:
//
//	"float32:2,3"  → {DType: float32, Shape: (2, 3)}
//	"int64:4"      → {DType: int64, Shape: (4,)}
//	"bool:"        → {DType: bool, Shape: ()}
//	"2,3"          → {DType: float32, Shape: (2, 3)}
func parseInputSpec(s string) (InputSpec, error) {
	spec := InputSpec{DType: tensor.Float32}
	dims := s
	if i := strings.Index(s, ":"); i >= 0 {
		dtype, err := tensor.ParseDType(s[:i])
		if err != nil {
			return spec, err
		}
		spec.DType = dtype
		dims = s[i+1:]
	}

	spec.Shape = tensor.Shape{}
	if dims == "" {
		return spec, nil
	}
	for _, part := range strings.Split(dims, ",") {
		d, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || d < 0 {
			return spec, errors.Errorf("bad dimension %q in %q", part, s)
		}
		spec.Shape = append(spec.Shape, d)
	}
	if _, ok := spec.Shape.SizeChecked(); !ok {
		return spec, errors.Errorf("shape %s too large", spec.Shape)
	}
	return spec, nil
}

// Array materializes the spec.
func (s InputSpec) Array() tensor.Array {
	return tensor.Zeros(s.DType, s.Shape...)
}
