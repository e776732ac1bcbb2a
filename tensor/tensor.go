// Package tensor holds the runtime value type used by eager evaluation.
// Script literals promote to tensors by fixed rules: a bool becomes a
// rank-0 BOOL, an int a rank-0 INT64, a float a rank-0 FLOAT, and a
// homogeneous list a rank-1 tensor of the corresponding element type.
package tensor

import (
	"fmt"

	"github.com/khushi-411/onnxscript/ir"
)

// Tensor is a dense runtime value.
type Tensor struct {
	Elem ir.DataType
	Dims []int64

	Int64s []int64
	Floats []float64
	Bools  []bool
}

func (t *Tensor) Rank() int { return len(t.Dims) }

// Len returns the number of elements.
func (t *Tensor) Len() int {
	n := 1
	for _, d := range t.Dims {
		n *= int(d)
	}
	return n
}

// FromScalar promotes a plain Go scalar to a rank-0 tensor.
func FromScalar(v any) (*Tensor, error) {
	switch x := v.(type) {
	case bool:
		return &Tensor{Elem: ir.Bool, Dims: []int64{}, Bools: []bool{x}}, nil
	case int:
		return FromScalar(int64(x))
	case int64:
		return &Tensor{Elem: ir.Int64, Dims: []int64{}, Int64s: []int64{x}}, nil
	case float64:
		return &Tensor{Elem: ir.Float, Dims: []int64{}, Floats: []float64{x}}, nil
	case *Tensor:
		return x, nil
	}
	return nil, fmt.Errorf("cannot promote %T to a tensor", v)
}

// FromList promotes a non-empty homogeneous list to a rank-1 tensor. An
// empty list has no element type and is rejected; so is a mixed list.
func FromList(vs []any) (*Tensor, error) {
	if len(vs) == 0 {
		return nil, fmt.Errorf("cannot promote an empty list: element type is unknown")
	}
	switch vs[0].(type) {
	case bool:
		out := make([]bool, len(vs))
		for i, v := range vs {
			b, ok := v.(bool)
			if !ok {
				return nil, mixedListError(i, vs[0], v)
			}
			out[i] = b
		}
		return &Tensor{Elem: ir.Bool, Dims: []int64{int64(len(vs))}, Bools: out}, nil
	case int, int64:
		out := make([]int64, len(vs))
		for i, v := range vs {
			switch x := v.(type) {
			case int:
				out[i] = int64(x)
			case int64:
				out[i] = x
			default:
				return nil, mixedListError(i, vs[0], v)
			}
		}
		return &Tensor{Elem: ir.Int64, Dims: []int64{int64(len(vs))}, Int64s: out}, nil
	case float64:
		out := make([]float64, len(vs))
		for i, v := range vs {
			f, ok := v.(float64)
			if !ok {
				return nil, mixedListError(i, vs[0], v)
			}
			out[i] = f
		}
		return &Tensor{Elem: ir.Float, Dims: []int64{int64(len(vs))}, Floats: out}, nil
	}
	return nil, fmt.Errorf("cannot promote a list of %T to a tensor", vs[0])
}

func mixedListError(i int, first, got any) error {
	return fmt.Errorf("list elements must share one type: element 0 is %T but element %d is %T", first, i, got)
}

// CastTo converts the tensor's elements to another type, per the cast the
// static path would insert.
func (t *Tensor) CastTo(elem ir.DataType) (*Tensor, error) {
	if elem == t.Elem {
		return t, nil
	}
	out := &Tensor{Elem: elem, Dims: t.Dims}
	n := t.Len()
	switch elem {
	case ir.Int64:
		out.Int64s = make([]int64, n)
		for i := 0; i < n; i++ {
			v, err := t.floatAt(i)
			if err != nil {
				return nil, err
			}
			out.Int64s[i] = int64(v)
		}
	case ir.Float, ir.Double:
		out.Floats = make([]float64, n)
		for i := 0; i < n; i++ {
			v, err := t.floatAt(i)
			if err != nil {
				return nil, err
			}
			out.Floats[i] = v
		}
	case ir.Bool:
		out.Bools = make([]bool, n)
		for i := 0; i < n; i++ {
			v, err := t.floatAt(i)
			if err != nil {
				return nil, err
			}
			out.Bools[i] = v != 0
		}
	default:
		return nil, fmt.Errorf("cannot cast %s to %s", t.Elem, elem)
	}
	return out, nil
}

func (t *Tensor) floatAt(i int) (float64, error) {
	switch t.Elem {
	case ir.Int64, ir.Int32:
		return float64(t.Int64s[i]), nil
	case ir.Float, ir.Double:
		return t.Floats[i], nil
	case ir.Bool:
		if t.Bools[i] {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("cannot read element of %s tensor as a number", t.Elem)
}

// Const converts the runtime value to a graph constant.
func (t *Tensor) Const() *ir.Tensor {
	out := &ir.Tensor{Elem: t.Elem, Dims: t.Dims}
	switch t.Elem {
	case ir.Int64, ir.Int32:
		out.Int64s = append([]int64(nil), t.Int64s...)
	case ir.Float, ir.Double:
		out.Floats = append([]float64(nil), t.Floats...)
	case ir.Bool:
		out.Bools = append([]bool(nil), t.Bools...)
	}
	return out
}
