// Package ir defines the compiled form of a script function: a graph of
// operator nodes over named values, with typed inputs and outputs, nested
// subgraphs for control flow, and dense tensors for constants.
package ir

import (
	"fmt"
	"strings"
)

// DataType is the element type of a tensor value.
type DataType int

const (
	Undefined DataType = iota
	Float
	Int32
	Bool
	Int64
	Double
	String
)

var dataTypeNames = map[DataType]string{
	Undefined: "UNDEFINED",
	Float:     "FLOAT",
	Int32:     "INT32",
	Bool:      "BOOL",
	Int64:     "INT64",
	Double:    "DOUBLE",
	String:    "STRING",
}

func (dt DataType) String() string {
	if name, ok := dataTypeNames[dt]; ok {
		return name
	}
	return fmt.Sprintf("DataType(%d)", int(dt))
}

// DataTypeByName resolves a type annotation such as "FLOAT" or "INT64".
func DataTypeByName(name string) (DataType, bool) {
	for dt, n := range dataTypeNames {
		if n == name && dt != Undefined {
			return dt, true
		}
	}
	return Undefined, false
}

// TensorType is the declared type of a graph value. Known reports whether
// the element type is known; unannotated values stay unconstrained.
type TensorType struct {
	Elem  DataType
	Dims  []int64
	Known bool
}

func ScalarType(elem DataType) TensorType {
	return TensorType{Elem: elem, Dims: []int64{}, Known: true}
}

func VectorType(elem DataType, n int64) TensorType {
	return TensorType{Elem: elem, Dims: []int64{n}, Known: true}
}

func (tt TensorType) String() string {
	if !tt.Known {
		return "?"
	}
	if len(tt.Dims) == 0 {
		return tt.Elem.String()
	}
	dims := make([]string, len(tt.Dims))
	for i, d := range tt.Dims {
		dims[i] = fmt.Sprintf("%d", d)
	}
	return fmt.Sprintf("%s[%s]", tt.Elem, strings.Join(dims, ","))
}

// Tensor is a dense constant. Exactly one of the payload slices is used,
// matching Elem; a rank-0 tensor holds a single element with empty Dims.
type Tensor struct {
	Name string
	Elem DataType
	Dims []int64

	Int64s  []int64
	Floats  []float64
	Bools   []bool
	Strings []string
}

func ScalarInt64(v int64) *Tensor {
	return &Tensor{Elem: Int64, Dims: []int64{}, Int64s: []int64{v}}
}

func ScalarFloat(v float64) *Tensor {
	return &Tensor{Elem: Float, Dims: []int64{}, Floats: []float64{v}}
}

func ScalarBool(v bool) *Tensor {
	return &Tensor{Elem: Bool, Dims: []int64{}, Bools: []bool{v}}
}

func VectorInt64(vs []int64) *Tensor {
	return &Tensor{Elem: Int64, Dims: []int64{int64(len(vs))}, Int64s: vs}
}

func VectorFloat(vs []float64) *Tensor {
	return &Tensor{Elem: Float, Dims: []int64{int64(len(vs))}, Floats: vs}
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int { return len(t.Dims) }

func (t *Tensor) String() string {
	var vals []string
	switch t.Elem {
	case Int64:
		for _, v := range t.Int64s {
			vals = append(vals, fmt.Sprintf("%d", v))
		}
	case Float, Double:
		for _, v := range t.Floats {
			vals = append(vals, formatFloat(v))
		}
	case Bool:
		for _, v := range t.Bools {
			vals = append(vals, fmt.Sprintf("%t", v))
		}
	case String:
		for _, v := range t.Strings {
			vals = append(vals, fmt.Sprintf("%q", v))
		}
	}
	body := strings.Join(vals, ", ")
	if t.Rank() > 0 {
		body = "[" + body + "]"
	}
	return fmt.Sprintf("%s %s", TensorType{Elem: t.Elem, Dims: t.Dims, Known: true}, body)
}

func formatFloat(v float64) string {
	s := fmt.Sprintf("%g", v)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
