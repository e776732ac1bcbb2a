// Package schema describes operator signatures: formal input parameters with
// their arity options and type constraints, plus the attributes each
// operator accepts. The compiler consults schemas to cast literal arguments
// and to validate call arity.
package schema

import (
	"fmt"
	"strings"
)

// Option is the arity class of a formal parameter.
type Option int

const (
	Single Option = iota
	Optional
	Variadic
)

func (o Option) String() string {
	switch o {
	case Single:
		return "single"
	case Optional:
		return "optional"
	case Variadic:
		return "variadic"
	}
	return fmt.Sprintf("Option(%d)", int(o))
}

// FormalParam is one declared input of an operator. TypeStr is either a
// type-constraint variable ("T") shared among parameters, or a concrete
// tensor type such as "tensor(bool)". A variadic parameter with Homogeneous
// false places no constraint on its actuals.
type FormalParam struct {
	Name        string
	TypeStr     string
	Option      Option
	Homogeneous bool
}

// IsTypeVar reports whether TypeStr names a constraint variable rather than
// a concrete tensor type.
func (fp FormalParam) IsTypeVar() bool {
	return !strings.HasPrefix(fp.TypeStr, "tensor(")
}

// OpSchema is the signature of one operator.
type OpSchema struct {
	Name       string
	Inputs     []FormalParam
	Outputs    []FormalParam
	Attributes []string
}

// HasAttribute reports whether name is a declared attribute of the operator.
func (s *OpSchema) HasAttribute(name string) bool {
	for _, a := range s.Attributes {
		if a == name {
			return true
		}
	}
	return false
}

// ExpectedParam maps an actual argument position to its formal parameter.
// Positions past a trailing variadic formal all map to that formal. The
// second result is false when the position exceeds the formals and the last
// formal is not variadic.
func (s *OpSchema) ExpectedParam(i int) (FormalParam, bool) {
	if i < len(s.Inputs) {
		return s.Inputs[i], true
	}
	if n := len(s.Inputs); n > 0 && s.Inputs[n-1].Option == Variadic {
		return s.Inputs[n-1], true
	}
	return FormalParam{}, false
}

// Opset is a named, versioned collection of operator schemas.
type Opset struct {
	Domain  string
	Version int

	schemas map[string]*OpSchema
}

func NewOpset(domain string, version int) *Opset {
	return &Opset{
		Domain:  domain,
		Version: version,
		schemas: map[string]*OpSchema{},
	}
}

// Register adds a schema, replacing any previous one of the same name.
func (o *Opset) Register(s *OpSchema) {
	o.schemas[s.Name] = s
}

// Lookup returns the schema for an operator name.
func (o *Opset) Lookup(name string) (*OpSchema, bool) {
	s, ok := o.schemas[name]
	return s, ok
}

// QualifiedName formats an operator name with the opset's domain prefix.
func (o *Opset) QualifiedName(op string) string {
	if o.Domain == "" {
		return op
	}
	return o.Domain + "." + op
}

const (
	tBool  = "tensor(bool)"
	tInt64 = "tensor(int64)"
)

// single is shorthand for a required homogeneous parameter.
func single(name, typeStr string) FormalParam {
	return FormalParam{Name: name, TypeStr: typeStr, Option: Single, Homogeneous: true}
}

func optional(name, typeStr string) FormalParam {
	return FormalParam{Name: name, TypeStr: typeStr, Option: Optional, Homogeneous: true}
}

func variadic(name, typeStr string, homogeneous bool) FormalParam {
	return FormalParam{Name: name, TypeStr: typeStr, Option: Variadic, Homogeneous: homogeneous}
}

func elementwise(name string, arity int) *OpSchema {
	s := &OpSchema{Name: name, Outputs: []FormalParam{single("output", "T")}}
	argNames := []string{"A", "B", "C"}
	for i := 0; i < arity; i++ {
		s.Inputs = append(s.Inputs, single(argNames[i], "T"))
	}
	return s
}

func comparison(name string) *OpSchema {
	return &OpSchema{
		Name:    name,
		Inputs:  []FormalParam{single("A", "T"), single("B", "T")},
		Outputs: []FormalParam{single("C", tBool)},
	}
}

// Default returns the built-in operator set the compiler targets.
func Default() *Opset {
	o := NewOpset("", 18)

	for _, name := range []string{"Abs", "Ceil", "Cos", "Erf", "Exp", "Floor",
		"Log", "Neg", "Reciprocal", "Relu", "Round", "Sigmoid", "Sign", "Sin",
		"Sqrt", "Tanh"} {
		o.Register(elementwise(name, 1))
	}
	o.Register(&OpSchema{
		Name:       "Softmax",
		Inputs:     []FormalParam{single("input", "T")},
		Outputs:    []FormalParam{single("output", "T")},
		Attributes: []string{"axis"},
	})

	for _, name := range []string{"Add", "Sub", "Mul", "Div", "Pow", "MatMul"} {
		o.Register(elementwise(name, 2))
	}
	for _, name := range []string{"Min", "Max", "Sum", "Mean"} {
		o.Register(&OpSchema{
			Name:    name,
			Inputs:  []FormalParam{variadic("data_0", "T", true)},
			Outputs: []FormalParam{single("out", "T")},
		})
	}
	o.Register(&OpSchema{
		Name:       "Mod",
		Inputs:     []FormalParam{single("A", "T"), single("B", "T")},
		Outputs:    []FormalParam{single("C", "T")},
		Attributes: []string{"fmod"},
	})

	for _, name := range []string{"Equal", "Greater", "GreaterOrEqual", "Less",
		"LessOrEqual"} {
		o.Register(comparison(name))
	}
	o.Register(&OpSchema{
		Name:    "Not",
		Inputs:  []FormalParam{single("X", tBool)},
		Outputs: []FormalParam{single("Y", tBool)},
	})
	for _, name := range []string{"And", "Or", "Xor"} {
		o.Register(&OpSchema{
			Name:    name,
			Inputs:  []FormalParam{single("A", tBool), single("B", tBool)},
			Outputs: []FormalParam{single("C", tBool)},
		})
	}

	o.Register(&OpSchema{
		Name:    "Identity",
		Inputs:  []FormalParam{single("input", "T")},
		Outputs: []FormalParam{single("output", "T")},
	})
	o.Register(&OpSchema{
		Name:       "Cast",
		Inputs:     []FormalParam{single("input", "T1")},
		Outputs:    []FormalParam{single("output", "T2")},
		Attributes: []string{"to"},
	})
	o.Register(&OpSchema{
		Name:    "CastLike",
		Inputs:  []FormalParam{single("input", "T1"), single("target_type", "T2")},
		Outputs: []FormalParam{single("output", "T2")},
	})
	o.Register(&OpSchema{
		Name:       "Constant",
		Outputs:    []FormalParam{single("output", "T")},
		Attributes: []string{"value", "value_float", "value_int", "value_string"},
	})
	o.Register(&OpSchema{
		Name:    "Shape",
		Inputs:  []FormalParam{single("data", "T")},
		Outputs: []FormalParam{single("shape", tInt64)},
	})
	o.Register(&OpSchema{
		Name: "Slice",
		Inputs: []FormalParam{
			single("data", "T"),
			single("starts", "Tind"),
			single("ends", "Tind"),
			optional("axes", "Tind"),
			optional("steps", "Tind"),
		},
		Outputs: []FormalParam{single("output", "T")},
	})
	o.Register(&OpSchema{
		Name:    "Squeeze",
		Inputs:  []FormalParam{single("data", "T"), optional("axes", tInt64)},
		Outputs: []FormalParam{single("squeezed", "T")},
	})
	o.Register(&OpSchema{
		Name:    "Unsqueeze",
		Inputs:  []FormalParam{single("data", "T"), single("axes", tInt64)},
		Outputs: []FormalParam{single("expanded", "T")},
	})
	o.Register(&OpSchema{
		Name:       "Gather",
		Inputs:     []FormalParam{single("data", "T"), single("indices", "Tind")},
		Outputs:    []FormalParam{single("output", "T")},
		Attributes: []string{"axis"},
	})
	o.Register(&OpSchema{
		Name:       "Concat",
		Inputs:     []FormalParam{variadic("inputs", "T", true)},
		Outputs:    []FormalParam{single("concat_result", "T")},
		Attributes: []string{"axis"},
	})
	o.Register(&OpSchema{
		Name:       "Transpose",
		Inputs:     []FormalParam{single("data", "T")},
		Outputs:    []FormalParam{single("transposed", "T")},
		Attributes: []string{"perm"},
	})
	o.Register(&OpSchema{
		Name:    "Reshape",
		Inputs:  []FormalParam{single("data", "T"), single("shape", tInt64)},
		Outputs: []FormalParam{single("reshaped", "T")},
	})
	o.Register(&OpSchema{
		Name:       "ReduceSum",
		Inputs:     []FormalParam{single("data", "T"), optional("axes", tInt64)},
		Outputs:    []FormalParam{single("reduced", "T")},
		Attributes: []string{"keepdims", "noop_with_empty_axes"},
	})
	o.Register(&OpSchema{
		Name:       "ReduceMean",
		Inputs:     []FormalParam{single("data", "T"), optional("axes", tInt64)},
		Outputs:    []FormalParam{single("reduced", "T")},
		Attributes: []string{"keepdims", "noop_with_empty_axes"},
	})
	o.Register(&OpSchema{
		Name:    "Clip",
		Inputs:  []FormalParam{single("input", "T"), optional("min", "T"), optional("max", "T")},
		Outputs: []FormalParam{single("output", "T")},
	})
	o.Register(&OpSchema{
		Name:    "Where",
		Inputs:  []FormalParam{single("condition", tBool), single("X", "T"), single("Y", "T")},
		Outputs: []FormalParam{single("output", "T")},
	})
	o.Register(&OpSchema{
		Name:       "Split",
		Inputs:     []FormalParam{single("input", "T"), optional("split", tInt64)},
		Outputs:    []FormalParam{variadic("outputs", "T", true)},
		Attributes: []string{"axis", "num_outputs"},
	})
	o.Register(&OpSchema{
		Name:       "If",
		Inputs:     []FormalParam{single("cond", tBool)},
		Outputs:    []FormalParam{variadic("outputs", "V", false)},
		Attributes: []string{"then_branch", "else_branch"},
	})
	o.Register(&OpSchema{
		Name: "Loop",
		Inputs: []FormalParam{
			optional("M", tInt64),
			optional("cond", tBool),
			variadic("v_initial", "V", false),
		},
		Outputs:    []FormalParam{variadic("v_final_and_scan_outputs", "V", false)},
		Attributes: []string{"body"},
	})
	o.Register(&OpSchema{
		Name:       "SequenceEmpty",
		Outputs:    []FormalParam{single("output", "S")},
		Attributes: []string{"dtype"},
	})
	o.Register(&OpSchema{
		Name:    "SequenceInsert",
		Inputs:  []FormalParam{single("input_sequence", "S"), single("tensor", "T"), optional("position", tInt64)},
		Outputs: []FormalParam{single("output_sequence", "S")},
	})

	return o
}
