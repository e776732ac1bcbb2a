package compiler

import (
	"fmt"

	"github.com/khushi-411/onnxscript/ir"
	"github.com/khushi-411/onnxscript/schema"
	"github.com/khushi-411/onnxscript/tensor"
	"github.com/khushi-411/onnxscript/token"
)

// Literal call arguments carry no element type of their own: they take the
// type the operator signature unifies them with. The pass runs twice over
// the actuals. Pass one binds each type-constraint variable to the element
// type of the first actual that has one. Pass two converts literal actuals
// per the bindings. Actuals bound to a non-homogeneous variadic formal pass
// through untouched.

// actualArg is one call actual as seen by the cast pass.
type actualArg struct {
	tok     token.Token
	omitted bool       // written as None
	value   *Dynamic   // a graph value, nil for literals
	lit     *ir.Tensor // a literal constant, nil for graph values
}

// binding is the resolution of one type-constraint variable.
type binding struct {
	elem    ir.DataType
	known   bool
	witness string // graph name of the first dynamic actual, for CastLike
}

// concreteDataType resolves a concrete formal type such as "tensor(bool)".
func concreteDataType(typeStr string) (ir.DataType, bool) {
	switch typeStr {
	case "tensor(bool)":
		return ir.Bool, true
	case "tensor(int64)":
		return ir.Int64, true
	case "tensor(int32)":
		return ir.Int32, true
	case "tensor(float)":
		return ir.Float, true
	case "tensor(double)":
		return ir.Double, true
	case "tensor(string)":
		return ir.String, true
	}
	return ir.Undefined, false
}

// checkArity verifies the actual count against the formals: extra actuals
// are allowed only through a trailing variadic formal.
func checkArity(tok token.Token, s *schema.OpSchema, n int) *token.CompileError {
	if n <= len(s.Inputs) {
		return nil
	}
	if last := len(s.Inputs); last > 0 && s.Inputs[last-1].Option == schema.Variadic {
		return nil
	}
	return &token.CompileError{
		Token: tok, Kind: token.ErrArity,
		Msg: fmt.Sprintf("%s expects at most %d inputs, got %d", s.Name, len(s.Inputs), n),
	}
}

// castInputs resolves the actuals of one operator call to graph names,
// materializing and converting literals as the signature requires.
func (cv *converter) castInputs(tok token.Token, s *schema.OpSchema, args []actualArg) ([]string, *token.CompileError) {
	if cerr := checkArity(tok, s, len(args)); cerr != nil {
		return nil, cerr
	}

	// pass 1: bind type variables, first writer wins
	bindings := map[string]*binding{}
	for i, arg := range args {
		fp, _ := s.ExpectedParam(i)
		if !fp.IsTypeVar() || (fp.Option == schema.Variadic && !fp.Homogeneous) {
			continue
		}
		if arg.value == nil {
			continue
		}
		b, seen := bindings[fp.TypeStr]
		if !seen {
			b = &binding{witness: arg.value.Name}
			bindings[fp.TypeStr] = b
		}
		if !b.known && arg.value.HasType() {
			b.elem = arg.value.Typ.Elem
			b.known = true
		}
	}

	// pass 2: resolve each actual to a graph name
	names := make([]string, len(args))
	for i, arg := range args {
		switch {
		case arg.omitted:
			names[i] = ""
		case arg.value != nil:
			names[i] = arg.value.Name
		default:
			fp, _ := s.ExpectedParam(i)
			names[i] = cv.castLiteral(arg, fp, bindings)
		}
	}
	return names, nil
}

// castLiteral materializes one literal actual with the element type its
// formal parameter requires.
func (cv *converter) castLiteral(arg actualArg, fp schema.FormalParam, bindings map[string]*binding) string {
	t := arg.lit
	hint := "const"

	if fp.Option == schema.Variadic && !fp.Homogeneous {
		return cv.emitConst(t, hint).Name
	}
	if !fp.IsTypeVar() {
		if elem, ok := concreteDataType(fp.TypeStr); ok {
			return cv.emitConst(castConst(t, elem), hint).Name
		}
		return cv.emitConst(t, hint).Name
	}
	b := bindings[fp.TypeStr]
	if b == nil {
		// no dynamic sibling constrains the variable: default promotion
		return cv.emitConst(t, hint).Name
	}
	if b.known {
		return cv.emitConst(castConst(t, b.elem), hint).Name
	}
	// the sibling's type is unknown until graph execution: cast at runtime
	c := cv.emitConst(t, hint)
	out := cv.uniqueName(hint + "_cast")
	cv.emit("CastLike", []string{c.Name, b.witness}, []string{out})
	return out
}

// EagerCastInputs applies the same unification to runtime values: plain Go
// scalars and lists promote to tensors, then convert to the element type
// bound by their formal's type variable. Values bound to a non-homogeneous
// variadic formal pass through untouched.
func EagerCastInputs(s *schema.OpSchema, args []any) ([]any, error) {
	if cerr := checkArity(token.Token{}, s, len(args)); cerr != nil {
		return nil, cerr
	}

	bindings := map[string]ir.DataType{}
	for i, arg := range args {
		fp, _ := s.ExpectedParam(i)
		if !fp.IsTypeVar() || (fp.Option == schema.Variadic && !fp.Homogeneous) {
			continue
		}
		t, ok := arg.(*tensor.Tensor)
		if !ok {
			continue
		}
		if _, bound := bindings[fp.TypeStr]; !bound {
			bindings[fp.TypeStr] = t.Elem
		}
	}

	out := make([]any, len(args))
	for i, arg := range args {
		fp, _ := s.ExpectedParam(i)
		if arg == nil || (fp.Option == schema.Variadic && !fp.Homogeneous) {
			out[i] = arg
			continue
		}
		if t, ok := arg.(*tensor.Tensor); ok {
			out[i] = t
			continue
		}
		t, err := promote(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d of %s: %w", i, s.Name, err)
		}
		target, bound := ir.Undefined, false
		if elem, ok := concreteDataType(fp.TypeStr); ok {
			target, bound = elem, true
		} else if elem, ok := bindings[fp.TypeStr]; ok {
			target, bound = elem, true
		}
		if bound {
			t, err = t.CastTo(target)
			if err != nil {
				return nil, fmt.Errorf("argument %d of %s: %w", i, s.Name, err)
			}
		}
		out[i] = t
	}
	return out, nil
}

func promote(v any) (*tensor.Tensor, error) {
	if list, ok := v.([]any); ok {
		return tensor.FromList(list)
	}
	return tensor.FromScalar(v)
}
