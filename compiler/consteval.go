package compiler

import (
	"math"

	"github.com/khushi-411/onnxscript/ast"
	"github.com/khushi-411/onnxscript/ir"
	"github.com/khushi-411/onnxscript/token"
)

// literalTensor evaluates an expression that denotes a compile-time
// constant: a scalar literal, a signed scalar literal, or a list of them.
// The second result is false when the expression is not a literal at all;
// an error means it is a literal but a malformed one.
func literalTensor(expr ast.Expression) (*ir.Tensor, bool, *token.CompileError) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return ir.ScalarInt64(e.Value), true, nil
	case *ast.FloatLiteral:
		return ir.ScalarFloat(e.Value), true, nil
	case *ast.BoolLiteral:
		return ir.ScalarBool(e.Value), true, nil
	case *ast.StringLiteral:
		return &ir.Tensor{Elem: ir.String, Dims: []int64{}, Strings: []string{e.Value}}, true, nil
	case *ast.PrefixExpression:
		if e.Operator != "-" && e.Operator != "+" {
			return nil, false, nil
		}
		inner, ok, err := literalTensor(e.Right)
		if err != nil || !ok {
			return nil, ok, err
		}
		if inner.Rank() != 0 {
			return nil, false, nil
		}
		if e.Operator == "-" {
			switch inner.Elem {
			case ir.Int64:
				return ir.ScalarInt64(-inner.Int64s[0]), true, nil
			case ir.Float, ir.Double:
				return ir.ScalarFloat(-inner.Floats[0]), true, nil
			default:
				return nil, false, &token.CompileError{
					Token: e.Token, Kind: token.ErrTypeMismatch,
					Msg: "unary minus needs a numeric operand",
				}
			}
		}
		return inner, true, nil
	case *ast.ListLiteral:
		return listTensor(e)
	}
	return nil, false, nil
}

// listTensor promotes a list literal to a rank-1 constant. The list must be
// non-empty and homogeneous.
func listTensor(list *ast.ListLiteral) (*ir.Tensor, bool, *token.CompileError) {
	if len(list.Elements) == 0 {
		return nil, true, &token.CompileError{
			Token: list.Token, Kind: token.ErrEmptyList,
			Msg: "cannot use an empty list: element type is unknown",
		}
	}
	elems := make([]*ir.Tensor, len(list.Elements))
	for i, el := range list.Elements {
		t, ok, err := literalTensor(el)
		if err != nil {
			return nil, true, err
		}
		if !ok || t.Rank() != 0 {
			return nil, true, &token.CompileError{
				Token: el.Tok(), Kind: token.ErrSyntaxUnsupported,
				Msg: "list elements must be scalar literals",
			}
		}
		if i > 0 && t.Elem != elems[0].Elem {
			return nil, true, &token.CompileError{
				Token: el.Tok(), Kind: token.ErrTypeMismatch,
				Msg: "list elements must share one type",
			}
		}
		elems[i] = t
	}
	out := &ir.Tensor{Elem: elems[0].Elem, Dims: []int64{int64(len(elems))}}
	for _, t := range elems {
		switch t.Elem {
		case ir.Int64:
			out.Int64s = append(out.Int64s, t.Int64s[0])
		case ir.Float, ir.Double:
			out.Floats = append(out.Floats, t.Floats[0])
		case ir.Bool:
			out.Bools = append(out.Bools, t.Bools[0])
		case ir.String:
			out.Strings = append(out.Strings, t.Strings[0])
		}
	}
	return out, true, nil
}

// foldConst evaluates an expression whose value is fixed at translation
// time: a literal, a name bound to a constant, or scalar arithmetic over
// either. The second result is false when the expression has a runtime
// component; such expressions fall through to the dynamic lowering.
func (cv *converter) foldConst(expr ast.Expression) (*ir.Tensor, bool, *token.CompileError) {
	if t, ok, err := literalTensor(expr); ok || err != nil {
		return t, ok, err
	}
	switch e := expr.(type) {
	case *ast.Identifier:
		if v, found := Get(cv.locals, e.Value); found {
			if d, isDyn := v.(*Dynamic); isDyn && d.Const != nil {
				return d.Const, true, nil
			}
		}
	case *ast.PrefixExpression:
		inner, ok, err := cv.foldConst(e.Right)
		if err != nil || !ok {
			return nil, false, err
		}
		if inner.Rank() != 0 {
			return nil, false, nil
		}
		if t, folded := foldPrefix(e.Operator, inner); folded {
			return t, true, nil
		}
	case *ast.InfixExpression:
		left, ok, err := cv.foldConst(e.Left)
		if err != nil || !ok {
			return nil, false, err
		}
		right, ok, err := cv.foldConst(e.Right)
		if err != nil || !ok {
			return nil, false, err
		}
		if left.Rank() != 0 || right.Rank() != 0 {
			return nil, false, nil
		}
		if t, folded := foldInfix(e.Operator, left, right); folded {
			return t, true, nil
		}
	}
	return nil, false, nil
}

func foldPrefix(op string, v *ir.Tensor) (*ir.Tensor, bool) {
	switch op {
	case "+":
		return v, true
	case "-":
		switch v.Elem {
		case ir.Int64:
			return ir.ScalarInt64(-v.Int64s[0]), true
		case ir.Float, ir.Double:
			return ir.ScalarFloat(-v.Floats[0]), true
		}
	case "not":
		if v.Elem == ir.Bool {
			return ir.ScalarBool(!v.Bools[0]), true
		}
	}
	return nil, false
}

func foldInfix(op string, a, b *ir.Tensor) (*ir.Tensor, bool) {
	if a.Elem == ir.Bool && b.Elem == ir.Bool {
		switch op {
		case "and", "&":
			return ir.ScalarBool(a.Bools[0] && b.Bools[0]), true
		case "or", "|":
			return ir.ScalarBool(a.Bools[0] || b.Bools[0]), true
		case "==":
			return ir.ScalarBool(a.Bools[0] == b.Bools[0]), true
		case "!=":
			return ir.ScalarBool(a.Bools[0] != b.Bools[0]), true
		}
		return nil, false
	}
	numeric := func(t *ir.Tensor) (float64, bool) {
		switch t.Elem {
		case ir.Int64:
			return float64(t.Int64s[0]), true
		case ir.Float, ir.Double:
			return t.Floats[0], true
		}
		return 0, false
	}
	x, okA := numeric(a)
	y, okB := numeric(b)
	if !okA || !okB {
		return nil, false
	}
	switch op {
	case "==":
		return ir.ScalarBool(x == y), true
	case "!=":
		return ir.ScalarBool(x != y), true
	case "<":
		return ir.ScalarBool(x < y), true
	case "<=":
		return ir.ScalarBool(x <= y), true
	case ">":
		return ir.ScalarBool(x > y), true
	case ">=":
		return ir.ScalarBool(x >= y), true
	}
	// division always yields a float; everything else stays integral when
	// both operands are
	if a.Elem == ir.Int64 && b.Elem == ir.Int64 && op != "/" {
		ai, bi := a.Int64s[0], b.Int64s[0]
		switch op {
		case "+":
			return ir.ScalarInt64(ai + bi), true
		case "-":
			return ir.ScalarInt64(ai - bi), true
		case "*":
			return ir.ScalarInt64(ai * bi), true
		case "%":
			if bi == 0 {
				return nil, false
			}
			return ir.ScalarInt64(ai % bi), true
		case "**":
			if bi < 0 {
				return nil, false
			}
			r := int64(1)
			for i := int64(0); i < bi; i++ {
				r *= ai
			}
			return ir.ScalarInt64(r), true
		}
		return nil, false
	}
	switch op {
	case "+":
		return ir.ScalarFloat(x + y), true
	case "-":
		return ir.ScalarFloat(x - y), true
	case "*":
		return ir.ScalarFloat(x * y), true
	case "/":
		if y == 0 {
			return nil, false
		}
		return ir.ScalarFloat(x / y), true
	case "%":
		if y == 0 {
			return nil, false
		}
		return ir.ScalarFloat(math.Mod(x, y)), true
	case "**":
		return ir.ScalarFloat(math.Pow(x, y)), true
	}
	return nil, false
}

// foldInt folds an expression to a scalar integer. Subscript specifiers and
// integer attributes accept anything foldInt accepts.
func (cv *converter) foldInt(expr ast.Expression) (int64, bool) {
	t, ok, err := cv.foldConst(expr)
	if err != nil || !ok || t.Elem != ir.Int64 || t.Rank() != 0 {
		return 0, false
	}
	return t.Int64s[0], true
}

// castConst converts a constant tensor to another element type.
func castConst(t *ir.Tensor, elem ir.DataType) *ir.Tensor {
	if t.Elem == elem {
		return t
	}
	out := &ir.Tensor{Elem: elem, Dims: t.Dims}
	n := 1
	for _, d := range t.Dims {
		n *= int(d)
	}
	get := func(i int) float64 {
		switch t.Elem {
		case ir.Int64, ir.Int32:
			return float64(t.Int64s[i])
		case ir.Float, ir.Double:
			return t.Floats[i]
		case ir.Bool:
			if t.Bools[i] {
				return 1
			}
			return 0
		}
		return 0
	}
	for i := 0; i < n; i++ {
		switch elem {
		case ir.Int64, ir.Int32:
			out.Int64s = append(out.Int64s, int64(get(i)))
		case ir.Float, ir.Double:
			out.Floats = append(out.Floats, get(i))
		case ir.Bool:
			out.Bools = append(out.Bools, get(i) != 0)
		}
	}
	return out
}
