package compiler

import (
	"fmt"

	"github.com/khushi-411/onnxscript/ast"
	"github.com/khushi-411/onnxscript/ir"
	"github.com/khushi-411/onnxscript/schema"
	"github.com/khushi-411/onnxscript/token"
)

// exprResult is the value of a translated expression. Literals stay
// unmaterialized until a consuming call decides their element type.
type exprResult struct {
	dyn     *Dynamic
	lit     *ir.Tensor
	attr    *AttrRef
	omitted bool
}

// asActual converts the result to a call actual. Attribute references
// materialize as Constant nodes referring to the enclosing function's
// attribute parameter.
func (cv *converter) asActual(tok token.Token, r exprResult) (actualArg, *token.CompileError) {
	switch {
	case r.omitted:
		return actualArg{tok: tok, omitted: true}, nil
	case r.lit != nil:
		return actualArg{tok: tok, lit: r.lit}, nil
	case r.attr != nil:
		d := cv.materializeAttrRef(r.attr)
		return actualArg{tok: tok, value: d}, nil
	case r.dyn != nil:
		return actualArg{tok: tok, value: r.dyn}, nil
	}
	return actualArg{}, &token.CompileError{
		Token: tok, Kind: token.ErrSyntaxUnsupported,
		Msg: "expression has no tensor value",
	}
}

// asDynamic forces the result into a graph value, materializing literals by
// their default promotion.
func (cv *converter) asDynamic(tok token.Token, r exprResult, hint string) (*Dynamic, *token.CompileError) {
	switch {
	case r.dyn != nil:
		return r.dyn, nil
	case r.lit != nil:
		return cv.emitConst(r.lit, hint), nil
	case r.attr != nil:
		return cv.materializeAttrRef(r.attr), nil
	}
	return nil, &token.CompileError{
		Token: tok, Kind: token.ErrSyntaxUnsupported,
		Msg: "expression has no tensor value",
	}
}

// materializeAttrRef emits a Constant whose value is a reference to an
// attribute parameter, so the parameter can flow into a tensor position.
func (cv *converter) materializeAttrRef(a *AttrRef) *Dynamic {
	valueName := map[ir.AttrKind]string{
		ir.AttrInt:    "value_int",
		ir.AttrFloat:  "value_float",
		ir.AttrString: "value_string",
	}[a.Kind]
	if valueName == "" {
		valueName = "value"
	}
	out := cv.uniqueName(a.Name)
	cv.emit("Constant", nil, []string{out}, ir.RefAttr(valueName, a.Name))
	typ := ir.TensorType{}
	switch a.Kind {
	case ir.AttrInt:
		typ = ir.ScalarType(ir.Int64)
	case ir.AttrFloat:
		typ = ir.ScalarType(ir.Float)
	case ir.AttrString:
		typ = ir.ScalarType(ir.String)
	}
	return &Dynamic{Name: out, Prov: FromConst, Typ: typ}
}

func (cv *converter) translateExpr(expr ast.Expression, hint string) (exprResult, *token.CompileError) {
	if t, ok, cerr := literalTensor(expr); cerr != nil {
		return exprResult{}, cerr
	} else if ok {
		return exprResult{lit: t}, nil
	}

	switch e := expr.(type) {
	case *ast.NoneLiteral:
		return exprResult{omitted: true}, nil
	case *ast.Identifier:
		v, cerr := cv.lookup(e.Token, e.Value)
		if cerr != nil {
			return exprResult{}, cerr
		}
		switch val := v.(type) {
		case *Dynamic:
			return exprResult{dyn: val}, nil
		case *AttrRef:
			return exprResult{attr: val}, nil
		default:
			return exprResult{}, &token.CompileError{
				Token: e.Token, Kind: token.ErrSyntaxUnsupported,
				Msg: fmt.Sprintf("%q is a function, not a tensor value", e.Value),
			}
		}
	case *ast.PrefixExpression:
		return cv.translatePrefix(e, hint)
	case *ast.InfixExpression:
		return cv.translateInfix(e, hint)
	case *ast.CallExpression:
		outs, cerr := cv.translateCall(e, []string{hint})
		if cerr != nil {
			return exprResult{}, cerr
		}
		return exprResult{dyn: outs[0]}, nil
	case *ast.IndexExpression:
		d, cerr := cv.translateSubscript(e, hint)
		if cerr != nil {
			return exprResult{}, cerr
		}
		return exprResult{dyn: d}, nil
	}
	return exprResult{}, &token.CompileError{
		Token: expr.Tok(), Kind: token.ErrSyntaxUnsupported,
		Msg: fmt.Sprintf("unsupported expression %s", expr),
	}
}

func (cv *converter) translatePrefix(e *ast.PrefixExpression, hint string) (exprResult, *token.CompileError) {
	opName := map[string]string{"-": "Neg", "not": "Not"}[e.Operator]
	if e.Operator == "+" {
		return cv.translateExpr(e.Right, hint)
	}
	if opName == "" {
		return exprResult{}, &token.CompileError{
			Token: e.Token, Kind: token.ErrSyntaxUnsupported,
			Msg: fmt.Sprintf("unsupported unary operator %q", e.Operator),
		}
	}
	r, cerr := cv.translateExpr(e.Right, hint)
	if cerr != nil {
		return exprResult{}, cerr
	}
	arg, cerr := cv.asActual(e.Right.Tok(), r)
	if cerr != nil {
		return exprResult{}, cerr
	}
	outs, cerr := cv.emitOp(e.Token, opName, []actualArg{arg}, nil, []string{hint})
	if cerr != nil {
		return exprResult{}, cerr
	}
	return exprResult{dyn: outs[0]}, nil
}

// binaryOps maps script operators to operator names. != is not listed: it
// lowers to Equal followed by Not.
var binaryOps = map[string]string{
	"+":   "Add",
	"-":   "Sub",
	"*":   "Mul",
	"/":   "Div",
	"@":   "MatMul",
	"**":  "Pow",
	"%":   "Mod",
	"==":  "Equal",
	"<":   "Less",
	"<=":  "LessOrEqual",
	">":   "Greater",
	">=":  "GreaterOrEqual",
	"and": "And",
	"or":  "Or",
	"&":   "And",
	"|":   "Or",
}

func (cv *converter) translateInfix(e *ast.InfixExpression, hint string) (exprResult, *token.CompileError) {
	left, cerr := cv.translateExpr(e.Left, "tmp")
	if cerr != nil {
		return exprResult{}, cerr
	}
	right, cerr := cv.translateExpr(e.Right, "tmp")
	if cerr != nil {
		return exprResult{}, cerr
	}
	largs := make([]actualArg, 2)
	if largs[0], cerr = cv.asActual(e.Left.Tok(), left); cerr != nil {
		return exprResult{}, cerr
	}
	if largs[1], cerr = cv.asActual(e.Right.Tok(), right); cerr != nil {
		return exprResult{}, cerr
	}

	if e.Operator == "!=" {
		eq, cerr := cv.emitOp(e.Token, "Equal", largs, nil, []string{"tmp"})
		if cerr != nil {
			return exprResult{}, cerr
		}
		outs, cerr := cv.emitOp(e.Token, "Not", []actualArg{{tok: e.Token, value: eq[0]}}, nil, []string{hint})
		if cerr != nil {
			return exprResult{}, cerr
		}
		return exprResult{dyn: outs[0]}, nil
	}

	opName, ok := binaryOps[e.Operator]
	if !ok {
		return exprResult{}, &token.CompileError{
			Token: e.Token, Kind: token.ErrSyntaxUnsupported,
			Msg: fmt.Sprintf("unsupported binary operator %q", e.Operator),
		}
	}

	var attrs []ir.Attr
	if opName == "Mod" && floatModulo(largs) {
		attrs = append(attrs, ir.IntAttr("fmod", 1))
	}

	outs, cerr := cv.emitOp(e.Token, opName, largs, attrs, []string{hint})
	if cerr != nil {
		return exprResult{}, cerr
	}
	return exprResult{dyn: outs[0]}, nil
}

// floatModulo reports whether either operand is known to be floating
// point, which selects fmod semantics.
func floatModulo(args []actualArg) bool {
	isFloat := func(dt ir.DataType) bool { return dt == ir.Float || dt == ir.Double }
	for _, a := range args {
		if a.lit != nil && isFloat(a.lit.Elem) {
			return true
		}
		if a.value != nil && a.value.HasType() && isFloat(a.value.Typ.Elem) {
			return true
		}
	}
	return false
}

// emitOp resolves the actuals against the operator's signature, emits the
// node, and returns its outputs with whatever types the signature fixes.
func (cv *converter) emitOp(tok token.Token, opName string, args []actualArg, attrs []ir.Attr, outHints []string) ([]*Dynamic, *token.CompileError) {
	s, known := cv.opset.Lookup(opName)
	if !known {
		cv.c.warnf(tok, "no signature for operator %s: literal arguments keep their default types", opName)
		s = &schema.OpSchema{
			Name:   opName,
			Inputs: []schema.FormalParam{{Name: "args", TypeStr: "V", Option: schema.Variadic}},
		}
	}

	names, cerr := cv.castInputs(tok, s, args)
	if cerr != nil {
		return nil, cerr
	}

	outputs := make([]string, len(outHints))
	outs := make([]*Dynamic, len(outHints))
	for i, hint := range outHints {
		outputs[i] = cv.uniqueName(hint)
		outs[i] = &Dynamic{
			Name: outputs[i],
			Prov: FromIntermediate,
			Typ:  cv.outputType(s, args, i),
		}
	}
	cv.emit(opName, names, outputs, attrs...)
	return outs, nil
}

// outputType infers a node output's element type from the signature: a
// concrete output type is known outright, and an output sharing a type
// variable with a typed input takes that input's type.
func (cv *converter) outputType(s *schema.OpSchema, args []actualArg, outIdx int) ir.TensorType {
	var fp schema.FormalParam
	if outIdx < len(s.Outputs) {
		fp = s.Outputs[outIdx]
	} else if n := len(s.Outputs); n > 0 && s.Outputs[n-1].Option == schema.Variadic {
		fp = s.Outputs[n-1]
	} else {
		return ir.TensorType{}
	}
	if elem, ok := concreteDataType(fp.TypeStr); ok {
		return ir.TensorType{Elem: elem, Known: true}
	}
	for i, arg := range args {
		in, ok := s.ExpectedParam(i)
		if !ok || in.TypeStr != fp.TypeStr {
			continue
		}
		if arg.value != nil && arg.value.HasType() {
			return ir.TensorType{Elem: arg.value.Typ.Elem, Known: true}
		}
	}
	return ir.TensorType{}
}

// translateCall lowers a call expression: either an operator invocation
// through the opset, or a call to a nested function defined earlier.
func (cv *converter) translateCall(call *ast.CallExpression, outHints []string) ([]*Dynamic, *token.CompileError) {
	if attr, ok := call.Func.(*ast.AttributeExpression); ok {
		return cv.translateOpCall(call, attr, outHints)
	}
	ident, ok := call.Func.(*ast.Identifier)
	if !ok {
		return nil, &token.CompileError{
			Token: call.Token, Kind: token.ErrSyntaxUnsupported,
			Msg: "call target must be an operator or a function name",
		}
	}
	v, cerr := cv.lookup(ident.Token, ident.Value)
	if cerr != nil {
		return nil, cerr
	}
	nested, ok := v.(*NestedFunc)
	if !ok {
		return nil, &token.CompileError{
			Token: ident.Token, Kind: token.ErrSyntaxUnsupported,
			Msg: fmt.Sprintf("%q is not callable", ident.Value),
		}
	}
	return cv.translateNestedCall(call, nested, outHints)
}

func (cv *converter) translateOpCall(call *ast.CallExpression, attr *ast.AttributeExpression, outHints []string) ([]*Dynamic, *token.CompileError) {
	base, ok := attr.Left.(*ast.Identifier)
	if !ok || base.Value != "op" {
		return nil, &token.CompileError{
			Token: attr.Token, Kind: token.ErrSyntaxUnsupported,
			Msg: "operator calls must use the op namespace",
		}
	}
	opName := attr.Name.Value

	args := make([]actualArg, len(call.Args))
	for i, argExpr := range call.Args {
		r, cerr := cv.translateExpr(argExpr, "tmp")
		if cerr != nil {
			return nil, cerr
		}
		if args[i], cerr = cv.asActual(argExpr.Tok(), r); cerr != nil {
			return nil, cerr
		}
	}

	s, schemaKnown := cv.opset.Lookup(opName)
	var attrs []ir.Attr
	for _, kw := range call.Keywords {
		if schemaKnown && !s.HasAttribute(kw.Name.Value) {
			cv.c.warnf(kw.Name.Token, "%s has no attribute %q", opName, kw.Name.Value)
		}
		a, cerr := cv.attrValue(kw)
		if cerr != nil {
			return nil, cerr
		}
		attrs = append(attrs, a)
	}
	return cv.emitOp(call.Token, opName, args, attrs, outHints)
}

// attrValue converts a keyword argument to a node attribute. Attribute
// values are compile-time: constant expressions, lists of literals, or
// references to the enclosing function's attribute parameters.
func (cv *converter) attrValue(kw *ast.Keyword) (ir.Attr, *token.CompileError) {
	name := kw.Name.Value
	if ident, ok := kw.Value.(*ast.Identifier); ok {
		if v, found := Get(cv.locals, ident.Value); found {
			if ref, isRef := v.(*AttrRef); isRef {
				return ir.RefAttr(name, ref.Name), nil
			}
		}
	}
	t, ok, cerr := cv.foldConst(kw.Value)
	if cerr != nil {
		return ir.Attr{}, cerr
	}
	if !ok {
		return ir.Attr{}, &token.CompileError{
			Token: kw.Value.Tok(), Kind: token.ErrSyntaxUnsupported,
			Msg: fmt.Sprintf("attribute %q must be a constant or an attribute parameter", name),
		}
	}
	if t.Rank() == 0 {
		switch t.Elem {
		case ir.Int64:
			return ir.IntAttr(name, t.Int64s[0]), nil
		case ir.Bool:
			v := int64(0)
			if t.Bools[0] {
				v = 1
			}
			return ir.IntAttr(name, v), nil
		case ir.Float, ir.Double:
			return ir.FloatAttr(name, t.Floats[0]), nil
		case ir.String:
			return ir.StringAttr(name, t.Strings[0]), nil
		}
	}
	switch t.Elem {
	case ir.Int64:
		return ir.IntsAttr(name, t.Int64s), nil
	case ir.Float, ir.Double:
		return ir.Attr{Name: name, Kind: ir.AttrFloats, Floats: t.Floats}, nil
	case ir.String:
		return ir.Attr{Name: name, Kind: ir.AttrStrings, Strings: t.Strings}, nil
	}
	return ir.Attr{}, &token.CompileError{
		Token: kw.Value.Tok(), Kind: token.ErrTypeMismatch,
		Msg: fmt.Sprintf("attribute %q has unsupported element type %s", name, t.Elem),
	}
}

// translateNestedCall emits a call to a function defined in this scope. The
// captured outer values are appended as extra inputs, matching the extra
// formal inputs of the compiled nested function.
func (cv *converter) translateNestedCall(call *ast.CallExpression, nested *NestedFunc, outHints []string) ([]*Dynamic, *token.CompileError) {
	if len(call.Keywords) > 0 {
		return nil, &token.CompileError{
			Token: call.Token, Kind: token.ErrSyntaxUnsupported,
			Msg: "keyword arguments are not supported on function calls",
		}
	}
	declared := len(nested.Compiled.Inputs) - len(nested.Captures)
	if len(call.Args) != declared {
		return nil, &token.CompileError{
			Token: call.Token, Kind: token.ErrArity,
			Msg: fmt.Sprintf("%s expects %d arguments, got %d", nested.Stmt.Name.Value, declared, len(call.Args)),
		}
	}

	inputs := make([]string, 0, len(nested.Compiled.Inputs))
	for _, argExpr := range call.Args {
		r, cerr := cv.translateExpr(argExpr, "tmp")
		if cerr != nil {
			return nil, cerr
		}
		d, cerr := cv.asDynamic(argExpr.Tok(), r, "tmp")
		if cerr != nil {
			return nil, cerr
		}
		inputs = append(inputs, d.Name)
	}
	for _, in := range nested.Compiled.Inputs[declared:] {
		capt := nested.Captures[in.Name]
		d, ok := capt.(*Dynamic)
		if !ok {
			return nil, &token.CompileError{
				Token: call.Token, Kind: token.ErrSyntaxUnsupported,
				Msg: fmt.Sprintf("captured name %q is not a tensor value", in.Name),
			}
		}
		// the call must see the same binding the definition captured
		if cur, found := Get(cv.locals, in.Name); !found || !sameBinding(cur, capt) {
			return nil, &token.CompileError{
				Token: call.Token, Kind: token.ErrCapturedVariableMutation,
				Msg: fmt.Sprintf("captured name %q changed after %s was defined; captures are by value", in.Name, nested.Stmt.Name.Value),
			}
		}
		inputs = append(inputs, d.Name)
	}

	outputs := make([]string, len(outHints))
	outs := make([]*Dynamic, len(outHints))
	for i, hint := range outHints {
		outputs[i] = cv.uniqueName(hint)
		outs[i] = &Dynamic{Name: outputs[i], Prov: FromIntermediate}
	}
	n := cv.emit(nested.Stmt.Name.Value, inputs, outputs)
	n.Domain = localFunctionDomain
	return outs, nil
}

// sameBinding reports whether two bound values denote the same graph value.
func sameBinding(a, b Value) bool {
	da, okA := a.(*Dynamic)
	db, okB := b.(*Dynamic)
	if okA && okB {
		return da.Name == db.Name
	}
	return a == b
}

// localFunctionDomain marks calls to functions defined in the same script.
const localFunctionDomain = "local"
