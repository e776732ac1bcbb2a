package compiler

import (
	"fmt"
	"sort"

	"github.com/khushi-411/onnxscript/analysis"
	"github.com/khushi-411/onnxscript/ast"
	"github.com/khushi-411/onnxscript/ir"
	"github.com/khushi-411/onnxscript/token"
)

// Parameter annotations split a function's formals in two: tensor-type
// annotations (FLOAT, INT64, ...) and missing annotations declare graph
// inputs, while the compile-time kinds float, int, str, and bool declare
// attribute parameters. A default value is only allowed on an attribute
// parameter.

var attrKindByAnnotation = map[string]ir.AttrKind{
	"float": ir.AttrFloat,
	"int":   ir.AttrInt,
	"str":   ir.AttrString,
	"bool":  ir.AttrInt,
}

func (cv *converter) translateFunction(fnStmt *ast.FuncStatement) (*ir.Function, *token.CompileError) {
	return cv.translateFunctionWithCaptures(fnStmt, nil, nil)
}

// translateFunctionWithCaptures lowers a function body. Captured outer
// names, when present, become extra graph inputs after the declared ones.
func (cv *converter) translateFunctionWithCaptures(fnStmt *ast.FuncStatement, captures []string, capturedVals map[string]Value) (*ir.Function, *token.CompileError) {
	cv.fn = ir.NewFunction(fnStmt.Name.Value)
	cv.fn.OpsetVer = cv.opset.Version
	cv.locals = []Scope[Value]{NewScope[Value](FuncScope)}
	cv.pushTarget(&cv.fn.Graph)

	for _, param := range fnStmt.Params {
		if cerr := cv.declareParam(param); cerr != nil {
			return nil, cerr
		}
	}
	for _, name := range captures {
		inName := cv.uniqueName(name)
		typ := ir.TensorType{}
		if d, ok := capturedVals[name].(*Dynamic); ok {
			typ = elemOnly(d.Typ)
		}
		cv.fn.AddInput(inName, typ)
		cv.bind(name, &Dynamic{Name: inName, Prov: FromInput, Typ: typ})
	}

	stmts := fnStmt.Body.Statements
	if doc, rest := docstring(stmts); doc != "" {
		cv.fn.DocString = doc
		stmts = rest
	}

	var ret *ast.ReturnStatement
	if n := len(stmts); n > 0 {
		if r, ok := stmts[n-1].(*ast.ReturnStatement); ok {
			ret = r
			stmts = stmts[:n-1]
		}
	}
	if cerr := cv.translateStmts(stmts); cerr != nil {
		return nil, cerr
	}
	if ret == nil {
		cv.c.warnf(fnStmt.Token, "function %s returns nothing", fnStmt.Name.Value)
		return cv.fn, nil
	}
	if cerr := cv.translateReturn(fnStmt, ret); cerr != nil {
		return nil, cerr
	}
	return cv.fn, nil
}

// docstring extracts a leading string-literal statement.
func docstring(stmts []ast.Statement) (string, []ast.Statement) {
	if len(stmts) == 0 {
		return "", stmts
	}
	es, ok := stmts[0].(*ast.ExprStatement)
	if !ok {
		return "", stmts
	}
	str, ok := es.Expression.(*ast.StringLiteral)
	if !ok {
		return "", stmts
	}
	return str.Value, stmts[1:]
}

func (cv *converter) declareParam(param *ast.Param) *token.CompileError {
	name := param.Name.Value

	var annotation string
	if param.Annotation != nil {
		ident, ok := param.Annotation.(*ast.Identifier)
		if !ok {
			return &token.CompileError{
				Token: param.Annotation.Tok(), Kind: token.ErrSyntaxUnsupported,
				Msg: fmt.Sprintf("parameter %q has an unsupported annotation", name),
			}
		}
		annotation = ident.Value
	}

	if kind, isAttr := attrKindByAnnotation[annotation]; isAttr {
		p := ir.AttrParam{Name: name, Kind: kind}
		if param.Default != nil {
			t, ok, cerr := literalTensor(param.Default)
			if cerr != nil {
				return cerr
			}
			if !ok {
				return &token.CompileError{
					Token: param.Default.Tok(), Kind: token.ErrSyntaxUnsupported,
					Msg: fmt.Sprintf("default of %q must be a literal", name),
				}
			}
			def, cerr := defaultAttr(param, name, kind, t)
			if cerr != nil {
				return cerr
			}
			p.HasDefault = true
			p.Default = def
		}
		cv.fn.AddAttrParameter(p)
		cv.bind(name, &AttrRef{Name: name, Kind: kind})
		return nil
	}

	if param.Default != nil {
		return &token.CompileError{
			Token: param.Default.Tok(), Kind: token.ErrSyntaxUnsupported,
			Msg: fmt.Sprintf("input %q cannot have a default: only attribute parameters can", name),
		}
	}

	typ := ir.TensorType{}
	if annotation != "" {
		elem, ok := ir.DataTypeByName(annotation)
		if !ok {
			cv.c.warnf(param.Name.Token, "unknown type annotation %q on %q", annotation, name)
		} else {
			typ = ir.TensorType{Elem: elem, Known: true}
		}
	}
	inName := cv.uniqueName(name)
	cv.fn.AddInput(inName, typ)
	cv.bind(name, &Dynamic{Name: inName, Prov: FromInput, Typ: typ})
	return nil
}

func defaultAttr(param *ast.Param, name string, kind ir.AttrKind, t *ir.Tensor) (ir.Attr, *token.CompileError) {
	mismatch := func() (ir.Attr, *token.CompileError) {
		return ir.Attr{}, &token.CompileError{
			Token: param.Default.Tok(), Kind: token.ErrTypeMismatch,
			Msg: fmt.Sprintf("default of %q does not match its declared kind", name),
		}
	}
	if t.Rank() != 0 {
		return mismatch()
	}
	switch kind {
	case ir.AttrFloat:
		switch t.Elem {
		case ir.Float, ir.Double:
			return ir.FloatAttr(name, t.Floats[0]), nil
		case ir.Int64:
			return ir.FloatAttr(name, float64(t.Int64s[0])), nil
		}
	case ir.AttrInt:
		switch t.Elem {
		case ir.Int64:
			return ir.IntAttr(name, t.Int64s[0]), nil
		case ir.Bool:
			v := int64(0)
			if t.Bools[0] {
				v = 1
			}
			return ir.IntAttr(name, v), nil
		}
	case ir.AttrString:
		if t.Elem == ir.String {
			return ir.StringAttr(name, t.Strings[0]), nil
		}
	}
	return mismatch()
}

func (cv *converter) translateStmts(stmts []ast.Statement) *token.CompileError {
	for _, stmt := range stmts {
		if cerr := cv.translateStmt(stmt); cerr != nil {
			return cerr
		}
	}
	return nil
}

func (cv *converter) translateStmt(stmt ast.Statement) *token.CompileError {
	switch s := stmt.(type) {
	case *ast.AssignStatement:
		return cv.translateAssign(s)
	case *ast.IfStatement:
		return cv.translateIf(s)
	case *ast.ForStatement:
		return cv.translateFor(s)
	case *ast.WhileStatement:
		return cv.translateWhile(s)
	case *ast.FuncStatement:
		return cv.translateNestedDef(s)
	case *ast.ExprStatement:
		if _, isDoc := s.Expression.(*ast.StringLiteral); isDoc {
			return nil
		}
		cv.c.warnf(s.Token, "expression statement has no effect")
		return nil
	case *ast.ReturnStatement:
		return &token.CompileError{
			Token: s.Token, Kind: token.ErrSyntaxUnsupported,
			Msg: "return is only allowed as the last statement of a function",
		}
	case *ast.BreakStatement:
		return &token.CompileError{
			Token: s.Token, Kind: token.ErrSyntaxUnsupported,
			Msg: "break is only allowed as a trailing \"if cond: break\" in a loop",
		}
	}
	return &token.CompileError{
		Token: stmt.Tok(), Kind: token.ErrSyntaxUnsupported,
		Msg: fmt.Sprintf("unsupported statement %T", stmt),
	}
}

func (cv *converter) translateAssign(s *ast.AssignStatement) *token.CompileError {
	for _, target := range s.Targets {
		if _, captured := cv.capturedNames[target.Value]; captured {
			return &token.CompileError{
				Token: target.Token, Kind: token.ErrCapturedVariableMutation,
				Msg: fmt.Sprintf("cannot assign to %q: it is captured from the enclosing function", target.Value),
			}
		}
	}

	if len(s.Targets) > 1 && len(s.Values) == 1 {
		call, ok := s.Values[0].(*ast.CallExpression)
		if !ok {
			return &token.CompileError{
				Token: s.Token, Kind: token.ErrSyntaxUnsupported,
				Msg: "a multiple-target assignment needs a call or one value per target",
			}
		}
		hints := make([]string, len(s.Targets))
		for i, target := range s.Targets {
			hints[i] = target.Value
		}
		outs, cerr := cv.translateCall(call, hints)
		if cerr != nil {
			return cerr
		}
		for i, target := range s.Targets {
			cv.bind(target.Value, outs[i])
		}
		return nil
	}

	if len(s.Values) != len(s.Targets) {
		return &token.CompileError{
			Token: s.Token, Kind: token.ErrArity,
			Msg: fmt.Sprintf("assignment has %d targets but %d values", len(s.Targets), len(s.Values)),
		}
	}

	// evaluate every RHS before binding any target, so a, b = b, a reads
	// the old values
	results := make([]exprResult, len(s.Values))
	for i, value := range s.Values {
		r, cerr := cv.translateExpr(value, s.Targets[i].Value)
		if cerr != nil {
			return cerr
		}
		results[i] = r
	}
	for i, target := range s.Targets {
		if cerr := cv.bindAssigned(s, target, s.Values[i], results[i]); cerr != nil {
			return cerr
		}
	}
	return nil
}

func (cv *converter) bindAssigned(s *ast.AssignStatement, target *ast.Identifier, value ast.Expression, r exprResult) *token.CompileError {
	var d *Dynamic
	switch {
	case r.attr != nil:
		cv.bind(target.Value, r.attr)
		return nil
	case r.omitted:
		return &token.CompileError{
			Token: s.Token, Kind: token.ErrSyntaxUnsupported,
			Msg: "cannot assign None to a name",
		}
	case r.lit != nil:
		d = cv.emitConst(r.lit, target.Value)
	case r.dyn != nil && isAlias(value):
		// x = y makes a fresh value, not an alias
		out := cv.emitCopy(r.dyn.Name, target.Value)
		d = &Dynamic{Name: out, Prov: FromIntermediate, Typ: r.dyn.Typ, Const: r.dyn.Const}
	case r.dyn != nil:
		d = r.dyn
	}

	if s.Annotation != nil {
		if ident, ok := s.Annotation.(*ast.Identifier); ok {
			if elem, known := ir.DataTypeByName(ident.Value); known {
				d.Typ = ir.TensorType{Elem: elem, Known: true}
			}
		}
	}
	cv.bind(target.Value, d)
	return nil
}

// isAlias reports whether the RHS is a bare name, which would otherwise
// just rebind an existing graph value.
func isAlias(expr ast.Expression) bool {
	_, ok := expr.(*ast.Identifier)
	return ok
}

func (cv *converter) translateNestedDef(s *ast.FuncStatement) *token.CompileError {
	analysis.Run(s)

	params := map[string]struct{}{}
	for _, p := range s.Params {
		params[p.Name.Value] = struct{}{}
	}

	// a parameter of the nested function shadows the outer binding
	visible := CurrentBindings(cv.locals)
	for _, name := range analysis.BlockDefs(s.Body).Sorted() {
		if _, shadowed := params[name]; shadowed {
			continue
		}
		if _, bound := visible[name]; bound {
			return &token.CompileError{
				Token: s.Token, Kind: token.ErrCapturedVariableMutation,
				Msg: fmt.Sprintf("nested function %s assigns %q, which is bound in the enclosing function; captures are by value", s.Name.Value, name),
			}
		}
	}
	capturedVals := map[string]Value{}
	var captureNames []string
	for name := range analysis.ExposedUses(s.Body) {
		if _, shadowed := params[name]; shadowed {
			continue
		}
		if v, ok := visible[name]; ok {
			capturedVals[name] = v
			captureNames = append(captureNames, name)
		}
	}
	sort.Strings(captureNames)

	sub := newConverter(cv.c, cv)
	sub.capturedNames = map[string]struct{}{}
	for _, name := range captureNames {
		sub.capturedNames[name] = struct{}{}
	}
	fn, cerr := sub.translateFunctionWithCaptures(s, captureNames, capturedVals)
	if cerr != nil {
		return cerr
	}
	fn.Domain = localFunctionDomain
	cv.fn.AddNestedFunction(fn)
	cv.bind(s.Name.Value, &NestedFunc{Stmt: s, Compiled: fn, Captures: capturedVals})
	return nil
}

// translateReturn declares the function outputs. A returned input and a
// name returned twice both go through an Identity copy: a graph output
// must be a node result, and output names cannot repeat.
func (cv *converter) translateReturn(fnStmt *ast.FuncStatement, ret *ast.ReturnStatement) *token.CompileError {
	if len(fnStmt.Returns) > 0 && len(fnStmt.Returns) != len(ret.Values) {
		return &token.CompileError{
			Token: ret.Token, Kind: token.ErrArity,
			Msg: fmt.Sprintf("function declares %d results but returns %d", len(fnStmt.Returns), len(ret.Values)),
		}
	}

	seen := map[string]struct{}{}
	for i, value := range ret.Values {
		r, cerr := cv.translateExpr(value, "return_val")
		if cerr != nil {
			return cerr
		}
		d, cerr := cv.asDynamic(value.Tok(), r, "return_val")
		if cerr != nil {
			return cerr
		}

		outName := d.Name
		_, dup := seen[outName]
		if d.Prov == FromInput || dup {
			outName = cv.emitCopy(d.Name, "return_val")
		}
		seen[outName] = struct{}{}

		typ := elemOnly(d.Typ)
		if i < len(fnStmt.Returns) {
			if ident, ok := fnStmt.Returns[i].(*ast.Identifier); ok {
				if elem, known := ir.DataTypeByName(ident.Value); known {
					typ = ir.TensorType{Elem: elem, Known: true}
				}
			}
		}
		cv.fn.AddOutput(outName, typ)
	}
	return nil
}
