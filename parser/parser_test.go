package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/khushi-411/onnxscript/ast"
	"github.com/khushi-411/onnxscript/lexer"
)

func parseModule(t *testing.T, input string) *ast.Module {
	t.Helper()
	l := lexer.New("test.osc", input)
	p := New(l)
	module := p.Parse()
	require.Empty(t, p.Errors())
	return module
}

func TestFuncSignature(t *testing.T) {
	input := `def clip(x, lo: float = 0.0, hi: float = 1.0) -> FLOAT:
    y = op.Min(op.Max(x, lo), hi)
    return y
`
	module := parseModule(t, input)
	require.Len(t, module.Funcs, 1)

	fn := module.Funcs[0]
	require.Equal(t, "clip", fn.Name.Value)
	require.Len(t, fn.Params, 3)
	require.Equal(t, "x", fn.Params[0].Name.Value)
	require.Nil(t, fn.Params[0].Annotation)
	require.Nil(t, fn.Params[0].Default)

	require.Equal(t, "lo", fn.Params[1].Name.Value)
	require.Equal(t, "float", fn.Params[1].Annotation.String())
	lit, ok := fn.Params[1].Default.(*ast.FloatLiteral)
	require.True(t, ok)
	require.Equal(t, 0.0, lit.Value)

	require.Len(t, fn.Returns, 1)
	require.Equal(t, "FLOAT", fn.Returns[0].String())
	require.Len(t, fn.Body.Statements, 2)
}

func TestTupleReturnAnnotations(t *testing.T) {
	input := `def split2(x) -> (FLOAT, FLOAT):
    a, b = op.Split(x)
    return a, b
`
	module := parseModule(t, input)
	fn := module.Funcs[0]
	require.Len(t, fn.Returns, 2)

	assign, ok := fn.Body.Statements[0].(*ast.AssignStatement)
	require.True(t, ok)
	require.Len(t, assign.Targets, 2)
	require.Equal(t, "a", assign.Targets[0].Value)
	require.Equal(t, "b", assign.Targets[1].Value)

	ret, ok := fn.Body.Statements[1].(*ast.ReturnStatement)
	require.True(t, ok)
	require.Len(t, ret.Values, 2)
}

func TestTupleAssignment(t *testing.T) {
	input := `def f(x, y):
    a, b = y, x
    return a, b
`
	module := parseModule(t, input)
	fn := module.Funcs[0]

	assign, ok := fn.Body.Statements[0].(*ast.AssignStatement)
	require.True(t, ok)
	require.Len(t, assign.Targets, 2)
	require.Len(t, assign.Values, 2)
	require.Equal(t, "y", assign.Values[0].String())
	require.Equal(t, "x", assign.Values[1].String())
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"y = a + b * c", "(a + (b * c))"},
		{"y = -a * b", "((-a) * b)"},
		{"y = a ** b ** c", "(a ** (b ** c))"},
		{"y = a % b + c", "((a % b) + c)"},
		{"y = a @ b + c", "((a @ b) + c)"},
		{"y = a < b and b < c", "((a < b) and (b < c))"},
		{"y = not a == b", "(not (a == b))"},
		{"y = (a + b) * c", "((a + b) * c)"},
		{"y = a != b", "(a != b)"},
	}
	for _, tt := range tests {
		input := "def f(a, b, c):\n    " + tt.input + "\n    return y\n"
		module := parseModule(t, input)
		assign, ok := module.Funcs[0].Body.Statements[0].(*ast.AssignStatement)
		require.True(t, ok, tt.input)
		require.Equal(t, tt.expected, assign.Values[0].String(), tt.input)
	}
}

func TestCallWithKeywords(t *testing.T) {
	input := `def f(x):
    y = op.ReduceSum(x, keepdims=0)
    return y
`
	module := parseModule(t, input)
	assign := module.Funcs[0].Body.Statements[0].(*ast.AssignStatement)
	call, ok := assign.Values[0].(*ast.CallExpression)
	require.True(t, ok)

	attr, ok := call.Func.(*ast.AttributeExpression)
	require.True(t, ok)
	require.Equal(t, "op", attr.Left.String())
	require.Equal(t, "ReduceSum", attr.Name.Value)

	require.Len(t, call.Args, 1)
	require.Len(t, call.Keywords, 1)
	require.Equal(t, "keepdims", call.Keywords[0].Name.Value)
}

func TestPositionalAfterKeywordFails(t *testing.T) {
	input := `def f(x):
    y = op.Clip(min=0, x)
    return y
`
	l := lexer.New("test.osc", input)
	p := New(l)
	p.Parse()
	require.NotEmpty(t, p.Errors())
	require.Contains(t, p.Errors()[0], "positional argument follows keyword argument")
}

func TestSubscriptForms(t *testing.T) {
	input := `def f(A, i, j):
    a = A[2]
    b = A[1:4]
    c = A[1:4:2, 3]
    d = A[:, j]
    e = A[i, j]
    g = A[::-1]
    return a
`
	module := parseModule(t, input)
	stmts := module.Funcs[0].Body.Statements

	a := stmts[0].(*ast.AssignStatement).Values[0].(*ast.IndexExpression)
	require.Len(t, a.Indices, 1)
	_, isInt := a.Indices[0].(*ast.IntegerLiteral)
	require.True(t, isInt)

	b := stmts[1].(*ast.AssignStatement).Values[0].(*ast.IndexExpression)
	sl, ok := b.Indices[0].(*ast.SliceExpression)
	require.True(t, ok)
	require.NotNil(t, sl.Start)
	require.NotNil(t, sl.Stop)
	require.Nil(t, sl.Step)

	c := stmts[2].(*ast.AssignStatement).Values[0].(*ast.IndexExpression)
	require.Len(t, c.Indices, 2)
	sl = c.Indices[0].(*ast.SliceExpression)
	require.NotNil(t, sl.Step)
	_, isInt = c.Indices[1].(*ast.IntegerLiteral)
	require.True(t, isInt)

	d := stmts[3].(*ast.AssignStatement).Values[0].(*ast.IndexExpression)
	sl, ok = d.Indices[0].(*ast.SliceExpression)
	require.True(t, ok)
	require.True(t, sl.IsFull())

	e := stmts[4].(*ast.AssignStatement).Values[0].(*ast.IndexExpression)
	require.Len(t, e.Indices, 2)
	_, isIdent := e.Indices[0].(*ast.Identifier)
	require.True(t, isIdent)

	g := stmts[5].(*ast.AssignStatement).Values[0].(*ast.IndexExpression)
	sl = g.Indices[0].(*ast.SliceExpression)
	require.Nil(t, sl.Start)
	require.Nil(t, sl.Stop)
	require.NotNil(t, sl.Step)
	require.Equal(t, "(-1)", sl.Step.String())
}

func TestIfElifElse(t *testing.T) {
	input := `def f(x):
    if x > 0:
        y = x
    elif x < 0:
        y = -x
    else:
        y = op.CastLike(0, x)
    return y
`
	module := parseModule(t, input)
	stmt, ok := module.Funcs[0].Body.Statements[0].(*ast.IfStatement)
	require.True(t, ok)
	require.NotNil(t, stmt.Else)
	require.Len(t, stmt.Else.Statements, 1)

	nested, ok := stmt.Else.Statements[0].(*ast.IfStatement)
	require.True(t, ok)
	require.NotNil(t, nested.Else)
	require.Len(t, nested.Then.Statements, 1)
}

func TestForRangeLoop(t *testing.T) {
	input := `def f(n, x):
    s = op.Identity(x)
    for i in range(n):
        s = s + x
    return s
`
	module := parseModule(t, input)
	stmt, ok := module.Funcs[0].Body.Statements[1].(*ast.ForStatement)
	require.True(t, ok)
	require.Equal(t, "i", stmt.Target.Value)
	require.Equal(t, "n", stmt.Bound.String())
	require.Len(t, stmt.Body.Statements, 1)
}

func TestForRequiresRange(t *testing.T) {
	input := `def f(xs):
    for x in xs:
        y = x
    return y
`
	l := lexer.New("test.osc", input)
	p := New(l)
	p.Parse()
	require.NotEmpty(t, p.Errors())
	require.Contains(t, p.Errors()[0], "range")
}

func TestWhileWithInlineBreak(t *testing.T) {
	input := `def f(x, cond):
    while cond:
        x = x + x
        if done: break
    return x
`
	module := parseModule(t, input)
	stmt, ok := module.Funcs[0].Body.Statements[0].(*ast.WhileStatement)
	require.True(t, ok)
	require.Len(t, stmt.Body.Statements, 2)

	inner, ok := stmt.Body.Statements[1].(*ast.IfStatement)
	require.True(t, ok)
	require.Len(t, inner.Then.Statements, 1)
	_, ok = inner.Then.Statements[0].(*ast.BreakStatement)
	require.True(t, ok)
}

func TestNestedFunc(t *testing.T) {
	input := `def outer(x):
    def inner(y):
        return y + y
    z = inner(x)
    return z
`
	module := parseModule(t, input)
	stmts := module.Funcs[0].Body.Statements
	require.Len(t, stmts, 3)
	inner, ok := stmts[0].(*ast.FuncStatement)
	require.True(t, ok)
	require.Equal(t, "inner", inner.Name.Value)
}

func TestListLiteralAndNone(t *testing.T) {
	input := `def f(x):
    axes = [0, 1]
    y = op.Clip(x, None, 6.0)
    return y
`
	module := parseModule(t, input)
	stmts := module.Funcs[0].Body.Statements

	list, ok := stmts[0].(*ast.AssignStatement).Values[0].(*ast.ListLiteral)
	require.True(t, ok)
	require.Len(t, list.Elements, 2)

	call := stmts[1].(*ast.AssignStatement).Values[0].(*ast.CallExpression)
	require.Len(t, call.Args, 3)
	_, isNone := call.Args[1].(*ast.NoneLiteral)
	require.True(t, isNone)
}

func TestDocstringStatement(t *testing.T) {
	input := `def f(x):
    "adds x to itself"
    y = x + x
    return y
`
	module := parseModule(t, input)
	stmts := module.Funcs[0].Body.Statements
	require.Len(t, stmts, 3)
	doc, ok := stmts[0].(*ast.ExprStatement)
	require.True(t, ok)
	str, ok := doc.Expression.(*ast.StringLiteral)
	require.True(t, ok)
	require.Equal(t, "adds x to itself", str.Value)
}
