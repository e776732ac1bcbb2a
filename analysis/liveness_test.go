package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/khushi-411/onnxscript/ast"
	"github.com/khushi-411/onnxscript/lexer"
	"github.com/khushi-411/onnxscript/parser"
)

func parseFunc(t *testing.T, input string) *ast.FuncStatement {
	t.Helper()
	l := lexer.New("test.osc", input)
	p := parser.New(l)
	module := p.Parse()
	require.Empty(t, p.Errors())
	require.Len(t, module.Funcs, 1)
	return module.Funcs[0]
}

func TestIfLiveOut(t *testing.T) {
	fn := parseFunc(t, `def f(x):
    if x > 0:
        y = x
        dead = y + y
    else:
        y = -x
    return y
`)
	Run(fn)
	stmt := fn.Body.Statements[0].(*ast.IfStatement)
	require.Equal(t, []string{"y"}, StringSet(stmt.LiveOut).Sorted())
	// dead is assigned in the then branch but never live afterwards
	require.False(t, StringSet(stmt.LiveOut).Has("dead"))
}

func TestLoopCarriedLiveness(t *testing.T) {
	fn := parseFunc(t, `def f(n, x):
    s = op.Identity(x)
    p = op.Identity(x)
    for i in range(n):
        s = s + p
        p = p * x
    return s
`)
	Run(fn)
	loop := fn.Body.Statements[2].(*ast.ForStatement)
	// only s is needed after the loop, but p is loop-carried so it is
	// live at the loop head, not the exit
	require.Equal(t, []string{"s"}, StringSet(loop.LiveOut).Sorted())

	defs := Defs(loop)
	require.True(t, defs.Has("s"))
	require.True(t, defs.Has("p"))
	require.True(t, defs.Has("i"))

	exposed := ExposedUses(loop.Body)
	require.True(t, exposed.Has("s"))
	require.True(t, exposed.Has("p"))
	require.True(t, exposed.Has("x"))
	require.False(t, exposed.Has("i"))
}

func TestWhileLiveOut(t *testing.T) {
	fn := parseFunc(t, `def f(x, cond):
    while cond:
        x = x + x
        cond = x < 100
    return x
`)
	Run(fn)
	loop := fn.Body.Statements[0].(*ast.WhileStatement)
	require.Equal(t, []string{"x"}, StringSet(loop.LiveOut).Sorted())
}

func TestBreakUsesLoopExit(t *testing.T) {
	fn := parseFunc(t, `def f(x, stop):
    while True:
        x = x + x
        if stop: break
    return x
`)
	Run(fn)
	loop := fn.Body.Statements[0].(*ast.WhileStatement)
	require.Equal(t, []string{"x"}, StringSet(loop.LiveOut).Sorted())
}

func TestExposedUsesShadowing(t *testing.T) {
	fn := parseFunc(t, `def f(a, b):
    c = a + b
    d = c + a
    return d
`)
	exposed := ExposedUses(fn.Body)
	require.Equal(t, []string{"a", "b"}, exposed.Sorted())
}

func TestNestedFuncCaptures(t *testing.T) {
	fn := parseFunc(t, `def outer(x, w):
    def inner(y):
        return y + w
    z = inner(x)
    return z
`)
	inner := fn.Body.Statements[0].(*ast.FuncStatement)
	captures := ExposedUses(inner.Body)
	require.Equal(t, []string{"w"}, captures.Sorted())

	exposed := ExposedUses(fn.Body)
	require.True(t, exposed.Has("w"))
	require.True(t, exposed.Has("x"))
}

func TestUsesCollectsThroughSubscript(t *testing.T) {
	fn := parseFunc(t, `def f(A, i, j):
    y = A[i:j, 0]
    return y
`)
	assign := fn.Body.Statements[0].(*ast.AssignStatement)
	used := Uses(assign.Values[0])
	require.Equal(t, []string{"A", "i", "j"}, used.Sorted())
}
