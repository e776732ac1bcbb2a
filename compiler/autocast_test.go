package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/khushi-411/onnxscript/ir"
	"github.com/khushi-411/onnxscript/schema"
	"github.com/khushi-411/onnxscript/tensor"
)

func TestEagerCastBindsFirstTypedActual(t *testing.T) {
	add, _ := schema.Default().Lookup("Add")

	x, _ := tensor.FromScalar(2.5)
	out, err := EagerCastInputs(add, []any{x, 1})
	require.NoError(t, err)

	y := out[1].(*tensor.Tensor)
	require.Equal(t, ir.Float, y.Elem)
	require.Equal(t, []float64{1}, y.Floats)
}

func TestEagerCastFirstWriterWins(t *testing.T) {
	where, _ := schema.Default().Lookup("Where")

	// X fixes T; Y follows it even though it comes later
	x, _ := tensor.FromScalar(int64(3))
	cond, _ := tensor.FromScalar(true)
	out, err := EagerCastInputs(where, []any{cond, x, 0.5})
	require.NoError(t, err)
	require.Equal(t, ir.Int64, out[2].(*tensor.Tensor).Elem)
}

func TestEagerCastConcreteFormal(t *testing.T) {
	where, _ := schema.Default().Lookup("Where")

	x, _ := tensor.FromScalar(1.0)
	out, err := EagerCastInputs(where, []any{1, x, x})
	require.NoError(t, err)
	// the condition formal is concrete tensor(bool)
	require.Equal(t, ir.Bool, out[0].(*tensor.Tensor).Elem)
}

func TestEagerCastListPromotion(t *testing.T) {
	add, _ := schema.Default().Lookup("Add")

	x, _ := tensor.FromScalar(1.5)
	out, err := EagerCastInputs(add, []any{x, []any{1, 2}})
	require.NoError(t, err)
	v := out[1].(*tensor.Tensor)
	require.Equal(t, ir.Float, v.Elem)
	require.Equal(t, []float64{1, 2}, v.Floats)
}

func TestEagerCastVariadicPassThrough(t *testing.T) {
	loop, _ := schema.Default().Lookup("Loop")

	m, _ := tensor.FromScalar(int64(4))
	cond, _ := tensor.FromScalar(true)
	state := "opaque"
	out, err := EagerCastInputs(loop, []any{m, cond, state, state})
	require.NoError(t, err)
	// non-homogeneous variadic actuals are not touched
	require.Equal(t, state, out[2])
	require.Equal(t, state, out[3])
}

func TestEagerCastArity(t *testing.T) {
	add, _ := schema.Default().Lookup("Add")
	x, _ := tensor.FromScalar(1.0)
	_, err := EagerCastInputs(add, []any{x, x, x})
	require.Error(t, err)

	concat, _ := schema.Default().Lookup("Concat")
	_, err = EagerCastInputs(concat, []any{x, x, x, x})
	require.NoError(t, err)
}

func TestStaticAndEagerPromotionAgree(t *testing.T) {
	// the static path types the literal 1 in x+1 by the sibling input; the
	// eager path must pick the same element type
	fn, _ := translate(t, `def f(x: FLOAT):
    y = x + 1
    return y
`)
	consts := nodesOf(fn, "Constant")
	require.Len(t, consts, 1)
	attr, _ := consts[0].Attr("value")

	add, _ := schema.Default().Lookup("Add")
	x, _ := tensor.FromScalar(1.0)
	out, err := EagerCastInputs(add, []any{x, 1})
	require.NoError(t, err)
	require.Equal(t, attr.T.Elem, out[1].(*tensor.Tensor).Elem)
}
