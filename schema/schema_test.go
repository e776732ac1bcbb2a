package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupAndAttributes(t *testing.T) {
	o := Default()

	add, ok := o.Lookup("Add")
	require.True(t, ok)
	require.Len(t, add.Inputs, 2)
	require.Equal(t, "T", add.Inputs[0].TypeStr)
	require.True(t, add.Inputs[0].IsTypeVar())

	mod, ok := o.Lookup("Mod")
	require.True(t, ok)
	require.True(t, mod.HasAttribute("fmod"))
	require.False(t, mod.HasAttribute("axis"))

	_, ok = o.Lookup("NoSuchOp")
	require.False(t, ok)
}

func TestComparisonOutputsBool(t *testing.T) {
	o := Default()
	less, ok := o.Lookup("Less")
	require.True(t, ok)
	require.Equal(t, "tensor(bool)", less.Outputs[0].TypeStr)
	require.False(t, less.Outputs[0].IsTypeVar())
}

func TestExpectedParamVariadic(t *testing.T) {
	o := Default()
	concat, _ := o.Lookup("Concat")

	for i := 0; i < 5; i++ {
		fp, ok := concat.ExpectedParam(i)
		require.True(t, ok)
		require.Equal(t, Variadic, fp.Option)
		require.True(t, fp.Homogeneous)
	}

	loop, _ := o.Lookup("Loop")
	fp, ok := loop.ExpectedParam(7)
	require.True(t, ok)
	require.False(t, fp.Homogeneous)
}

func TestExpectedParamOverflow(t *testing.T) {
	o := Default()
	add, _ := o.Lookup("Add")
	_, ok := add.ExpectedParam(2)
	require.False(t, ok)

	clip, _ := o.Lookup("Clip")
	fp, ok := clip.ExpectedParam(2)
	require.True(t, ok)
	require.Equal(t, Optional, fp.Option)
	_, ok = clip.ExpectedParam(3)
	require.False(t, ok)
}

func TestQualifiedName(t *testing.T) {
	require.Equal(t, "Add", Default().QualifiedName("Add"))
	custom := NewOpset("com.example", 1)
	require.Equal(t, "com.example.Gelu", custom.QualifiedName("Gelu"))
}
