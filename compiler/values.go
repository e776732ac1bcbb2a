package compiler

import (
	"github.com/khushi-411/onnxscript/ast"
	"github.com/khushi-411/onnxscript/ir"
)

// Provenance records where a dynamic value came from. Loop lowering and
// return lowering use it: a function input returned directly needs a copy,
// and a loop index is always a rank-0 INT64.
type Provenance int

const (
	FromInput Provenance = iota
	FromLoopIndex
	FromIntermediate
	FromConst
)

// Value is what a script name is bound to during translation.
type Value interface {
	valueNode()
}

// Dynamic is a graph value: a function input, a loop index, or the output
// of an emitted node. Typ is the declared or inferred type; Const is set
// when the value is a known constant, so later lowering (slice steps,
// attribute folding) can read it.
type Dynamic struct {
	Name  string
	Prov  Provenance
	Typ   ir.TensorType
	Const *ir.Tensor
}

func (d *Dynamic) valueNode() {}

// HasType reports whether the element type of the value is known.
func (d *Dynamic) HasType() bool { return d.Typ.Known }

// AttrRef is a reference to an attribute parameter of the enclosing
// function. It has no graph value; uses flow into node attributes.
type AttrRef struct {
	Name string
	Kind ir.AttrKind
}

func (a *AttrRef) valueNode() {}

// NestedFunc is a function defined inside the current one, callable by
// name. Captures holds the outer values it closed over, bound at the point
// of definition.
type NestedFunc struct {
	Stmt     *ast.FuncStatement
	Compiled *ir.Function
	Captures map[string]Value
}

func (n *NestedFunc) valueNode() {}
