package compiler

import (
	"fmt"
	"math"
	"sort"

	"github.com/khushi-411/onnxscript/ast"
	"github.com/khushi-411/onnxscript/ir"
	"github.com/khushi-411/onnxscript/token"
)

// Subscript lowering partitions the index positions by what each one does
// to its axis. A lone constant scalar index is a single Gather; when ranges
// are involved, or several constant scalars collapse at once, they fold
// into one Slice node with a Squeeze removing the collapsed axes. Computed
// indices always become one Gather per axis, applied after the slice. A
// subscript of bare ":" positions copies the value unchanged.

type indexClass int

const (
	idxFull indexClass = iota // a bare ":", no-op on the axis
	idxSlice
	idxScalar
	idxTensor
)

type axisIndex struct {
	axis  int
	class indexClass
	slice *ast.SliceExpression

	// for idxScalar and idxTensor
	lit *ir.Tensor
	dyn *Dynamic
	tok token.Token
}

func (cv *converter) classifyIndex(axis int, expr ast.Expression) (axisIndex, *token.CompileError) {
	out := axisIndex{axis: axis, tok: expr.Tok()}
	if sl, ok := expr.(*ast.SliceExpression); ok {
		if sl.IsFull() {
			out.class = idxFull
		} else {
			out.class = idxSlice
			out.slice = sl
		}
		return out, nil
	}
	if t, ok, cerr := cv.foldConst(expr); cerr != nil {
		return out, cerr
	} else if ok {
		if t.Elem != ir.Int64 || t.Rank() != 0 {
			return out, &token.CompileError{
				Token: expr.Tok(), Kind: token.ErrTypeMismatch,
				Msg: "subscript index must be an integer",
			}
		}
		out.class = idxScalar
		out.lit = t
		return out, nil
	}
	r, cerr := cv.translateExpr(expr, "index")
	if cerr != nil {
		return out, cerr
	}
	d, cerr := cv.asDynamic(expr.Tok(), r, "index")
	if cerr != nil {
		return out, cerr
	}
	out.dyn = d
	out.class = idxTensor
	return out, nil
}

func (cv *converter) translateSubscript(e *ast.IndexExpression, hint string) (*Dynamic, *token.CompileError) {
	base, cerr := cv.translateExpr(e.Value, "tmp")
	if cerr != nil {
		return nil, cerr
	}
	data, cerr := cv.asDynamic(e.Value.Tok(), base, "tmp")
	if cerr != nil {
		return nil, cerr
	}

	var sliced, scalars, tensors []axisIndex
	for axis, idxExpr := range e.Indices {
		ai, cerr := cv.classifyIndex(axis, idxExpr)
		if cerr != nil {
			return nil, cerr
		}
		switch ai.class {
		case idxSlice:
			sliced = append(sliced, ai)
		case idxScalar:
			scalars = append(scalars, ai)
		case idxTensor:
			tensors = append(tensors, ai)
		}
	}

	result := data
	var removed []int64
	switch {
	case len(sliced) > 0 || len(scalars) > 1:
		result, removed, cerr = cv.emitSliceSqueeze(result, sliced, scalars, hintFor(hint, len(tensors) == 0))
		if cerr != nil {
			return nil, cerr
		}
	case len(scalars) == 1:
		// a lone constant index is a plain Gather on its axis
		ai := scalars[0]
		idx := cv.emitConst(ai.lit, "index")
		out := cv.uniqueName(hintFor(hint, len(tensors) == 0))
		cv.emit("Gather", []string{result.Name, idx.Name}, []string{out},
			ir.IntAttr("axis", int64(ai.axis)))
		result = &Dynamic{Name: out, Prov: FromIntermediate, Typ: elemOnly(data.Typ)}
		removed = []int64{int64(ai.axis)}
	case len(tensors) == 0:
		// every position is a bare ":", a pass-through copy
		out := cv.emitCopy(result.Name, hint)
		return &Dynamic{Name: out, Prov: FromIntermediate, Typ: result.Typ}, nil
	}

	// apply computed indices axis by axis; each axis removed so far shifts
	// the remaining axes left
	for i, ti := range tensors {
		shift := int64(0)
		for _, ax := range removed {
			if ax < int64(ti.axis) {
				shift++
			}
		}
		outHint := hintFor(hint, i == len(tensors)-1)
		out := cv.uniqueName(outHint)
		cv.emit("Gather", []string{result.Name, ti.dyn.Name}, []string{out},
			ir.IntAttr("axis", int64(ti.axis)-shift))
		if ti.dyn.Typ.Known && ti.dyn.Typ.Dims != nil && len(ti.dyn.Typ.Dims) == 0 {
			// a rank-0 index drops its axis from the result
			removed = append(removed, int64(ti.axis))
		}
		result = &Dynamic{Name: out, Prov: FromIntermediate, Typ: elemOnly(data.Typ)}
	}
	return result, nil
}

func hintFor(hint string, last bool) string {
	if last {
		return hint
	}
	return "tmp"
}

// elemOnly keeps the element type of a value while dropping its shape.
func elemOnly(t ir.TensorType) ir.TensorType {
	if !t.Known {
		return ir.TensorType{}
	}
	return ir.TensorType{Elem: t.Elem, Known: true}
}

// sliceComponents accumulates the per-axis starts, ends, axes, and steps of
// one Slice node. Each component is a length-1 INT64 tensor; a component
// whose axes are all literal collapses into one cached constant.
type sliceComponents struct {
	starts, ends, steps componentList
	axes                []int64
}

type component struct {
	lit   int64
	isLit bool
	name  string // graph name of a dynamic length-1 vector
}

type componentList struct {
	comps  []component
	allLit bool
}

func newComponentList() componentList {
	return componentList{allLit: true}
}

func (cl *componentList) addLiteral(v int64) {
	cl.comps = append(cl.comps, component{lit: v, isLit: true})
}

func (cl *componentList) addDynamic(name string) {
	cl.comps = append(cl.comps, component{name: name})
	cl.allLit = false
}

// resolve returns the graph name of the full component vector. An
// all-literal component becomes a single cached constant; a mixed one
// concatenates its parts.
func (cl *componentList) resolve(cv *converter, hint string) string {
	if cl.allLit {
		vals := make([]int64, len(cl.comps))
		for i, c := range cl.comps {
			vals[i] = c.lit
		}
		return cv.emitConst(ir.VectorInt64(vals), hint).Name
	}
	names := make([]string, len(cl.comps))
	for i, c := range cl.comps {
		if c.isLit {
			names[i] = cv.emitConst(ir.VectorInt64([]int64{c.lit}), "int64").Name
		} else {
			names[i] = c.name
		}
	}
	if len(names) == 1 {
		return names[0]
	}
	out := cv.uniqueName(hint)
	cv.emit("Concat", names, []string{out}, ir.IntAttr("axis", 0))
	return out
}

func (cv *converter) emitSliceSqueeze(data *Dynamic, sliced, scalars []axisIndex, hint string) (*Dynamic, []int64, *token.CompileError) {
	comps := sliceComponents{
		starts: newComponentList(),
		ends:   newComponentList(),
		steps:  newComponentList(),
	}

	all := append(append([]axisIndex(nil), sliced...), scalars...)
	sort.Slice(all, func(i, j int) bool { return all[i].axis < all[j].axis })

	var squeezeAxes []int64
	for _, ai := range all {
		comps.axes = append(comps.axes, int64(ai.axis))
		if ai.class == idxScalar {
			// i:i+1 with unit step, then squeeze the axis away
			squeezeAxes = append(squeezeAxes, int64(ai.axis))
			v := ai.lit.Int64s[0]
			comps.starts.addLiteral(v)
			if v == -1 {
				comps.ends.addLiteral(math.MaxInt64)
			} else {
				comps.ends.addLiteral(v + 1)
			}
			comps.steps.addLiteral(1)
			continue
		}
		if cerr := cv.addSliceAxis(ai, &comps); cerr != nil {
			return nil, nil, cerr
		}
	}

	inputs := []string{
		data.Name,
		comps.starts.resolve(cv, "starts"),
		comps.ends.resolve(cv, "ends"),
		cv.emitConst(ir.VectorInt64(comps.axes), "axes").Name,
		comps.steps.resolve(cv, "steps"),
	}
	outHint := hint
	if len(squeezeAxes) > 0 {
		outHint = "tmp"
	}
	slicedOut := cv.uniqueName(outHint)
	cv.emit("Slice", inputs, []string{slicedOut})
	result := &Dynamic{Name: slicedOut, Prov: FromIntermediate, Typ: elemOnly(data.Typ)}

	if len(squeezeAxes) > 0 {
		axesName := cv.emitConst(ir.VectorInt64(squeezeAxes), "axes").Name
		out := cv.uniqueName(hint)
		cv.emit("Squeeze", []string{result.Name, axesName}, []string{out})
		result = &Dynamic{Name: out, Prov: FromIntermediate, Typ: elemOnly(data.Typ)}
	}
	return result, squeezeAxes, nil
}

// addSliceAxis lowers one start:stop:step index. The step must be a
// literal when given: the defaults of the other components depend on its
// sign, which has to be known here.
func (cv *converter) addSliceAxis(ai axisIndex, comps *sliceComponents) *token.CompileError {
	step := int64(1)
	if ai.slice.Step != nil {
		v, ok := cv.foldInt(ai.slice.Step)
		if !ok {
			return &token.CompileError{
				Token: ai.slice.Step.Tok(), Kind: token.ErrSyntaxUnsupported,
				Msg: "slice step must be a constant integer",
			}
		}
		if v == 0 {
			return &token.CompileError{
				Token: ai.slice.Step.Tok(), Kind: token.ErrSyntaxUnsupported,
				Msg: "slice step cannot be zero",
			}
		}
		step = v
	}

	defaultStart, defaultEnd := int64(0), int64(math.MaxInt64)
	if step < 0 {
		defaultStart, defaultEnd = math.MaxInt64, math.MinInt64
	}

	if cerr := cv.addSliceComponent(ai.slice.Start, defaultStart, &comps.starts); cerr != nil {
		return cerr
	}
	if cerr := cv.addSliceComponent(ai.slice.Stop, defaultEnd, &comps.ends); cerr != nil {
		return cerr
	}
	comps.steps.addLiteral(step)
	return nil
}

func (cv *converter) addSliceComponent(expr ast.Expression, def int64, cl *componentList) *token.CompileError {
	if expr == nil {
		cl.addLiteral(def)
		return nil
	}
	if v, ok := cv.foldInt(expr); ok {
		cl.addLiteral(v)
		return nil
	}
	r, cerr := cv.translateExpr(expr, "index")
	if cerr != nil {
		return cerr
	}
	d, cerr := cv.asDynamic(expr.Tok(), r, "index")
	if cerr != nil {
		return cerr
	}
	cl.addDynamic(cv.reshapeTo1D(d.Name))
	return nil
}

// reshapeTo1D turns a scalar index into the length-1 vector the Slice
// inputs require.
func (cv *converter) reshapeTo1D(name string) string {
	shape := cv.emitConst(ir.VectorInt64([]int64{1}), "int64").Name
	out := cv.uniqueName(fmt.Sprintf("%s_1d", name))
	cv.emit("Reshape", []string{name, shape}, []string{out})
	return out
}
