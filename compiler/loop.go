package compiler

import (
	"fmt"

	"github.com/khushi-411/onnxscript/analysis"
	"github.com/khushi-411/onnxscript/ast"
	"github.com/khushi-411/onnxscript/ir"
	"github.com/khushi-411/onnxscript/token"
)

// Loops lower to a Loop node. The loop-carried state is every name the
// body assigns that the body also reads before assigning or that is live
// after the loop. The body subgraph takes the iteration counter, the
// incoming condition, and the states; it yields the continue condition
// followed by the updated states.

// loopStateVars returns the sorted loop-carried names, excluding the
// iteration variable.
func loopStateVars(body *ast.BlockStatement, liveOut analysis.StringSet, exclude string) []string {
	defs := analysis.BlockDefs(body)
	carried := defs.Intersect(analysis.ExposedUses(body).Union(liveOut))
	if exclude != "" {
		delete(carried, exclude)
	}
	return carried.Sorted()
}

func (cv *converter) translateFor(s *ast.ForStatement) *token.CompileError {
	boundRes, cerr := cv.translateExpr(s.Bound, "bound")
	if cerr != nil {
		return cerr
	}
	var boundName string
	if boundRes.lit != nil {
		boundName = cv.emitConst(castConst(boundRes.lit, ir.Int64), "bound").Name
	} else {
		d, cerr := cv.asDynamic(s.Bound.Tok(), boundRes, "bound")
		if cerr != nil {
			return cerr
		}
		boundName = d.Name
	}
	initCond := cv.emitConst(ir.ScalarBool(true), "true").Name

	states := loopStateVars(s.Body, s.LiveOut, s.Target.Value)
	return cv.emitLoop(s.Token, s.Body, states, loopHeader{
		bound:    boundName,
		initCond: initCond,
		iterVar:  s.Target.Value,
	})
}

func (cv *converter) translateWhile(s *ast.WhileStatement) *token.CompileError {
	testName, ok := s.Test.(*ast.Identifier)
	if !ok {
		return &token.CompileError{
			Token: s.Test.Tok(), Kind: token.ErrSyntaxUnsupported,
			Msg: "while condition must be a plain variable",
		}
	}
	v, cerr := cv.lookup(testName.Token, testName.Value)
	if cerr != nil {
		return cerr
	}
	cond, ok := v.(*Dynamic)
	if !ok {
		return &token.CompileError{
			Token: testName.Token, Kind: token.ErrSyntaxUnsupported,
			Msg: fmt.Sprintf("while condition %q is not a tensor value", testName.Value),
		}
	}

	states := loopStateVars(s.Body, s.LiveOut, "")
	return cv.emitLoop(s.Token, s.Body, states, loopHeader{
		initCond: cond.Name,
		condVar:  testName.Value,
	})
}

// loopHeader carries the pieces that differ between the two loop forms. A
// for loop has a trip-count bound and a condition that stays true unless a
// trailing break clears it; a while loop has no bound and recomputes its
// condition variable each iteration.
type loopHeader struct {
	bound    string // empty to omit the trip count
	initCond string
	iterVar  string // bound to the counter inside the body
	condVar  string // recomputed condition name, while loops only
}

func (cv *converter) emitLoop(tok token.Token, body *ast.BlockStatement, states []string, hdr loopHeader) *token.CompileError {
	g := ir.NewGraph(cv.uniqueName("loop_body"))
	cv.pushTarget(g)
	PushScope(&cv.locals, BlockScope)

	iterHint := hdr.iterVar
	if iterHint == "" {
		iterHint = "iter"
	}
	iterName := cv.uniqueName(iterHint)
	g.AddInput(iterName, ir.ScalarType(ir.Int64))
	condInName := cv.uniqueName("cond_in")
	g.AddInput(condInName, ir.ScalarType(ir.Bool))

	// record the outer state values before rebinding to body inputs
	inits := make([]string, len(states))
	for i, name := range states {
		v, cerr := cv.lookupState(tok, name)
		if cerr != nil {
			PopScope(&cv.locals)
			cv.popTarget()
			return cerr
		}
		inits[i] = v.Name
		inName := cv.uniqueName(name)
		g.AddInput(inName, ir.TensorType{})
		cv.bind(name, &Dynamic{Name: inName, Prov: FromIntermediate, Typ: elemOnly(v.Typ)})
	}
	if hdr.iterVar != "" {
		cv.bind(hdr.iterVar, &Dynamic{Name: iterName, Prov: FromLoopIndex, Typ: ir.ScalarType(ir.Int64)})
	}

	stmts, breakCond := splitTrailingBreak(body.Statements)
	cerr := cv.translateStmts(stmts)
	if cerr == nil {
		cerr = cv.finishLoopBody(tok, g, states, hdr, breakCond)
	}
	PopScope(&cv.locals)
	cv.popTarget()
	if cerr != nil {
		return cerr
	}

	node := &ir.Node{
		OpType: "Loop",
		Inputs: append([]string{hdr.bound, hdr.initCond}, inits...),
		Attrs:  []ir.Attr{ir.GraphAttr("body", g)},
	}
	for _, name := range states {
		outName := cv.uniqueName(name)
		node.Outputs = append(node.Outputs, outName)
		cv.bind(name, &Dynamic{Name: outName, Prov: FromIntermediate})
	}
	cv.target().AddNode(node)
	return nil
}

// lookupState resolves a loop-carried name to its value before the loop.
func (cv *converter) lookupState(tok token.Token, name string) (*Dynamic, *token.CompileError) {
	v, ok := Get(cv.locals, name)
	if !ok {
		return nil, &token.CompileError{
			Token: tok, Kind: token.ErrUnboundName,
			Msg: fmt.Sprintf("loop-carried name %q must be assigned before the loop", name),
		}
	}
	d, ok := v.(*Dynamic)
	if !ok {
		return nil, &token.CompileError{
			Token: tok, Kind: token.ErrSyntaxUnsupported,
			Msg: fmt.Sprintf("loop-carried name %q is not a tensor value", name),
		}
	}
	return d, nil
}

// splitTrailingBreak recognizes a final "if name: break" and returns the
// statements before it together with the break condition's name.
func splitTrailingBreak(stmts []ast.Statement) ([]ast.Statement, *ast.Identifier) {
	if len(stmts) == 0 {
		return stmts, nil
	}
	ifStmt, ok := stmts[len(stmts)-1].(*ast.IfStatement)
	if !ok || ifStmt.Else != nil || len(ifStmt.Then.Statements) != 1 {
		return stmts, nil
	}
	if _, isBreak := ifStmt.Then.Statements[0].(*ast.BreakStatement); !isBreak {
		return stmts, nil
	}
	name, ok := ifStmt.Test.(*ast.Identifier)
	if !ok {
		return stmts, nil
	}
	return stmts[:len(stmts)-1], name
}

// finishLoopBody wires the body graph's outputs: the continue condition
// first, then the updated states, copying through Identity when a state
// was not reassigned inside the body.
func (cv *converter) finishLoopBody(tok token.Token, g *ir.Graph, states []string, hdr loopHeader, breakCond *ast.Identifier) *token.CompileError {
	var condOut string
	switch {
	case breakCond != nil:
		v, cerr := cv.lookup(breakCond.Token, breakCond.Value)
		if cerr != nil {
			return cerr
		}
		d, ok := v.(*Dynamic)
		if !ok {
			return &token.CompileError{
				Token: breakCond.Token, Kind: token.ErrSyntaxUnsupported,
				Msg: fmt.Sprintf("break condition %q is not a tensor value", breakCond.Value),
			}
		}
		condOut = cv.uniqueName("keep_going")
		cv.emit("Not", []string{d.Name}, []string{condOut})
	case hdr.condVar != "":
		v, cerr := cv.lookupState(tok, hdr.condVar)
		if cerr != nil {
			return cerr
		}
		condOut = v.Name
		if _, produced := g.AssignedNames()[condOut]; !produced {
			condOut = cv.emitCopy(condOut, "cond_out")
		}
	default:
		condOut = cv.emitConst(ir.ScalarBool(true), "keep_going").Name
	}
	g.AddOutput(condOut, ir.ScalarType(ir.Bool))

	assigned := g.AssignedNames()
	for _, name := range states {
		v, cerr := cv.lookupState(tok, name)
		if cerr != nil {
			return cerr
		}
		outName := v.Name
		if _, produced := assigned[outName]; !produced {
			outName = cv.emitCopy(outName, name)
		}
		g.AddOutput(outName, ir.TensorType{})
	}
	return nil
}
