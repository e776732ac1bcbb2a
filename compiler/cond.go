package compiler

import (
	"fmt"

	"github.com/khushi-411/onnxscript/analysis"
	"github.com/khushi-411/onnxscript/ast"
	"github.com/khushi-411/onnxscript/ir"
	"github.com/khushi-411/onnxscript/token"
)

// An if statement lowers to an If node with one subgraph per branch. Its
// outputs are the names the statement assigns that are live afterwards;
// each branch graph must yield every output, copying the outer value
// through an Identity when the branch leaves a name untouched.

func (cv *converter) translateIf(s *ast.IfStatement) *token.CompileError {
	defs := analysis.BlockDefs(s.Then)
	if s.Else != nil {
		defs.AddAll(analysis.BlockDefs(s.Else))
	}
	outputs := analysis.StringSet(s.LiveOut).Intersect(defs).Sorted()
	if len(outputs) == 0 {
		return &token.CompileError{
			Token: s.Token, Kind: token.ErrSyntaxUnsupported,
			Msg: "if statement assigns no name that is used afterwards",
		}
	}
	if testName, ok := s.Test.(*ast.Identifier); ok {
		for _, out := range outputs {
			if out == testName.Value {
				return &token.CompileError{
					Token: s.Token, Kind: token.ErrSyntaxUnsupported,
					Msg: fmt.Sprintf("if statement cannot reassign its own condition %q", out),
				}
			}
		}
	}

	testRes, cerr := cv.translateExpr(s.Test, "cond")
	if cerr != nil {
		return cerr
	}
	test, cerr := cv.asDynamic(s.Test.Tok(), testRes, "cond")
	if cerr != nil {
		return cerr
	}

	thenGraph, thenTypes, cerr := cv.translateBranch(s.Token, "then", s.Then, outputs)
	if cerr != nil {
		return cerr
	}
	elseBody := s.Else
	if elseBody == nil {
		elseBody = &ast.BlockStatement{Token: s.Token}
	}
	elseGraph, elseTypes, cerr := cv.translateBranch(s.Token, "else", elseBody, outputs)
	if cerr != nil {
		return cerr
	}

	node := &ir.Node{
		OpType: "If",
		Inputs: []string{test.Name},
		Attrs: []ir.Attr{
			ir.GraphAttr("then_branch", thenGraph),
			ir.GraphAttr("else_branch", elseGraph),
		},
	}
	for i, name := range outputs {
		outName := cv.uniqueName(name)
		node.Outputs = append(node.Outputs, outName)
		typ := ir.TensorType{}
		if thenTypes[i].Known && elseTypes[i].Known && thenTypes[i].Elem == elseTypes[i].Elem {
			typ = ir.TensorType{Elem: thenTypes[i].Elem, Known: true}
		}
		cv.bind(name, &Dynamic{Name: outName, Prov: FromIntermediate, Typ: typ})
	}
	cv.target().AddNode(node)
	return nil
}

// translateBranch lowers one branch body into a subgraph yielding the
// given output names in order.
func (cv *converter) translateBranch(tok token.Token, label string, body *ast.BlockStatement, outputs []string) (*ir.Graph, []ir.TensorType, *token.CompileError) {
	g := ir.NewGraph(cv.uniqueName(label))
	cv.pushTarget(g)
	PushScope(&cv.locals, BlockScope)
	defer func() {
		PopScope(&cv.locals)
		cv.popTarget()
	}()

	if cerr := cv.translateStmts(body.Statements); cerr != nil {
		return nil, nil, cerr
	}

	types := make([]ir.TensorType, len(outputs))
	assigned := g.AssignedNames()
	for i, name := range outputs {
		v, ok := Get(cv.locals, name)
		if !ok {
			return nil, nil, &token.CompileError{
				Token: tok, Kind: token.ErrUnboundName,
				Msg: fmt.Sprintf("%q must be assigned in the %s branch or before the if statement", name, label),
			}
		}
		d, ok := v.(*Dynamic)
		if !ok {
			return nil, nil, &token.CompileError{
				Token: tok, Kind: token.ErrSyntaxUnsupported,
				Msg: fmt.Sprintf("branch output %q is not a tensor value", name),
			}
		}
		outName := d.Name
		if _, producedHere := assigned[outName]; !producedHere {
			// the branch only reads the outer value: copy it so the
			// subgraph has an output of its own
			outName = cv.emitCopy(d.Name, name)
		}
		g.AddOutput(outName, ir.TensorType{})
		types[i] = d.Typ
	}
	return g, types, nil
}
