// Package compiler lowers parsed script functions into graph form. Each
// function becomes a dataflow graph of operator nodes; if and loop
// statements become nodes carrying nested subgraphs. Literal arguments are
// typed by unification against operator signatures, so the same source
// means the same thing whether compiled or evaluated eagerly.
package compiler

import (
	"fmt"

	"github.com/khushi-411/onnxscript/analysis"
	"github.com/khushi-411/onnxscript/ast"
	"github.com/khushi-411/onnxscript/ir"
	"github.com/khushi-411/onnxscript/schema"
	"github.com/khushi-411/onnxscript/token"
)

// Compiler translates a module of script functions against one operator
// set. Warnings accumulate across functions and are not fatal.
type Compiler struct {
	Opset    *schema.Opset
	Warnings []string
}

func New(opset *schema.Opset) *Compiler {
	if opset == nil {
		opset = schema.Default()
	}
	return &Compiler{Opset: opset}
}

func (c *Compiler) warnf(tok token.Token, format string, args ...any) {
	msg := fmt.Sprintf("%d:%d: ", tok.Line, tok.Column) + fmt.Sprintf(format, args...)
	c.Warnings = append(c.Warnings, msg)
}

// Translate lowers every function in the module. Translation is
// deterministic: the same module yields graphs that print identically.
func (c *Compiler) Translate(module *ast.Module) ([]*ir.Function, error) {
	funcs := make([]*ir.Function, 0, len(module.Funcs))
	for _, fnStmt := range module.Funcs {
		fn, cerr := c.TranslateFunction(fnStmt)
		if cerr != nil {
			return nil, cerr
		}
		funcs = append(funcs, fn)
	}
	return funcs, nil
}

// TranslateFunction lowers a single top-level function.
func (c *Compiler) TranslateFunction(fnStmt *ast.FuncStatement) (*ir.Function, *token.CompileError) {
	analysis.Run(fnStmt)
	cv := newConverter(c, nil)
	return cv.translateFunction(fnStmt)
}

// converter holds the per-function translation state. Nested function
// definitions get their own converter whose outer pointer allows capture
// binding at the definition site.
type converter struct {
	c     *Compiler
	opset *schema.Opset

	fn     *ir.Function
	locals []Scope[Value]

	// graph emission target stack; subgraph translation pushes here
	targets []*ir.Graph

	used       map[string]struct{}
	constCache map[string]constEntry

	// names captured from the enclosing function; assigning one is an error
	capturedNames map[string]struct{}

	outer *converter
}

func newConverter(c *Compiler, outer *converter) *converter {
	return &converter{
		c:          c,
		opset:      c.Opset,
		used:       map[string]struct{}{},
		constCache: map[string]constEntry{},
		outer:      outer,
	}
}

// uniqueName returns hint if unused, otherwise hint_0, hint_1, and so on.
// Every generated graph name goes through here, so translation order alone
// determines naming.
func (cv *converter) uniqueName(hint string) string {
	if hint == "" {
		hint = "tmp"
	}
	if _, taken := cv.used[hint]; !taken {
		cv.used[hint] = struct{}{}
		return hint
	}
	for i := 0; ; i++ {
		name := fmt.Sprintf("%s_%d", hint, i)
		if _, taken := cv.used[name]; !taken {
			cv.used[name] = struct{}{}
			return name
		}
	}
}

func (cv *converter) target() *ir.Graph {
	return cv.targets[len(cv.targets)-1]
}

func (cv *converter) pushTarget(g *ir.Graph) {
	cv.targets = append(cv.targets, g)
}

func (cv *converter) popTarget() {
	cv.targets = cv.targets[:len(cv.targets)-1]
}

// emit appends one node to the current graph and returns it.
func (cv *converter) emit(op string, inputs, outputs []string, attrs ...ir.Attr) *ir.Node {
	n := &ir.Node{OpType: op, Inputs: inputs, Outputs: outputs, Attrs: attrs}
	cv.target().AddNode(n)
	return n
}

// constEntry remembers which graph a cached constant was emitted into. A
// cached name is only reusable while that graph is still on the target
// stack: subgraphs read outer names, never the other way around.
type constEntry struct {
	name string
	g    *ir.Graph
}

// emitConst materializes a constant tensor as a Constant node and returns
// its value. Rank-0 and rank-1 INT64 constants are cached per function so
// repeated subscript lowering shares one node.
func (cv *converter) emitConst(t *ir.Tensor, hint string) *Dynamic {
	cacheable := t.Elem == ir.Int64 && t.Rank() <= 1
	key := t.String()
	if cacheable {
		if e, ok := cv.constCache[key]; ok && cv.targetVisible(e.g) {
			return &Dynamic{Name: e.name, Prov: FromConst, Typ: constType(t), Const: t}
		}
	}
	name := cv.uniqueName(hint)
	cv.emit("Constant", nil, []string{name}, ir.TensorAttr("value", t))
	if cacheable {
		cv.constCache[key] = constEntry{name: name, g: cv.target()}
	}
	return &Dynamic{Name: name, Prov: FromConst, Typ: constType(t), Const: t}
}

func (cv *converter) targetVisible(g *ir.Graph) bool {
	for _, t := range cv.targets {
		if t == g {
			return true
		}
	}
	return false
}

func constType(t *ir.Tensor) ir.TensorType {
	return ir.TensorType{Elem: t.Elem, Dims: t.Dims, Known: true}
}

// emitCopy emits an Identity node binding value under a fresh graph name.
func (cv *converter) emitCopy(input string, hint string) string {
	out := cv.uniqueName(hint)
	cv.emit("Identity", []string{input}, []string{out})
	return out
}

func (cv *converter) bind(name string, v Value) {
	Put(cv.locals, name, v)
}

// lookup resolves a script name to its bound value.
func (cv *converter) lookup(tok token.Token, name string) (Value, *token.CompileError) {
	if v, ok := Get(cv.locals, name); ok {
		return v, nil
	}
	return nil, &token.CompileError{
		Token: tok, Kind: token.ErrUnboundName,
		Msg: fmt.Sprintf("name %q is not defined", name),
	}
}
