// Package analysis computes the dataflow facts the compiler needs before
// lowering control flow: per-statement definitions, exposed uses of a block,
// and live-variable sets at the exit of if and loop statements.
package analysis

import (
	"sort"

	"github.com/khushi-411/onnxscript/ast"
)

// StringSet is a set of variable names.
type StringSet map[string]struct{}

func NewStringSet(names ...string) StringSet {
	s := make(StringSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s StringSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s StringSet) Add(name string) {
	s[name] = struct{}{}
}

func (s StringSet) AddAll(other StringSet) {
	for n := range other {
		s[n] = struct{}{}
	}
}

func (s StringSet) Clone() StringSet {
	out := make(StringSet, len(s))
	out.AddAll(s)
	return out
}

func (s StringSet) Union(other StringSet) StringSet {
	out := s.Clone()
	out.AddAll(other)
	return out
}

func (s StringSet) Intersect(other StringSet) StringSet {
	out := StringSet{}
	for n := range s {
		if other.Has(n) {
			out.Add(n)
		}
	}
	return out
}

func (s StringSet) Minus(other StringSet) StringSet {
	out := StringSet{}
	for n := range s {
		if !other.Has(n) {
			out.Add(n)
		}
	}
	return out
}

func (s StringSet) Equal(other StringSet) bool {
	if len(s) != len(other) {
		return false
	}
	for n := range s {
		if !other.Has(n) {
			return false
		}
	}
	return true
}

// Sorted returns the members in lexicographic order. Lowering uses this to
// keep generated graph inputs and outputs deterministic.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Uses collects the variable names read by an expression.
func Uses(expr ast.Expression) StringSet {
	used := StringSet{}
	collectUses(expr, used)
	return used
}

func collectUses(expr ast.Expression, used StringSet) {
	switch e := expr.(type) {
	case nil:
	case *ast.Identifier:
		used.Add(e.Value)
	case *ast.PrefixExpression:
		collectUses(e.Right, used)
	case *ast.InfixExpression:
		collectUses(e.Left, used)
		collectUses(e.Right, used)
	case *ast.AttributeExpression:
		// op.Abs reads nothing; x.shape would read x, but the attribute
		// base is always an opset name in this language.
	case *ast.CallExpression:
		if _, isAttr := e.Func.(*ast.AttributeExpression); !isAttr {
			collectUses(e.Func, used)
		}
		for _, arg := range e.Args {
			collectUses(arg, used)
		}
		for _, kw := range e.Keywords {
			collectUses(kw.Value, used)
		}
	case *ast.IndexExpression:
		collectUses(e.Value, used)
		for _, idx := range e.Indices {
			collectUses(idx, used)
		}
	case *ast.SliceExpression:
		collectUses(e.Start, used)
		collectUses(e.Stop, used)
		collectUses(e.Step, used)
	case *ast.ListLiteral:
		for _, el := range e.Elements {
			collectUses(el, used)
		}
	}
}

// Defs returns the names a statement assigns.
func Defs(stmt ast.Statement) StringSet {
	defs := StringSet{}
	switch s := stmt.(type) {
	case *ast.AssignStatement:
		for _, target := range s.Targets {
			defs.Add(target.Value)
		}
	case *ast.FuncStatement:
		defs.Add(s.Name.Value)
	case *ast.ForStatement:
		defs.Add(s.Target.Value)
		defs.AddAll(BlockDefs(s.Body))
	case *ast.WhileStatement:
		defs.AddAll(BlockDefs(s.Body))
	case *ast.IfStatement:
		defs.AddAll(BlockDefs(s.Then))
		if s.Else != nil {
			defs.AddAll(BlockDefs(s.Else))
		}
	}
	return defs
}

// BlockDefs returns every name assigned anywhere in the block.
func BlockDefs(block *ast.BlockStatement) StringSet {
	defs := StringSet{}
	for _, stmt := range block.Statements {
		defs.AddAll(Defs(stmt))
	}
	return defs
}

// stmtUses returns the names a statement reads directly (not through
// nested blocks).
func stmtUses(stmt ast.Statement) StringSet {
	switch s := stmt.(type) {
	case *ast.AssignStatement:
		used := StringSet{}
		for _, v := range s.Values {
			used.AddAll(Uses(v))
		}
		return used
	case *ast.ReturnStatement:
		used := StringSet{}
		for _, v := range s.Values {
			used.AddAll(Uses(v))
		}
		return used
	case *ast.ExprStatement:
		return Uses(s.Expression)
	case *ast.IfStatement:
		return Uses(s.Test)
	case *ast.WhileStatement:
		return Uses(s.Test)
	case *ast.ForStatement:
		return Uses(s.Bound)
	case *ast.FuncStatement:
		// A nested definition reads its captured outer variables at the
		// point of definition.
		return ExposedUses(s.Body)
	}
	return StringSet{}
}

// ExposedUses returns the names a block reads before assigning them locally.
// These are the values the block needs from its enclosing scope.
func ExposedUses(block *ast.BlockStatement) StringSet {
	exposed := StringSet{}
	assigned := StringSet{}
	for _, stmt := range block.Statements {
		used := stmtUses(stmt)
		switch s := stmt.(type) {
		case *ast.IfStatement:
			used.AddAll(ExposedUses(s.Then))
			if s.Else != nil {
				used.AddAll(ExposedUses(s.Else))
			}
		case *ast.ForStatement:
			body := ExposedUses(s.Body)
			delete(body, s.Target.Value)
			used.AddAll(body)
		case *ast.WhileStatement:
			used.AddAll(ExposedUses(s.Body))
		}
		exposed.AddAll(used.Minus(assigned))
		assigned.AddAll(Defs(stmt))
	}
	return exposed
}

// liveness threads the backward pass; breakTargets carries the live-out of
// each enclosing loop so a break statement jumps to the right set.
type liveness struct {
	breakTargets []StringSet
}

// Run performs live-variable analysis over a function body, filling in the
// LiveOut field of every if, for, and while statement. Liveness at function
// exit is empty: return statements contribute their own uses.
func Run(fn *ast.FuncStatement) {
	lv := &liveness{}
	lv.visitBlock(fn.Body, StringSet{})
}

func (lv *liveness) visitBlock(block *ast.BlockStatement, liveOut StringSet) StringSet {
	live := liveOut
	for i := len(block.Statements) - 1; i >= 0; i-- {
		live = lv.visitStmt(block.Statements[i], live)
	}
	return live
}

func (lv *liveness) visitStmt(stmt ast.Statement, liveOut StringSet) StringSet {
	switch s := stmt.(type) {
	case *ast.AssignStatement:
		return liveOut.Minus(Defs(s)).Union(stmtUses(s))
	case *ast.ReturnStatement:
		used := StringSet{}
		for _, v := range s.Values {
			used.AddAll(Uses(v))
		}
		return used
	case *ast.ExprStatement:
		return liveOut.Union(Uses(s.Expression))
	case *ast.FuncStatement:
		// Captures are read when the nested function is defined.
		return liveOut.Minus(NewStringSet(s.Name.Value)).Union(ExposedUses(s.Body))
	case *ast.BreakStatement:
		if n := len(lv.breakTargets); n > 0 {
			return lv.breakTargets[n-1].Clone()
		}
		return liveOut
	case *ast.IfStatement:
		s.LiveOut = liveOut
		thenLive := lv.visitBlock(s.Then, liveOut.Clone())
		elseLive := liveOut
		if s.Else != nil {
			elseLive = lv.visitBlock(s.Else, liveOut.Clone())
		}
		return thenLive.Union(elseLive).Union(Uses(s.Test))
	case *ast.ForStatement:
		s.LiveOut = liveOut
		live := lv.loopFixpoint(s.Body, liveOut)
		live = live.Minus(NewStringSet(s.Target.Value))
		return live.Union(Uses(s.Bound))
	case *ast.WhileStatement:
		s.LiveOut = liveOut
		live := lv.loopFixpoint(s.Body, liveOut)
		return live.Union(Uses(s.Test))
	}
	return liveOut
}

// loopFixpoint iterates the body's backward pass until the live set at the
// loop head is stable, so values carried across iterations stay live.
func (lv *liveness) loopFixpoint(body *ast.BlockStatement, liveOut StringSet) StringSet {
	lv.breakTargets = append(lv.breakTargets, liveOut)
	defer func() { lv.breakTargets = lv.breakTargets[:len(lv.breakTargets)-1] }()

	curr := liveOut.Clone()
	for {
		next := curr.Union(lv.visitBlock(body, curr.Clone()))
		if next.Equal(curr) {
			return curr
		}
		curr = next
	}
}
