package compiler

import (
	"maps"
)

type ScopeKind int

const (
	FuncScope ScopeKind = iota
	BlockScope
)

type Scope[T any] struct {
	Elems     map[string]T
	ScopeKind ScopeKind
}

func NewScope[T any](sk ScopeKind) Scope[T] {
	return Scope[T]{
		Elems:     make(map[string]T),
		ScopeKind: sk,
	}
}

func PushScope[T any](scopes *[]Scope[T], sk ScopeKind) {
	*scopes = append(*scopes, NewScope[T](sk))
}

func PopScope[T any](scopes *[]Scope[T]) {
	if len(*scopes) == 1 {
		panic("cannot pop outermost scope")
	}
	*scopes = (*scopes)[:len(*scopes)-1]
}

// Put does not need a pointer, as it modifies the map within a scope, not the slice itself.
func Put[T any](scopes []Scope[T], name string, elem T) {
	scopes[len(scopes)-1].Elems[name] = elem
}

// Get searches from the innermost scope outward, stopping at a function
// boundary: a function body never reads the bindings of its lexical parent
// directly, captures are bound explicitly at definition time.
func Get[T any](scopes []Scope[T], name string) (T, bool) {
	for i := len(scopes) - 1; i >= 0; i-- {
		if e, ok := scopes[i].Elems[name]; ok {
			return e, true
		}
		if scopes[i].ScopeKind == FuncScope {
			break
		}
	}

	var zero T
	return zero, false
}

// CurrentBindings flattens the visible bindings of the innermost function,
// innermost scope winning. If and loop lowering snapshots these to rebind
// reconciled values after a branch.
func CurrentBindings[T any](scopes []Scope[T]) map[string]T {
	start := 0
	for i := len(scopes) - 1; i >= 0; i-- {
		if scopes[i].ScopeKind == FuncScope {
			start = i
			break
		}
	}
	out := map[string]T{}
	for i := start; i < len(scopes); i++ {
		maps.Copy(out, scopes[i].Elems)
	}
	return out
}
