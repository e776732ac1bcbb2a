package ir

import (
	"fmt"
	"strings"
)

// AttrKind discriminates the payload of an Attr.
type AttrKind int

const (
	AttrInt AttrKind = iota
	AttrFloat
	AttrString
	AttrInts
	AttrFloats
	AttrStrings
	AttrTensor
	AttrGraph
	AttrRef
)

// Attr is a node attribute. AttrRef names an attribute parameter of the
// enclosing function instead of carrying a value.
type Attr struct {
	Name string
	Kind AttrKind

	I       int64
	F       float64
	S       string
	Ints    []int64
	Floats  []float64
	Strings []string
	T       *Tensor
	G       *Graph
	RefName string
}

func IntAttr(name string, v int64) Attr { return Attr{Name: name, Kind: AttrInt, I: v} }
func FloatAttr(name string, v float64) Attr {
	return Attr{Name: name, Kind: AttrFloat, F: v}
}
func StringAttr(name, v string) Attr { return Attr{Name: name, Kind: AttrString, S: v} }
func IntsAttr(name string, vs []int64) Attr {
	return Attr{Name: name, Kind: AttrInts, Ints: vs}
}
func TensorAttr(name string, t *Tensor) Attr {
	return Attr{Name: name, Kind: AttrTensor, T: t}
}
func GraphAttr(name string, g *Graph) Attr { return Attr{Name: name, Kind: AttrGraph, G: g} }
func RefAttr(name, ref string) Attr        { return Attr{Name: name, Kind: AttrRef, RefName: ref} }

func (a Attr) valueString() string {
	switch a.Kind {
	case AttrInt:
		return fmt.Sprintf("%d", a.I)
	case AttrFloat:
		return formatFloat(a.F)
	case AttrString:
		return fmt.Sprintf("%q", a.S)
	case AttrInts:
		parts := make([]string, len(a.Ints))
		for i, v := range a.Ints {
			parts[i] = fmt.Sprintf("%d", v)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case AttrFloats:
		parts := make([]string, len(a.Floats))
		for i, v := range a.Floats {
			parts[i] = formatFloat(v)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case AttrStrings:
		parts := make([]string, len(a.Strings))
		for i, v := range a.Strings {
			parts[i] = fmt.Sprintf("%q", v)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case AttrTensor:
		return a.T.String()
	case AttrRef:
		return "@" + a.RefName
	}
	return ""
}

// Node is one operator invocation. An empty string in Inputs marks an
// omitted optional input; trailing omitted inputs are trimmed when printed.
type Node struct {
	OpType string
	Domain string

	Inputs  []string
	Outputs []string
	Attrs   []Attr
}

// Attr returns a named attribute of the node.
func (n *Node) Attr(name string) (Attr, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attr{}, false
}

// trimmedInputs drops trailing omitted optional inputs.
func (n *Node) trimmedInputs() []string {
	in := n.Inputs
	for len(in) > 0 && in[len(in)-1] == "" {
		in = in[:len(in)-1]
	}
	return in
}
