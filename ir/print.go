package ir

import (
	"fmt"
	"strings"
)

// The text form is deterministic: translating the same source twice prints
// the same string. It exists for debugging, golden tests, and the CLI's
// cached output.

func (v *Value) String() string {
	if !v.Type.Known {
		return v.Name
	}
	return v.Name + ": " + v.Type.String()
}

func valueList(vals []*Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

func (n *Node) writeTo(sb *strings.Builder, indent string) {
	sb.WriteString(indent)
	sb.WriteString(strings.Join(n.Outputs, ", "))
	sb.WriteString(" = ")
	if n.Domain != "" {
		sb.WriteString(n.Domain)
		sb.WriteString(".")
	}
	sb.WriteString(n.OpType)

	var simple []string
	var graphs []Attr
	for _, a := range n.Attrs {
		if a.Kind == AttrGraph {
			graphs = append(graphs, a)
			continue
		}
		simple = append(simple, a.Name+" = "+a.valueString())
	}
	if len(simple) > 0 {
		sb.WriteString(" <")
		sb.WriteString(strings.Join(simple, ", "))
		sb.WriteString(">")
	}
	sb.WriteString(" (")
	sb.WriteString(strings.Join(n.trimmedInputs(), ", "))
	sb.WriteString(")")
	sb.WriteString("\n")

	for _, a := range graphs {
		sb.WriteString(indent)
		sb.WriteString("  ")
		sb.WriteString(a.Name)
		sb.WriteString(" = ")
		a.G.writeTo(sb, indent+"  ")
	}
}

func (g *Graph) writeTo(sb *strings.Builder, indent string) {
	fmt.Fprintf(sb, "graph %s (%s) => (%s) {\n", g.Name, valueList(g.Inputs), valueList(g.Outputs))
	for _, n := range g.Nodes {
		n.writeTo(sb, indent+"  ")
	}
	sb.WriteString(indent)
	sb.WriteString("}\n")
}

func (g *Graph) String() string {
	var sb strings.Builder
	g.writeTo(&sb, "")
	return sb.String()
}

func (p AttrParam) String() string {
	s := p.Name + ": " + attrKindName(p.Kind)
	if p.HasDefault {
		s += " = " + p.Default.valueString()
	}
	return s
}

func attrKindName(k AttrKind) string {
	switch k {
	case AttrInt:
		return "int"
	case AttrFloat:
		return "float"
	case AttrString:
		return "string"
	case AttrInts:
		return "ints"
	case AttrFloats:
		return "floats"
	case AttrStrings:
		return "strings"
	case AttrTensor:
		return "tensor"
	case AttrGraph:
		return "graph"
	}
	return "attr"
}

func (f *Function) String() string {
	var sb strings.Builder
	f.writeTo(&sb, "")
	return sb.String()
}

func (f *Function) writeTo(sb *strings.Builder, indent string) {
	name := f.Name
	if f.Domain != "" {
		name = f.Domain + "." + name
	}
	sb.WriteString(indent)
	sb.WriteString(name)
	if len(f.AttrParams) > 0 {
		parts := make([]string, len(f.AttrParams))
		for i, p := range f.AttrParams {
			parts[i] = p.String()
		}
		sb.WriteString(" <")
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString(">")
	}
	fmt.Fprintf(sb, " (%s) => (%s) {\n", valueList(f.Inputs), valueList(f.Outputs))
	if f.DocString != "" {
		fmt.Fprintf(sb, "%s  # %s\n", indent, f.DocString)
	}
	for _, n := range f.Nodes {
		n.writeTo(sb, indent+"  ")
	}
	sb.WriteString(indent)
	sb.WriteString("}\n")
	for _, nested := range f.Functions {
		sb.WriteString("\n")
		nested.writeTo(sb, indent)
	}
}
