package ir

// Value is a typed graph input or output.
type Value struct {
	Name string
	Type TensorType
}

// Graph is a sequence of nodes over named values, with declared inputs and
// outputs. Subgraphs attached to If and Loop nodes are Graphs too.
type Graph struct {
	Name    string
	Inputs  []*Value
	Outputs []*Value
	Nodes   []*Node
}

func NewGraph(name string) *Graph {
	return &Graph{Name: name}
}

func (g *Graph) AddInput(name string, typ TensorType) *Value {
	v := &Value{Name: name, Type: typ}
	g.Inputs = append(g.Inputs, v)
	return v
}

func (g *Graph) AddOutput(name string, typ TensorType) *Value {
	v := &Value{Name: name, Type: typ}
	g.Outputs = append(g.Outputs, v)
	return v
}

func (g *Graph) AddNode(n *Node) {
	g.Nodes = append(g.Nodes, n)
}

// AssignedNames returns the set of names produced by the graph's nodes.
// Graph inputs are not included.
func (g *Graph) AssignedNames() map[string]struct{} {
	assigned := map[string]struct{}{}
	for _, n := range g.Nodes {
		for _, out := range n.Outputs {
			assigned[out] = struct{}{}
		}
	}
	return assigned
}

// AttrParam declares a compile-time attribute parameter of a function, with
// an optional default.
type AttrParam struct {
	Name       string
	Kind       AttrKind
	HasDefault bool
	Default    Attr
}

// Function is a compiled script function: its graph, attribute parameters,
// and the nested functions defined inside it.
type Function struct {
	Graph

	Domain     string
	DocString  string
	OpsetVer   int
	AttrParams []AttrParam
	Functions  []*Function
}

func NewFunction(name string) *Function {
	return &Function{Graph: Graph{Name: name}}
}

func (f *Function) AddAttrParameter(p AttrParam) {
	f.AttrParams = append(f.AttrParams, p)
}

func (f *Function) AddNestedFunction(nested *Function) {
	f.Functions = append(f.Functions, nested)
}

// NestedFunction returns the nested function with the given name.
func (f *Function) NestedFunction(name string) (*Function, bool) {
	for _, nested := range f.Functions {
		if nested.Name == name {
			return nested, true
		}
	}
	return nil, false
}
