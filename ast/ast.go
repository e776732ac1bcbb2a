package ast

import (
	"bytes"
	"strings"

	"github.com/khushi-411/onnxscript/token"
)

// The base Node interface
type Node interface {
	Tok() token.Token
	String() string
}

// All statement nodes implement this
type Statement interface {
	Node
	statementNode()
}

// All expression nodes implement this
type Expression interface {
	Node
	expressionNode()
}

// Module is a parsed source file: a sequence of top-level function
// definitions.
type Module struct {
	Funcs []*FuncStatement
}

func (m *Module) Tok() token.Token {
	if len(m.Funcs) > 0 {
		return m.Funcs[0].Tok()
	}
	return token.Token{Type: token.EOF}
}

func (m *Module) String() string {
	var out bytes.Buffer
	for _, f := range m.Funcs {
		out.WriteString(f.String())
		out.WriteString("\n")
	}
	return out.String()
}

func printVec(a []Expression) string {
	parts := make([]string, len(a))
	for i, e := range a {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
