package ast

import (
	"bytes"
	"strings"

	"github.com/khushi-411/onnxscript/token"
)

// Param is one formal parameter of a function definition. Annotation and
// Default are optional; an attribute-typed annotation makes the parameter a
// compile-time attribute instead of a dataflow input.
type Param struct {
	Name       *Identifier
	Annotation Expression
	Default    Expression
}

func (p *Param) String() string {
	s := p.Name.String()
	if p.Annotation != nil {
		s += ": " + p.Annotation.String()
	}
	if p.Default != nil {
		s += " = " + p.Default.String()
	}
	return s
}

// FuncStatement is a function definition, top-level or nested.
type FuncStatement struct {
	Token   token.Token // the def token
	Name    *Identifier
	Params  []*Param
	Returns []Expression // return-type annotations, may be empty
	Body    *BlockStatement
}

func (fs *FuncStatement) statementNode()   {}
func (fs *FuncStatement) Tok() token.Token { return fs.Token }
func (fs *FuncStatement) String() string {
	var out bytes.Buffer
	params := make([]string, len(fs.Params))
	for i, p := range fs.Params {
		params[i] = p.String()
	}
	out.WriteString("def ")
	out.WriteString(fs.Name.String())
	out.WriteString("(")
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(")")
	if len(fs.Returns) > 0 {
		out.WriteString(" -> ")
		out.WriteString(printVec(fs.Returns))
	}
	out.WriteString(": ")
	out.WriteString(fs.Body.String())
	return out.String()
}

type BlockStatement struct {
	Token      token.Token // the INDENT token
	Statements []Statement
}

func (bs *BlockStatement) statementNode()   {}
func (bs *BlockStatement) Tok() token.Token { return bs.Token }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	for i, s := range bs.Statements {
		if i > 0 {
			out.WriteString("; ")
		}
		out.WriteString(s.String())
	}
	return out.String()
}

// AssignStatement binds RHS expressions to one or more target names:
// either one value (a multi-output call may fill several targets) or one
// value per target. Annotation is only legal with a single target.
type AssignStatement struct {
	Token      token.Token // the = token
	Targets    []*Identifier
	Annotation Expression
	Values     []Expression
}

func (as *AssignStatement) statementNode()   {}
func (as *AssignStatement) Tok() token.Token { return as.Token }
func (as *AssignStatement) String() string {
	var out bytes.Buffer
	names := make([]string, len(as.Targets))
	for i, t := range as.Targets {
		names[i] = t.String()
	}
	out.WriteString(strings.Join(names, ", "))
	if as.Annotation != nil {
		out.WriteString(": ")
		out.WriteString(as.Annotation.String())
	}
	out.WriteString(" = ")
	vals := make([]string, len(as.Values))
	for i, v := range as.Values {
		vals[i] = v.String()
	}
	out.WriteString(strings.Join(vals, ", "))
	return out.String()
}

type ReturnStatement struct {
	Token  token.Token // the return token
	Values []Expression
}

func (rs *ReturnStatement) statementNode()   {}
func (rs *ReturnStatement) Tok() token.Token { return rs.Token }
func (rs *ReturnStatement) String() string {
	return "return " + printVec(rs.Values)
}

// IfStatement is a conditional. LiveOut is filled by the analysis pass with
// the names that must remain visible after the statement.
type IfStatement struct {
	Token   token.Token // the if token
	Test    Expression
	Then    *BlockStatement
	Else    *BlockStatement // may be nil
	LiveOut map[string]struct{}
}

func (is *IfStatement) statementNode()   {}
func (is *IfStatement) Tok() token.Token { return is.Token }
func (is *IfStatement) String() string {
	var out bytes.Buffer
	out.WriteString("if ")
	out.WriteString(is.Test.String())
	out.WriteString(": ")
	out.WriteString(is.Then.String())
	if is.Else != nil {
		out.WriteString(" else: ")
		out.WriteString(is.Else.String())
	}
	return out.String()
}

// ForStatement is a bounded counting loop: for <target> in range(<bound>).
type ForStatement struct {
	Token   token.Token // the for token
	Target  *Identifier
	Bound   Expression
	Body    *BlockStatement
	LiveOut map[string]struct{}
}

func (fs *ForStatement) statementNode()   {}
func (fs *ForStatement) Tok() token.Token { return fs.Token }
func (fs *ForStatement) String() string {
	var out bytes.Buffer
	out.WriteString("for ")
	out.WriteString(fs.Target.String())
	out.WriteString(" in range(")
	out.WriteString(fs.Bound.String())
	out.WriteString("): ")
	out.WriteString(fs.Body.String())
	return out.String()
}

// WhileStatement is an unbounded conditional loop keyed on a named boolean.
type WhileStatement struct {
	Token   token.Token // the while token
	Test    Expression  // must be a bare name
	Body    *BlockStatement
	LiveOut map[string]struct{}
}

func (ws *WhileStatement) statementNode()   {}
func (ws *WhileStatement) Tok() token.Token { return ws.Token }
func (ws *WhileStatement) String() string {
	var out bytes.Buffer
	out.WriteString("while ")
	out.WriteString(ws.Test.String())
	out.WriteString(": ")
	out.WriteString(ws.Body.String())
	return out.String()
}

type BreakStatement struct {
	Token token.Token // the break token
}

func (bs *BreakStatement) statementNode()   {}
func (bs *BreakStatement) Tok() token.Token { return bs.Token }
func (bs *BreakStatement) String() string   { return "break" }

// ExprStatement is a bare expression in statement position (docstrings).
type ExprStatement struct {
	Token      token.Token
	Expression Expression
}

func (es *ExprStatement) statementNode()   {}
func (es *ExprStatement) Tok() token.Token { return es.Token }
func (es *ExprStatement) String() string   { return es.Expression.String() }
