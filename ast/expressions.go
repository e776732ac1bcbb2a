package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/khushi-411/onnxscript/token"
)

type Identifier struct {
	Token token.Token // the IDENT token
	Value string
}

func (i *Identifier) expressionNode()  {}
func (i *Identifier) Tok() token.Token { return i.Token }
func (i *Identifier) String() string   { return i.Value }

type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntegerLiteral) expressionNode()  {}
func (il *IntegerLiteral) Tok() token.Token { return il.Token }
func (il *IntegerLiteral) String() string   { return strconv.FormatInt(il.Value, 10) }

type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (fl *FloatLiteral) expressionNode()  {}
func (fl *FloatLiteral) Tok() token.Token { return fl.Token }
func (fl *FloatLiteral) String() string   { return fl.Token.Literal }

type BoolLiteral struct {
	Token token.Token
	Value bool
}

func (bl *BoolLiteral) expressionNode()  {}
func (bl *BoolLiteral) Tok() token.Token { return bl.Token }
func (bl *BoolLiteral) String() string {
	if bl.Value {
		return "True"
	}
	return "False"
}

type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) expressionNode()  {}
func (sl *StringLiteral) Tok() token.Token { return sl.Token }
func (sl *StringLiteral) String() string   { return strconv.Quote(sl.Value) }

// NoneLiteral marks an explicitly omitted value (optional operator input).
type NoneLiteral struct {
	Token token.Token
}

func (nl *NoneLiteral) expressionNode()  {}
func (nl *NoneLiteral) Tok() token.Token { return nl.Token }
func (nl *NoneLiteral) String() string   { return "None" }

type ListLiteral struct {
	Token    token.Token // the [ token
	Elements []Expression
}

func (ll *ListLiteral) expressionNode()  {}
func (ll *ListLiteral) Tok() token.Token { return ll.Token }
func (ll *ListLiteral) String() string {
	return "[" + printVec(ll.Elements) + "]"
}

type PrefixExpression struct {
	Token    token.Token // the prefix token, e.g. -
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()  {}
func (pe *PrefixExpression) Tok() token.Token { return pe.Token }
func (pe *PrefixExpression) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(pe.Operator)
	if pe.Operator == "not" {
		out.WriteString(" ")
	}
	out.WriteString(pe.Right.String())
	out.WriteString(")")
	return out.String()
}

type InfixExpression struct {
	Token    token.Token // the operator token, e.g. +
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()  {}
func (ie *InfixExpression) Tok() token.Token { return ie.Token }
func (ie *InfixExpression) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(ie.Left.String())
	out.WriteString(" " + ie.Operator + " ")
	out.WriteString(ie.Right.String())
	out.WriteString(")")
	return out.String()
}

// AttributeExpression is a dotted reference like op.Relu.
type AttributeExpression struct {
	Token token.Token // the . token
	Left  Expression
	Name  *Identifier
}

func (ae *AttributeExpression) expressionNode()  {}
func (ae *AttributeExpression) Tok() token.Token { return ae.Token }
func (ae *AttributeExpression) String() string {
	return ae.Left.String() + "." + ae.Name.String()
}

// Keyword is a keyword argument in a call.
type Keyword struct {
	Name  *Identifier
	Value Expression
}

func (k *Keyword) String() string {
	return k.Name.String() + "=" + k.Value.String()
}

type CallExpression struct {
	Token    token.Token // the ( token
	Func     Expression  // Identifier or AttributeExpression
	Args     []Expression
	Keywords []*Keyword
}

func (ce *CallExpression) expressionNode()  {}
func (ce *CallExpression) Tok() token.Token { return ce.Token }
func (ce *CallExpression) String() string {
	var out bytes.Buffer
	parts := make([]string, 0, len(ce.Args)+len(ce.Keywords))
	for _, a := range ce.Args {
		parts = append(parts, a.String())
	}
	for _, k := range ce.Keywords {
		parts = append(parts, k.String())
	}
	out.WriteString(ce.Func.String())
	out.WriteString("(")
	out.WriteString(strings.Join(parts, ", "))
	out.WriteString(")")
	return out.String()
}

// SliceExpression is one ranged axis specifier: start:stop:step, any part
// optional. It only appears inside an IndexExpression.
type SliceExpression struct {
	Token token.Token // the : token
	Start Expression  // may be nil
	Stop  Expression  // may be nil
	Step  Expression  // may be nil
}

func (se *SliceExpression) expressionNode()  {}
func (se *SliceExpression) Tok() token.Token { return se.Token }
func (se *SliceExpression) String() string {
	var out bytes.Buffer
	if se.Start != nil {
		out.WriteString(se.Start.String())
	}
	out.WriteString(":")
	if se.Stop != nil {
		out.WriteString(se.Stop.String())
	}
	if se.Step != nil {
		out.WriteString(":")
		out.WriteString(se.Step.String())
	}
	return out.String()
}

// IsFull reports whether the slice is the no-op "::".
func (se *SliceExpression) IsFull() bool {
	return se.Start == nil && se.Stop == nil && se.Step == nil
}

// IndexExpression is a subscript A[...] with one specifier per axis.
type IndexExpression struct {
	Token   token.Token // the [ token
	Value   Expression
	Indices []Expression
}

func (ie *IndexExpression) expressionNode()  {}
func (ie *IndexExpression) Tok() token.Token { return ie.Token }
func (ie *IndexExpression) String() string {
	return ie.Value.String() + "[" + printVec(ie.Indices) + "]"
}
