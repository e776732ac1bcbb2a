package token

import "fmt"

// ErrKind classifies a translation failure. Every failure is fatal to the
// whole translation; warnings are tracked separately by the compiler.
type ErrKind int

const (
	ErrSyntaxUnsupported ErrKind = iota // construct outside the accepted subset
	ErrUnboundName
	ErrArity
	ErrTypeMismatch
	ErrEmptyList
	ErrCapturedVariableMutation
)

var errKinds = [...]string{
	ErrSyntaxUnsupported:        "unsupported",
	ErrUnboundName:              "unbound name",
	ErrArity:                    "arity",
	ErrTypeMismatch:             "type mismatch",
	ErrEmptyList:                "empty list",
	ErrCapturedVariableMutation: "captured variable mutation",
}

func (k ErrKind) String() string {
	if 0 <= k && int(k) < len(errKinds) {
		return errKinds[k]
	}
	return fmt.Sprintf("errkind(%d)", int(k))
}

type CompileError struct {
	Token Token
	Kind  ErrKind
	Msg   string
}

func (ce *CompileError) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", ce.Token.Line, ce.Token.Column, ce.Kind, ce.Msg)
}
