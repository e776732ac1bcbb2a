package token

import "strconv"

type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF
	COMMENT

	literal_beg
	// Identifiers + literals
	IDENT  // x, op, clip
	INT    // 42
	FLOAT  // 1.5
	STRING // "doc"
	literal_end

	operator_beg
	// Operators and delimiters
	ASSIGN // =
	ARROW  // ->

	ADD    // +
	SUB    // -
	MUL    // *
	QUO    // /
	REM    // %
	POW    // **
	MATMUL // @

	AND // &
	OR  // |

	LPAREN // (
	LBRACK // [
	COMMA  // ,
	PERIOD // .
	COLON  // :

	RPAREN // )
	RBRACK // ]
	operator_end

	comparison_beg
	EQL // ==
	NEQ // !=
	LSS // <
	LEQ // <=
	GTR // >
	GEQ // >=
	comparison_end

	keyword_beg
	DEF
	RETURN
	IF
	ELIF
	ELSE
	FOR
	WHILE
	IN
	BREAK
	KWAND // and
	KWOR  // or
	NOT   // not
	TRUE
	FALSE
	NONE
	keyword_end

	NEWLINE
	INDENT
	DEINDENT
)

var tokens = [...]string{
	ILLEGAL: "ILLEGAL",

	EOF:     "EOF",
	COMMENT: "COMMENT",

	IDENT:  "IDENT",
	INT:    "INT",
	FLOAT:  "FLOAT",
	STRING: "STRING",

	ASSIGN: "=",
	ARROW:  "->",

	ADD:    "+",
	SUB:    "-",
	MUL:    "*",
	QUO:    "/",
	REM:    "%",
	POW:    "**",
	MATMUL: "@",

	AND: "&",
	OR:  "|",

	LPAREN: "(",
	LBRACK: "[",
	COMMA:  ",",
	PERIOD: ".",
	COLON:  ":",

	RPAREN: ")",
	RBRACK: "]",

	EQL: "==",
	NEQ: "!=",
	LSS: "<",
	LEQ: "<=",
	GTR: ">",
	GEQ: ">=",

	DEF:    "def",
	RETURN: "return",
	IF:     "if",
	ELIF:   "elif",
	ELSE:   "else",
	FOR:    "for",
	WHILE:  "while",
	IN:     "in",
	BREAK:  "break",
	KWAND:  "and",
	KWOR:   "or",
	NOT:    "not",
	TRUE:   "True",
	FALSE:  "False",
	NONE:   "None",

	NEWLINE:  "\n",
	INDENT:   "INDENT",
	DEINDENT: "DEINDENT",
}

var keywords = map[string]TokenType{
	"def":    DEF,
	"return": RETURN,
	"if":     IF,
	"elif":   ELIF,
	"else":   ELSE,
	"for":    FOR,
	"while":  WHILE,
	"in":     IN,
	"break":  BREAK,
	"and":    KWAND,
	"or":     KWOR,
	"not":    NOT,
	"True":   TRUE,
	"False":  FALSE,
	"None":   NONE,
}

// LookupIdent maps identifier text to its keyword token, or IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

func (t Token) IsComparison() bool {
	return comparison_beg < t.Type && comparison_end > t.Type
}

func (t Token) IsKeyword() bool {
	return keyword_beg < t.Type && keyword_end > t.Type
}

func (t Token) String() string {
	return t.Type.String()
}

func (tokenType TokenType) String() string {
	s := ""
	if 0 <= tokenType && tokenType < TokenType(len(tokens)) {
		s = tokens[tokenType]
	}

	if s == "" {
		s = "token(" + strconv.Itoa(int(tokenType)) + ")"
	}

	return s
}
