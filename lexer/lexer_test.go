package lexer

import (
	"testing"

	"github.com/khushi-411/onnxscript/token"
)

type lexTest struct {
	expectedType    token.TokenType
	expectedLiteral string
}

func checkInput(t *testing.T, input string, tests []lexTest) {
	t.Helper()
	l := New("test.osc", input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (literal %q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken(t *testing.T) {
	input := `def relu(x):
    y = op.Max(x, 0.0)
    return y
`

	tests := []lexTest{
		{token.DEF, "def"},
		{token.IDENT, "relu"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.RPAREN, ")"},
		{token.COLON, ":"},
		{token.NEWLINE, "\n"},
		{token.INDENT, "INDENT"},
		{token.IDENT, "y"},
		{token.ASSIGN, "="},
		{token.IDENT, "op"},
		{token.PERIOD, "."},
		{token.IDENT, "Max"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.COMMA, ","},
		{token.FLOAT, "0.0"},
		{token.RPAREN, ")"},
		{token.NEWLINE, "\n"},
		{token.RETURN, "return"},
		{token.IDENT, "y"},
		{token.NEWLINE, "\n"},
		{token.DEINDENT, "DEINDENT"},
		{token.EOF, ""},
	}

	checkInput(t, input, tests)
}

func TestOperators(t *testing.T) {
	input := "a == b != c <= d >= e < f > g -> h ** i @ j & k | l % m / n"

	tests := []lexTest{
		{token.IDENT, "a"},
		{token.EQL, "=="},
		{token.IDENT, "b"},
		{token.NEQ, "!="},
		{token.IDENT, "c"},
		{token.LEQ, "<="},
		{token.IDENT, "d"},
		{token.GEQ, ">="},
		{token.IDENT, "e"},
		{token.LSS, "<"},
		{token.IDENT, "f"},
		{token.GTR, ">"},
		{token.IDENT, "g"},
		{token.ARROW, "->"},
		{token.IDENT, "h"},
		{token.POW, "**"},
		{token.IDENT, "i"},
		{token.MATMUL, "@"},
		{token.IDENT, "j"},
		{token.AND, "&"},
		{token.IDENT, "k"},
		{token.OR, "|"},
		{token.IDENT, "l"},
		{token.REM, "%"},
		{token.IDENT, "m"},
		{token.QUO, "/"},
		{token.IDENT, "n"},
		{token.EOF, ""},
	}

	checkInput(t, input, tests)
}

func TestKeywords(t *testing.T) {
	input := "for i in range(n):\n    if not True and False or None:\n        break\n"

	tests := []lexTest{
		{token.FOR, "for"},
		{token.IDENT, "i"},
		{token.IN, "in"},
		{token.IDENT, "range"},
		{token.LPAREN, "("},
		{token.IDENT, "n"},
		{token.RPAREN, ")"},
		{token.COLON, ":"},
		{token.NEWLINE, "\n"},
		{token.INDENT, "INDENT"},
		{token.IF, "if"},
		{token.NOT, "not"},
		{token.TRUE, "True"},
		{token.KWAND, "and"},
		{token.FALSE, "False"},
		{token.KWOR, "or"},
		{token.NONE, "None"},
		{token.COLON, ":"},
		{token.NEWLINE, "\n"},
		{token.INDENT, "INDENT"},
		{token.BREAK, "break"},
		{token.NEWLINE, "\n"},
		{token.DEINDENT, "DEINDENT"},
		{token.DEINDENT, "DEINDENT"},
		{token.EOF, ""},
	}

	checkInput(t, input, tests)
}

func TestNumbers(t *testing.T) {
	input := "1 2.5 .5 1e3 2.5e-4 7E+2 x.shape"

	tests := []lexTest{
		{token.INT, "1"},
		{token.FLOAT, "2.5"},
		{token.FLOAT, ".5"},
		{token.FLOAT, "1e3"},
		{token.FLOAT, "2.5e-4"},
		{token.FLOAT, "7E+2"},
		{token.IDENT, "x"},
		{token.PERIOD, "."},
		{token.IDENT, "shape"},
		{token.EOF, ""},
	}

	checkInput(t, input, tests)
}

func TestStrings(t *testing.T) {
	input := "s = 'hello'\nt = \"a b\"\n"

	tests := []lexTest{
		{token.IDENT, "s"},
		{token.ASSIGN, "="},
		{token.STRING, "hello"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "t"},
		{token.ASSIGN, "="},
		{token.STRING, "a b"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	}

	checkInput(t, input, tests)
}

func TestUnterminatedString(t *testing.T) {
	input := "u = 'oops\nv = 1\n"

	tests := []lexTest{
		{token.IDENT, "u"},
		{token.ASSIGN, "="},
		{token.ILLEGAL, "oops"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "v"},
		{token.ASSIGN, "="},
		{token.INT, "1"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	}

	checkInput(t, input, tests)
}

func TestBracketsSuppressLayout(t *testing.T) {
	input := `y = op.Concat(a,
              b)
z = y[0:2,
      1]
`

	tests := []lexTest{
		{token.IDENT, "y"},
		{token.ASSIGN, "="},
		{token.IDENT, "op"},
		{token.PERIOD, "."},
		{token.IDENT, "Concat"},
		{token.LPAREN, "("},
		{token.IDENT, "a"},
		{token.COMMA, ","},
		{token.IDENT, "b"},
		{token.RPAREN, ")"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "z"},
		{token.ASSIGN, "="},
		{token.IDENT, "y"},
		{token.LBRACK, "["},
		{token.INT, "0"},
		{token.COLON, ":"},
		{token.INT, "2"},
		{token.COMMA, ","},
		{token.INT, "1"},
		{token.RBRACK, "]"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	}

	checkInput(t, input, tests)
}

func TestLineContinuation(t *testing.T) {
	input := "y = a + \\\n    b\n"

	tests := []lexTest{
		{token.IDENT, "y"},
		{token.ASSIGN, "="},
		{token.IDENT, "a"},
		{token.ADD, "+"},
		{token.IDENT, "b"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	}

	checkInput(t, input, tests)
}

func TestBlankAndCommentLines(t *testing.T) {
	input := `def f(x):

    # scale
    y = x * 2
    return y
`

	tests := []lexTest{
		{token.DEF, "def"},
		{token.IDENT, "f"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.RPAREN, ")"},
		{token.COLON, ":"},
		{token.NEWLINE, "\n"},
		{token.INDENT, "INDENT"},
		{token.IDENT, "y"},
		{token.ASSIGN, "="},
		{token.IDENT, "x"},
		{token.MUL, "*"},
		{token.INT, "2"},
		{token.NEWLINE, "\n"},
		{token.RETURN, "return"},
		{token.IDENT, "y"},
		{token.NEWLINE, "\n"},
		{token.DEINDENT, "DEINDENT"},
		{token.EOF, ""},
	}

	checkInput(t, input, tests)
}

// A tab advances to the next multiple of eight, so a tab-indented line and
// an eight-space line are at the same level.
func TestTabIndentation(t *testing.T) {
	input := "def f():\n\ty = 1\n        z = 2\n"

	tests := []lexTest{
		{token.DEF, "def"},
		{token.IDENT, "f"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.COLON, ":"},
		{token.NEWLINE, "\n"},
		{token.INDENT, "INDENT"},
		{token.IDENT, "y"},
		{token.ASSIGN, "="},
		{token.INT, "1"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "z"},
		{token.ASSIGN, "="},
		{token.INT, "2"},
		{token.NEWLINE, "\n"},
		{token.DEINDENT, "DEINDENT"},
		{token.EOF, ""},
	}

	checkInput(t, input, tests)
}

func TestMultipleDeindents(t *testing.T) {
	input := "def f():\n    if c:\n        y = 1\nz = 2\n"

	tests := []lexTest{
		{token.DEF, "def"},
		{token.IDENT, "f"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.COLON, ":"},
		{token.NEWLINE, "\n"},
		{token.INDENT, "INDENT"},
		{token.IF, "if"},
		{token.IDENT, "c"},
		{token.COLON, ":"},
		{token.NEWLINE, "\n"},
		{token.INDENT, "INDENT"},
		{token.IDENT, "y"},
		{token.ASSIGN, "="},
		{token.INT, "1"},
		{token.NEWLINE, "\n"},
		{token.DEINDENT, "DEINDENT"},
		{token.DEINDENT, "DEINDENT"},
		{token.IDENT, "z"},
		{token.ASSIGN, "="},
		{token.INT, "2"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	}

	checkInput(t, input, tests)
}

func TestIllegal(t *testing.T) {
	input := "a ! b\n$\n"

	tests := []lexTest{
		{token.IDENT, "a"},
		{token.ILLEGAL, "ILLEGAL"},
		{token.IDENT, "b"},
		{token.NEWLINE, "\n"},
		{token.ILLEGAL, "$"},
		{token.NEWLINE, "\n"},
		{token.EOF, ""},
	}

	checkInput(t, input, tests)
}

func TestPositions(t *testing.T) {
	l := New("test.osc", "x = 10\nyy = 2.5\n")

	want := []struct {
		typ    token.TokenType
		line   int
		column int
	}{
		{token.IDENT, 1, 1},
		{token.ASSIGN, 1, 3},
		{token.INT, 1, 5},
		{token.NEWLINE, 2, 1},
		{token.IDENT, 2, 1},
		{token.ASSIGN, 2, 4},
		{token.FLOAT, 2, 6},
	}

	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w.typ {
			t.Fatalf("tokens[%d] - tokentype wrong. expected=%q, got=%q", i, w.typ, tok.Type)
		}
		if tok.Line != w.line || tok.Column != w.column {
			t.Fatalf("tokens[%d] (%q) - position wrong. expected=%d:%d, got=%d:%d",
				i, tok.Literal, w.line, w.column, tok.Line, tok.Column)
		}
	}
}
