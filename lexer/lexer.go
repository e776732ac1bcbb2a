package lexer

import (
	"github.com/khushi-411/onnxscript/token"
)

// Lexer scans an indentation-delimited script into tokens. Layout is
// significant: it emits NEWLINE at the end of each logical line, and
// INDENT/DEINDENT when the leading whitespace of a line changes.
type Lexer struct {
	file         string
	input        []rune
	position     int  // current position in input (points to current rune)
	readPosition int  // current reading position in input (after current rune)
	curr         rune // current rune under examination

	line    int
	column  int
	indents []int         // indentation stack, always starts with 0
	pending []token.Token // queued DEINDENT/NEWLINE tokens
	atStart bool          // at the beginning of a logical line
	parens  int           // depth of ( or [; layout is off inside brackets
	eof     bool
}

func New(file, input string) *Lexer {
	l := &Lexer{
		file:    file,
		input:   []rune(input),
		line:    1,
		column:  0,
		indents: []int{0},
		atStart: true,
	}
	l.readRune()
	return l
}

func (l *Lexer) readRune() {
	if l.readPosition >= len(l.input) {
		l.curr = 0
	} else {
		l.curr = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	if l.curr == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
}

func (l *Lexer) peekRune() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) newToken(tokenType token.TokenType, literal string) token.Token {
	return token.Token{Type: tokenType, Literal: literal, Line: l.line, Column: l.column}
}

// NextToken returns the next token, draining any queued layout tokens first.
func (l *Lexer) NextToken() token.Token {
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok
	}

	if l.atStart && l.parens == 0 {
		if tok, ok := l.handleIndentation(); ok {
			return tok
		}
	}

	l.skipSpaces()

	if l.curr == '#' {
		l.skipComment()
	}

	switch l.curr {
	case 0:
		return l.finish()
	case '\n':
		l.readRune()
		if l.parens > 0 {
			// Inside brackets a newline is plain whitespace.
			return l.NextToken()
		}
		l.atStart = true
		return l.newToken(token.NEWLINE, "\n")
	case '=':
		if l.peekRune() == '=' {
			l.readRune()
			tok := l.newToken(token.EQL, "==")
			l.readRune()
			return tok
		}
		return l.single(token.ASSIGN)
	case '!':
		if l.peekRune() == '=' {
			l.readRune()
			tok := l.newToken(token.NEQ, "!=")
			l.readRune()
			return tok
		}
		return l.single(token.ILLEGAL)
	case '<':
		if l.peekRune() == '=' {
			l.readRune()
			tok := l.newToken(token.LEQ, "<=")
			l.readRune()
			return tok
		}
		return l.single(token.LSS)
	case '>':
		if l.peekRune() == '=' {
			l.readRune()
			tok := l.newToken(token.GEQ, ">=")
			l.readRune()
			return tok
		}
		return l.single(token.GTR)
	case '+':
		return l.single(token.ADD)
	case '-':
		if l.peekRune() == '>' {
			l.readRune()
			tok := l.newToken(token.ARROW, "->")
			l.readRune()
			return tok
		}
		return l.single(token.SUB)
	case '*':
		if l.peekRune() == '*' {
			l.readRune()
			tok := l.newToken(token.POW, "**")
			l.readRune()
			return tok
		}
		return l.single(token.MUL)
	case '/':
		return l.single(token.QUO)
	case '%':
		return l.single(token.REM)
	case '@':
		return l.single(token.MATMUL)
	case '&':
		return l.single(token.AND)
	case '|':
		return l.single(token.OR)
	case '(':
		l.parens++
		return l.single(token.LPAREN)
	case ')':
		if l.parens > 0 {
			l.parens--
		}
		return l.single(token.RPAREN)
	case '[':
		l.parens++
		return l.single(token.LBRACK)
	case ']':
		if l.parens > 0 {
			l.parens--
		}
		return l.single(token.RBRACK)
	case ',':
		return l.single(token.COMMA)
	case '.':
		if isDigit(l.peekRune()) {
			return l.readNumber()
		}
		return l.single(token.PERIOD)
	case ':':
		return l.single(token.COLON)
	case '"', '\'':
		return l.readString(l.curr)
	}

	if isLetter(l.curr) {
		return l.readIdentifier()
	}
	if isDigit(l.curr) {
		return l.readNumber()
	}

	tok := l.newToken(token.ILLEGAL, string(l.curr))
	l.readRune()
	return tok
}

// handleIndentation measures the leading whitespace of a fresh line and
// queues INDENT/DEINDENT tokens against the indent stack. Blank lines and
// comment-only lines produce no layout tokens.
func (l *Lexer) handleIndentation() (token.Token, bool) {
	width := 0
	for l.curr == ' ' || l.curr == '\t' {
		if l.curr == '\t' {
			width += 8 - width%8
		} else {
			width++
		}
		l.readRune()
	}

	if l.curr == '\n' || l.curr == '#' || l.curr == 0 {
		if l.curr == '#' {
			l.skipComment()
		}
		if l.curr == '\n' {
			l.readRune()
			return l.NextToken(), true
		}
		if l.curr == 0 {
			return l.finish(), true
		}
	}

	l.atStart = false
	top := l.indents[len(l.indents)-1]
	if width > top {
		l.indents = append(l.indents, width)
		return l.newToken(token.INDENT, "INDENT"), true
	}
	for width < l.indents[len(l.indents)-1] {
		l.indents = l.indents[:len(l.indents)-1]
		l.pending = append(l.pending, l.newToken(token.DEINDENT, "DEINDENT"))
	}
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok, true
	}
	return token.Token{}, false
}

// finish closes any open blocks so every INDENT has a matching DEINDENT.
func (l *Lexer) finish() token.Token {
	if !l.eof {
		l.eof = true
		for len(l.indents) > 1 {
			l.indents = l.indents[:len(l.indents)-1]
			l.pending = append(l.pending, l.newToken(token.DEINDENT, "DEINDENT"))
		}
		l.pending = append(l.pending, l.newToken(token.EOF, ""))
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok
	}
	return l.newToken(token.EOF, "")
}

func (l *Lexer) single(tokenType token.TokenType) token.Token {
	tok := l.newToken(tokenType, tokenType.String())
	l.readRune()
	return tok
}

func (l *Lexer) skipSpaces() {
	for l.curr == ' ' || l.curr == '\t' || l.curr == '\r' {
		l.readRune()
	}
	// Line continuation.
	if l.curr == '\\' && l.peekRune() == '\n' {
		l.readRune()
		l.readRune()
		l.skipSpaces()
	}
}

func (l *Lexer) skipComment() {
	for l.curr != '\n' && l.curr != 0 {
		l.readRune()
	}
}

func (l *Lexer) readIdentifier() token.Token {
	line, col := l.line, l.column
	pos := l.position
	for isLetter(l.curr) || isDigit(l.curr) {
		l.readRune()
	}
	literal := string(l.input[pos:l.position])
	return token.Token{Type: token.LookupIdent(literal), Literal: literal, Line: line, Column: col}
}

func (l *Lexer) readNumber() token.Token {
	line, col := l.line, l.column
	pos := l.position
	tokenType := token.INT
	for isDigit(l.curr) {
		l.readRune()
	}
	if l.curr == '.' && l.peekRune() != '.' {
		tokenType = token.FLOAT
		l.readRune()
		for isDigit(l.curr) {
			l.readRune()
		}
	}
	if l.curr == 'e' || l.curr == 'E' {
		tokenType = token.FLOAT
		l.readRune()
		if l.curr == '+' || l.curr == '-' {
			l.readRune()
		}
		for isDigit(l.curr) {
			l.readRune()
		}
	}
	literal := string(l.input[pos:l.position])
	return token.Token{Type: tokenType, Literal: literal, Line: line, Column: col}
}

func (l *Lexer) readString(quote rune) token.Token {
	line, col := l.line, l.column
	l.readRune()
	pos := l.position
	for l.curr != quote && l.curr != 0 && l.curr != '\n' {
		l.readRune()
	}
	literal := string(l.input[pos:l.position])
	tokenType := token.STRING
	if l.curr != quote {
		tokenType = token.ILLEGAL
	} else {
		l.readRune()
	}
	return token.Token{Type: tokenType, Literal: literal, Line: line, Column: col}
}

func isLetter(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || r == '_'
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}
