package parser

import (
	"fmt"
	"strconv"

	"github.com/khushi-411/onnxscript/ast"
	"github.com/khushi-411/onnxscript/lexer"
	"github.com/khushi-411/onnxscript/token"
)

const (
	_ int = iota
	LOWEST
	BOOLOP      // and, or
	NOTOP       // not
	LESSGREATER // == != < <= > >=
	BITOP       // & |
	SUM         // + -
	PRODUCT     // * / % @
	POWER       // **
	PREFIX      // -X
	CALL        // f(X), A[i], op.Name
)

var precedences = map[token.TokenType]int{
	token.KWAND:  BOOLOP,
	token.KWOR:   BOOLOP,
	token.EQL:    LESSGREATER,
	token.NEQ:    LESSGREATER,
	token.LSS:    LESSGREATER,
	token.LEQ:    LESSGREATER,
	token.GTR:    LESSGREATER,
	token.GEQ:    LESSGREATER,
	token.AND:    BITOP,
	token.OR:     BITOP,
	token.ADD:    SUM,
	token.SUB:    SUM,
	token.MUL:    PRODUCT,
	token.QUO:    PRODUCT,
	token.REM:    PRODUCT,
	token.MATMUL: PRODUCT,
	token.POW:    POWER,
	token.LPAREN: CALL,
	token.LBRACK: CALL,
	token.PERIOD: CALL,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	l      *lexer.Lexer
	errors []string

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:      l,
		errors: []string{},
	}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.INT, p.parseIntegerLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.TRUE, p.parseBoolLiteral)
	p.registerPrefix(token.FALSE, p.parseBoolLiteral)
	p.registerPrefix(token.NONE, p.parseNoneLiteral)
	p.registerPrefix(token.SUB, p.parsePrefixExpression)
	p.registerPrefix(token.ADD, p.parsePrefixExpression)
	p.registerPrefix(token.NOT, p.parsePrefixExpression)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACK, p.parseListLiteral)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for _, t := range []token.TokenType{
		token.ADD, token.SUB, token.MUL, token.QUO, token.REM,
		token.POW, token.MATMUL, token.AND, token.OR,
		token.KWAND, token.KWOR,
		token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ,
	} {
		p.registerInfix(t, p.parseInfixExpression)
	}
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.LBRACK, p.parseIndexExpression)
	p.registerInfix(token.PERIOD, p.parseAttributeExpression)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) peekError(t token.TokenType) {
	msg := fmt.Sprintf("%d:%d: expected next token to be %s, got %s instead",
		p.peekToken.Line, p.peekToken.Column, t, p.peekToken)
	p.errors = append(p.errors, msg)
}

func (p *Parser) errorf(tok token.Token, format string, args ...any) {
	msg := fmt.Sprintf("%d:%d: ", tok.Line, tok.Column) + fmt.Sprintf(format, args...)
	p.errors = append(p.errors, msg)
}

func (p *Parser) noPrefixParseFnError(t token.TokenType) {
	p.errorf(p.curToken, "no prefix parse function for %s found", t)
}

// skipNewlines advances past blank statement separators.
func (p *Parser) skipNewlines() {
	for p.curTokenIs(token.NEWLINE) {
		p.nextToken()
	}
}

// Parse consumes the whole input and returns the module: a sequence of
// top-level function definitions.
func (p *Parser) Parse() *ast.Module {
	module := &ast.Module{}
	p.skipNewlines()
	for !p.curTokenIs(token.EOF) {
		if !p.curTokenIs(token.DEF) {
			p.errorf(p.curToken, "only function definitions are allowed at top level, got %s", p.curToken)
			return module
		}
		fn := p.parseFuncStatement()
		if fn == nil {
			return module
		}
		module.Funcs = append(module.Funcs, fn)
		p.nextToken()
		p.skipNewlines()
	}
	return module
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.DEF:
		return p.parseFuncStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.BREAK:
		stmt := &ast.BreakStatement{Token: p.curToken}
		p.endStatement()
		return stmt
	default:
		return p.parseSimpleStatement()
	}
}

// parseSimpleStatement parses assignments (possibly tuple-target, possibly
// annotated) and bare expression statements.
func (p *Parser) parseSimpleStatement() ast.Statement {
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}

	// Tuple target: x, y = ...
	targets := []*ast.Identifier{}
	if ident, ok := first.(*ast.Identifier); ok {
		targets = append(targets, ident)
	}
	for p.peekTokenIs(token.COMMA) && len(targets) > 0 {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		targets = append(targets, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})
	}

	var annotation ast.Expression
	if p.peekTokenIs(token.COLON) && len(targets) == 1 {
		p.nextToken()
		p.nextToken()
		annotation = p.parseExpression(LOWEST)
	}

	if p.peekTokenIs(token.ASSIGN) {
		if len(targets) == 0 {
			p.errorf(p.curToken, "assignment target must be a name or tuple of names")
			return nil
		}
		p.nextToken()
		assignTok := p.curToken
		p.nextToken()
		values := []ast.Expression{p.parseExpression(LOWEST)}
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			values = append(values, p.parseExpression(LOWEST))
		}
		p.endStatement()
		return &ast.AssignStatement{
			Token:      assignTok,
			Targets:    targets,
			Annotation: annotation,
			Values:     values,
		}
	}

	if annotation != nil {
		p.errorf(p.curToken, "annotated statement must be an assignment")
		return nil
	}
	stmt := &ast.ExprStatement{Token: first.Tok(), Expression: first}
	p.endStatement()
	return stmt
}

func (p *Parser) parseReturnStatement() *ast.ReturnStatement {
	stmt := &ast.ReturnStatement{Token: p.curToken}
	p.nextToken()
	stmt.Values = append(stmt.Values, p.parseExpression(LOWEST))
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		stmt.Values = append(stmt.Values, p.parseExpression(LOWEST))
	}
	p.endStatement()
	return stmt
}

// endStatement advances to the statement terminator (NEWLINE), tolerating
// EOF and DEINDENT for blocks that close without a trailing newline.
func (p *Parser) endStatement() {
	if p.peekTokenIs(token.NEWLINE) {
		p.nextToken()
		return
	}
	if p.peekTokenIs(token.EOF) || p.peekTokenIs(token.DEINDENT) {
		return
	}
	p.peekError(token.NEWLINE)
	p.nextToken()
}

// parseBlock parses NEWLINE INDENT stmts DEINDENT, or a single inline
// statement after the colon (used for "if c: break").
func (p *Parser) parseBlock() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken}
	if !p.peekTokenIs(token.NEWLINE) {
		// Inline suite: a single simple statement on the same line.
		p.nextToken()
		if stmt := p.parseStatement(); stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		return block
	}
	p.nextToken() // NEWLINE
	if !p.expectPeek(token.INDENT) {
		return block
	}
	p.nextToken()
	for !p.curTokenIs(token.DEINDENT) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) {
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt == nil {
			return block
		}
		block.Statements = append(block.Statements, stmt)
		p.nextToken()
	}
	return block
}

func (p *Parser) parseIfStatement() *ast.IfStatement {
	stmt := &ast.IfStatement{Token: p.curToken}
	p.nextToken()
	stmt.Test = p.parseExpression(LOWEST)
	if !p.expectPeek(token.COLON) {
		return nil
	}
	stmt.Then = p.parseBlock()

	if p.peekTokenIs(token.ELIF) {
		p.nextToken()
		// An elif chain is sugar for a nested if in the else branch.
		nested := p.parseIfStatement()
		if nested == nil {
			return nil
		}
		stmt.Else = &ast.BlockStatement{Token: nested.Token, Statements: []ast.Statement{nested}}
		return stmt
	}
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if !p.expectPeek(token.COLON) {
			return nil
		}
		stmt.Else = p.parseBlock()
	}
	return stmt
}

func (p *Parser) parseForStatement() *ast.ForStatement {
	stmt := &ast.ForStatement{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Target = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	if !p.expectPeek(token.IN) {
		return nil
	}
	if !p.expectPeek(token.IDENT) || p.curToken.Literal != "range" {
		p.errorf(p.curToken, "for loop bound must be range(<expr>)")
		return nil
	}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Bound = p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.COLON) {
		return nil
	}
	stmt.Body = p.parseBlock()
	return stmt
}

func (p *Parser) parseWhileStatement() *ast.WhileStatement {
	stmt := &ast.WhileStatement{Token: p.curToken}
	p.nextToken()
	stmt.Test = p.parseExpression(LOWEST)
	if !p.expectPeek(token.COLON) {
		return nil
	}
	stmt.Body = p.parseBlock()
	return stmt
}

func (p *Parser) parseFuncStatement() *ast.FuncStatement {
	stmt := &ast.FuncStatement{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	stmt.Params = p.parseParams()
	if p.peekTokenIs(token.ARROW) {
		p.nextToken()
		p.nextToken()
		stmt.Returns = p.parseReturnAnnotations()
	}
	if !p.expectPeek(token.COLON) {
		return nil
	}
	stmt.Body = p.parseBlock()
	return stmt
}

func (p *Parser) parseParams() []*ast.Param {
	params := []*ast.Param{}
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params
	}
	for {
		if !p.expectPeek(token.IDENT) {
			return params
		}
		param := &ast.Param{Name: &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}}
		if p.peekTokenIs(token.COLON) {
			p.nextToken()
			p.nextToken()
			param.Annotation = p.parseExpression(LOWEST)
		}
		if p.peekTokenIs(token.ASSIGN) {
			p.nextToken()
			p.nextToken()
			param.Default = p.parseExpression(LOWEST)
		}
		params = append(params, param)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(token.RPAREN) {
		return params
	}
	return params
}

func (p *Parser) parseReturnAnnotations() []ast.Expression {
	// Either a single annotation or a parenthesized tuple of them.
	if p.curTokenIs(token.LPAREN) {
		returns := []ast.Expression{}
		p.nextToken()
		returns = append(returns, p.parseExpression(LOWEST))
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			p.nextToken()
			returns = append(returns, p.parseExpression(LOWEST))
		}
		if !p.expectPeek(token.RPAREN) {
			return returns
		}
		return returns
	}
	return []ast.Expression{p.parseExpression(LOWEST)}
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken.Type)
		return nil
	}
	leftExp := prefix()

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
	}
	return leftExp
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	lit := &ast.IntegerLiteral{Token: p.curToken}
	value, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if err != nil {
		p.errorf(p.curToken, "could not parse %q as integer", p.curToken.Literal)
		return nil
	}
	lit.Value = value
	return lit
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	lit := &ast.FloatLiteral{Token: p.curToken}
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.errorf(p.curToken, "could not parse %q as float", p.curToken.Literal)
		return nil
	}
	lit.Value = value
	return lit
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseBoolLiteral() ast.Expression {
	return &ast.BoolLiteral{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNoneLiteral() ast.Expression {
	return &ast.NoneLiteral{Token: p.curToken}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expr := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
	}
	p.nextToken()
	if expr.Operator == "not" {
		expr.Right = p.parseExpression(NOTOP)
	} else {
		expr.Right = p.parseExpression(PREFIX)
	}
	return expr
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expr := &ast.InfixExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: p.curToken.Literal,
	}
	precedence := p.curPrecedence()
	p.nextToken()
	// Exponentiation is right-associative.
	if expr.Token.Type == token.POW {
		precedence--
	}
	expr.Right = p.parseExpression(precedence)
	return expr
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()
	expr := p.parseExpression(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return expr
}

func (p *Parser) parseListLiteral() ast.Expression {
	lit := &ast.ListLiteral{Token: p.curToken}
	if p.peekTokenIs(token.RBRACK) {
		p.nextToken()
		return lit
	}
	p.nextToken()
	lit.Elements = append(lit.Elements, p.parseExpression(LOWEST))
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		lit.Elements = append(lit.Elements, p.parseExpression(LOWEST))
	}
	if !p.expectPeek(token.RBRACK) {
		return nil
	}
	return lit
}

func (p *Parser) parseAttributeExpression(left ast.Expression) ast.Expression {
	expr := &ast.AttributeExpression{Token: p.curToken, Left: left}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	expr.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	return expr
}

func (p *Parser) parseCallExpression(fn ast.Expression) ast.Expression {
	call := &ast.CallExpression{Token: p.curToken, Func: fn}
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return call
	}
	for {
		p.nextToken()
		if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.ASSIGN) {
			kw := &ast.Keyword{Name: &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}}
			p.nextToken()
			p.nextToken()
			kw.Value = p.parseExpression(LOWEST)
			call.Keywords = append(call.Keywords, kw)
		} else {
			if len(call.Keywords) > 0 {
				p.errorf(p.curToken, "positional argument follows keyword argument")
				return nil
			}
			call.Args = append(call.Args, p.parseExpression(LOWEST))
		}
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return call
}

// parseIndexExpression parses A[spec, spec, ...] where each spec is an
// expression or a slice start:stop:step with optional parts.
func (p *Parser) parseIndexExpression(value ast.Expression) ast.Expression {
	expr := &ast.IndexExpression{Token: p.curToken, Value: value}
	for {
		p.nextToken()
		expr.Indices = append(expr.Indices, p.parseIndexSpec())
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(token.RBRACK) {
		return nil
	}
	return expr
}

func (p *Parser) parseIndexSpec() ast.Expression {
	var start ast.Expression
	if !p.curTokenIs(token.COLON) {
		start = p.parseExpression(LOWEST)
		if !p.peekTokenIs(token.COLON) {
			return start // plain index expression
		}
		p.nextToken()
	}
	slice := &ast.SliceExpression{Token: p.curToken, Start: start}
	if !p.sliceAtEnd() {
		p.nextToken()
		slice.Stop = p.parseExpression(LOWEST)
	}
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		if !p.sliceAtEnd() {
			p.nextToken()
			slice.Step = p.parseExpression(LOWEST)
		}
	}
	return slice
}

// sliceAtEnd reports whether the current slice component is empty.
func (p *Parser) sliceAtEnd() bool {
	return p.peekTokenIs(token.COLON) || p.peekTokenIs(token.COMMA) || p.peekTokenIs(token.RBRACK)
}
