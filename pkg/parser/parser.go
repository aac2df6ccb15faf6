package parser

import (
	"errors"
	"fmt"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/lexer"
)

// maxErrors bounds how many statement-level errors are collected before the
// parser gives up.
const maxErrors = 20

// Error is a positioned syntax error. Incomplete is set when the input ended
// early, which the REPL uses to ask for a continuation line.
type Error struct {
	Line       int
	Column     int
	Message    string
	Incomplete bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// IsIncomplete reports whether err only failed because the source ended too
// early.
func IsIncomplete(err error) bool {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Incomplete
	}
	return false
}

// Parse turns Dotlin source into a numbered program.
func Parse(src string) (*ast.Program, error) {
	stmts, err := parseStatements(src)
	if err != nil {
		return nil, err
	}
	return ast.NewProgram(stmts), nil
}

func parseStatements(src string) ([]ast.Statement, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		var lerr *lexer.Error
		if errors.As(err, &lerr) {
			return nil, &Error{Line: lerr.Line, Column: lerr.Column, Message: lerr.Msg, Incomplete: isUnterminated(lerr.Msg)}
		}
		return nil, err
	}
	p := &parser{toks: toks}
	return p.program()
}

func isUnterminated(msg string) bool {
	return msg == "unterminated block comment" || msg == "unterminated ${ in string literal"
}

type parser struct {
	toks []lexer.Token
	i    int
	errs []error
}

// ─────────────────────────── token basics & helpers ─────────────────────────

func (p *parser) atEnd() bool { return p.peek().Type == lexer.EOF }

func (p *parser) peek() lexer.Token {
	if p.i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}

func (p *parser) peekAt(offset int) lexer.Token {
	if p.i+offset >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+offset]
}

func (p *parser) prev() lexer.Token { return p.toks[p.i-1] }

func (p *parser) check(tt lexer.TokenType) bool { return p.peek().Type == tt }

func (p *parser) match(tt ...lexer.TokenType) bool {
	if p.atEnd() {
		return false
	}
	for _, t := range tt {
		if p.peek().Type == t {
			p.i++
			return true
		}
	}
	return false
}

func (p *parser) need(tt lexer.TokenType, msg string) (lexer.Token, error) {
	if p.match(tt) {
		return p.prev(), nil
	}
	return lexer.Token{}, p.errorAt(p.peek(), msg)
}

func (p *parser) errorAt(tok lexer.Token, msg string) error {
	if tok.Type == lexer.EOF {
		return &Error{Line: tok.Line, Column: tok.Column, Message: msg + ", found end of input", Incomplete: true}
	}
	return &Error{Line: tok.Line, Column: tok.Column, Message: fmt.Sprintf("%s, found %q", msg, tok.Lexeme)}
}

func pos(tok lexer.Token) ast.Position {
	return ast.Position{Line: tok.Line, Column: tok.Column}
}

func at[T ast.Node](node T, tok lexer.Token) T {
	node.SetPos(pos(tok))
	return node
}

// endStatement accepts a statement terminator: `;`, a line break, a closing
// brace, the end of input, or the `else` of an enclosing if.
func (p *parser) endStatement() error {
	if p.match(lexer.SEMICOLON) {
		return nil
	}
	next := p.peek()
	if next.Type == lexer.EOF || next.Type == lexer.RBRACE || next.Type == lexer.ELSE || next.NewlineBefore {
		return nil
	}
	return p.errorAt(next, "expected end of statement")
}

// synchronize skips to the start of the next statement after an error.
func (p *parser) synchronize() {
	depth := 0
	for !p.atEnd() {
		tok := p.peek()
		if depth == 0 && p.i > 0 && tok.NewlineBefore {
			return
		}
		switch tok.Type {
		case lexer.SEMICOLON:
			if depth == 0 {
				p.i++
				return
			}
		case lexer.LBRACE:
			depth++
		case lexer.RBRACE:
			if depth == 0 {
				return
			}
			depth--
		}
		p.i++
	}
}

// ───────────────────────────────── statements ───────────────────────────────

func (p *parser) program() ([]ast.Statement, error) {
	var stmts []ast.Statement
	for !p.atEnd() {
		if p.match(lexer.SEMICOLON) {
			continue
		}
		start := p.i
		stmt, err := p.statement()
		if err != nil {
			p.errs = append(p.errs, err)
			if IsIncomplete(err) || len(p.errs) >= maxErrors {
				break
			}
			p.synchronize()
			if p.i == start {
				p.i++
			}
			continue
		}
		stmts = append(stmts, stmt)
	}
	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}
	return stmts, nil
}

func (p *parser) statement() (ast.Statement, error) {
	tok := p.peek()
	var (
		stmt ast.Statement
		err  error
	)
	switch tok.Type {
	case lexer.VAL, lexer.VAR:
		stmt, err = p.varDecl()
	case lexer.FUN:
		return p.funDecl()
	case lexer.CLASS:
		return p.classDecl()
	case lexer.IF:
		return p.ifStmt()
	case lexer.WHILE:
		return p.whileStmt()
	case lexer.FOR:
		return p.forStmt()
	case lexer.WHEN:
		return p.whenStmt()
	case lexer.TRY:
		return p.tryStmt()
	case lexer.LBRACE:
		return p.block()
	case lexer.RETURN:
		p.i++
		var value ast.Expression
		if next := p.peek(); !next.NewlineBefore && next.Type != lexer.SEMICOLON && next.Type != lexer.RBRACE && next.Type != lexer.EOF {
			if value, err = p.expr(0); err != nil {
				return nil, err
			}
		}
		stmt = at(ast.NewReturnStatement(value), tok)
	case lexer.BREAK:
		p.i++
		stmt = at(ast.NewBreakStatement(), tok)
	case lexer.CONTINUE:
		p.i++
		stmt = at(ast.NewContinueStatement(), tok)
	default:
		stmt, err = p.expr(0)
	}
	if err != nil {
		return nil, err
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// block parses `{ statements }`.
func (p *parser) block() (*ast.BlockStatement, error) {
	open, err := p.need(lexer.LBRACE, "expected '{'")
	if err != nil {
		return nil, err
	}
	stmts, err := p.statementsUntilBrace()
	if err != nil {
		return nil, err
	}
	return at(ast.NewBlockStatement(stmts), open), nil
}

func (p *parser) statementsUntilBrace() ([]ast.Statement, error) {
	var stmts []ast.Statement
	for !p.check(lexer.RBRACE) {
		if p.atEnd() {
			return nil, p.errorAt(p.peek(), "expected '}'")
		}
		if p.match(lexer.SEMICOLON) {
			continue
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	p.i++
	return stmts, nil
}

// body parses a block or a single statement used as a branch or loop body.
func (p *parser) body() (ast.Statement, error) {
	if p.check(lexer.LBRACE) {
		return p.block()
	}
	return p.statement()
}

func (p *parser) typeRef() (*ast.TypeRef, error) {
	name, err := p.need(lexer.IDENT, "expected type name")
	if err != nil {
		return nil, err
	}
	ref := &ast.TypeRef{Name: name.Literal.(string)}
	if p.match(lexer.LT) {
		elem, err := p.typeRef()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(lexer.GT, "expected '>' after type argument"); err != nil {
			return nil, err
		}
		ref.Element = elem
	}
	return ref, nil
}

func (p *parser) varDecl() (ast.Statement, error) {
	kw := p.peek()
	p.i++
	name, err := p.need(lexer.IDENT, "expected variable name")
	if err != nil {
		return nil, err
	}
	var annotation *ast.TypeRef
	if p.match(lexer.COLON) {
		if annotation, err = p.typeRef(); err != nil {
			return nil, err
		}
	}
	var init ast.Expression
	if p.match(lexer.ASSIGN) {
		if init, err = p.expr(0); err != nil {
			return nil, err
		}
	}
	return at(ast.NewVariableDeclaration(name.Literal.(string), kw.Type == lexer.VAR, annotation, init), kw), nil
}

func (p *parser) params() ([]*ast.FunctionParameter, error) {
	if _, err := p.need(lexer.LPAREN, "expected '('"); err != nil {
		return nil, err
	}
	var params []*ast.FunctionParameter
	for !p.match(lexer.RPAREN) {
		if len(params) > 0 {
			if _, err := p.need(lexer.COMMA, "expected ',' between parameters"); err != nil {
				return nil, err
			}
			if p.match(lexer.RPAREN) {
				break
			}
		}
		param, err := p.param()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
	}
	return params, nil
}

func (p *parser) param() (*ast.FunctionParameter, error) {
	name, err := p.need(lexer.IDENT, "expected parameter name")
	if err != nil {
		return nil, err
	}
	var paramType *ast.TypeRef
	if p.match(lexer.COLON) {
		if paramType, err = p.typeRef(); err != nil {
			return nil, err
		}
	}
	return at(ast.NewFunctionParameter(name.Literal.(string), paramType), name), nil
}

func (p *parser) funDecl() (*ast.FunctionDeclaration, error) {
	kw := p.peek()
	p.i++
	name, err := p.need(lexer.IDENT, "expected function name")
	if err != nil {
		return nil, err
	}
	params, err := p.params()
	if err != nil {
		return nil, err
	}
	var returnType *ast.TypeRef
	if p.match(lexer.COLON) {
		if returnType, err = p.typeRef(); err != nil {
			return nil, err
		}
	}
	var body *ast.BlockStatement
	if eq := p.peek(); p.match(lexer.ASSIGN) {
		value, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		body = at(ast.NewBlockStatement([]ast.Statement{at(ast.NewReturnStatement(value), eq)}), eq)
		if err := p.endStatement(); err != nil {
			return nil, err
		}
	} else if body, err = p.block(); err != nil {
		return nil, err
	}
	return at(ast.NewFunctionDeclaration(name.Literal.(string), params, returnType, body), kw), nil
}

func (p *parser) ifStmt() (ast.Statement, error) {
	kw := p.peek()
	p.i++
	cond, err := p.condition()
	if err != nil {
		return nil, err
	}
	then, err := p.body()
	if err != nil {
		return nil, err
	}
	var els ast.Statement
	if p.match(lexer.ELSE) {
		if els, err = p.body(); err != nil {
			return nil, err
		}
	}
	return at(ast.NewIfStatement(cond, then, els), kw), nil
}

func (p *parser) condition() (ast.Expression, error) {
	if _, err := p.need(lexer.LPAREN, "expected '('"); err != nil {
		return nil, err
	}
	cond, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(lexer.RPAREN, "expected ')'"); err != nil {
		return nil, err
	}
	return cond, nil
}

func (p *parser) whileStmt() (ast.Statement, error) {
	kw := p.peek()
	p.i++
	cond, err := p.condition()
	if err != nil {
		return nil, err
	}
	body, err := p.body()
	if err != nil {
		return nil, err
	}
	return at(ast.NewWhileStatement(cond, body), kw), nil
}

func (p *parser) forStmt() (ast.Statement, error) {
	kw := p.peek()
	p.i++
	if _, err := p.need(lexer.LPAREN, "expected '(' after for"); err != nil {
		return nil, err
	}
	name, err := p.need(lexer.IDENT, "expected loop variable")
	if err != nil {
		return nil, err
	}
	if _, err := p.need(lexer.IN, "expected 'in'"); err != nil {
		return nil, err
	}
	iterable, err := p.expr(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(lexer.RPAREN, "expected ')'"); err != nil {
		return nil, err
	}
	body, err := p.body()
	if err != nil {
		return nil, err
	}
	return at(ast.NewForStatement(name.Literal.(string), iterable, body), kw), nil
}

func (p *parser) whenStmt() (ast.Statement, error) {
	kw := p.peek()
	p.i++
	subject, err := p.condition()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(lexer.LBRACE, "expected '{' after when subject"); err != nil {
		return nil, err
	}
	var (
		branches []*ast.WhenBranch
		els      ast.Statement
	)
	for !p.match(lexer.RBRACE) {
		if p.atEnd() {
			return nil, p.errorAt(p.peek(), "expected '}'")
		}
		if p.match(lexer.SEMICOLON) {
			continue
		}
		start := p.peek()
		if p.match(lexer.ELSE) {
			if _, err := p.need(lexer.ARROW, "expected '->' after else"); err != nil {
				return nil, err
			}
			if els, err = p.body(); err != nil {
				return nil, err
			}
			continue
		}
		var patterns []ast.Expression
		for {
			pattern, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			patterns = append(patterns, pattern)
			if !p.match(lexer.COMMA) {
				break
			}
		}
		if _, err := p.need(lexer.ARROW, "expected '->' after when pattern"); err != nil {
			return nil, err
		}
		body, err := p.body()
		if err != nil {
			return nil, err
		}
		branches = append(branches, at(ast.NewWhenBranch(patterns, body), start))
	}
	return at(ast.NewWhenStatement(subject, branches, els), kw), nil
}

func (p *parser) tryStmt() (ast.Statement, error) {
	kw := p.peek()
	p.i++
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	var (
		catchVar       string
		catch, finally *ast.BlockStatement
	)
	if p.match(lexer.CATCH) {
		if _, err := p.need(lexer.LPAREN, "expected '(' after catch"); err != nil {
			return nil, err
		}
		name, err := p.need(lexer.IDENT, "expected catch variable")
		if err != nil {
			return nil, err
		}
		catchVar = name.Literal.(string)
		if p.match(lexer.COLON) {
			if _, err := p.typeRef(); err != nil {
				return nil, err
			}
		}
		if _, err := p.need(lexer.RPAREN, "expected ')'"); err != nil {
			return nil, err
		}
		if catch, err = p.block(); err != nil {
			return nil, err
		}
	}
	if p.match(lexer.FINALLY) {
		if finally, err = p.block(); err != nil {
			return nil, err
		}
	}
	if catch == nil && finally == nil {
		return nil, p.errorAt(p.peek(), "expected catch or finally after try block")
	}
	return at(ast.NewTryStatement(body, catchVar, catch, finally), kw), nil
}
