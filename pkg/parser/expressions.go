package parser

import (
	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/lexer"
)

// ───────────────────────── precedence / associativity ──────────────────────

const (
	bpAssign  = 10
	bpPrefix  = 80
	bpPostfix = 90
)

func lbp(t lexer.TokenType) (int, bool) {
	switch t {
	case lexer.LPAREN, lexer.DOT, lexer.LBRACKET:
		return bpPostfix, true
	case lexer.STAR, lexer.SLASH, lexer.PERCENT:
		return 70, true
	case lexer.PLUS, lexer.MINUS:
		return 60, true
	case lexer.LT, lexer.LTE, lexer.GT, lexer.GTE:
		return 50, true
	case lexer.EQ, lexer.NEQ:
		return 40, true
	case lexer.AND:
		return 30, true
	case lexer.OR:
		return 20, true
	case lexer.ASSIGN, lexer.PLUS_ASSIGN, lexer.MINUS_ASSIGN, lexer.STAR_ASSIGN, lexer.SLASH_ASSIGN, lexer.PERCENT_ASSIGN:
		return bpAssign, true
	}
	return 0, false
}

var compoundOps = map[lexer.TokenType]string{
	lexer.PLUS_ASSIGN:    "+",
	lexer.MINUS_ASSIGN:   "-",
	lexer.STAR_ASSIGN:    "*",
	lexer.SLASH_ASSIGN:   "/",
	lexer.PERCENT_ASSIGN: "%",
}

// continuesAcrossLines lists the infix tokens that may start a new line and
// still belong to the previous expression.
func continuesAcrossLines(t lexer.TokenType) bool {
	return t == lexer.DOT || t == lexer.AND || t == lexer.OR
}

// expr is a Pratt loop: parse a prefix, then fold in infix and postfix
// operators that bind tighter than minBP.
func (p *parser) expr(minBP int) (ast.Expression, error) {
	left, err := p.prefix()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		bp, ok := lbp(tok.Type)
		if !ok || bp <= minBP {
			return left, nil
		}
		if tok.NewlineBefore && !continuesAcrossLines(tok.Type) {
			return left, nil
		}
		p.i++
		switch tok.Type {
		case lexer.LPAREN:
			args, err := p.arguments()
			if err != nil {
				return nil, err
			}
			left = at(ast.NewFunctionCall(left, args), tok)
		case lexer.DOT:
			name, err := p.need(lexer.IDENT, "expected member name after '.'")
			if err != nil {
				return nil, err
			}
			left = at(ast.NewMemberAccessExpression(left, name.Literal.(string)), name)
		case lexer.LBRACKET:
			index, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			if _, err := p.need(lexer.RBRACKET, "expected ']'"); err != nil {
				return nil, err
			}
			left = at(ast.NewIndexExpression(left, index), tok)
		case lexer.ASSIGN, lexer.PLUS_ASSIGN, lexer.MINUS_ASSIGN, lexer.STAR_ASSIGN, lexer.SLASH_ASSIGN, lexer.PERCENT_ASSIGN:
			value, err := p.expr(bpAssign - 1)
			if err != nil {
				return nil, err
			}
			if op, ok := compoundOps[tok.Type]; ok {
				value = at(ast.NewBinaryExpression(op, cloneTarget(left), value), tok)
			}
			left = at(ast.NewAssignmentExpression(left, value), tok)
		default:
			right, err := p.expr(bp)
			if err != nil {
				return nil, err
			}
			left = at(ast.NewBinaryExpression(tok.Lexeme, left, right), tok)
		}
	}
}

// cloneTarget copies the node read by a compound assignment so the target and
// the operand do not share an arena slot.
func cloneTarget(target ast.Expression) ast.Expression {
	switch t := target.(type) {
	case *ast.Identifier:
		id := ast.NewIdentifier(t.Name)
		id.SetPos(t.Pos())
		return id
	case *ast.MemberAccessExpression:
		m := ast.NewMemberAccessExpression(t.Object, t.Member)
		m.SetPos(t.Pos())
		return m
	case *ast.IndexExpression:
		ix := ast.NewIndexExpression(t.Object, t.Index)
		ix.SetPos(t.Pos())
		return ix
	}
	return target
}

func (p *parser) arguments() ([]ast.Expression, error) {
	var args []ast.Expression
	for !p.match(lexer.RPAREN) {
		if len(args) > 0 {
			if _, err := p.need(lexer.COMMA, "expected ',' between arguments"); err != nil {
				return nil, err
			}
			if p.match(lexer.RPAREN) {
				break
			}
		}
		arg, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func (p *parser) prefix() (ast.Expression, error) {
	tok := p.peek()
	p.i++
	switch tok.Type {
	case lexer.INT:
		return at(ast.NewIntegerLiteral(tok.Literal.(int64), false), tok), nil
	case lexer.LONG:
		return at(ast.NewIntegerLiteral(tok.Literal.(int64), true), tok), nil
	case lexer.DOUBLE:
		return at(ast.NewFloatLiteral(tok.Literal.(float64)), tok), nil
	case lexer.STRING:
		return p.stringLiteral(tok)
	case lexer.TRUE:
		return at(ast.NewBooleanLiteral(true), tok), nil
	case lexer.FALSE:
		return at(ast.NewBooleanLiteral(false), tok), nil
	case lexer.NULL:
		return at(ast.NewStringLiteral("null"), tok), nil
	case lexer.THIS:
		return at(ast.NewIdentifier("this"), tok), nil
	case lexer.IDENT:
		return at(ast.NewIdentifier(tok.Literal.(string)), tok), nil
	case lexer.MINUS, lexer.BANG, lexer.PLUS:
		operand, err := p.expr(bpPrefix)
		if err != nil {
			return nil, err
		}
		return at(ast.NewUnaryExpression(tok.Lexeme, operand), tok), nil
	case lexer.LPAREN:
		inner, err := p.expr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.need(lexer.RPAREN, "expected ')'"); err != nil {
			return nil, err
		}
		return inner, nil
	case lexer.LBRACKET:
		var elems []ast.Expression
		for !p.match(lexer.RBRACKET) {
			if len(elems) > 0 {
				if _, err := p.need(lexer.COMMA, "expected ',' between array elements"); err != nil {
					return nil, err
				}
				if p.match(lexer.RBRACKET) {
					break
				}
			}
			el, err := p.expr(0)
			if err != nil {
				return nil, err
			}
			elems = append(elems, el)
		}
		return at(ast.NewArrayLiteral(elems), tok), nil
	case lexer.LBRACE:
		return p.lambda(tok)
	}
	p.i--
	return nil, p.errorAt(tok, "expected expression")
}

// lambda parses `{ a, b -> body }` or `{ body }` after its opening brace.
func (p *parser) lambda(open lexer.Token) (ast.Expression, error) {
	var params []*ast.FunctionParameter
	if p.hasLambdaParams() {
		for !p.match(lexer.ARROW) {
			if len(params) > 0 {
				if _, err := p.need(lexer.COMMA, "expected ',' between lambda parameters"); err != nil {
					return nil, err
				}
			}
			param, err := p.param()
			if err != nil {
				return nil, err
			}
			params = append(params, param)
		}
	}
	stmts, err := p.statementsUntilBrace()
	if err != nil {
		return nil, err
	}
	body := at(ast.NewBlockStatement(stmts), open)
	return at(ast.NewLambdaExpression(params, body), open), nil
}

// hasLambdaParams looks ahead for `name [: Type] (, name [: Type])* ->`.
func (p *parser) hasLambdaParams() bool {
	i := 0
	for {
		if p.peekAt(i).Type != lexer.IDENT {
			return false
		}
		i++
		if p.peekAt(i).Type == lexer.COLON {
			i++
			if p.peekAt(i).Type != lexer.IDENT {
				return false
			}
			i++
			if p.peekAt(i).Type == lexer.LT {
				i++
				for depth := 1; depth > 0; i++ {
					switch p.peekAt(i).Type {
					case lexer.LT:
						depth++
					case lexer.GT:
						depth--
					case lexer.EOF:
						return false
					}
				}
			}
		}
		switch p.peekAt(i).Type {
		case lexer.ARROW:
			return true
		case lexer.COMMA:
			i++
		default:
			return false
		}
	}
}

// stringLiteral turns template parts into a literal or an interpolation node.
func (p *parser) stringLiteral(tok lexer.Token) (ast.Expression, error) {
	parts, _ := tok.Literal.([]lexer.StringPart)
	hasExpr := false
	for _, part := range parts {
		if part.Expr {
			hasExpr = true
			break
		}
	}
	if !hasExpr {
		text := ""
		for _, part := range parts {
			text += part.Text
		}
		return at(ast.NewStringLiteral(text), tok), nil
	}
	nodes := make([]ast.Expression, 0, len(parts))
	for _, part := range parts {
		if !part.Expr {
			nodes = append(nodes, at(ast.NewStringLiteral(part.Text), tok))
			continue
		}
		expr, err := parseTemplate(part)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, expr)
	}
	return at(ast.NewStringInterpolation(nodes), tok), nil
}

// parseTemplate parses the source of one `${...}` part and shifts every node
// position to where the part sits in the enclosing file.
func parseTemplate(part lexer.StringPart) (ast.Expression, error) {
	toks, err := lexer.Tokenize(part.Text)
	if err != nil {
		return nil, &Error{Line: part.Line, Column: part.Column, Message: "invalid string template: " + err.Error()}
	}
	sub := &parser{toks: toks}
	expr, err := sub.expr(0)
	if err != nil {
		return nil, &Error{Line: part.Line, Column: part.Column, Message: "invalid string template: " + err.Error()}
	}
	if !sub.atEnd() {
		return nil, &Error{Line: part.Line, Column: part.Column, Message: "unexpected tokens in string template"}
	}
	ast.Inspect(expr, func(n ast.Node) bool {
		local := n.Pos()
		shifted := ast.Position{Line: part.Line + local.Line - 1, Column: local.Column}
		if local.Line == 1 {
			shifted.Column = part.Column + local.Column - 1
		}
		n.SetPos(shifted)
		return true
	})
	return expr, nil
}

// ───────────────────────────────── classes ─────────────────────────────────

func (p *parser) classDecl() (ast.Statement, error) {
	kw := p.peek()
	p.i++
	name, err := p.need(lexer.IDENT, "expected class name")
	if err != nil {
		return nil, err
	}
	class := at(ast.NewClassDeclaration(name.Literal.(string), "", nil, nil, nil), kw)

	if p.check(lexer.LPAREN) {
		ctor, fields, err := p.primaryConstructor()
		if err != nil {
			return nil, err
		}
		class.Constructors = append(class.Constructors, ctor)
		class.Fields = append(class.Fields, fields...)
	}
	if p.match(lexer.COLON) {
		super, err := p.need(lexer.IDENT, "expected superclass name")
		if err != nil {
			return nil, err
		}
		class.SuperClass = super.Literal.(string)
		if p.check(lexer.LPAREN) && !p.peek().NewlineBefore {
			p.i++
			if !p.match(lexer.RPAREN) {
				return nil, p.errorAt(p.peek(), "superclass constructor arguments are not supported")
			}
		}
	}
	if !p.check(lexer.LBRACE) {
		if err := p.endStatement(); err != nil {
			return nil, err
		}
		return class, nil
	}
	p.i++
	for !p.match(lexer.RBRACE) {
		if p.atEnd() {
			return nil, p.errorAt(p.peek(), "expected '}' to close class body")
		}
		if p.match(lexer.SEMICOLON) {
			continue
		}
		if err := p.classMember(class); err != nil {
			return nil, err
		}
	}
	return class, nil
}

func (p *parser) classMember(class *ast.ClassDeclaration) error {
	tok := p.peek()
	switch tok.Type {
	case lexer.VAL, lexer.VAR:
		field, err := p.varDecl()
		if err != nil {
			return err
		}
		if err := p.endStatement(); err != nil {
			return err
		}
		class.Fields = append(class.Fields, field.(*ast.VariableDeclaration))
	case lexer.FUN:
		method, err := p.funDecl()
		if err != nil {
			return err
		}
		class.Methods = append(class.Methods, method)
	case lexer.CONSTRUCTOR:
		p.i++
		params, err := p.params()
		if err != nil {
			return err
		}
		body, err := p.block()
		if err != nil {
			return err
		}
		class.Constructors = append(class.Constructors, at(ast.NewConstructorDeclaration(params, body), tok))
	case lexer.INIT:
		p.i++
		body, err := p.block()
		if err != nil {
			return err
		}
		class.Initializers = append(class.Initializers, body)
	default:
		return p.errorAt(tok, "expected class member")
	}
	return nil
}

// primaryConstructor parses `(val x: Int, y: Int)` after a class name. Every
// parameter becomes a constructor parameter; val/var parameters also become
// fields assigned from it.
func (p *parser) primaryConstructor() (*ast.ConstructorDeclaration, []*ast.VariableDeclaration, error) {
	open := p.peek()
	p.i++
	var (
		params []*ast.FunctionParameter
		fields []*ast.VariableDeclaration
		stmts  []ast.Statement
	)
	for !p.match(lexer.RPAREN) {
		if len(params) > 0 {
			if _, err := p.need(lexer.COMMA, "expected ',' between parameters"); err != nil {
				return nil, nil, err
			}
			if p.match(lexer.RPAREN) {
				break
			}
		}
		property := p.peek()
		isField := p.match(lexer.VAL, lexer.VAR)
		param, err := p.param()
		if err != nil {
			return nil, nil, err
		}
		params = append(params, param)
		if !isField {
			continue
		}
		fields = append(fields, at(ast.NewVariableDeclaration(param.Name, property.Type == lexer.VAR, param.Type, nil), property))
		target := at(ast.NewMemberAccessExpression(at(ast.NewIdentifier("this"), property), param.Name), property)
		stmts = append(stmts, at(ast.NewAssignmentExpression(target, at(ast.NewIdentifier(param.Name), property)), property))
	}
	body := at(ast.NewBlockStatement(stmts), open)
	return at(ast.NewConstructorDeclaration(params, body), open), fields, nil
}
