package lexer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota
	ILLEGAL

	// Punctuation
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	LBRACE
	RBRACE
	COMMA
	DOT
	COLON
	SEMICOLON
	ARROW // "->"

	// Operators
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	ASSIGN
	PLUS_ASSIGN
	MINUS_ASSIGN
	STAR_ASSIGN
	SLASH_ASSIGN
	PERCENT_ASSIGN
	EQ
	NEQ
	LT
	LTE
	GT
	GTE
	AND
	OR
	BANG

	// Literals & identifiers
	IDENT
	INT
	LONG
	DOUBLE
	STRING

	// Keywords
	VAL
	VAR
	FUN
	CLASS
	CONSTRUCTOR
	INIT
	IF
	ELSE
	WHILE
	FOR
	IN
	WHEN
	TRY
	CATCH
	FINALLY
	RETURN
	BREAK
	CONTINUE
	TRUE
	FALSE
	NULL
	THIS
)

var names = map[TokenType]string{
	EOF: "end of file", ILLEGAL: "illegal",
	LPAREN: "(", RPAREN: ")", LBRACKET: "[", RBRACKET: "]", LBRACE: "{", RBRACE: "}",
	COMMA: ",", DOT: ".", COLON: ":", SEMICOLON: ";", ARROW: "->",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%",
	ASSIGN: "=", PLUS_ASSIGN: "+=", MINUS_ASSIGN: "-=", STAR_ASSIGN: "*=", SLASH_ASSIGN: "/=", PERCENT_ASSIGN: "%=",
	EQ: "==", NEQ: "!=", LT: "<", LTE: "<=", GT: ">", GTE: ">=", AND: "&&", OR: "||", BANG: "!",
	IDENT: "identifier", INT: "integer", LONG: "long", DOUBLE: "double", STRING: "string",
}

func (t TokenType) String() string {
	if s, ok := names[t]; ok {
		return s
	}
	for word, tt := range keywords {
		if tt == t {
			return word
		}
	}
	return fmt.Sprintf("token(%d)", int(t))
}

var keywords = map[string]TokenType{
	"val":         VAL,
	"var":         VAR,
	"fun":         FUN,
	"class":       CLASS,
	"constructor": CONSTRUCTOR,
	"init":        INIT,
	"if":          IF,
	"else":        ELSE,
	"while":       WHILE,
	"for":         FOR,
	"in":          IN,
	"when":        WHEN,
	"try":         TRY,
	"catch":       CATCH,
	"finally":     FINALLY,
	"return":      RETURN,
	"break":       BREAK,
	"continue":    CONTINUE,
	"true":        TRUE,
	"false":       FALSE,
	"null":        NULL,
	"this":        THIS,
}

// StringPart is one piece of a string literal. Expr parts hold the raw source
// of a `$name` or `${...}` template.
type StringPart struct {
	Text   string
	Expr   bool
	Line   int
	Column int
}

// Token is a lexical token with optional literal value.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal any // int64, float64 or []StringPart
	Line    int
	Column  int
	// NewlineBefore is set when a line break separates this token from the
	// previous one; the parser uses it to end statements.
	NewlineBefore bool
}

// Lexer scans Dotlin source into tokens.
type Lexer struct {
	src    string
	start  int
	cur    int
	line   int
	col    int
	tokens []Token

	newlineBefore bool
	tokStartLine  int
	tokStartCol   int
}

func New(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Tokenize is a convenience wrapper around New(src).Scan().
func Tokenize(src string) ([]Token, error) {
	return New(src).Scan()
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.src[l.cur]
}

func (l *Lexer) peekN(n int) byte {
	if l.cur+n >= len(l.src) {
		return 0
	}
	return l.src[l.cur+n]
}

func (l *Lexer) advance() byte {
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) addToken(tt TokenType, lit any) Token {
	tok := Token{
		Type:          tt,
		Lexeme:        l.src[l.start:l.cur],
		Literal:       lit,
		Line:          l.tokStartLine,
		Column:        l.tokStartCol,
		NewlineBefore: l.newlineBefore,
	}
	l.tokens = append(l.tokens, tok)
	l.newlineBefore = false
	return tok
}

// ----- errors -----

type Error struct {
	Line   int
	Column int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

func (l *Lexer) err(msg string) error {
	return &Error{Line: l.tokStartLine, Column: l.tokStartCol, Msg: msg}
}

// ----- scanners -----

func (l *Lexer) skipTrivia() error {
	for !l.isAtEnd() {
		switch ch := l.peek(); {
		case ch == '\n':
			l.newlineBefore = true
			l.advance()
		case ch == ' ' || ch == '\t' || ch == '\r':
			l.advance()
		case ch == '/' && l.peekN(1) == '/':
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
		case ch == '/' && l.peekN(1) == '*':
			line, col := l.line, l.col
			l.advance()
			l.advance()
			for {
				if l.isAtEnd() {
					return &Error{Line: line, Column: col, Msg: "unterminated block comment"}
				}
				if l.peek() == '*' && l.peekN(1) == '/' {
					l.advance()
					l.advance()
					break
				}
				if l.advance() == '\n' {
					l.newlineBefore = true
				}
			}
		default:
			return nil
		}
	}
	return nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }
func isAlphaNum(b byte) bool {
	return isAlpha(b) || isDigit(b)
}

func (l *Lexer) scanNumber() (TokenType, any, error) {
	for isDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	isFloat := false
	if l.peek() == '.' && isDigit(l.peekN(1)) {
		isFloat = true
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if c := l.peek(); c == 'e' || c == 'E' {
		next := l.peekN(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekN(2))) {
			isFloat = true
			l.advance()
			if l.peek() == '+' || l.peek() == '-' {
				l.advance()
			}
			for isDigit(l.peek()) {
				l.advance()
			}
		}
	}
	text := strings.ReplaceAll(l.src[l.start:l.cur], "_", "")
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return ILLEGAL, nil, l.err(fmt.Sprintf("invalid number %q", text))
		}
		return DOUBLE, f, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return ILLEGAL, nil, l.err(fmt.Sprintf("integer literal out of range: %s", text))
	}
	if l.peek() == 'L' {
		l.advance()
		return LONG, n, nil
	}
	if n > math.MaxInt32 {
		return LONG, n, nil
	}
	return INT, n, nil
}

func (l *Lexer) scanString() ([]StringPart, error) {
	var parts []StringPart
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			parts = append(parts, StringPart{Text: text.String()})
			text.Reset()
		}
	}
	for {
		if l.isAtEnd() || l.peek() == '\n' {
			return nil, l.err("unterminated string literal")
		}
		ch := l.advance()
		switch ch {
		case '"':
			flush()
			return parts, nil
		case '\\':
			if l.isAtEnd() {
				return nil, l.err("unfinished escape sequence")
			}
			switch esc := l.advance(); esc {
			case 'n':
				text.WriteByte('\n')
			case 't':
				text.WriteByte('\t')
			case 'r':
				text.WriteByte('\r')
			case '"', '\\', '$', '\'':
				text.WriteByte(esc)
			default:
				return nil, l.err(fmt.Sprintf("unknown escape sequence \\%c", esc))
			}
		case '$':
			line, col := l.line, l.col
			if l.peek() == '{' {
				l.advance()
				startExpr := l.cur
				depth := 1
				for depth > 0 {
					if l.isAtEnd() {
						return nil, l.err("unterminated ${ in string literal")
					}
					switch l.advance() {
					case '{':
						depth++
					case '}':
						depth--
					}
				}
				flush()
				parts = append(parts, StringPart{Text: l.src[startExpr : l.cur-1], Expr: true, Line: line, Column: col + 1})
				continue
			}
			if isAlpha(l.peek()) {
				startName := l.cur
				for isAlphaNum(l.peek()) {
					l.advance()
				}
				flush()
				parts = append(parts, StringPart{Text: l.src[startName:l.cur], Expr: true, Line: line, Column: col})
				continue
			}
			text.WriteByte('$')
		default:
			text.WriteByte(ch)
		}
	}
}

// ----- main scanner -----

var twoChar = map[string]TokenType{
	"->": ARROW, "+=": PLUS_ASSIGN, "-=": MINUS_ASSIGN, "*=": STAR_ASSIGN, "/=": SLASH_ASSIGN,
	"%=": PERCENT_ASSIGN, "==": EQ, "!=": NEQ, "<=": LTE, ">=": GTE, "&&": AND, "||": OR,
}

var oneChar = map[byte]TokenType{
	'(': LPAREN, ')': RPAREN, '[': LBRACKET, ']': RBRACKET, '{': LBRACE, '}': RBRACE,
	',': COMMA, '.': DOT, ':': COLON, ';': SEMICOLON,
	'+': PLUS, '-': MINUS, '*': STAR, '/': SLASH, '%': PERCENT,
	'=': ASSIGN, '<': LT, '>': GT, '!': BANG,
}

func (l *Lexer) scanToken() (Token, error) {
	if err := l.skipTrivia(); err != nil {
		return Token{}, err
	}
	l.start = l.cur
	l.tokStartLine = l.line
	l.tokStartCol = l.col
	if l.isAtEnd() {
		return l.addToken(EOF, nil), nil
	}

	ch := l.advance()
	switch {
	case isDigit(ch):
		tt, lit, err := l.scanNumber()
		if err != nil {
			return Token{}, err
		}
		return l.addToken(tt, lit), nil
	case isAlpha(ch):
		for isAlphaNum(l.peek()) {
			l.advance()
		}
		word := l.src[l.start:l.cur]
		if tt, ok := keywords[word]; ok {
			return l.addToken(tt, nil), nil
		}
		return l.addToken(IDENT, word), nil
	case ch == '"':
		parts, err := l.scanString()
		if err != nil {
			return Token{}, err
		}
		return l.addToken(STRING, parts), nil
	}

	if !l.isAtEnd() {
		if tt, ok := twoChar[string([]byte{ch, l.peek()})]; ok {
			l.advance()
			return l.addToken(tt, nil), nil
		}
	}
	if tt, ok := oneChar[ch]; ok {
		return l.addToken(tt, nil), nil
	}
	return Token{}, l.err(fmt.Sprintf("unexpected character: %q", ch))
}

// Scan tokenizes the entire source and returns tokens (EOF included).
func (l *Lexer) Scan() ([]Token, error) {
	for {
		tok, err := l.scanToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == EOF {
			return l.tokens, nil
		}
	}
}
