package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nalgeon/be"
)

func typesWithoutEOF(tokens []Token) []TokenType {
	out := make([]TokenType, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Type != EOF {
			out = append(out, tok.Type)
		}
	}
	return out
}

func wantTypes(t *testing.T, src string, want []TokenType) []Token {
	t.Helper()
	got, err := Tokenize(src)
	be.Err(t, err, nil)
	if diff := cmp.Diff(want, typesWithoutEOF(got)); diff != "" {
		t.Fatalf("token types mismatch for %q (-want +got):\n%s", src, diff)
	}
	return got
}

func TestDeclarationTokens(t *testing.T) {
	toks := wantTypes(t, "val x: Int = 42", []TokenType{VAL, IDENT, COLON, IDENT, ASSIGN, INT})
	be.Equal(t, toks[1].Literal, any("x"))
	be.Equal(t, toks[5].Literal, any(int64(42)))
	be.Equal(t, toks[5].Column, 14)
}

func TestOperators(t *testing.T) {
	wantTypes(t, "a += b -> c && d || !e == f != g <= h >= i % j",
		[]TokenType{IDENT, PLUS_ASSIGN, IDENT, ARROW, IDENT, AND, IDENT, OR, BANG, IDENT, EQ, IDENT, NEQ, IDENT, LTE, IDENT, GTE, IDENT, PERCENT, IDENT})
}

func TestNumberLiterals(t *testing.T) {
	toks := wantTypes(t, "1 3000000000 7L 2.5 1e3", []TokenType{INT, LONG, LONG, DOUBLE, DOUBLE})
	be.Equal(t, toks[1].Literal, any(int64(3000000000)))
	be.Equal(t, toks[2].Literal, any(int64(7)))
	be.Equal(t, toks[4].Literal, any(1000.0))
}

func TestNewlineTracking(t *testing.T) {
	toks := wantTypes(t, "val a = 1\n// comment\nval b = 2 /* multi\nline */ c", []TokenType{VAL, IDENT, ASSIGN, INT, VAL, IDENT, ASSIGN, INT, IDENT})
	be.True(t, toks[4].NewlineBefore)
	be.Equal(t, toks[4].Line, 3)
	be.True(t, !toks[5].NewlineBefore)
	be.True(t, toks[8].NewlineBefore)
}

func TestStringTemplates(t *testing.T) {
	toks := wantTypes(t, `"hi $name, sum=${a + b}\n\$x"`, []TokenType{STRING})
	parts := toks[0].Literal.([]StringPart)
	want := []StringPart{
		{Text: "hi "},
		{Text: "name", Expr: true, Line: 1, Column: 6},
		{Text: ", sum="},
		{Text: "a + b", Expr: true, Line: 1, Column: 18},
		{Text: "\n$x"},
	}
	if diff := cmp.Diff(want, parts); diff != "" {
		t.Fatalf("string parts mismatch (-want +got):\n%s", diff)
	}
}

func TestKeywords(t *testing.T) {
	wantTypes(t, "class A : B { constructor() {} init {} } when try catch finally this null",
		[]TokenType{CLASS, IDENT, COLON, IDENT, LBRACE, CONSTRUCTOR, LPAREN, RPAREN, LBRACE, RBRACE, INIT, LBRACE, RBRACE, RBRACE, WHEN, TRY, CATCH, FINALLY, THIS, NULL})
}

func TestLexErrors(t *testing.T) {
	_, err := Tokenize(`"open`)
	be.Err(t, err, "unterminated string")
	_, err = Tokenize("a # b")
	be.Err(t, err, "unexpected character")
	_, err = Tokenize("/* never closed")
	be.Err(t, err, "unterminated block comment")
}
