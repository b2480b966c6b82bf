package lexer

import (
	"testing"

	"g0c/pkg/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexBasicOperators(t *testing.T) {
	toks, errs := Lex("a < b; a << b; a <= b; v->field; Foo::Bar; a...b; a->*b; a.*b", "")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []token.Kind{
		token.IDENTIFIER, token.LESS, token.IDENTIFIER, token.SEMICOLON,
		token.IDENTIFIER, token.SHL, token.IDENTIFIER, token.SEMICOLON,
		token.IDENTIFIER, token.LESS_EQ, token.IDENTIFIER, token.SEMICOLON,
		token.IDENTIFIER, token.ARROW, token.IDENTIFIER, token.SEMICOLON,
		token.IDENTIFIER, token.SCOPE, token.IDENTIFIER, token.SEMICOLON,
		token.IDENTIFIER, token.ELLIPSIS, token.IDENTIFIER, token.SEMICOLON,
		token.IDENTIFIER, token.ARROW_STAR, token.IDENTIFIER, token.SEMICOLON,
		token.IDENTIFIER, token.DOT_STAR, token.IDENTIFIER,
		token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d\ngot: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLexKeywordReclassification(t *testing.T) {
	toks, errs := Lex("static const int public class x", "")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []token.Kind{
		token.STORAGE_QUALIFIER, token.STORAGE_QUALIFIER, token.TYPE_SPECIFIER,
		token.ACCESS_SPECIFIER, token.KEYWORD, token.IDENTIFIER, token.EOF,
	}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLexNumberSuffixesAndHex(t *testing.T) {
	cases := []struct {
		src        string
		isFloat    bool
		isUnsigned bool
		isHex      bool
	}{
		{"42", false, false, false},
		{"42u", false, true, false},
		{"0x2A", false, false, true},
		{"0x2Au", false, true, true},
		{"3.14", true, false, false},
		{"3.14f", true, false, false},
		{"1e10", true, false, false},
		{"1.5e-3", true, false, false},
		{"10ull", false, true, false},
	}
	for _, c := range cases {
		toks, errs := Lex(c.src, "")
		if len(errs) != 0 {
			t.Fatalf("%q: unexpected errors: %v", c.src, errs)
		}
		tok := toks[0]
		if tok.Kind != token.NUMBER {
			t.Fatalf("%q: kind = %s, want NUMBER", c.src, tok.Kind)
		}
		if tok.IsFloat != c.isFloat || tok.IsUnsigned != c.isUnsigned || tok.IsHex != c.isHex {
			t.Errorf("%q: got float=%v unsigned=%v hex=%v, want float=%v unsigned=%v hex=%v",
				c.src, tok.IsFloat, tok.IsUnsigned, tok.IsHex, c.isFloat, c.isUnsigned, c.isHex)
		}
	}
}

func TestLexStringEscapes(t *testing.T) {
	toks, errs := Lex(`"a\nb\tc\\d\"e"`, "")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := "a\nb\tc\\d\"e"
	if toks[0].Lexeme != want {
		t.Errorf("Lexeme = %q, want %q", toks[0].Lexeme, want)
	}
}

func TestLexUnterminatedStringRecordsErrorAndContinues(t *testing.T) {
	toks, errs := Lex("\"abc\nint x;", "")
	if len(errs) == 0 {
		t.Fatal("expected an error for the unterminated string")
	}
	// Scanning must continue past the bad token.
	found := false
	for _, tk := range toks {
		if tk.Kind == token.TYPE_SPECIFIER && tk.Lexeme == "int" {
			found = true
		}
	}
	if !found {
		t.Errorf("lexer did not recover after the bad string, tokens: %v", toks)
	}
}

func TestLexPreprocessorDirective(t *testing.T) {
	toks, errs := Lex("#include <vector>\nint x;", "")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if toks[0].Kind != token.PREPROCESSOR {
		t.Fatalf("first token kind = %s, want PREPROCESSOR", toks[0].Kind)
	}
	if toks[0].Lexeme != "include <vector>" {
		t.Errorf("Lexeme = %q", toks[0].Lexeme)
	}
}

func TestLexLineAndBlockComments(t *testing.T) {
	toks, errs := Lex("int x; // trailing\n/* block\ncomment */ int y;", "")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	count := 0
	for _, tk := range toks {
		if tk.Kind == token.IDENTIFIER {
			count++
		}
	}
	if count != 2 {
		t.Errorf("identifier count = %d, want 2", count)
	}
}
