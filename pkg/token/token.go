// Package token defines the lexical token kinds produced by pkg/lexer and
// consumed by pkg/parser.
package token

import "fmt"

// Kind identifies the category of a lexed token.
type Kind int

const (
	EOF Kind = iota // sentinel: end of input

	IDENTIFIER // variable / function / type name not recognized as a keyword
	NUMBER     // integer or floating-point literal, see Token.IsFloat/IsUnsigned
	STRING     // "..." literal
	CHAR       // '...' literal
	PREPROCESSOR

	KEYWORD          // if else while for return break continue throw new delete class struct namespace template using typename
	TYPE_SPECIFIER   // void bool char int float double short long signed unsigned auto
	ACCESS_SPECIFIER // public private protected
	STORAGE_QUALIFIER // static extern register const volatile inline

	LBRACE   // {
	RBRACE   // }
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]
	DOT       // .
	SEMICOLON // ;
	COMMA     // ,
	COLON     // :

	LESS       // <
	GREATER    // >
	LESS_EQ    // <=
	GREATER_EQ // >=
	SHL        // <<
	SHR        // >>
	ARROW      // ->
	ARROW_STAR // ->*
	DOT_STAR   // .*
	SCOPE      // ::
	ELLIPSIS   // ...

	OPERATOR // generic: everything else (+ - * / % = == != && || ! & | ^ ~ += -= *= /= ++ -- ?)
)

var kindNames = [...]string{
	EOF:                "EOF",
	IDENTIFIER:         "IDENTIFIER",
	NUMBER:             "NUMBER",
	STRING:             "STRING",
	CHAR:               "CHAR",
	PREPROCESSOR:       "PREPROCESSOR",
	KEYWORD:            "KEYWORD",
	TYPE_SPECIFIER:     "TYPE_SPECIFIER",
	ACCESS_SPECIFIER:   "ACCESS_SPECIFIER",
	STORAGE_QUALIFIER:  "STORAGE_QUALIFIER",
	LBRACE:             "LBRACE",
	RBRACE:             "RBRACE",
	LPAREN:             "LPAREN",
	RPAREN:             "RPAREN",
	LBRACKET:           "LBRACKET",
	RBRACKET:           "RBRACKET",
	DOT:                "DOT",
	SEMICOLON:          "SEMICOLON",
	COMMA:              "COMMA",
	COLON:              "COLON",
	LESS:               "LESS",
	GREATER:            "GREATER",
	LESS_EQ:            "LESS_EQ",
	GREATER_EQ:         "GREATER_EQ",
	SHL:                "SHL",
	SHR:                "SHR",
	ARROW:              "ARROW",
	ARROW_STAR:         "ARROW_STAR",
	DOT_STAR:           "DOT_STAR",
	SCOPE:              "SCOPE",
	ELLIPSIS:           "ELLIPSIS",
	OPERATOR:           "OPERATOR",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Kind   Kind
	Lexeme string // exact matched source text (keyword spelling, operator spelling, literal value)
	Line   int    // 1-based
	Column int     // 1-based, start column of the token

	IsFloat    bool // NUMBER only: literal contains '.', 'e'/'E' exponent (no hex prefix)
	IsUnsigned bool // NUMBER only: literal carries a u/U suffix
	IsHex      bool // NUMBER only: literal has a 0x/0X prefix
}

func (t Token) String() string {
	return fmt.Sprintf("%-12s %-14q line %d col %d", t.Kind, t.Lexeme, t.Line, t.Column)
}

// Keywords, type specifiers, access specifiers and storage/qualifiers: the
// four reclassification maps an IDENTIFIER is checked against after it is
// scanned, per the lexer's identifier rule.
var Keywords = map[string]bool{
	"if": true, "else": true, "while": true, "for": true, "return": true,
	"break": true, "continue": true, "throw": true, "new": true, "delete": true,
	"class": true, "struct": true, "namespace": true, "template": true,
	"using": true, "typename": true,
}

var TypeSpecifiers = map[string]bool{
	"void": true, "bool": true, "char": true, "int": true, "float": true,
	"double": true, "short": true, "long": true, "signed": true, "unsigned": true,
	"auto": true,
}

var AccessSpecifiers = map[string]bool{
	"public": true, "private": true, "protected": true,
}

var StorageQualifiers = map[string]bool{
	"static": true, "extern": true, "register": true, "const": true,
	"volatile": true, "inline": true,
}

// Lookup reclassifies a scanned identifier lexeme, returning the kind it
// should carry. IDENTIFIER is returned when none of the four maps match.
func Lookup(ident string) Kind {
	switch {
	case Keywords[ident]:
		return KEYWORD
	case TypeSpecifiers[ident]:
		return TYPE_SPECIFIER
	case AccessSpecifiers[ident]:
		return ACCESS_SPECIFIER
	case StorageQualifiers[ident]:
		return STORAGE_QUALIFIER
	default:
		return IDENTIFIER
	}
}
