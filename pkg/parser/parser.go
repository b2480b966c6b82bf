// Package parser implements a recursive-descent parser over pkg/lexer's
// token stream, producing a pkg/ast.Program. Parsing is fail-fast: the
// first structural error aborts with a position and a context window of
// neighbouring tokens, matching the reference compiler's recovery policy.
package parser

import (
	"fmt"
	"strings"

	"g0c/pkg/ast"
	"g0c/pkg/token"
)

// Parser holds all state for a single parse over tokens.
type Parser struct {
	tokens       []token.Token
	pos          int
	currentClass string // non-empty while inside a class/struct body

	voidFuncs map[string]bool // mangled-or-raw name -> declared void, for the post-parse check
}

// New creates a Parser over a finished token stream (as returned by
// lexer.Lex; the trailing EOF token is required).
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, voidFuncs: make(map[string]bool)}
}

// Parse runs the full top-level loop and returns the resulting Program.
func Parse(tokens []token.Token) (*ast.Program, error) {
	p := New(tokens)
	prog, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	if err := p.validateVoidCalls(prog); err != nil {
		return nil, err
	}
	return prog, nil
}

// ------------------------------------------------------------------
// token-stream primitives
// ------------------------------------------------------------------

func (p *Parser) peek() token.Token  { return p.peekAt(0) }
func (p *Parser) peekNext() token.Token { return p.peekAt(1) }

func (p *Parser) peekAt(n int) token.Token {
	i := p.pos + n
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[i]
}

func (p *Parser) advance() token.Token {
	t := p.peek()
	if t.Kind != token.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) check(k token.Kind) bool { return p.peek().Kind == k }

func (p *Parser) checkLexeme(k token.Kind, lexeme string) bool {
	t := p.peek()
	return t.Kind == k && t.Lexeme == lexeme
}

func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if p.check(k) {
		return p.advance(), nil
	}
	return token.Token{}, p.fmtError(fmt.Sprintf("expected %s", k))
}

func (p *Parser) fmtError(msg string) error {
	tok := p.peek()
	var ctx []string
	start := p.pos - 4
	if start < 0 {
		start = 0
	}
	end := p.pos + 6
	if end > len(p.tokens) {
		end = len(p.tokens)
	}
	for i := start; i < end; i++ {
		marker := "  "
		if i == p.pos {
			marker = "->"
		}
		ctx = append(ctx, fmt.Sprintf("%s %q", marker, p.tokens[i].Lexeme))
	}
	return fmt.Errorf("line %d col %d: %s (got %s %q)\n  context: %s",
		tok.Line, tok.Column, msg, tok.Kind, tok.Lexeme, strings.Join(ctx, " "))
}

func pos(t token.Token) ast.Position { return ast.Position{Line: t.Line, Column: t.Column} }

// ------------------------------------------------------------------
// top level
// ------------------------------------------------------------------

func (p *Parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	for !p.check(token.EOF) {
		node, err := p.parseDeclOrStmt()
		if err != nil {
			return nil, err
		}
		if node != nil {
			prog.Decls = append(prog.Decls, node)
		}
	}
	return prog, nil
}

// parseDeclOrStmt is the single dispatch routine used at top level, inside
// blocks, inside class bodies and inside namespace bodies.
func (p *Parser) parseDeclOrStmt() (ast.Node, error) {
	tok := p.peek()

	switch tok.Kind {
	case token.PREPROCESSOR:
		return p.parseInclude()
	case token.ACCESS_SPECIFIER:
		return p.parseAccessSpecifier()
	case token.RBRACE:
		return nil, p.fmtError("unexpected '}'")
	}

	if tok.Kind == token.KEYWORD {
		switch tok.Lexeme {
		case "return", "if", "while", "for", "break", "continue", "throw", "delete", "new":
			return p.parseStatement()
		case "class":
			return p.parseClassOrStruct(false)
		case "struct":
			return p.parseClassOrStruct(true)
		case "namespace":
			return p.parseNamespace()
		case "template":
			return p.parseTemplate()
		case "using":
			return p.parseUsing()
		}
	}

	if tok.Kind == token.TYPE_SPECIFIER || tok.Kind == token.STORAGE_QUALIFIER {
		return p.parseVarOrFuncDecl()
	}

	if tok.Kind == token.IDENTIFIER && p.looksLikeUserTypeDecl() {
		return p.parseVarOrFuncDecl()
	}

	return p.parseStatement()
}

func (p *Parser) parseInclude() (ast.Node, error) {
	tok := p.advance() // PREPROCESSOR
	fields := strings.Fields(tok.Lexeme)
	if len(fields) == 0 || fields[0] != "include" {
		return nil, nil // other directives (#define, #pragma, #ifndef, ...) are no-ops
	}
	rest := strings.TrimSpace(strings.TrimPrefix(tok.Lexeme, "include"))
	if strings.HasPrefix(rest, "<") && strings.Contains(rest, ">") {
		name := rest[1:strings.Index(rest, ">")]
		return &ast.IncludeDecl{P: pos(tok), Filename: name, IsSystem: true}, nil
	}
	if strings.HasPrefix(rest, "\"") {
		end := strings.Index(rest[1:], "\"")
		if end >= 0 {
			return &ast.IncludeDecl{P: pos(tok), Filename: rest[1 : 1+end], IsSystem: false}, nil
		}
	}
	return nil, nil
}

func (p *Parser) parseAccessSpecifier() (ast.Node, error) {
	tok := p.advance() // ACCESS_SPECIFIER
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	return &ast.AccessStmt{P: pos(tok), Specifier: tok.Lexeme}, nil
}

func (p *Parser) parseClassOrStruct(isStruct bool) (ast.Node, error) {
	start := p.advance() // "class" or "struct"
	name, err := p.expect(token.IDENTIFIER)
	if err != nil {
		return nil, err
	}

	var bases []string
	if !isStruct && p.match(token.COLON) {
		for {
			p.match(token.ACCESS_SPECIFIER) // access specifiers on the base list are discarded
			base, err := p.expect(token.IDENTIFIER)
			if err != nil {
				return nil, err
			}
			bases = append(bases, base.Lexeme)
			if !p.match(token.COMMA) {
				break
			}
		}
	}

	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}

	savedClass := p.currentClass
	p.currentClass = name.Lexeme
	var members []ast.Node
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		m, err := p.parseDeclOrStmt()
		if err != nil {
			p.currentClass = savedClass
			return nil, err
		}
		if m != nil {
			members = append(members, m)
		}
	}
	p.currentClass = savedClass

	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}

	return &ast.ClassDecl{P: pos(start), Name: name.Lexeme, IsStruct: isStruct, Bases: bases, Members: members}, nil
}

func (p *Parser) parseNamespace() (ast.Node, error) {
	start := p.advance() // "namespace"
	name := ""
	if p.check(token.IDENTIFIER) {
		name = p.advance().Lexeme
		for p.match(token.SCOPE) {
			more, err := p.expect(token.IDENTIFIER)
			if err != nil {
				return nil, err
			}
			name += "::" + more.Lexeme
		}
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var body []ast.Node
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		n, err := p.parseDeclOrStmt()
		if err != nil {
			return nil, err
		}
		if n != nil {
			body = append(body, n)
		}
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.NamespaceDecl{P: pos(start), Name: name, Body: body}, nil
}

func (p *Parser) parseTemplate() (ast.Node, error) {
	start := p.advance() // "template"
	if _, err := p.expect(token.LESS); err != nil {
		return nil, err
	}
	var params []ast.TemplateParam
	for !p.check(token.GREATER) {
		if !p.checkLexeme(token.KEYWORD, "typename") && !p.checkLexeme(token.KEYWORD, "class") {
			return nil, p.fmtError("expected 'typename' or 'class' in template parameter list")
		}
		p.advance()
		name, err := p.expect(token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		tp := ast.TemplateParam{Name: name.Lexeme}
		if p.checkLexeme(token.OPERATOR, "=") {
			p.advance()
			def, err := p.expect(token.IDENTIFIER)
			if err != nil {
				return nil, err
			}
			tp.Default = def.Lexeme
		}
		params = append(params, tp)
		if !p.match(token.COMMA) {
			break
		}
	}
	if _, err := p.expect(token.GREATER); err != nil {
		return nil, err
	}
	decl, err := p.parseDeclOrStmt()
	if err != nil {
		return nil, err
	}
	return &ast.TemplateDecl{P: pos(start), Params: params, Decl: decl}, nil
}

func (p *Parser) parseUsing() (ast.Node, error) {
	start := p.advance() // "using"
	if p.checkLexeme(token.KEYWORD, "namespace") {
		p.advance()
		name, err := p.expect(token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		full := name.Lexeme
		for p.match(token.SCOPE) {
			more, err := p.expect(token.IDENTIFIER)
			if err != nil {
				return nil, err
			}
			full += "::" + more.Lexeme
		}
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.UsingDecl{P: pos(start), Namespace: full}, nil
	}
	// using X::Y; — consumed and discarded.
	for !p.check(token.SEMICOLON) && !p.check(token.EOF) {
		p.advance()
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return nil, nil
}
