package parser

import (
	"g0c/pkg/ast"
	"g0c/pkg/token"
)

// parsedType is the intermediate result of parseType: the ordered token
// text plus the pointer/reference/void flags codegen needs.
type parsedType struct {
	tokens      []string
	isPointer   bool
	isReference bool
	isVoid      bool
	isUnsigned  bool
}

// parseType consumes storage-class/qualifier tokens, a base type (either a
// single type specifier or a qualified/templated user-defined name), and
// trailing pointer/reference markers.
func (p *Parser) parseType() (parsedType, error) {
	var pt parsedType

	for p.check(token.STORAGE_QUALIFIER) {
		t := p.advance()
		pt.tokens = append(pt.tokens, t.Lexeme)
		if t.Lexeme == "unsigned" {
			pt.isUnsigned = true
		}
	}

	if p.checkLexeme(token.TYPE_SPECIFIER, "unsigned") {
		pt.isUnsigned = true
	}

	switch {
	case p.check(token.TYPE_SPECIFIER):
		t := p.advance()
		pt.tokens = append(pt.tokens, t.Lexeme)
		if t.Lexeme == "void" {
			pt.isVoid = true
		}
	case p.checkLexeme(token.KEYWORD, "typename") || p.checkLexeme(token.KEYWORD, "class"):
		p.advance()
		if err := p.parseQualifiedTypeName(&pt); err != nil {
			return pt, err
		}
	case p.check(token.IDENTIFIER):
		if err := p.parseQualifiedTypeName(&pt); err != nil {
			return pt, err
		}
	default:
		return pt, p.fmtError("expected a type")
	}

	// Additional storage qualifiers occasionally trail the base type
	// (e.g. "int const").
	for p.check(token.STORAGE_QUALIFIER) {
		pt.tokens = append(pt.tokens, p.advance().Lexeme)
	}

	for {
		if p.checkLexeme(token.OPERATOR, "*") {
			p.advance()
			pt.isPointer = true
			pt.tokens = append(pt.tokens, "*")
			continue
		}
		if p.checkLexeme(token.OPERATOR, "&") {
			p.advance()
			pt.isReference = true
			pt.tokens = append(pt.tokens, "&")
			continue
		}
		if p.check(token.STORAGE_QUALIFIER) {
			pt.tokens = append(pt.tokens, p.advance().Lexeme)
			continue
		}
		break
	}

	return pt, nil
}

// parseQualifiedTypeName reads: IDENT ( '::' IDENT )* ( '<' ... '>' )?
// Template argument text is concatenated verbatim; nesting of '<'/'>' is
// tracked with a depth counter.
func (p *Parser) parseQualifiedTypeName(pt *parsedType) error {
	name, err := p.expect(token.IDENTIFIER)
	if err != nil {
		return err
	}
	text := name.Lexeme
	for p.match(token.SCOPE) {
		more, err := p.expect(token.IDENTIFIER)
		if err != nil {
			return err
		}
		text += "::" + more.Lexeme
	}
	if p.check(token.LESS) {
		p.advance()
		text += "<"
		depth := 1
		for depth > 0 {
			if p.check(token.EOF) {
				return p.fmtError("unterminated template argument list")
			}
			if p.check(token.LESS) {
				depth++
			} else if p.check(token.GREATER) {
				depth--
				if depth == 0 {
					p.advance()
					text += ">"
					break
				}
			}
			text += p.advance().Lexeme
		}
	}
	pt.tokens = append(pt.tokens, text)
	return nil
}

// looksLikeUserTypeDecl is the pure-function type lookahead: it scans,
// without consuming, to decide whether the current IDENTIFIER begins a
// user-defined-type variable/function declaration as opposed to the start
// of an expression statement.
func (p *Parser) looksLikeUserTypeDecl() bool {
	i := p.pos
	if p.tokens[i].Kind != token.IDENTIFIER {
		return false
	}
	i++
	for p.tokens[i].Kind == token.SCOPE && p.tokens[i+1].Kind == token.IDENTIFIER {
		i += 2
	}
	if p.tokens[i].Kind == token.LESS {
		depth := 1
		i++
		for depth > 0 && p.tokens[i].Kind != token.EOF {
			switch p.tokens[i].Kind {
			case token.LESS:
				depth++
			case token.GREATER:
				depth--
			}
			i++
		}
	}
	for p.tokens[i].Kind == token.OPERATOR && (p.tokens[i].Lexeme == "*" || p.tokens[i].Lexeme == "&") {
		i++
	}
	return p.tokens[i].Kind == token.IDENTIFIER
}

// parseVarOrFuncDecl parses a type, then decides (by one-token-of-lookahead
// after the type and name) whether this is a function or one-or-more
// variable declarators.
func (p *Parser) parseVarOrFuncDecl() (ast.Node, error) {
	start := p.peek()
	pt, err := p.parseType()
	if err != nil {
		return nil, err
	}

	if p.check(token.IDENTIFIER) && p.peekNext().Kind == token.LPAREN {
		return p.parseFunctionDecl(start, pt)
	}

	return p.parseVarDeclList(start, pt, true)
}

func (p *Parser) parseFunctionDecl(start token.Token, pt parsedType) (ast.Node, error) {
	name := p.advance().Lexeme
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	var params []ast.Param
	for !p.check(token.RPAREN) {
		ppt, err := p.parseType()
		if err != nil {
			return nil, err
		}
		pname := ""
		if p.check(token.IDENTIFIER) {
			pname = p.advance().Lexeme
		}
		params = append(params, ast.Param{TypeTokens: ppt.tokens, Name: pname})
		if !p.match(token.COMMA) {
			break
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	isConst := false
	if p.checkLexeme(token.STORAGE_QUALIFIER, "const") {
		p.advance()
		isConst = true
	}

	fullName := name
	if p.currentClass != "" {
		fullName = p.currentClass + "::" + name
	}

	fd := &ast.FunctionDecl{
		P: pos(start), ReturnType: pt.tokens, Name: fullName,
		Params: params, IsConst: isConst, IsVoid: pt.isVoid,
	}
	p.voidFuncs[mangleName(name, len(params))] = pt.isVoid

	if p.match(token.SEMICOLON) {
		return fd, nil // prototype only
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	fd.Body = body
	return fd, nil
}

// mangleName reproduces the codegen's name-mangling scheme so the parser's
// void-call validation agrees with what codegen will actually emit labels
// as: bare name for zero parameters, name_P<k> otherwise.
func mangleName(name string, paramCount int) string {
	if paramCount == 0 {
		return name
	}
	return name + "_P" + itoa(paramCount)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// parseVarDeclList parses one or more comma-separated declarators sharing
// pt's type, followed by a semicolon when requireSemicolon is set. A ':' in
// place of that semicolon (a range-based for's init clause) is accepted and
// left unconsumed.
func (p *Parser) parseVarDeclList(start token.Token, pt parsedType, requireSemicolon bool) (ast.Node, error) {
	var decls []ast.Stmt
	for {
		d, err := p.parseDeclarator(start, pt)
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
		if !p.match(token.COMMA) {
			break
		}
	}

	// A following ':' marks this as the init-clause of a range-based for,
	// in which case the semicolon is omitted.
	if requireSemicolon && !p.check(token.COLON) {
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
	}

	if len(decls) == 1 {
		return decls[0], nil
	}
	return &ast.BlockStmt{P: pos(start), Stmts: decls}, nil
}

func (p *Parser) parseDeclarator(start token.Token, pt parsedType) (ast.Stmt, error) {
	name, err := p.expect(token.IDENTIFIER)
	if err != nil {
		return nil, err
	}
	decl := &ast.VarDecl{
		P: pos(start), TypeTokens: pt.tokens, Name: name.Lexeme,
		IsPointer: pt.isPointer, IsReference: pt.isReference, IsUnsigned: pt.isUnsigned,
	}

	if p.match(token.LBRACKET) {
		decl.IsArray = true
		if !p.check(token.RBRACKET) {
			if _, err := p.parseExpression(); err != nil { // size is parsed and discarded
				return nil, err
			}
		}
		if _, err := p.expect(token.RBRACKET); err != nil {
			return nil, err
		}
	}

	if p.checkLexeme(token.OPERATOR, "=") {
		p.advance()
		init, err := p.parseInitializer()
		if err != nil {
			return nil, err
		}
		decl.Init = init
	} else if p.check(token.LPAREN) {
		p.advance()
		var args []ast.Expr
		for !p.check(token.RPAREN) {
			a, err := p.parseAssignment()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if !p.match(token.COMMA) {
				break
			}
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		ctorName := ""
		if len(pt.tokens) > 0 {
			ctorName = pt.tokens[0]
		}
		decl.Init = &ast.CallExpr{P: pos(start), Callee: &ast.Identifier{P: pos(start), Name: ctorName}, Args: args}
	}

	return decl, nil
}

// parseInitializer parses either a brace-enclosed initializer list (captured
// verbatim, balanced by nesting) or a plain assignment-precedence expression.
func (p *Parser) parseInitializer() (ast.Expr, error) {
	if p.check(token.LBRACE) {
		start := p.advance()
		depth := 1
		for depth > 0 {
			if p.check(token.EOF) {
				return nil, p.fmtError("unterminated brace initializer")
			}
			if p.check(token.LBRACE) {
				depth++
			} else if p.check(token.RBRACE) {
				depth--
			}
			p.advance()
		}
		// Captured as a single literal payload per the data model; element
		// values are not individually retained.
		return &ast.Literal{P: pos(start), LitKind: ast.LitBraceInit, Text: "{...}"}, nil
	}
	return p.parseAssignment()
}
