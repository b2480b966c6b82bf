package parser

import (
	"g0c/pkg/ast"
	"g0c/pkg/token"
)

func (p *Parser) parseStatement() (ast.Stmt, error) {
	tok := p.peek()

	switch {
	case tok.Kind == token.LBRACE:
		return p.parseBlock()
	case p.checkLexeme(token.KEYWORD, "if"):
		return p.parseIf()
	case p.checkLexeme(token.KEYWORD, "while"):
		return p.parseWhile()
	case p.checkLexeme(token.KEYWORD, "for"):
		return p.parseFor()
	case p.checkLexeme(token.KEYWORD, "return"):
		return p.parseReturn()
	case p.checkLexeme(token.KEYWORD, "break"):
		p.advance()
		_, err := p.expect(token.SEMICOLON)
		return &ast.BreakStmt{P: pos(tok)}, err
	case p.checkLexeme(token.KEYWORD, "continue"):
		p.advance()
		_, err := p.expect(token.SEMICOLON)
		return &ast.ContinueStmt{P: pos(tok)}, err
	case p.checkLexeme(token.KEYWORD, "throw"):
		p.advance()
		var e ast.Expr
		if !p.check(token.SEMICOLON) {
			var err error
			e, err = p.parseExpression()
			if err != nil {
				return nil, err
			}
		}
		_, err := p.expect(token.SEMICOLON)
		return &ast.ExprStmt{P: pos(tok), X: e}, err
	}

	return p.parseExprStatement()
}

func (p *Parser) parseBlock() (*ast.BlockStmt, error) {
	start, err := p.expect(token.LBRACE)
	if err != nil {
		return nil, err
	}
	block := &ast.BlockStmt{P: pos(start)}
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		node, err := p.parseDeclOrStmt()
		if err != nil {
			return nil, err
		}
		if node == nil {
			continue
		}
		stmt, ok := node.(ast.Stmt)
		if !ok {
			return nil, p.fmtError("declaration not valid inside a block")
		}
		block.Stmts = append(block.Stmts, stmt)
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return block, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	start := p.advance() // "if"
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	ifs := &ast.IfStmt{P: pos(start), Cond: cond, Then: then}
	if p.checkLexeme(token.KEYWORD, "else") {
		p.advance()
		elseBody, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		ifs.Else = elseBody
	}
	return ifs, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	start := p.advance() // "while"
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{P: pos(start), Cond: cond, Body: body}, nil
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	start := p.advance() // "for"
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	var init ast.Stmt
	if !p.check(token.SEMICOLON) && !p.check(token.COLON) {
		var err error
		if p.check(token.TYPE_SPECIFIER) || p.check(token.STORAGE_QUALIFIER) ||
			(p.check(token.IDENTIFIER) && p.looksLikeUserTypeDecl()) {
			node, err2 := p.parseVarOrFuncDecl()
			if err2 != nil {
				return nil, err2
			}
			init, _ = node.(ast.Stmt)
		} else {
			init, err = p.parseExprStatement()
			if err != nil {
				return nil, err
			}
		}
	}

	if p.match(token.COLON) {
		rangeExpr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		body, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &ast.ForStmt{P: pos(start), Init: init, Range: rangeExpr, Body: body}, nil
	}

	// A declaration or expression init clause has already consumed its ';'.
	if init == nil {
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
	}

	var cond ast.Expr
	if !p.check(token.SEMICOLON) {
		var err error
		cond, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}

	var post ast.Stmt
	if !p.check(token.RPAREN) {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		post = &ast.ExprStmt{P: e.Pos(), X: e}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{P: pos(start), Init: init, Cond: cond, Post: post, Body: body}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	start := p.advance() // "return"
	var value ast.Expr
	if !p.check(token.SEMICOLON) {
		var err error
		value, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{P: pos(start), Value: value}, nil
}

// parseExprStatement parses an expression followed by a required semicolon,
// used both as the generic statement fallback and as a for-init clause
// (where the ';' it consumes is the one ending the init clause).
func (p *Parser) parseExprStatement() (ast.Stmt, error) {
	start := p.peek()
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{P: pos(start), X: e}, nil
}
