package parser

import (
	"fmt"

	"g0c/pkg/ast"
)

// validateVoidCalls enforces the resolution of the "return without value"
// open question: a call to a function declared void may only appear as a
// bare expression statement, never as a sub-expression whose result is
// consumed.
func (p *Parser) validateVoidCalls(prog *ast.Program) error {
	statementCalls := make(map[*ast.CallExpr]bool)
	for _, n := range prog.Decls {
		collectStatementCalls(n, statementCalls)
	}

	var firstErr error
	for _, n := range prog.Decls {
		walkNode(n, func(e ast.Expr) {
			if firstErr != nil {
				return
			}
			call, ok := e.(*ast.CallExpr)
			if !ok || statementCalls[call] {
				return
			}
			id, ok := call.Callee.(*ast.Identifier)
			if !ok {
				return
			}
			if isVoid, known := p.voidFuncs[mangleName(id.Name, len(call.Args))]; known && isVoid {
				firstErr = fmt.Errorf("%s: call to void function %q used as a value", call.Pos(), id.Name)
			}
		})
	}
	return firstErr
}

// collectStatementCalls records every *ast.CallExpr that is the direct
// expression of an ExprStmt anywhere in the tree rooted at n.
func collectStatementCalls(n ast.Node, out map[*ast.CallExpr]bool) {
	switch v := n.(type) {
	case *ast.ExprStmt:
		if call, ok := v.X.(*ast.CallExpr); ok {
			out[call] = true
		}
	case *ast.BlockStmt:
		for _, s := range v.Stmts {
			collectStatementCalls(s, out)
		}
	case *ast.IfStmt:
		collectStatementCalls(v.Then, out)
		if v.Else != nil {
			collectStatementCalls(v.Else, out)
		}
	case *ast.WhileStmt:
		collectStatementCalls(v.Body, out)
	case *ast.ForStmt:
		if v.Init != nil {
			collectStatementCalls(v.Init, out)
		}
		if v.Post != nil {
			collectStatementCalls(v.Post, out)
		}
		collectStatementCalls(v.Body, out)
	case *ast.FunctionDecl:
		if v.Body != nil {
			collectStatementCalls(v.Body, out)
		}
	case *ast.ClassDecl:
		for _, m := range v.Members {
			collectStatementCalls(m, out)
		}
	case *ast.NamespaceDecl:
		for _, m := range v.Body {
			collectStatementCalls(m, out)
		}
	case *ast.TemplateDecl:
		if v.Decl != nil {
			collectStatementCalls(v.Decl, out)
		}
	}
}

// walkNode visits every Expr reachable from n, depth-first, invoking visit
// on each.
func walkNode(n ast.Node, visit func(ast.Expr)) {
	switch v := n.(type) {
	case *ast.ExprStmt:
		walkExpr(v.X, visit)
	case *ast.VarDecl:
		if v.Init != nil {
			walkExpr(v.Init, visit)
		}
	case *ast.BlockStmt:
		for _, s := range v.Stmts {
			walkNode(s, visit)
		}
	case *ast.IfStmt:
		walkExpr(v.Cond, visit)
		walkNode(v.Then, visit)
		if v.Else != nil {
			walkNode(v.Else, visit)
		}
	case *ast.WhileStmt:
		walkExpr(v.Cond, visit)
		walkNode(v.Body, visit)
	case *ast.ForStmt:
		if v.Init != nil {
			walkNode(v.Init, visit)
		}
		if v.Cond != nil {
			walkExpr(v.Cond, visit)
		}
		if v.Post != nil {
			walkNode(v.Post, visit)
		}
		if v.Range != nil {
			walkExpr(v.Range, visit)
		}
		walkNode(v.Body, visit)
	case *ast.ReturnStmt:
		if v.Value != nil {
			walkExpr(v.Value, visit)
		}
	case *ast.FunctionDecl:
		if v.Body != nil {
			walkNode(v.Body, visit)
		}
	case *ast.ClassDecl:
		for _, m := range v.Members {
			walkNode(m, visit)
		}
	case *ast.NamespaceDecl:
		for _, m := range v.Body {
			walkNode(m, visit)
		}
	case *ast.TemplateDecl:
		if v.Decl != nil {
			walkNode(v.Decl, visit)
		}
	}
}

func walkExpr(e ast.Expr, visit func(ast.Expr)) {
	if e == nil {
		return
	}
	visit(e)
	switch v := e.(type) {
	case *ast.UnaryExpr:
		walkExpr(v.Operand, visit)
	case *ast.PostfixExpr:
		walkExpr(v.Operand, visit)
	case *ast.BinaryExpr:
		walkExpr(v.Left, visit)
		walkExpr(v.Right, visit)
	case *ast.LogicalExpr:
		walkExpr(v.Left, visit)
		walkExpr(v.Right, visit)
	case *ast.TernaryExpr:
		walkExpr(v.Cond, visit)
		walkExpr(v.Then, visit)
		walkExpr(v.Else, visit)
	case *ast.CallExpr:
		walkExpr(v.Callee, visit)
		for _, a := range v.Args {
			walkExpr(a, visit)
		}
	case *ast.MemberExpr:
		walkExpr(v.Object, visit)
	case *ast.IndexExpr:
		walkExpr(v.Array, visit)
		walkExpr(v.Index, visit)
	case *ast.AssignExpr:
		walkExpr(v.Left, visit)
		walkExpr(v.Value, visit)
	}
}
