package parser

import (
	"testing"

	"g0c/pkg/ast"
	"g0c/pkg/lexer"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	toks, lexErrs := lexer.Lex(src, "test.cpp")
	if len(lexErrs) > 0 {
		t.Fatalf("lex errors: %v", lexErrs)
	}
	prog, err := Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

func TestParseFunctionDeclWithParams(t *testing.T) {
	prog := parse(t, "int add(int a, int b) { return a + b; }")
	if len(prog.Decls) != 1 {
		t.Fatalf("got %d decls, want 1", len(prog.Decls))
	}
	fn, ok := prog.Decls[0].(*ast.FunctionDecl)
	if !ok {
		t.Fatalf("decl[0] is %T, want *ast.FunctionDecl", prog.Decls[0])
	}
	if fn.Name != "add" {
		t.Errorf("Name = %q, want add", fn.Name)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("got %d params, want 2", len(fn.Params))
	}
	if fn.IsVoid {
		t.Error("IsVoid = true, want false for int return type")
	}
	if fn.Body == nil || len(fn.Body.Stmts) != 1 {
		t.Fatalf("expected a single-statement body, got %v", fn.Body)
	}
	if _, ok := fn.Body.Stmts[0].(*ast.ReturnStmt); !ok {
		t.Errorf("body[0] is %T, want *ast.ReturnStmt", fn.Body.Stmts[0])
	}
}

func TestParseVoidFunctionDecl(t *testing.T) {
	prog := parse(t, "void greet() { }")
	fn := prog.Decls[0].(*ast.FunctionDecl)
	if !fn.IsVoid {
		t.Error("IsVoid = false, want true")
	}
}

func TestParseTernaryRetainsAllThreeChildren(t *testing.T) {
	prog := parse(t, "int main() { int x = a > b ? a : b; return 0; }")
	fn := prog.Decls[0].(*ast.FunctionDecl)
	v := fn.Body.Stmts[0].(*ast.VarDecl)
	tern, ok := v.Init.(*ast.TernaryExpr)
	if !ok {
		t.Fatalf("Init is %T, want *ast.TernaryExpr", v.Init)
	}
	if tern.Cond == nil || tern.Then == nil || tern.Else == nil {
		t.Errorf("ternary missing a child: %+v", tern)
	}
}

func TestParseIfElse(t *testing.T) {
	prog := parse(t, "int main() { if (1) { return 1; } else { return 0; } }")
	fn := prog.Decls[0].(*ast.FunctionDecl)
	ifs, ok := fn.Body.Stmts[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("stmt is %T, want *ast.IfStmt", fn.Body.Stmts[0])
	}
	if ifs.Else == nil {
		t.Error("Else is nil, want the else branch")
	}
}

func TestParseWhileAndFor(t *testing.T) {
	prog := parse(t, `
int main() {
	int i = 0;
	while (i < 10) { i = i + 1; }
	for (int j = 0; j < 10; j = j + 1) { }
	return 0;
}
`)
	fn := prog.Decls[0].(*ast.FunctionDecl)
	if _, ok := fn.Body.Stmts[1].(*ast.WhileStmt); !ok {
		t.Errorf("stmt[1] is %T, want *ast.WhileStmt", fn.Body.Stmts[1])
	}
	forStmt, ok := fn.Body.Stmts[2].(*ast.ForStmt)
	if !ok {
		t.Fatalf("stmt[2] is %T, want *ast.ForStmt", fn.Body.Stmts[2])
	}
	if forStmt.Init == nil || forStmt.Cond == nil || forStmt.Post == nil {
		t.Errorf("traditional for is missing a clause: %+v", forStmt)
	}
	if forStmt.Range != nil {
		t.Error("Range should be nil for a traditional for loop")
	}
}

func TestParseClassWithBaseAndAccessSpecifiers(t *testing.T) {
	prog := parse(t, `
class Animal : public Base {
public:
	int legs;
	void speak() { }
};
`)
	cls, ok := prog.Decls[0].(*ast.ClassDecl)
	if !ok {
		t.Fatalf("decl[0] is %T, want *ast.ClassDecl", prog.Decls[0])
	}
	if cls.Name != "Animal" {
		t.Errorf("Name = %q, want Animal", cls.Name)
	}
	if len(cls.Bases) != 1 || cls.Bases[0] != "Base" {
		t.Errorf("Bases = %v, want [Base]", cls.Bases)
	}
	sawAccess, sawMethod := false, false
	for _, m := range cls.Members {
		switch m.(type) {
		case *ast.AccessStmt:
			sawAccess = true
		case *ast.FunctionDecl:
			sawMethod = true
		}
	}
	if !sawAccess {
		t.Error("expected an AccessStmt member for 'public:'")
	}
	if !sawMethod {
		t.Error("expected a FunctionDecl member for speak()")
	}
}

func TestParseIncludeDirectives(t *testing.T) {
	prog := parse(t, "#include <iostream>\n#include \"local.h\"\nint main() { return 0; }")
	if len(prog.Decls) != 3 {
		t.Fatalf("got %d decls, want 3", len(prog.Decls))
	}
	sys, ok := prog.Decls[0].(*ast.IncludeDecl)
	if !ok || !sys.IsSystem || sys.Filename != "iostream" {
		t.Errorf("decl[0] = %+v, want system include of iostream", prog.Decls[0])
	}
	local, ok := prog.Decls[1].(*ast.IncludeDecl)
	if !ok || local.IsSystem || local.Filename != "local.h" {
		t.Errorf("decl[1] = %+v, want local include of local.h", prog.Decls[1])
	}
}

func TestParseNamespace(t *testing.T) {
	prog := parse(t, "namespace app { int counter; }")
	ns, ok := prog.Decls[0].(*ast.NamespaceDecl)
	if !ok {
		t.Fatalf("decl[0] is %T, want *ast.NamespaceDecl", prog.Decls[0])
	}
	if ns.Name != "app" {
		t.Errorf("Name = %q, want app", ns.Name)
	}
	if len(ns.Body) != 1 {
		t.Fatalf("got %d body nodes, want 1", len(ns.Body))
	}
}

func TestParseTemplateFunction(t *testing.T) {
	prog := parse(t, "template<typename T> T identity(T x) { return x; }")
	tmpl, ok := prog.Decls[0].(*ast.TemplateDecl)
	if !ok {
		t.Fatalf("decl[0] is %T, want *ast.TemplateDecl", prog.Decls[0])
	}
	if len(tmpl.Params) != 1 || tmpl.Params[0].Name != "T" {
		t.Errorf("Params = %+v, want [{T}]", tmpl.Params)
	}
	if _, ok := tmpl.Decl.(*ast.FunctionDecl); !ok {
		t.Errorf("Decl is %T, want *ast.FunctionDecl", tmpl.Decl)
	}
}

func TestParseUsingNamespace(t *testing.T) {
	prog := parse(t, "using namespace std;\nint main() { return 0; }")
	u, ok := prog.Decls[0].(*ast.UsingDecl)
	if !ok {
		t.Fatalf("decl[0] is %T, want *ast.UsingDecl", prog.Decls[0])
	}
	if u.Namespace != "std" {
		t.Errorf("Namespace = %q, want std", u.Namespace)
	}
}

func TestParseMissingClosingBraceReportsPositionedError(t *testing.T) {
	toks, lexErrs := lexer.Lex("int main() { return 0;", "test.cpp")
	if len(lexErrs) > 0 {
		t.Fatalf("lex errors: %v", lexErrs)
	}
	if _, err := Parse(toks); err == nil {
		t.Fatal("expected a parse error for an unterminated block")
	}
}

func TestParseReturnWithoutValue(t *testing.T) {
	prog := parse(t, "void noop() { return; }")
	fn := prog.Decls[0].(*ast.FunctionDecl)
	ret := fn.Body.Stmts[0].(*ast.ReturnStmt)
	if ret.Value != nil {
		t.Errorf("Value = %v, want nil for a bare return", ret.Value)
	}
}
