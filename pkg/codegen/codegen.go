// Package codegen walks a pkg/ast.Program and emits a pkg/bytecode.Image:
// a flat instruction stream plus a deduplicated string table. Generation is
// single-pass; forward references (a function called before its
// definition, a loop's exit target) are resolved by the label table's
// fixup mechanism once the whole program has been walked.
package codegen

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"g0c/pkg/ast"
	"g0c/pkg/bytecode"
	"g0c/pkg/isa"
)

type loopLabels struct {
	breakLabel    string
	continueLabel string
}

// CodeGen holds all mutable state for a single generation pass.
type CodeGen struct {
	syms   *SymbolTable
	labels *LabelTable

	code        []byte
	strings     []string
	stringIndex map[string]int

	classNames map[string]bool

	currentFuncVoid bool
	loopStack       []loopLabels

	Warnings []string
}

// New creates an empty CodeGen.
func New() *CodeGen {
	return &CodeGen{
		syms:        NewSymbolTable(),
		labels:      NewLabelTable(),
		stringIndex: make(map[string]int),
		classNames:  make(map[string]bool),
	}
}

func (g *CodeGen) warnf(p ast.Position, format string, args ...any) {
	msg := fmt.Sprintf("%s: "+format, append([]any{p}, args...)...)
	g.Warnings = append(g.Warnings, msg)
}

// Generate compiles prog to a bytecode image. Codegen never aborts on a bad
// AST node; it records a warning and emits a zero placeholder instead, per
// the degrade-rather-than-abort recovery policy.
func Generate(prog *ast.Program) (*bytecode.Image, []string, error) {
	g := New()

	g.collectClassNames(prog.Decls)

	mainCallPos := len(g.code)
	g.emitJump(isa.CALL, mangleLabel("main", 0))
	g.emitByte(byte(isa.HALT))
	_ = mainCallPos

	for _, n := range prog.Decls {
		g.genNode(n)
	}

	if undef := g.labels.Undefined(); len(undef) > 0 {
		g.warnf(ast.Position{}, "undefined label(s) referenced and never defined: %s", strings.Join(undef, ", "))
	}
	g.fixupLabels()

	return &bytecode.Image{Strings: g.strings, Code: g.code}, g.Warnings, nil
}

func (g *CodeGen) collectClassNames(nodes []ast.Node) {
	for _, n := range nodes {
		switch v := n.(type) {
		case *ast.ClassDecl:
			g.classNames[v.Name] = true
			g.collectClassNames(v.Members)
		case *ast.NamespaceDecl:
			g.collectClassNames(v.Body)
		case *ast.TemplateDecl:
			if v.Decl != nil {
				g.collectClassNames([]ast.Node{v.Decl})
			}
		}
	}
}

// ------------------------------------------------------------------
// byte emission and label fixups
// ------------------------------------------------------------------

func (g *CodeGen) emitByte(b byte) { g.code = append(g.code, b) }

func (g *CodeGen) emitOp(op isa.Op) { g.emitByte(byte(op)) }

func (g *CodeGen) emitI32(v int32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	g.code = append(g.code, tmp[:]...)
}

func (g *CodeGen) emitF32(v float32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
	g.code = append(g.code, tmp[:]...)
}

func (g *CodeGen) emitPush(v int32) {
	g.emitOp(isa.PUSH)
	g.emitI32(v)
}

// emitJump writes op, records the current position as a fixup site for
// label, and reserves 4 placeholder bytes for the eventual address.
func (g *CodeGen) emitJump(op isa.Op, label string) {
	g.emitOp(op)
	g.labels.addFixup(label, len(g.code))
	g.emitI32(0)
}

func (g *CodeGen) defineLabel(name string) {
	g.labels.define(name, int32(len(g.code)))
}

func (g *CodeGen) newLabel(prefix string) string { return g.labels.NewName(prefix) }

// fixupLabels patches every recorded fixup with its label's resolved
// address. An undefined label (already warned about) is left at zero.
func (g *CodeGen) fixupLabels() {
	for _, l := range g.labels.labels {
		if !l.defined {
			continue
		}
		for _, at := range l.fixups {
			binary.LittleEndian.PutUint32(g.code[at:at+4], uint32(l.address))
		}
	}
}

func (g *CodeGen) addString(s string) int32 {
	if i, ok := g.stringIndex[s]; ok {
		return int32(i)
	}
	i := len(g.strings)
	g.strings = append(g.strings, s)
	g.stringIndex[s] = i
	return int32(i)
}

// mangleLabel reproduces the canonical mangling scheme: bare name for a
// zero-parameter function, name_P<k> otherwise.
func mangleLabel(name string, paramCount int) string {
	if paramCount == 0 {
		return name
	}
	return fmt.Sprintf("%s_P%d", name, paramCount)
}

// ------------------------------------------------------------------
// top-level declarations
// ------------------------------------------------------------------

func (g *CodeGen) genNode(n ast.Node) {
	switch v := n.(type) {
	case *ast.FunctionDecl:
		g.genFunctionDecl(v)
	case *ast.VarDecl:
		g.genVarDecl(v)
	case *ast.BlockStmt: // a multi-declarator top-level `int a, b;`
		for _, s := range v.Stmts {
			g.genNode(s)
		}
	case *ast.ClassDecl:
		for _, m := range v.Members {
			if fd, ok := m.(*ast.FunctionDecl); ok {
				g.genFunctionDecl(fd)
			}
		}
	case *ast.NamespaceDecl:
		for _, m := range v.Body {
			g.genNode(m)
		}
	case *ast.TemplateDecl:
		if v.Decl != nil {
			g.genNode(v.Decl)
		}
	case *ast.IncludeDecl, *ast.UsingDecl, *ast.AccessStmt:
		// no-op: preserved in the tree but not semantically processed.
	case ast.Stmt:
		g.genStmt(v)
	default:
		g.warnf(n.Pos(), "unhandled top-level node %T", n)
	}
}

func (g *CodeGen) genFunctionDecl(fd *ast.FunctionDecl) {
	mangled := mangleLabel(fd.Name, len(fd.Params))
	g.defineLabel(mangled)
	if fd.Body == nil {
		return // prototype only
	}

	g.syms.EnterFunction()
	prevVoid := g.currentFuncVoid
	g.currentFuncVoid = fd.IsVoid

	g.emitOp(isa.PUSH_BP)
	n := len(fd.Params)
	for i, param := range fd.Params {
		isPointer := hasPointerMarker(param.TypeTokens)
		isFloat := isFloatTypeTokens(param.TypeTokens) && !isPointer
		isUnsigned := hasUnsignedMarker(param.TypeTokens)
		g.syms.DefineParam(param.Name, i+1, n, isFloat, isUnsigned)
	}

	for _, s := range fd.Body.Stmts {
		g.genStmt(s)
	}

	if !endsInReturn(fd.Body) {
		g.emitPush(0)
		g.emitOp(isa.POP_BP)
		g.emitOp(isa.RET)
	}

	g.syms.ExitFunction()
	g.currentFuncVoid = prevVoid
}

// endsInReturn reports whether every control-flow path through s ends in a
// return statement, letting genFunctionDecl elide the otherwise-mandatory
// trailing epilogue as unreachable.
func endsInReturn(s ast.Stmt) bool {
	switch v := s.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.BlockStmt:
		if len(v.Stmts) == 0 {
			return false
		}
		return endsInReturn(v.Stmts[len(v.Stmts)-1])
	case *ast.IfStmt:
		return v.Else != nil && endsInReturn(v.Then) && endsInReturn(v.Else)
	default:
		return false
	}
}

func isFloatTypeTokens(tokens []string) bool {
	for _, t := range tokens {
		if t == "float" || t == "double" {
			return true
		}
	}
	return false
}

func hasPointerMarker(tokens []string) bool {
	for _, t := range tokens {
		if t == "*" {
			return true
		}
	}
	return false
}

func hasUnsignedMarker(tokens []string) bool {
	for _, t := range tokens {
		if t == "unsigned" {
			return true
		}
	}
	return false
}

// genVarDecl handles a variable declaration both at global scope and inside
// a function body; SymbolTable.Define dispatches on InFunction().
func (g *CodeGen) genVarDecl(v *ast.VarDecl) {
	isFloat := isFloatTypeTokens(v.TypeTokens) && !v.IsPointer
	isHeapAlloc := false
	if v.IsPointer {
		if ue, ok := v.Init.(*ast.UnaryExpr); ok && ue.Op == "new" {
			isHeapAlloc = true
		}
	}
	sym := g.syms.Define(v.Name, isFloat, v.IsArray, isHeapAlloc, v.IsUnsigned)

	if v.Init == nil {
		return
	}

	valueIsFloat := g.isFloatExpr(v.Init)
	g.genExpr(v.Init)

	if sym.IsFloat {
		if !valueIsFloat {
			g.emitOp(isa.INT_TO_FP)
		}
		g.emitOp(isa.FSTORE)
		g.emitI32(sym.FloatAddr)
		return
	}

	if valueIsFloat {
		g.emitOp(isa.FP_TO_INT)
	}
	if g.symIsLocal(sym) {
		g.emitOp(isa.STORE_BP)
		g.emitI32(sym.Offset)
	} else {
		// STORE carries no immediate operand; the address is pushed as a
		// plain literal and popped by the instruction itself.
		g.emitPush(sym.Address)
		g.emitOp(isa.STORE)
	}
}

// ------------------------------------------------------------------
// statements
// ------------------------------------------------------------------

func (g *CodeGen) genStmt(s ast.Stmt) {
	switch v := s.(type) {
	case *ast.VarDecl:
		g.genVarDecl(v)

	case *ast.BlockStmt:
		g.syms.EnterScope()
		for _, st := range v.Stmts {
			g.genStmt(st)
		}
		g.syms.ExitScope()

	case *ast.ExprStmt:
		if v.X == nil {
			return
		}
		isFloat := g.isFloatExpr(v.X)
		g.genExpr(v.X)
		if isFloat {
			g.emitOp(isa.FPOP)
		} else {
			g.emitOp(isa.POP)
		}

	case *ast.IfStmt:
		g.genIf(v)

	case *ast.WhileStmt:
		g.genWhile(v)

	case *ast.ForStmt:
		g.genFor(v)

	case *ast.ReturnStmt:
		// Every function leaves exactly one int-stack slot for its result,
		// even a void one with a bare `return;` or an implicit fall-off-end
		// return, so the caller's SWAP/POP argument cleanup stays balanced.
		if v.Value != nil {
			isFloat := g.isFloatExpr(v.Value)
			g.genExpr(v.Value)
			if isFloat {
				g.emitOp(isa.FP_TO_INT)
			}
		} else {
			g.emitPush(0)
		}
		g.emitOp(isa.POP_BP)
		g.emitOp(isa.RET)

	case *ast.BreakStmt:
		if len(g.loopStack) == 0 {
			g.warnf(v.P, "break outside a loop")
			return
		}
		g.emitJump(isa.JMP, g.loopStack[len(g.loopStack)-1].breakLabel)

	case *ast.ContinueStmt:
		if len(g.loopStack) == 0 {
			g.warnf(v.P, "continue outside a loop")
			return
		}
		g.emitJump(isa.JMP, g.loopStack[len(g.loopStack)-1].continueLabel)

	case *ast.AccessStmt:
		// no-op

	default:
		g.genNode(s)
	}
}

func (g *CodeGen) genIf(v *ast.IfStmt) {
	elseLabel := g.newLabel("else")
	endLabel := g.newLabel("endif")

	g.genExpr(v.Cond)
	g.emitJump(isa.JZ, elseLabel)
	g.genStmt(v.Then)
	if v.Else != nil {
		g.emitJump(isa.JMP, endLabel)
	}
	g.defineLabel(elseLabel)
	if v.Else != nil {
		g.genStmt(v.Else)
		g.defineLabel(endLabel)
	}
}

func (g *CodeGen) genWhile(v *ast.WhileStmt) {
	startLabel := g.newLabel("while_start")
	endLabel := g.newLabel("while_end")

	g.defineLabel(startLabel)
	g.genExpr(v.Cond)
	g.emitJump(isa.JZ, endLabel)

	g.loopStack = append(g.loopStack, loopLabels{breakLabel: endLabel, continueLabel: startLabel})
	g.genStmt(v.Body)
	g.loopStack = g.loopStack[:len(g.loopStack)-1]

	g.emitJump(isa.JMP, startLabel)
	g.defineLabel(endLabel)
}

func (g *CodeGen) genFor(v *ast.ForStmt) {
	if v.Range != nil {
		g.warnf(v.P, "range-based for has no supported container to iterate; loop body skipped")
		return
	}

	g.syms.EnterScope()
	if v.Init != nil {
		g.genStmt(v.Init)
	}

	startLabel := g.newLabel("for_start")
	postLabel := g.newLabel("for_post")
	endLabel := g.newLabel("for_end")

	g.defineLabel(startLabel)
	if v.Cond != nil {
		g.genExpr(v.Cond)
		g.emitJump(isa.JZ, endLabel)
	}

	g.loopStack = append(g.loopStack, loopLabels{breakLabel: endLabel, continueLabel: postLabel})
	g.genStmt(v.Body)
	g.loopStack = g.loopStack[:len(g.loopStack)-1]

	g.defineLabel(postLabel)
	if v.Post != nil {
		g.genStmt(v.Post)
	}
	g.emitJump(isa.JMP, startLabel)
	g.defineLabel(endLabel)
	g.syms.ExitScope()
}

// ------------------------------------------------------------------
// literal parsing
// ------------------------------------------------------------------

func parseIntLiteral(text string, isHex bool) int32 {
	base := 10
	s := text
	if isHex {
		base = 16
		s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0
	}
	return int32(uint32(v))
}

func parseFloatLiteral(text string) float32 {
	v, err := strconv.ParseFloat(text, 32)
	if err != nil {
		return 0
	}
	return float32(v)
}
