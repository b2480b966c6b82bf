package codegen

import (
	"g0c/pkg/ast"
	"g0c/pkg/isa"
)

var streamSentinels = map[string]bool{
	"std::cout": true, "cout": true,
	"std::cerr": true, "cerr": true,
}

var readSentinels = map[string]bool{
	"std::cin": true, "cin": true,
}

var endlNames = map[string]bool{
	"std::endl": true, "endl": true,
}

var discardIdentNames = map[string]bool{
	"std": true, "cout": true, "cin": true, "endl": true, "cerr": true,
}

// isFloatExpr is the type-directed helper codegen relies on to decide
// whether an expression's result lands on the integer stack or the FPU
// stack. Comparisons and logical operators always produce an int 0/1 even
// when their operands are float.
func (g *CodeGen) isFloatExpr(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.Literal:
		return v.LitKind == ast.LitNumber && v.IsFloat
	case *ast.Identifier:
		if discardIdentNames[v.Name] {
			return false
		}
		if sym, ok := g.syms.Lookup(v.Name); ok {
			return sym.IsFloat
		}
		return false
	case *ast.BinaryExpr:
		switch v.Op {
		case "+", "-", "*", "/":
			return g.isFloatExpr(v.Left) || g.isFloatExpr(v.Right)
		default:
			return false
		}
	case *ast.UnaryExpr:
		if v.Op == "-" || v.Op == "+" {
			return g.isFloatExpr(v.Operand)
		}
		return false
	case *ast.AssignExpr:
		return g.isFloatExpr(v.Left)
	default:
		return false
	}
}

// genExpr emits code for e. On return, e's value sits on top of the
// integer stack, unless isFloatExpr(e) holds, in which case it sits on top
// of the FPU stack.
func (g *CodeGen) genExpr(e ast.Expr) {
	switch v := e.(type) {
	case *ast.Literal:
		g.genLiteral(v)
	case *ast.Identifier:
		g.genIdentifier(v)
	case *ast.UnaryExpr:
		g.genUnary(v)
	case *ast.PostfixExpr:
		g.genPostfix(v)
	case *ast.BinaryExpr:
		g.genBinary(v)
	case *ast.LogicalExpr:
		g.genLogical(v)
	case *ast.TernaryExpr:
		g.genTernary(v)
	case *ast.AssignExpr:
		g.genAssign(v)
	case *ast.CallExpr:
		g.genCall(v)
	case *ast.IndexExpr:
		g.genArrayBaseAddress(v.Array)
		g.genExpr(v.Index)
		g.emitOp(isa.ADD)
		g.emitOp(isa.LOAD_INDIRECT)
	case *ast.MemberExpr:
		g.warnf(v.P, "member access has no representable layout; result forced to 0")
		g.emitPush(0)
	default:
		g.warnf(e.Pos(), "unhandled expression kind %T; result forced to 0", e)
		g.emitPush(0)
	}
}

func (g *CodeGen) genLiteral(v *ast.Literal) {
	switch v.LitKind {
	case ast.LitNumber:
		if v.IsFloat {
			g.emitOp(isa.FPUSH)
			g.emitF32(parseFloatLiteral(v.Text))
		} else {
			g.emitPush(parseIntLiteral(v.Text, v.IsHex))
		}
	case ast.LitString:
		idx := g.addString(v.Text)
		g.emitOp(isa.PUSH_STR)
		g.emitI32(idx)
	case ast.LitChar:
		r := int32(0)
		for _, c := range v.Text {
			r = int32(c)
			break
		}
		g.emitPush(r)
	default:
		g.warnf(v.P, "unparsable literal; result forced to 0")
		g.emitPush(0)
	}
}

func (g *CodeGen) genIdentifier(v *ast.Identifier) {
	if discardIdentNames[v.Name] {
		g.emitPush(0)
		return
	}
	sym, ok := g.syms.Lookup(v.Name)
	if !ok {
		g.warnf(v.P, "undefined identifier %q; result forced to 0", v.Name)
		g.emitPush(0)
		return
	}
	g.loadSymbol(sym)
}

// loadSymbol emits the load matching sym's storage class. Heap-array and
// plain variables both load their single slot directly: a heap array's
// slot holds the pointer new returned, so no separate address-of-slot step
// (array-to-pointer decay) is needed. Genuine fixed-size stack arrays are
// not supported beyond their declared IsArray flag.
func (g *CodeGen) loadSymbol(sym *Symbol) {
	if sym.IsFloat {
		g.emitOp(isa.FLOAD)
		g.emitI32(sym.FloatAddr)
		return
	}
	if g.symIsLocal(sym) {
		g.emitOp(isa.LOAD_BP)
		g.emitI32(sym.Offset)
		return
	}
	g.emitOp(isa.LOAD)
	g.emitI32(sym.Address)
}

// symIsLocal reports whether sym is addressed BP-relative on the activation
// frame. Only parameters are: every plain variable, local or global, is a
// static-memory symbol addressed by Address instead.
func (g *CodeGen) symIsLocal(sym *Symbol) bool {
	return sym.Kind == SymParam
}

func (g *CodeGen) genUnary(v *ast.UnaryExpr) {
	switch v.Op {
	case "new":
		g.genNew(v)
	case "delete":
		g.genDelete(v)
	case "-":
		if g.isFloatExpr(v.Operand) {
			g.genExpr(v.Operand)
			g.emitOp(isa.FNEG)
		} else {
			g.emitPush(0)
			g.genExpr(v.Operand)
			g.emitOp(isa.SWAP)
			g.emitOp(isa.SUB)
		}
	case "+":
		g.genExpr(v.Operand)
	case "*":
		g.genExpr(v.Operand)
		g.emitOp(isa.LOAD_INDIRECT)
	case "&":
		g.genAddressOf(v.Operand)
	case "!":
		g.genExpr(v.Operand)
		trueLbl, endLbl := g.newLabel("not_true"), g.newLabel("not_end")
		g.emitJump(isa.JZ, trueLbl)
		g.emitPush(0)
		g.emitJump(isa.JMP, endLbl)
		g.defineLabel(trueLbl)
		g.emitPush(1)
		g.defineLabel(endLbl)
	case "~":
		g.warnf(v.P, "bitwise complement has no VM opcode; result forced to 0")
		g.genExpr(v.Operand)
		g.emitOp(isa.POP)
		g.emitPush(0)
	default:
		g.warnf(v.P, "unhandled unary operator %q; result forced to 0", v.Op)
		g.emitPush(0)
	}
}

func (g *CodeGen) genAddressOf(operand ast.Expr) {
	switch v := operand.(type) {
	case *ast.Identifier:
		sym, ok := g.syms.Lookup(v.Name)
		if !ok {
			g.warnf(v.P, "address of undefined identifier %q; result forced to 0", v.Name)
			g.emitPush(0)
			return
		}
		if sym.IsFloat {
			g.emitPush(sym.FloatAddr)
			return
		}
		if g.symIsLocal(sym) {
			g.emitPush(sym.Offset)
			return
		}
		g.emitPush(sym.Address)
	case *ast.IndexExpr:
		g.genArrayBaseAddress(v.Array)
		g.genExpr(v.Index)
		g.emitOp(isa.ADD)
	default:
		g.warnf(operand.Pos(), "address-of unsupported operand; result forced to 0")
		g.emitPush(0)
	}
}

func (g *CodeGen) genNew(v *ast.UnaryExpr) {
	switch inner := v.Operand.(type) {
	case *ast.IndexExpr:
		g.genExpr(inner.Index)
		g.emitOp(isa.ALLOC)
	case *ast.Identifier:
		g.emitPush(1)
		g.emitOp(isa.ALLOC)
	default:
		g.warnf(v.P, "unsupported new-expression form; result forced to 0")
		g.emitPush(0)
	}
}

func (g *CodeGen) genDelete(v *ast.UnaryExpr) {
	g.genExpr(v.Operand)
	g.emitOp(isa.FREE)
}

func (g *CodeGen) genPostfix(v *ast.PostfixExpr) {
	id, ok := v.Operand.(*ast.Identifier)
	if !ok {
		g.warnf(v.P, "postfix ++/-- only supported on a plain variable; result forced to 0")
		g.emitPush(0)
		return
	}
	sym, ok := g.syms.Lookup(id.Name)
	if !ok {
		g.warnf(v.P, "undefined identifier %q; result forced to 0", id.Name)
		g.emitPush(0)
		return
	}
	g.loadSymbol(sym)
	g.emitOp(isa.DUP)
	g.emitPush(1)
	if v.Op == "++_post" {
		g.emitOp(isa.ADD)
	} else {
		g.emitOp(isa.SUB)
	}
	g.storeSymbolDiscardOldTop(sym)
}

// storeSymbolDiscardOldTop stores the top-of-stack value into sym, leaving
// the value that was below it (the pre-increment copy) as the surviving
// expression result.
func (g *CodeGen) storeSymbolDiscardOldTop(sym *Symbol) {
	if sym.IsFloat {
		g.emitOp(isa.FSTORE)
		g.emitI32(sym.FloatAddr)
		return
	}
	if g.symIsLocal(sym) {
		g.emitOp(isa.STORE_BP)
		g.emitI32(sym.Offset)
		return
	}
	g.emitPush(sym.Address)
	g.emitOp(isa.STORE)
}

func (g *CodeGen) genArrayBaseAddress(arrExpr ast.Expr) {
	// Only heap arrays (a pointer value returned by new) are supported;
	// loading them is identical to a normal variable load.
	g.genExpr(arrExpr)
}

func (g *CodeGen) genBinary(v *ast.BinaryExpr) {
	if v.Op == "<<" || v.Op == ">>" {
		g.genStreamOrShift(v)
		return
	}
	switch v.Op {
	case "+", "-", "*", "/":
		g.genArith(v)
	case "%":
		g.genExpr(v.Left)
		g.genExpr(v.Right)
		g.emitOp(isa.MOD)
	case "==", "!=":
		g.genEquality(v)
	case "<", ">", "<=", ">=":
		g.genRelational(v)
	case "&", "|", "^":
		g.warnf(v.P, "bitwise operator %q has no VM opcode; result forced to 0", v.Op)
		g.genExpr(v.Left)
		g.emitOp(isa.POP)
		g.genExpr(v.Right)
		g.emitOp(isa.POP)
		g.emitPush(0)
	default:
		g.warnf(v.P, "unhandled binary operator %q; result forced to 0", v.Op)
		g.emitPush(0)
	}
}

func (g *CodeGen) genArith(v *ast.BinaryExpr) {
	leftFloat, rightFloat := g.isFloatExpr(v.Left), g.isFloatExpr(v.Right)
	if leftFloat || rightFloat {
		g.genExpr(v.Left)
		if !leftFloat {
			g.emitOp(isa.INT_TO_FP)
		}
		g.genExpr(v.Right)
		if !rightFloat {
			g.emitOp(isa.INT_TO_FP)
		}
		switch v.Op {
		case "+":
			g.emitOp(isa.FADD)
		case "-":
			g.emitOp(isa.FSUB)
		case "*":
			g.emitOp(isa.FMUL)
		case "/":
			g.emitOp(isa.FDIV)
		}
		return
	}
	g.genExpr(v.Left)
	g.genExpr(v.Right)
	switch v.Op {
	case "+":
		g.emitOp(isa.ADD)
	case "-":
		g.emitOp(isa.SUB)
	case "*":
		g.emitOp(isa.MUL)
	case "/":
		g.emitOp(isa.DIV)
	}
}

// genEquality implements the FSUB/SUB;DUP;JZ pattern: subtract, then test
// the difference against zero to produce an int 0/1 result.
func (g *CodeGen) genEquality(v *ast.BinaryExpr) {
	leftFloat, rightFloat := g.isFloatExpr(v.Left), g.isFloatExpr(v.Right)
	anyFloat := leftFloat || rightFloat

	g.genExpr(v.Left)
	if anyFloat && !leftFloat {
		g.emitOp(isa.INT_TO_FP)
	}
	g.genExpr(v.Right)
	if anyFloat && !rightFloat {
		g.emitOp(isa.INT_TO_FP)
	}
	if anyFloat {
		g.emitOp(isa.FSUB)
		g.emitOp(isa.FP_TO_INT)
	} else {
		g.emitOp(isa.SUB)
	}

	zeroLbl, endLbl := g.newLabel("eq_zero"), g.newLabel("eq_end")
	g.emitOp(isa.DUP)
	g.emitJump(isa.JZ, zeroLbl)
	g.emitOp(isa.POP)
	if v.Op == "==" {
		g.emitPush(0)
	} else {
		g.emitPush(1)
	}
	g.emitJump(isa.JMP, endLbl)
	g.defineLabel(zeroLbl)
	g.emitOp(isa.POP)
	if v.Op == "==" {
		g.emitPush(1)
	} else {
		g.emitPush(0)
	}
	g.defineLabel(endLbl)
}

func (g *CodeGen) genRelational(v *ast.BinaryExpr) {
	leftFloat, rightFloat := g.isFloatExpr(v.Left), g.isFloatExpr(v.Right)
	anyFloat := leftFloat || rightFloat

	g.genExpr(v.Left)
	if anyFloat && !leftFloat {
		g.emitOp(isa.INT_TO_FP)
	}
	g.genExpr(v.Right)
	if anyFloat && !rightFloat {
		g.emitOp(isa.INT_TO_FP)
	}
	if anyFloat {
		g.emitOp(isa.FCMP)
	} else {
		g.emitOp(isa.CMP)
	}

	trueLbl, endLbl := g.newLabel("rel_true"), g.newLabel("rel_end")
	switch v.Op {
	case "<":
		g.emitJump(isa.JL, trueLbl)
	case ">":
		g.emitJump(isa.JG, trueLbl)
	case "<=":
		g.emitJump(isa.JLE, trueLbl)
	case ">=":
		g.emitJump(isa.JGE, trueLbl)
	}
	g.emitPush(0)
	g.emitJump(isa.JMP, endLbl)
	g.defineLabel(trueLbl)
	g.emitPush(1)
	g.defineLabel(endLbl)
}

func (g *CodeGen) genLogical(v *ast.LogicalExpr) {
	switch v.Op {
	case "&&":
		falseLbl, endLbl := g.newLabel("and_false"), g.newLabel("and_end")
		g.genExpr(v.Left)
		g.emitJump(isa.JZ, falseLbl)
		g.genExpr(v.Right)
		g.emitJump(isa.JZ, falseLbl)
		g.emitPush(1)
		g.emitJump(isa.JMP, endLbl)
		g.defineLabel(falseLbl)
		g.emitPush(0)
		g.defineLabel(endLbl)
	case "||":
		trueLbl, endLbl := g.newLabel("or_true"), g.newLabel("or_end")
		g.genExpr(v.Left)
		g.emitJump(isa.JNZ, trueLbl)
		g.genExpr(v.Right)
		g.emitJump(isa.JNZ, trueLbl)
		g.emitPush(0)
		g.emitJump(isa.JMP, endLbl)
		g.defineLabel(trueLbl)
		g.emitPush(1)
		g.defineLabel(endLbl)
	default:
		g.warnf(v.P, "unhandled logical operator %q; result forced to 0", v.Op)
		g.emitPush(0)
	}
}

func (g *CodeGen) genTernary(v *ast.TernaryExpr) {
	elseLbl, endLbl := g.newLabel("tern_else"), g.newLabel("tern_end")
	g.genExpr(v.Cond)
	g.emitJump(isa.JZ, elseLbl)
	g.genExpr(v.Then)
	g.emitJump(isa.JMP, endLbl)
	g.defineLabel(elseLbl)
	g.genExpr(v.Else)
	g.defineLabel(endLbl)
}

// leftmostIdent walks the left spine of a same-operator chain of BinaryExpr
// nodes and reports the identifier rooting it, if any.
func leftmostIdent(v *ast.BinaryExpr) (*ast.Identifier, bool) {
	cur := ast.Expr(v)
	for {
		b, ok := cur.(*ast.BinaryExpr)
		if !ok || b.Op != v.Op {
			id, ok := cur.(*ast.Identifier)
			return id, ok
		}
		cur = b.Left
	}
}

// flattenChain returns the right-hand operands of a same-operator chain in
// left-to-right order, excluding the rooting identifier itself.
func flattenChain(v *ast.BinaryExpr) []ast.Expr {
	var out []ast.Expr
	var walk func(e ast.Expr)
	walk = func(e ast.Expr) {
		b, ok := e.(*ast.BinaryExpr)
		if !ok || b.Op != v.Op {
			return
		}
		if _, isIdent := b.Left.(*ast.Identifier); !isIdent {
			walk(b.Left)
		}
		out = append(out, b.Right)
	}
	walk(v)
	return out
}

// genStreamOrShift disambiguates a `<<`/`>>` BinaryExpr between a real
// bitwise shift and a std::cout/cin chain, based on the identifier rooting
// the left spine of the chain — the same heuristic the reference compiler
// used, since the surface grammar makes both forms identical.
func (g *CodeGen) genStreamOrShift(v *ast.BinaryExpr) {
	root, ok := leftmostIdent(v)
	isPrint := ok && v.Op == "<<" && streamSentinels[root.Name]
	isRead := ok && v.Op == ">>" && readSentinels[root.Name]

	if isPrint {
		for _, operand := range flattenChain(v) {
			g.genPrintOperand(operand)
		}
		g.emitPush(0)
		return
	}
	if isRead {
		for _, operand := range flattenChain(v) {
			g.genReadInto(operand)
		}
		g.emitPush(0)
		return
	}

	g.warnf(v.P, "bitwise shift %q has no VM opcode; result forced to 0", v.Op)
	g.genExpr(v.Left)
	g.emitOp(isa.POP)
	g.genExpr(v.Right)
	g.emitOp(isa.POP)
	g.emitPush(0)
}

func (g *CodeGen) genPrintOperand(operand ast.Expr) {
	if id, ok := operand.(*ast.Identifier); ok && endlNames[id.Name] {
		idx := g.addString("\n")
		g.emitOp(isa.PUSH_STR)
		g.emitI32(idx)
		g.emitOp(isa.PRINT_STR)
		return
	}
	if lit, ok := operand.(*ast.Literal); ok && lit.LitKind == ast.LitString {
		idx := g.addString(lit.Text)
		g.emitOp(isa.PUSH_STR)
		g.emitI32(idx)
		g.emitOp(isa.PRINT_STR)
		return
	}
	if g.isFloatExpr(operand) {
		g.genExpr(operand)
		g.emitOp(isa.FPRINT)
		return
	}
	g.genExpr(operand)
	g.emitOp(isa.PRINT)
}

func (g *CodeGen) genReadInto(target ast.Expr) {
	switch v := target.(type) {
	case *ast.Identifier:
		sym, ok := g.syms.Lookup(v.Name)
		if !ok {
			g.warnf(v.P, "read into undefined identifier %q ignored", v.Name)
			g.emitOp(isa.INPUT)
			g.emitOp(isa.POP)
			return
		}
		g.emitOp(isa.INPUT)
		if sym.IsFloat {
			g.emitOp(isa.INT_TO_FP)
		}
		g.storeSymbolDiscardOldTop2(sym)
	case *ast.IndexExpr:
		g.genArrayBaseAddress(v.Array)
		g.genExpr(v.Index)
		g.emitOp(isa.ADD)
		g.emitOp(isa.INPUT)
		g.emitOp(isa.SWAP)
		g.emitOp(isa.STORE_INDIRECT)
	default:
		g.warnf(target.Pos(), "unsupported read target")
		g.emitOp(isa.INPUT)
		g.emitOp(isa.POP)
	}
}

// storeSymbolDiscardOldTop2 stores top-of-stack into sym without keeping a
// copy: used by >> reads, whose target has no expression value of its own.
func (g *CodeGen) storeSymbolDiscardOldTop2(sym *Symbol) {
	if sym.IsFloat {
		g.emitOp(isa.FSTORE)
		g.emitI32(sym.FloatAddr)
		return
	}
	if g.symIsLocal(sym) {
		g.emitOp(isa.STORE_BP)
		g.emitI32(sym.Offset)
		return
	}
	g.emitPush(sym.Address)
	g.emitOp(isa.STORE)
}

func (g *CodeGen) genAssign(v *ast.AssignExpr) {
	if v.Op != "=" {
		baseOp := v.Op[:len(v.Op)-1]
		synthetic := &ast.AssignExpr{P: v.P, Op: "=", Left: v.Left, Value: &ast.BinaryExpr{P: v.P, Op: baseOp, Left: v.Left, Right: v.Value}}
		g.genAssign(synthetic)
		return
	}

	switch left := v.Left.(type) {
	case *ast.UnaryExpr:
		if left.Op != "*" {
			g.warnf(v.P, "unsupported assignment target; result forced to 0")
			g.emitPush(0)
			return
		}
		g.genExpr(v.Value)
		g.emitOp(isa.DUP)
		g.genExpr(left.Operand)
		g.emitOp(isa.STORE_INDIRECT)

	case *ast.IndexExpr:
		g.genExpr(v.Value)
		g.emitOp(isa.DUP)
		g.genArrayBaseAddress(left.Array)
		g.genExpr(left.Index)
		g.emitOp(isa.ADD)
		g.emitOp(isa.STORE_INDIRECT)

	case *ast.Identifier:
		sym, ok := g.syms.Lookup(left.Name)
		if !ok {
			g.warnf(v.P, "assignment to undefined identifier %q; result forced to 0", left.Name)
			g.genExpr(v.Value)
			g.emitOp(isa.POP)
			g.emitPush(0)
			return
		}
		valueIsFloat := g.isFloatExpr(v.Value)
		g.genExpr(v.Value)
		if sym.IsFloat && !valueIsFloat {
			g.emitOp(isa.INT_TO_FP)
		}
		if !sym.IsFloat && valueIsFloat {
			g.emitOp(isa.FP_TO_INT)
		}
		if sym.IsFloat {
			g.emitOp(isa.FDUP)
			g.emitOp(isa.FSTORE)
			g.emitI32(sym.FloatAddr)
			return
		}
		g.emitOp(isa.DUP)
		if g.symIsLocal(sym) {
			g.emitOp(isa.STORE_BP)
			g.emitI32(sym.Offset)
		} else {
			g.emitPush(sym.Address)
			g.emitOp(isa.STORE)
		}

	default:
		g.warnf(v.P, "unsupported assignment target; result forced to 0")
		g.emitPush(0)
	}
}

func (g *CodeGen) genCall(v *ast.CallExpr) {
	id, ok := v.Callee.(*ast.Identifier)
	if !ok {
		g.warnf(v.P, "unsupported call target; result forced to 0")
		g.emitPush(0)
		return
	}

	switch id.Name {
	case "print":
		for _, a := range v.Args {
			g.genPrintOperand(a)
		}
		g.emitPush(0)
		return
	case "println":
		for _, a := range v.Args {
			g.genPrintOperand(a)
		}
		idx := g.addString("\n")
		g.emitOp(isa.PUSH_STR)
		g.emitI32(idx)
		g.emitOp(isa.PRINT_STR)
		g.emitPush(0)
		return
	}

	if g.classNames[id.Name] {
		// Constructor call: no real class layout to initialize.
		g.emitPush(0)
		return
	}

	for _, a := range v.Args {
		argIsFloat := g.isFloatExpr(a)
		g.genExpr(a)
		if argIsFloat {
			g.emitOp(isa.FP_TO_INT)
		}
	}
	g.emitJump(isa.CALL, mangleLabel(id.Name, len(v.Args)))
	for range v.Args {
		g.emitOp(isa.SWAP)
		g.emitOp(isa.POP)
	}
}
