package codegen

import (
	"bytes"
	"testing"

	"g0c/pkg/isa"
	"g0c/pkg/lexer"
	"g0c/pkg/parser"
)

func compile(t *testing.T, src string) ([]byte, []string) {
	t.Helper()
	toks, lexErrs := lexer.Lex(src, "test.cpp")
	if len(lexErrs) > 0 {
		t.Fatalf("lex errors: %v", lexErrs)
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	img, warnings, err := Generate(prog)
	if err != nil {
		t.Fatalf("codegen error: %v", err)
	}
	return img.Code, warnings
}

func TestPrologueIsCallMainThenHalt(t *testing.T) {
	code, _ := compile(t, "int main() { return 0; }")
	if len(code) < 6 {
		t.Fatalf("code too short: %d bytes", len(code))
	}
	if code[0] != byte(mustOp(t, "CALL")) {
		t.Fatalf("first opcode = 0x%02X, want CALL", code[0])
	}
	if code[5] != byte(isa.HALT) {
		t.Fatalf("opcode after CALL = 0x%02X, want HALT", code[5])
	}
}

func TestVoidCallAsSubexpressionIsRejected(t *testing.T) {
	src := `
void greet() { }
int main() { int x = greet(); return 0; }
`
	toks, lexErrs := lexer.Lex(src, "test.cpp")
	if len(lexErrs) > 0 {
		t.Fatalf("lex errors: %v", lexErrs)
	}
	if _, err := parser.Parse(toks); err == nil {
		t.Fatal("expected a parse error for a void call used as a sub-expression")
	}
}

func TestFunctionEpilogueElidedWhenEveryPathReturns(t *testing.T) {
	src := `
int pick(int a) {
	if (a > 0) { return 1; } else { return 0; }
}
int main() { return pick(1); }
`
	code, _ := compile(t, src)
	if len(code) == 0 {
		t.Fatal("expected non-empty code")
	}
	rets := 0
	for i := 0; i < len(code); {
		op := isa.Op(code[i])
		if op == isa.RET {
			rets++
		}
		i++
		if isa.HasOperand(op) {
			i += 4
		}
	}
	// pick's two returns plus main's one; a fallback epilogue would add more.
	if rets != 3 {
		t.Fatalf("RET count = %d, want 3 (no fallback epilogue)", rets)
	}
}

func TestBitwiseComplementWarnsAndForcesZero(t *testing.T) {
	src := "int main() { int x = ~1; return x; }"
	code, warnings := compile(t, src)
	if len(warnings) == 0 {
		t.Fatal("expected a codegen warning for the unsupported ~ operator")
	}
	// PUSH 1 ; POP ; PUSH 0 — the operand is evaluated, discarded, and replaced by 0.
	want := []byte{byte(isa.PUSH), 1, 0, 0, 0, byte(isa.POP), byte(isa.PUSH), 0, 0, 0, 0}
	if !bytes.Contains(code, want) {
		t.Fatalf("code does not contain the forced-zero sequence % X", want)
	}
}

func mustOp(t *testing.T, name string) byte {
	t.Helper()
	switch name {
	case "CALL":
		return 0x18
	}
	t.Fatalf("unknown opcode name %s", name)
	return 0
}
