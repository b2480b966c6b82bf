package vm

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"g0c/pkg/bytecode"
	"g0c/pkg/isa"
)

func assembleHalt(ops ...byte) []byte {
	return append(ops, byte(isa.HALT))
}

func i32le(v int32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func TestPushAddPrintHalt(t *testing.T) {
	var code []byte
	code = append(code, byte(isa.PUSH))
	code = append(code, i32le(2)...)
	code = append(code, byte(isa.PUSH))
	code = append(code, i32le(3)...)
	code = append(code, byte(isa.ADD))
	code = append(code, byte(isa.PRINT))
	code = assembleHalt(code...)

	var out bytes.Buffer
	m := New(&bytecode.Image{Code: code}, &out, strings.NewReader(""))
	if err := m.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "5" {
		t.Fatalf("got %q, want %q", out.String(), "5")
	}
}

func TestDivisionByZeroIsRuntimeError(t *testing.T) {
	var code []byte
	code = append(code, byte(isa.PUSH))
	code = append(code, i32le(10)...)
	code = append(code, byte(isa.PUSH))
	code = append(code, i32le(0)...)
	code = append(code, byte(isa.DIV))
	code = assembleHalt(code...)

	m := New(&bytecode.Image{Code: code}, &bytes.Buffer{}, strings.NewReader(""))
	if err := m.Run(); err == nil {
		t.Fatal("expected a division-by-zero error, got nil")
	}
}

func TestCallReturnsAndCleansUpArguments(t *testing.T) {
	// func at offset F: PUSH_BP ; LOAD_BP -1 ; LOAD_BP -2 ; ADD ; POP_BP ; RET
	// main:              PUSH 4 ; PUSH 5 ; CALL F ; SWAP ; POP ; SWAP ; POP ; PRINT ; HALT
	var fn []byte
	fn = append(fn, byte(isa.PUSH_BP))
	fn = append(fn, byte(isa.LOAD_BP))
	fn = append(fn, i32le(-1)...)
	fn = append(fn, byte(isa.LOAD_BP))
	fn = append(fn, i32le(-2)...)
	fn = append(fn, byte(isa.ADD))
	fn = append(fn, byte(isa.POP_BP))
	fn = append(fn, byte(isa.RET))

	var main []byte
	main = append(main, byte(isa.PUSH))
	main = append(main, i32le(4)...)
	main = append(main, byte(isa.PUSH))
	main = append(main, i32le(5)...)
	main = append(main, byte(isa.CALL))
	callOperandAt := len(main)
	main = append(main, i32le(0)...) // patched below once fn's offset is known
	main = append(main, byte(isa.SWAP), byte(isa.POP))
	main = append(main, byte(isa.SWAP), byte(isa.POP))
	main = append(main, byte(isa.PRINT), byte(isa.HALT))
	fnAddr := int32(len(main)) // fn starts right after main's HALT
	copy(main[callOperandAt:], i32le(fnAddr))

	code := append(main, fn...)
	code = append(code, byte(isa.HALT))

	var out bytes.Buffer
	m := New(&bytecode.Image{Code: code}, &out, strings.NewReader(""))
	if err := m.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "9" {
		t.Fatalf("got %q, want %q", out.String(), "9")
	}
}

func TestHeapAllocFreeRoundTrip(t *testing.T) {
	h := NewHeap(isa.HeapStart, 1024)
	a, err := h.Alloc(4)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	b, err := h.Alloc(4)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if b != a+4 {
		t.Fatalf("expected second block to follow the first, got %d after %d", b, a)
	}
	if err := h.Write(a, 42); err != nil {
		t.Fatalf("write: %v", err)
	}
	v, err := h.Read(a)
	if err != nil || v != 42 {
		t.Fatalf("read back %d, %v; want 42, nil", v, err)
	}
	if err := h.Free(a); err != nil {
		t.Fatalf("free: %v", err)
	}
	if err := h.Free(a); err == nil {
		t.Fatal("expected double-free to error")
	}
}

func TestHeapFreeZeroesCells(t *testing.T) {
	h := NewHeap(isa.HeapStart, 1024)
	addr, err := h.Alloc(2)
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if err := h.Write(addr, 99); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := h.Free(addr); err != nil {
		t.Fatalf("free: %v", err)
	}
	addr2, err := h.Alloc(2)
	if err != nil {
		t.Fatalf("re-alloc: %v", err)
	}
	v, err := h.Read(addr2)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if v != 0 {
		t.Errorf("read back %d after free+realloc, want 0", v)
	}
}

func TestFloatArithmeticAndComparison(t *testing.T) {
	var code []byte
	code = append(code, byte(isa.FPUSH))
	code = append(code, f32le(1.5)...)
	code = append(code, byte(isa.FPUSH))
	code = append(code, f32le(2.5)...)
	code = append(code, byte(isa.FADD))
	code = append(code, byte(isa.FPRINT))
	code = assembleHalt(code...)

	var out bytes.Buffer
	m := New(&bytecode.Image{Code: code}, &out, strings.NewReader(""))
	if err := m.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "4" {
		t.Fatalf("got %q, want %q", out.String(), "4")
	}
}

func f32le(v float32) []byte {
	return i32le(int32(math.Float32bits(v)))
}
