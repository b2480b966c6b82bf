// Package vm executes a pkg/bytecode.Image on a stack-based machine: one
// integer operand stack doubling as BP-relative frame storage, a separate
// 8-slot circular FPU register stack, static memory, a first-fit heap, and
// a flat float-memory address space with no BP-relative form of its own.
package vm

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"g0c/pkg/bytecode"
	"g0c/pkg/config"
	"g0c/pkg/isa"
)

const fpuDepth = 8

// Stats accumulates the counters reported by the VM CLI's -s flag.
type Stats struct {
	InstructionsExecuted int64
	MaxStackDepth        int
	HeapWordsInUse       int32
}

// VM is one execution of a loaded bytecode image. It is not safe for
// concurrent use; spec §5 keeps the machine single-threaded.
type VM struct {
	strings []string
	code    []byte

	ip int32

	stack []int32 // operand stack, also addressed directly by LOAD_BP/STORE_BP
	bp    int32

	bpStack   []int32
	callStack []int32

	staticMem []int32
	heap      *Heap
	floatMem  []float32

	fpu   [fpuDepth]float32
	fpuSP int // number of valid FPU entries, top is (fpuSP-1)%fpuDepth

	cmpFlag int // -1, 0, 1; set by CMP/FCMP, read by JL/JG/JLE/JGE

	Out   io.Writer
	In    *bufio.Reader
	Debug bool
	Stats Stats

	halted   bool
	ExitCode int
}

// New loads img into a fresh VM configured with built-in defaults.
func New(img *bytecode.Image, out io.Writer, in io.Reader) *VM {
	return NewWithConfig(img, out, in, config.Default())
}

// NewWithConfig loads img into a fresh VM using cfg's memory-layout limits.
func NewWithConfig(img *bytecode.Image, out io.Writer, in io.Reader, cfg config.Config) *VM {
	return &VM{
		strings:   img.Strings,
		code:      img.Code,
		staticMem: make([]int32, cfg.StaticCapacity),
		heap:      NewHeap(cfg.HeapStart, cfg.HeapCapacity),
		floatMem:  make([]float32, 0, 64),
		Out:       out,
		In:        bufio.NewReader(in),
	}
}

// Stack returns a snapshot of the integer operand stack, for --dump-stack.
func (m *VM) Stack() []int32 {
	out := make([]int32, len(m.stack))
	copy(out, m.stack)
	return out
}

// StaticMemory returns a snapshot of static memory, for --dump-memory.
func (m *VM) StaticMemory() []int32 {
	out := make([]int32, len(m.staticMem))
	copy(out, m.staticMem)
	return out
}

// Run executes from the current ip until HALT or a runtime error.
func (m *VM) Run() error {
	for !m.halted {
		if err := m.step(); err != nil {
			return err
		}
	}
	return nil
}

func (m *VM) fetchOp() (isa.Op, error) {
	if int(m.ip) >= len(m.code) {
		return 0, errors.Errorf("ip %d ran off the end of a %d-byte code segment", m.ip, len(m.code))
	}
	op := isa.Op(m.code[m.ip])
	m.ip++
	return op, nil
}

func (m *VM) fetchI32() (int32, error) {
	if int(m.ip)+4 > len(m.code) {
		return 0, errors.Errorf("truncated operand at ip %d", m.ip)
	}
	v := int32(binary.LittleEndian.Uint32(m.code[m.ip : m.ip+4]))
	m.ip += 4
	return v, nil
}

func (m *VM) fetchF32() (float32, error) {
	v, err := m.fetchI32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil
}

func (m *VM) step() error {
	start := m.ip
	op, err := m.fetchOp()
	if err != nil {
		return err
	}

	var operand int32
	if isa.HasOperand(op) {
		operand, err = m.fetchI32()
		if err != nil {
			return err
		}
	}

	if m.Debug {
		fmt.Fprintf(m.Out, "%04d: %s", start, op)
		if isa.HasOperand(op) {
			fmt.Fprintf(m.Out, " %d", operand)
		}
		fmt.Fprintln(m.Out)
	}

	m.Stats.InstructionsExecuted++
	if len(m.stack) > m.Stats.MaxStackDepth {
		m.Stats.MaxStackDepth = len(m.stack)
	}

	return m.exec(op, operand)
}

func (m *VM) exec(op isa.Op, operand int32) error {
	switch op {
	case isa.PUSH:
		m.push(operand)
	case isa.POP:
		if _, err := m.pop(); err != nil {
			return err
		}
	case isa.ADD, isa.SUB, isa.MUL, isa.DIV, isa.MOD:
		return m.binaryIntOp(op)
	case isa.DUP:
		v, err := m.top()
		if err != nil {
			return err
		}
		m.push(v)
	case isa.SWAP:
		return m.swap()
	case isa.PRINT:
		v, err := m.pop()
		if err != nil {
			return err
		}
		fmt.Fprintf(m.Out, "%d", v)
	case isa.PRINT_STR:
		idx, err := m.pop()
		if err != nil {
			return err
		}
		s, err := m.stringAt(idx)
		if err != nil {
			return err
		}
		fmt.Fprint(m.Out, s)
	case isa.INPUT:
		v, err := m.readInt()
		if err != nil {
			return err
		}
		m.push(v)
	case isa.INPUT_STR:
		line, err := m.In.ReadString('\n')
		if err != nil && line == "" {
			return errors.Wrap(err, "reading INPUT_STR")
		}
		line = strings.TrimRight(line, "\r\n")
		m.strings = append(m.strings, line)
		m.push(int32(len(m.strings) - 1))

	case isa.JMP:
		m.ip = operand
	case isa.JZ:
		v, err := m.pop()
		if err != nil {
			return err
		}
		if v == 0 {
			m.ip = operand
		}
	case isa.JNZ:
		v, err := m.pop()
		if err != nil {
			return err
		}
		if v != 0 {
			m.ip = operand
		}
	case isa.JL:
		if m.cmpFlag < 0 {
			m.ip = operand
		}
	case isa.JG:
		if m.cmpFlag > 0 {
			m.ip = operand
		}
	case isa.JLE:
		if m.cmpFlag <= 0 {
			m.ip = operand
		}
	case isa.JGE:
		if m.cmpFlag >= 0 {
			m.ip = operand
		}
	case isa.CMP:
		b, err := m.pop()
		if err != nil {
			return err
		}
		a, err := m.pop()
		if err != nil {
			return err
		}
		m.cmpFlag = sign(int64(a) - int64(b))

	case isa.CALL:
		m.callStack = append(m.callStack, m.ip)
		m.ip = operand
	case isa.RET:
		if len(m.callStack) == 0 {
			m.halted = true
			return nil
		}
		m.ip = m.callStack[len(m.callStack)-1]
		m.callStack = m.callStack[:len(m.callStack)-1]

	case isa.LOAD:
		v, err := m.loadMem(operand)
		if err != nil {
			return err
		}
		m.push(v)
	case isa.STORE:
		addr, err := m.pop()
		if err != nil {
			return err
		}
		v, err := m.pop()
		if err != nil {
			return err
		}
		if err := m.storeMem(addr, v); err != nil {
			return err
		}
	case isa.LOAD_BP:
		v, err := m.frameGet(m.bp + operand)
		if err != nil {
			return err
		}
		m.push(v)
	case isa.STORE_BP:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.frameSet(m.bp+operand, v)
	case isa.PUSH_BP:
		m.bpStack = append(m.bpStack, m.bp)
		m.bp = int32(len(m.stack))
	case isa.POP_BP:
		if len(m.bpStack) == 0 {
			return errors.New("POP_BP with no matching PUSH_BP")
		}
		m.bp = m.bpStack[len(m.bpStack)-1]
		m.bpStack = m.bpStack[:len(m.bpStack)-1]
	case isa.PUSH_STR:
		m.push(operand)
	case isa.LOAD_INDIRECT:
		addr, err := m.pop()
		if err != nil {
			return err
		}
		v, err := m.loadMem(addr)
		if err != nil {
			return err
		}
		m.push(v)
	case isa.STORE_INDIRECT:
		addr, err := m.pop()
		if err != nil {
			return err
		}
		v, err := m.pop()
		if err != nil {
			return err
		}
		if err := m.storeMem(addr, v); err != nil {
			return err
		}
	case isa.ALLOC:
		n, err := m.pop()
		if err != nil {
			return err
		}
		addr, err := m.heap.Alloc(n)
		if err != nil {
			return err
		}
		m.Stats.HeapWordsInUse = m.heap.InUse()
		m.push(addr)
	case isa.FREE:
		addr, err := m.pop()
		if err != nil {
			return err
		}
		if err := m.heap.Free(addr); err != nil {
			return err
		}
		m.Stats.HeapWordsInUse = m.heap.InUse()

	case isa.FPUSH:
		f, err := m.fetchF32FromOperand(operand)
		if err != nil {
			return err
		}
		m.fpush(f)
	case isa.FPOP:
		if _, err := m.fpop(); err != nil {
			return err
		}
	case isa.FADD, isa.FSUB, isa.FMUL, isa.FDIV:
		return m.binaryFloatOp(op)
	case isa.FLOAD:
		v, err := m.floatAt(operand)
		if err != nil {
			return err
		}
		m.fpush(v)
	case isa.FSTORE:
		f, err := m.fpop()
		if err != nil {
			return err
		}
		m.setFloatAt(operand, f)
	case isa.FPRINT:
		f, err := m.fpop()
		if err != nil {
			return err
		}
		fmt.Fprintf(m.Out, "%g", f)
	case isa.FCMP:
		b, err := m.fpop()
		if err != nil {
			return err
		}
		a, err := m.fpop()
		if err != nil {
			return err
		}
		switch {
		case a < b:
			m.cmpFlag = -1
		case a > b:
			m.cmpFlag = 1
		default:
			m.cmpFlag = 0
		}
	case isa.FNEG:
		f, err := m.fpop()
		if err != nil {
			return err
		}
		m.fpush(-f)
	case isa.FDUP:
		f, err := m.ftop()
		if err != nil {
			return err
		}
		m.fpush(f)
	case isa.INT_TO_FP:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.fpush(float32(v))
	case isa.FP_TO_INT:
		f, err := m.fpop()
		if err != nil {
			return err
		}
		m.push(int32(f))

	case isa.HALT:
		m.halted = true
		if len(m.stack) > 0 {
			m.ExitCode = int(m.stack[len(m.stack)-1])
		}

	default:
		return errors.Errorf("unimplemented opcode 0x%02X at ip %d", byte(op), m.ip)
	}
	return nil
}

// fetchF32FromOperand re-decodes an FPUSH operand already fetched as a raw
// int32 bit pattern by step's generic operand fetch.
func (m *VM) fetchF32FromOperand(bits int32) (float32, error) {
	return math.Float32frombits(uint32(bits)), nil
}

func sign(v int64) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

// ------------------------------------------------------------------
// integer stack
// ------------------------------------------------------------------

func (m *VM) push(v int32) { m.stack = append(m.stack, v) }

func (m *VM) pop() (int32, error) {
	if len(m.stack) == 0 {
		return 0, errors.New("integer stack underflow")
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

func (m *VM) top() (int32, error) {
	if len(m.stack) == 0 {
		return 0, errors.New("integer stack underflow")
	}
	return m.stack[len(m.stack)-1], nil
}

func (m *VM) swap() error {
	if len(m.stack) < 2 {
		return errors.New("SWAP needs two values on the stack")
	}
	n := len(m.stack)
	m.stack[n-1], m.stack[n-2] = m.stack[n-2], m.stack[n-1]
	return nil
}

func (m *VM) binaryIntOp(op isa.Op) error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	switch op {
	case isa.ADD:
		m.push(a + b)
	case isa.SUB:
		m.push(a - b)
	case isa.MUL:
		m.push(a * b)
	case isa.DIV:
		if b == 0 {
			return errors.New("integer division by zero")
		}
		m.push(a / b)
	case isa.MOD:
		if b == 0 {
			return errors.New("integer modulo by zero")
		}
		m.push(a % b)
	}
	return nil
}

// frameGet/frameSet index the operand stack directly as BP-relative frame
// storage; addresses below the current stack top (locals not yet pushed by
// any PUSH) auto-grow rather than error, matching zero-initialized memory.
func (m *VM) frameGet(addr int32) (int32, error) {
	if addr < 0 || int(addr) >= len(m.stack) {
		return 0, nil
	}
	return m.stack[addr], nil
}

func (m *VM) frameSet(addr int32, v int32) {
	if addr < 0 {
		return
	}
	for int(addr) >= len(m.stack) {
		m.stack = append(m.stack, 0)
	}
	m.stack[addr] = v
}

// ------------------------------------------------------------------
// static + heap memory (shared by LOAD/STORE and LOAD_INDIRECT/STORE_INDIRECT)
// ------------------------------------------------------------------

func (m *VM) loadMem(addr int32) (int32, error) {
	if addr < m.heap.base {
		return m.staticAt(addr), nil
	}
	return m.heap.Read(addr)
}

func (m *VM) storeMem(addr, v int32) error {
	if addr < m.heap.base {
		m.setStaticAt(addr, v)
		return nil
	}
	return m.heap.Write(addr, v)
}

func (m *VM) staticAt(addr int32) int32 {
	if addr < 0 || int(addr) >= len(m.staticMem) {
		return 0
	}
	return m.staticMem[addr]
}

func (m *VM) setStaticAt(addr, v int32) {
	if addr < 0 {
		return
	}
	for int(addr) >= len(m.staticMem) {
		m.staticMem = append(m.staticMem, 0)
	}
	m.staticMem[addr] = v
}

// ------------------------------------------------------------------
// float memory: a flat address space with no BP-relative form
// ------------------------------------------------------------------

func (m *VM) floatAt(addr int32) (float32, error) {
	if addr < 0 {
		return 0, errors.Errorf("negative float address %d", addr)
	}
	if int(addr) >= len(m.floatMem) {
		return 0, nil
	}
	return m.floatMem[addr], nil
}

func (m *VM) setFloatAt(addr int32, v float32) {
	if addr < 0 {
		return
	}
	for int(addr) >= len(m.floatMem) {
		m.floatMem = append(m.floatMem, 0)
	}
	m.floatMem[addr] = v
}

func (m *VM) stringAt(idx int32) (string, error) {
	if idx < 0 || int(idx) >= len(m.strings) {
		return "", errors.Errorf("string index %d out of range (table has %d entries)", idx, len(m.strings))
	}
	return m.strings[idx], nil
}

func (m *VM) readInt() (int32, error) {
	var s string
	for {
		tok, err := m.In.ReadString(' ')
		s += strings.TrimSpace(tok)
		if s != "" || err != nil {
			if err != nil && s == "" {
				return 0, errors.Wrap(err, "reading INPUT")
			}
			break
		}
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing INPUT value %q", s)
	}
	return int32(v), nil
}

// ------------------------------------------------------------------
// FPU circular register stack
// ------------------------------------------------------------------

func (m *VM) fpush(v float32) {
	m.fpu[m.fpuSP%fpuDepth] = v
	m.fpuSP++
}

func (m *VM) fpop() (float32, error) {
	if m.fpuSP == 0 {
		return 0, errors.New("FPU stack underflow")
	}
	m.fpuSP--
	return m.fpu[m.fpuSP%fpuDepth], nil
}

func (m *VM) ftop() (float32, error) {
	if m.fpuSP == 0 {
		return 0, errors.New("FPU stack underflow")
	}
	return m.fpu[(m.fpuSP-1)%fpuDepth], nil
}

func (m *VM) binaryFloatOp(op isa.Op) error {
	b, err := m.fpop()
	if err != nil {
		return err
	}
	a, err := m.fpop()
	if err != nil {
		return err
	}
	switch op {
	case isa.FADD:
		m.fpush(a + b)
	case isa.FSUB:
		m.fpush(a - b)
	case isa.FMUL:
		m.fpush(a * b)
	case isa.FDIV:
		if b == 0 {
			return errors.New("float division by zero")
		}
		m.fpush(a / b)
	}
	return nil
}
