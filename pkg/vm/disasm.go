package vm

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"

	"g0c/pkg/isa"
)

// Disassemble writes one line per instruction in code to w: its byte
// offset, mnemonic, and decoded operand (an int32, or a float32 for
// FPUSH). It never aborts on a malformed tail; it reports the truncation
// and stops, since a disassembler is a diagnostic tool, not a validator.
func Disassemble(w io.Writer, code []byte) error {
	ip := 0
	for ip < len(code) {
		op := isa.Op(code[ip])
		start := ip
		ip++

		if !isa.HasOperand(op) {
			fmt.Fprintf(w, "%04d: %s\n", start, op)
			continue
		}

		if ip+4 > len(code) {
			return errors.Errorf("truncated operand for %s at offset %d", op, start)
		}
		bits := binary.LittleEndian.Uint32(code[ip : ip+4])
		ip += 4

		if op == isa.FPUSH {
			fmt.Fprintf(w, "%04d: %s %g\n", start, op, math.Float32frombits(bits))
		} else {
			fmt.Fprintf(w, "%04d: %s %d\n", start, op, int32(bits))
		}
	}
	return nil
}
